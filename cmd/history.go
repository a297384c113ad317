package cmd

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/killallgit/sherpa/pkg/chat"
	"github.com/killallgit/sherpa/pkg/config"
	"github.com/killallgit/sherpa/pkg/export"
	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Manage saved chat history",
}

var historyExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export saved chat history",
	Long:  `Write the saved transcript as json, markdown or yaml`,
	Run: func(cmd *cobra.Command, args []string) {
		format, _ := cmd.Flags().GetString("format")
		output, _ := cmd.Flags().GetString("output")

		w := io.Writer(os.Stdout)
		if output != "" {
			f, err := os.Create(output)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error creating %s: %v\n", output, err)
				os.Exit(1)
			}
			defer f.Close()
			w = f
		}

		if err := exportHistory(w, historyPath(), format); err != nil {
			fmt.Fprintf(os.Stderr, "Error exporting history: %v\n", err)
			os.Exit(1)
		}
	},
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete saved chat history",
	Run: func(cmd *cobra.Command, args []string) {
		history, err := chat.NewHistory(historyPath())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening history: %v\n", err)
			os.Exit(1)
		}
		if err := history.Clear(); err != nil {
			fmt.Fprintf(os.Stderr, "Error clearing history: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Cleared %s\n", history.Path())
	},
}

func historyPath() string {
	return config.ResolvePath(config.Get().History.File)
}

func exportHistory(w io.Writer, path, formatName string) error {
	format, err := export.ParseFormat(formatName)
	if err != nil {
		return err
	}

	history, err := chat.NewHistory(path)
	if err != nil {
		return fmt.Errorf("failed to open history: %w", err)
	}

	doc, err := export.NewDocument(history.SessionID, history.GetMessages(), time.Now())
	if err != nil {
		return err
	}
	return export.Write(w, format, doc)
}

func init() {
	historyExportCmd.Flags().StringP("format", "f", "markdown", "export format: json, markdown or yaml")
	historyExportCmd.Flags().StringP("output", "o", "", "write to a file instead of stdout")

	historyCmd.AddCommand(historyExportCmd)
	historyCmd.AddCommand(historyClearCmd)
	rootCmd.AddCommand(historyCmd)
}
