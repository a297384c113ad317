package cmd

import (
	"fmt"
	"os"

	"github.com/killallgit/sherpa/pkg/config"
	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default settings file",
	Long:  `Create .sherpa/settings.yaml (or the --config path) holding the current settings`,
	Run: func(cmd *cobra.Command, args []string) {
		path := cfgFile
		if path == "" {
			path = ".sherpa/settings.yaml"
		}

		if err := config.WriteDefaults(path); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Created default settings file at %s\n", path)
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
