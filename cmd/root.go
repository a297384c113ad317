package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/killallgit/sherpa/pkg/config"
	"github.com/killallgit/sherpa/pkg/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "sherpa",
	Short: "Terminal client for CodeSherpa",
	Long: `Chat with the CodeSherpa agents from your terminal.

Ask for a pull request review or an explanation of some code. Replies
stream over a websocket (or tcp) channel and are rendered in place.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		appCfg := &AppConfig{
			Config:          config.Get(),
			ContinueHistory: viper.GetBool("continue"),
			DirectPrompt:    viper.GetString("prompt"),
			NoTUI:           viper.GetBool("headless"),
		}

		if err := RunApplication(ctx, appCfg); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			logger.Close()
			os.Exit(1)
		}
		logger.Close()
	},
}

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is .sherpa/settings.yaml)")

	rootCmd.PersistentFlags().StringP("log-level", "l", "info", "log level")
	viper.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))

	rootCmd.PersistentFlags().StringP("url", "u", "", "chat channel url (ws://, wss:// or tcp://)")
	viper.BindPFlag("server.url", rootCmd.PersistentFlags().Lookup("url"))

	rootCmd.PersistentFlags().String("session", "", "session id sent with every message")
	viper.BindPFlag("server.session_id", rootCmd.PersistentFlags().Lookup("session"))

	rootCmd.PersistentFlags().Bool("continue", false, "continue from previous chat history instead of starting fresh")
	viper.BindPFlag("continue", rootCmd.PersistentFlags().Lookup("continue"))

	rootCmd.PersistentFlags().StringP("prompt", "p", "", "send a prompt directly without entering TUI")
	viper.BindPFlag("prompt", rootCmd.PersistentFlags().Lookup("prompt"))

	rootCmd.PersistentFlags().BoolP("headless", "H", false, "run without TUI (requires --prompt)")
	viper.BindPFlag("headless", rootCmd.PersistentFlags().Lookup("headless"))
}

func initConfig() {
	if _, err := config.Load(cfgFile); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}
}
