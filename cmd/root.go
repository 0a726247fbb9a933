package cmd

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "snaptext",
	Short: "Telegram bot that converts images to text via OCR",
	Long:  "Snaptext receives photos over Telegram, submits them to an OCR provider, and replies with the extracted text.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Secrets may live in a local .env; absence is fine.
		_ = godotenv.Load()
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
