package cmd

import (
	"context"
	"fmt"
	"strings"

	"snaptext/pkg/config"
	"snaptext/pkg/ocr"

	"github.com/spf13/cobra"
)

// recognizeCmd represents the recognize command
var recognizeCmd = &cobra.Command{
	Use:   "recognize <image>",
	Short: "Extract text from a local image file",
	Long:  "Loads snaptext configuration and submits one local image to the OCR provider, printing the extracted text.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		path := strings.TrimSpace(args[0])
		if path == "" {
			fmt.Println("image path is required")
			return
		}

		cfg, err := config.LoadConfig()
		if err != nil {
			fmt.Printf("failed to load config: %v\n", err)
			return
		}

		client, err := ocr.New(cfg.OCR)
		if err != nil {
			fmt.Printf("failed to initialize OCR client: %v\n", err)
			return
		}

		fmt.Println(formatOutcome(client.Recognize(context.Background(), path)))
	},
}

func init() {
	rootCmd.AddCommand(recognizeCmd)
}

// formatOutcome renders a recognition outcome for terminal output.
func formatOutcome(outcome ocr.Outcome) string {
	switch outcome.Kind {
	case ocr.KindText:
		return outcome.Text
	case ocr.KindNoText:
		return "no text found"
	case ocr.KindProviderError:
		return fmt.Sprintf("provider error (status %d): %s", outcome.Status, strings.TrimSpace(outcome.Detail))
	default:
		return fmt.Sprintf("request failed: %s", outcome.Detail)
	}
}
