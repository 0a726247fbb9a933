package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"snaptext/pkg/bus"
	"snaptext/pkg/channel"
	"snaptext/pkg/channel/telegram"
	"snaptext/pkg/config"
	"snaptext/pkg/gateway"
	"snaptext/pkg/logger"
	"snaptext/pkg/membership"
	"snaptext/pkg/ocr"
	"snaptext/pkg/pipeline"
	"snaptext/pkg/spool"

	"github.com/spf13/cobra"
)

const startReply = "Send me an image and I will convert it to text!"

var botCmd = &cobra.Command{
	Use:   "bot",
	Short: "Run the Telegram OCR bot",
	Long:  "Runs snaptext as a long-polling Telegram bot with status and metrics endpoints.",
	Run: func(cmd *cobra.Command, args []string) {
		_ = args

		cfg, err := config.LoadConfig()
		if err != nil {
			fmt.Printf("failed to load config: %v\n", err)
			return
		}

		appLogger, err := logger.New(cfg.Logging)
		if err != nil {
			fmt.Printf("failed to initialize logger: %v\n", err)
			return
		}
		slog.SetDefault(appLogger)
		log := slog.Default().With("component", "cmd.bot")

		if !cfg.Channels.Telegram.Enabled {
			log.Error("No channels are enabled")
			return
		}

		adapter, err := telegram.NewAdapter(cfg.Channels.Telegram, appLogger)
		if err != nil {
			log.Error("Failed to configure telegram channel", "error", err)
			return
		}

		recognizer, err := ocr.New(cfg.OCR)
		if err != nil {
			log.Error("Failed to configure OCR client", "error", err)
			return
		}

		imageSpool, err := spool.New(cfg.Spool.Dir)
		if err != nil {
			log.Error("Failed to prepare spool directory", "error", err)
			return
		}

		events := bus.NewEventBus()
		defer events.Close()

		orchestrator := pipeline.New(adapter, adapter, recognizer, imageSpool, events, appLogger)
		gate := membership.NewGate(adapter, events, appLogger)

		handlers := channel.Handlers{
			Photo:      orchestrator.Process,
			Command:    handleCommand,
			Membership: gate.OnChange,
		}

		runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		svc, err := gateway.NewService(cfg, []channel.Adapter{adapter}, handlers, events, appLogger)
		if err != nil {
			log.Error("Failed to initialize gateway service", "error", err)
			return
		}

		log.Info("Bot started", "channels", adapter.Name(), "spool_dir", imageSpool.Dir())
		if err := svc.Run(runCtx); err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			log.Error("Bot runtime failed", "error", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(botCmd)
}

// handleCommand answers the registered slash commands. Unknown commands get
// no reply.
func handleCommand(_ context.Context, command bus.InboundCommand) (string, error) {
	switch strings.ToLower(command.Command) {
	case "start":
		return startReply, nil
	default:
		return "", nil
	}
}
