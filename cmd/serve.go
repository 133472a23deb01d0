package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"gitlab.com/yelinaung/repair-ledger/internal/bot"
	"gitlab.com/yelinaung/repair-ledger/internal/gemini"
	"gitlab.com/yelinaung/repair-ledger/internal/logger"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the Telegram bot",
	Long: `Start polling Telegram for updates. Requires TELEGRAM_BOT_TOKEN and at least
one whitelisted user. Photo scans are enabled when GEMINI_API_KEY is set.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.cfg.ValidateBot(); err != nil {
		return err
	}
	logger.InitHashSalt()

	var classifier gemini.DeviceClassifier
	if a.cfg.GeminiAPIKey != "" {
		client, err := gemini.NewClient(ctx, a.cfg.GeminiAPIKey, gemini.WithModel(a.cfg.GeminiModel))
		if err != nil {
			return err
		}
		classifier = client
	} else {
		logger.Log.Warn().Msg("GEMINI_API_KEY not set, photo scans disabled")
	}

	if _, err := a.store.Load(ctx); err != nil {
		return err
	}
	logger.Log.Info().Str("driver", a.cfg.StoreDriver).Msg("Ledger initialized successfully")

	telegramBot, err := bot.New(ctx, a.cfg, a.store, a.backups, classifier)
	if err != nil {
		return err
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		select {
		case <-sigChan:
			logger.Log.Info().Msg("Shutting down...")
			cancel()
		case <-ctx.Done():
		}
	}()

	telegramBot.Start(ctx)
	return nil
}
