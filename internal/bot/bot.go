// Package bot provides the Telegram front-end for the repair ledger.
package bot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"
	"gitlab.com/yelinaung/repair-ledger/internal/backup"
	"gitlab.com/yelinaung/repair-ledger/internal/config"
	"gitlab.com/yelinaung/repair-ledger/internal/gemini"
	"gitlab.com/yelinaung/repair-ledger/internal/ledger"
	"gitlab.com/yelinaung/repair-ledger/internal/logger"
	"gitlab.com/yelinaung/repair-ledger/internal/storage"
)

// BindingsKey is the backend key holding superadmin username bindings.
const BindingsKey = "mido_bot_bindings"

// BackupStaleAfter is how old the last backup may get before /summary nags.
const BackupStaleAfter = 7 * 24 * time.Hour

// Bot wraps the Telegram bot with application dependencies.
type Bot struct {
	bot        *bot.Bot
	cfg        *config.Config
	store      *ledger.Store
	backups    *backup.Service
	classifier gemini.DeviceClassifier
	httpClient *http.Client
}

// New creates a new Bot instance. classifier may be nil, in which case photo
// scans are answered with a hint to enter the device by hand.
func New(
	ctx context.Context,
	cfg *config.Config,
	store *ledger.Store,
	backups *backup.Service,
	classifier gemini.DeviceClassifier,
) (*Bot, error) {
	b := newBot(cfg, store, backups, classifier)

	if err := b.loadBindings(ctx); err != nil {
		return nil, err
	}

	opts := []bot.Option{
		bot.WithMiddlewares(b.whitelistMiddleware),
		bot.WithDefaultHandler(b.defaultHandler),
	}

	telegramBot, err := bot.New(cfg.TelegramBotToken, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	b.bot = telegramBot
	b.registerHandlers()

	return b, nil
}

func newBot(cfg *config.Config, store *ledger.Store, backups *backup.Service, classifier gemini.DeviceClassifier) *Bot {
	return &Bot{
		cfg:        cfg,
		store:      store,
		backups:    backups,
		classifier: classifier,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Start begins polling for updates.
func (b *Bot) Start(ctx context.Context) {
	logger.Log.Info().Msg("Bot started polling")
	b.bot.Start(ctx)
}

// registerHandlers sets up command handlers.
func (b *Bot) registerHandlers() {
	b.bot.RegisterHandler(bot.HandlerTypeMessageText, "/start", bot.MatchTypePrefix, b.handleStart)
	b.bot.RegisterHandler(bot.HandlerTypeMessageText, "/help", bot.MatchTypePrefix, b.handleHelp)
	b.bot.RegisterHandler(bot.HandlerTypeMessageText, "/summary", bot.MatchTypePrefix, b.handleSummary)
	b.bot.RegisterHandler(bot.HandlerTypeMessageText, "/clients", bot.MatchTypePrefix, b.handleClients)
	b.bot.RegisterHandler(bot.HandlerTypeMessageText, "/client ", bot.MatchTypePrefix, b.handleClient)
	b.bot.RegisterHandler(bot.HandlerTypeMessageText, "/repairs", bot.MatchTypePrefix, b.handleRepairs)
	b.bot.RegisterHandler(bot.HandlerTypeMessageText, "/repair ", bot.MatchTypePrefix, b.handleRepair)
	b.bot.RegisterHandler(bot.HandlerTypeMessageText, "/newclient", bot.MatchTypePrefix, b.handleNewClient)
	b.bot.RegisterHandler(bot.HandlerTypeMessageText, "/newdevice", bot.MatchTypePrefix, b.handleNewDevice)
	b.bot.RegisterHandler(bot.HandlerTypeMessageText, "/newrepair", bot.MatchTypePrefix, b.handleNewRepair)
	b.bot.RegisterHandler(bot.HandlerTypeMessageText, "/expense", bot.MatchTypePrefix, b.handleNewExpense)
	b.bot.RegisterHandler(bot.HandlerTypeMessageText, "/status", bot.MatchTypePrefix, b.handleStatus)
	b.bot.RegisterHandler(bot.HandlerTypeMessageText, "/pay", bot.MatchTypePrefix, b.handlePay)
	b.bot.RegisterHandler(bot.HandlerTypeMessageText, "/notify", bot.MatchTypePrefix, b.handleNotify)
	b.bot.RegisterHandler(bot.HandlerTypeMessageText, "/cost", bot.MatchTypePrefix, b.handleCost)
	b.bot.RegisterHandler(bot.HandlerTypeMessageText, "/editclient", bot.MatchTypePrefix, b.handleEditClient)
	b.bot.RegisterHandler(bot.HandlerTypeMessageText, "/editdevice", bot.MatchTypePrefix, b.handleEditDevice)
	b.bot.RegisterHandler(bot.HandlerTypeMessageText, "/editexpense", bot.MatchTypePrefix, b.handleEditExpense)
	b.bot.RegisterHandler(bot.HandlerTypeMessageText, "/delclient", bot.MatchTypePrefix, b.handleDeleteClient)
	b.bot.RegisterHandler(bot.HandlerTypeMessageText, "/deldevice", bot.MatchTypePrefix, b.handleDeleteDevice)
	b.bot.RegisterHandler(bot.HandlerTypeMessageText, "/delrepair", bot.MatchTypePrefix, b.handleDeleteRepair)
	b.bot.RegisterHandler(bot.HandlerTypeMessageText, "/delexpense", bot.MatchTypePrefix, b.handleDeleteExpense)
	b.bot.RegisterHandler(bot.HandlerTypeMessageText, "/backup", bot.MatchTypePrefix, b.handleBackup)
	b.bot.RegisterHandler(bot.HandlerTypeMessageText, "/export", bot.MatchTypePrefix, b.handleExport)
	b.bot.RegisterHandler(bot.HandlerTypeMessageText, "/csv", bot.MatchTypePrefix, b.handleCSV)
	b.bot.RegisterHandler(bot.HandlerTypeMessageText, "/chart", bot.MatchTypePrefix, b.handleChart)
	b.bot.RegisterHandler(bot.HandlerTypeMessageText, "/catalog", bot.MatchTypePrefix, b.handleCatalog)
	b.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, statusCallbackPrefix, bot.MatchTypePrefix, b.handleStatusCallback)
}

// whitelistMiddleware checks if the user is whitelisted before processing.
func (b *Bot) whitelistMiddleware(next bot.HandlerFunc) bot.HandlerFunc {
	return func(ctx context.Context, tgBot *bot.Bot, update *tgmodels.Update) {
		if !b.authorize(ctx, tgBot, update) {
			return
		}
		next(ctx, tgBot, update)
	}
}

// authorize is the testable body of whitelistMiddleware.
func (b *Bot) authorize(ctx context.Context, tg TelegramAPI, update *tgmodels.Update) bool {
	userID := extractUserID(update)
	if userID == 0 {
		return false
	}

	username := extractUsername(update)
	logUserAction(userID, update)

	ok, binding := b.cfg.Authorize(userID, username)
	if !ok {
		logger.Log.Warn().
			Str("user_hash", logger.HashUserID(userID)).
			Msg("Blocked non-whitelisted user")
		if update.Message != nil {
			_, _ = tg.SendMessage(ctx, &bot.SendMessageParams{
				ChatID: update.Message.Chat.ID,
				Text:   "⛔ Sorry, you are not authorized to use this bot.",
			})
		}
		return false
	}

	if binding != nil {
		logger.Log.Info().
			Str("user_hash", logger.HashUserID(userID)).
			Msg("Bound whitelisted username to user")
		if err := b.saveBindings(ctx); err != nil {
			logger.Log.Error().Err(err).Msg("Failed to persist username binding")
		}
	}
	return true
}

// loadBindings restores username bindings written by an earlier run.
func (b *Bot) loadBindings(ctx context.Context) error {
	data, err := b.store.Backend().Get(ctx, BindingsKey)
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load bindings: %w", err)
	}

	var bindings []config.Binding
	if err := json.Unmarshal(data, &bindings); err != nil {
		logger.Log.Warn().Err(err).Msg("Ignoring unreadable username bindings")
		return nil
	}
	b.cfg.RestoreBindings(bindings)
	return nil
}

func (b *Bot) saveBindings(ctx context.Context) error {
	data, err := json.Marshal(b.cfg.Bindings())
	if err != nil {
		return fmt.Errorf("failed to marshal bindings: %w", err)
	}
	if err := b.store.Backend().Put(ctx, BindingsKey, data); err != nil {
		return fmt.Errorf("failed to save bindings: %w", err)
	}
	return nil
}

// logUserAction logs the user's input without exposing who sent it.
func logUserAction(userID int64, update *tgmodels.Update) {
	switch {
	case update.Message != nil:
		msg := update.Message
		event := logger.Log.Info().
			Str("user_hash", logger.HashUserID(userID)).
			Str("chat_hash", logger.HashChatID(msg.Chat.ID))

		if msg.Text != "" {
			event = event.Str("text", logger.SanitizeText(msg.Text))
		}
		if len(msg.Photo) > 0 {
			event = event.Str("type", "photo")
		}
		if msg.Document != nil {
			event = event.Str("type", "document").Str("filename", msg.Document.FileName)
		}

		event.Msg("User input")

	case update.CallbackQuery != nil:
		logger.Log.Info().
			Str("user_hash", logger.HashUserID(userID)).
			Str("data", update.CallbackQuery.Data).
			Msg("Callback query")
	}
}

// extractUsername gets the username from the update.
func extractUsername(update *tgmodels.Update) string {
	if update.Message != nil && update.Message.From != nil {
		return update.Message.From.Username
	}
	if update.CallbackQuery != nil {
		return update.CallbackQuery.From.Username
	}
	return ""
}

// extractUserID gets the user ID from various update types.
func extractUserID(update *tgmodels.Update) int64 {
	if update.Message != nil && update.Message.From != nil {
		return update.Message.From.ID
	}
	if update.CallbackQuery != nil {
		return update.CallbackQuery.From.ID
	}
	return 0
}

// defaultHandler routes photos and documents, and answers anything else with a hint.
func (b *Bot) defaultHandler(ctx context.Context, tgBot *bot.Bot, update *tgmodels.Update) {
	b.defaultHandlerCore(ctx, tgBot, update)
}

// defaultHandlerCore is the testable implementation of defaultHandler.
func (b *Bot) defaultHandlerCore(ctx context.Context, tg TelegramAPI, update *tgmodels.Update) {
	if update.Message == nil {
		return
	}

	switch {
	case len(update.Message.Photo) > 0:
		b.handlePhotoCore(ctx, tg, update)
		return
	case update.Message.Document != nil:
		b.handleDocumentCore(ctx, tg, update)
		return
	}

	logger.Log.Debug().
		Str("chat_hash", logger.HashChatID(update.Message.Chat.ID)).
		Msg("Default handler triggered")

	_, err := tg.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    update.Message.Chat.ID,
		Text:      "I didn't understand that. Use /help to see available commands.",
		ParseMode: tgmodels.ParseModeHTML,
	})
	if err != nil {
		logger.Log.Error().Err(err).Msg("Failed to send default response")
	}
}
