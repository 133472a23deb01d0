package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-telegram/bot/models"
	"gitlab.com/yelinaung/repair-ledger/internal/catalog"
	"gitlab.com/yelinaung/repair-ledger/internal/gemini"
	"gitlab.com/yelinaung/repair-ledger/internal/logger"
	appmodels "gitlab.com/yelinaung/repair-ledger/internal/models"
)

// handlePhotoCore identifies the phone in a photo and replies with a draft
// device. Nothing is saved; the reply carries a ready-made /newdevice line.
func (b *Bot) handlePhotoCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	if update.Message == nil || len(update.Message.Photo) == 0 {
		return
	}
	chatID := update.Message.Chat.ID

	if b.classifier == nil {
		reply(ctx, tg, chatID, "📷 Device scan is not configured. Enter the device with <code>/newdevice</code>.")
		return
	}

	largestPhoto := update.Message.Photo[len(update.Message.Photo)-1]

	reply(ctx, tg, chatID, "📷 Identifying device...")

	image, err := b.downloadFile(ctx, tg, largestPhoto.FileID)
	if err != nil {
		logger.Log.Error().Err(err).Str("chat_hash", logger.HashChatID(chatID)).Msg("Failed to download photo")
		reply(ctx, tg, chatID, "❌ Failed to download photo. Please try again.")
		return
	}

	guess, err := b.classifier.ClassifyDevice(ctx, image, "image/jpeg")
	if err != nil {
		logger.Log.Warn().Err(err).Msg("Device not identified")
		if errors.Is(err, gemini.ErrTimeout) {
			reply(ctx, tg, chatID, "⏱️ Device scan timed out. Enter the device with <code>/newdevice</code>.")
			return
		}
		reply(ctx, tg, chatID, "❌ Could not identify the device. Enter it with <code>/newdevice</code>.")
		return
	}

	var draft appmodels.Device
	guess.ApplyTo(&draft)

	known := false
	if entries, err := b.store.Catalog(ctx); err == nil {
		if entry, ok := catalog.MatchBrand(draft.Brand, entries); ok {
			draft.Brand = entry.Brand
			if m, ok := catalog.MatchModel(draft.Model, entry); ok {
				draft.Model = m
				known = true
			}
		}
	} else {
		logger.Log.Warn().Err(err).Msg("Failed to load catalog for scan")
	}

	logger.Log.Info().
		Str("brand", draft.Brand).
		Str("model", draft.Model).
		Bool("in_catalog", known).
		Msg("Device identified")

	var sb strings.Builder
	sb.WriteString("📱 <b>Device identified</b>\n\n")
	fmt.Fprintf(&sb, "Brand: %s\n", orUnknown(draft.Brand))
	fmt.Fprintf(&sb, "Model: %s\n", orUnknown(draft.Model))
	fmt.Fprintf(&sb, "Color: %s\n", orUnknown(draft.Color))
	if !known {
		sb.WriteString("\n<i>Not in the catalog. Please check the model.</i>\n")
	}
	fmt.Fprintf(&sb, "\nTo save it:\n<code>/newdevice &lt;client id&gt; %s | %s | %s</code>",
		escapeHTML(draft.Brand), escapeHTML(draft.Model), escapeHTML(draft.Color))

	reply(ctx, tg, chatID, sb.String())
}

func orUnknown(s string) string {
	if s == "" {
		return "?"
	}
	return escapeHTML(s)
}
