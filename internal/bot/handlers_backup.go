package bot

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"gitlab.com/yelinaung/repair-ledger/internal/backup"
	"gitlab.com/yelinaung/repair-ledger/internal/catalog"
	"gitlab.com/yelinaung/repair-ledger/internal/logger"
	"gitlab.com/yelinaung/repair-ledger/internal/report"
)

// catalogCaption marks an uploaded document as a catalog rather than a backup.
const catalogCaption = "catalog"

// sendFile uploads data as a document and reports failures to the chat.
func sendFile(ctx context.Context, tg TelegramAPI, chatID int64, filename string, data []byte, caption string) bool {
	_, err := tg.SendDocument(ctx, &bot.SendDocumentParams{
		ChatID:    chatID,
		Document:  &models.InputFileUpload{Filename: filename, Data: bytes.NewReader(data)},
		Caption:   caption,
		ParseMode: models.ParseModeHTML,
	})
	if err != nil {
		logger.Log.Error().Err(err).Str("filename", filename).Msg("Failed to send document")
		reply(ctx, tg, chatID, "❌ Failed to send file. Please try again.")
		return false
	}
	return true
}

// handleBackup handles the /backup command.
func (b *Bot) handleBackup(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleBackupCore(ctx, tgBot, update)
}

// handleBackupCore is the testable implementation of handleBackup. The file is
// sent to the chat and, when an archive is configured, stored off-site too.
func (b *Bot) handleBackupCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID

	exp, location, err := b.backups.Archive(ctx)
	archived := err == nil
	if errors.Is(err, backup.ErrNoArchive) {
		exp, err = b.backups.PrepareFull(ctx)
	}
	if err != nil {
		logger.Log.Error().Err(err).Msg("Failed to export backup")
		reply(ctx, tg, chatID, "❌ Failed to create backup. Please try again.")
		return
	}

	caption := fmt.Sprintf("💾 <b>Full backup</b>\n%s", exp.At.Format("2006-01-02 15:04"))
	if location != "" {
		caption += "\n☁️ " + escapeHTML(location)
	}
	if !sendFile(ctx, tg, chatID, exp.Filename, exp.Data, caption) {
		return
	}
	logger.Log.Info().Int("bytes", len(exp.Data)).Msg("Backup sent")
	if archived {
		return
	}
	if err := b.backups.MarkDelivered(ctx, exp); err != nil {
		logger.Log.Error().Err(err).Msg("Failed to record backup time")
	}
}

// handleExport handles the /export command.
func (b *Bot) handleExport(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleExportCore(ctx, tgBot, update)
}

// handleExportCore is the testable implementation of handleExport.
func (b *Bot) handleExportCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID

	table, err := backup.ParseTable(extractCommandArgs(update.Message.Text, "/export"))
	if err != nil {
		names := make([]string, 0, len(backup.Tables))
		for _, t := range backup.Tables {
			names = append(names, string(t))
		}
		reply(ctx, tg, chatID, fmt.Sprintf("Usage: <code>/export &lt;%s&gt;</code>", strings.Join(names, "|")))
		return
	}

	exp, err := b.backups.ExportTable(ctx, table)
	if err != nil {
		logger.Log.Error().Err(err).Str("table", string(table)).Msg("Failed to export table")
		reply(ctx, tg, chatID, "❌ Failed to export. Please try again.")
		return
	}

	sendFile(ctx, tg, chatID, exp.Filename, exp.Data, fmt.Sprintf("📤 <b>%s</b>", table))
}

// handleCSV handles the /csv command.
func (b *Bot) handleCSV(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleCSVCore(ctx, tgBot, update)
}

// handleCSVCore is the testable implementation of handleCSV.
func (b *Bot) handleCSVCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID

	table := strings.ToLower(extractCommandArgs(update.Message.Text, "/csv"))
	if table == "" {
		table = string(backup.TableRepairs)
	}

	snap, err := b.store.Load(ctx)
	if err != nil {
		logger.Log.Error().Err(err).Msg("Failed to load snapshot for CSV")
		reply(ctx, tg, chatID, msgStoreError)
		return
	}

	var data []byte
	switch table {
	case string(backup.TableRepairs):
		data, err = report.RepairsCSV(snap)
	case string(backup.TableExpenses):
		data, err = report.ExpensesCSV(snap.Expenses)
	default:
		reply(ctx, tg, chatID, "Usage: <code>/csv [repairs|expenses]</code>")
		return
	}
	if err != nil {
		logger.Log.Error().Err(err).Str("table", table).Msg("Failed to generate CSV")
		reply(ctx, tg, chatID, "❌ Failed to generate report. Please try again.")
		return
	}

	sendFile(ctx, tg, chatID, report.CSVFilename(table, b.store.Now()), data, fmt.Sprintf("📄 <b>%s</b>", table))
}

// handleCatalog handles the /catalog command.
func (b *Bot) handleCatalog(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleCatalogCore(ctx, tgBot, update)
}

// handleCatalogCore is the testable implementation of handleCatalog.
func (b *Bot) handleCatalogCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID

	entries, err := b.store.Catalog(ctx)
	if err != nil {
		logger.Log.Error().Err(err).Msg("Failed to load catalog")
		reply(ctx, tg, chatID, msgStoreError)
		return
	}
	if len(entries) == 0 {
		reply(ctx, tg, chatID, "📚 The catalog is empty.")
		return
	}

	var sb strings.Builder
	sb.WriteString("📚 <b>Catalog</b>\n")
	for _, e := range entries {
		fmt.Fprintf(&sb, "\n<b>%s</b> (%d)\n", escapeHTML(e.Brand), len(e.Models))
		if len(e.Models) > 0 {
			sb.WriteString(escapeHTML(strings.Join(e.Models, ", ")) + "\n")
		}
	}
	reply(ctx, tg, chatID, sb.String())
}

// handleDocumentCore restores an uploaded backup, or replaces the catalog
// when the document is captioned "catalog".
func (b *Bot) handleDocumentCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	if update.Message == nil || update.Message.Document == nil {
		return
	}
	chatID := update.Message.Chat.ID
	doc := update.Message.Document

	if !strings.HasSuffix(strings.ToLower(doc.FileName), ".json") && doc.MimeType != "application/json" {
		reply(ctx, tg, chatID, "❌ Please send a <code>.json</code> backup file.")
		return
	}

	data, err := b.downloadFile(ctx, tg, doc.FileID)
	if err != nil {
		logger.Log.Error().Err(err).Str("filename", doc.FileName).Msg("Failed to download document")
		reply(ctx, tg, chatID, "❌ Failed to download file. Please try again.")
		return
	}

	if strings.EqualFold(strings.TrimSpace(update.Message.Caption), catalogCaption) {
		b.importCatalogCore(ctx, tg, chatID, data)
		return
	}

	if err := b.backups.ImportFull(ctx, data); err != nil {
		logger.Log.Warn().Err(err).Str("filename", doc.FileName).Msg("Backup rejected")
		switch {
		case errors.Is(err, backup.ErrBareList):
			reply(ctx, tg, chatID, "❌ This looks like a single-table export. Only full backups can be restored.")
		case errors.Is(err, backup.ErrIncompleteBackup):
			reply(ctx, tg, chatID, "❌ This backup has no client list. Nothing was changed.")
		case errors.Is(err, backup.ErrInvalidBackup):
			reply(ctx, tg, chatID, "❌ This file is not a valid backup. Nothing was changed.")
		default:
			reply(ctx, tg, chatID, "❌ Failed to restore backup. Please try again.")
		}
		return
	}

	snap, err := b.store.Load(ctx)
	if err != nil {
		logger.Log.Error().Err(err).Msg("Failed to reload snapshot after import")
		reply(ctx, tg, chatID, "✅ Backup restored.")
		return
	}
	reply(ctx, tg, chatID, fmt.Sprintf("✅ Backup restored: %d clients, %d devices, %d repairs, %d expenses.",
		len(snap.Clients), len(snap.Devices), len(snap.Repairs), len(snap.Expenses)))
}

func (b *Bot) importCatalogCore(ctx context.Context, tg TelegramAPI, chatID int64, data []byte) {
	entries, err := catalog.ParseImport(data)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("Catalog rejected")
		reply(ctx, tg, chatID, "❌ Invalid catalog file. It must be a list of {brand, models}. Nothing was changed.")
		return
	}
	if err := b.store.ReplaceCatalog(ctx, entries); err != nil {
		logger.Log.Error().Err(err).Msg("Failed to replace catalog")
		reply(ctx, tg, chatID, msgSaveError)
		return
	}
	logger.Log.Info().Int("brands", len(entries)).Msg("Catalog replaced")
	reply(ctx, tg, chatID, fmt.Sprintf("✅ Catalog replaced: %d brands.", len(entries)))
}
