package bot

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"gitlab.com/yelinaung/repair-ledger/internal/logger"
	appmodels "gitlab.com/yelinaung/repair-ledger/internal/models"
	"gitlab.com/yelinaung/repair-ledger/internal/report"
)

// handleSummary handles the /summary command.
func (b *Bot) handleSummary(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleSummaryCore(ctx, tgBot, update)
}

// handleSummaryCore is the testable implementation of handleSummary.
func (b *Bot) handleSummaryCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID

	snap, err := b.store.Load(ctx)
	if err != nil {
		logger.Log.Error().Err(err).Msg("Failed to load snapshot for summary")
		reply(ctx, tg, chatID, msgStoreError)
		return
	}

	sum := report.Summarize(snap, b.store.Now())

	var sb strings.Builder
	fmt.Fprintf(&sb, "📊 <b>%s</b>\n\n", sum.Month.Format("January 2006"))
	fmt.Fprintf(&sb, "👥 Clients: %d\n", sum.Clients)
	fmt.Fprintf(&sb, "📱 Devices: %d\n", sum.Devices)
	fmt.Fprintf(&sb, "🔧 Open repairs: %d\n\n", sum.OpenRepairs)
	fmt.Fprintf(&sb, "💰 Income: %s\n", formatMoney(sum.MonthIncome))
	fmt.Fprintf(&sb, "💸 Expenses: %s\n", formatMoney(sum.MonthExpenses))
	fmt.Fprintf(&sb, "📈 Net: %s\n", formatMoney(sum.Net()))
	fmt.Fprintf(&sb, "🧾 Outstanding: %s\n", formatMoney(sum.Outstanding))

	counts := make([]string, 0, len(appmodels.RepairStatuses))
	for _, s := range appmodels.RepairStatuses {
		if n := sum.StatusCounts[s]; n > 0 {
			counts = append(counts, fmt.Sprintf("%s: %d", s.Label(), n))
		}
	}
	if len(counts) > 0 {
		sb.WriteString("\n" + strings.Join(counts, "\n") + "\n")
	}

	if warning := b.backupWarning(ctx); warning != "" {
		sb.WriteString("\n" + warning)
	}

	reply(ctx, tg, chatID, sb.String())
}

// backupWarning returns a nag line when the last backup is missing or older
// than BackupStaleAfter.
func (b *Bot) backupWarning(ctx context.Context) string {
	if b.backups == nil {
		return ""
	}
	age, ok, err := b.backups.LastBackupAge(ctx)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("Failed to read last backup date")
		return ""
	}
	if !ok {
		return "⚠️ No backup has been taken yet. Use /backup."
	}
	if age > BackupStaleAfter {
		days := int(age / (24 * time.Hour))
		return fmt.Sprintf("⚠️ Last backup was %d days ago. Use /backup.", days)
	}
	return ""
}
