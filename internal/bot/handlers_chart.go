package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"gitlab.com/yelinaung/repair-ledger/internal/logger"
	appmodels "gitlab.com/yelinaung/repair-ledger/internal/models"
	"gitlab.com/yelinaung/repair-ledger/internal/report"
)

const (
	chartExpenses = "expenses"
	chartStatus   = "status"
)

// generateChartFilename creates a filename for the chart.
func generateChartFilename(kind string, at time.Time) string {
	return fmt.Sprintf("Mido_%s_chart_%s.png", kind, at.Format(time.DateOnly))
}

// handleChart handles the /chart command to generate pie charts.
func (b *Bot) handleChart(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleChartCore(ctx, tgBot, update)
}

// handleChartCore is the testable implementation of handleChart.
func (b *Bot) handleChartCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID

	kind := strings.ToLower(extractCommandArgs(update.Message.Text, "/chart"))
	if kind == "" {
		kind = chartExpenses
	}
	if kind != chartExpenses && kind != chartStatus {
		reply(ctx, tg, chatID, "❌ Invalid chart type. Use <code>expenses</code> or <code>status</code>.")
		return
	}

	snap, err := b.store.Load(ctx)
	if err != nil {
		logger.Log.Error().Err(err).Msg("Failed to load snapshot for chart")
		reply(ctx, tg, chatID, msgStoreError)
		return
	}

	now := b.store.Now()
	var (
		data    []byte
		caption string
	)
	switch kind {
	case chartExpenses:
		monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		var month []appmodels.Expense
		for _, e := range snap.Expenses {
			if !e.Date.Before(monthStart) && e.Date.Before(monthStart.AddDate(0, 1, 0)) {
				month = append(month, e)
			}
		}
		title := "Expenses " + monthStart.Format("January 2006")
		data, err = report.ExpenseChart(month, title)
		caption = fmt.Sprintf("📊 <b>%s</b>\nCount: %d expenses", title, len(month))
	case chartStatus:
		data, err = report.StatusChart(snap.Repairs, "Repairs by status")
		caption = fmt.Sprintf("📊 <b>Repairs by status</b>\nCount: %d repairs", len(snap.Repairs))
	}

	if errors.Is(err, report.ErrNoChartData) {
		reply(ctx, tg, chatID, "📊 Nothing to chart yet.")
		return
	}
	if err != nil {
		logger.Log.Error().Err(err).Str("chart", kind).Msg("Failed to generate chart")
		reply(ctx, tg, chatID, "❌ Failed to generate chart. Please try again.")
		return
	}

	if sendFile(ctx, tg, chatID, generateChartFilename(kind, now), data, caption) {
		logger.Log.Info().Str("chart", kind).Int("bytes", len(data)).Msg("Chart generated successfully")
	}
}
