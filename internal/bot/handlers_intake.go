package bot

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/shopspring/decimal"
	"gitlab.com/yelinaung/repair-ledger/internal/logger"
	appmodels "gitlab.com/yelinaung/repair-ledger/internal/models"
)

// splitFields splits "a | b | c" into trimmed fields, padding to n.
func splitFields(args string, n int) []string {
	parts := strings.Split(args, "|")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	for len(parts) < n {
		parts = append(parts, "")
	}
	return parts
}

// handleNewClient handles the /newclient command.
func (b *Bot) handleNewClient(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleNewClientCore(ctx, tgBot, update)
}

// handleNewClientCore is the testable implementation of handleNewClient.
func (b *Bot) handleNewClientCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID
	f := splitFields(extractCommandArgs(update.Message.Text, "/newclient"), 3)
	if f[0] == "" {
		reply(ctx, tg, chatID, "Usage: <code>/newclient Name | Phone [| Address]</code>")
		return
	}

	c, err := b.store.AddClient(ctx, appmodels.Client{Name: f[0], Phone: f[1], Address: f[2]})
	if err != nil {
		logger.Log.Error().Err(err).Msg("Failed to add client")
		reply(ctx, tg, chatID, msgSaveError)
		return
	}

	logger.Log.Info().Str(logFieldClient, c.ID).Msg("Client added")
	reply(ctx, tg, chatID, fmt.Sprintf("✅ Client <code>%s</code> added: %s", c.ID, escapeHTML(c.Name)))
}

// handleNewDevice handles the /newdevice command.
func (b *Bot) handleNewDevice(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleNewDeviceCore(ctx, tgBot, update)
}

// handleNewDeviceCore is the testable implementation of handleNewDevice.
func (b *Bot) handleNewDeviceCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID
	args := extractCommandArgs(update.Message.Text, "/newdevice")
	clientID, rest, _ := strings.Cut(args, " ")
	f := splitFields(rest, 3)
	if clientID == "" || f[0] == "" {
		reply(ctx, tg, chatID, "Usage: <code>/newdevice &lt;client id&gt; Brand | Model [| Color]</code>")
		return
	}

	snap, err := b.store.Load(ctx)
	if err != nil {
		logger.Log.Error().Err(err).Msg("Failed to load snapshot for new device")
		reply(ctx, tg, chatID, msgStoreError)
		return
	}
	if _, ok := snap.ClientByID(clientID); !ok {
		reply(ctx, tg, chatID, msgClientNotFound)
		return
	}

	d, err := b.store.AddDevice(ctx, appmodels.Device{ClientID: clientID, Brand: f[0], Model: f[1], Color: f[2]})
	if err != nil {
		logger.Log.Error().Err(err).Msg("Failed to add device")
		reply(ctx, tg, chatID, msgSaveError)
		return
	}

	logger.Log.Info().Str("device_id", d.ID).Str(logFieldClient, clientID).Msg("Device added")
	reply(ctx, tg, chatID, fmt.Sprintf("✅ Device <code>%s</code> added: %s %s",
		d.ID, escapeHTML(d.Brand), escapeHTML(d.Model)))
}

// handleNewRepair handles the /newrepair command.
func (b *Bot) handleNewRepair(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleNewRepairCore(ctx, tgBot, update)
}

// handleNewRepairCore is the testable implementation of handleNewRepair. The
// optional amounts are parts, services and other cost, in that order.
func (b *Bot) handleNewRepairCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID
	args := extractCommandArgs(update.Message.Text, "/newrepair")
	deviceID, rest, _ := strings.Cut(args, " ")
	f := splitFields(rest, 4)
	if deviceID == "" || f[0] == "" {
		reply(ctx, tg, chatID, "Usage: <code>/newrepair &lt;device id&gt; Problem [| parts cost | services cost | other cost]</code>")
		return
	}

	snap, err := b.store.Load(ctx)
	if err != nil {
		logger.Log.Error().Err(err).Msg("Failed to load snapshot for new repair")
		reply(ctx, tg, chatID, msgStoreError)
		return
	}
	if _, ok := snap.DeviceByID(deviceID); !ok {
		reply(ctx, tg, chatID, msgDeviceNotFound)
		return
	}

	r, err := b.store.AddRepair(ctx, appmodels.Repair{
		DeviceID:     deviceID,
		Problem:      f[0],
		CostParts:    appmodels.ParseAmount(f[1]),
		CostServices: appmodels.ParseAmount(f[2]),
		CostOther:    appmodels.ParseAmount(f[3]),
	})
	if err != nil {
		logger.Log.Error().Err(err).Msg("Failed to add repair")
		reply(ctx, tg, chatID, msgSaveError)
		return
	}

	logger.Log.Info().Str(logFieldRepair, r.ID).Str("total", r.TotalCost.String()).Msg("Repair added")
	reply(ctx, tg, chatID, fmt.Sprintf("✅ Repair <code>%s</code> added. Total %s.", r.ID, formatMoney(r.TotalCost)))
}

// handleNewExpense handles the /expense command.
func (b *Bot) handleNewExpense(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleNewExpenseCore(ctx, tgBot, update)
}

// handleNewExpenseCore is the testable implementation of handleNewExpense.
func (b *Bot) handleNewExpenseCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID
	f := splitFields(extractCommandArgs(update.Message.Text, "/expense"), 3)

	amount, err := decimal.NewFromString(f[1])
	if f[0] == "" || err != nil || !amount.IsPositive() {
		reply(ctx, tg, chatID, "Usage: <code>/expense Title | amount [| RENT|UTILITIES|SALARY|PARTS|OTHER]</code>")
		return
	}

	category := appmodels.CategoryOther
	if f[2] != "" {
		category, err = appmodels.ParseExpenseCategory(f[2])
		if err != nil {
			reply(ctx, tg, chatID, "❌ Unknown category.")
			return
		}
	}

	e, err := b.store.AddExpense(ctx, appmodels.Expense{Title: f[0], Amount: amount, Category: category})
	if err != nil {
		logger.Log.Error().Err(err).Msg("Failed to add expense")
		reply(ctx, tg, chatID, msgSaveError)
		return
	}

	logger.Log.Info().Str("expense_id", e.ID).Str("amount", e.Amount.String()).Msg("Expense added")
	reply(ctx, tg, chatID, fmt.Sprintf("✅ Expense <code>%s</code>: %s %s (%s)",
		e.ID, escapeHTML(e.Title), formatMoney(e.Amount), e.Category))
}
