package bot

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/shopspring/decimal"
	"gitlab.com/yelinaung/repair-ledger/internal/integrity"
	"gitlab.com/yelinaung/repair-ledger/internal/logger"
	appmodels "gitlab.com/yelinaung/repair-ledger/internal/models"
)

// formatRemoved describes what a cascading delete took with it.
func formatRemoved(r integrity.Removed) string {
	var parts []string
	if r.Clients > 0 {
		parts = append(parts, plural(r.Clients, "client"))
	}
	if r.Devices > 0 {
		parts = append(parts, plural(r.Devices, "device"))
	}
	if r.Repairs > 0 {
		parts = append(parts, plural(r.Repairs, "repair"))
	}
	return strings.Join(parts, ", ")
}

func plural(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

// handleDeleteClient handles the /delclient command.
func (b *Bot) handleDeleteClient(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleDeleteClientCore(ctx, tgBot, update)
}

// handleDeleteClientCore is the testable implementation of handleDeleteClient.
// The client's devices and their repairs go with it.
func (b *Bot) handleDeleteClientCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID
	id := extractCommandArgs(update.Message.Text, "/delclient")
	if id == "" {
		reply(ctx, tg, chatID, "Usage: <code>/delclient &lt;id&gt;</code>")
		return
	}

	removed, err := b.store.DeleteClient(ctx, id)
	if err != nil {
		logger.Log.Error().Err(err).Str(logFieldClient, id).Msg("Failed to delete client")
		reply(ctx, tg, chatID, msgSaveError)
		return
	}
	if removed.Clients == 0 {
		reply(ctx, tg, chatID, msgClientNotFound)
		return
	}

	logger.Log.Info().
		Str(logFieldClient, id).
		Int("devices", removed.Devices).
		Int("repairs", removed.Repairs).
		Msg("Client deleted")
	reply(ctx, tg, chatID, fmt.Sprintf("🗑 Deleted %s.", formatRemoved(removed)))
}

// handleDeleteDevice handles the /deldevice command.
func (b *Bot) handleDeleteDevice(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleDeleteDeviceCore(ctx, tgBot, update)
}

// handleDeleteDeviceCore is the testable implementation of handleDeleteDevice.
func (b *Bot) handleDeleteDeviceCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID
	id := extractCommandArgs(update.Message.Text, "/deldevice")
	if id == "" {
		reply(ctx, tg, chatID, "Usage: <code>/deldevice &lt;id&gt;</code>")
		return
	}

	removed, err := b.store.DeleteDevice(ctx, id)
	if err != nil {
		logger.Log.Error().Err(err).Str("device_id", id).Msg("Failed to delete device")
		reply(ctx, tg, chatID, msgSaveError)
		return
	}
	if removed.Devices == 0 {
		reply(ctx, tg, chatID, msgDeviceNotFound)
		return
	}

	logger.Log.Info().Str("device_id", id).Int("repairs", removed.Repairs).Msg("Device deleted")
	reply(ctx, tg, chatID, fmt.Sprintf("🗑 Deleted %s.", formatRemoved(removed)))
}

// handleDeleteRepair handles the /delrepair command.
func (b *Bot) handleDeleteRepair(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleDeleteRepairCore(ctx, tgBot, update)
}

// handleDeleteRepairCore is the testable implementation of handleDeleteRepair.
func (b *Bot) handleDeleteRepairCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID
	id := extractCommandArgs(update.Message.Text, "/delrepair")
	if id == "" {
		reply(ctx, tg, chatID, "Usage: <code>/delrepair &lt;id&gt;</code>")
		return
	}

	found, err := b.store.DeleteRepair(ctx, id)
	if err != nil {
		logger.Log.Error().Err(err).Str(logFieldRepair, id).Msg("Failed to delete repair")
		reply(ctx, tg, chatID, msgSaveError)
		return
	}
	if !found {
		reply(ctx, tg, chatID, msgRepairNotFound)
		return
	}

	logger.Log.Info().Str(logFieldRepair, id).Msg("Repair deleted")
	reply(ctx, tg, chatID, fmt.Sprintf("🗑 Deleted repair <code>%s</code>.", escapeHTML(id)))
}

// handleDeleteExpense handles the /delexpense command.
func (b *Bot) handleDeleteExpense(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleDeleteExpenseCore(ctx, tgBot, update)
}

// handleDeleteExpenseCore is the testable implementation of handleDeleteExpense.
func (b *Bot) handleDeleteExpenseCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID
	id := extractCommandArgs(update.Message.Text, "/delexpense")
	if id == "" {
		reply(ctx, tg, chatID, "Usage: <code>/delexpense &lt;id&gt;</code>")
		return
	}

	found, err := b.store.DeleteExpense(ctx, id)
	if err != nil {
		logger.Log.Error().Err(err).Str("expense_id", id).Msg("Failed to delete expense")
		reply(ctx, tg, chatID, msgSaveError)
		return
	}
	if !found {
		reply(ctx, tg, chatID, msgExpenseNotFound)
		return
	}

	logger.Log.Info().Str("expense_id", id).Msg("Expense deleted")
	reply(ctx, tg, chatID, fmt.Sprintf("🗑 Deleted expense <code>%s</code>.", escapeHTML(id)))
}

// parseEdit splits "<id> <field> <value...>" with the field lowercased. The
// value may be empty, which clears the field.
func parseEdit(args string) (id, field, value string, ok bool) {
	id, rest, _ := strings.Cut(args, " ")
	field, value, _ = strings.Cut(strings.TrimSpace(rest), " ")
	if id == "" || field == "" {
		return "", "", "", false
	}
	return id, strings.ToLower(field), strings.TrimSpace(value), true
}

func clientPatchFor(field, value string) (appmodels.ClientPatch, bool) {
	var p appmodels.ClientPatch
	switch field {
	case "name":
		if value == "" {
			return p, false
		}
		p.Name = &value
	case "phone":
		p.Phone = &value
	case "address":
		p.Address = &value
	case "notes":
		p.Notes = &value
	default:
		return p, false
	}
	return p, true
}

func devicePatchFor(field, value string) (appmodels.DevicePatch, bool) {
	var p appmodels.DevicePatch
	switch field {
	case "brand":
		if value == "" {
			return p, false
		}
		p.Brand = &value
	case "model":
		p.Model = &value
	case "imei":
		p.IMEI = &value
	case "passcode":
		p.Passcode = &value
	case "color":
		p.Color = &value
	default:
		return p, false
	}
	return p, true
}

func expensePatchFor(field, value string) (appmodels.ExpensePatch, bool) {
	var p appmodels.ExpensePatch
	switch field {
	case "title":
		if value == "" {
			return p, false
		}
		p.Title = &value
	case "amount":
		amount, err := decimal.NewFromString(value)
		if err != nil || !amount.IsPositive() {
			return p, false
		}
		p.Amount = &amount
	case "category":
		category, err := appmodels.ParseExpenseCategory(value)
		if err != nil {
			return p, false
		}
		p.Category = &category
	case "notes":
		p.Notes = &value
	default:
		return p, false
	}
	return p, true
}

// handleEditClient handles the /editclient command.
func (b *Bot) handleEditClient(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleEditClientCore(ctx, tgBot, update)
}

// handleEditClientCore is the testable implementation of handleEditClient.
func (b *Bot) handleEditClientCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID
	id, field, value, ok := parseEdit(extractCommandArgs(update.Message.Text, "/editclient"))
	patch, valid := clientPatchFor(field, value)
	if !ok || !valid {
		reply(ctx, tg, chatID, "Usage: <code>/editclient &lt;id&gt; name|phone|address|notes &lt;value&gt;</code>")
		return
	}

	c, found, err := b.store.UpdateClient(ctx, id, patch)
	if err != nil {
		logger.Log.Error().Err(err).Str(logFieldClient, id).Msg("Failed to update client")
		reply(ctx, tg, chatID, msgSaveError)
		return
	}
	if !found {
		reply(ctx, tg, chatID, msgClientNotFound)
		return
	}

	logger.Log.Info().Str(logFieldClient, c.ID).Str("field", field).Msg("Client updated")
	reply(ctx, tg, chatID, fmt.Sprintf("✅ Client <code>%s</code> updated: %s", c.ID, escapeHTML(c.Name)))
}

// handleEditDevice handles the /editdevice command.
func (b *Bot) handleEditDevice(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleEditDeviceCore(ctx, tgBot, update)
}

// handleEditDeviceCore is the testable implementation of handleEditDevice.
func (b *Bot) handleEditDeviceCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID
	id, field, value, ok := parseEdit(extractCommandArgs(update.Message.Text, "/editdevice"))
	patch, valid := devicePatchFor(field, value)
	if !ok || !valid {
		reply(ctx, tg, chatID, "Usage: <code>/editdevice &lt;id&gt; brand|model|imei|passcode|color &lt;value&gt;</code>")
		return
	}

	d, found, err := b.store.UpdateDevice(ctx, id, patch)
	if err != nil {
		logger.Log.Error().Err(err).Str("device_id", id).Msg("Failed to update device")
		reply(ctx, tg, chatID, msgSaveError)
		return
	}
	if !found {
		reply(ctx, tg, chatID, msgDeviceNotFound)
		return
	}

	logger.Log.Info().Str("device_id", d.ID).Str("field", field).Msg("Device updated")
	reply(ctx, tg, chatID, fmt.Sprintf("✅ Device <code>%s</code> updated: %s %s",
		d.ID, escapeHTML(d.Brand), escapeHTML(d.Model)))
}

// handleEditExpense handles the /editexpense command.
func (b *Bot) handleEditExpense(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleEditExpenseCore(ctx, tgBot, update)
}

// handleEditExpenseCore is the testable implementation of handleEditExpense.
func (b *Bot) handleEditExpenseCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID
	id, field, value, ok := parseEdit(extractCommandArgs(update.Message.Text, "/editexpense"))
	patch, valid := expensePatchFor(field, value)
	if !ok || !valid {
		reply(ctx, tg, chatID, "Usage: <code>/editexpense &lt;id&gt; title|amount|category|notes &lt;value&gt;</code>")
		return
	}

	e, found, err := b.store.UpdateExpense(ctx, id, patch)
	if err != nil {
		logger.Log.Error().Err(err).Str("expense_id", id).Msg("Failed to update expense")
		reply(ctx, tg, chatID, msgSaveError)
		return
	}
	if !found {
		reply(ctx, tg, chatID, msgExpenseNotFound)
		return
	}

	logger.Log.Info().Str("expense_id", e.ID).Str("field", field).Msg("Expense updated")
	reply(ctx, tg, chatID, fmt.Sprintf("✅ Expense <code>%s</code>: %s %s (%s)",
		e.ID, escapeHTML(e.Title), formatMoney(e.Amount), e.Category))
}

// handleCost handles the /cost command.
func (b *Bot) handleCost(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleCostCore(ctx, tgBot, update)
}

// handleCostCore is the testable implementation of handleCost. It sets one
// cost component and reports the recomputed total.
func (b *Bot) handleCostCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID
	args := strings.Fields(extractCommandArgs(update.Message.Text, "/cost"))
	if len(args) != 3 {
		reply(ctx, tg, chatID, "Usage: <code>/cost &lt;id&gt; parts|services|other &lt;amount&gt;</code>")
		return
	}

	amount, err := decimal.NewFromString(args[2])
	if err != nil || amount.IsNegative() {
		reply(ctx, tg, chatID, "❌ Invalid amount.")
		return
	}

	var patch appmodels.RepairPatch
	switch strings.ToLower(args[1]) {
	case "parts":
		patch.CostParts = &amount
	case "services":
		patch.CostServices = &amount
	case "other":
		patch.CostOther = &amount
	default:
		reply(ctx, tg, chatID, "❌ Unknown cost. Use parts, services or other.")
		return
	}

	r, found, err := b.store.UpdateRepair(ctx, args[0], patch)
	if err != nil {
		logger.Log.Error().Err(err).Str(logFieldRepair, args[0]).Msg("Failed to update repair cost")
		reply(ctx, tg, chatID, msgSaveError)
		return
	}
	if !found {
		reply(ctx, tg, chatID, msgRepairNotFound)
		return
	}

	logger.Log.Info().Str(logFieldRepair, r.ID).Str("total", r.TotalCost.String()).Msg("Repair cost updated")
	text := fmt.Sprintf("💰 <code>%s</code> total is now %s.", r.ID, formatMoney(r.TotalCost))
	if due := r.BalanceDue(); due.IsPositive() {
		text += "\n🧾 Due: " + formatMoney(due)
	}
	reply(ctx, tg, chatID, text)
}
