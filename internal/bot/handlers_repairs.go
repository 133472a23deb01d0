package bot

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/shopspring/decimal"
	"gitlab.com/yelinaung/repair-ledger/internal/ledger"
	"gitlab.com/yelinaung/repair-ledger/internal/logger"
	appmodels "gitlab.com/yelinaung/repair-ledger/internal/models"
	"gitlab.com/yelinaung/repair-ledger/internal/report"
)

// statusCallbackPrefix starts callback data of the form "st:<STATUS>:<repair id>".
const statusCallbackPrefix = "st:"

const msgRepairNotFound = "❌ Repair not found."

// buildStatusKeyboard offers every status other than the current one.
func buildStatusKeyboard(r appmodels.Repair) *models.InlineKeyboardMarkup {
	var rows [][]models.InlineKeyboardButton
	row := make([]models.InlineKeyboardButton, 0, 2)
	for _, s := range appmodels.RepairStatuses {
		if s == r.Status {
			continue
		}
		row = append(row, models.InlineKeyboardButton{
			Text:         s.Label(),
			CallbackData: statusCallbackPrefix + s.String() + ":" + r.ID,
		})
		if len(row) == 2 {
			rows = append(rows, row)
			row = make([]models.InlineKeyboardButton, 0, 2)
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	return &models.InlineKeyboardMarkup{InlineKeyboard: rows}
}

// formatRepair renders a repair with its owner for the details view.
func formatRepair(snap *appmodels.Snapshot, r appmodels.Repair) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "🔧 <b>Repair</b> <code>%s</code>\n", r.ID)

	client, device, ok := snap.OwnerOf(r)
	switch {
	case ok:
		fmt.Fprintf(&sb, "👤 %s 📞 %s\n", escapeHTML(client.Name), escapeHTML(client.Phone))
		fmt.Fprintf(&sb, "📱 %s %s\n", escapeHTML(device.Brand), escapeHTML(device.Model))
	case device.ID != "":
		sb.WriteString("👤 Unknown owner\n")
		fmt.Fprintf(&sb, "📱 %s %s\n", escapeHTML(device.Brand), escapeHTML(device.Model))
	default:
		sb.WriteString("👤 Unknown owner\n")
	}

	fmt.Fprintf(&sb, "❗ %s\n", escapeHTML(r.Problem))
	if len(r.Parts) > 0 {
		fmt.Fprintf(&sb, "🔩 Parts: %s\n", escapeHTML(strings.Join(r.Parts, ", ")))
	}
	if len(r.Services) > 0 {
		fmt.Fprintf(&sb, "🛠 Services: %s\n", escapeHTML(strings.Join(r.Services, ", ")))
	}
	fmt.Fprintf(&sb, "\n💰 Total: %s\n", formatMoney(r.TotalCost))
	fmt.Fprintf(&sb, "💵 Paid: %s\n", formatMoney(r.PaidAmount))
	if due := r.BalanceDue(); due.IsPositive() {
		fmt.Fprintf(&sb, "🧾 Due: %s\n", formatMoney(due))
	}
	fmt.Fprintf(&sb, "\n📌 Status: <b>%s</b>\n", r.Status.Label())
	fmt.Fprintf(&sb, "📅 Entered: %s\n", r.EntryDate.Format("2006-01-02"))
	if r.CompletionDate != nil {
		fmt.Fprintf(&sb, "✅ Completed: %s\n", r.CompletionDate.Format("2006-01-02"))
	}
	if r.TechnicianNotes != "" {
		fmt.Fprintf(&sb, "📝 %s\n", escapeHTML(r.TechnicianNotes))
	}
	return sb.String()
}

// parseRepairListArgs splits "/repairs" arguments into an optional status and
// a free-text query. A multi-word status label is accepted on its own.
func parseRepairListArgs(args string) ledger.RepairFilter {
	var f ledger.RepairFilter
	if args == "" {
		return f
	}
	if s, err := appmodels.ParseRepairStatus(args); err == nil {
		f.Status = &s
		return f
	}
	first, rest, _ := strings.Cut(args, " ")
	if s, err := appmodels.ParseRepairStatus(first); err == nil {
		f.Status = &s
		f.Query = strings.TrimSpace(rest)
		return f
	}
	f.Query = args
	return f
}

// handleRepairs handles the /repairs command.
func (b *Bot) handleRepairs(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleRepairsCore(ctx, tgBot, update)
}

// handleRepairsCore is the testable implementation of handleRepairs.
func (b *Bot) handleRepairsCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID
	filter := parseRepairListArgs(extractCommandArgs(update.Message.Text, "/repairs"))

	snap, err := b.store.Load(ctx)
	if err != nil {
		logger.Log.Error().Err(err).Msg("Failed to load snapshot for repairs")
		reply(ctx, tg, chatID, msgStoreError)
		return
	}

	repairs := ledger.FilterRepairs(snap.Repairs, filter)
	if len(repairs) == 0 {
		reply(ctx, tg, chatID, "🔧 No repairs found.")
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "🔧 <b>Repairs</b> (%d)\n\n", len(repairs))
	for i, r := range repairs {
		if i == maxListItems {
			fmt.Fprintf(&sb, "\n… and %d more.", len(repairs)-maxListItems)
			break
		}
		owner := "Unknown owner"
		if client, _, ok := snap.OwnerOf(r); ok {
			owner = client.Name
		}
		fmt.Fprintf(&sb, "<code>%s</code> %s · %s · %s · %s\n",
			r.ID, r.EntryDate.Format("01-02"), escapeHTML(owner), escapeHTML(r.Problem), r.Status.Label())
	}

	reply(ctx, tg, chatID, sb.String())
}

// handleRepair handles the /repair command.
func (b *Bot) handleRepair(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleRepairCore(ctx, tgBot, update)
}

// handleRepairCore is the testable implementation of handleRepair.
func (b *Bot) handleRepairCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID
	id := extractCommandArgs(update.Message.Text, "/repair")
	if id == "" {
		reply(ctx, tg, chatID, "Usage: <code>/repair &lt;id&gt;</code>")
		return
	}

	snap, err := b.store.Load(ctx)
	if err != nil {
		logger.Log.Error().Err(err).Msg("Failed to load snapshot for repair")
		reply(ctx, tg, chatID, msgStoreError)
		return
	}

	r, ok := snap.RepairByID(id)
	if !ok {
		reply(ctx, tg, chatID, msgRepairNotFound)
		return
	}

	_, err = tg.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:      chatID,
		Text:        formatRepair(snap, r),
		ParseMode:   models.ParseModeHTML,
		ReplyMarkup: buildStatusKeyboard(r),
	})
	if err != nil {
		logger.Log.Error().Err(err).Str(logFieldRepair, id).Msg("Failed to send repair details")
	}
}

// handleStatus handles the /status command.
func (b *Bot) handleStatus(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleStatusCore(ctx, tgBot, update)
}

// handleStatusCore is the testable implementation of handleStatus.
func (b *Bot) handleStatusCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID
	args := extractCommandArgs(update.Message.Text, "/status")

	id, statusText, _ := strings.Cut(args, " ")
	statusText = strings.TrimSpace(statusText)
	if id == "" || statusText == "" {
		reply(ctx, tg, chatID, statusUsage())
		return
	}

	status, err := appmodels.ParseRepairStatus(statusText)
	if err != nil {
		reply(ctx, tg, chatID, "❌ Unknown status.\n\n"+statusUsage())
		return
	}

	r, found, err := b.store.UpdateRepair(ctx, id, appmodels.RepairPatch{Status: &status})
	if err != nil {
		logger.Log.Error().Err(err).Str(logFieldRepair, id).Msg("Failed to update repair status")
		reply(ctx, tg, chatID, msgSaveError)
		return
	}
	if !found {
		reply(ctx, tg, chatID, msgRepairNotFound)
		return
	}

	logger.Log.Info().Str(logFieldRepair, r.ID).Str("status", r.Status.String()).Msg("Repair status updated")
	reply(ctx, tg, chatID, fmt.Sprintf("✅ <code>%s</code> is now <b>%s</b>.", r.ID, r.Status.Label()))
}

func statusUsage() string {
	codes := make([]string, 0, len(appmodels.RepairStatuses))
	for _, s := range appmodels.RepairStatuses {
		codes = append(codes, "<code>"+s.String()+"</code>")
	}
	return "Usage: <code>/status &lt;id&gt; &lt;status&gt;</code>\nStatuses: " + strings.Join(codes, ", ")
}

// handleStatusCallback handles the status buttons under a repair.
func (b *Bot) handleStatusCallback(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleStatusCallbackCore(ctx, tgBot, update)
}

// handleStatusCallbackCore is the testable implementation of handleStatusCallback.
func (b *Bot) handleStatusCallbackCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	if update.CallbackQuery == nil || update.CallbackQuery.Message.Message == nil {
		return
	}

	data := update.CallbackQuery.Data
	chatID := update.CallbackQuery.Message.Message.Chat.ID
	messageID := update.CallbackQuery.Message.Message.ID

	_, _ = tg.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: update.CallbackQuery.ID,
	})

	code, id, ok := strings.Cut(strings.TrimPrefix(data, statusCallbackPrefix), ":")
	if !ok || id == "" {
		logger.Log.Error().Str("data", data).Msg("Invalid callback data format")
		return
	}
	status, err := appmodels.ParseRepairStatus(code)
	if err != nil {
		logger.Log.Error().Err(err).Str("data", data).Msg("Invalid status in callback")
		return
	}

	r, found, err := b.store.UpdateRepair(ctx, id, appmodels.RepairPatch{Status: &status})
	if err != nil || !found {
		if err != nil {
			logger.Log.Error().Err(err).Str(logFieldRepair, id).Msg("Failed to update repair status")
		}
		text := msgRepairNotFound
		if err != nil {
			text = msgSaveError
		}
		_, _ = tg.EditMessageText(ctx, &bot.EditMessageTextParams{
			ChatID:    chatID,
			MessageID: messageID,
			Text:      text,
		})
		return
	}

	snap, err := b.store.Load(ctx)
	if err != nil {
		logger.Log.Error().Err(err).Msg("Failed to reload snapshot")
		return
	}

	_, err = tg.EditMessageText(ctx, &bot.EditMessageTextParams{
		ChatID:      chatID,
		MessageID:   messageID,
		Text:        formatRepair(snap, r),
		ParseMode:   models.ParseModeHTML,
		ReplyMarkup: buildStatusKeyboard(r),
	})
	if err != nil {
		logger.Log.Error().Err(err).Str(logFieldRepair, id).Msg("Failed to edit repair message")
	}
}

// handlePay handles the /pay command.
func (b *Bot) handlePay(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handlePayCore(ctx, tgBot, update)
}

// handlePayCore is the testable implementation of handlePay. The amount
// replaces paidAmount; it is not added to it.
func (b *Bot) handlePayCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID
	args := strings.Fields(extractCommandArgs(update.Message.Text, "/pay"))
	if len(args) != 2 {
		reply(ctx, tg, chatID, "Usage: <code>/pay &lt;id&gt; &lt;amount&gt;</code>")
		return
	}

	amount, err := decimal.NewFromString(args[1])
	if err != nil || amount.IsNegative() {
		reply(ctx, tg, chatID, "❌ Invalid amount.")
		return
	}

	r, found, err := b.store.UpdateRepair(ctx, args[0], appmodels.RepairPatch{PaidAmount: &amount})
	if err != nil {
		logger.Log.Error().Err(err).Str(logFieldRepair, args[0]).Msg("Failed to record payment")
		reply(ctx, tg, chatID, msgSaveError)
		return
	}
	if !found {
		reply(ctx, tg, chatID, msgRepairNotFound)
		return
	}

	text := fmt.Sprintf("💵 Paid %s of %s on <code>%s</code>.", formatMoney(r.PaidAmount), formatMoney(r.TotalCost), r.ID)
	if due := r.BalanceDue(); due.IsPositive() {
		text += "\n🧾 Due: " + formatMoney(due)
	}
	reply(ctx, tg, chatID, text)
}

// handleNotify handles the /notify command.
func (b *Bot) handleNotify(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleNotifyCore(ctx, tgBot, update)
}

// handleNotifyCore is the testable implementation of handleNotify.
func (b *Bot) handleNotifyCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID
	id := extractCommandArgs(update.Message.Text, "/notify")
	if id == "" {
		reply(ctx, tg, chatID, "Usage: <code>/notify &lt;id&gt;</code>")
		return
	}

	snap, err := b.store.Load(ctx)
	if err != nil {
		logger.Log.Error().Err(err).Msg("Failed to load snapshot for notice")
		reply(ctx, tg, chatID, msgStoreError)
		return
	}

	r, ok := snap.RepairByID(id)
	if !ok {
		reply(ctx, tg, chatID, msgRepairNotFound)
		return
	}
	client, device, ok := snap.OwnerOf(r)
	if !ok || client.Phone == "" {
		reply(ctx, tg, chatID, "❌ No phone number on file for this repair's owner.")
		return
	}

	notice := report.CustomerNotice(b.shopName(), client, device, r)
	link := report.WhatsAppLink(client.Phone, b.countryCode(), notice)

	logger.Log.Info().
		Str(logFieldRepair, r.ID).
		Str("phone_hash", logger.HashPhone(client.Phone)).
		Msg("Customer notice prepared")

	reply(ctx, tg, chatID, fmt.Sprintf("%s\n\n<a href=\"%s\">📲 Send on WhatsApp</a>", escapeHTML(notice), escapeHTML(link)))
}
