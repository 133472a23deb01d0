package bot

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/shopspring/decimal"
	"gitlab.com/yelinaung/repair-ledger/internal/logger"
	"gitlab.com/yelinaung/repair-ledger/internal/report"
)

const (
	msgStoreError  = "❌ Failed to read the ledger. Please try again."
	msgSaveError   = "❌ Failed to save. Please try again."
	logFieldRepair = "repair_id"
	logFieldClient = "client_id"

	msgClientNotFound  = "❌ Client not found."
	msgDeviceNotFound  = "❌ Device not found."
	msgExpenseNotFound = "❌ Expense not found."
)

// extractCommandArgs extracts arguments from a command, handling @botname suffix.
func extractCommandArgs(text, command string) string {
	args := strings.TrimSpace(strings.TrimPrefix(text, command))
	if strings.HasPrefix(args, "@") {
		if spaceIdx := strings.Index(args, " "); spaceIdx != -1 {
			args = strings.TrimSpace(args[spaceIdx:])
		} else {
			args = ""
		}
	}
	return args
}

// formatGreeting returns a greeting suffix with the user's name.
func formatGreeting(firstName string) string {
	if firstName == "" {
		return ""
	}
	return ", " + escapeHTML(firstName)
}

// escapeHTML escapes the characters Telegram's HTML parse mode treats specially.
func escapeHTML(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	return s
}

func formatMoney(d decimal.Decimal) string {
	return d.StringFixed(2) + " " + report.Currency
}

// reply sends an HTML message and logs delivery failures.
func reply(ctx context.Context, tg TelegramAPI, chatID int64, text string) {
	_, err := tg.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    chatID,
		Text:      text,
		ParseMode: models.ParseModeHTML,
	})
	if err != nil {
		logger.Log.Error().Err(err).Str("chat_hash", logger.HashChatID(chatID)).Msg("Failed to send message")
	}
}

// handleStart handles the /start command.
func (b *Bot) handleStart(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleStartCore(ctx, tgBot, update)
}

// handleStartCore is the testable implementation of handleStart.
func (b *Bot) handleStartCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	if update.Message == nil {
		return
	}

	firstName := ""
	if update.Message.From != nil {
		firstName = update.Message.From.FirstName
	}

	text := fmt.Sprintf(`👋 Welcome%s!

I keep the %s repair ledger: clients, their devices, repair orders and shop expenses.

<b>Quick Start:</b>
• <code>/summary</code> for this month at a glance
• <code>/repairs</code> to see the bench
• Send a phone photo to identify the device
• Send a backup file to restore it

Use /help to see all available commands.`,
		formatGreeting(firstName), escapeHTML(b.shopName()))

	logger.Log.Debug().Str("chat_hash", logger.HashChatID(update.Message.Chat.ID)).Msg("Sending /start response")
	reply(ctx, tg, update.Message.Chat.ID, text)
}

// handleHelp handles the /help command.
func (b *Bot) handleHelp(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleHelpCore(ctx, tgBot, update)
}

// handleHelpCore is the testable implementation of handleHelp.
func (b *Bot) handleHelpCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	if update.Message == nil {
		return
	}

	text := `📚 <b>Available Commands</b>

<b>Overview:</b>
• <code>/summary</code> - Month income, expenses and open repairs

<b>Intake:</b>
• <code>/newclient Name | Phone [| Address]</code> - Add a client
• <code>/newdevice &lt;client id&gt; Brand | Model [| Color]</code> - Add a device
• <code>/newrepair &lt;device id&gt; Problem [| parts | services | other]</code> - Open a repair
• <code>/expense Title | amount [| category]</code> - Record an expense

<b>Clients:</b>
• <code>/clients [name or phone]</code> - List or search clients
• <code>/client &lt;id&gt;</code> - Client with devices and repairs

<b>Repairs:</b>
• <code>/repairs [status] [text]</code> - List repairs, newest first
• <code>/repair &lt;id&gt;</code> - Repair details with status buttons
• <code>/status &lt;id&gt; &lt;status&gt;</code> - Change a repair status
• <code>/pay &lt;id&gt; &lt;amount&gt;</code> - Record the amount paid
• <code>/notify &lt;id&gt;</code> - WhatsApp message for the customer
• <code>/cost &lt;id&gt; parts|services|other &lt;amount&gt;</code> - Change a cost
• <code>/delrepair &lt;id&gt;</code> - Delete a repair

<b>Edit &amp; Delete:</b>
• <code>/editclient &lt;id&gt; &lt;field&gt; &lt;value&gt;</code> - name, phone, address or notes
• <code>/editdevice &lt;id&gt; &lt;field&gt; &lt;value&gt;</code> - brand, model, imei, passcode or color
• <code>/editexpense &lt;id&gt; &lt;field&gt; &lt;value&gt;</code> - title, amount, category or notes
• <code>/delclient &lt;id&gt;</code> - Delete a client with its devices and repairs
• <code>/deldevice &lt;id&gt;</code> - Delete a device with its repairs
• <code>/delexpense &lt;id&gt;</code> - Delete an expense

<b>Backup:</b>
• <code>/backup</code> - Full backup file
• <code>/export &lt;clients|devices|repairs|expenses&gt;</code> - One table as JSON
• <code>/csv [repairs|expenses]</code> - Spreadsheet export
• Send a backup <code>.json</code> file to restore it
• Send a catalog file with caption <code>catalog</code> to replace the catalog

<b>Reports:</b>
• <code>/chart [expenses|status]</code> - Pie chart

<b>Catalog:</b>
• <code>/catalog</code> - Known brands and models
• Send a phone photo to identify brand and model

<b>Other:</b>
• <code>/help</code> - Show this help message`

	logger.Log.Debug().Str("chat_hash", logger.HashChatID(update.Message.Chat.ID)).Msg("Sending /help response")
	reply(ctx, tg, update.Message.Chat.ID, text)
}

func (b *Bot) shopName() string {
	if b.cfg != nil && b.cfg.ShopName != "" {
		return b.cfg.ShopName
	}
	return "Mido"
}

func (b *Bot) countryCode() string {
	if b.cfg != nil && b.cfg.PhoneCountryCode != "" {
		return b.cfg.PhoneCountryCode
	}
	return report.DefaultCountryCode
}
