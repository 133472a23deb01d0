package bot

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"gitlab.com/yelinaung/repair-ledger/internal/ledger"
	"gitlab.com/yelinaung/repair-ledger/internal/logger"
)

// maxListItems caps list replies so they stay under Telegram's message limit.
const maxListItems = 20

// handleClients handles the /clients command.
func (b *Bot) handleClients(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleClientsCore(ctx, tgBot, update)
}

// handleClientsCore is the testable implementation of handleClients.
func (b *Bot) handleClientsCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID
	query := extractCommandArgs(update.Message.Text, "/clients")

	snap, err := b.store.Load(ctx)
	if err != nil {
		logger.Log.Error().Err(err).Msg("Failed to load snapshot for clients")
		reply(ctx, tg, chatID, msgStoreError)
		return
	}

	clients := ledger.SearchClients(snap.Clients, query)
	if len(clients) == 0 {
		if query == "" {
			reply(ctx, tg, chatID, "👥 No clients yet.")
		} else {
			reply(ctx, tg, chatID, fmt.Sprintf("👥 No clients match <code>%s</code>.", escapeHTML(query)))
		}
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "👥 <b>Clients</b> (%d)\n\n", len(clients))
	for i, c := range clients {
		if i == maxListItems {
			fmt.Fprintf(&sb, "\n… and %d more. Narrow the search.", len(clients)-maxListItems)
			break
		}
		fmt.Fprintf(&sb, "<code>%s</code> %s 📞 %s (%d devices)\n",
			c.ID, escapeHTML(c.Name), escapeHTML(c.Phone), len(ledger.DevicesOf(snap, c.ID)))
	}

	reply(ctx, tg, chatID, sb.String())
}

// handleClient handles the /client command.
func (b *Bot) handleClient(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleClientCore(ctx, tgBot, update)
}

// handleClientCore is the testable implementation of handleClient.
func (b *Bot) handleClientCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID
	id := extractCommandArgs(update.Message.Text, "/client")
	if id == "" {
		reply(ctx, tg, chatID, "Usage: <code>/client &lt;id&gt;</code>")
		return
	}

	snap, err := b.store.Load(ctx)
	if err != nil {
		logger.Log.Error().Err(err).Msg("Failed to load snapshot for client")
		reply(ctx, tg, chatID, msgStoreError)
		return
	}

	client, ok := snap.ClientByID(id)
	if !ok {
		logger.Log.Debug().Str(logFieldClient, id).Msg("Client not found")
		reply(ctx, tg, chatID, msgClientNotFound)
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "👤 <b>%s</b>\n📞 %s\n", escapeHTML(client.Name), escapeHTML(client.Phone))
	if client.Address != "" {
		fmt.Fprintf(&sb, "📍 %s\n", escapeHTML(client.Address))
	}
	if client.Notes != "" {
		fmt.Fprintf(&sb, "📝 %s\n", escapeHTML(client.Notes))
	}

	devices := ledger.DevicesOf(snap, client.ID)
	if len(devices) == 0 {
		sb.WriteString("\nNo devices.")
	}
	for _, d := range devices {
		fmt.Fprintf(&sb, "\n📱 <code>%s</code> %s %s\n", d.ID, escapeHTML(d.Brand), escapeHTML(d.Model))
		for _, r := range ledger.RepairsOf(snap, d.ID) {
			fmt.Fprintf(&sb, "   🔧 <code>%s</code> %s · %s · %s\n",
				r.ID, escapeHTML(r.Problem), r.Status.Label(), formatMoney(r.TotalCost))
		}
	}

	reply(ctx, tg, chatID, sb.String())
}
