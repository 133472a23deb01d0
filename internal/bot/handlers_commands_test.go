package bot

import (
	"context"
	"testing"
	"time"

	"github.com/go-telegram/bot/models"
	"github.com/stretchr/testify/require"
	"gitlab.com/yelinaung/repair-ledger/internal/bot/mocks"
	appmodels "gitlab.com/yelinaung/repair-ledger/internal/models"
)

func TestHandleStartCore(t *testing.T) {
	t.Parallel()

	env := setupTestBot(t)
	mockBot := mocks.NewMockBot()

	update := mocks.NewUpdateBuilder().
		WithMessage(testChatID, testUserID, "/start").
		WithFrom(testUserID, "owner", "Mido <3", "").
		Build()
	env.bot.handleStartCore(context.Background(), mockBot, update)

	msg := mockBot.LastSentMessage()
	require.Equal(t, models.ParseModeHTML, msg.ParseMode)
	require.Contains(t, msg.Text, "Welcome, Mido &lt;3!")
	require.Contains(t, msg.Text, "Mido repair ledger")
}

func TestHandleHelpCore(t *testing.T) {
	t.Parallel()

	env := setupTestBot(t)
	mockBot := mocks.NewMockBot()

	env.bot.handleHelpCore(context.Background(), mockBot, mocks.CommandUpdate(testChatID, testUserID, "/help"))

	text := mockBot.LastSentMessage().Text
	for _, cmd := range []string{"/summary", "/newrepair", "/repairs", "/status", "/cost", "/editclient", "/delclient", "/backup", "/export", "/csv", "/chart", "/catalog"} {
		require.Contains(t, text, cmd)
	}

	mockBot.Reset()
	env.bot.handleHelpCore(context.Background(), mockBot, &models.Update{})
	require.Equal(t, 0, mockBot.SentMessageCount())
}

func TestFormatMoney(t *testing.T) {
	t.Parallel()
	require.Equal(t, "150.50 ج.م", formatMoney(appmodels.ParseAmount("150.5")))
	require.Equal(t, "0.00 ج.م", formatMoney(appmodels.ParseAmount("")))
}

func TestHandleSummaryCore(t *testing.T) {
	t.Parallel()

	t.Run("month totals and backup nag", func(t *testing.T) {
		t.Parallel()
		env := setupTestBot(t)
		seedLedger(t, env.store)
		mockBot := mocks.NewMockBot()

		env.bot.handleSummaryCore(context.Background(), mockBot, mocks.CommandUpdate(testChatID, testUserID, "/summary"))

		text := mockBot.LastSentMessage().Text
		require.Contains(t, text, "June 2025")
		require.Contains(t, text, "Clients: 1")
		require.Contains(t, text, "Income: 150.50")
		require.Contains(t, text, "Expenses: 3000.00")
		require.Contains(t, text, "Net: -2849.50")
		require.Contains(t, text, "Outstanding: 150.50")
		require.Contains(t, text, "No backup has been taken yet")
	})

	t.Run("fresh backup stays quiet", func(t *testing.T) {
		t.Parallel()
		env := setupTestBot(t)
		mockBot := mocks.NewMockBot()
		ctx := context.Background()

		_, err := env.bot.backups.ExportFull(ctx)
		require.NoError(t, err)
		env.clock.Advance(24 * time.Hour)

		env.bot.handleSummaryCore(ctx, mockBot, mocks.CommandUpdate(testChatID, testUserID, "/summary"))
		require.NotContains(t, mockBot.LastSentMessage().Text, "⚠️")
	})

	t.Run("stale backup", func(t *testing.T) {
		t.Parallel()
		env := setupTestBot(t)
		mockBot := mocks.NewMockBot()
		ctx := context.Background()

		_, err := env.bot.backups.ExportFull(ctx)
		require.NoError(t, err)
		env.clock.Advance(8 * 24 * time.Hour)

		env.bot.handleSummaryCore(ctx, mockBot, mocks.CommandUpdate(testChatID, testUserID, "/summary"))
		require.Contains(t, mockBot.LastSentMessage().Text, "Last backup was 8 days ago")
	})
}

func TestHandleClientsCore(t *testing.T) {
	t.Parallel()

	t.Run("empty", func(t *testing.T) {
		t.Parallel()
		env := setupTestBot(t)
		mockBot := mocks.NewMockBot()

		env.bot.handleClientsCore(context.Background(), mockBot, mocks.CommandUpdate(testChatID, testUserID, "/clients"))
		require.Equal(t, "👥 No clients yet.", mockBot.LastSentMessage().Text)
	})

	t.Run("search by phone", func(t *testing.T) {
		t.Parallel()
		env := setupTestBot(t)
		s := seedLedger(t, env.store)
		mockBot := mocks.NewMockBot()

		env.bot.handleClientsCore(context.Background(), mockBot, mocks.CommandUpdate(testChatID, testUserID, "/clients 0100"))
		text := mockBot.LastSentMessage().Text
		require.Contains(t, text, s.client.ID)
		require.Contains(t, text, "Ali")
	})

	t.Run("no match", func(t *testing.T) {
		t.Parallel()
		env := setupTestBot(t)
		seedLedger(t, env.store)
		mockBot := mocks.NewMockBot()

		env.bot.handleClientsCore(context.Background(), mockBot, mocks.CommandUpdate(testChatID, testUserID, "/clients <zed>"))
		require.Equal(t, "👥 No clients match <code>&lt;zed&gt;</code>.", mockBot.LastSentMessage().Text)
	})
}

func TestHandleClientCore(t *testing.T) {
	t.Parallel()

	t.Run("details with devices and repairs", func(t *testing.T) {
		t.Parallel()
		env := setupTestBot(t)
		s := seedLedger(t, env.store)
		mockBot := mocks.NewMockBot()

		env.bot.handleClientCore(context.Background(), mockBot, mocks.CommandUpdate(testChatID, testUserID, "/client "+s.client.ID))
		text := mockBot.LastSentMessage().Text
		require.Contains(t, text, s.device.ID)
		require.Contains(t, text, "Galaxy A54")
		require.Contains(t, text, s.repair.ID)
	})

	t.Run("client without devices", func(t *testing.T) {
		t.Parallel()
		env := setupTestBot(t)
		mockBot := mocks.NewMockBot()
		c, err := env.store.AddClient(context.Background(), appmodels.Client{Name: "Sara"})
		require.NoError(t, err)

		env.bot.handleClientCore(context.Background(), mockBot, mocks.CommandUpdate(testChatID, testUserID, "/client "+c.ID))
		require.Contains(t, mockBot.LastSentMessage().Text, "No devices.")
	})

	t.Run("not found", func(t *testing.T) {
		t.Parallel()
		env := setupTestBot(t)
		mockBot := mocks.NewMockBot()

		env.bot.handleClientCore(context.Background(), mockBot, mocks.CommandUpdate(testChatID, testUserID, "/client NOPE"))
		require.Equal(t, "❌ Client not found.", mockBot.LastSentMessage().Text)
	})
}

func TestHandleIntake(t *testing.T) {
	t.Parallel()

	t.Run("client device repair chain", func(t *testing.T) {
		t.Parallel()
		env := setupTestBot(t)
		mockBot := mocks.NewMockBot()
		ctx := context.Background()

		env.bot.handleNewClientCore(ctx, mockBot, mocks.CommandUpdate(testChatID, testUserID, "/newclient Sara | 01122334455 | Giza"))
		require.Contains(t, mockBot.LastSentMessage().Text, "Client <code>")

		snap, err := env.store.Load(ctx)
		require.NoError(t, err)
		require.Len(t, snap.Clients, 1)
		client := snap.Clients[0]
		require.Equal(t, "Giza", client.Address)

		env.bot.handleNewDeviceCore(ctx, mockBot, mocks.CommandUpdate(testChatID, testUserID, "/newdevice "+client.ID+" Apple | iPhone 13 | Blue"))
		require.Contains(t, mockBot.LastSentMessage().Text, "Apple iPhone 13")

		snap, err = env.store.Load(ctx)
		require.NoError(t, err)
		require.Len(t, snap.Devices, 1)
		device := snap.Devices[0]
		require.Equal(t, client.ID, device.ClientID)

		env.bot.handleNewRepairCore(ctx, mockBot, mocks.CommandUpdate(testChatID, testUserID, "/newrepair "+device.ID+" Battery drains | 300 | 100 | 25.5"))
		require.Contains(t, mockBot.LastSentMessage().Text, "Total 425.50")

		snap, err = env.store.Load(ctx)
		require.NoError(t, err)
		require.Len(t, snap.Repairs, 1)
		require.Equal(t, client.ID, snap.Repairs[0].ClientID)
		require.Equal(t, appmodels.StatusPending, snap.Repairs[0].Status)
	})

	t.Run("device for unknown client", func(t *testing.T) {
		t.Parallel()
		env := setupTestBot(t)
		mockBot := mocks.NewMockBot()

		env.bot.handleNewDeviceCore(context.Background(), mockBot, mocks.CommandUpdate(testChatID, testUserID, "/newdevice NOPE Apple | iPhone 13"))
		require.Equal(t, "❌ Client not found.", mockBot.LastSentMessage().Text)
	})

	t.Run("repair for unknown device", func(t *testing.T) {
		t.Parallel()
		env := setupTestBot(t)
		mockBot := mocks.NewMockBot()

		env.bot.handleNewRepairCore(context.Background(), mockBot, mocks.CommandUpdate(testChatID, testUserID, "/newrepair NOPE Screen"))
		require.Equal(t, "❌ Device not found.", mockBot.LastSentMessage().Text)
	})

	t.Run("usage", func(t *testing.T) {
		t.Parallel()
		env := setupTestBot(t)
		mockBot := mocks.NewMockBot()
		ctx := context.Background()

		env.bot.handleNewClientCore(ctx, mockBot, mocks.CommandUpdate(testChatID, testUserID, "/newclient"))
		env.bot.handleNewDeviceCore(ctx, mockBot, mocks.CommandUpdate(testChatID, testUserID, "/newdevice"))
		env.bot.handleNewRepairCore(ctx, mockBot, mocks.CommandUpdate(testChatID, testUserID, "/newrepair"))
		env.bot.handleNewExpenseCore(ctx, mockBot, mocks.CommandUpdate(testChatID, testUserID, "/expense"))

		require.Equal(t, 4, mockBot.SentMessageCount())
		for _, msg := range mockBot.SentMessages {
			require.Contains(t, msg.Text, "Usage")
		}
	})

	t.Run("expense", func(t *testing.T) {
		t.Parallel()
		env := setupTestBot(t)
		mockBot := mocks.NewMockBot()
		ctx := context.Background()

		env.bot.handleNewExpenseCore(ctx, mockBot, mocks.CommandUpdate(testChatID, testUserID, "/expense Electricity | 450 | utilities"))
		require.Contains(t, mockBot.LastSentMessage().Text, "UTILITIES")

		snap, err := env.store.Load(ctx)
		require.NoError(t, err)
		require.Len(t, snap.Expenses, 1)
		require.Equal(t, appmodels.CategoryUtilities, snap.Expenses[0].Category)
		require.True(t, snap.Expenses[0].Date.Equal(testNow))
	})

	t.Run("expense defaults to other", func(t *testing.T) {
		t.Parallel()
		env := setupTestBot(t)
		mockBot := mocks.NewMockBot()
		ctx := context.Background()

		env.bot.handleNewExpenseCore(ctx, mockBot, mocks.CommandUpdate(testChatID, testUserID, "/expense Tea | 20"))

		snap, err := env.store.Load(ctx)
		require.NoError(t, err)
		require.Len(t, snap.Expenses, 1)
		require.Equal(t, appmodels.CategoryOther, snap.Expenses[0].Category)
	})

	t.Run("expense rejects bad input", func(t *testing.T) {
		t.Parallel()
		env := setupTestBot(t)
		mockBot := mocks.NewMockBot()
		ctx := context.Background()

		env.bot.handleNewExpenseCore(ctx, mockBot, mocks.CommandUpdate(testChatID, testUserID, "/expense Tea | 0"))
		require.Contains(t, mockBot.LastSentMessage().Text, "Usage")

		env.bot.handleNewExpenseCore(ctx, mockBot, mocks.CommandUpdate(testChatID, testUserID, "/expense Tea | 20 | snacks"))
		require.Equal(t, "❌ Unknown category.", mockBot.LastSentMessage().Text)

		snap, err := env.store.Load(ctx)
		require.NoError(t, err)
		require.Empty(t, snap.Expenses)
	})
}

func TestSplitFields(t *testing.T) {
	t.Parallel()
	require.Equal(t, []string{"a", "b", ""}, splitFields("a | b", 3))
	require.Equal(t, []string{"a", "b", "c", "d"}, splitFields(" a|b |c| d ", 2))
}
