package bot

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gitlab.com/yelinaung/repair-ledger/internal/bot/mocks"
	"gitlab.com/yelinaung/repair-ledger/internal/integrity"
	appmodels "gitlab.com/yelinaung/repair-ledger/internal/models"
)

func TestFormatRemoved(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		removed integrity.Removed
		want    string
	}{
		{"client cascade", integrity.Removed{Clients: 1, Devices: 2, Repairs: 3}, "1 client, 2 devices, 3 repairs"},
		{"device only", integrity.Removed{Devices: 1}, "1 device"},
		{"nothing", integrity.Removed{}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.want, formatRemoved(tt.removed))
		})
	}
}

func TestParseEdit(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		args      string
		wantID    string
		wantField string
		wantValue string
		wantOK    bool
	}{
		{"field and value", "AB12 Name Ali Hassan", "AB12", "name", "Ali Hassan", true},
		{"empty value clears", "AB12 notes", "AB12", "notes", "", true},
		{"missing field", "AB12", "", "", "", false},
		{"empty", "", "", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			id, field, value, ok := parseEdit(tt.args)
			require.Equal(t, tt.wantOK, ok)
			require.Equal(t, tt.wantID, id)
			require.Equal(t, tt.wantField, field)
			require.Equal(t, tt.wantValue, value)
		})
	}
}

func TestHandleDeleteClientCore(t *testing.T) {
	t.Parallel()

	t.Run("cascades to devices and repairs", func(t *testing.T) {
		t.Parallel()
		env := setupTestBot(t)
		s := seedLedger(t, env.store)
		mockBot := mocks.NewMockBot()
		ctx := context.Background()

		env.bot.handleDeleteClientCore(ctx, mockBot, mocks.CommandUpdate(testChatID, testUserID, "/delclient "+s.client.ID))
		require.Equal(t, "🗑 Deleted 1 client, 1 device, 1 repair.", mockBot.LastSentMessage().Text)

		snap, err := env.store.Load(ctx)
		require.NoError(t, err)
		require.Empty(t, snap.Clients)
		require.Empty(t, snap.Devices)
		require.Empty(t, snap.Repairs)
		require.Len(t, snap.Expenses, 1)
	})

	t.Run("unknown id", func(t *testing.T) {
		t.Parallel()
		env := setupTestBot(t)
		seedLedger(t, env.store)
		mockBot := mocks.NewMockBot()

		env.bot.handleDeleteClientCore(context.Background(), mockBot, mocks.CommandUpdate(testChatID, testUserID, "/delclient NOPE"))
		require.Equal(t, msgClientNotFound, mockBot.LastSentMessage().Text)
	})

	t.Run("usage", func(t *testing.T) {
		t.Parallel()
		env := setupTestBot(t)
		mockBot := mocks.NewMockBot()

		env.bot.handleDeleteClientCore(context.Background(), mockBot, mocks.CommandUpdate(testChatID, testUserID, "/delclient"))
		require.Contains(t, mockBot.LastSentMessage().Text, "Usage")
	})
}

func TestHandleDeleteDeviceCore(t *testing.T) {
	t.Parallel()

	t.Run("keeps the owner", func(t *testing.T) {
		t.Parallel()
		env := setupTestBot(t)
		s := seedLedger(t, env.store)
		mockBot := mocks.NewMockBot()
		ctx := context.Background()

		env.bot.handleDeleteDeviceCore(ctx, mockBot, mocks.CommandUpdate(testChatID, testUserID, "/deldevice "+s.device.ID))
		require.Equal(t, "🗑 Deleted 1 device, 1 repair.", mockBot.LastSentMessage().Text)

		snap, err := env.store.Load(ctx)
		require.NoError(t, err)
		require.Len(t, snap.Clients, 1)
		require.Empty(t, snap.Devices)
		require.Empty(t, snap.Repairs)
	})

	t.Run("unknown id", func(t *testing.T) {
		t.Parallel()
		env := setupTestBot(t)
		mockBot := mocks.NewMockBot()

		env.bot.handleDeleteDeviceCore(context.Background(), mockBot, mocks.CommandUpdate(testChatID, testUserID, "/deldevice NOPE"))
		require.Equal(t, msgDeviceNotFound, mockBot.LastSentMessage().Text)
	})
}

func TestHandleDeleteRepairCore(t *testing.T) {
	t.Parallel()

	t.Run("removes only the repair", func(t *testing.T) {
		t.Parallel()
		env := setupTestBot(t)
		s := seedLedger(t, env.store)
		mockBot := mocks.NewMockBot()
		ctx := context.Background()

		env.bot.handleDeleteRepairCore(ctx, mockBot, mocks.CommandUpdate(testChatID, testUserID, "/delrepair "+s.repair.ID))
		require.Contains(t, mockBot.LastSentMessage().Text, "Deleted repair <code>"+s.repair.ID+"</code>")

		snap, err := env.store.Load(ctx)
		require.NoError(t, err)
		require.Empty(t, snap.Repairs)
		require.Len(t, snap.Devices, 1)
	})

	t.Run("unknown id", func(t *testing.T) {
		t.Parallel()
		env := setupTestBot(t)
		mockBot := mocks.NewMockBot()

		env.bot.handleDeleteRepairCore(context.Background(), mockBot, mocks.CommandUpdate(testChatID, testUserID, "/delrepair NOPE"))
		require.Equal(t, msgRepairNotFound, mockBot.LastSentMessage().Text)
	})
}

func TestHandleDeleteExpenseCore(t *testing.T) {
	t.Parallel()

	env := setupTestBot(t)
	seedLedger(t, env.store)
	mockBot := mocks.NewMockBot()
	ctx := context.Background()

	snap, err := env.store.Load(ctx)
	require.NoError(t, err)
	id := snap.Expenses[0].ID

	env.bot.handleDeleteExpenseCore(ctx, mockBot, mocks.CommandUpdate(testChatID, testUserID, "/delexpense "+id))
	require.Contains(t, mockBot.LastSentMessage().Text, "Deleted expense")

	snap, err = env.store.Load(ctx)
	require.NoError(t, err)
	require.Empty(t, snap.Expenses)

	env.bot.handleDeleteExpenseCore(ctx, mockBot, mocks.CommandUpdate(testChatID, testUserID, "/delexpense "+id))
	require.Equal(t, msgExpenseNotFound, mockBot.LastSentMessage().Text)
}

func TestHandleEditClientCore(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		args     string
		wantText string
		check    func(t *testing.T, c appmodels.Client)
	}{
		{
			name:     "rename",
			args:     "name Ali Hassan",
			wantText: "updated: Ali Hassan",
			check:    func(t *testing.T, c appmodels.Client) { require.Equal(t, "Ali Hassan", c.Name) },
		},
		{
			name:     "phone",
			args:     "PHONE 01111111111",
			wantText: "updated: Ali",
			check:    func(t *testing.T, c appmodels.Client) { require.Equal(t, "01111111111", c.Phone) },
		},
		{
			name:     "clear notes",
			args:     "notes",
			wantText: "updated: Ali",
			check:    func(t *testing.T, c appmodels.Client) { require.Empty(t, c.Notes) },
		},
		{
			name:     "empty name is refused",
			args:     "name",
			wantText: "Usage",
			check:    func(t *testing.T, c appmodels.Client) { require.Equal(t, "Ali", c.Name) },
		},
		{
			name:     "unknown field",
			args:     "email a@b.c",
			wantText: "Usage",
			check:    func(t *testing.T, c appmodels.Client) { require.Equal(t, "01000000000", c.Phone) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			env := setupTestBot(t)
			s := seedLedger(t, env.store)
			mockBot := mocks.NewMockBot()
			ctx := context.Background()

			env.bot.handleEditClientCore(ctx, mockBot, mocks.CommandUpdate(testChatID, testUserID, "/editclient "+s.client.ID+" "+tt.args))
			require.Contains(t, mockBot.LastSentMessage().Text, tt.wantText)

			snap, err := env.store.Load(ctx)
			require.NoError(t, err)
			c, ok := snap.ClientByID(s.client.ID)
			require.True(t, ok)
			tt.check(t, c)
		})
	}

	t.Run("unknown id", func(t *testing.T) {
		t.Parallel()
		env := setupTestBot(t)
		mockBot := mocks.NewMockBot()

		env.bot.handleEditClientCore(context.Background(), mockBot, mocks.CommandUpdate(testChatID, testUserID, "/editclient NOPE name Ali"))
		require.Equal(t, msgClientNotFound, mockBot.LastSentMessage().Text)
	})
}

func TestHandleEditDeviceCore(t *testing.T) {
	t.Parallel()

	t.Run("sets imei", func(t *testing.T) {
		t.Parallel()
		env := setupTestBot(t)
		s := seedLedger(t, env.store)
		mockBot := mocks.NewMockBot()
		ctx := context.Background()

		env.bot.handleEditDeviceCore(ctx, mockBot, mocks.CommandUpdate(testChatID, testUserID, "/editdevice "+s.device.ID+" imei 356938035643809"))
		require.Contains(t, mockBot.LastSentMessage().Text, "updated: Samsung Galaxy A54")

		snap, err := env.store.Load(ctx)
		require.NoError(t, err)
		d, ok := snap.DeviceByID(s.device.ID)
		require.True(t, ok)
		require.Equal(t, "356938035643809", d.IMEI)
		require.Equal(t, s.client.ID, d.ClientID)
	})

	t.Run("owner cannot be changed", func(t *testing.T) {
		t.Parallel()
		env := setupTestBot(t)
		s := seedLedger(t, env.store)
		mockBot := mocks.NewMockBot()

		env.bot.handleEditDeviceCore(context.Background(), mockBot, mocks.CommandUpdate(testChatID, testUserID, "/editdevice "+s.device.ID+" client XYZ"))
		require.Contains(t, mockBot.LastSentMessage().Text, "Usage")
	})

	t.Run("unknown id", func(t *testing.T) {
		t.Parallel()
		env := setupTestBot(t)
		mockBot := mocks.NewMockBot()

		env.bot.handleEditDeviceCore(context.Background(), mockBot, mocks.CommandUpdate(testChatID, testUserID, "/editdevice NOPE color Black"))
		require.Equal(t, msgDeviceNotFound, mockBot.LastSentMessage().Text)
	})
}

func TestHandleEditExpenseCore(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		args     string
		wantText string
		check    func(t *testing.T, e appmodels.Expense)
	}{
		{
			name:     "amount",
			args:     "amount 3200",
			wantText: "3200.00",
			check: func(t *testing.T, e appmodels.Expense) {
				require.True(t, e.Amount.Equal(decimal.NewFromInt(3200)))
			},
		},
		{
			name:     "category",
			args:     "category utilities",
			wantText: "(UTILITIES)",
			check: func(t *testing.T, e appmodels.Expense) {
				require.Equal(t, appmodels.CategoryUtilities, e.Category)
			},
		},
		{
			name:     "non-positive amount",
			args:     "amount 0",
			wantText: "Usage",
			check: func(t *testing.T, e appmodels.Expense) {
				require.True(t, e.Amount.Equal(decimal.NewFromInt(3000)))
			},
		},
		{
			name:     "unknown category",
			args:     "category FOOD",
			wantText: "Usage",
			check: func(t *testing.T, e appmodels.Expense) {
				require.Equal(t, appmodels.CategoryRent, e.Category)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			env := setupTestBot(t)
			seedLedger(t, env.store)
			mockBot := mocks.NewMockBot()
			ctx := context.Background()

			snap, err := env.store.Load(ctx)
			require.NoError(t, err)
			id := snap.Expenses[0].ID

			env.bot.handleEditExpenseCore(ctx, mockBot, mocks.CommandUpdate(testChatID, testUserID, "/editexpense "+id+" "+tt.args))
			require.Contains(t, mockBot.LastSentMessage().Text, tt.wantText)

			snap, err = env.store.Load(ctx)
			require.NoError(t, err)
			e, ok := snap.ExpenseByID(id)
			require.True(t, ok)
			tt.check(t, e)
		})
	}
}

func TestHandleCostCore(t *testing.T) {
	t.Parallel()

	t.Run("recomputes the total", func(t *testing.T) {
		t.Parallel()
		env := setupTestBot(t)
		s := seedLedger(t, env.store)
		mockBot := mocks.NewMockBot()
		ctx := context.Background()

		env.bot.handleCostCore(ctx, mockBot, mocks.CommandUpdate(testChatID, testUserID, "/cost "+s.repair.ID+" other 20"))
		require.Contains(t, mockBot.LastSentMessage().Text, "total is now 170.50")

		snap, err := env.store.Load(ctx)
		require.NoError(t, err)
		r, ok := snap.RepairByID(s.repair.ID)
		require.True(t, ok)
		require.True(t, r.CostOther.Equal(decimal.NewFromInt(20)))
		require.True(t, r.TotalCost.Equal(decimal.RequireFromString("170.50")))
		require.Equal(t, appmodels.StatusDone, r.Status)
	})

	t.Run("replaces parts cost", func(t *testing.T) {
		t.Parallel()
		env := setupTestBot(t)
		s := seedLedger(t, env.store)
		mockBot := mocks.NewMockBot()

		env.bot.handleCostCore(context.Background(), mockBot, mocks.CommandUpdate(testChatID, testUserID, "/cost "+s.repair.ID+" PARTS 80"))
		require.Contains(t, mockBot.LastSentMessage().Text, "total is now 130.00")
	})

	tests := []struct {
		name     string
		args     string
		wantText string
	}{
		{"missing amount", " parts", "Usage"},
		{"negative amount", " services -5", "Invalid amount"},
		{"unknown component", " labour 10", "Unknown cost"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			env := setupTestBot(t)
			s := seedLedger(t, env.store)
			mockBot := mocks.NewMockBot()

			env.bot.handleCostCore(context.Background(), mockBot, mocks.CommandUpdate(testChatID, testUserID, "/cost "+s.repair.ID+tt.args))
			require.Contains(t, mockBot.LastSentMessage().Text, tt.wantText)
		})
	}

	t.Run("unknown id", func(t *testing.T) {
		t.Parallel()
		env := setupTestBot(t)
		mockBot := mocks.NewMockBot()

		env.bot.handleCostCore(context.Background(), mockBot, mocks.CommandUpdate(testChatID, testUserID, "/cost NOPE other 5"))
		require.Equal(t, msgRepairNotFound, mockBot.LastSentMessage().Text)
	})
}
