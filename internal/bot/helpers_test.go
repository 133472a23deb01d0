package bot

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gitlab.com/yelinaung/repair-ledger/internal/backup"
	"gitlab.com/yelinaung/repair-ledger/internal/bot/mocks"
	"gitlab.com/yelinaung/repair-ledger/internal/config"
	"gitlab.com/yelinaung/repair-ledger/internal/gemini"
	"gitlab.com/yelinaung/repair-ledger/internal/ledger"
	appmodels "gitlab.com/yelinaung/repair-ledger/internal/models"
	"gitlab.com/yelinaung/repair-ledger/internal/storage"
)

const (
	testChatID = int64(12345)
	testUserID = int64(123456)
)

var testNow = time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type fakeClassifier struct {
	guess gemini.DeviceGuess
	err   error
	calls int
	image []byte
}

func (f *fakeClassifier) ClassifyDevice(_ context.Context, image []byte, _ string) (gemini.DeviceGuess, error) {
	f.calls++
	f.image = image
	return f.guess, f.err
}

type testEnv struct {
	bot     *Bot
	store   *ledger.Store
	backend *storage.Memory
	clock   *fakeClock
}

// setupTestBot builds a Bot over an in-memory ledger with a fixed clock.
func setupTestBot(t *testing.T, opts ...backup.Option) testEnv {
	t.Helper()

	backend := storage.NewMemory()
	clock := &fakeClock{t: testNow}
	store := ledger.New(backend, ledger.WithClock(clock.Now))

	cfg := &config.Config{
		WhitelistedUserIDs:   []int64{testUserID},
		WhitelistedUsernames: []string{"owner"},
		ShopName:             "Mido",
		PhoneCountryCode:     "20",
	}

	return testEnv{
		bot:     newBot(cfg, store, backup.NewService(store, opts...), nil),
		store:   store,
		backend: backend,
		clock:   clock,
	}
}

type seeded struct {
	client appmodels.Client
	device appmodels.Device
	repair appmodels.Repair
}

// seedLedger adds Ali with one Samsung and a finished screen repair.
func seedLedger(t *testing.T, store *ledger.Store) seeded {
	t.Helper()
	ctx := context.Background()

	c, err := store.AddClient(ctx, appmodels.Client{Name: "Ali", Phone: "01000000000"})
	require.NoError(t, err)
	d, err := store.AddDevice(ctx, appmodels.Device{ClientID: c.ID, Brand: "Samsung", Model: "Galaxy A54"})
	require.NoError(t, err)
	r, err := store.AddRepair(ctx, appmodels.Repair{
		DeviceID:     d.ID,
		Problem:      "Broken screen",
		CostParts:    decimal.RequireFromString("100.50"),
		CostServices: decimal.NewFromInt(50),
	})
	require.NoError(t, err)
	r, _, err = store.UpdateRepair(ctx, r.ID, appmodels.RepairPatch{Status: appmodels.Ptr(appmodels.StatusDone)})
	require.NoError(t, err)
	_, err = store.AddExpense(ctx, appmodels.Expense{Title: "Rent", Amount: decimal.NewFromInt(3000), Category: appmodels.CategoryRent})
	require.NoError(t, err)

	return seeded{client: c, device: d, repair: r}
}

// serveFile starts a server that returns body and points the mock's download link at it.
func serveFile(t *testing.T, mockBot *mocks.MockBot, body []byte) {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write(body)
	}))
	t.Cleanup(server.Close)
	mockBot.FileDownloadLinkToReturn = server.URL
}
