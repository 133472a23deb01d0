package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConfig_IsAuthorized(t *testing.T) {
	t.Parallel()

	type call struct {
		userID   int64
		username string
		want     bool
	}

	tests := []struct {
		name  string
		ids   []int64
		names []string
		calls []call
	}{
		{
			name:  "whitelisted ID ignores username",
			ids:   []int64{100},
			names: []string{"alice"},
			calls: []call{{100, "", true}, {100, "stranger", true}, {999, "stranger", false}},
		},
		{
			name:  "username match ignores case and @",
			names: []string{"Alice"},
			calls: []call{{1, "@ALICE", true}},
		},
		{
			name:  "first ID to use a username keeps it",
			names: []string{"owner"},
			calls: []call{{42, "owner", true}, {42, "", true}, {99, "owner", false}},
		},
		{
			name:  "zero ID looks up without binding",
			names: []string{"owner"},
			calls: []call{{0, "owner", true}, {42, "owner", true}, {0, "owner", true}, {99, "owner", false}},
		},
		{
			name:  "empty whitelist",
			calls: []call{{1, "alice", false}, {0, "", false}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := &Config{WhitelistedUserIDs: tt.ids, WhitelistedUsernames: tt.names}
			for i, c := range tt.calls {
				require.Equal(t, c.want, cfg.IsAuthorized(c.userID, c.username), "call %d: %d/%q", i, c.userID, c.username)
			}
		})
	}
}

func TestConfig_Authorize_ReturnsNewBindingOnce(t *testing.T) {
	t.Parallel()

	cfg := &Config{WhitelistedUsernames: []string{"Owner"}, WhitelistedUserIDs: []int64{7}}

	ok, b := cfg.Authorize(42, "owner")
	require.True(t, ok)
	require.Equal(t, &Binding{Username: "Owner", UserID: 42}, b)

	ok, b = cfg.Authorize(42, "owner")
	require.True(t, ok)
	require.Nil(t, b)

	ok, b = cfg.Authorize(7, "")
	require.True(t, ok)
	require.Nil(t, b)

	id, bound := cfg.BoundUserID("@OWNER")
	require.True(t, bound)
	require.Equal(t, int64(42), id)
}

func TestConfig_RestoreBindings(t *testing.T) {
	t.Parallel()

	first := &Config{WhitelistedUsernames: []string{"owner"}}
	require.True(t, first.IsAuthorized(42, "owner"))

	restarted := &Config{WhitelistedUsernames: []string{"owner"}}
	restarted.RestoreBindings(append(first.Bindings(),
		Binding{Username: "removed", UserID: 55},
		Binding{Username: "owner", UserID: 0},
	))

	require.Equal(t, []Binding{{Username: "owner", UserID: 42}}, restarted.Bindings())
	require.True(t, restarted.IsAuthorized(42, ""))
	require.False(t, restarted.IsAuthorized(99, "owner"))
	require.False(t, restarted.IsAuthorized(55, ""))

	ok, b := restarted.Authorize(42, "owner")
	require.True(t, ok)
	require.Nil(t, b)
}

func TestConfig_Bindings_Sorted(t *testing.T) {
	t.Parallel()

	cfg := &Config{WhitelistedUsernames: []string{"Bob", "alice"}}
	require.Empty(t, cfg.Bindings())

	cfg.IsAuthorized(2, "bob")
	cfg.IsAuthorized(1, "ALICE")

	require.Equal(t, []Binding{
		{Username: "alice", UserID: 1},
		{Username: "bob", UserID: 2},
	}, cfg.Bindings())
}
