package config

import (
	"slices"
	"strings"
)

// Binding pins a whitelisted username to the first Telegram user ID that
// used it. Telegram usernames can be released and claimed by someone else,
// so after binding only the pinned ID is let in under that name.
type Binding struct {
	Username string `json:"username"`
	UserID   int64  `json:"userId"`
}

// IsAuthorized reports whether the user may operate the ledger.
func (c *Config) IsAuthorized(userID int64, username string) bool {
	ok, _ := c.Authorize(userID, username)
	return ok
}

// Authorize checks the whitelist. When a username match creates a new
// binding it is returned so the caller can persist it. A zero userID only
// looks up and never binds.
func (c *Config) Authorize(userID int64, username string) (bool, *Binding) {
	if slices.Contains(c.WhitelistedUserIDs, userID) {
		return true, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if userID != 0 && slices.Contains(c.boundIDs(), userID) {
		return true, nil
	}

	name, ok := c.whitelistedName(username)
	if !ok {
		return false, nil
	}
	key := strings.ToLower(name)
	if boundID, bound := c.bindings[key]; bound {
		return userID == 0 || boundID == userID, nil
	}
	if userID == 0 {
		return true, nil
	}
	c.bind(key, userID)
	return true, &Binding{Username: name, UserID: userID}
}

// BoundUserID returns the user ID a whitelisted username is pinned to.
func (c *Config) BoundUserID(username string) (int64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id, ok := c.bindings[strings.ToLower(strings.TrimPrefix(username, "@"))]
	return id, ok
}

// Bindings returns the current bindings sorted by username.
func (c *Config) Bindings() []Binding {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Binding, 0, len(c.bindings))
	for name, id := range c.bindings {
		out = append(out, Binding{Username: name, UserID: id})
	}
	slices.SortFunc(out, func(a, b Binding) int { return strings.Compare(a.Username, b.Username) })
	return out
}

// RestoreBindings loads bindings saved by an earlier run. Entries for
// usernames that are no longer whitelisted are dropped.
func (c *Config) RestoreBindings(bindings []Binding) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, b := range bindings {
		name, ok := c.whitelistedName(b.Username)
		if ok && b.UserID != 0 {
			c.bind(strings.ToLower(name), b.UserID)
		}
	}
}

// bind and boundIDs must be called with mu held.
func (c *Config) bind(key string, userID int64) {
	if c.bindings == nil {
		c.bindings = make(map[string]int64)
	}
	c.bindings[key] = userID
}

func (c *Config) boundIDs() []int64 {
	ids := make([]int64, 0, len(c.bindings))
	for _, id := range c.bindings {
		ids = append(ids, id)
	}
	return ids
}

// whitelistedName returns the configured spelling of username, ignoring
// case and a leading @.
func (c *Config) whitelistedName(username string) (string, bool) {
	username = strings.TrimPrefix(username, "@")
	if username == "" {
		return "", false
	}
	i := slices.IndexFunc(c.WhitelistedUsernames, func(w string) bool { return strings.EqualFold(w, username) })
	if i < 0 {
		return "", false
	}
	return c.WhitelistedUsernames[i], true
}
