package logger

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"strconv"
	"strings"
	"unicode"
)

const (
	minSaltLength = 32
	hashLength    = 8
	saltEnv       = "LOG_HASH_SALT"
)

var hashSalt = os.Getenv(saltEnv)

func init() {
	if hashSalt == "" {
		hashSalt = "default-salt-change-in-production"
	}
}

// InitHashSalt loads LOG_HASH_SALT and panics if it is shorter than 32
// characters. The bot calls it at startup; one-shot CLI commands do not.
func InitHashSalt() {
	salt := os.Getenv(saltEnv)
	if len(salt) < minSaltLength {
		panic(fmt.Sprintf("%s must be set to at least %d characters", saltEnv, minSaltLength))
	}
	hashSalt = salt
}

// InitHashSaltForTesting sets the salt directly.
func InitHashSaltForTesting(salt string) {
	hashSalt = salt
}

// digest returns a short salted hash. kind keeps a user and a chat with the
// same numeric ID from sharing a hash.
func digest(kind, value string) string {
	sum := sha256.Sum256([]byte(kind + ":" + value + ":" + hashSalt))
	return hex.EncodeToString(sum[:])[:hashLength]
}

// HashUserID lets log lines be correlated per Telegram user without the ID.
func HashUserID(userID int64) string {
	return digest("user", strconv.FormatInt(userID, 10))
}

// HashChatID is HashUserID for chats.
func HashChatID(chatID int64) string {
	return digest("chat", strconv.FormatInt(chatID, 10))
}

// HashPhone hashes a customer phone number. Spacing and punctuation are
// ignored, so "010 1234-5678" and "01012345678" hash alike.
func HashPhone(phone string) string {
	digits := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, phone)
	return digest("phone", digits)
}

// SanitizeText reduces free text to its length and, for longer input, a
// three rune prefix.
func SanitizeText(text string) string {
	r := []rune(text)
	switch {
	case len(r) == 0:
		return "<empty>"
	case len(r) <= 10:
		return fmt.Sprintf("<%d chars>", len(r))
	}
	return fmt.Sprintf("%s...<%d chars>", string(r[:3]), len(r))
}
