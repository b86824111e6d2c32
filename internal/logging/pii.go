package logging

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"strings"
)

// AnonymizeEmail maps an address to a stable "user:<16 hex>" token so log
// lines and spans can be correlated without carrying the address. Case and
// surrounding whitespace do not change the token, matching how calendar
// IDs compare.
func AnonymizeEmail(email string) string {
	email = normalizeEmail(email)
	if email == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(email))
	return "user:" + hex.EncodeToString(sum[:8])
}

// UserHash is the attribute form of AnonymizeEmail.
func UserHash(email string) slog.Attr {
	return slog.String(KeyUserHash, AnonymizeEmail(email))
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
