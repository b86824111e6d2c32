package logging

import (
	"strings"
	"testing"
)

func TestAnonymizeEmail(t *testing.T) {
	tests := []struct {
		name  string
		email string
		empty bool
	}{
		{name: "plain", email: "jane@example.com"},
		{name: "gmail", email: "user@gmail.com"},
		{name: "empty", email: "", empty: true},
		{name: "whitespace only", email: "   ", empty: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AnonymizeEmail(tt.email)
			if tt.empty {
				if got != "" {
					t.Errorf("AnonymizeEmail(%q) = %q, want empty", tt.email, got)
				}
				return
			}
			if len(got) != len("user:")+16 || !strings.HasPrefix(got, "user:") {
				t.Errorf("AnonymizeEmail(%q) = %q, want user:<16 hex>", tt.email, got)
			}
			if strings.Contains(got, "@") {
				t.Errorf("token %q leaks the address", got)
			}
		})
	}
}

func TestAnonymizeEmail_Normalized(t *testing.T) {
	base := AnonymizeEmail("jane@example.com")

	for _, variant := range []string{"Jane@Example.com", " jane@example.com\t", "JANE@EXAMPLE.COM"} {
		if got := AnonymizeEmail(variant); got != base {
			t.Errorf("AnonymizeEmail(%q) = %q, want %q", variant, got, base)
		}
	}
	if AnonymizeEmail("john@example.com") == base {
		t.Error("different addresses should not share a token")
	}
}

func TestUserHash(t *testing.T) {
	attr := UserHash("Jane@example.com")
	if attr.Key != KeyUserHash {
		t.Errorf("key = %q, want %q", attr.Key, KeyUserHash)
	}
	if attr.Value.String() != AnonymizeEmail("jane@example.com") {
		t.Errorf("value = %q, want the normalized token", attr.Value.String())
	}
}
