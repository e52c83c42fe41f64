package text

import (
	"strings"
	"testing"

	"github.com/spec-kit/support-relay/internal/domain"
)

func TestGetFallsBackToRussian(t *testing.T) {
	if got := Get(KeyWelcome, domain.LanguageEN); !strings.Contains(got, "Welcome") {
		t.Fatalf("en welcome = %q", got)
	}
	if got := Get(KeyWelcome, domain.Language("de")); got != Get(KeyWelcome, domain.LanguageRU) {
		t.Fatalf("unknown language must fall back to ru, got %q", got)
	}
	if got := Get(Key("no_such_key"), domain.LanguageRU); got != "no_such_key" {
		t.Fatalf("unknown key = %q", got)
	}
}

func TestEveryKeyPresentInEveryLanguage(t *testing.T) {
	base := messages[domain.LanguageRU]
	for lang, byKey := range messages {
		for key := range base {
			if _, ok := byKey[key]; !ok {
				t.Errorf("language %s is missing key %s", lang, key)
			}
		}
		if len(byKey) != len(base) {
			t.Errorf("language %s has %d keys, ru has %d", lang, len(byKey), len(base))
		}
	}
}

func TestParseLanguage(t *testing.T) {
	cases := []struct {
		in   string
		want domain.Language
		ok   bool
	}{
		{"ru", domain.LanguageRU, true},
		{"kk", domain.LanguageKK, true},
		{"kz", domain.LanguageKK, true},
		{"en", domain.LanguageEN, true},
		{"de", "", false},
		{"", "", false},
	}
	for _, c := range cases {
		got, ok := ParseLanguage(c.in)
		if got != c.want || ok != c.ok {
			t.Errorf("ParseLanguage(%q) = %q, %v", c.in, got, ok)
		}
	}
}
