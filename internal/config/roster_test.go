package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeRoster(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "roster.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadRoster(t *testing.T) {
	path := writeRoster(t, `
staff:
  - name: "Aigerim"
    chat_id: 111
    topic_id: 2
  - name: "Daniyar"
    chat_id: 222
    topic_id: 4
`)
	roster, err := LoadRoster(path)
	if err != nil {
		t.Fatalf("LoadRoster: %v", err)
	}
	if len(roster) != 2 {
		t.Fatalf("got %d members", len(roster))
	}
	if roster[0].Name != "Aigerim" || roster[0].ChatID != 111 || roster[0].TopicID != 2 {
		t.Fatalf("member = %+v", roster[0])
	}
}

func TestLoadRosterRejectsDuplicates(t *testing.T) {
	path := writeRoster(t, `
staff:
  - name: "Aigerim"
    chat_id: 111
    topic_id: 2
  - name: "Aigerim"
    chat_id: 222
    topic_id: 4
`)
	if _, err := LoadRoster(path); err == nil {
		t.Fatal("duplicate name must be rejected")
	}

	path = writeRoster(t, `
staff:
  - name: "Aigerim"
    chat_id: 111
    topic_id: 2
  - name: "Daniyar"
    chat_id: 111
    topic_id: 4
`)
	if _, err := LoadRoster(path); err == nil {
		t.Fatal("duplicate chat id must be rejected")
	}

	path = writeRoster(t, `
staff:
  - name: "Aigerim"
    chat_id: 111
    topic_id: 2
  - name: "Daniyar"
    chat_id: 222
    topic_id: 2
`)
	if _, err := LoadRoster(path); err == nil {
		t.Fatal("duplicate topic id must be rejected")
	}
}

func TestLoadRosterRejectsEmptyAndPartialEntries(t *testing.T) {
	path := writeRoster(t, "staff: []\n")
	if _, err := LoadRoster(path); err == nil {
		t.Fatal("empty roster must be rejected")
	}

	path = writeRoster(t, `
staff:
  - name: "Aigerim"
    topic_id: 2
`)
	if _, err := LoadRoster(path); err == nil {
		t.Fatal("missing chat id must be rejected")
	}

	if _, err := LoadRoster(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("missing file must be rejected")
	}
}
