package config

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"

	"github.com/spec-kit/support-relay/internal/domain"
)

type rosterFile struct {
	Staff []domain.StaffMember `yaml:"staff"`
}

// LoadRoster reads the staff roster from a YAML file. Names, chat ids and
// topic ids must be unique; a duplicate makes the whole roster invalid.
func LoadRoster(path string) ([]domain.StaffMember, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read roster %s: %w", path, err)
	}

	var file rosterFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse roster %s: %w", path, err)
	}
	if len(file.Staff) == 0 {
		return nil, fmt.Errorf("roster %s lists no staff", path)
	}

	names := make(map[string]bool, len(file.Staff))
	chats := make(map[int64]bool, len(file.Staff))
	topics := make(map[int64]bool, len(file.Staff))
	for _, member := range file.Staff {
		if member.Name == "" {
			return nil, fmt.Errorf("roster %s: staff entry without a name", path)
		}
		if member.ChatID == 0 {
			return nil, fmt.Errorf("roster %s: staff %q without a chat id", path, member.Name)
		}
		if names[member.Name] {
			return nil, fmt.Errorf("roster %s: duplicate staff name %q", path, member.Name)
		}
		if chats[member.ChatID] {
			return nil, fmt.Errorf("roster %s: duplicate chat id %d", path, member.ChatID)
		}
		if topics[member.TopicID] {
			return nil, fmt.Errorf("roster %s: duplicate topic id %d", path, member.TopicID)
		}
		names[member.Name] = true
		chats[member.ChatID] = true
		topics[member.TopicID] = true
	}
	return file.Staff, nil
}
