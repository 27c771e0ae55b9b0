package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/sakamoto-family-smile/sakamomo-family-agents/pkg/a2a"
)

// LoadCard loads an agent discovery card from a YAML file. Returns nil card
// and nil error if the file is missing, so callers can fall back to the
// built-in card.
func LoadCard(path string) (*a2a.AgentCard, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var card a2a.AgentCard
	if err := yaml.Unmarshal(data, &card); err != nil {
		return nil, err
	}
	return &card, nil
}

// SaveCard writes the card to a YAML file.
func SaveCard(path string, card *a2a.AgentCard) error {
	data, err := yaml.Marshal(card)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
