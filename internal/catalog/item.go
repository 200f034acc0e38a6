package catalog

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/abhisek/mixcoach/internal/skill"
)

//go:embed content.yaml
var contentYAML []byte

// ContentItem is a single lesson, mini-game, practice drill or quiz.
type ContentItem struct {
	ID            string            `yaml:"id" json:"id"`
	Title         string            `yaml:"title" json:"title"`
	Description   string            `yaml:"description" json:"description"`
	Category      skill.Category    `yaml:"category" json:"category"`
	Type          skill.ContentType `yaml:"type" json:"contentType"`
	Difficulty    skill.Difficulty  `yaml:"difficulty" json:"difficulty"`
	EstimatedMins int               `yaml:"estimated_mins" json:"estimatedDuration"`
	Prerequisites []string          `yaml:"prerequisites" json:"prerequisites,omitempty"`
	Objectives    []string          `yaml:"objectives" json:"objectives"`
	Data          map[string]any    `yaml:"data" json:"contentData,omitempty"`
}

// HasPrerequisite reports whether id is a direct prerequisite of the item.
func (c ContentItem) HasPrerequisite(id string) bool {
	for _, p := range c.Prerequisites {
		if p == id {
			return true
		}
	}
	return false
}

// Parse decodes a YAML content list.
func Parse(data []byte) ([]ContentItem, error) {
	var items []ContentItem
	if err := yaml.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("decode content: %w", err)
	}
	return items, nil
}
