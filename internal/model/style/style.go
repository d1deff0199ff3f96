package style

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed styles.yaml
var catalogYAML []byte

// Style is one entry of the decorating catalog shown in the style picker.
type Style struct {
	ID          string `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
	Prompt      string `json:"prompt" yaml:"prompt"`
	Thumbnail   string `json:"thumbnail" yaml:"thumbnail"`
}

// Parse decodes a YAML list of styles and rejects entries without an id or prompt.
func Parse(data []byte) ([]Style, error) {
	var items []Style
	if err := yaml.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("decode style catalog: %w", err)
	}

	seen := make(map[string]struct{}, len(items))
	for i, item := range items {
		if item.ID == "" {
			return nil, fmt.Errorf("style #%d: id is required", i)
		}
		if item.Prompt == "" {
			return nil, fmt.Errorf("style %q: prompt is required", item.ID)
		}
		if _, dup := seen[item.ID]; dup {
			return nil, fmt.Errorf("style %q: duplicate id", item.ID)
		}
		seen[item.ID] = struct{}{}
	}
	return items, nil
}

// Seed returns the built-in five-style catalog.
func Seed() []Style {
	items, err := Parse(catalogYAML)
	if err != nil {
		panic(err)
	}
	return items
}
