package feed

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type rawSource struct {
	ID       string `yaml:"id"`
	URL      string `yaml:"url"`
	Category string `yaml:"category"`
	Enabled  *bool  `yaml:"enabled"`
}

type sourcesFile struct {
	Sources []rawSource `yaml:"sources"`
}

// LoadSources reads the feed registration file. Sources are enabled unless
// the file says otherwise.
func LoadSources(path string) ([]Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read sources file: %w", err)
	}

	var file sourcesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse sources file: %w", err)
	}

	seen := make(map[string]bool, len(file.Sources))
	sources := make([]Source, 0, len(file.Sources))
	for i, raw := range file.Sources {
		if raw.ID == "" {
			return nil, fmt.Errorf("source %d: id is required", i)
		}
		if raw.URL == "" {
			return nil, fmt.Errorf("source %q: url is required", raw.ID)
		}
		if seen[raw.ID] {
			return nil, fmt.Errorf("source %q: duplicate id", raw.ID)
		}
		seen[raw.ID] = true

		sources = append(sources, Source{
			ID:       raw.ID,
			URL:      raw.URL,
			Category: raw.Category,
			Enabled:  raw.Enabled == nil || *raw.Enabled,
		})
	}

	return sources, nil
}
