package feed

import (
	"os"
	"path/filepath"
	"testing"
)

func writeSourcesFile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "feeds.yml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write sources file: %v", err)
	}

	return path
}

func TestLoadSources(t *testing.T) {
	path := writeSourcesFile(t, `sources:
  - id: hn
    url: https://news.ycombinator.com/rss
    category: tech
  - id: quiet
    url: https://example.com/feed.xml
    enabled: false
`)

	sources, err := LoadSources(path)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if len(sources) != 2 {
		t.Fatalf("Expected 2 sources, got: %d", len(sources))
	}

	if sources[0].ID != "hn" || sources[0].URL != "https://news.ycombinator.com/rss" {
		t.Errorf("Unexpected first source: %+v", sources[0])
	}
	if sources[0].Category != "tech" {
		t.Errorf("Expected category 'tech', got: %s", sources[0].Category)
	}
	if !sources[0].Enabled {
		t.Error("Expected sources to be enabled by default")
	}
	if sources[1].Enabled {
		t.Error("Expected second source to be disabled")
	}
}

func TestLoadSourcesMissingID(t *testing.T) {
	path := writeSourcesFile(t, `sources:
  - url: https://example.com/feed.xml
`)

	if _, err := LoadSources(path); err == nil {
		t.Fatal("Expected error for missing id")
	}
}

func TestLoadSourcesMissingURL(t *testing.T) {
	path := writeSourcesFile(t, `sources:
  - id: hn
`)

	if _, err := LoadSources(path); err == nil {
		t.Fatal("Expected error for missing url")
	}
}

func TestLoadSourcesDuplicateID(t *testing.T) {
	path := writeSourcesFile(t, `sources:
  - id: hn
    url: https://example.com/a.xml
  - id: hn
    url: https://example.com/b.xml
`)

	if _, err := LoadSources(path); err == nil {
		t.Fatal("Expected error for duplicate id")
	}
}

func TestLoadSourcesMissingFile(t *testing.T) {
	if _, err := LoadSources(filepath.Join(t.TempDir(), "nope.yml")); err == nil {
		t.Fatal("Expected error for missing file")
	}
}
