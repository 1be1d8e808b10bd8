package cfg

import (
	"testing"
)

func TestGetVersion(t *testing.T) {
	if GetVersion() == "" {
		t.Error("GetVersion should never return empty string")
	}
}

func TestConfigFields(t *testing.T) {
	cfg := &Cfg{
		DBPath:            "./test.db",
		SourcesFile:       "./feeds.yml",
		SchedulerInterval: 900,
		FetchTimeout:      30,
		Port:              "8080",
		BaseUrl:           "https://rss.example.com",
		AppTitle:          "Personalized RSS",
		AppLink:           "https://example.com",
		MaxLimit:          500,
		CacheMaxAge:       60,
		TouchOn304:        true,
		UserAgent:         "Test Agent",
		Timezone:          "UTC",
		Debug:             true,
		Version:           "test-version",
	}

	if cfg.DBPath != "./test.db" {
		t.Errorf("Expected DB path './test.db', got '%s'", cfg.DBPath)
	}
	if cfg.SourcesFile != "./feeds.yml" {
		t.Errorf("Expected sources file './feeds.yml', got '%s'", cfg.SourcesFile)
	}
	if cfg.SchedulerInterval != 900 {
		t.Errorf("Expected scheduler interval 900, got %d", cfg.SchedulerInterval)
	}
	if cfg.Port != "8080" {
		t.Errorf("Expected port '8080', got '%s'", cfg.Port)
	}
	if cfg.BaseUrl != "https://rss.example.com" {
		t.Errorf("Expected base URL 'https://rss.example.com', got '%s'", cfg.BaseUrl)
	}
	if cfg.AppTitle != "Personalized RSS" {
		t.Errorf("Expected app title 'Personalized RSS', got '%s'", cfg.AppTitle)
	}
	if cfg.MaxLimit != 500 {
		t.Errorf("Expected max limit 500, got %d", cfg.MaxLimit)
	}
	if cfg.CacheMaxAge != 60 {
		t.Errorf("Expected cache max age 60, got %d", cfg.CacheMaxAge)
	}
	if !cfg.TouchOn304 {
		t.Error("Expected touch-on-304 to be enabled")
	}
	if cfg.UserAgent != "Test Agent" {
		t.Errorf("Expected user agent 'Test Agent', got '%s'", cfg.UserAgent)
	}
	if !cfg.Debug {
		t.Error("Expected debug to be enabled")
	}
	if cfg.Version != "test-version" {
		t.Errorf("Expected version 'test-version', got '%s'", cfg.Version)
	}
}
