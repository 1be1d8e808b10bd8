package cfg

import (
	"cmp"
	"fmt"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Database configuration
	DBPath string `long:"db-path" env:"DB_PATH" default:"./feedgate.db" description:"Path to the SQLite database file"`

	// Ingestion configuration
	SourcesFile       string `long:"sources-file" env:"SOURCES_FILE" default:"./feeds.yml" description:"YAML file listing feed sources"`
	SchedulerInterval int    `long:"scheduler-interval" env:"SCHEDULER_INTERVAL" default:"900" description:"Ingestion sweep interval in seconds"`
	FetchTimeout      int    `long:"fetch-timeout" env:"FETCH_TIMEOUT" default:"30" description:"Per-feed HTTP fetch timeout in seconds"`

	// Serving configuration
	Port         string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	BaseUrl      string `long:"base-url" env:"BASE_URL" description:"Public base URL for the service (e.g., https://rss.example.com)"`
	AppTitle     string `long:"app-title" env:"APP_TITLE" default:"Personalized RSS" description:"Base title for generated feeds"`
	AppLink      string `long:"app-link" env:"APP_LINK" default:"https://example.com" description:"Alternate link advertised in generated feeds"`
	MaxLimit     int    `long:"max-limit" env:"RSS_MAX_LIMIT" default:"500" description:"Global ceiling for the per-request item limit"`
	CacheMaxAge  int    `long:"cache-max-age" env:"CACHE_MAX_AGE" default:"60" description:"Cache-Control max-age in seconds for served feeds"`
	NoTouchOn304 bool   `long:"no-touch-on-304" env:"NO_TOUCH_ON_304" description:"Skip updating token last-used time on 304 responses"`

	// Token provisioning
	CreateToken   string `long:"create-token" env:"CREATE_TOKEN" description:"Create an access token with the given name and exit"`
	TokenCategory string `long:"token-category" env:"TOKEN_CATEGORY" description:"Category scope for --create-token (empty = all)"`
	TokenFeed     string `long:"token-feed" env:"TOKEN_FEED" description:"Feed scope for --create-token (empty = all)"`
	TokenLimit    int    `long:"token-limit" env:"TOKEN_LIMIT" default:"100" description:"Default item limit for --create-token"`
	TokenAdmin    bool   `long:"token-admin" env:"TOKEN_ADMIN" description:"Grant admin rights to --create-token"`

	// Application metadata
	UserAgent string `long:"user-agent" env:"USER_AGENT" default:"FeedGate/1.0" description:"User agent string for HTTP requests"`
	Timezone  string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, America/New_York)"`
	Debug     bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

func Load() (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		DBPath:            raw.DBPath,
		SourcesFile:       raw.SourcesFile,
		SchedulerInterval: raw.SchedulerInterval,
		FetchTimeout:      raw.FetchTimeout,
		Port:              raw.Port,
		BaseUrl:           raw.BaseUrl,
		AppTitle:          raw.AppTitle,
		AppLink:           raw.AppLink,
		MaxLimit:          raw.MaxLimit,
		CacheMaxAge:       raw.CacheMaxAge,
		TouchOn304:        !raw.NoTouchOn304,
		CreateToken:       raw.CreateToken,
		TokenCategory:     raw.TokenCategory,
		TokenFeed:         raw.TokenFeed,
		TokenLimit:        raw.TokenLimit,
		TokenAdmin:        raw.TokenAdmin,
		UserAgent:         raw.UserAgent,
		Timezone:          raw.Timezone,
		Debug:             raw.Debug,
		Version:           GetVersion(),
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Printf("Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
	}

	return cfg, nil
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err != nil {
			return err
		} else {
			time.Local = loc
		}
	}
	return nil
}
