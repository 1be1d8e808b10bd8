package main

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"feedgate/app/api"
	"feedgate/app/cfg"
	"feedgate/app/database"
	"feedgate/app/feed"
	"feedgate/app/ingest"
	"feedgate/app/tasks"
)

func main() {
	appCfg, err := cfg.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if appCfg == nil {
		// Help was shown, exit gracefully
		return
	}

	setupLogger(appCfg.Debug)

	slog.Info("Starting FeedGate", "version", appCfg.Version)

	db, err := database.NewConnection(appCfg.DBPath)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("Database ready", "path", appCfg.DBPath, "schema_version", version, "dirty", dirty)

	feedRepo := database.NewFeedRepository(db)
	itemRepo := database.NewItemRepository(db)
	runRepo := database.NewRunRepository(db)
	tokenRepo := database.NewTokenRepository(db)

	if appCfg.CreateToken != "" {
		if err := provisionToken(appCfg, tokenRepo); err != nil {
			slog.Error("Failed to create access token", "error", err)
			os.Exit(1)
		}
		return
	}

	sources, err := feed.LoadSources(appCfg.SourcesFile)
	if err != nil {
		slog.Warn("Failed to load feed sources, continuing without registration sync",
			"file", appCfg.SourcesFile, "error", err)
	} else {
		slog.Info("Loaded feed sources", "file", appCfg.SourcesFile, "count", len(sources))
	}

	fetcher := feed.NewFetcher(appCfg.UserAgent, time.Duration(appCfg.FetchTimeout)*time.Second)
	engine := ingest.NewEngine(fetcher, feedRepo, itemRepo, runRepo)

	scheduler := tasks.NewScheduler(engine, sources, feedRepo,
		time.Duration(appCfg.SchedulerInterval)*time.Second)
	scheduler.Start()
	defer scheduler.Stop()

	handler := api.NewHandler(appCfg, feedRepo, itemRepo, runRepo, tokenRepo, engine, scheduler)
	server := api.NewServer(handler, tokenRepo)

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "port", appCfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig.String())
	case err := <-serverErrChan:
		slog.Error("Server error", "error", err)
	}

	slog.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	// Scheduler is stopped via defer
	slog.Info("Shutdown complete")
}

func setupLogger(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

// provisionToken creates one access token with the configured scope and
// prints it. Tokens are 192-bit random values, URL-safe, no padding.
func provisionToken(appCfg *cfg.Cfg, tokens database.TokenRepository) error {
	raw := make([]byte, 24)
	if _, err := rand.Read(raw); err != nil {
		return fmt.Errorf("failed to generate token: %w", err)
	}
	token := base64.RawURLEncoding.EncodeToString(raw)

	err := tokens.InsertToken(database.AccessToken{
		Token:        token,
		Name:         appCfg.CreateToken,
		Category:     appCfg.TokenCategory,
		FeedID:       appCfg.TokenFeed,
		LimitDefault: appCfg.TokenLimit,
		Enabled:      true,
		IsAdmin:      appCfg.TokenAdmin,
	})
	if err != nil {
		return err
	}

	fmt.Printf("Token created: %s\n", token)
	fmt.Printf("  name: %s  category: %q  feed: %q  limit: %d  admin: %t\n",
		appCfg.CreateToken, appCfg.TokenCategory, appCfg.TokenFeed,
		appCfg.TokenLimit, appCfg.TokenAdmin)

	return nil
}
