package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"feedgate/app/cfg"
	"feedgate/app/database"
	"feedgate/app/feed"
	"feedgate/app/tasks"
)

func NewHandler(appCfg *cfg.Cfg, feeds database.FeedRepository,
	items database.ItemRepository, runs database.RunRepository,
	tokens database.TokenRepository, engine tasks.IngestRunner,
	scheduler tasks.TaskSchedulerInterface) *Handler {
	return &Handler{
		feeds:     feeds,
		items:     items,
		runs:      runs,
		tokens:    tokens,
		generator: feed.NewGenerator(),
		scheduler: scheduler,
		engine:    engine,
		cfg:       appCfg,
		now:       time.Now,
	}
}

// GetRSS serves the merged feed for an access token, honoring HTTP cache
// validation: matching If-None-Match or If-Modified-Since short-circuits to
// an empty 304.
func (h *Handler) GetRSS(c *gin.Context) {
	token := c.Param("token")

	t, err := h.tokens.GetToken(token)
	if err != nil {
		slog.Error("Database error", "operation", "get_token", "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}
	if t == nil || !t.Enabled {
		c.Status(http.StatusForbidden)
		return
	}

	limit := t.LimitDefault
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			limit = parsed
		}
	}
	limit = min(max(1, limit), h.cfg.MaxLimit)

	agg, err := h.items.AggregateScope(t.Category, t.FeedID)
	if err != nil {
		slog.Error("Database error", "operation", "aggregate_scope", "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	etag := buildETag(scopeKey(t.Category, t.FeedID, limit), agg)
	lastModified := lastModifiedValue(agg.MaxPublishedAt, h.now())

	if c.GetHeader("If-None-Match") == etag || c.GetHeader("If-Modified-Since") == lastModified {
		if h.cfg.TouchOn304 {
			h.touchToken(token)
		}
		c.Status(http.StatusNotModified)
		return
	}

	items, err := h.items.SelectScopeItems(t.Category, t.FeedID, limit)
	if err != nil {
		slog.Error("Database error", "operation", "select_scope_items", "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	meta := feed.ChannelMeta{
		Title:       feedTitle(h.cfg.AppTitle, t.Category, t.FeedID),
		Link:        h.cfg.AppLink,
		Description: "Merged items from ingested feeds",
		Generator:   fmt.Sprintf("FeedGate/%s", h.cfg.Version),
		LastBuildAt: agg.MaxPublishedAt,
	}

	rss, err := h.generator.Run(meta, items)
	if err != nil {
		slog.Error("RSS generation error", "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	h.touchToken(token)

	c.Header("Content-Type", "application/rss+xml; charset=utf-8")
	c.Header("ETag", etag)
	c.Header("Last-Modified", lastModified)
	c.Header("Cache-Control", fmt.Sprintf("public, max-age=%d", h.cfg.CacheMaxAge))
	c.Header("X-Feed-Items", strconv.Itoa(len(items)))

	c.String(http.StatusOK, rss)
}

func (h *Handler) touchToken(token string) {
	if err := h.tokens.TouchToken(token, h.now()); err != nil {
		slog.Warn("Failed to touch access token", "error", err)
	}
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"timestamp": h.now().UTC().Format(time.RFC3339),
	}

	if sourceCount, err := h.feeds.GetSourceCount(); err == nil {
		health["sources"] = sourceCount
	}

	if itemCount, err := h.items.GetItemCount(); err == nil {
		health["items"] = itemCount
	}

	c.JSON(http.StatusOK, health)
}

func (h *Handler) GetStats(c *gin.Context) {
	stats := map[string]interface{}{}

	if sourceCount, err := h.feeds.GetSourceCount(); err == nil {
		stats["sources"] = sourceCount
	}

	if itemCount, err := h.items.GetItemCount(); err == nil {
		stats["items"] = itemCount
	}

	if run, err := h.runs.GetLatestRun(); err == nil && run != nil {
		stats["latest_run"] = runInfo(run)
	}

	c.JSON(http.StatusOK, stats)
}

// APITriggerIngest enqueues an on-demand ingestion sweep.
func (h *Handler) APITriggerIngest(c *gin.Context) {
	task := tasks.NewIngestTask(h.engine)
	if err := h.scheduler.EnqueueTask(task); err != nil {
		slog.Error("Error enqueueing ingest task", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error":   "Failed to enqueue ingest task",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"queued": true,
		"task": gin.H{
			"id":   task.ID,
			"type": task.Type,
		},
	})
}

// APIGetLatestRun reports the most recent run record and its items.
func (h *Handler) APIGetLatestRun(c *gin.Context) {
	run, err := h.runs.GetLatestRun()
	if err != nil {
		slog.Error("Database error", "operation", "get_latest_run", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if run == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "No runs recorded yet"})
		return
	}

	items, err := h.items.ListItemsForRun(run.ID)
	if err != nil {
		slog.Error("Database error", "operation", "list_items_for_run", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	itemInfos := make([]gin.H, 0, len(items))
	for _, item := range items {
		itemInfos = append(itemInfos, gin.H{
			"feed_id":      item.FeedID,
			"title":        item.Title,
			"link":         item.Link,
			"published_at": item.PublishedAt.UTC().Format(time.RFC3339),
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"run":   runInfo(run),
		"items": itemInfos,
	})
}

func runInfo(run *database.Run) gin.H {
	info := gin.H{
		"id":                 run.ID,
		"status":             run.Status,
		"started_at":         run.StartedAt.UTC().Format(time.RFC3339),
		"feeds_attempted":    run.FeedsAttempted,
		"feeds_ok":           run.FeedsOK,
		"feeds_not_modified": run.FeedsNotModified,
		"feeds_failed":       run.FeedsFailed,
		"entries_seen":       run.EntriesSeen,
		"entries_inserted":   run.EntriesInserted,
	}
	if run.FinishedAt != nil {
		info["finished_at"] = run.FinishedAt.UTC().Format(time.RFC3339)
	}
	return info
}
