package feed

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"
)

// Fetcher performs conditional feed retrievals and normalizes the result.
type Fetcher struct {
	client    *http.Client
	parser    *gofeed.Parser
	userAgent string
	timeout   time.Duration
	now       func() time.Time
}

func NewFetcher(userAgent string, timeout time.Duration) *Fetcher {
	return &Fetcher{
		client:    &http.Client{},
		parser:    gofeed.NewParser(),
		userAgent: userAgent,
		timeout:   timeout,
		now:       time.Now,
	}
}

// Run fetches url with the stored etag/last-modified validators attached. A
// 304 comes back as a status-only result; otherwise the body is parsed and
// normalized even when the status is outside the success range, since error
// statuses sometimes carry usable content.
func (f *Fetcher) Run(ctx context.Context, url, etag, lastModified string) (*FetchResult, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", f.userAgent)
	if etag != "" {
		req.Header.Set("If-None-Match", etag)
	}
	if lastModified != "" {
		req.Header.Set("If-Modified-Since", lastModified)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}
	defer resp.Body.Close()

	result := &FetchResult{
		Status:       resp.StatusCode,
		ETag:         resp.Header.Get("ETag"),
		LastModified: resp.Header.Get("Last-Modified"),
	}

	if resp.StatusCode == http.StatusNotModified {
		return result, nil
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return result, fmt.Errorf("failed to read response body: %w", err)
	}

	parsed, err := f.parser.Parse(bytes.NewReader(data))
	if err != nil {
		return result, fmt.Errorf("failed to parse feed: %w", err)
	}

	if ts := feedTimestamp(parsed); ts != nil {
		utc := ts.UTC()
		result.FeedUpdatedAt = &utc
	}

	result.Entries = make([]Entry, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		result.Entries = append(result.Entries, f.normalizeEntry(item))
	}

	return result, nil
}

// feedTimestamp extracts the document-level modification time, preferring the
// feed's updated timestamp over its published one.
func feedTimestamp(parsed *gofeed.Feed) *time.Time {
	if parsed.UpdatedParsed != nil {
		return parsed.UpdatedParsed
	}
	return parsed.PublishedParsed
}

func (f *Fetcher) normalizeEntry(item *gofeed.Item) Entry {
	entry := Entry{
		ContentHash: HashLink(item.Link),
		UID:         item.GUID,
		Title:       item.Title,
		Link:        item.Link,
		Summary:     item.Description,
	}

	ts := item.PublishedParsed
	if ts == nil {
		ts = item.UpdatedParsed
	}

	if ts != nil {
		entry.PublishedAt = ts.UTC()
		entry.HasRealPublished = true
	} else {
		entry.PublishedAt = f.now().UTC()
	}

	return entry
}

// HashLink derives the stable dedup identity of an entry from its link. An
// empty link hashes deterministically like any other value.
func HashLink(link string) string {
	hash := sha1.Sum([]byte(link))
	return hex.EncodeToString(hash[:])
}
