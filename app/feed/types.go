package feed

import (
	"time"
)

// Entry is a normalized feed entry extracted from a fetched document.
type Entry struct {
	ContentHash string // sha1 of the link, the dedup identity
	UID         string // feed-native id or guid, may be empty
	Title       string
	Link        string
	Summary     string
	PublishedAt time.Time
	// HasRealPublished is false when the source carried no structured
	// timestamp and PublishedAt was synthesized at fetch time.
	HasRealPublished bool
}

// FetchResult is the outcome of one conditional feed retrieval.
type FetchResult struct {
	Status        int    // HTTP status, 0 when no response was obtained
	ETag          string // refreshed validator, empty if the server sent none
	LastModified  string // refreshed validator, empty if the server sent none
	FeedUpdatedAt *time.Time
	Entries       []Entry
}

// Source is a feed registration loaded from the sources file.
type Source struct {
	ID       string
	URL      string
	Category string
	Enabled  bool
}
