package api

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"feedgate/app/database"
)

// scopeKey describes the resource identity of a request: a change to the
// category filter, feed filter or limit must yield a different validator.
func scopeKey(category, feedID string, limit int) string {
	if category == "" {
		category = "*"
	}
	if feedID == "" {
		feedID = "*"
	}
	return fmt.Sprintf("cat=%s|feed=%s|limit=%d", category, feedID, limit)
}

// buildETag derives the opaque strong validator for a scope's current state.
// Stable for a fixed data set; any change to the max publish time, max run
// id, item count or head item hash changes the value.
func buildETag(scope string, agg database.ScopeAggregate) string {
	published := "0"
	if agg.MaxPublishedAt != nil {
		published = agg.MaxPublishedAt.UTC().Format(time.RFC3339)
	}

	maxHash := agg.MaxHash
	if maxHash == "" {
		maxHash = "0"
	}

	parts := []string{
		scope,
		strconv.FormatInt(agg.MaxRunID, 10),
		published,
		strconv.Itoa(agg.TotalItems),
		maxHash,
	}

	sum := sha1.Sum([]byte(strings.Join(parts, "|")))
	return `"` + hex.EncodeToString(sum[:]) + `"`
}

// lastModifiedValue formats the scope's max publish time per HTTP date
// conventions, falling back to now for an empty scope.
func lastModifiedValue(t *time.Time, now time.Time) string {
	if t == nil {
		return now.UTC().Format(http.TimeFormat)
	}
	return t.UTC().Format(http.TimeFormat)
}

// feedTitle composes the channel title from the token's scope.
func feedTitle(base, category, feedID string) string {
	if feedID != "" {
		return fmt.Sprintf("%s · feed:%s", base, feedID)
	}
	if category != "" {
		return fmt.Sprintf("%s · category:%s", base, category)
	}
	return base
}
