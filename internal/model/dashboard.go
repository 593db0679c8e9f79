package model

import (
	"sort"
	"time"

	"github.com/gofrs/uuid/v5"
)

const (
	maskPrefixLen = 8
	// TopArticlesLimit is the size of the most-viewed ranking.
	TopArticlesLimit = 10
)

// UserSummary is one admin dashboard row. The credential is always masked.
type UserSummary struct {
	ID             uuid.UUID
	MaskedKey      string
	CreatedAt      time.Time
	Clicks         int64
	ArticlesViewed int
	Topics         []string
}

// Totals sums per-user metrics.
type Totals struct {
	Users          int
	Clicks         int64
	ArticlesViewed int
}

// ArticleCount is a URL with its global occurrence count across seen-lists.
type ArticleCount struct {
	URL   string
	Count int
}

// Dashboard is a point-in-time aggregate over all users.
type Dashboard struct {
	Users       []UserSummary
	Totals      Totals
	TopArticles []ArticleCount
}

// MaskCredential returns a fixed-length prefix followed by an ellipsis.
func MaskCredential(key string) string {
	if key == "" {
		return "N/A"
	}
	r := []rune(key)
	if len(r) > maskPrefixLen {
		r = r[:maskPrefixLen]
	}
	return string(r) + "..."
}

// TopURLs counts every URL occurrence across the given seen-lists and returns
// the n most frequent. Ties keep first-encounter order.
func TopURLs(seenLists [][]string, n int) []ArticleCount {
	idx := map[string]int{}
	counts := []ArticleCount{}
	for _, list := range seenLists {
		for _, u := range list {
			i, ok := idx[u]
			if !ok {
				i = len(counts)
				idx[u] = i
				counts = append(counts, ArticleCount{URL: u})
			}
			counts[i].Count++
		}
	}
	sort.SliceStable(counts, func(a, b int) bool { return counts[a].Count > counts[b].Count })
	if n >= 0 && len(counts) > n {
		counts = counts[:n]
	}
	return counts
}
