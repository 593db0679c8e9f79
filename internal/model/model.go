// Package model defines domain entities used by services and repositories.
package model

import (
	"time"

	"github.com/gofrs/uuid/v5"
)

// User represents an identity created on first use of a news-search API key.
type User struct {
	ID            uuid.UUID  // PK
	NewsAPIKey    string     // unique, doubles as login credential
	CreatedAt     time.Time  // set by DB default
	InitializedAt *time.Time // nil until dependent rows are known to exist
}

// Initialized reports whether dependent rows were created for the user.
func (u User) Initialized() bool { return u.InitializedAt != nil }

// TrackingRecord is the per-user seen-list and click counter.
type TrackingRecord struct {
	UserID   uuid.UUID
	Articles []string // distinct URLs in first-click order
	Clicks   int64
}

// Stats derives counters from the record.
func (r TrackingRecord) Stats() TrackingStats {
	return TrackingStats{Seen: len(r.Articles), Clicks: r.Clicks}
}

// TrackingStats is the read-only view of a TrackingRecord.
type TrackingStats struct {
	Seen   int
	Clicks int64
}

// PreferredTopics is the per-user ordered topic list, replaced wholesale on update.
type PreferredTopics struct {
	UserID uuid.UUID
	Topics []string
}

// UserData joins a user with its topics and tracking rows.
type UserData struct {
	ID              uuid.UUID
	NewsAPIKey      string
	PreferredTopics []string
	ArticlesSeen    []string
	TotalClicks     int64
}

// UserStats summarises a single user's library and activity.
type UserStats struct {
	TotalSaved        int
	TotalCollections  int
	TotalClicks       int64
	ArticlesSeenCount int
}

// SaveResult reports the outcome of saving an article into a collection.
type SaveResult struct {
	AlreadyExists bool
}
