// Package convert maps HTTP JSON payloads to domain types and back.
package convert

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/and161185/newsreader/internal/model"
)

// --- Article payload (client -> server) ---

// Source accepts the news-search shape {"id":..,"name":..} or a bare string.
type Source string

// UnmarshalJSON implements json.Unmarshaler.
func (s *Source) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*s = ""
		return nil
	case len(b) > 0 && b[0] == '"':
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*s = Source(v)
		return nil
	}
	var obj struct {
		ID   *string `json:"id"`
		Name string  `json:"name"`
	}
	if err := json.Unmarshal(b, &obj); err != nil {
		return fmt.Errorf("source: %w", err)
	}
	*s = Source(obj.Name)
	return nil
}

// ArticlePayload is an article as returned by the news-search API.
// Author and content are accepted and dropped.
type ArticlePayload struct {
	URL         string  `json:"url" validate:"required,url"`
	Title       string  `json:"title" validate:"required"`
	Description *string `json:"description"`
	URLToImage  *string `json:"urlToImage"`
	Source      Source  `json:"source"`
	PublishedAt string  `json:"publishedAt"`
	Author      *string `json:"author,omitempty"`
	Content     *string `json:"content,omitempty"`
}

// ToSavedArticle snapshots the payload. SavedAt and CollectionName are left
// for the service to stamp.
func ToSavedArticle(p ArticlePayload) (model.SavedArticle, error) {
	a := model.SavedArticle{
		URL:         p.URL,
		Title:       p.Title,
		Description: p.Description,
		URLToImage:  p.URLToImage,
		Source:      string(p.Source),
	}
	if p.PublishedAt != "" {
		t, err := time.Parse(time.RFC3339, p.PublishedAt)
		if err != nil {
			return model.SavedArticle{}, fmt.Errorf("publishedAt: %w", err)
		}
		a.PublishedAt = t.UTC()
	}
	return a, nil
}

// --- Collections (server -> client) ---

// CollectionDTO is one named group of saved articles.
type CollectionDTO struct {
	CollectionName string               `json:"collectionName"`
	Articles       []model.SavedArticle `json:"articles"`
}

// ToCollections never returns nil so the response always carries an array.
func ToCollections(cs model.Collections) []CollectionDTO {
	out := make([]CollectionDTO, 0, len(cs))
	for _, c := range cs {
		out = append(out, CollectionDTO{CollectionName: c.Name, Articles: c.Articles})
	}
	return out
}

// --- Users ---

// UserDTO is the joined per-user view.
type UserDTO struct {
	ID              uuid.UUID `json:"id"`
	NewsAPIKey      string    `json:"newsApiKey"`
	PreferredTopics []string  `json:"preferredTopics"`
	ArticlesSeen    []string  `json:"articlesSeen"`
	TotalClicks     int64     `json:"totalClicks"`
}

// ToUserDTO converts joined user data.
func ToUserDTO(d model.UserData) UserDTO {
	return UserDTO{
		ID:              d.ID,
		NewsAPIKey:      d.NewsAPIKey,
		PreferredTopics: nonNil(d.PreferredTopics),
		ArticlesSeen:    nonNil(d.ArticlesSeen),
		TotalClicks:     d.TotalClicks,
	}
}

// UserStatsDTO is the per-user library and activity summary.
type UserStatsDTO struct {
	TotalSaved        int   `json:"totalSaved"`
	TotalCollections  int   `json:"totalCollections"`
	TotalClicks       int64 `json:"totalClicks"`
	ArticlesSeenCount int   `json:"articlesSeenCount"`
}

func ToUserStatsDTO(s model.UserStats) UserStatsDTO {
	return UserStatsDTO(s)
}

// TrackingStatsDTO carries seen/click counters.
type TrackingStatsDTO struct {
	Seen   int   `json:"seen"`
	Clicks int64 `json:"clicks"`
}

func ToTrackingStatsDTO(s model.TrackingStats) TrackingStatsDTO {
	return TrackingStatsDTO(s)
}

// --- Admin dashboard ---

// UserSummaryDTO is one dashboard row; APIKey is already masked.
type UserSummaryDTO struct {
	ID             uuid.UUID `json:"id"`
	APIKey         string    `json:"apiKey"`
	CreatedAt      time.Time `json:"createdAt"`
	Clicks         int64     `json:"clicks"`
	ArticlesViewed int       `json:"articlesViewed"`
	Topics         []string  `json:"topics"`
}

// TotalsDTO sums the per-user rows.
type TotalsDTO struct {
	TotalUsers          int   `json:"totalUsers"`
	TotalClicks         int64 `json:"totalClicks"`
	TotalArticlesViewed int   `json:"totalArticlesViewed"`
}

// TopArticleDTO is a ranked URL.
type TopArticleDTO struct {
	URL       string `json:"url"`
	ViewCount int    `json:"viewCount"`
}

// DashboardDTO is the admin response body.
type DashboardDTO struct {
	Users       []UserSummaryDTO `json:"users"`
	Stats       TotalsDTO        `json:"stats"`
	TopArticles []TopArticleDTO  `json:"topArticles"`
}

// ToDashboardDTO converts an aggregate; all slices are non-nil.
func ToDashboardDTO(d model.Dashboard) DashboardDTO {
	out := DashboardDTO{
		Users: make([]UserSummaryDTO, 0, len(d.Users)),
		Stats: TotalsDTO{
			TotalUsers:          d.Totals.Users,
			TotalClicks:         d.Totals.Clicks,
			TotalArticlesViewed: d.Totals.ArticlesViewed,
		},
		TopArticles: make([]TopArticleDTO, 0, len(d.TopArticles)),
	}
	for _, u := range d.Users {
		out.Users = append(out.Users, UserSummaryDTO{
			ID:             u.ID,
			APIKey:         u.MaskedKey,
			CreatedAt:      u.CreatedAt,
			Clicks:         u.Clicks,
			ArticlesViewed: u.ArticlesViewed,
			Topics:         nonNil(u.Topics),
		})
	}
	for _, a := range d.TopArticles {
		out.TopArticles = append(out.TopArticles, TopArticleDTO{URL: a.URL, ViewCount: a.Count})
	}
	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
