package model

import (
	"bytes"
	"encoding/json"
	"time"
)

// SavedArticle is a snapshot of an article taken when it was saved.
// It is immutable once stored; (URL, CollectionName) identifies it.
type SavedArticle struct {
	URL            string    `json:"url"`
	Title          string    `json:"title"`
	Description    *string   `json:"description"`
	URLToImage     *string   `json:"urlToImage"`
	Source         string    `json:"source"`
	PublishedAt    time.Time `json:"publishedAt"`
	SavedAt        time.Time `json:"savedAt"`
	CollectionName string    `json:"collectionName"`
}

// ShelfEntry is one element of a user's stored article array.
// Article is nil when Raw could not be decoded.
type ShelfEntry struct {
	Raw     string
	Article *SavedArticle
}

// ParseShelfEntry decodes a stored document. Decode failures are not errors:
// the entry is returned with a nil Article so the caller can apply its policy.
func ParseShelfEntry(raw string) ShelfEntry {
	e := ShelfEntry{Raw: raw}
	trimmed := bytes.TrimSpace([]byte(raw))
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return e
	}
	var a SavedArticle
	if err := json.Unmarshal(trimmed, &a); err != nil {
		return e
	}
	e.Article = &a
	return e
}

// Shelf is a user's saved-article document array together with the row
// version it was read at.
//
// Corrupt entries follow an asymmetric policy: they are invisible to
// Collections and to the duplicate check in Add, but the removal methods
// always keep them, so deleting one article never destroys unrelated data.
type Shelf struct {
	Entries []ShelfEntry
	Version int64 // 0 when the row does not exist yet
}

// NewShelf parses raw stored documents at version ver.
func NewShelf(raw []string, ver int64) *Shelf {
	s := &Shelf{Entries: make([]ShelfEntry, 0, len(raw)), Version: ver}
	for _, r := range raw {
		s.Entries = append(s.Entries, ParseShelfEntry(r))
	}
	return s
}

// Exists reports whether the shelf was loaded from a stored row.
func (s *Shelf) Exists() bool { return s.Version > 0 }

// Raw returns the documents in storage order.
func (s *Shelf) Raw() []string {
	out := make([]string, 0, len(s.Entries))
	for _, e := range s.Entries {
		out = append(out, e.Raw)
	}
	return out
}

// Corrupt returns the number of entries that failed to decode.
func (s *Shelf) Corrupt() int {
	n := 0
	for _, e := range s.Entries {
		if e.Article == nil {
			n++
		}
	}
	return n
}

// Contains reports whether a decodable entry with the given pair exists.
func (s *Shelf) Contains(url, collection string) bool {
	for _, e := range s.Entries {
		if e.Article != nil && e.Article.URL == url && e.Article.CollectionName == collection {
			return true
		}
	}
	return false
}

// Add appends a, unless (a.URL, a.CollectionName) is already present.
// It returns false on duplicates.
func (s *Shelf) Add(a SavedArticle) (bool, error) {
	if s.Contains(a.URL, a.CollectionName) {
		return false, nil
	}
	b, err := json.Marshal(a)
	if err != nil {
		return false, err
	}
	cp := a
	s.Entries = append(s.Entries, ShelfEntry{Raw: string(b), Article: &cp})
	return true, nil
}

// RemoveArticle drops entries matching both url and collection and returns
// how many were removed.
func (s *Shelf) RemoveArticle(url, collection string) int {
	return s.removeWhere(func(a *SavedArticle) bool {
		return a.URL == url && a.CollectionName == collection
	})
}

// RemoveCollection drops every entry of the collection and returns how many
// were removed.
func (s *Shelf) RemoveCollection(collection string) int {
	return s.removeWhere(func(a *SavedArticle) bool {
		return a.CollectionName == collection
	})
}

func (s *Shelf) removeWhere(match func(*SavedArticle) bool) int {
	kept := s.Entries[:0]
	removed := 0
	for _, e := range s.Entries {
		if e.Article != nil && match(e.Article) {
			removed++
			continue
		}
		kept = append(kept, e)
	}
	s.Entries = kept
	return removed
}

// Collections groups decodable entries by collection name. Groups appear in
// first-encounter order; articles keep storage order within a group.
func (s *Shelf) Collections() Collections {
	idx := map[string]int{}
	out := Collections{}
	for _, e := range s.Entries {
		if e.Article == nil {
			continue
		}
		name := e.Article.CollectionName
		i, ok := idx[name]
		if !ok {
			i = len(out)
			idx[name] = i
			out = append(out, Collection{Name: name})
		}
		out[i].Articles = append(out[i].Articles, *e.Article)
	}
	return out
}

// Collection is a derived grouping of saved articles sharing a name.
type Collection struct {
	Name     string
	Articles []SavedArticle
}

// Collections is an ordered grouping; each article appears in exactly one group.
type Collections []Collection

// Names returns collection names in order.
func (cs Collections) Names() []string {
	out := make([]string, 0, len(cs))
	for _, c := range cs {
		out = append(out, c.Name)
	}
	return out
}

// TotalArticles counts articles across all collections.
func (cs Collections) TotalArticles() int {
	n := 0
	for _, c := range cs {
		n += len(c.Articles)
	}
	return n
}

// ContainsURL reports whether any collection holds the URL.
func (cs Collections) ContainsURL(url string) bool {
	for _, c := range cs {
		for _, a := range c.Articles {
			if a.URL == url {
				return true
			}
		}
	}
	return false
}
