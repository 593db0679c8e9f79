// Package repository defines storage interfaces implemented by concrete backends.
package repository

import (
	"context"

	"github.com/and161185/newsreader/internal/model"
	"github.com/gofrs/uuid/v5"
)

// UserRepository provides access to users and their bootstrap rows.
type UserRepository interface {
	// Create inserts a new user.
	Create(ctx context.Context, u *model.User) error
	// GetByID loads a user by ID.
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	// GetByAPIKey loads a user by exact credential match.
	GetByAPIKey(ctx context.Context, apiKey string) (*model.User, error)
	// EnsureDependents creates empty topics and tracking rows if missing
	// and marks the user initialized. Safe to call repeatedly.
	EnsureDependents(ctx context.Context, id uuid.UUID) error
	// List returns all users, newest first.
	List(ctx context.Context) ([]model.User, error)
}

// TopicRepository stores preferred topics.
type TopicRepository interface {
	// Get returns the topics row for a user.
	Get(ctx context.Context, id uuid.UUID) (*model.PreferredTopics, error)
	// Replace overwrites the topic list, creating the row if absent.
	Replace(ctx context.Context, id uuid.UUID, topics []string) error
	// List returns every topics row.
	List(ctx context.Context) ([]model.PreferredTopics, error)
}
