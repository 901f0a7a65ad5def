// Package store provides database access to all raw objects.
package store

import (
	"context"

	"github.com/saborlabs/saborai/internal/profile"
)

// Driver is the storage backend interface implemented per database.
type Driver interface {
	Migrate(ctx context.Context) error

	UpsertMenuChunk(ctx context.Context, chunk *MenuChunk) (*MenuChunk, error)
	ListMenuChunks(ctx context.Context, find *FindMenuChunk) ([]*MenuChunk, error)
	SearchSimilarChunks(ctx context.Context, search *SimilarChunkSearch) ([]*ScoredChunk, error)
	ListMenus(ctx context.Context) ([]*Menu, error)
	DeleteMenu(ctx context.Context, menuID string) error

	Close() error
}

// Store provides database access to all raw objects.
type Store struct {
	profile *profile.Profile
	driver  Driver
}

// New creates a new instance of Store.
func New(driver Driver, profile *profile.Profile) *Store {
	return &Store{
		driver:  driver,
		profile: profile,
	}
}

func (s *Store) Migrate(ctx context.Context) error {
	return s.driver.Migrate(ctx)
}

func (s *Store) Close() error {
	return s.driver.Close()
}

func (s *Store) UpsertMenuChunk(ctx context.Context, chunk *MenuChunk) (*MenuChunk, error) {
	return s.driver.UpsertMenuChunk(ctx, chunk)
}

func (s *Store) ListMenuChunks(ctx context.Context, find *FindMenuChunk) ([]*MenuChunk, error) {
	return s.driver.ListMenuChunks(ctx, find)
}

func (s *Store) SearchSimilarChunks(ctx context.Context, search *SimilarChunkSearch) ([]*ScoredChunk, error) {
	return s.driver.SearchSimilarChunks(ctx, search)
}

func (s *Store) ListMenus(ctx context.Context) ([]*Menu, error) {
	return s.driver.ListMenus(ctx)
}

func (s *Store) DeleteMenu(ctx context.Context, menuID string) error {
	return s.driver.DeleteMenu(ctx, menuID)
}
