package store

import "github.com/pkg/errors"

// ErrMenuNotFound is returned when a menu id matches no stored chunks.
var ErrMenuNotFound = errors.New("menu not found")

// MenuChunk is one embedded passage of an ingested menu.
type MenuChunk struct {
	ID          int32
	MenuID      string // md5(menu_name)[:8]
	MenuName    string
	Position    int
	Content     string
	ContentHash string // md5 of Content, dedupe key within a menu
	Embedding   []float32
	CreatedTs   int64
}

// FindMenuChunk is the filter for listing chunks.
type FindMenuChunk struct {
	MenuID   *string
	MenuName *string
	Limit    int
}

// SimilarChunkSearch describes a vector similarity search.
type SimilarChunkSearch struct {
	Vector []float32
	Limit  int
	// MenuID narrows the search to a single menu when set.
	MenuID *string
}

// ScoredChunk is a similarity search hit. Score is cosine similarity in [-1, 1].
type ScoredChunk struct {
	Chunk *MenuChunk
	Score float32
}

// Menu summarizes one ingested menu.
type Menu struct {
	MenuID     string `json:"menu_id"`
	MenuName   string `json:"menu_name"`
	ChunkCount int    `json:"chunk_count"`
}
