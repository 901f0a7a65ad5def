// Package rag provides passage retrieval over ingested menus for the
// specialist agents.
package rag

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"github.com/saborlabs/saborai/ai/embedding"
	"github.com/saborlabs/saborai/ingestion"
	"github.com/saborlabs/saborai/store"
)

// Passage is one retrieved piece of menu context.
type Passage struct {
	Content  string
	MenuName string
	Score    float32
}

// Retriever returns the most relevant passages for a query, optionally
// scoped to a single menu by name.
type Retriever interface {
	Retrieve(ctx context.Context, query, menuName string) ([]Passage, error)
}

// Config controls retrieval depth and caching.
type Config struct {
	// K is the number of passages for an unscoped query.
	K int
	// KScoped is the number of passages when a single menu is scoped; higher
	// so a whole menu fits in context.
	KScoped int

	CacheCapacity int
	CacheTTL      time.Duration
}

type storeRetriever struct {
	store    *store.Store
	embedder embedding.Service
	config   Config
	cache    *lruCache[string, []Passage]
}

// NewRetriever creates a store-backed retriever.
func NewRetriever(st *store.Store, embedder embedding.Service, config Config) Retriever {
	if config.K <= 0 {
		config.K = 6
	}
	if config.KScoped < config.K {
		config.KScoped = 50
	}
	return &storeRetriever{
		store:    st,
		embedder: embedder,
		config:   config,
		cache:    newLRUCache[string, []Passage](config.CacheCapacity, config.CacheTTL),
	}
}

func (r *storeRetriever) Retrieve(ctx context.Context, query, menuName string) ([]Passage, error) {
	key := cacheKey(query, menuName)
	if passages, ok := r.cache.Get(key); ok {
		slog.Debug("rag: cache hit", "menu", menuName)
		return passages, nil
	}

	vector, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	search := &store.SimilarChunkSearch{
		Vector: vector,
		Limit:  r.config.K,
	}
	if menuName != "" {
		menuID := ingestion.MenuID(menuName)
		search.MenuID = &menuID
		search.Limit = r.config.KScoped
	}

	hits, err := r.store.SearchSimilarChunks(ctx, search)
	if err != nil {
		return nil, fmt.Errorf("search menu chunks: %w", err)
	}

	passages := make([]Passage, 0, len(hits))
	for _, hit := range hits {
		passages = append(passages, Passage{
			Content:  hit.Chunk.Content,
			MenuName: hit.Chunk.MenuName,
			Score:    hit.Score,
		})
	}

	slog.Debug("rag: retrieved passages",
		"menu", menuName,
		"count", len(passages))

	r.cache.Set(key, passages)
	return passages, nil
}

func cacheKey(query, menuName string) string {
	sum := sha256.Sum256([]byte(query + "\x00" + menuName))
	return hex.EncodeToString(sum[:])
}
