// Package ingestion receives menu text, chunks it, embeds the chunks and
// stores them for retrieval.
package ingestion

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/saborlabs/saborai/ai/embedding"
	"github.com/saborlabs/saborai/store"
)

// MenuID derives the stable menu identifier from its name.
func MenuID(menuName string) string {
	sum := md5.Sum([]byte(menuName))
	return hex.EncodeToString(sum[:])[:8]
}

// Result summarizes one ingestion run.
type Result struct {
	MenuName          string `json:"menu_name"`
	MenuID            string `json:"menu_id"`
	TotalChunks       int    `json:"total_chunks"`
	SkippedDuplicates int    `json:"skipped_duplicates"`
}

// Pipeline chunks, embeds and persists menus.
type Pipeline struct {
	store    *store.Store
	embedder embedding.Service
	chunker  *Chunker
}

// NewPipeline creates an ingestion pipeline.
func NewPipeline(st *store.Store, embedder embedding.Service, chunkSize, chunkOverlap int) *Pipeline {
	return &Pipeline{
		store:    st,
		embedder: embedder,
		chunker:  NewChunker(chunkSize, chunkOverlap),
	}
}

// IngestText chunks, deduplicates, embeds and persists raw menu text.
func (p *Pipeline) IngestText(ctx context.Context, menuName, text string) (*Result, error) {
	if strings.TrimSpace(menuName) == "" {
		return nil, fmt.Errorf("menu name is required")
	}

	raw := p.chunker.Split(text)
	if len(raw) == 0 {
		return nil, fmt.Errorf("menu %q has no ingestible content", menuName)
	}

	// Deduplicate by content hash, preserving first occurrence order.
	seen := map[string]bool{}
	contents := make([]string, 0, len(raw))
	hashes := make([]string, 0, len(raw))
	for _, chunk := range raw {
		sum := md5.Sum([]byte(chunk))
		h := hex.EncodeToString(sum[:])
		if seen[h] {
			continue
		}
		seen[h] = true
		contents = append(contents, chunk)
		hashes = append(hashes, h)
	}

	slog.Info("ingestion: chunked menu",
		"menu_name", menuName,
		"raw_chunks", len(raw),
		"unique_chunks", len(contents))

	vectors, err := p.embedder.EmbedBatch(ctx, contents)
	if err != nil {
		return nil, fmt.Errorf("embed menu chunks: %w", err)
	}
	if len(vectors) != len(contents) {
		return nil, fmt.Errorf("embedding count mismatch: %d chunks, %d vectors", len(contents), len(vectors))
	}

	menuID := MenuID(menuName)
	now := time.Now().Unix()
	for i, content := range contents {
		_, err := p.store.UpsertMenuChunk(ctx, &store.MenuChunk{
			MenuID:      menuID,
			MenuName:    menuName,
			Position:    i,
			Content:     content,
			ContentHash: hashes[i],
			Embedding:   vectors[i],
			CreatedTs:   now,
		})
		if err != nil {
			return nil, fmt.Errorf("store chunk %d: %w", i, err)
		}
	}

	return &Result{
		MenuName:          menuName,
		MenuID:            menuID,
		TotalChunks:       len(contents),
		SkippedDuplicates: len(raw) - len(contents),
	}, nil
}

// IngestFile reads a .txt or .md menu file and ingests it.
func (p *Pipeline) IngestFile(ctx context.Context, path, menuName string) (*Result, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".txt" && ext != ".md" {
		return nil, fmt.Errorf("file type %q not supported (use .txt or .md)", ext)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read menu file: %w", err)
	}
	return p.IngestText(ctx, menuName, string(data))
}
