package sqlite

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/saborlabs/saborai/store"
)

// UpsertMenuChunk inserts or updates a menu chunk with its embedding.
func (d *DB) UpsertMenuChunk(ctx context.Context, chunk *store.MenuChunk) (*store.MenuChunk, error) {
	stmt := `
		INSERT INTO menu_chunk (menu_id, menu_name, position, content, content_hash, embedding, created_ts)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (menu_id, content_hash)
		DO UPDATE SET
			position = excluded.position,
			embedding = excluded.embedding
		RETURNING id, created_ts
	`

	err := d.db.QueryRowContext(ctx, stmt,
		chunk.MenuID,
		chunk.MenuName,
		chunk.Position,
		chunk.Content,
		chunk.ContentHash,
		encodeVector(chunk.Embedding),
		chunk.CreatedTs,
	).Scan(&chunk.ID, &chunk.CreatedTs)
	if err != nil {
		return nil, errors.Wrap(err, "failed to upsert menu chunk")
	}

	return chunk, nil
}

// ListMenuChunks lists menu chunks matching the filter.
func (d *DB) ListMenuChunks(ctx context.Context, find *store.FindMenuChunk) ([]*store.MenuChunk, error) {
	where, args := []string{"1 = 1"}, []any{}

	if find.MenuID != nil {
		where, args = append(where, "menu_id = ?"), append(args, *find.MenuID)
	}
	if find.MenuName != nil {
		where, args = append(where, "menu_name = ?"), append(args, *find.MenuName)
	}

	query := `
		SELECT id, menu_id, menu_name, position, content, content_hash, embedding, created_ts
		FROM menu_chunk
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY menu_id, position`
	if find.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", find.Limit)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list menu chunks")
	}
	defer rows.Close()

	list := []*store.MenuChunk{}
	for rows.Next() {
		var chunk store.MenuChunk
		var blob []byte
		err := rows.Scan(
			&chunk.ID,
			&chunk.MenuID,
			&chunk.MenuName,
			&chunk.Position,
			&chunk.Content,
			&chunk.ContentHash,
			&blob,
			&chunk.CreatedTs,
		)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan menu chunk")
		}
		chunk.Embedding = decodeVector(blob)
		list = append(list, &chunk)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return list, nil
}

// SearchSimilarChunks loads candidate chunks and ranks them by cosine
// similarity in Go.
func (d *DB) SearchSimilarChunks(ctx context.Context, search *store.SimilarChunkSearch) ([]*store.ScoredChunk, error) {
	find := &store.FindMenuChunk{MenuID: search.MenuID}
	chunks, err := d.ListMenuChunks(ctx, find)
	if err != nil {
		return nil, err
	}

	scored := make([]*store.ScoredChunk, 0, len(chunks))
	for _, chunk := range chunks {
		if len(chunk.Embedding) == 0 {
			continue
		}
		scored = append(scored, &store.ScoredChunk{
			Chunk: chunk,
			Score: cosineSimilarity(search.Vector, chunk.Embedding),
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	limit := search.Limit
	if limit <= 0 {
		limit = 6
	}
	if len(scored) > limit {
		scored = scored[:limit]
	}
	return scored, nil
}

// ListMenus lists ingested menus with chunk counts.
func (d *DB) ListMenus(ctx context.Context) ([]*store.Menu, error) {
	query := `
		SELECT menu_id, menu_name, COUNT(*) AS chunk_count
		FROM menu_chunk
		GROUP BY menu_id, menu_name
		ORDER BY menu_name`

	rows, err := d.db.QueryContext(ctx, query)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list menus")
	}
	defer rows.Close()

	list := []*store.Menu{}
	for rows.Next() {
		var menu store.Menu
		if err := rows.Scan(&menu.MenuID, &menu.MenuName, &menu.ChunkCount); err != nil {
			return nil, errors.Wrap(err, "failed to scan menu")
		}
		list = append(list, &menu)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return list, nil
}

// DeleteMenu removes all chunks of a menu.
func (d *DB) DeleteMenu(ctx context.Context, menuID string) error {
	result, err := d.db.ExecContext(ctx, `DELETE FROM menu_chunk WHERE menu_id = ?`, menuID)
	if err != nil {
		return errors.Wrap(err, "failed to delete menu")
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return errors.Wrapf(store.ErrMenuNotFound, "menu %s", menuID)
	}
	return nil
}

func encodeVector(vector []float32) []byte {
	if len(vector) == 0 {
		return nil
	}
	buf := make([]byte, 4*len(vector))
	for i, v := range vector {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

func decodeVector(blob []byte) []float32 {
	if len(blob) < 4 {
		return nil
	}
	vector := make([]float32, len(blob)/4)
	for i := range vector {
		vector[i] = math.Float32frombits(binary.LittleEndian.Uint32(blob[i*4:]))
	}
	return vector
}

func cosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}
