package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/pgvector/pgvector-go"
	"github.com/pkg/errors"

	"github.com/saborlabs/saborai/store"
)

// UpsertMenuChunk inserts or updates a menu chunk with its embedding.
func (d *DB) UpsertMenuChunk(ctx context.Context, chunk *store.MenuChunk) (*store.MenuChunk, error) {
	stmt := `
		INSERT INTO menu_chunk (menu_id, menu_name, position, content, content_hash, embedding, created_ts)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (menu_id, content_hash)
		DO UPDATE SET
			position = EXCLUDED.position,
			embedding = EXCLUDED.embedding
		RETURNING id, created_ts
	`

	vector := pgvector.NewVector(chunk.Embedding)
	err := d.db.QueryRowContext(ctx, stmt,
		chunk.MenuID,
		chunk.MenuName,
		chunk.Position,
		chunk.Content,
		chunk.ContentHash,
		vector,
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
		where, args = append(where, fmt.Sprintf("menu_id = $%d", len(args)+1)), append(args, *find.MenuID)
	}
	if find.MenuName != nil {
		where, args = append(where, fmt.Sprintf("menu_name = $%d", len(args)+1)), append(args, *find.MenuName)
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
		chunk, err := scanChunk(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, chunk)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return list, nil
}

// SearchSimilarChunks runs a cosine-distance similarity search, optionally
// filtered to a single menu.
func (d *DB) SearchSimilarChunks(ctx context.Context, search *store.SimilarChunkSearch) ([]*store.ScoredChunk, error) {
	where, args := []string{"embedding IS NOT NULL"}, []any{}

	if search.MenuID != nil {
		where, args = append(where, fmt.Sprintf("menu_id = $%d", len(args)+1)), append(args, *search.MenuID)
	}

	vector := pgvector.NewVector(search.Vector)
	args = append(args, vector)
	vectorArg := fmt.Sprintf("$%d", len(args))

	limit := search.Limit
	if limit <= 0 {
		limit = 6
	}

	// <=> is cosine distance; similarity = 1 - distance.
	query := `
		SELECT id, menu_id, menu_name, position, content, content_hash, embedding, created_ts,
			1 - (embedding <=> ` + vectorArg + `) AS score
		FROM menu_chunk
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY embedding <=> ` + vectorArg + `
		LIMIT ` + fmt.Sprintf("%d", limit)

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to search similar chunks")
	}
	defer rows.Close()

	list := []*store.ScoredChunk{}
	for rows.Next() {
		var chunk store.MenuChunk
		var vec pgvector.Vector
		var score float32
		err := rows.Scan(
			&chunk.ID,
			&chunk.MenuID,
			&chunk.MenuName,
			&chunk.Position,
			&chunk.Content,
			&chunk.ContentHash,
			&vec,
			&chunk.CreatedTs,
			&score,
		)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan scored chunk")
		}
		chunk.Embedding = vec.Slice()
		list = append(list, &store.ScoredChunk{Chunk: &chunk, Score: score})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return list, nil
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
	result, err := d.db.ExecContext(ctx, `DELETE FROM menu_chunk WHERE menu_id = $1`, menuID)
	if err != nil {
		return errors.Wrap(err, "failed to delete menu")
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return errors.Wrapf(store.ErrMenuNotFound, "menu %s", menuID)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanChunk(row rowScanner) (*store.MenuChunk, error) {
	var chunk store.MenuChunk
	var vec pgvector.Vector
	err := row.Scan(
		&chunk.ID,
		&chunk.MenuID,
		&chunk.MenuName,
		&chunk.Position,
		&chunk.Content,
		&chunk.ContentHash,
		&vec,
		&chunk.CreatedTs,
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to scan menu chunk")
	}
	chunk.Embedding = vec.Slice()
	return &chunk, nil
}
