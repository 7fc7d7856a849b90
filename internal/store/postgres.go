package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS documents (
	path       TEXT PRIMARY KEY,
	parent     TEXT NOT NULL,
	fields     JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_documents_parent ON documents(parent);
`

const (
	pgReplace = `
		INSERT INTO documents (path, parent, fields, updated_at) VALUES ($1, $2, $3::jsonb, now())
		ON CONFLICT (path) DO UPDATE SET fields = EXCLUDED.fields, updated_at = now()`
	pgMerge = `
		INSERT INTO documents (path, parent, fields, updated_at) VALUES ($1, $2, $3::jsonb, now())
		ON CONFLICT (path) DO UPDATE SET fields = documents.fields || EXCLUDED.fields, updated_at = now()`
)

// Postgres stores documents in a jsonb table. Merge uses the jsonb ||
// operator, which is a shallow top-level merge like the other backends.
type Postgres struct {
	pool *pgxpool.Pool
}

// OpenPostgres connects to url and ensures the schema exists.
func OpenPostgres(ctx context.Context, url string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

func (p *Postgres) Put(ctx context.Context, path Path, fields map[string]any, merge bool) error {
	return p.Batch(ctx, []Write{{Path: path, Fields: fields, Merge: merge}})
}

func (p *Postgres) Batch(ctx context.Context, writes []Write) error {
	if err := validateWrites(writes); err != nil {
		return err
	}
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, w := range writes {
		body, err := json.Marshal(w.Fields)
		if err != nil {
			return fmt.Errorf("marshal %s: %w", w.Path, err)
		}
		q := pgReplace
		if w.Merge {
			q = pgMerge
		}
		if _, err := tx.Exec(ctx, q, w.Path.String(), w.Path.Parent().String(), string(body)); err != nil {
			return fmt.Errorf("write %s: %w", w.Path, err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (p *Postgres) Get(ctx context.Context, path Path) (map[string]any, error) {
	var raw []byte
	err := p.pool.QueryRow(ctx, `SELECT fields FROM documents WHERE path = $1`, path.String()).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("decode fields: %w", err)
	}
	return fields, nil
}

// Children returns the paths stored directly under parent, sorted.
func (p *Postgres) Children(ctx context.Context, parent Path) ([]string, error) {
	rows, err := p.pool.Query(ctx, `SELECT path FROM documents WHERE parent = $1 ORDER BY path`, parent.String())
	if err != nil {
		return nil, fmt.Errorf("list children: %w", err)
	}
	out, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("list children: %w", err)
	}
	return out, nil
}

func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}
