package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ImGucci/smart-wardrobe-ai/internal/database"
	"github.com/lib/pq"
)

// Backend keeps all collections in the records table as JSONB rows.
type Backend struct {
	db *sql.DB
}

func NewBackend(db *sql.DB) *Backend {
	return &Backend{db: db}
}

func (b *Backend) Collection(name string) database.Collection {
	return &collection{db: b.db, name: name}
}

func (b *Backend) Close() error {
	return b.db.Close()
}

type collection struct {
	db   *sql.DB
	name string
}

// ReplaceAll deletes and bulk-loads the collection inside one transaction.
func (c *collection) ReplaceAll(ctx context.Context, records map[string][]byte) (err error) {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM records WHERE collection = $1`, c.name); err != nil {
		return fmt.Errorf("clear %s: %w", c.name, err)
	}

	if len(records) > 0 {
		stmt, perr := tx.PrepareContext(ctx, pq.CopyIn("records", "collection", "id", "data"))
		if perr != nil {
			err = fmt.Errorf("prepare copy: %w", perr)
			return err
		}
		for id, data := range records {
			if _, err = stmt.ExecContext(ctx, c.name, id, string(data)); err != nil {
				stmt.Close()
				return fmt.Errorf("copy %s/%s: %w", c.name, id, err)
			}
		}
		if _, err = stmt.ExecContext(ctx); err != nil {
			stmt.Close()
			return fmt.Errorf("flush copy: %w", err)
		}
		if err = stmt.Close(); err != nil {
			return fmt.Errorf("close copy: %w", err)
		}
	}

	return tx.Commit()
}

func (c *collection) GetAll(ctx context.Context) (map[string][]byte, error) {
	rows, err := c.db.QueryContext(ctx, `SELECT id, data FROM records WHERE collection = $1`, c.name)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string][]byte)
	for rows.Next() {
		var id string
		var data []byte
		if err := rows.Scan(&id, &data); err != nil {
			return nil, err
		}
		out[id] = data
	}
	return out, rows.Err()
}

func (c *collection) Get(ctx context.Context, id string) ([]byte, bool, error) {
	var data []byte
	err := c.db.QueryRowContext(ctx,
		`SELECT data FROM records WHERE collection = $1 AND id = $2`, c.name, id,
	).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

func (c *collection) Put(ctx context.Context, id string, data []byte) error {
	query := `
		INSERT INTO records (collection, id, data, updated_at)
		VALUES ($1, $2, $3, CURRENT_TIMESTAMP)
		ON CONFLICT (collection, id) DO UPDATE SET data = EXCLUDED.data, updated_at = CURRENT_TIMESTAMP
	`
	_, err := c.db.ExecContext(ctx, query, c.name, id, string(data))
	return err
}

func (c *collection) Delete(ctx context.Context, id string) (bool, error) {
	res, err := c.db.ExecContext(ctx, `DELETE FROM records WHERE collection = $1 AND id = $2`, c.name, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
