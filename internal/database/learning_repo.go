package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/jackc/pgx/v5"

	"github.com/foxxcyber/fresh-feed/internal/expiry"
	"github.com/foxxcyber/fresh-feed/internal/models"
)

// LearningRepo stores each learning store as one JSONB row in expiry_learning
type LearningRepo struct {
	db *DB
}

var (
	_ expiry.Store     = (*LearningRepo)(nil)
	_ expiry.KeyLister = (*LearningRepo)(nil)
)

// NewLearningRepo creates a Postgres learning store backend
func NewLearningRepo(db *DB) *LearningRepo {
	return &LearningRepo{db: db}
}

func (r *LearningRepo) Load(ctx context.Context, key string) (*models.LearningStore, error) {
	var data []byte
	err := r.db.Pool.QueryRow(ctx, `SELECT data FROM expiry_learning WHERE store_key = $1`, key).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, expiry.ErrStoreNotFound
		}
		return nil, fmt.Errorf("select learning store: %w", err)
	}

	var store models.LearningStore
	if err := json.Unmarshal(data, &store); err != nil {
		return nil, fmt.Errorf("decode learning store: %w", err)
	}
	store.Normalize()
	return &store, nil
}

func (r *LearningRepo) Save(ctx context.Context, key string, store *models.LearningStore) error {
	data, err := json.Marshal(store)
	if err != nil {
		return fmt.Errorf("marshal learning store: %w", err)
	}

	_, err = r.db.Pool.Exec(ctx, `
		INSERT INTO expiry_learning (store_key, data, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (store_key) DO UPDATE SET data = EXCLUDED.data, updated_at = NOW()
	`, key, data)
	if err != nil {
		return fmt.Errorf("upsert learning store: %w", err)
	}
	return nil
}

func (r *LearningRepo) Delete(ctx context.Context, key string) error {
	_, err := r.db.Pool.Exec(ctx, `DELETE FROM expiry_learning WHERE store_key = $1`, key)
	if err != nil {
		return fmt.Errorf("delete learning store: %w", err)
	}
	return nil
}

// Keys lists every stored key in order
func (r *LearningRepo) Keys(ctx context.Context) ([]string, error) {
	rows, err := r.db.Pool.Query(ctx, `SELECT store_key FROM expiry_learning ORDER BY store_key`)
	if err != nil {
		return nil, fmt.Errorf("list learning stores: %w", err)
	}

	keys, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("list learning stores: %w", err)
	}
	return keys, nil
}
