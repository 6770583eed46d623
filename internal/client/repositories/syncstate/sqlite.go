package syncstate

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/dmitrijs2005/drivesync/internal/dbx"
)

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := r.db.QueryRowContext(ctx, `SELECT value FROM sync_state WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get sync_state[%s]: %w", key, err)
	}
	return value, nil
}

func (r *SQLiteRepository) Set(ctx context.Context, key string, value []byte) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO sync_state (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("failed to set sync_state[%s]: %w", key, err)
	}
	return nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, key string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM sync_state WHERE key = ?`, key)
	if err != nil {
		return fmt.Errorf("failed to delete sync_state[%s]: %w", key, err)
	}
	return nil
}

func (r *SQLiteRepository) RefreshInterrupted(ctx context.Context) (bool, error) {
	value, err := r.Get(ctx, KeyRefreshInterrupted)
	if err != nil {
		return false, err
	}
	return string(value) == "1", nil
}

func (r *SQLiteRepository) SetRefreshInterrupted(ctx context.Context, interrupted bool) error {
	if !interrupted {
		return r.Delete(ctx, KeyRefreshInterrupted)
	}
	return r.Set(ctx, KeyRefreshInterrupted, []byte("1"))
}

func (r *SQLiteRepository) LastRefreshTime(ctx context.Context) (time.Time, error) {
	value, err := r.Get(ctx, KeyLastRefreshTime)
	if err != nil {
		return time.Time{}, err
	}
	if len(value) == 0 {
		return time.Time{}, nil
	}
	unix, err := strconv.ParseInt(string(value), 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse sync_state[%s]: %w", KeyLastRefreshTime, err)
	}
	return time.Unix(unix, 0), nil
}

func (r *SQLiteRepository) SetLastRefreshTime(ctx context.Context, t time.Time) error {
	return r.Set(ctx, KeyLastRefreshTime, []byte(strconv.FormatInt(t.Unix(), 10)))
}

var _ Repository = (*SQLiteRepository)(nil)
