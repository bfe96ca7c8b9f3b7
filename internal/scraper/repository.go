package scraper

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// Snapshot is one recorded fetch of a program website. A zero StatusCode
// means the fetch never produced a response.
type Snapshot struct {
	ProgramID     string    `db:"program_id"`
	StatusCode    int       `db:"status_code"`
	ContentHash   string    `db:"content_hash"`
	ContentLength int       `db:"content_length"`
	FetchedAt     time.Time `db:"fetched_at"`
}

// Repository persists snapshots in Postgres.
type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Insert(ctx context.Context, snap Snapshot) error {
	const query = `
		insert into program_snapshots (program_id, status_code, content_hash, content_length, fetched_at)
		values ($1, $2, $3, $4, $5);`

	_, err := r.db.ExecContext(ctx, query,
		snap.ProgramID, snap.StatusCode, snap.ContentHash, snap.ContentLength, snap.FetchedAt)
	if err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}
	return nil
}
