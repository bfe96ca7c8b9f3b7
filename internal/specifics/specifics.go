// Package specifics stores free-text notes users leave about themselves.
// The notes accumulate and feed program recommendations.
package specifics

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Specific is one user-authored note.
type Specific struct {
	UserID   int64  `db:"user_id"`
	Specific string `db:"specific"`
}

// Texts returns the note bodies, preserving order.
func Texts(items []Specific) []string {
	out := make([]string, 0, len(items))
	for _, s := range items {
		out = append(out, s.Specific)
	}
	return out
}

// Repository persists user specifics in Postgres.
type Repository struct {
	db *sqlx.DB
}

// NewRepository constructs a specifics repository.
func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// Create stores a new note for the user.
func (r *Repository) Create(ctx context.Context, userID int64, text string) (Specific, error) {
	const q = `
		insert into user_specifics (user_id, specific)
		values ($1, $2)
		returning user_id, specific;
	`
	var created Specific
	if err := r.db.GetContext(ctx, &created, q, userID, text); err != nil {
		return Specific{}, fmt.Errorf("insert specific: %w", err)
	}
	return created, nil
}

// ListByUser returns every note of the user. A user without notes yields an
// empty slice, not an error.
func (r *Repository) ListByUser(ctx context.Context, userID int64) ([]Specific, error) {
	const q = `
		select user_id, specific
		from user_specifics
		where user_id = $1
		order by specific;
	`
	items := []Specific{}
	if err := r.db.SelectContext(ctx, &items, q, userID); err != nil {
		return nil, fmt.Errorf("select specifics: %w", err)
	}
	return items, nil
}
