// Package catalog exposes the supported master's programs reference data.
package catalog

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Program is a supported master's program.
type Program struct {
	ID         string `db:"id"`
	Name       string `db:"name"`
	WebsiteURL string `db:"website_url"`
}

// URLs returns the website URLs of the given programs, preserving order.
func URLs(programs []Program) []string {
	out := make([]string, 0, len(programs))
	for _, p := range programs {
		out = append(out, p.WebsiteURL)
	}
	return out
}

// Names returns the names of the given programs, preserving order.
func Names(programs []Program) []string {
	out := make([]string, 0, len(programs))
	for _, p := range programs {
		out = append(out, p.Name)
	}
	return out
}

// Repository reads supported programs from Postgres.
type Repository struct {
	db *sqlx.DB
}

// NewRepository constructs a program repository.
func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// All returns every supported program ordered by name. An empty catalog
// yields an empty slice, not an error.
func (r *Repository) All(ctx context.Context) ([]Program, error) {
	const q = `
		select id, name, website_url
		from supported_programs
		order by name;
	`
	programs := []Program{}
	if err := r.db.SelectContext(ctx, &programs, q); err != nil {
		return nil, fmt.Errorf("select programs: %w", err)
	}
	return programs, nil
}
