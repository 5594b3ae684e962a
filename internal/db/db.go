// Package db is the entity store adapter: it persists and retrieves the four
// entity types and carries no business logic. Reference consistency between
// cases and their children lives in internal/links.
package db

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is satisfied by *pgxpool.Pool, pgx.Conn and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// WithTx returns Queries bound to the given transaction.
func (q *Queries) WithTx(tx pgx.Tx) *Queries {
	return &Queries{db: tx}
}

// Page clamps page/limit query parameters to sane bounds and converts them
// to LIMIT/OFFSET semantics.
type Page struct {
	Number int32
	Limit  int32
}

func NewPage(number, limit int) Page {
	p := Page{Number: int32(number), Limit: int32(limit)}
	if p.Number < 1 {
		p.Number = 1
	}
	if p.Limit < 1 {
		p.Limit = 10
	}
	if p.Limit > 100 {
		p.Limit = 100
	}
	return p
}

func (p Page) Offset() int32 {
	return (p.Number - 1) * p.Limit
}

// TotalPages returns the page count for a total row count.
func (p Page) TotalPages(total int64) int64 {
	if total <= 0 {
		return 0
	}
	return (total + int64(p.Limit) - 1) / int64(p.Limit)
}
