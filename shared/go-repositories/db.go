package repositories

import (
	"context"
	"strconv"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
)

// DB is the subset of pgxpool.Pool / pgx.Conn / pgx.Tx the repositories use.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// commandTag builds the tag Postgres would report for verb so the
// non-pgx stores can share the optimistic-locking loop.
func commandTag(verb string, rows int64) pgconn.CommandTag {
	return pgconn.CommandTag(verb + " " + strconv.FormatInt(rows, 10))
}
