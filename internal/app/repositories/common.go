package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/alumnisphere/api/internal/app/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// querier is satisfied by *pgxpool.Pool and pgx.Tx so helpers can run inside
// or outside a transaction.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func newStatementBuilder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// authorColumns selects the identity fields of a joined users row.
func authorColumns(alias string) []string {
	return []string{
		alias + ".id",
		alias + ".username",
		alias + ".first_name",
		alias + ".last_name",
		alias + ".avatar_url",
	}
}

// authorScanTargets returns scan destinations matching authorColumns.
func authorScanTargets(u *models.User) []any {
	return []any{&u.ID, &u.Username, &u.FirstName, &u.LastName, &u.AvatarURL}
}

// mapNoRows converts pgx.ErrNoRows into notFound and wraps other errors.
func mapNoRows(err error, notFound error, action string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return notFound
	}
	return fmt.Errorf("%s: %w", action, err)
}

// count runs a COUNT(*) select built from b.
func count(ctx context.Context, q querier, b squirrel.SelectBuilder) (int64, error) {
	sql, args, err := b.ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build count query: %w", err)
	}
	var total int64
	if err := q.QueryRow(ctx, sql, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to count rows: %w", err)
	}
	return total, nil
}

func joinColumns(cols []string) string {
	return strings.Join(cols, ", ")
}

// execAffecting runs b and returns notFound when no row was touched.
func execAffecting(ctx context.Context, q querier, b squirrel.Sqlizer, notFound error, action string) error {
	sql, args, err := b.ToSql()
	if err != nil {
		return fmt.Errorf("failed to build %s query: %w", action, err)
	}
	tag, err := q.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("failed to %s: %w", action, err)
	}
	if tag.RowsAffected() == 0 {
		return notFound
	}
	return nil
}
