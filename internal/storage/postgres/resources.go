package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"rentcard_service/internal/models"

	"github.com/jackc/pgx/v5"
)

var ErrUsageNotTracked = errors.New("resource has no usage counter")

// ResourceRepo stores one owner-scoped resource type. SQL is derived from the
// model's table metadata; rows are scanned by db tag.
type ResourceRepo[T models.Resource] struct {
	db      DBTX
	table   string
	owner   string
	columns []string
	usage   string
}

func NewResourceRepo[T models.Resource](r *PostgresRepo) *ResourceRepo[T] {
	var zero T

	repo := &ResourceRepo[T]{
		db:      r.db,
		table:   zero.TableName(),
		owner:   zero.OwnerColumn(),
		columns: zero.Columns(),
	}

	if u, ok := any(zero).(models.UsageTracked); ok {
		repo.usage = u.UsageColumn()
	}

	return repo
}

func (r *ResourceRepo[T]) List(ctx context.Context, ownerID int64) ([]T, error) {
	op := fmt.Sprintf("storage.postgres.%s.List", r.table)

	query := fmt.Sprintf(`SELECT * FROM %s WHERE %s = $1 ORDER BY id;`, r.table, r.owner)

	rows, err := r.db.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	items, err := pgx.CollectRows(rows, pgx.RowToStructByName[T])
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if items == nil {
		items = []T{}
	}

	return items, nil
}

func (r *ResourceRepo[T]) Get(ctx context.Context, ownerID, id int64) (T, error) {
	op := fmt.Sprintf("storage.postgres.%s.Get", r.table)

	query := fmt.Sprintf(`SELECT * FROM %s WHERE id = $1 AND %s = $2;`, r.table, r.owner)

	return r.one(ctx, op, query, id, ownerID)
}

func (r *ResourceRepo[T]) Create(ctx context.Context, ownerID int64, rec T) (T, error) {
	op := fmt.Sprintf("storage.postgres.%s.Create", r.table)

	placeholders := make([]string, 0, len(r.columns)+1)
	for i := 0; i <= len(r.columns); i++ {
		placeholders = append(placeholders, fmt.Sprintf("$%d", i+1))
	}

	query := fmt.Sprintf(`INSERT INTO %s (%s, %s) VALUES (%s) RETURNING *;`,
		r.table,
		r.owner,
		strings.Join(r.columns, ", "),
		strings.Join(placeholders, ", "),
	)

	args := append([]any{ownerID}, rec.Values()...)

	return r.one(ctx, op, query, args...)
}

// Update overwrites every writable column; last write wins.
func (r *ResourceRepo[T]) Update(ctx context.Context, ownerID, id int64, rec T) (T, error) {
	op := fmt.Sprintf("storage.postgres.%s.Update", r.table)

	sets := make([]string, 0, len(r.columns)+1)
	for i, col := range r.columns {
		sets = append(sets, fmt.Sprintf("%s = $%d", col, i+3))
	}
	sets = append(sets, "updated_at = NOW()")

	query := fmt.Sprintf(`UPDATE %s SET %s WHERE id = $1 AND %s = $2 RETURNING *;`,
		r.table,
		strings.Join(sets, ", "),
		r.owner,
	)

	args := append([]any{id, ownerID}, rec.Values()...)

	return r.one(ctx, op, query, args...)
}

func (r *ResourceRepo[T]) Delete(ctx context.Context, ownerID, id int64) error {
	op := fmt.Sprintf("storage.postgres.%s.Delete", r.table)

	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1 AND %s = $2;`, r.table, r.owner)

	tag, err := r.db.Exec(ctx, query, id, ownerID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, mapError(err))
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, mapError(pgx.ErrNoRows))
	}

	return nil
}

func (r *ResourceRepo[T]) IncrementUsage(ctx context.Context, ownerID, id int64) (T, error) {
	op := fmt.Sprintf("storage.postgres.%s.IncrementUsage", r.table)

	if r.usage == "" {
		var zero T
		return zero, fmt.Errorf("%s: %w", op, ErrUsageNotTracked)
	}

	query := fmt.Sprintf(`UPDATE %s SET %s = %s + 1, updated_at = NOW() WHERE id = $1 AND %s = $2 RETURNING *;`,
		r.table, r.usage, r.usage, r.owner)

	return r.one(ctx, op, query, id, ownerID)
}

func (r *ResourceRepo[T]) one(ctx context.Context, op, query string, args ...any) (T, error) {
	var zero T

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return zero, fmt.Errorf("%s: %w", op, mapError(err))
	}

	item, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[T])
	if err != nil {
		return zero, fmt.Errorf("%s: %w", op, mapError(err))
	}

	return item, nil
}
