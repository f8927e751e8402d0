package database

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/sqlscan"
)

// Repository is the capability set every entity repository offers.
type Repository[T any] interface {
	Create(ctx context.Context, entity *T) (*T, error)
	GetByID(ctx context.Context, id int64) (*T, error)
	List(ctx context.Context) ([]*T, error)
	Update(ctx context.Context, entity *T) (*T, error)
	Delete(ctx context.Context, id int64) error
}

var builder = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question)

// missingID is the error Update returns for an entity that was never persisted.
func missingID(entity string) error {
	return fmt.Errorf("%w: cannot update %s without an id", ErrInvalidArgument, entity)
}

// insert runs an INSERT in its own scope and returns the new rowid.
func insert(ctx context.Context, m *Manager, q squirrel.InsertBuilder) (int64, error) {
	query, args, err := q.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build query: %w", err)
	}

	var id int64
	err = m.WithConnection(ctx, func(c *Conn) error {
		result, err := c.ExecContext(ctx, query, args...)
		if err != nil {
			return err
		}
		id, err = result.LastInsertId()
		return err
	})
	return id, err
}

// exec runs an UPDATE or DELETE in its own scope. Zero affected rows is not
// an error.
func exec(ctx context.Context, m *Manager, q squirrel.Sqlizer) error {
	query, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}

	return m.WithConnection(ctx, func(c *Conn) error {
		_, err := c.ExecContext(ctx, query, args...)
		return err
	})
}

// getOne scans at most one row into R and converts it. No row yields (nil, nil).
func getOne[R, T any](ctx context.Context, m *Manager, q squirrel.SelectBuilder, toModel func(*R) (*T, error)) (*T, error) {
	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var (
		row   R
		found bool
	)
	err = m.WithConnection(ctx, func(c *Conn) error {
		if err := sqlscan.Get(ctx, c, &row, query, args...); err != nil {
			if sqlscan.NotFound(err) {
				return nil
			}
			return err
		}
		found = true
		return nil
	})
	if err != nil || !found {
		return nil, err
	}

	return toModel(&row)
}

// selectAll scans every row into R and converts each one.
func selectAll[R, T any](ctx context.Context, m *Manager, q squirrel.SelectBuilder, toModel func(*R) (*T, error)) ([]*T, error) {
	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var rows []*R
	err = m.WithConnection(ctx, func(c *Conn) error {
		return sqlscan.Select(ctx, c, &rows, query, args...)
	})
	if err != nil {
		return nil, err
	}

	out := make([]*T, 0, len(rows))
	for _, r := range rows {
		entity, err := toModel(r)
		if err != nil {
			return nil, err
		}
		out = append(out, entity)
	}
	return out, nil
}
