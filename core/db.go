package core

import (
	"context"
	"database/sql"
)

type (
	DBExecutor interface {
		ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
		QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
		QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	}

	DB interface {
		DBExecutor

		BeginTx(context.Context, *sql.TxOptions) (*sql.Tx, error)
		PingContext(ctx context.Context) error
		Close() error
	}
)

type DBOrdering struct {
	Field     string
	Ascending bool
}

func (ord DBOrdering) String() string {
	direction := "DESC"
	if ord.Ascending {
		direction = "ASC"
	}
	return ord.Field + " " + direction
}

// MapOrderings keeps the orderings whose Field is a key of columns, renamed to the mapped column.
// Unknown fields are dropped.
func MapOrderings(orderings []DBOrdering, columns map[string]string) []DBOrdering {
	mapped := make([]DBOrdering, 0, len(orderings))
	for _, ord := range orderings {
		if col, ok := columns[ord.Field]; ok {
			mapped = append(mapped, DBOrdering{Field: col, Ascending: ord.Ascending})
		}
	}
	return mapped
}
