package service

import (
	"errors"

	"chartq/backend/internal/model"
)

var (
	ErrInvalidIdentifier = errors.New("invalid schema or table name")
	ErrTableNotFound     = errors.New("table not found")
)

// DBClient backs the dataset introspection and query history endpoints.
type DBClient interface {
	ListTables(schema string) ([]string, error)
	ListColumns(schema, table string) ([]model.ColumnDescriptor, error)
	ListQueries(limit int) ([]model.QueryRecord, error)
}
