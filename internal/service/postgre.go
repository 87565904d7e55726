package service

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"chartq/backend/helper"
	"chartq/backend/internal/model"

	"github.com/lib/pq"
)

const createHistoryTable = `
	CREATE TABLE IF NOT EXISTS chart_queries (
		id                BIGSERIAL PRIMARY KEY,
		request_id        TEXT NOT NULL,
		prompt            TEXT NOT NULL,
		columns_info      JSONB NOT NULL,
		vega_lite_spec    TEXT NOT NULL DEFAULT '',
		chart_description TEXT NOT NULL DEFAULT '',
		error             TEXT NOT NULL DEFAULT '',
		duration_ms       BIGINT NOT NULL,
		created_at        TIMESTAMPTZ NOT NULL DEFAULT now()
	);
`

type PostgresClient struct {
	db *sql.DB
}

var (
	_ DBClient      = (*PostgresClient)(nil)
	_ QueryRecorder = (*PostgresClient)(nil)
)

func NewPostgresClient() *PostgresClient {
	return &PostgresClient{}
}

// NewPostgresClientWithDB wraps an already opened handle.
func NewPostgresClientWithDB(db *sql.DB) *PostgresClient {
	return &PostgresClient{db: db}
}

func (p *PostgresClient) Connect(dsn string) error {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return err
	}
	p.db = db
	return db.Ping()
}

func (p *PostgresClient) Disconnect() error {
	if p.db != nil {
		return p.db.Close()
	}
	return nil
}

func (p *PostgresClient) EnsureSchema() error {
	_, err := p.db.Exec(createHistoryTable)
	return err
}

func (p *PostgresClient) ListTables(schema string) ([]string, error) {
	if schema == "" {
		schema = "public"
	}

	query := `SELECT table_name FROM information_schema.tables WHERE table_schema = $1 ORDER BY table_name`
	rows, err := p.db.Query(query, schema)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		tables = append(tables, name)
	}
	return tables, rows.Err()
}

// ListColumns describes a table as prompt-ready column descriptors. Each
// sample is the first row's value rendered as text, empty for NULL or an
// empty table.
func (p *PostgresClient) ListColumns(schema, table string) ([]model.ColumnDescriptor, error) {
	if schema == "" {
		schema = "public"
	}
	if !helper.IsValidIdentifier(schema) || !helper.IsValidIdentifier(table) {
		return nil, ErrInvalidIdentifier
	}

	query := `
		SELECT column_name, data_type
		FROM information_schema.columns
		WHERE table_schema = $1 AND table_name = $2
		ORDER BY ordinal_position;
	`

	rows, err := p.db.Query(query, schema, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var columns []model.ColumnDescriptor
	for rows.Next() {
		var col model.ColumnDescriptor
		if err := rows.Scan(&col.Name, &col.Type); err != nil {
			return nil, err
		}
		columns = append(columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(columns) == 0 {
		return nil, ErrTableNotFound
	}

	samples, err := p.sampleRow(schema, table)
	if err != nil {
		return nil, fmt.Errorf("sample %s.%s: %w", schema, table, err)
	}
	for i := range columns {
		columns[i].Sample = samples[columns[i].Name]
	}

	return columns, nil
}

func (p *PostgresClient) sampleRow(schema, table string) (map[string]string, error) {
	query := fmt.Sprintf(`SELECT * FROM %s.%s LIMIT 1`, pq.QuoteIdentifier(schema), pq.QuoteIdentifier(table))
	rows, err := p.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	samples := make(map[string]string, len(cols))
	if !rows.Next() {
		return samples, rows.Err()
	}

	values := make([]sql.NullString, len(cols))
	valuePointers := make([]any, len(cols))
	for i := range values {
		valuePointers[i] = &values[i]
	}
	if err := rows.Scan(valuePointers...); err != nil {
		return nil, err
	}

	for i, name := range cols {
		if values[i].Valid {
			samples[name] = values[i].String
		}
	}
	return samples, nil
}

func (p *PostgresClient) SaveQuery(rec model.QueryRecord) error {
	columns := rec.Columns
	if columns == nil {
		columns = []model.ColumnDescriptor{}
	}
	columnsJSON, err := json.Marshal(columns)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO chart_queries
			(request_id, prompt, columns_info, vega_lite_spec, chart_description, error, duration_ms)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err = p.db.Exec(query,
		rec.RequestID,
		rec.Prompt,
		string(columnsJSON),
		rec.ChartSpec,
		rec.ChartDescription,
		rec.Error,
		rec.DurationMS,
	)
	return err
}

// ListQueries returns the most recent records first.
func (p *PostgresClient) ListQueries(limit int) ([]model.QueryRecord, error) {
	query := `
		SELECT id, request_id, prompt, columns_info, vega_lite_spec, chart_description, error, duration_ms, created_at
		FROM chart_queries
		ORDER BY created_at DESC, id DESC
		LIMIT $1
	`
	rows, err := p.db.Query(query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := []model.QueryRecord{}
	for rows.Next() {
		var rec model.QueryRecord
		var columnsJSON []byte
		if err := rows.Scan(
			&rec.ID,
			&rec.RequestID,
			&rec.Prompt,
			&columnsJSON,
			&rec.ChartSpec,
			&rec.ChartDescription,
			&rec.Error,
			&rec.DurationMS,
			&rec.CreatedAt,
		); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(columnsJSON, &rec.Columns); err != nil {
			return nil, fmt.Errorf("decode columns_info of query %d: %w", rec.ID, err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
