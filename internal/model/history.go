package model

import "time"

type QueryRecord struct {
	ID               int64              `json:"id"`
	RequestID        string             `json:"request_id"`
	Prompt           string             `json:"prompt"`
	Columns          []ColumnDescriptor `json:"columns_info"`
	ChartSpec        string             `json:"vega_lite_spec,omitempty"`
	ChartDescription string             `json:"chart_description,omitempty"`
	Error            string             `json:"error,omitempty"` // empty on success
	DurationMS       int64              `json:"duration_ms"`
	CreatedAt        time.Time          `json:"created_at"`
}
