package model

// ColumnDescriptor describes one dataset column for prompt construction.
// Values are interpolated as-is; nothing here is validated.
type ColumnDescriptor struct {
	Name   string `json:"name"`
	Type   string `json:"type"`
	Sample string `json:"sample"`
}
