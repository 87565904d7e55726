package model

type ChartQueryRequest struct {
	Prompt  string             `json:"prompt"`
	Columns []ColumnDescriptor `json:"columns_info"`
}

type ChartQueryResponse struct {
	ChartSpec        string `json:"vega_lite_spec"`
	ChartDescription string `json:"chart_description"`
}

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Detail string `json:"detail"`
}
