// Package prompt builds the text sent to the completion provider.
package prompt

import (
	"fmt"
	"strings"

	"chartq/backend/internal/model"
)

const (
	// ChartSpecSystem is the system instruction for the chart-spec call.
	ChartSpecSystem = "You are a helpful data science assistant that generates accurate Vega-Lite specifications from user questions and dataset information."
	// DescriptionSystem is the system instruction for the description call.
	DescriptionSystem = "You are a helpful assistant that explains data visualizations clearly."
)

const chartSpecTemplate = `You are a helpful data science assistant that generates accurate and valid Vega-Lite JSON specifications from user questions and dataset information. You should have a valid JSON specification each time.

Based on the following dataset information:

Columns: %s

Please generate a valid Vega-Lite JSON specification for the following question: "%s"

Remember to choose the most appropriate chart type based on the data and question. Also, handle any necessary data transformations (such as filtering, aggregation, or binning) that the chart might require.

Provide only the Vega-Lite JSON spec in your response.
`

const descriptionTemplate = `You are a helpful assistant that explains data visualizations clearly.

Based on the following Vega-Lite chart specification, provide a simple and clear description (one to two sentences) of the chart and what insights it conveys:

Vega-Lite Spec: %s
`

// FormatColumns renders columns as "name (Type: type, Sample: sample)"
// joined by ", " in input order.
func FormatColumns(columns []model.ColumnDescriptor) string {
	parts := make([]string, 0, len(columns))
	for _, col := range columns {
		parts = append(parts, fmt.Sprintf("%s (Type: %s, Sample: %s)", col.Name, col.Type, col.Sample))
	}
	return strings.Join(parts, ", ")
}

// ChartSpec builds the prompt asking for a Vega-Lite spec answering question
// over the given columns. Column text and question are embedded verbatim.
func ChartSpec(question string, columns []model.ColumnDescriptor) string {
	return fmt.Sprintf(chartSpecTemplate, FormatColumns(columns), question)
}

// Description builds the prompt asking for a short explanation of chartSpec.
func Description(chartSpec string) string {
	return fmt.Sprintf(descriptionTemplate, chartSpec)
}
