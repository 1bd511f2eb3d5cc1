package entity

// ChartKind is the chart chosen for a column.
type ChartKind string

const (
	ChartHistogram ChartKind = "hist"
	ChartPie       ChartKind = "pie"
	ChartSkip      ChartKind = "skip"
)
