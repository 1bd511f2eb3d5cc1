package chart

import (
	"regexp"
	"strings"

	"github.com/MyFaduGame/csv-analyzer/internal/analyzer/entity"
)

// MaxPieCategories is the largest number of distinct values drawn as a pie.
const MaxPieCategories = 10

// Classify picks the chart for a column. Every column maps to exactly one of
// ChartHistogram, ChartPie or ChartSkip.
func Classify(c entity.Column) entity.ChartKind {
	present := c.Present()
	if len(present) == 0 {
		return entity.ChartSkip
	}

	if c.Kind.IsNumeric() {
		return entity.ChartHistogram
	}

	distinct := make(map[string]struct{}, MaxPieCategories+1)
	for _, v := range present {
		distinct[v] = struct{}{}
		if len(distinct) > MaxPieCategories {
			return entity.ChartSkip
		}
	}

	return entity.ChartPie
}

// Job is one chart to render.
type Job struct {
	Column entity.Column
	Kind   entity.ChartKind
}

// Plan returns the charts for t in column order, leaving out skipped columns.
func Plan(t *entity.Table) []Job {
	jobs := make([]Job, 0, len(t.Columns))
	for _, c := range t.Columns {
		kind := Classify(c)
		if kind == entity.ChartSkip {
			continue
		}
		jobs = append(jobs, Job{Column: c, Kind: kind})
	}
	return jobs
}

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

// FileName is the PNG name for a dataset column chart.
func FileName(datasetID, column string, kind entity.ChartKind) string {
	name := strings.Trim(unsafeName.ReplaceAllString(column, "_"), "_")
	if name == "" {
		name = "column"
	}
	return datasetID + "_" + name + "_" + string(kind) + ".png"
}
