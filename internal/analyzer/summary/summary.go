package summary

import (
	"encoding/json"
	"sort"

	"github.com/MyFaduGame/csv-analyzer/internal/analyzer/entity"
	"github.com/MyFaduGame/csv-analyzer/internal/analyzer/table"
	"github.com/montanaflynn/stats"
)

// Summary is the schema and statistics of a table. Field order is the JSON
// key order.
type Summary struct {
	Columns       []string               `json:"columns"`
	Rows          int                    `json:"rows"`
	DataTypes     map[string]entity.Kind `json:"data_types"`
	MissingValues map[string]int         `json:"missing_values"`
	Stats         map[string]ColumnStats `json:"stats"`
}

// ColumnStats is the describe block of one column. Numeric columns fill count
// and the moments; bool and object columns fill count, unique, top and freq.
type ColumnStats struct {
	Count  Number `json:"count"`
	Unique Number `json:"unique"`
	Top    string `json:"top"`
	Freq   Number `json:"freq"`
	Mean   Number `json:"mean"`
	Std    Number `json:"std"`
	Min    Number `json:"min"`
	Q25    Number `json:"25%"`
	Median Number `json:"50%"`
	Q75    Number `json:"75%"`
	Max    Number `json:"max"`
}

// Summarize describes t.
func Summarize(t *entity.Table) Summary {
	s := Summary{
		Columns:       t.ColumnNames(),
		Rows:          t.Rows,
		DataTypes:     make(map[string]entity.Kind, len(t.Columns)),
		MissingValues: make(map[string]int, len(t.Columns)),
		Stats:         make(map[string]ColumnStats, len(t.Columns)),
	}

	for _, c := range t.Columns {
		s.DataTypes[c.Name] = c.Kind
		s.MissingValues[c.Name] = c.MissingCount()
		if c.Kind.IsNumeric() {
			s.Stats[c.Name] = describeNumeric(table.Floats(c))
		} else {
			s.Stats[c.Name] = describeCategorical(c.Present())
		}
	}

	return s
}

// JSON encodes the summary. Output is byte-identical for equal tables.
func (s Summary) JSON() ([]byte, error) {
	return json.Marshal(s)
}

// String returns the JSON form, or "{}" if encoding fails.
func (s Summary) String() string {
	raw, err := s.JSON()
	if err != nil {
		return "{}"
	}
	return string(raw)
}

func describeNumeric(data []float64) ColumnStats {
	out := ColumnStats{Count: Num(float64(len(data)))}
	if len(data) == 0 {
		return out
	}

	mean, _ := stats.Mean(data)
	std, _ := stats.StandardDeviationSample(data)
	lo, _ := stats.Min(data)
	hi, _ := stats.Max(data)

	out.Mean = Num(mean)
	out.Std = Num(std)
	out.Min = Num(lo)
	out.Max = Num(hi)

	sorted := append([]float64(nil), data...)
	sort.Float64s(sorted)
	out.Q25 = Num(quantile(sorted, 0.25))
	out.Median = Num(quantile(sorted, 0.5))
	out.Q75 = Num(quantile(sorted, 0.75))

	return out
}

// quantile interpolates linearly between the two closest ranks of sorted,
// placing p at position p*(n-1).
func quantile(sorted []float64, p float64) float64 {
	pos := p * float64(len(sorted)-1)
	i := int(pos)
	if i+1 >= len(sorted) {
		return sorted[len(sorted)-1]
	}
	frac := pos - float64(i)
	return sorted[i] + frac*(sorted[i+1]-sorted[i])
}

func describeCategorical(values []string) ColumnStats {
	out := ColumnStats{Count: Num(float64(len(values)))}
	if len(values) == 0 {
		return out
	}

	counts := make(map[string]int, len(values))
	for _, v := range values {
		counts[v]++
	}

	// first value in row order wins ties
	top, freq := "", 0
	for _, v := range values {
		if counts[v] > freq {
			top, freq = v, counts[v]
		}
	}

	out.Unique = Num(float64(len(counts)))
	out.Top = top
	out.Freq = Num(float64(freq))

	return out
}
