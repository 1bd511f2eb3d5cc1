package table

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/MyFaduGame/csv-analyzer/internal/analyzer/entity"
	"github.com/xuri/excelize/v2"
)

var (
	// ErrEmptyFile is returned when the payload has no header row.
	ErrEmptyFile = errors.New("no columns to parse from file")
	// ErrUnsupportedFormat is returned for formats other than CSV and XLSX.
	ErrUnsupportedFormat = errors.New("unsupported file format")
)

//nolint:gochecknoglobals // lookup table
var missingLiterals = map[string]struct{}{
	"": {}, "NA": {}, "N/A": {}, "n/a": {}, "NaN": {}, "nan": {}, "-NaN": {}, "-nan": {},
	"NULL": {}, "null": {}, "None": {}, "#N/A": {}, "#NA": {}, "<NA>": {},
	"1.#IND": {}, "1.#QNAN": {}, "-1.#IND": {}, "-1.#QNAN": {},
}

// IsMissing reports whether a trimmed cell is a missing-value literal.
func IsMissing(cell string) bool {
	_, ok := missingLiterals[cell]
	return ok
}

// FormatFromFilename picks the parser from the file extension. Anything that
// is not .xlsx is treated as CSV.
func FormatFromFilename(name string) entity.Format {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx", ".xlsm":
		return entity.FormatXLSX
	default:
		return entity.FormatCSV
	}
}

// Parse reads r according to format.
func Parse(ctx context.Context, format entity.Format, r io.Reader) (*entity.Table, error) {
	switch format {
	case entity.FormatCSV, "":
		return ParseCSV(ctx, r)
	case entity.FormatXLSX:
		return ParseXLSX(ctx, r)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
}

// ParseCSV reads a CSV with a header row. Short rows are padded with missing
// cells; rows wider than the header are an error.
func ParseCSV(ctx context.Context, r io.Reader) (*entity.Table, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, ErrEmptyFile
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	var records [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			slog.WarnContext(ctx, "failed to read csv line", "error", err)
			return nil, fmt.Errorf("read csv: %w", err)
		}
		if len(record) > len(header) {
			line, _ := reader.FieldPos(0)
			return nil, fmt.Errorf("expected %d fields in line %d, saw %d", len(header), line, len(record))
		}
		records = append(records, record)
	}

	return build(header, records)
}

// ParseXLSX reads the first sheet of a workbook; its first row is the header.
func ParseXLSX(ctx context.Context, r io.Reader) (*entity.Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			slog.WarnContext(ctx, "failed to close workbook", "error", err)
		}
	}()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptyFile
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, ErrEmptyFile
	}

	header := rows[0]
	records := rows[1:]
	for i, record := range records {
		if len(record) > len(header) {
			return nil, fmt.Errorf("expected %d cells in row %d, saw %d", len(header), i+2, len(record))
		}
	}

	return build(header, records)
}

func build(header []string, records [][]string) (*entity.Table, error) {
	if len(header) == 0 {
		return nil, ErrEmptyFile
	}

	names := columnNames(header)
	columns := make([]entity.Column, len(names))
	for i, name := range names {
		columns[i] = entity.Column{
			Name:    name,
			Values:  make([]string, len(records)),
			Missing: make([]bool, len(records)),
		}
	}

	for row, record := range records {
		for i := range columns {
			cell := ""
			if i < len(record) {
				cell = strings.TrimSpace(record[i])
			}
			columns[i].Values[row] = cell
			columns[i].Missing[row] = IsMissing(cell)
		}
	}

	for i := range columns {
		columns[i].Kind = InferKind(columns[i])
	}

	return &entity.Table{Columns: columns, Rows: len(records)}, nil
}

// columnNames names blank headers "Unnamed: <i>" and suffixes duplicates
// with ".1", ".2", ...
func columnNames(header []string) []string {
	names := make([]string, len(header))
	seen := make(map[string]int, len(header))
	for i, h := range header {
		name := strings.TrimSpace(h)
		if name == "" {
			name = "Unnamed: " + strconv.Itoa(i)
		}
		base := name
		for {
			if _, dup := seen[name]; !dup {
				break
			}
			seen[base]++
			name = base + "." + strconv.Itoa(seen[base])
		}
		seen[name] = 0
		names[i] = name
	}
	return names
}

// InferKind derives the column kind from its cells:
//   - no rows at all: object
//   - every cell missing: float64
//   - integers only: int64, or float64 when some cells are missing
//   - floats only: float64
//   - true/false literals only and nothing missing: bool
//   - anything else: object
func InferKind(c entity.Column) entity.Kind {
	if c.Len() == 0 {
		return entity.KindObject
	}

	present := c.Present()
	if len(present) == 0 {
		return entity.KindFloat
	}

	allInt, allFloat, allBool := true, true, true
	for _, v := range present {
		if allInt {
			if _, err := strconv.ParseInt(v, 10, 64); err != nil {
				allInt = false
			}
		}
		if allFloat {
			if _, err := strconv.ParseFloat(v, 64); err != nil {
				allFloat = false
			}
		}
		if allBool {
			if _, ok := ParseBool(v); !ok {
				allBool = false
			}
		}
		if !allInt && !allFloat && !allBool {
			break
		}
	}

	hasMissing := len(present) < c.Len()
	switch {
	case allInt && !hasMissing:
		return entity.KindInt
	case allInt, allFloat:
		return entity.KindFloat
	case allBool && !hasMissing:
		return entity.KindBool
	default:
		return entity.KindObject
	}
}

// ParseBool accepts True/TRUE/true and False/FALSE/false.
func ParseBool(v string) (bool, bool) {
	switch v {
	case "True", "TRUE", "true":
		return true, true
	case "False", "FALSE", "false":
		return false, true
	default:
		return false, false
	}
}

// Floats returns the present cells of a numeric column as float64 values.
// Cells that fail to parse are dropped.
func Floats(c entity.Column) []float64 {
	out := make([]float64, 0, c.Len())
	for i, v := range c.Values {
		if c.Missing[i] {
			continue
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			continue
		}
		out = append(out, f)
	}
	return out
}
