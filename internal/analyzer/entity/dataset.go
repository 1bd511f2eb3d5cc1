package entity

import "time"

// Format is the file format of an uploaded dataset.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// Dataset is one uploaded file together with its parsed table. Ready is set
// once the upload that created it has finished.
type Dataset struct {
	ID         string
	Filename   string
	Format     Format
	RawPath    string
	UploadedAt time.Time
	Table      *Table
	GraphPaths []string
	Ready      bool
}

// Meta returns the dataset without its table.
func (d *Dataset) Meta() DatasetMeta {
	meta := DatasetMeta{
		ID:         d.ID,
		Filename:   d.Filename,
		Format:     d.Format,
		RawPath:    d.RawPath,
		UploadedAt: d.UploadedAt,
		GraphPaths: append([]string(nil), d.GraphPaths...),
		Ready:      d.Ready,
	}
	if d.Table != nil {
		meta.Rows = d.Table.Rows
		meta.Columns = len(d.Table.Columns)
	}
	return meta
}

// DatasetMeta describes a stored dataset without holding its table.
type DatasetMeta struct {
	ID         string
	Filename   string
	Format     Format
	RawPath    string
	UploadedAt time.Time
	GraphPaths []string
	Rows       int
	Columns    int
	Ready      bool
}
