// Package table parses uploaded CSV and XLSX files into entity.Table values
// and infers a data type for every column.
package table
