// Package summary derives the JSON description of a table that is sent to the
// language model: column names, inferred types, missing counts and describe
// statistics. It is a pure function of the table.
package summary
