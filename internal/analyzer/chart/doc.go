// Package chart decides which chart each column gets and renders them to PNG.
//
// Numeric columns get a histogram with a Gaussian KDE overlay; columns with
// at most MaxPieCategories distinct values get a pie chart; everything else is
// skipped. Rendering runs columns in parallel and tolerates per-column
// failures.
package chart
