// Package pkgmetrics holds the Prometheus collectors exported on /metrics.
//
// Collectors are registered once on the default registry through promauto so
// any package can record into them without wiring a registry around.
package pkgmetrics
