// Package pkglog configures the process-wide slog logger.
//
// Records are JSON encoded with a fixed service attribute. When a request
// correlation ID has been stored with WithCorrelationID, every record logged
// with that context carries it under "_cID".
package pkglog
