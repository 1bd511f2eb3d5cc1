// Package pkgrouter wraps httprouter with the application handler signature,
// a JSON envelope codec and the standard middleware stack (panic recovery,
// correlation IDs, Prometheus metrics and request logging).
package pkgrouter
