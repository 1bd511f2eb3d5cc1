// Package pkgroutine runs background tasks with a concurrency limit.
//
// Tasks are named so failures and panics can be traced in logs; both are
// collected and returned from Wait during shutdown.
package pkgroutine
