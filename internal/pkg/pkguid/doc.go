// Package pkguid provides helpers for generating unique identifiers.
//
// Dataset and correlation IDs are UUIDv7 strings; dataset events carry
// Snowflake numeric IDs so they sort by creation time.
package pkguid
