// Package pkgconfig provides a small abstraction for reading configuration values.
//
// Business code depends on the Config interface so it stays easy to test and
// does not care where values come from. The Viper implementation layers, from
// lowest to highest priority: registered defaults, the YAML file, a local .env
// file, and the process environment.
package pkgconfig
