// Package config loads and merges the entitlement keeper configuration from
// environment variables, command-line flags, and an optional JSON file.
//
// Sources are merged with mergo in priority order (environment first, then
// flags, then the JSON file named by either of the first two), defaults are
// applied, and the result is validated before use.
//
// The main entry point is [GetStructuredConfig].
package config
