// Package config loads, normalizes, and validates the TOML configuration
// file. Configuration is resolved once at process start and handed to the
// rest of the program as an immutable value; no other package reads the
// environment or the filesystem for settings.
package config
