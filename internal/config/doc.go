// Package config loads and validates arivid's TOML configuration.
package config
