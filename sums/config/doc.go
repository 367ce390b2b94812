// Package config loads optional run defaults from a YAML or JSON file.
// Command-line flags take precedence over anything set here.
package config
