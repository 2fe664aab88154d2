// Package config provides configuration structures and utilities for hostcrawl.
// It defines crawl settings, report preferences, and the YAML configuration
// file with per-host overrides.
package config
