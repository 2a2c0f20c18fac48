// Package config loads and validates application configuration.
//
// Configuration is assembled from three layers, later layers winning:
// built-in defaults, an optional YAML file (SEARCHD_CONFIG_FILE), and
// environment variables. The result is an immutable struct handed to
// components at construction; nothing reads ambient global state at runtime.
//
// Watch provides an optional reload seam: when the YAML file changes on
// disk the supplied callback receives a freshly loaded and validated
// configuration. Callers decide what is safe to swap at runtime (the search
// provider name and limits are; listener addresses are not).
package config
