// Package config defines the format-agnostic pipeline model shared by the
// loader and the engine.
package config
