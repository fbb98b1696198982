package app

import "errors"

// Config holds everything an App needs for one invocation.
type Config struct {
	PipelinePath string

	Event string // invocation kind: push, pull-request, schedule, manual
	Force bool   // manual override flag consulted by trigger gates

	LogFormat string
	LogLevel  string
	Workers   int
}

// NewConfig validates an invocation configuration.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.PipelinePath == "" {
		return nil, errors.New("PipelinePath is a required configuration field and cannot be empty")
	}
	return &cfg, nil
}
