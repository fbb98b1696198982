package config

import "context"

// Loader turns pipeline definition files into the agnostic model. The
// engine depends on this interface, not on any concrete syntax.
type Loader interface {
	Load(ctx context.Context, paths ...string) (*Model, error)
}
