package config

import "context"

// Loader is the interface for a format-specific matrix specification
// loader. Load reads the specification from the given paths (files or
// directories), translates it into the format-agnostic model, and
// validates its structural completeness.
type Loader interface {
	Load(ctx context.Context, paths ...string) (*Model, error)
}
