package app

import "errors"

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	SpecPath string // hcl file or directory
	OutPath  string // emitted workflow document

	// Check verifies the committed document against fresh output instead
	// of writing. Watch keeps the process alive and regenerates whenever
	// a spec file changes; it is meaningless in check mode.
	Check bool
	Watch bool

	LogFormat string
	LogLevel  string
}

// NewConfig validates a Config and returns it.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.SpecPath == "" {
		return nil, errors.New("SpecPath is a required configuration field and cannot be empty")
	}
	if cfg.OutPath == "" {
		return nil, errors.New("OutPath is a required configuration field and cannot be empty")
	}
	if cfg.Check && cfg.Watch {
		return nil, errors.New("check and watch modes are mutually exclusive")
	}
	return &cfg, nil
}
