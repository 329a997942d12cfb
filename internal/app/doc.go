// Package app wires the generator together: it owns the logger, the
// application configuration, and the load → expand → resolve →
// synthesize → emit pipeline, plus the check and watch execution modes.
package app
