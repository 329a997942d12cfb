// Package config defines the format-agnostic model of a matrix
// specification, along with the Loader interface for reading it from a
// concrete source format.
//
// The config.Model is the single source of truth for the matrix, resolve,
// synth and emit packages. Concrete loaders, such as the HCL one, live in
// separate packages so the generation pipeline never depends on a parser.
package config
