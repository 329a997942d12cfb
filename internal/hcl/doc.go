// Package hcl implements the config.Loader interface for HCL matrix
// specification files. It parses spec files with hclparse/gohcl,
// evaluates every free-form body down to literal strings, and hands the
// generation pipeline a fully format-agnostic model.
package hcl
