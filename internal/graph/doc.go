// Package graph models the generated pipeline as an arena of jobs keyed
// by name, plus the pipeline-wide metadata carried into emission. The
// dependency relation is a small DAG; Validate checks referential
// integrity and acyclicity before anything is emitted.
package graph
