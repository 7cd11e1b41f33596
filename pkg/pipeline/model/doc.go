// Package model provides the data structures shared by the pipeline engine and its options.
// It defines how a scheduled unit is described to options and the hooks an option implements
// to observe a run.
package model
