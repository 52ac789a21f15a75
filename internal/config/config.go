// Package config holds the handful of tunables this shell exposes via
// cli flags.
package config

import "github.com/spf13/cobra"

// Config carries the shell's runtime tunables.
type Config struct {
	// JobTableCapacity is the number of simultaneous jobs the job table
	// will track. IDs are drawn from [1, JobTableCapacity].
	JobTableCapacity int

	// MaxPipelineStages bounds the number of commands accepted in a
	// single pipeline; the shell's line runner rejects any parsed line
	// with more stages than this, before allocating a job for it.
	MaxPipelineStages int

	// Debug enables internal slog diagnostics (reaper sweeps, pgid
	// assignment, signal delivery). It never affects the user-facing,
	// line-oriented stdout protocol required by the shell's error
	// handling design.
	Debug bool
}

// DefaultJobTableCapacity is the default number of simultaneous jobs
// tracked by the job table.
const DefaultJobTableCapacity = 128

// DefaultMaxPipelineStages is a generous ceiling; real pipelines rarely
// exceed single digits.
const DefaultMaxPipelineStages = 64

// Flags registers the config's fields as local flags on cmd.
func (c *Config) Flags(cmd *cobra.Command) {
	cmd.Flags().IntVar(&c.JobTableCapacity, "max-jobs", DefaultJobTableCapacity, "maximum number of simultaneous jobs tracked by the job table")
	cmd.Flags().IntVar(&c.MaxPipelineStages, "max-pipeline-stages", DefaultMaxPipelineStages, "maximum number of commands accepted in a single pipeline")
	cmd.Flags().BoolVar(&c.Debug, "debug", false, "enable internal debug logging")
}
