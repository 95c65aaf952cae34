// Package cmd implements the aprag command-line interface.
package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "aprag",
	Short: "aprag - adaptive personalized retrieval-augmented generation service",
	Long: `aprag serves adaptive learning APIs: it tracks per-student comprehension
from lightweight feedback, ranks retrieved documents by conversation-aware
scoring, and rewrites model prompts to match the student's current level.

Run "aprag serve" to start the HTTP API server.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
