package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version    = "0.1.0"
	configPath string

	rootCmd = &cobra.Command{
		Use:   "skywalker",
		Short: "GCP fleet auditor",
		Long: `Skywalker - GCP Fleet Auditor

Skywalker walks your organization's projects in parallel, normalizes
what it finds into a single resource inventory, and hunts down zombies:
orphaned disks, unused static IPs and inactive buckets that are billed
but do nothing.

All scans are read-only. Partial results are first-class: a project you
cannot read never hides the ones you can.`,
		Version: version,
	}
)

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file")
	rootCmd.SetVersionTemplate(`Skywalker {{.Version}} - GCP Fleet Auditor
`)
}
