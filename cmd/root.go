package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "branchpilot",
	Short: "A CLI tool for preparing and publishing automated task branches",
	Long:  `branchpilot resolves the branch an automation task should run on, then commits and pushes whatever the task changed.`,
}

func Execute() error {
	return rootCmd.Execute()
}
