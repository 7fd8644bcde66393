package cmd

import (
	"github.com/spf13/cobra"
)

// Execute runs the root command.
func Execute() error {
	var root = &cobra.Command{
		Use:           "medcrew",
		Short:         "Diagnosis and treatment recommendation service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(serveCMD())
	return root.Execute()
}
