package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "cyclecast",
		Short:         "Menstrual cycle phase, fertility and period forecasts",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.AddCommand(
		newServeCommand(),
		newPhaseCommand(),
		newForecastCommand(),
		newFlowCommand(),
		newResetPasswordCommand(),
	)
	return root
}
