package main

import (
	"github.com/spf13/cobra"

	"github.com/terraincognita07/cyclecast/internal/cli"
	"github.com/terraincognita07/cyclecast/internal/config"
)

func newResetPasswordCommand() *cobra.Command {
	var (
		dbPath      string
		interactive bool
	)
	cmd := &cobra.Command{
		Use:   "reset-password <email>",
		Short: "Reset an account password",
		Long: "Without --interactive a temporary password is printed and must be changed on the next login.\n" +
			"With --interactive the new password is read from the terminal.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if dbPath == "" {
				cfg, err := config.LoadOffline()
				if err != nil {
					return err
				}
				dbPath = cfg.Database.Path
			}
			return cli.RunResetPasswordCommand(cli.ResetPasswordOptions{
				DBPath:      dbPath,
				Email:       args[0],
				Interactive: interactive,
			}, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite database path, defaults to the configured one")
	cmd.Flags().BoolVar(&interactive, "interactive", false, "prompt for the new password")
	return cmd
}
