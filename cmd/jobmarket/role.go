package main

import (
	"fmt"

	"github.com/jonathan/jobmarket/internal/compose"
	"github.com/jonathan/jobmarket/internal/observability"
	"github.com/jonathan/jobmarket/internal/types"
	"github.com/spf13/cobra"
)

var roleCmd = &cobra.Command{
	Use:       "role [seeker|employer]",
	Short:     "Show or select the active role",
	Long:      `Without an argument, print the active role. With one, select it. Selecting a role requires a session.`,
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{string(types.RoleSeeker), string(types.RoleEmployer)},
	RunE:      runRole,
}

func init() {
	rootCmd.AddCommand(roleCmd)
}

func runRole(cmd *cobra.Command, args []string) error {
	var selected *types.Role
	if len(args) == 1 {
		r, err := types.ParseRole(args[0])
		if err != nil {
			return err
		}
		selected = &r
	}

	return withShell(cmd.Context(), false, func(shell *compose.Shell) error {
		if selected == nil {
			if r := shell.CurrentRole(); r != nil {
				fmt.Fprintln(cmd.OutOrStdout(), r.String())
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), "No role selected.")
			return nil
		}

		if err := shell.SelectRole(cmd.Context(), *selected); err != nil {
			return friendly(err)
		}
		observability.NewPrinter(cmd.OutOrStdout()).PrintSession(shell.CurrentUser(), shell.CurrentRole())
		return nil
	})
}
