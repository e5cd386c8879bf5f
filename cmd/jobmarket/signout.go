package main

import (
	"fmt"

	"github.com/jonathan/jobmarket/internal/compose"
	"github.com/spf13/cobra"
)

var signoutCmd = &cobra.Command{
	Use:   "signout",
	Short: "Sign out and clear the stored credential and role",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withShell(cmd.Context(), false, func(shell *compose.Shell) error {
			wasSignedIn := shell.CurrentUser() != nil
			shell.SignOut(cmd.Context())
			if wasSignedIn {
				fmt.Fprintln(cmd.OutOrStdout(), "Signed out.")
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "Not signed in.")
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(signoutCmd)
}
