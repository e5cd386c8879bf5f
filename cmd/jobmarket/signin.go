package main

import (
	"errors"
	"fmt"

	"github.com/jonathan/jobmarket/internal/client"
	"github.com/jonathan/jobmarket/internal/compose"
	"github.com/jonathan/jobmarket/internal/config"
	"github.com/jonathan/jobmarket/internal/observability"
	"github.com/jonathan/jobmarket/internal/types"
	"github.com/spf13/cobra"
)

var (
	signinProvider string
	signinIDToken  string
	signinLocalID  string
	signinName     string
	signinEmail    string
	signinRole     string
)

var signinCmd = &cobra.Command{
	Use:   "signin",
	Short: "Sign in through the gateway or with a local identity",
	Long: `Sign in by exchanging a provider ID token at the gateway:

  jobmarket signin --provider line --id-token <token>

or, for offline use, with a local identity that never reaches the gateway:

  jobmarket signin --local-id u-123 --name Aiko --role seeker`,
	Args: cobra.NoArgs,
	RunE: runSignin,
}

func init() {
	flags := signinCmd.Flags()
	flags.StringVar(&signinProvider, "provider", "", "Sign-in provider (google or line)")
	flags.StringVar(&signinIDToken, "id-token", "", "Provider ID token")
	flags.StringVar(&signinLocalID, "local-id", "", "Sign in locally with this identity ID")
	flags.StringVar(&signinName, "name", "", "Display name of the local identity")
	flags.StringVar(&signinEmail, "email", "", "Email of the local identity")
	flags.StringVar(&signinRole, "role", "", "Role of the local identity (seeker or employer)")
	signinCmd.MarkFlagsMutuallyExclusive("id-token", "local-id")
	signinCmd.MarkFlagsOneRequired("id-token", "local-id")
	rootCmd.AddCommand(signinCmd)
}

func localIdentity() (types.SessionIdentity, error) {
	identity := types.SessionIdentity{
		ID:          signinLocalID,
		DisplayName: types.StringPtr(signinName),
		Email:       types.StringPtr(signinEmail),
	}
	if signinRole != "" {
		r, err := types.ParseRole(signinRole)
		if err != nil {
			return identity, err
		}
		identity.Role = &r
	}
	return identity, nil
}

func runSignin(cmd *cobra.Command, _ []string) error {
	provider := settings.Provider
	if cmd.Flags().Changed("provider") {
		provider = signinProvider
	}
	if signinIDToken != "" && !config.KnownProvider(provider) {
		return fmt.Errorf("unknown provider %q", provider)
	}

	return withShell(cmd.Context(), false, func(shell *compose.Shell) error {
		if signinIDToken != "" {
			if _, err := shell.SignInWithProvider(cmd.Context(), provider, signinIDToken); err != nil {
				return friendly(err)
			}
		} else {
			identity, err := localIdentity()
			if err != nil {
				return err
			}
			if err := shell.SignIn(cmd.Context(), identity); err != nil {
				return err
			}
		}

		observability.NewPrinter(cmd.OutOrStdout()).PrintSession(shell.CurrentUser(), shell.CurrentRole())
		return nil
	})
}

// friendly rewrites shell errors for the terminal.
func friendly(err error) error {
	switch {
	case errors.Is(err, compose.ErrNotSignedIn):
		return fmt.Errorf("not signed in; run 'jobmarket signin' first")
	case client.IsUnauthorized(err):
		return fmt.Errorf("the gateway rejected the ID token: %w", err)
	}
	return err
}
