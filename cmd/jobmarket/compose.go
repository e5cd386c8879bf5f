package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jonathan/jobmarket/internal/compose"
	"github.com/jonathan/jobmarket/internal/observability"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	composeWatch  bool
	composeRemote bool
)

var composeCmd = &cobra.Command{
	Use:   "compose",
	Short: "Compose the app shell and print its state",
	Long: `Run the provider chain (bridge, session, role) against the local state
store and print how each stage resolved. With --watch, recompose whenever the
host-marker manifest changes.`,
	Args: cobra.NoArgs,
	RunE: runCompose,
}

func init() {
	composeCmd.Flags().BoolVarP(&composeWatch, "watch", "w", false, "Recompose when the manifest changes")
	rootCmd.PersistentFlags().BoolVar(&composeRemote, "verify-remote", false, "Verify persisted credentials with the gateway")
	rootCmd.AddCommand(composeCmd)
}

func runCompose(cmd *cobra.Command, _ []string) error {
	printer := observability.NewPrinter(cmd.OutOrStdout())
	if !composeWatch {
		return withShell(cmd.Context(), composeRemote, func(shell *compose.Shell) error {
			printer.PrintShell(shell)
			return nil
		})
	}

	env, err := openShellEnv(cmd.Context(), composeRemote)
	if err != nil {
		return err
	}
	defer env.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	watcher, err := compose.NewWatcher(settings.ManifestPath,
		func() *compose.Composer { return env.composer(true) },
		func(shell *compose.Shell) {
			printer.PrintShell(shell)
			fmt.Fprintln(cmd.OutOrStdout())
		},
		logger.Named("watch"),
	)
	if err != nil {
		return err
	}
	if err := watcher.Start(ctx); err != nil {
		return err
	}
	logger.Info("watching host markers", zap.String("path", settings.ManifestPath))

	<-ctx.Done()
	watcher.Stop()
	return nil
}
