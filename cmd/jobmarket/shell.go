package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jonathan/jobmarket/internal/client"
	"github.com/jonathan/jobmarket/internal/compose"
	"github.com/jonathan/jobmarket/internal/persist"
	"github.com/jonathan/jobmarket/internal/platform"
)

// shellEnv holds what a composition needs across one command invocation.
type shellEnv struct {
	store    *persist.SQLiteStore
	gateway  *client.Client
	remote   bool
	manifest string
}

// openShellEnv opens the state store and the gateway client. When remote is
// false, persisted credentials are only checked for expiry.
func openShellEnv(ctx context.Context, remote bool) (*shellEnv, error) {
	if settings.StorePath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(settings.StorePath), 0o700); err != nil {
			return nil, fmt.Errorf("failed to create store directory: %w", err)
		}
	}
	store, err := persist.OpenSQLiteStore(ctx, settings.StorePath)
	if err != nil {
		return nil, err
	}

	gw, err := client.New(settings.GatewayURL, client.WithLogger(logger.Named("client")))
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	return &shellEnv{store: store, gateway: gw, remote: remote, manifest: settings.ManifestPath}, nil
}

func (e *shellEnv) Close() {
	_ = e.store.Close()
}

// probe returns the manifest-backed probe when the manifest exists and the
// environment probe otherwise. The file probe doubles as the bridge.
func (e *shellEnv) probe(watching bool) (platform.HostProbe, compose.Bridge) {
	if !watching {
		if _, err := os.Stat(e.manifest); err != nil {
			return platform.NewEnvProbe(), nil
		}
	}
	fp := platform.NewFileProbe(e.manifest, logger.Named("platform"))
	return fp, fp
}

// composer builds a Composer for a fresh host lifetime.
func (e *shellEnv) composer(watching bool) *compose.Composer {
	probe, bridge := e.probe(watching)

	var verifier compose.CredentialVerifier = &client.OfflineVerifier{}
	if e.remote {
		verifier = e.gateway
	}

	return compose.New(compose.Config{
		Probe:       probe,
		Bridge:      bridge,
		Credentials: e.store,
		Roles:       e.store,
		Verifier:    verifier,
		Auth:        e.gateway,
		Logger:      logger.Named("compose"),
	})
}

// withShell composes the shell and runs fn against it.
func withShell(ctx context.Context, remote bool, fn func(*compose.Shell) error) error {
	env, err := openShellEnv(ctx, remote)
	if err != nil {
		return err
	}
	defer env.Close()

	shell, err := env.composer(false).Compose(ctx)
	if err != nil {
		return fmt.Errorf("composition failed: %w", err)
	}
	return fn(shell)
}
