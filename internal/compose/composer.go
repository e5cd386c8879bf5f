// Package compose initializes the app shell: platform bridge, then session
// restoration, then role restoration, each with a documented fallback.
package compose

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonathan/jobmarket/internal/persist"
	"github.com/jonathan/jobmarket/internal/platform"
	"github.com/jonathan/jobmarket/internal/types"
	"go.uber.org/zap"
)

// Stage names of the default chain.
const (
	StageBridge  = "bridge"
	StageSession = "session"
	StageRole    = "role"
)

// Bridge initializes the platform bridge for a detected variant.
// Failures should be *platform.BridgeUnavailableError naming the affected capabilities.
type Bridge interface {
	Init(ctx context.Context, variant platform.Variant) error
}

// CredentialVerifier checks a persisted credential before it is restored and
// returns the identity to sign in with.
type CredentialVerifier interface {
	Verify(ctx context.Context, cred persist.Credential) (*types.SessionIdentity, error)
}

// VerifierFunc adapts a function to CredentialVerifier.
type VerifierFunc func(ctx context.Context, cred persist.Credential) (*types.SessionIdentity, error)

// Verify implements CredentialVerifier.
func (f VerifierFunc) Verify(ctx context.Context, cred persist.Credential) (*types.SessionIdentity, error) {
	return f(ctx, cred)
}

// Authenticator exchanges a provider ID token for a session at the gateway.
type Authenticator interface {
	Authenticate(ctx context.Context, provider, idToken string) (*types.AuthResponse, error)
}

// RoleSyncer is implemented by authenticators that can store the role server-side.
type RoleSyncer interface {
	SyncRole(ctx context.Context, token string, role types.Role) error
}

// Config wires the composer's collaborators. Only Probe is needed for a
// meaningful platform; every other field has an in-memory or no-op default.
type Config struct {
	Probe       platform.HostProbe
	Bridge      Bridge
	Credentials persist.CredentialStore
	Roles       persist.RoleStore
	Verifier    CredentialVerifier
	Auth        Authenticator
	Logger      *zap.Logger
}

// Composer runs the provider chain. A Composer corresponds to one host
// lifetime: its detector caches the variant across compositions.
type Composer struct {
	detector    *platform.Detector
	bridge      Bridge
	credentials persist.CredentialStore
	roles       persist.RoleStore
	verifier    CredentialVerifier
	auth        Authenticator
	logger      *zap.Logger
	chain       *Chain
}

// New creates a Composer running the default bridge -> session -> role chain.
func New(cfg Config) *Composer {
	c := &Composer{
		detector:    platform.NewDetector(cfg.Probe),
		bridge:      cfg.Bridge,
		credentials: cfg.Credentials,
		roles:       cfg.Roles,
		verifier:    cfg.Verifier,
		auth:        cfg.Auth,
		logger:      cfg.Logger,
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	if c.credentials == nil || c.roles == nil {
		mem := persist.NewMemoryStore()
		if c.credentials == nil {
			c.credentials = mem
		}
		if c.roles == nil {
			c.roles = mem
		}
	}

	chain, err := NewChain(c.bridgeStage(), c.sessionStage(), c.roleStage())
	if err != nil {
		// The default chain is static; a failure here is a programming error.
		panic(err)
	}
	c.chain = chain
	return c
}

// WithChain returns a copy of c that runs chain instead of the default one.
func (c *Composer) WithChain(chain *Chain) *Composer {
	cp := *c
	cp.chain = chain
	return &cp
}

// Chain returns the chain the composer runs.
func (c *Composer) Chain() *Chain {
	return c.chain
}

// Compose runs every stage in order and returns the initialized shell.
// Stage failures degrade to their fallbacks and never surface here; the only
// error is ErrTornDown, when ctx ends first. Results of a stage still in flight
// at teardown are discarded.
func (c *Composer) Compose(ctx context.Context) (*Shell, error) {
	shell := newShell(c)
	start := time.Now()

	for i, st := range c.chain.stages {
		state, err := c.runStage(ctx, shell, st)
		if state == StateDiscarded {
			for _, rest := range c.chain.stages[i+1:] {
				shell.addReport(StageReport{Name: rest.Name, State: StatePending})
			}
			c.logger.Info("Composition torn down",
				zap.String("stage", st.Name), zap.Error(err))
			return nil, fmt.Errorf("%w: stage %s: %v", ErrTornDown, st.Name, err)
		}
	}

	c.logger.Info("Shell composed",
		zap.String("variant", string(shell.Variant())),
		zap.String("capabilities", shell.Capabilities().String()),
		zap.Bool("signed_in", shell.session.SignedIn()),
		zap.Duration("elapsed", time.Since(start)))
	return shell, nil
}

type stageResult struct {
	commit func()
	err    error
}

// runStage runs one stage's Init to resolution and applies its commit or fallback.
func (c *Composer) runStage(ctx context.Context, shell *Shell, st Stage) (StageState, error) {
	start := time.Now()
	report := func(state StageState, err error) (StageState, error) {
		shell.addReport(StageReport{Name: st.Name, State: state, Err: err, Duration: time.Since(start)})
		return state, err
	}

	if err := ctx.Err(); err != nil {
		return report(StateDiscarded, err)
	}

	done := make(chan stageResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- stageResult{err: fmt.Errorf("stage %s panicked: %v", st.Name, r)}
			}
		}()
		commit, err := st.Init(ctx, shell)
		done <- stageResult{commit: commit, err: err}
	}()

	var res stageResult
	select {
	case <-ctx.Done():
		return report(StateDiscarded, ctx.Err())
	case res = <-done:
	}
	if err := ctx.Err(); err != nil {
		return report(StateDiscarded, err)
	}

	if res.err != nil {
		if st.Fallback != nil {
			st.Fallback(ctx, shell, res.err)
		}
		if errors.Is(res.err, ErrSkipped) {
			c.logger.Debug("Stage skipped", zap.String("stage", st.Name), zap.Error(res.err))
			return report(StateSkipped, res.err)
		}
		c.logger.Warn("Stage degraded", zap.String("stage", st.Name), zap.Error(res.err))
		return report(StateDegraded, res.err)
	}

	if res.commit != nil {
		res.commit()
	}
	return report(StateReady, nil)
}

// bridgeStage detects the variant, resolves its capabilities and initializes
// the bridge. A failing bridge disables the capabilities that depend on it.
func (c *Composer) bridgeStage() Stage {
	return Stage{
		Name: StageBridge,
		Init: func(ctx context.Context, shell *Shell) (func(), error) {
			variant := c.detector.Detect()
			caps := platform.Resolve(variant)

			if c.bridge != nil {
				if err := c.bridge.Init(ctx, variant); err != nil {
					var bridgeErr *platform.BridgeUnavailableError
					if !errors.As(err, &bridgeErr) {
						err = &platform.BridgeUnavailableError{Variant: variant, Cause: err}
					}
					return nil, err
				}
			}

			return func() { shell.applyPlatform(variant, caps) }, nil
		},
		Fallback: func(_ context.Context, shell *Shell, err error) {
			var bridgeErr *platform.BridgeUnavailableError
			if !errors.As(err, &bridgeErr) {
				shell.applyPlatform(c.detector.Detect(), platform.Capabilities{})
				return
			}
			caps := platform.Resolve(bridgeErr.Variant).Without(bridgeErr.Capabilities...)
			shell.applyPlatform(bridgeErr.Variant, caps)
		},
	}
}
