package compose

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jonathan/jobmarket/internal/persist"
	"github.com/jonathan/jobmarket/internal/platform"
	"github.com/jonathan/jobmarket/internal/role"
	"github.com/jonathan/jobmarket/internal/session"
	"github.com/jonathan/jobmarket/internal/types"
	"go.uber.org/zap"
)

// SessionView is the read side of the session context.
type SessionView interface {
	CurrentUser() *types.SessionIdentity
	SignedIn() bool
	Subscribe(fn session.Listener) (unsubscribe func())
}

// RoleView is the read side of the role context.
type RoleView interface {
	Current() *types.Role
	Subscribe(fn role.Listener) (unsubscribe func())
}

// Shell is the composed subtree: platform, session and role state plus the
// operations that change them. All mutations go through Shell so that the
// role is never reported without a session.
type Shell struct {
	// mu serializes compound transitions (sign-in, sign-out, role selection).
	mu sync.Mutex

	capsMu  sync.RWMutex
	variant platform.Variant
	caps    platform.Capabilities

	session *session.Context
	role    *role.Context
	token   string

	credentials persist.CredentialStore
	roles       persist.RoleStore
	auth        Authenticator
	logger      *zap.Logger

	reportsMu sync.RWMutex
	reports   []StageReport
}

func newShell(c *Composer) *Shell {
	return &Shell{
		variant:     platform.VariantWeb,
		session:     session.New(session.WithLogger(c.logger)),
		role:        role.New(),
		credentials: c.credentials,
		roles:       c.roles,
		auth:        c.auth,
		logger:      c.logger,
	}
}

// Variant returns the detected platform variant.
func (s *Shell) Variant() platform.Variant {
	s.capsMu.RLock()
	defer s.capsMu.RUnlock()
	return s.variant
}

// Capabilities returns the capability set after bridge fallbacks.
func (s *Shell) Capabilities() platform.Capabilities {
	s.capsMu.RLock()
	defer s.capsMu.RUnlock()
	return s.caps
}

// Session returns the read side of the session context.
func (s *Shell) Session() SessionView {
	return sessionView{ctx: s.session}
}

// Role returns the read side of the role context.
func (s *Shell) Role() RoleView {
	return roleView{ctx: s.role}
}

// sessionView hides the session context's transitions from callers.
type sessionView struct{ ctx *session.Context }

func (v sessionView) CurrentUser() *types.SessionIdentity  { return v.ctx.CurrentUser() }
func (v sessionView) SignedIn() bool                       { return v.ctx.SignedIn() }
func (v sessionView) Subscribe(fn session.Listener) func() { return v.ctx.Subscribe(fn) }

type roleView struct{ ctx *role.Context }

func (v roleView) Current() *types.Role              { return v.ctx.Current() }
func (v roleView) Subscribe(fn role.Listener) func() { return v.ctx.Subscribe(fn) }

// CurrentUser returns the signed-in identity, or nil.
func (s *Shell) CurrentUser() *types.SessionIdentity {
	return s.session.CurrentUser()
}

// CurrentRole returns the active role, or nil.
func (s *Shell) CurrentRole() *types.Role {
	return s.role.Current()
}

// Stages returns how each stage of the composition resolved.
func (s *Shell) Stages() []StageReport {
	s.reportsMu.RLock()
	defer s.reportsMu.RUnlock()
	out := make([]StageReport, len(s.reports))
	copy(out, s.reports)
	return out
}

// SignIn makes identity the active session without contacting the gateway.
// Only a *session.ValidationError is returned; persistence failures are logged.
func (s *Shell) SignIn(ctx context.Context, identity types.SessionIdentity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.signIn(ctx, identity, "")
}

// SignInWithProvider exchanges a provider ID token at the gateway and signs in
// with the identity it returns.
func (s *Shell) SignInWithProvider(ctx context.Context, provider, idToken string) (*types.SessionIdentity, error) {
	if s.auth == nil {
		return nil, ErrNoAuthenticator
	}

	resp, err := s.auth.Authenticate(ctx, provider, idToken)
	if err != nil {
		return nil, fmt.Errorf("%s sign-in failed: %w", provider, err)
	}
	if resp.Identity == nil {
		return nil, fmt.Errorf("%s sign-in failed: gateway returned no identity", provider)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.signIn(ctx, *resp.Identity, resp.Token); err != nil {
		return nil, err
	}
	return s.session.CurrentUser(), nil
}

func (s *Shell) signIn(ctx context.Context, identity types.SessionIdentity, token string) error {
	previous := s.session.CurrentUser()
	if err := s.session.SignIn(identity); err != nil {
		return err
	}
	s.token = token

	// A different user must not inherit the previous user's role.
	if previous != nil && previous.ID != identity.ID {
		s.role.Clear()
		s.bestEffort("clear role", s.roles.ClearRole(ctx))
	}
	if identity.Role != nil {
		// Select cannot fail: the identity passed validation.
		_ = s.role.Select(*identity.Role)
		s.bestEffort("save role", s.roles.SaveRole(ctx, *identity.Role))
	}

	s.bestEffort("save credential", s.credentials.Save(ctx, persist.Credential{
		Identity: identity,
		Token:    token,
		SavedAt:  time.Now().UTC(),
	}))
	return nil
}

// SignOut clears the role, then the session, then the persisted state.
// Calling it while signed out is a no-op apart from clearing storage.
func (s *Shell) SignOut(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.role.Clear()
	s.session.SignOut()
	s.token = ""

	s.bestEffort("clear credential", s.credentials.Clear(ctx))
	s.bestEffort("clear role", s.roles.ClearRole(ctx))
}

// SelectRole sets the active role. It requires a session.
// The role is persisted and, when the gateway supports it, synced best-effort.
func (s *Shell) SelectRole(ctx context.Context, r types.Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.session.SignedIn() {
		return ErrNotSignedIn
	}
	if err := s.role.Select(r); err != nil {
		return err
	}

	s.bestEffort("save role", s.roles.SaveRole(ctx, r))
	if syncer, ok := s.auth.(RoleSyncer); ok && s.token != "" {
		s.bestEffort("sync role", syncer.SyncRole(ctx, s.token, r))
	}
	return nil
}

// applyPlatform is the bridge stage's commit and fallback target.
func (s *Shell) applyPlatform(v platform.Variant, caps platform.Capabilities) {
	s.capsMu.Lock()
	defer s.capsMu.Unlock()
	s.variant = v
	s.caps = caps
}

// restore commits a verified credential. It bypasses persistence: the
// credential came from the store.
func (s *Shell) restore(identity types.SessionIdentity, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.session.SignIn(identity); err != nil {
		return err
	}
	s.token = token
	return nil
}

// forceUnauthenticated is the session stage fallback.
func (s *Shell) forceUnauthenticated() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.role.Clear()
	s.session.SignOut()
	s.token = ""
}

func (s *Shell) addReport(r StageReport) {
	s.reportsMu.Lock()
	defer s.reportsMu.Unlock()
	s.reports = append(s.reports, r)
}

func (s *Shell) bestEffort(action string, err error) {
	if err != nil {
		s.logger.Warn("Shell persistence failed", zap.String("action", action), zap.Error(err))
	}
}
