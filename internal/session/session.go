// Package session holds the authenticated identity of the running shell.
package session

import (
	"sync"

	"github.com/jonathan/jobmarket/internal/notify"
	"github.com/jonathan/jobmarket/internal/types"
	"go.uber.org/zap"
)

// Listener receives the identity after a change, or nil after sign-out.
// Listeners run synchronously inside the transition and must not start another one.
type Listener func(identity *types.SessionIdentity)

// Context owns the current SessionIdentity.
// Transitions are serialized: a change and its notifications complete before the next change starts.
type Context struct {
	transition sync.Mutex

	mu      sync.RWMutex
	current *types.SessionIdentity

	listeners notify.Registry[*types.SessionIdentity]
	logger    *zap.Logger
}

// Option configures a Context.
type Option func(*Context)

// WithLogger sets the logger used for transition debug output.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Context) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates a signed-out Context.
func New(opts ...Option) *Context {
	c := &Context{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SignIn replaces the current identity.
// A malformed identity returns a *ValidationError and leaves state untouched.
// Signing in with an identity equal to the current one does not notify.
func (c *Context) SignIn(identity types.SessionIdentity) error {
	if err := identity.Validate(); err != nil {
		return newValidationError(err)
	}

	c.transition.Lock()
	defer c.transition.Unlock()
	listeners := c.listeners.Snapshot()

	next := identity.Clone()

	c.mu.Lock()
	if c.current.Equal(next) {
		c.mu.Unlock()
		return nil
	}
	c.current = next
	c.mu.Unlock()

	c.logger.Debug("Session signed in", zap.String("user_id", next.ID))
	deliver(listeners, next)
	return nil
}

// SignOut clears the identity. Calling it while signed out is a no-op.
func (c *Context) SignOut() {
	c.transition.Lock()
	defer c.transition.Unlock()
	listeners := c.listeners.Snapshot()

	c.mu.Lock()
	if c.current == nil {
		c.mu.Unlock()
		return
	}
	userID := c.current.ID
	c.current = nil
	c.mu.Unlock()

	c.logger.Debug("Session signed out", zap.String("user_id", userID))
	deliver(listeners, nil)
}

// CurrentUser returns a copy of the current identity, or nil when signed out.
func (c *Context) CurrentUser() *types.SessionIdentity {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current.Clone()
}

// SignedIn reports whether an identity is present.
func (c *Context) SignedIn() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current != nil
}

// Subscribe registers fn for session changes and returns a function that unregisters it.
func (c *Context) Subscribe(fn Listener) (unsubscribe func()) {
	return c.listeners.Add(fn)
}

// deliver hands each listener its own copy of identity.
func deliver(listeners []func(*types.SessionIdentity), identity *types.SessionIdentity) {
	for _, fn := range listeners {
		fn(identity.Clone())
	}
}
