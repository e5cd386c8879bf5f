// Package role tracks which role (seeker or employer) the session is operating as.
package role

import (
	"fmt"
	"sync"

	"github.com/jonathan/jobmarket/internal/notify"
	"github.com/jonathan/jobmarket/internal/types"
)

// Listener receives the role after a change, or nil after it is cleared.
// Listeners run synchronously inside the transition and must not start another one.
type Listener func(role *types.Role)

// Context owns the active role. It starts with no role selected.
type Context struct {
	transition sync.Mutex

	mu      sync.RWMutex
	current *types.Role

	listeners notify.Registry[*types.Role]
}

// New creates a Context with no role selected.
func New() *Context {
	return &Context{}
}

// Select makes r the active role. Selecting the active role again is a no-op.
func (c *Context) Select(r types.Role) error {
	if !r.Valid() {
		return fmt.Errorf("cannot select role: unknown role %q", r)
	}
	c.set(&r)
	return nil
}

// Clear removes the active role. Clearing when no role is selected is a no-op.
func (c *Context) Clear() {
	c.set(nil)
}

// Current returns the active role, or nil before the first selection.
func (c *Context) Current() *types.Role {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.current == nil {
		return nil
	}
	return types.RolePtr(*c.current)
}

// Subscribe registers fn for role changes and returns a function that unregisters it.
func (c *Context) Subscribe(fn Listener) (unsubscribe func()) {
	return c.listeners.Add(fn)
}

// set stores next and notifies only if the value actually changed.
func (c *Context) set(next *types.Role) {
	c.transition.Lock()
	defer c.transition.Unlock()
	listeners := c.listeners.Snapshot()

	c.mu.Lock()
	if sameRole(c.current, next) {
		c.mu.Unlock()
		return
	}
	c.current = next
	c.mu.Unlock()

	for _, fn := range listeners {
		if next == nil {
			fn(nil)
			continue
		}
		fn(types.RolePtr(*next))
	}
}

func sameRole(a, b *types.Role) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
