package compose

import (
	"errors"
	"fmt"
)

var (
	// ErrTornDown is returned by Compose when its context ends before every stage resolved.
	ErrTornDown = errors.New("composition torn down before it completed")
	// ErrInvalidChain indicates a stage depends on a stage that does not run before it.
	ErrInvalidChain = errors.New("invalid provider chain")
	// ErrSkipped is returned by a stage Init whose precondition is not met.
	ErrSkipped = errors.New("stage skipped")
	// ErrNotSignedIn is returned by operations that need an active session.
	ErrNotSignedIn = errors.New("no active session")
	// ErrNoAuthenticator is returned by SignInWithProvider when the shell has no gateway.
	ErrNoAuthenticator = errors.New("no authenticator configured")
)

// RestorationError indicates a persisted credential or role could not be restored.
// It never escapes Compose; the stage falls back to the unauthenticated state instead.
type RestorationError struct {
	Stage string
	Cause error
}

func (e *RestorationError) Error() string {
	return fmt.Sprintf("%s restoration failed: %v", e.Stage, e.Cause)
}

func (e *RestorationError) Unwrap() error {
	return e.Cause
}
