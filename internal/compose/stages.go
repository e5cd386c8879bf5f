package compose

import (
	"context"
	"errors"
	"fmt"

	"github.com/jonathan/jobmarket/internal/persist"
	"github.com/jonathan/jobmarket/internal/types"
	"go.uber.org/zap"
)

// sessionStage restores the persisted credential. Any failure leaves the shell
// unauthenticated and drops the stored credential so it is not tried again.
func (c *Composer) sessionStage() Stage {
	return Stage{
		Name:      StageSession,
		DependsOn: []string{StageBridge},
		Init: func(ctx context.Context, shell *Shell) (func(), error) {
			cred, err := c.credentials.Load(ctx)
			if err != nil {
				return nil, &RestorationError{Stage: StageSession, Cause: err}
			}
			if cred == nil {
				return nil, nil
			}

			identity, err := c.verify(ctx, *cred)
			if err != nil {
				return nil, &RestorationError{Stage: StageSession, Cause: err}
			}

			token := cred.Token
			return func() {
				if err := shell.restore(*identity, token); err != nil {
					// verify already validated the identity
					c.logger.Error("Restored identity rejected", zap.Error(err))
				}
			}, nil
		},
		Fallback: func(ctx context.Context, shell *Shell, err error) {
			shell.forceUnauthenticated()
			shell.bestEffort("clear credential", c.credentials.Clear(ctx))
			shell.bestEffort("clear role", c.roles.ClearRole(ctx))
		},
	}
}

// verify runs the configured verifier, then validates the identity it returns.
func (c *Composer) verify(ctx context.Context, cred persist.Credential) (*types.SessionIdentity, error) {
	identity := cred.Identity.Clone()
	if c.verifier != nil {
		verified, err := c.verifier.Verify(ctx, cred)
		if err != nil {
			return nil, err
		}
		if verified == nil {
			return nil, errors.New("verifier returned no identity")
		}
		identity = verified
	}
	if err := identity.Validate(); err != nil {
		return nil, fmt.Errorf("persisted identity is malformed: %w", err)
	}
	return identity, nil
}

// roleStage restores the persisted role, falling back to the role carried by
// the identity. It only runs when the session stage produced a session; a
// role is never restored without one.
func (c *Composer) roleStage() Stage {
	return Stage{
		Name:      StageRole,
		DependsOn: []string{StageSession},
		Init: func(ctx context.Context, shell *Shell) (func(), error) {
			user := shell.session.CurrentUser()
			if user == nil {
				return nil, fmt.Errorf("%w: no session to restore a role for", ErrSkipped)
			}

			r, err := c.roles.LoadRole(ctx)
			if err != nil {
				return nil, &RestorationError{Stage: StageRole, Cause: err}
			}
			if r != nil && !r.Valid() {
				return nil, &RestorationError{Stage: StageRole, Cause: fmt.Errorf("unknown persisted role %q", *r)}
			}
			if r == nil {
				r = user.Role
			}
			if r == nil {
				return nil, nil
			}

			selected := *r
			return func() {
				if err := shell.role.Select(selected); err != nil {
					c.logger.Warn("Restored role rejected", zap.Error(err))
				}
			}, nil
		},
		Fallback: func(ctx context.Context, shell *Shell, err error) {
			shell.role.Clear()
			var restoreErr *RestorationError
			if errors.As(err, &restoreErr) {
				shell.bestEffort("clear role", c.roles.ClearRole(ctx))
			}
		},
	}
}
