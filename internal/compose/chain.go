package compose

import (
	"context"
	"fmt"
	"time"
)

// StageState is the resolution of one initialization stage.
type StageState string

const (
	// StatePending means the stage has not started
	StatePending StageState = "pending"
	// StateReady means Init succeeded and its result was committed
	StateReady StageState = "ready"
	// StateDegraded means Init failed and the stage's fallback was applied
	StateDegraded StageState = "degraded"
	// StateSkipped means the stage's precondition did not hold
	StateSkipped StageState = "skipped"
	// StateDiscarded means the composition was torn down before the stage resolved
	StateDiscarded StageState = "discarded"
)

// Resolved reports whether later stages may start after this one.
func (s StageState) Resolved() bool {
	return s == StateReady || s == StateDegraded || s == StateSkipped
}

// Stage is one step of the provider chain.
//
// Init may suspend on I/O but must not mutate the shell. It returns a commit
// function that the composer applies only if the composition is still alive,
// so a result arriving after teardown has no effect. A nil commit is allowed.
//
// Fallback runs when Init fails (including ErrSkipped) and must leave the shell
// in the stage's documented degraded state.
type Stage struct {
	Name      string
	DependsOn []string
	Init      func(ctx context.Context, shell *Shell) (commit func(), err error)
	Fallback  func(ctx context.Context, shell *Shell, err error)
}

// StageReport records how a stage resolved.
type StageReport struct {
	Name     string        `json:"name"`
	State    StageState    `json:"state"`
	Err      error         `json:"-"`
	Duration time.Duration `json:"duration"`
}

// Chain is an ordered list of stages. Each stage starts only after every
// earlier stage resolved.
type Chain struct {
	stages []Stage
}

// NewChain validates the declared order: names must be unique and each
// dependency must name an earlier stage.
func NewChain(stages ...Stage) (*Chain, error) {
	seen := make(map[string]bool, len(stages))
	for _, st := range stages {
		if st.Name == "" {
			return nil, fmt.Errorf("%w: stage without a name", ErrInvalidChain)
		}
		if st.Init == nil {
			return nil, fmt.Errorf("%w: stage %q has no Init", ErrInvalidChain, st.Name)
		}
		if seen[st.Name] {
			return nil, fmt.Errorf("%w: duplicate stage %q", ErrInvalidChain, st.Name)
		}
		for _, dep := range st.DependsOn {
			if !seen[dep] {
				return nil, fmt.Errorf("%w: stage %q depends on %q, which does not run before it",
					ErrInvalidChain, st.Name, dep)
			}
		}
		seen[st.Name] = true
	}
	return &Chain{stages: stages}, nil
}

// Names returns the stage names in execution order.
func (c *Chain) Names() []string {
	names := make([]string, len(c.stages))
	for i, st := range c.stages {
		names[i] = st.Name
	}
	return names
}
