package compose

import (
	"context"
	"errors"
	"testing"

	"github.com/jonathan/jobmarket/internal/platform"
	"github.com/jonathan/jobmarket/internal/role"
	"github.com/jonathan/jobmarket/internal/session"
	"github.com/jonathan/jobmarket/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func composeShell(t *testing.T, cfg Config) *Shell {
	t.Helper()
	if cfg.Probe == nil {
		cfg.Probe = platform.StaticProbe{}
	}
	shell, err := New(cfg).Compose(context.Background())
	require.NoError(t, err)
	return shell
}

func TestShell_SignInAndSelectRole(t *testing.T) {
	shell := composeShell(t, Config{})
	ctx := context.Background()

	require.NoError(t, shell.SignIn(ctx, types.SessionIdentity{ID: "u1"}))
	require.NoError(t, shell.SelectRole(ctx, types.RoleEmployer))

	assert.Equal(t, "u1", shell.CurrentUser().ID)
	assert.Equal(t, types.RoleEmployer, *shell.CurrentRole())
}

func TestShell_SignInInvalidIdentity(t *testing.T) {
	shell := composeShell(t, Config{})
	var notified int
	shell.Session().Subscribe(func(*types.SessionIdentity) { notified++ })

	err := shell.SignIn(context.Background(), types.SessionIdentity{})

	var validationErr *session.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Nil(t, shell.CurrentUser())
	assert.Zero(t, notified)
}

func TestShell_SignInBlankIDIsRejected(t *testing.T) {
	shell := composeShell(t, Config{})

	err := shell.SignIn(context.Background(), types.SessionIdentity{ID: "   "})

	var validationErr *session.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Nil(t, shell.CurrentUser())
}

func TestShell_ViewsCannotMutateState(t *testing.T) {
	shell := composeShell(t, Config{})
	ctx := context.Background()
	require.NoError(t, shell.SignIn(ctx, types.SessionIdentity{ID: "u1"}))
	require.NoError(t, shell.SelectRole(ctx, types.RoleSeeker))

	_, isSession := shell.Session().(*session.Context)
	assert.False(t, isSession)
	_, isRole := shell.Role().(*role.Context)
	assert.False(t, isRole)

	assert.True(t, shell.Session().SignedIn())
	assert.Equal(t, "u1", shell.Session().CurrentUser().ID)
	require.NotNil(t, shell.Role().Current())
	assert.Equal(t, types.RoleSeeker, *shell.Role().Current())
}

func TestShell_SignInPersistsCredential(t *testing.T) {
	store := seededStore(t, types.SessionIdentity{ID: "other"}, nil)
	require.NoError(t, store.Clear(context.Background()))
	shell := composeShell(t, Config{Credentials: store, Roles: store})

	require.NoError(t, shell.SignIn(context.Background(), types.SessionIdentity{ID: "u1"}))

	cred, err := store.Load(context.Background())
	require.NoError(t, err)
	require.NotNil(t, cred)
	assert.Equal(t, "u1", cred.Identity.ID)
	assert.False(t, cred.SavedAt.IsZero())
}

func TestShell_SelectRoleRequiresSession(t *testing.T) {
	shell := composeShell(t, Config{})

	err := shell.SelectRole(context.Background(), types.RoleSeeker)
	assert.ErrorIs(t, err, ErrNotSignedIn)
	assert.Nil(t, shell.CurrentRole())
}

func TestShell_SelectRoleRejectsUnknownRole(t *testing.T) {
	shell := composeShell(t, Config{})
	require.NoError(t, shell.SignIn(context.Background(), types.SessionIdentity{ID: "u1"}))

	err := shell.SelectRole(context.Background(), types.Role("admin"))
	assert.Error(t, err)
	assert.Nil(t, shell.CurrentRole())
}

func TestShell_SelectSameRoleNotifiesOnce(t *testing.T) {
	shell := composeShell(t, Config{})
	ctx := context.Background()
	require.NoError(t, shell.SignIn(ctx, types.SessionIdentity{ID: "u1"}))

	var notified int
	shell.Role().Subscribe(func(*types.Role) { notified++ })

	require.NoError(t, shell.SelectRole(ctx, types.RoleSeeker))
	require.NoError(t, shell.SelectRole(ctx, types.RoleSeeker))
	assert.Equal(t, 1, notified)
}

func TestShell_SignOutClearsRoleBeforeSession(t *testing.T) {
	store := seededStore(t, types.SessionIdentity{ID: "u1"}, types.RolePtr(types.RoleSeeker))
	shell := composeShell(t, Config{Credentials: store, Roles: store})
	require.NotNil(t, shell.CurrentRole())

	var events []string
	shell.Role().Subscribe(func(r *types.Role) {
		if r == nil {
			events = append(events, "role cleared")
		}
	})
	shell.Session().Subscribe(func(identity *types.SessionIdentity) {
		if identity == nil {
			// The role must already be gone when observers see the session end.
			assert.Nil(t, shell.CurrentRole())
			events = append(events, "session cleared")
		}
	})

	shell.SignOut(context.Background())

	assert.Equal(t, []string{"role cleared", "session cleared"}, events)
	assert.Nil(t, shell.CurrentUser())
	assert.Nil(t, shell.CurrentRole())

	cred, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Nil(t, cred)
	r, err := store.LoadRole(context.Background())
	require.NoError(t, err)
	assert.Nil(t, r)
}

func TestShell_SignOutTwiceIsNoOp(t *testing.T) {
	shell := composeShell(t, Config{})
	require.NoError(t, shell.SignIn(context.Background(), types.SessionIdentity{ID: "u1"}))

	var notified int
	shell.Session().Subscribe(func(*types.SessionIdentity) { notified++ })

	shell.SignOut(context.Background())
	shell.SignOut(context.Background())
	assert.Equal(t, 1, notified)
}

func TestShell_DifferentUserDoesNotInheritRole(t *testing.T) {
	shell := composeShell(t, Config{})
	ctx := context.Background()

	require.NoError(t, shell.SignIn(ctx, types.SessionIdentity{ID: "u1"}))
	require.NoError(t, shell.SelectRole(ctx, types.RoleEmployer))

	require.NoError(t, shell.SignIn(ctx, types.SessionIdentity{ID: "u1", DisplayName: types.StringPtr("Same user")}))
	require.NotNil(t, shell.CurrentRole(), "same user keeps the role")

	require.NoError(t, shell.SignIn(ctx, types.SessionIdentity{ID: "u2"}))
	assert.Nil(t, shell.CurrentRole())
}

func TestShell_SignInWithProvider(t *testing.T) {
	auth := &fakeAuth{resp: &types.AuthResponse{
		Identity: &types.SessionIdentity{ID: "line:U123", Role: types.RolePtr(types.RoleSeeker)},
		Token:    "gateway-token",
	}}
	shell := composeShell(t, Config{Auth: auth})
	ctx := context.Background()

	identity, err := shell.SignInWithProvider(ctx, "line", "id-token")
	require.NoError(t, err)
	assert.Equal(t, "line:U123", identity.ID)
	assert.Equal(t, types.RoleSeeker, *shell.CurrentRole())

	require.NoError(t, shell.SelectRole(ctx, types.RoleEmployer))
	assert.Equal(t, []types.Role{types.RoleEmployer}, auth.synced)
	assert.Equal(t, []string{"gateway-token"}, auth.tokens)
}

func TestShell_SignInWithProviderFailure(t *testing.T) {
	gatewayErr := errors.New("invalid token")
	shell := composeShell(t, Config{Auth: &fakeAuth{err: gatewayErr}})

	_, err := shell.SignInWithProvider(context.Background(), "google", "bad")
	assert.ErrorIs(t, err, gatewayErr)
	assert.Nil(t, shell.CurrentUser())
}

func TestShell_SignInWithProviderWithoutGateway(t *testing.T) {
	shell := composeShell(t, Config{})

	_, err := shell.SignInWithProvider(context.Background(), "google", "token")
	assert.ErrorIs(t, err, ErrNoAuthenticator)
}

func TestShell_PersistenceFailuresAreSwallowed(t *testing.T) {
	shell := composeShell(t, Config{Credentials: brokenStore{}, Roles: brokenStore{}})
	ctx := context.Background()

	require.NoError(t, shell.SignIn(ctx, types.SessionIdentity{ID: "u1"}))
	require.NoError(t, shell.SelectRole(ctx, types.RoleSeeker))
	shell.SignOut(ctx)

	assert.Nil(t, shell.CurrentUser())
	assert.Nil(t, shell.CurrentRole())
}

func TestShell_RoleNeverOutlivesSession(t *testing.T) {
	shell := composeShell(t, Config{})
	ctx := context.Background()

	shell.Session().Subscribe(func(identity *types.SessionIdentity) {
		if identity == nil {
			assert.Nil(t, shell.CurrentRole())
		}
	})

	for i := 0; i < 3; i++ {
		require.NoError(t, shell.SignIn(ctx, types.SessionIdentity{ID: "u1"}))
		require.NoError(t, shell.SelectRole(ctx, types.RoleSeeker))
		shell.SignOut(ctx)
	}
}
