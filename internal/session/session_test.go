package session

import (
	"errors"
	"sync"
	"testing"

	"github.com/jonathan/jobmarket/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recorder collects every notification a listener receives.
type recorder struct {
	mu     sync.Mutex
	events []*types.SessionIdentity
}

func (r *recorder) listen(identity *types.SessionIdentity) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, identity)
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

func TestContext_SignIn(t *testing.T) {
	c := New()
	rec := &recorder{}
	c.Subscribe(rec.listen)

	err := c.SignIn(types.SessionIdentity{ID: "u1", DisplayName: types.StringPtr("Hanako")})
	require.NoError(t, err)

	user := c.CurrentUser()
	require.NotNil(t, user)
	assert.Equal(t, "u1", user.ID)
	assert.True(t, c.SignedIn())

	require.Equal(t, 1, rec.count())
	assert.Equal(t, "u1", rec.events[0].ID)
}

func TestContext_SignIn_ValidationError(t *testing.T) {
	c := New()
	rec := &recorder{}
	c.Subscribe(rec.listen)

	err := c.SignIn(types.SessionIdentity{DisplayName: types.StringPtr("no id")})
	require.Error(t, err)

	var ve *ValidationError
	require.True(t, errors.As(err, &ve), "expected ValidationError, got %T", err)
	assert.Equal(t, "ID", ve.Field)
	assert.Equal(t, "required", ve.Message)

	assert.Nil(t, c.CurrentUser())
	assert.Zero(t, rec.count(), "a rejected sign-in must not notify")
}

func TestContext_SignIn_BlankIDIsRejected(t *testing.T) {
	c := New()
	rec := &recorder{}
	c.Subscribe(rec.listen)

	err := c.SignIn(types.SessionIdentity{ID: "   "})

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "ID", ve.Field)
	assert.Equal(t, "notblank", ve.Message)
	assert.Nil(t, c.CurrentUser())
	assert.Zero(t, rec.count())
}

func TestContext_SignIn_ValidationErrorKeepsExistingIdentity(t *testing.T) {
	c := New()
	require.NoError(t, c.SignIn(types.SessionIdentity{ID: "u1"}))

	err := c.SignIn(types.SessionIdentity{ID: "u2", Email: types.StringPtr("broken")})
	require.Error(t, err)
	assert.Equal(t, "u1", c.CurrentUser().ID)
}

func TestContext_SignIn_SameIdentityNotifiesOnce(t *testing.T) {
	c := New()
	rec := &recorder{}
	c.Subscribe(rec.listen)

	identity := types.SessionIdentity{ID: "u1", Role: types.RolePtr(types.RoleSeeker)}
	require.NoError(t, c.SignIn(identity))
	require.NoError(t, c.SignIn(identity))
	assert.Equal(t, 1, rec.count())

	identity.Role = types.RolePtr(types.RoleEmployer)
	require.NoError(t, c.SignIn(identity))
	assert.Equal(t, 2, rec.count())
}

func TestContext_SignOut_Idempotent(t *testing.T) {
	c := New()
	rec := &recorder{}
	c.Subscribe(rec.listen)

	require.NoError(t, c.SignIn(types.SessionIdentity{ID: "u1"}))
	c.SignOut()
	afterOnce := c.CurrentUser()
	c.SignOut()

	assert.Nil(t, afterOnce)
	assert.Nil(t, c.CurrentUser())
	assert.False(t, c.SignedIn())
	require.Equal(t, 2, rec.count(), "sign-in and the first sign-out only")
	assert.Nil(t, rec.events[1])
}

func TestContext_SignOut_WhenSignedOut(t *testing.T) {
	c := New()
	rec := &recorder{}
	c.Subscribe(rec.listen)

	c.SignOut()
	assert.Zero(t, rec.count())
}

func TestContext_CurrentUserIsACopy(t *testing.T) {
	c := New()
	require.NoError(t, c.SignIn(types.SessionIdentity{ID: "u1", DisplayName: types.StringPtr("Hanako")}))

	user := c.CurrentUser()
	*user.DisplayName = "mutated"
	user.ID = "u2"

	assert.Equal(t, "u1", c.CurrentUser().ID)
	assert.Equal(t, "Hanako", *c.CurrentUser().DisplayName)
}

func TestContext_Unsubscribe(t *testing.T) {
	c := New()
	rec := &recorder{}
	unsubscribe := c.Subscribe(rec.listen)

	require.NoError(t, c.SignIn(types.SessionIdentity{ID: "u1"}))
	unsubscribe()
	c.SignOut()

	assert.Equal(t, 1, rec.count())
}

func TestContext_ListenerAddedDuringNotificationMissesThatChange(t *testing.T) {
	c := New()
	late := &recorder{}

	c.Subscribe(func(*types.SessionIdentity) {
		c.Subscribe(late.listen)
	})

	require.NoError(t, c.SignIn(types.SessionIdentity{ID: "u1"}))
	assert.Zero(t, late.count(), "only listeners registered when the change started are notified")

	c.SignOut()
	assert.Equal(t, 1, late.count())
}

func TestContext_ConcurrentTransitionsDoNotInterleave(t *testing.T) {
	c := New()

	var mu sync.Mutex
	inFlight := 0
	maxInFlight := 0
	c.Subscribe(func(*types.SessionIdentity) {
		mu.Lock()
		inFlight++
		if inFlight > maxInFlight {
			maxInFlight = inFlight
		}
		mu.Unlock()

		mu.Lock()
		inFlight--
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			_ = c.SignIn(types.SessionIdentity{ID: string(rune('a' + i%26))})
		}(i)
		go func() {
			defer wg.Done()
			c.SignOut()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxInFlight)
}
