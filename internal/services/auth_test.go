package services

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/sololev-backend/internal/data/repos/testutil"
	types "github.com/yungbote/sololev-backend/internal/domain"
	"github.com/yungbote/sololev-backend/internal/platform/ctxutil"
	"github.com/yungbote/sololev-backend/internal/platform/dbctx"
	"github.com/yungbote/sololev-backend/internal/platform/storage"
)

type fakeGoogle struct {
	ident *ExternalIdentity
	codes []string
}

func (f *fakeGoogle) AuthCodeURL(state string) string {
	return "https://accounts.example.com/auth?state=" + url.QueryEscape(state)
}

func (f *fakeGoogle) Exchange(_ context.Context, code string) (*ExternalIdentity, error) {
	f.codes = append(f.codes, code)
	if code != "good-code" {
		return nil, ErrInvalidCredential
	}
	return f.ident, nil
}

func (f *fakeGoogle) VerifyIDToken(_ context.Context, raw string) (*ExternalIdentity, error) {
	if raw != "good-id-token" {
		return nil, ErrInvalidCredential
	}
	return f.ident, nil
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newAuth(t *testing.T, env *testEnv, google GoogleOAuth, clock *testClock) AuthService {
	t.Helper()
	offline := &http.Client{Transport: roundTripFunc(func(*http.Request) (*http.Response, error) {
		return nil, errors.New("network disabled in tests")
	})}
	avatars, err := NewAvatarService(testutil.Logger(t), env.users, storage.NewNoop(), AvatarConfig{HTTPClient: offline})
	require.NoError(t, err)
	return NewAuthService(env.db, testutil.Logger(t), env.users, env.ids, env.sessions, env.states, google, avatars, AuthConfig{
		JWTSecret:  "test-secret",
		SessionTTL: time.Hour,
		StateTTL:   time.Minute,
		Now:        clock.Now,
	})
}

func googleIdent(email string) *ExternalIdentity {
	return &ExternalIdentity{
		Provider:      types.ProviderGoogle,
		Sub:           "google-" + uuid.NewString(),
		Email:         email,
		EmailVerified: true,
		Name:          "Sung Jinwoo",
		Picture:       "https://lh3.example.com/p.jpg",
	}
}

func TestLoginWithIdentityFindsOrCreates(t *testing.T) {
	env := newTestEnv(t)
	clock := &testClock{now: noon}
	auth := newAuth(t, env, nil, clock)
	ctx := context.Background()

	ident := googleIdent("  Hunter@Example.com ")
	first, err := auth.LoginWithIdentity(ctx, ident, "ios")
	require.NoError(t, err)
	assert.Equal(t, "hunter@example.com", first.User.Email)
	assert.Equal(t, "Sung Jinwoo", first.User.Name)
	assert.Equal(t, "https://lh3.example.com/p.jpg", first.User.AvatarURL)
	assert.Equal(t, noon.Add(time.Hour), first.ExpiresAt)

	second, err := auth.LoginWithIdentity(ctx, ident, "android")
	require.NoError(t, err)
	assert.Equal(t, first.User.ID, second.User.ID)
	assert.NotEqual(t, first.Token, second.Token, "each login gets its own session")

	links, err := env.ids.GetByUserIDs(dbctx.Context{Ctx: ctx}, []uuid.UUID{first.User.ID})
	require.NoError(t, err)
	assert.Len(t, links, 1)
}

func TestLoginWithIdentityLinksVerifiedEmail(t *testing.T) {
	env := newTestEnv(t)
	auth := newAuth(t, env, nil, &testClock{now: noon})
	ctx := context.Background()
	existing := testutil.SeedUser(t, ctx, env.db, "linked@example.com")

	issued, err := auth.LoginWithIdentity(ctx, googleIdent("linked@example.com"), "")
	require.NoError(t, err)
	assert.Equal(t, existing.ID, issued.User.ID)

	unverified := googleIdent("linked@example.com")
	unverified.EmailVerified = false
	_, err = auth.LoginWithIdentity(ctx, unverified, "")
	require.ErrorIs(t, err, ErrInvalidCredential)
}

func TestSessionTokenLifecycle(t *testing.T) {
	env := newTestEnv(t)
	clock := &testClock{now: noon}
	auth := newAuth(t, env, nil, clock)
	ctx := context.Background()

	issued, err := auth.LoginWithIdentity(ctx, googleIdent(uuid.NewString()+"@example.com"), "")
	require.NoError(t, err)

	user, err := auth.VerifyToken(ctx, issued.Token)
	require.NoError(t, err)
	assert.Equal(t, issued.User.ID, user.ID)

	authed, err := auth.SetContextFromToken(ctx, issued.Token)
	require.NoError(t, err)
	rd := ctxutil.GetRequestData(authed)
	require.NotNil(t, rd)
	assert.Equal(t, issued.User.ID, rd.UserID)
	assert.Equal(t, issued.Token, rd.TokenString)
	assert.NotEqual(t, uuid.Nil, rd.SessionID)

	_, err = auth.VerifyToken(ctx, "")
	require.ErrorIs(t, err, ErrInvalidCredential)
	_, err = auth.VerifyToken(ctx, issued.Token+"x")
	require.ErrorIs(t, err, ErrInvalidCredential)
	assert.NotErrorIs(t, err, ErrSessionExpired)

	require.NoError(t, auth.Logout(ctx, issued.Token))
	_, err = auth.VerifyToken(ctx, issued.Token)
	require.ErrorIs(t, err, ErrSessionExpired)
	require.NoError(t, auth.Logout(ctx, issued.Token), "logout is idempotent")
	require.NoError(t, auth.Logout(ctx, ""))
}

func TestSessionExpiry(t *testing.T) {
	env := newTestEnv(t)
	clock := &testClock{now: noon}
	auth := newAuth(t, env, nil, clock)
	ctx := context.Background()

	issued, err := auth.LoginWithIdentity(ctx, googleIdent(uuid.NewString()+"@example.com"), "")
	require.NoError(t, err)

	clock.Advance(2 * time.Hour)
	_, err = auth.VerifyToken(ctx, issued.Token)
	require.ErrorIs(t, err, ErrSessionExpired)

	require.NoError(t, auth.PurgeExpired(ctx))
	sessions, err := env.sessions.GetByTokenHashes(dbctx.Context{Ctx: ctx}, []string{types.HashToken(issued.Token)})
	require.NoError(t, err)
	assert.Empty(t, sessions)
}

func TestTokenFromAnotherSecretIsRejected(t *testing.T) {
	env := newTestEnv(t)
	clock := &testClock{now: noon}
	auth := newAuth(t, env, nil, clock)
	other := NewAuthService(env.db, testutil.Logger(t), env.users, env.ids, env.sessions, env.states, nil, nil, AuthConfig{JWTSecret: "other", Now: clock.Now})
	ctx := context.Background()

	issued, err := other.LoginWithIdentity(ctx, googleIdent(uuid.NewString()+"@example.com"), "")
	require.NoError(t, err)
	_, err = auth.VerifyToken(ctx, issued.Token)
	require.ErrorIs(t, err, ErrInvalidCredential)
}

func TestGoogleRedirectFlow(t *testing.T) {
	env := newTestEnv(t)
	clock := &testClock{now: noon}
	google := &fakeGoogle{ident: googleIdent(uuid.NewString() + "@example.com")}
	auth := newAuth(t, env, google, clock)
	ctx := context.Background()

	consent, err := auth.BeginGoogleAuth(ctx)
	require.NoError(t, err)
	u, err := url.Parse(consent)
	require.NoError(t, err)
	state := u.Query().Get("state")
	require.NotEmpty(t, state)

	_, err = auth.CompleteGoogleAuth(ctx, "", "good-code", "")
	require.ErrorIs(t, err, ErrInvalidArgument)

	issued, err := auth.CompleteGoogleAuth(ctx, state, "good-code", "")
	require.NoError(t, err)
	assert.Equal(t, strings.ToLower(google.ident.Email), issued.User.Email)

	_, err = auth.CompleteGoogleAuth(ctx, state, "good-code", "")
	require.ErrorIs(t, err, ErrInvalidCredential, "state is single use")
	assert.Len(t, google.codes, 1, "a reused state never reaches the provider")

	consent, err = auth.BeginGoogleAuth(ctx)
	require.NoError(t, err)
	u, _ = url.Parse(consent)
	clock.Advance(2 * time.Minute)
	_, err = auth.CompleteGoogleAuth(ctx, u.Query().Get("state"), "good-code", "")
	require.ErrorIs(t, err, ErrInvalidCredential, "expired state")
}

func TestLoginWithGoogleIDToken(t *testing.T) {
	env := newTestEnv(t)
	google := &fakeGoogle{ident: googleIdent(uuid.NewString() + "@example.com")}
	auth := newAuth(t, env, google, &testClock{now: noon})
	ctx := context.Background()

	issued, err := auth.LoginWithGoogleIDToken(ctx, "good-id-token", "")
	require.NoError(t, err)
	assert.NotEmpty(t, issued.Token)

	_, err = auth.LoginWithGoogleIDToken(ctx, "forged", "")
	require.ErrorIs(t, err, ErrInvalidCredential)
}
