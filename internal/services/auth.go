package services

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/sololev-backend/internal/data/repos"
	types "github.com/yungbote/sololev-backend/internal/domain"
	"github.com/yungbote/sololev-backend/internal/normalization"
	"github.com/yungbote/sololev-backend/internal/platform/ctxutil"
	"github.com/yungbote/sololev-backend/internal/platform/dbctx"
	"github.com/yungbote/sololev-backend/internal/platform/logger"
)

const tokenIssuer = "sololev"

var (
	ErrSessionExpired = fmt.Errorf("%w: session expired or revoked", ErrInvalidCredential)
	ErrUnknownUser    = fmt.Errorf("%w: user not found", ErrInvalidCredential)
)

type IssuedSession struct {
	Token     string
	ExpiresAt time.Time
	User      *types.User
}

type AuthService interface {
	// BeginGoogleAuth records a single-use state and returns the consent URL.
	BeginGoogleAuth(ctx context.Context) (string, error)
	CompleteGoogleAuth(ctx context.Context, state, code, userAgent string) (*IssuedSession, error)
	LoginWithGoogleIDToken(ctx context.Context, idToken, userAgent string) (*IssuedSession, error)
	LoginWithIdentity(ctx context.Context, ident *ExternalIdentity, userAgent string) (*IssuedSession, error)
	SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error)
	VerifyToken(ctx context.Context, tokenString string) (*types.User, error)
	Logout(ctx context.Context, tokenString string) error
	PurgeExpired(ctx context.Context) error
	SessionTTL() time.Duration
}

type AuthConfig struct {
	JWTSecret  string
	SessionTTL time.Duration
	StateTTL   time.Duration
	Now        func() time.Time
}

type authService struct {
	db            *gorm.DB
	log           *logger.Logger
	userRepo      repos.UserRepo
	identityRepo  repos.UserIdentityRepo
	sessionRepo   repos.SessionRepo
	stateRepo     repos.OAuthStateRepo
	google        GoogleOAuth
	avatarService AvatarService
	jwtSecretKey  []byte
	sessionTTL    time.Duration
	stateTTL      time.Duration
	now           func() time.Time
}

func NewAuthService(
	db *gorm.DB,
	log *logger.Logger,
	userRepo repos.UserRepo,
	identityRepo repos.UserIdentityRepo,
	sessionRepo repos.SessionRepo,
	stateRepo repos.OAuthStateRepo,
	google GoogleOAuth,
	avatarService AvatarService,
	cfg AuthConfig,
) AuthService {
	serviceLog := log.With("service", "AuthService")
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 7 * 24 * time.Hour
	}
	if cfg.StateTTL <= 0 {
		cfg.StateTTL = 10 * time.Minute
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &authService{
		db:            db,
		log:           serviceLog,
		userRepo:      userRepo,
		identityRepo:  identityRepo,
		sessionRepo:   sessionRepo,
		stateRepo:     stateRepo,
		google:        google,
		avatarService: avatarService,
		jwtSecretKey:  []byte(cfg.JWTSecret),
		sessionTTL:    cfg.SessionTTL,
		stateTTL:      cfg.StateTTL,
		now:           func() time.Time { return cfg.Now().UTC() },
	}
}

func (as *authService) SessionTTL() time.Duration { return as.sessionTTL }

func (as *authService) BeginGoogleAuth(ctx context.Context) (string, error) {
	if as.google == nil {
		return "", fmt.Errorf("google sign-in is not configured")
	}
	state, err := randomToken(32)
	if err != nil {
		return "", err
	}
	row := &types.OAuthState{
		Provider:  types.ProviderGoogle,
		StateHash: types.HashToken(state),
		ExpiresAt: as.now().Add(as.stateTTL),
	}
	if _, err := as.stateRepo.Create(dbctx.Context{Ctx: ctx}, []*types.OAuthState{row}); err != nil {
		return "", classifyStoreError("create oauth state", err)
	}
	return as.google.AuthCodeURL(state), nil
}

func (as *authService) CompleteGoogleAuth(ctx context.Context, state, code, userAgent string) (*IssuedSession, error) {
	state, code = strings.TrimSpace(state), strings.TrimSpace(code)
	if state == "" || code == "" {
		return nil, fmt.Errorf("%w: state and code are required", ErrInvalidArgument)
	}
	if as.google == nil {
		return nil, fmt.Errorf("google sign-in is not configured")
	}
	err := as.stateRepo.Consume(dbctx.Context{Ctx: ctx}, types.ProviderGoogle, types.HashToken(state), as.now())
	if errors.Is(err, repos.ErrStateUnusable) {
		return nil, fmt.Errorf("%w: unknown, expired or reused state", ErrInvalidCredential)
	}
	if err != nil {
		return nil, classifyStoreError("consume oauth state", err)
	}
	ident, err := as.google.Exchange(ctx, code)
	if err != nil {
		return nil, err
	}
	return as.LoginWithIdentity(ctx, ident, userAgent)
}

func (as *authService) LoginWithGoogleIDToken(ctx context.Context, idToken, userAgent string) (*IssuedSession, error) {
	if as.google == nil {
		return nil, fmt.Errorf("google sign-in is not configured")
	}
	ident, err := as.google.VerifyIDToken(ctx, idToken)
	if err != nil {
		return nil, err
	}
	return as.LoginWithIdentity(ctx, ident, userAgent)
}

// LoginWithIdentity finds or creates the user behind ident and issues a session.
// Two first-time sign-ins racing on the same account collide on a unique
// index; the loser retries and finds the winner's rows.
func (as *authService) LoginWithIdentity(ctx context.Context, ident *ExternalIdentity, userAgent string) (*IssuedSession, error) {
	if ident == nil || strings.TrimSpace(ident.Sub) == "" {
		return nil, fmt.Errorf("%w: identity has no subject", ErrInvalidCredential)
	}
	var (
		issued  *IssuedSession
		created bool
		err     error
	)
	for attempt := 0; attempt < 2; attempt++ {
		issued, created, err = as.loginOnce(ctx, ident, userAgent)
		if err == nil || !isConflict(err) {
			break
		}
		as.log.Debug("Concurrent first sign-in; retrying", "provider_sub", ident.Sub)
	}
	if err != nil {
		return nil, err
	}

	if as.avatarService != nil && (created || issued.User.AvatarURL == "") {
		if aerr := as.avatarService.EnsureAvatar(ctx, issued.User, ident.Picture); aerr != nil {
			as.log.Warn("Avatar setup failed (ignored)", "user_id", issued.User.ID, "error", aerr)
		}
	}
	as.log.Info("User signed in", "user_id", issued.User.ID, "new_user", created)
	return issued, nil
}

func (as *authService) loginOnce(ctx context.Context, ident *ExternalIdentity, userAgent string) (*IssuedSession, bool, error) {
	var (
		issued  *IssuedSession
		created bool
	)
	err := as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}

		user, isNew, err := as.findOrCreateUser(dbc, ident)
		if err != nil {
			return err
		}
		created = isNew
		issued, err = as.issueSession(dbc, user, userAgent)
		return err
	})
	if err != nil {
		return nil, false, classifyTxError(err)
	}
	return issued, created, nil
}

func (as *authService) findOrCreateUser(dbc dbctx.Context, ident *ExternalIdentity) (*types.User, bool, error) {
	identities, err := as.identityRepo.GetByProviderSubs(dbc, ident.Provider, []string{ident.Sub})
	if err != nil {
		return nil, false, classifyStoreError("get identity", err)
	}
	if len(identities) > 0 {
		users, err := as.userRepo.GetByIDs(dbc, []uuid.UUID{identities[0].UserID})
		if err != nil {
			return nil, false, classifyStoreError("get user", err)
		}
		if len(users) == 0 {
			return nil, false, ErrUnknownUser
		}
		return users[0], false, nil
	}

	email := normalization.Email(ident.Email)
	if email == "" {
		return nil, false, fmt.Errorf("%w: identity has no email", ErrInvalidCredential)
	}
	existing, err := as.userRepo.GetByEmails(dbc, []string{email})
	if err != nil {
		return nil, false, classifyStoreError("get user by email", err)
	}

	var user *types.User
	isNew := false
	switch {
	case len(existing) > 0 && ident.EmailVerified:
		user = existing[0]
	case len(existing) > 0:
		return nil, false, fmt.Errorf("%w: email already registered and not verified by provider", ErrInvalidCredential)
	default:
		user = &types.User{
			Email: email,
			Name:  normalization.DisplayName(ident.Name, email),
		}
		if _, err := as.userRepo.Create(dbc, []*types.User{user}); err != nil {
			return nil, false, classifyStoreError("create user", err)
		}
		isNew = true
	}

	link := &types.UserIdentity{
		UserID:        user.ID,
		Provider:      ident.Provider,
		ProviderSub:   ident.Sub,
		Email:         email,
		EmailVerified: ident.EmailVerified,
	}
	if _, err := as.identityRepo.Create(dbc, []*types.UserIdentity{link}); err != nil {
		return nil, false, classifyStoreError("link identity", err)
	}
	return user, isNew, nil
}

func (as *authService) issueSession(dbc dbctx.Context, user *types.User, userAgent string) (*IssuedSession, error) {
	now := as.now()
	expiresAt := now.Add(as.sessionTTL)
	sessionID := uuid.New()

	claims := jwt.RegisteredClaims{
		Issuer:    tokenIssuer,
		Subject:   user.ID.String(),
		ID:        sessionID.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(as.jwtSecretKey)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}

	session := &types.Session{
		ID:        sessionID,
		UserID:    user.ID,
		TokenHash: types.HashToken(signed),
		ExpiresAt: expiresAt,
		UserAgent: truncate(userAgent, 255),
	}
	if _, err := as.sessionRepo.Create(dbc, []*types.Session{session}); err != nil {
		return nil, classifyStoreError("create session", err)
	}
	return &IssuedSession{Token: signed, ExpiresAt: expiresAt, User: user}, nil
}

func (as *authService) authenticate(ctx context.Context, tokenString string) (*types.Session, *types.User, error) {
	tokenString = strings.TrimSpace(tokenString)
	if tokenString == "" {
		return nil, nil, fmt.Errorf("%w: no token provided", ErrInvalidCredential)
	}
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return as.jwtSecretKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(as.now),
	)
	if errors.Is(err, jwt.ErrTokenExpired) {
		return nil, nil, ErrSessionExpired
	}
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidCredential, err)
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: bad subject", ErrInvalidCredential)
	}
	sessionID, err := uuid.Parse(claims.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: bad token id", ErrInvalidCredential)
	}

	dbc := dbctx.Context{Ctx: ctx}
	sessions, err := as.sessionRepo.GetByTokenHashes(dbc, []string{types.HashToken(tokenString)})
	if err != nil {
		return nil, nil, classifyStoreError("get session", err)
	}
	if len(sessions) == 0 {
		return nil, nil, ErrSessionExpired
	}
	session := sessions[0]
	if session.ID != sessionID || session.UserID != userID || !session.ExpiresAt.After(as.now()) {
		return nil, nil, ErrSessionExpired
	}

	users, err := as.userRepo.GetByIDs(dbc, []uuid.UUID{userID})
	if err != nil {
		return nil, nil, classifyStoreError("get user", err)
	}
	if len(users) == 0 {
		return nil, nil, ErrUnknownUser
	}
	return session, users[0], nil
}

func (as *authService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
	session, user, err := as.authenticate(ctx, tokenString)
	if err != nil {
		return ctx, err
	}
	return ctxutil.WithRequestData(ctx, &ctxutil.RequestData{
		TokenString: tokenString,
		UserID:      user.ID,
		SessionID:   session.ID,
	}), nil
}

func (as *authService) VerifyToken(ctx context.Context, tokenString string) (*types.User, error) {
	_, user, err := as.authenticate(ctx, tokenString)
	return user, err
}

// Logout deletes the session behind tokenString. A missing session is not an error.
func (as *authService) Logout(ctx context.Context, tokenString string) error {
	tokenString = strings.TrimSpace(tokenString)
	if tokenString == "" {
		return nil
	}
	n, err := as.sessionRepo.DeleteByTokenHashes(dbctx.Context{Ctx: ctx}, []string{types.HashToken(tokenString)})
	if err != nil {
		return classifyStoreError("delete session", err)
	}
	as.log.Debug("Logged out", "sessions_deleted", n)
	return nil
}

func (as *authService) PurgeExpired(ctx context.Context) error {
	now := as.now()
	dbc := dbctx.Context{Ctx: ctx}
	n, err := as.sessionRepo.DeleteExpired(dbc, now)
	if err != nil {
		return classifyStoreError("purge sessions", err)
	}
	if err := as.stateRepo.FullDeleteExpired(dbc, now); err != nil {
		return classifyStoreError("purge oauth states", err)
	}
	if n > 0 {
		as.log.Info("Purged expired sessions", "count", n)
	}
	return nil
}

func randomToken(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate random token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return strings.ToValidUTF8(s[:n], "")
}
