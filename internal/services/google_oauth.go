package services

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/idtoken"

	types "github.com/yungbote/sololev-backend/internal/domain"
)

// ExternalIdentity is what a provider tells us about the signed-in account.
type ExternalIdentity struct {
	Provider      string
	Sub           string
	Email         string
	EmailVerified bool
	Name          string
	Picture       string
}

type GoogleOAuth interface {
	AuthCodeURL(state string) string
	// Exchange trades an authorization code for the account's verified identity.
	Exchange(ctx context.Context, code string) (*ExternalIdentity, error)
	// VerifyIDToken validates an ID token minted for any configured client.
	VerifyIDToken(ctx context.Context, rawIDToken string) (*ExternalIdentity, error)
}

type GoogleOAuthConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	// ExtraAudiences are client ids of native apps whose ID tokens we accept.
	ExtraAudiences []string
}

type idTokenValidator func(ctx context.Context, token, audience string) (*idtoken.Payload, error)

type googleOAuth struct {
	cfg       *oauth2.Config
	audiences []string
	validate  idTokenValidator
}

func NewGoogleOAuth(cfg GoogleOAuthConfig) (GoogleOAuth, error) {
	if strings.TrimSpace(cfg.ClientID) == "" {
		return nil, fmt.Errorf("GOOGLE_CLIENT_ID is required")
	}
	audiences := []string{cfg.ClientID}
	for _, a := range cfg.ExtraAudiences {
		if a = strings.TrimSpace(a); a != "" {
			audiences = append(audiences, a)
		}
	}
	return &googleOAuth{
		cfg: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint:     google.Endpoint,
			Scopes:       []string{"openid", "profile", "email"},
		},
		audiences: audiences,
		validate:  idtoken.Validate,
	}, nil
}

func (g *googleOAuth) AuthCodeURL(state string) string {
	return g.cfg.AuthCodeURL(state, oauth2.AccessTypeOnline, oauth2.SetAuthURLParam("prompt", "select_account"))
}

func (g *googleOAuth) Exchange(ctx context.Context, code string) (*ExternalIdentity, error) {
	tok, err := g.cfg.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: exchange code: %v", ErrInvalidCredential, err)
	}
	raw, _ := tok.Extra("id_token").(string)
	if raw == "" {
		return nil, fmt.Errorf("%w: token response has no id_token", ErrInvalidCredential)
	}
	return g.VerifyIDToken(ctx, raw)
}

func (g *googleOAuth) VerifyIDToken(ctx context.Context, rawIDToken string) (*ExternalIdentity, error) {
	rawIDToken = strings.TrimSpace(rawIDToken)
	if rawIDToken == "" {
		return nil, fmt.Errorf("%w: id_token is required", ErrInvalidArgument)
	}
	var lastErr error
	for _, aud := range g.audiences {
		payload, err := g.validate(ctx, rawIDToken, aud)
		if err != nil {
			lastErr = err
			continue
		}
		return identityFromPayload(payload)
	}
	return nil, fmt.Errorf("%w: %v", ErrInvalidCredential, lastErr)
}

func identityFromPayload(p *idtoken.Payload) (*ExternalIdentity, error) {
	if p == nil || strings.TrimSpace(p.Subject) == "" {
		return nil, fmt.Errorf("%w: id_token has no subject", ErrInvalidCredential)
	}
	claim := func(k string) string {
		s, _ := p.Claims[k].(string)
		return strings.TrimSpace(s)
	}
	ident := &ExternalIdentity{
		Provider: types.ProviderGoogle,
		Sub:      p.Subject,
		Email:    claim("email"),
		Name:     claim("name"),
		Picture:  claim("picture"),
	}
	switch v := p.Claims["email_verified"].(type) {
	case bool:
		ident.EmailVerified = v
	case string:
		ident.EmailVerified = strings.EqualFold(v, "true")
	}
	if ident.Email == "" {
		return nil, fmt.Errorf("%w: id_token has no email", ErrInvalidCredential)
	}
	return ident, nil
}
