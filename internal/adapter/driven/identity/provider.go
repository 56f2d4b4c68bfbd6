package identity

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/oauth2"

	"github.com/diillson/energy-usage-dashboard-go/internal/domain/entity"
	"github.com/diillson/energy-usage-dashboard-go/internal/domain/repository"
	"github.com/diillson/energy-usage-dashboard-go/internal/shared/types"
)

const (
	ModeStatic = "static"
	ModeOAuth2 = "oauth2"
)

// Provider resolves the current identity and supplies the bearer token that
// the API client sends on every request.
type Provider interface {
	repository.IdentityRepository
	TokenSource() oauth2.TokenSource
}

// NewProvider cria o provedor de identidade conforme cfg.Mode.
func NewProvider(ctx context.Context, cfg types.IdentityConfig) (Provider, error) {
	switch cfg.Mode {
	case "", ModeStatic:
		return NewStaticProvider(cfg.IDToken, cfg.Issuer, cfg.ClientID), nil
	case ModeOAuth2:
		return NewOAuth2Provider(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown identity mode %q (expected %q or %q)", cfg.Mode, ModeStatic, ModeOAuth2)
	}
}

// StaticProvider usa um ID token fixo (flag, arquivo de config ou ENERGY_ID_TOKEN).
type StaticProvider struct {
	rawIDToken string
	claims     *claimsReader
}

func NewStaticProvider(rawIDToken, issuer, clientID string) *StaticProvider {
	return &StaticProvider{
		rawIDToken: rawIDToken,
		claims:     newClaimsReader(issuer, clientID),
	}
}

func (p *StaticProvider) CurrentIdentity(ctx context.Context) (entity.Identity, error) {
	return p.claims.identity(ctx, p.rawIDToken)
}

func (p *StaticProvider) TokenSource() oauth2.TokenSource {
	return oauth2.StaticTokenSource(&oauth2.Token{AccessToken: p.rawIDToken, TokenType: "Bearer"})
}

// OAuth2Provider troca o refresh token no token endpoint e usa o id_token
// devolvido como bearer. O token é renovado automaticamente ao expirar.
type OAuth2Provider struct {
	tokens oauth2.TokenSource
	claims *claimsReader
}

func NewOAuth2Provider(ctx context.Context, cfg types.IdentityConfig) (*OAuth2Provider, error) {
	if cfg.TokenURL == "" {
		return nil, errors.New("identity.token_url is required in oauth2 mode")
	}
	if cfg.RefreshToken == "" {
		return nil, errors.New("identity.refresh_token is required in oauth2 mode")
	}

	conf := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Endpoint:     oauth2.Endpoint{TokenURL: cfg.TokenURL},
		Scopes:       []string{"openid", "email", "profile"},
	}
	base := conf.TokenSource(ctx, &oauth2.Token{RefreshToken: cfg.RefreshToken})

	return &OAuth2Provider{
		tokens: oauth2.ReuseTokenSource(nil, &idTokenSource{base: base}),
		claims: newClaimsReader(cfg.Issuer, cfg.ClientID),
	}, nil
}

func (p *OAuth2Provider) CurrentIdentity(ctx context.Context) (entity.Identity, error) {
	tok, err := p.tokens.Token()
	if err != nil {
		return entity.Identity{}, fmt.Errorf("%w: %v", types.ErrNotAuthenticated, err)
	}
	return p.claims.identity(ctx, tok.AccessToken)
}

func (p *OAuth2Provider) TokenSource() oauth2.TokenSource {
	return p.tokens
}

// idTokenSource expõe o id_token da resposta do token endpoint como AccessToken.
type idTokenSource struct {
	base oauth2.TokenSource
}

func (s *idTokenSource) Token() (*oauth2.Token, error) {
	tok, err := s.base.Token()
	if err != nil {
		return nil, err
	}
	raw, ok := tok.Extra("id_token").(string)
	if !ok || raw == "" {
		return nil, errors.New("token endpoint response has no id_token")
	}
	return &oauth2.Token{
		AccessToken: raw,
		TokenType:   "Bearer",
		Expiry:      tok.Expiry,
	}, nil
}
