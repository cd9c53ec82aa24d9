package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
)

type ProviderConfig struct {
	Name        string
	Client      string
	Secret      string
	URL         string
	RedirectURL string
}

type Provider struct {
	Conf     *oauth2.Config
	Verifier *oidc.IDTokenVerifier
}

// MakeProviders discovers the OIDC endpoints of the configured providers.
// Providers with no client ID are skipped so a deployment can run without
// any OAuth login at all.
func MakeProviders(ctx context.Context, configs []ProviderConfig) (map[string]Provider, error) {
	provs := make(map[string]Provider)
	for _, cfg := range configs {
		if cfg.Client == "" {
			continue
		}

		p, err := oidc.NewProvider(ctx, cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("discovering provider %q: %w", cfg.Name, err)
		}

		provs[cfg.Name] = Provider{
			Conf: &oauth2.Config{
				ClientID:     cfg.Client,
				ClientSecret: cfg.Secret,
				RedirectURL:  cfg.RedirectURL,
				Endpoint:     p.Endpoint(),
				Scopes:       []string{oidc.ScopeOpenID, "profile", "email"},
			},
			Verifier: p.Verifier(&oidc.Config{ClientID: cfg.Client}),
		}
	}
	return provs, nil
}

type oauthIdentity struct {
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

func (p Provider) exchange(ctx context.Context, code string) (oauthIdentity, error) {
	token, err := p.Conf.Exchange(ctx, code)
	if err != nil {
		return oauthIdentity{}, fmt.Errorf("exchanging authorization code: %w", err)
	}

	raw, ok := token.Extra("id_token").(string)
	if !ok {
		return oauthIdentity{}, errors.New("token response carries no id_token")
	}

	idToken, err := p.Verifier.Verify(ctx, raw)
	if err != nil {
		return oauthIdentity{}, fmt.Errorf("verifying id_token: %w", err)
	}

	var ident oauthIdentity
	if err := idToken.Claims(&ident); err != nil {
		return oauthIdentity{}, fmt.Errorf("decoding id_token claims: %w", err)
	}

	if ident.Email == "" {
		return oauthIdentity{}, errors.New("id_token carries no email claim")
	}

	return ident, nil
}
