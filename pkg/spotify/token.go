package spotify

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// DefaultTokenURL is Spotify's client-credentials endpoint.
const DefaultTokenURL = "https://accounts.spotify.com/api/token"

const (
	// tokenSafetyMargin is subtracted from the provider TTL so a token is
	// never used in its final minute.
	tokenSafetyMargin = 60 * time.Second
	// defaultTokenTTL applies when the provider omits expires_in.
	defaultTokenTTL = time.Hour
)

// AuthError reports a failed credential exchange. It is never fatal: the
// primary source is just unavailable for the current attempt and the next
// call tries again.
type AuthError struct {
	Err error
}

func (e *AuthError) Error() string { return "spotify auth failed: " + e.Err.Error() }

func (e *AuthError) Unwrap() error { return e.Err }

// TokenManager obtains and caches the application bearer token using the
// client-credentials flow with the id and secret sent as HTTP Basic auth.
// Failures are never cached.
type TokenManager struct {
	cfg     *clientcredentials.Config
	http    *http.Client
	timeout time.Duration
	now     func() time.Time
	logger  logrus.FieldLogger

	mu     sync.Mutex
	token  string
	expiry time.Time
}

// NewTokenManager returns a manager for the given credentials. tokenURL
// defaults to DefaultTokenURL; timeout bounds each exchange.
func NewTokenManager(clientID, clientSecret, tokenURL string, httpClient *http.Client, timeout time.Duration, logger logrus.FieldLogger) *TokenManager {
	if tokenURL == "" {
		tokenURL = DefaultTokenURL
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &TokenManager{
		cfg: &clientcredentials.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			TokenURL:     tokenURL,
			AuthStyle:    oauth2.AuthStyleInHeader,
		},
		http:    httpClient,
		timeout: timeout,
		now:     time.Now,
		logger:  logger.WithField("component", "spotify-token"),
	}
}

// Token returns the cached bearer token, exchanging credentials when the
// cached one is missing or inside its safety margin.
func (m *TokenManager) Token(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.token != "" && m.now().Before(m.expiry) {
		return m.token, nil
	}
	if m.cfg.ClientID == "" || m.cfg.ClientSecret == "" {
		return "", &AuthError{Err: errors.New("client credentials not configured")}
	}

	if m.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, m.http)

	tok, err := m.cfg.Token(ctx)
	if err != nil {
		m.logger.WithError(err).Error("credential exchange failed")
		return "", &AuthError{Err: err}
	}

	m.token = tok.AccessToken
	m.expiry = m.now().Add(tokenTTL(tok) - tokenSafetyMargin)
	m.logger.WithField("expires", m.expiry).Info("spotify token refreshed")
	return m.token, nil
}

// tokenTTL is the lifetime granted by the provider, read from the wire
// expires_in field. oauth2 stamps Expiry with the wall clock, so it is only a
// fallback when expires_in is unreadable.
func tokenTTL(tok *oauth2.Token) time.Duration {
	switch v := tok.Extra("expires_in").(type) {
	case float64:
		if v > 0 {
			return time.Duration(v) * time.Second
		}
	case string:
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			return time.Duration(n) * time.Second
		}
	}
	if !tok.Expiry.IsZero() {
		return time.Until(tok.Expiry)
	}
	return defaultTokenTTL
}

// Invalidate drops the cached token so the next call exchanges credentials
// again. It is used after the API rejects a token with 401.
func (m *TokenManager) Invalidate() {
	m.mu.Lock()
	m.token = ""
	m.expiry = time.Time{}
	m.mu.Unlock()
}
