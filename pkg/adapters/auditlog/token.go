package auditlog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
)

// Credentials are posted as-is to the auth endpoint.
type Credentials struct {
	Email        string `json:"email"`
	Name         string `json:"name"`
	RollNo       string `json:"rollNo"`
	AccessCode   string `json:"accessCode"`
	ClientID     string `json:"clientID"`
	ClientSecret string `json:"clientSecret"`
}

type authResponse struct {
	TokenType   string `json:"token_type"`
	AccessToken string `json:"access_token"`
	Token       string `json:"token"`
	ExpiresIn   int64  `json:"expires_in"`
}

// tokenEarlyExpiry refreshes the cached token this long before it lapses.
const tokenEarlyExpiry = 30 * time.Second

// unixThreshold separates relative expires_in values from absolute unix times.
const unixThreshold = 1_000_000_000

// tokenSource fetches a bearer token with a JSON credentials body. It does
// no caching itself; wrap it with oauth2.ReuseTokenSourceWithExpiry.
type tokenSource struct {
	client   *http.Client
	authURL  string
	creds    Credentials
	timeout  time.Duration
	fallback time.Duration
	now      func() time.Time
}

func newCachedTokenSource(client *http.Client, authURL string, creds Credentials, timeout, fallbackTTL time.Duration, now func() time.Time) oauth2.TokenSource {
	src := &tokenSource{
		client:   client,
		authURL:  authURL,
		creds:    creds,
		timeout:  timeout,
		fallback: fallbackTTL,
		now:      now,
	}
	return oauth2.ReuseTokenSourceWithExpiry(nil, src, tokenEarlyExpiry)
}

func (s *tokenSource) Token() (*oauth2.Token, error) {
	body, err := json.Marshal(s.creds)
	if err != nil {
		return nil, fmt.Errorf("marshal credentials: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.authURL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("auth request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("auth failed: %s", resp.Status)
	}

	var data authResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("decode auth response: %w", err)
	}

	raw := data.AccessToken
	if raw == "" {
		raw = data.Token
	}
	if raw == "" {
		return nil, errors.New("auth response carried no token")
	}

	return &oauth2.Token{
		AccessToken: raw,
		TokenType:   "Bearer",
		Expiry:      s.expiry(raw, data.ExpiresIn),
	}, nil
}

// expiry prefers the JWT exp claim, then expires_in, then the fallback TTL.
func (s *tokenSource) expiry(raw string, expiresIn int64) time.Time {
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err == nil && claims.ExpiresAt != nil {
		return claims.ExpiresAt.Time
	}

	switch {
	case expiresIn > unixThreshold:
		return time.Unix(expiresIn, 0)
	case expiresIn > 0:
		return s.now().Add(time.Duration(expiresIn) * time.Second)
	default:
		return s.now().Add(s.fallback)
	}
}
