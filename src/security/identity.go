// Package security verifies callers against the hosted identity provider
// and passes registration and login through to it.
package security

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cgscacau/yieldlab/src/logger"
	"github.com/golang-jwt/jwt/v5"
	"github.com/patrickmn/go-cache"
	"golang.org/x/crypto/blake2b"
)

var (
	ErrInvalidToken        = errors.New("invalid or expired token")
	ErrIdentityUnavailable = errors.New("identity provider unavailable")
	ErrEmailExists         = errors.New("email already registered")
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrWeakPassword        = errors.New("password too weak")
)

// Identity is the verified caller.
type Identity struct {
	UID           string `json:"uid"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"emailVerified"`
}

// TokenVerifier resolves a bearer token into the caller's identity.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*Identity, error)
}

// ProviderError is an error answer from the identity provider.
type ProviderError struct {
	StatusCode int
	Code       string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("identity provider error: %d %s", e.StatusCode, e.Code)
}

// identityAPI posts JSON to {base}/accounts:{method}?key={apiKey}.
type identityAPI struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func (a identityAPI) post(ctx context.Context, method string, body, out any) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return err
	}
	endpoint := fmt.Sprintf("%s/accounts:%s?key=%s", strings.TrimRight(a.baseURL, "/"), method, url.QueryEscape(a.apiKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrIdentityUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var envelope struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		_ = json.Unmarshal(msg, &envelope)
		// Messages look like "WEAK_PASSWORD : Password should be at least 6 characters".
		code, _, _ := strings.Cut(envelope.Error.Message, " ")
		return &ProviderError{StatusCode: resp.StatusCode, Code: code}
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// IdentityVerifier checks bearer tokens with accounts:lookup. Tokens that
// are not well-formed JWTs or are past their exp are rejected locally, and
// successful lookups are cached until the token expires.
type IdentityVerifier struct {
	api      identityAPI
	cache    *cache.Cache
	maxCache time.Duration
	now      func() time.Time
}

func NewIdentityVerifier(baseURL, apiKey string, httpClient *http.Client, cacheTTL time.Duration) *IdentityVerifier {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &IdentityVerifier{
		api:      identityAPI{baseURL: baseURL, apiKey: apiKey, httpClient: httpClient},
		cache:    cache.New(cacheTTL, 2*cacheTTL),
		maxCache: cacheTTL,
		now:      time.Now,
	}
}

func (v *IdentityVerifier) Verify(ctx context.Context, token string) (*Identity, error) {
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.ExpiresAt == nil || !claims.ExpiresAt.After(v.now()) {
		return nil, fmt.Errorf("%w: token expired", ErrInvalidToken)
	}

	key := cacheKey(token)
	if cached, found := v.cache.Get(key); found {
		return cached.(*Identity), nil
	}

	var result struct {
		Users []struct {
			LocalID       string `json:"localId"`
			Email         string `json:"email"`
			EmailVerified bool   `json:"emailVerified"`
		} `json:"users"`
	}
	if err := v.api.post(ctx, "lookup", map[string]string{"idToken": token}, &result); err != nil {
		var perr *ProviderError
		if errors.As(err, &perr) && perr.StatusCode < 500 {
			return nil, fmt.Errorf("%w: %s", ErrInvalidToken, perr.Code)
		}
		logger.FromContext(ctx).Error("Identity lookup failed", "error", err)
		if errors.Is(err, ErrIdentityUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrIdentityUnavailable, err)
	}
	if len(result.Users) == 0 {
		return nil, fmt.Errorf("%w: user not found", ErrInvalidToken)
	}

	u := result.Users[0]
	if claims.Subject != "" && claims.Subject != u.LocalID {
		return nil, fmt.Errorf("%w: subject mismatch", ErrInvalidToken)
	}
	identity := &Identity{UID: u.LocalID, Email: u.Email, EmailVerified: u.EmailVerified}

	// A zero TTL disables caching; go-cache would read 0 as "never expire".
	if v.maxCache <= 0 {
		return identity, nil
	}
	ttl := claims.ExpiresAt.Sub(v.now())
	if ttl > v.maxCache {
		ttl = v.maxCache
	}
	v.cache.Set(key, identity, ttl)
	return identity, nil
}

// Tokens are never kept in memory as-is.
func cacheKey(token string) string {
	sum := blake2b.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// AuthSession is what the provider returns after sign-up or sign-in.
type AuthSession struct {
	IDToken      string `json:"idToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    string `json:"expiresIn"`
	UID          string `json:"uid"`
	Email        string `json:"email"`
	DisplayName  string `json:"displayName"`
}

// IdentityClient registers and signs in users with email and password.
type IdentityClient struct {
	api identityAPI
}

func NewIdentityClient(baseURL, apiKey string, httpClient *http.Client) *IdentityClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &IdentityClient{api: identityAPI{baseURL: baseURL, apiKey: apiKey, httpClient: httpClient}}
}

type signResponse struct {
	IDToken      string `json:"idToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    string `json:"expiresIn"`
	LocalID      string `json:"localId"`
	Email        string `json:"email"`
	DisplayName  string `json:"displayName"`
}

// SignUp creates the account and sets its display name. An empty display
// name falls back to the local part of the email.
func (c *IdentityClient) SignUp(ctx context.Context, email, password, displayName string) (*AuthSession, error) {
	var resp signResponse
	err := c.api.post(ctx, "signUp", map[string]any{
		"email": email, "password": password, "returnSecureToken": true,
	}, &resp)
	if err != nil {
		return nil, mapProviderError(err)
	}

	if displayName == "" {
		displayName, _, _ = strings.Cut(email, "@")
	}
	err = c.api.post(ctx, "update", map[string]any{
		"idToken": resp.IDToken, "displayName": displayName, "returnSecureToken": false,
	}, nil)
	if err != nil {
		// The account exists at this point; a missing display name is not fatal.
		logger.FromContext(ctx).Warn("Failed to set display name after sign-up", "uid", resp.LocalID, "error", err)
	}

	return &AuthSession{
		IDToken:      resp.IDToken,
		RefreshToken: resp.RefreshToken,
		ExpiresIn:    resp.ExpiresIn,
		UID:          resp.LocalID,
		Email:        resp.Email,
		DisplayName:  displayName,
	}, nil
}

func (c *IdentityClient) SignIn(ctx context.Context, email, password string) (*AuthSession, error) {
	var resp signResponse
	err := c.api.post(ctx, "signInWithPassword", map[string]any{
		"email": email, "password": password, "returnSecureToken": true,
	}, &resp)
	if err != nil {
		return nil, mapProviderError(err)
	}
	displayName := resp.DisplayName
	if displayName == "" {
		displayName, _, _ = strings.Cut(email, "@")
	}
	return &AuthSession{
		IDToken:      resp.IDToken,
		RefreshToken: resp.RefreshToken,
		ExpiresIn:    resp.ExpiresIn,
		UID:          resp.LocalID,
		Email:        resp.Email,
		DisplayName:  displayName,
	}, nil
}

func mapProviderError(err error) error {
	var perr *ProviderError
	if !errors.As(err, &perr) {
		return err
	}
	switch perr.Code {
	case "EMAIL_EXISTS":
		return ErrEmailExists
	case "EMAIL_NOT_FOUND", "INVALID_PASSWORD", "INVALID_LOGIN_CREDENTIALS", "INVALID_EMAIL", "USER_DISABLED":
		return ErrInvalidCredentials
	case "WEAK_PASSWORD":
		return ErrWeakPassword
	}
	if perr.StatusCode >= 500 {
		return fmt.Errorf("%w: %v", ErrIdentityUnavailable, perr)
	}
	return err
}
