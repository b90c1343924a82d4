// Package jwtauth verifies Auth0-issued RS256 access tokens and guards
// aircraft registry writes.
package jwtauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// PermissionWriteAircraft allows creating, replacing and deleting aircraft
// profiles.
const PermissionWriteAircraft = "write:aircraft"

// Claims represents the JWT claims from Auth0.
type Claims struct {
	jwt.RegisteredClaims
	Permissions []string `json:"permissions,omitempty"`
}

// HasPermission checks if the token grants a specific permission.
func (c *Claims) HasPermission(perm string) bool {
	return slices.Contains(c.Permissions, perm)
}

// Config holds Auth0 JWT verification configuration.
type Config struct {
	Domain   string // e.g., "your-tenant.auth0.com"
	Audience string
}

// Verifier handles JWT verification using Auth0.
type Verifier struct {
	issuer   string
	audience string
	keys     KeySource
	logger   *slog.Logger
}

// KeySource looks up RSA verification keys by key ID.
type KeySource interface {
	GetKey(ctx context.Context, kid string) (any, error)
}

// NewVerifier creates a verifier that fetches keys from the tenant's JWKS
// endpoint.
func NewVerifier(cfg Config, logger *slog.Logger) (*Verifier, error) {
	if cfg.Domain == "" {
		return nil, errors.New("domain is required")
	}
	if cfg.Audience == "" {
		return nil, errors.New("audience is required")
	}

	domain := strings.TrimPrefix(cfg.Domain, "https://")
	domain = strings.TrimPrefix(domain, "http://")
	domain = strings.TrimSuffix(domain, "/")

	cache := NewJWKSCache(fmt.Sprintf("https://%s/.well-known/jwks.json", domain), logger)
	return NewVerifierWithKeys(fmt.Sprintf("https://%s/", domain), cfg.Audience, cache, logger), nil
}

// NewVerifierWithKeys creates a verifier with an explicit key source.
func NewVerifierWithKeys(issuer, audience string, keys KeySource, logger *slog.Logger) *Verifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Verifier{issuer: issuer, audience: audience, keys: keys, logger: logger}
}

// Verify verifies a JWT token and returns the claims.
func (v *Verifier) Verify(ctx context.Context, tokenString string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		kid, ok := token.Header["kid"].(string)
		if !ok {
			return nil, errors.New("missing kid in token header")
		}
		return v.keys.GetKey(ctx, kid)
	},
		jwt.WithValidMethods([]string{"RS256"}),
		jwt.WithIssuer(v.issuer),
		jwt.WithAudience(v.audience),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	return claims, nil
}

type contextKey string

const ClaimsContextKey contextKey = "jwtclaims"

// GetClaims retrieves JWT claims from the request context.
func GetClaims(ctx context.Context) *Claims {
	claims, _ := ctx.Value(ClaimsContextKey).(*Claims)
	return claims
}

// Require returns middleware that admits only requests carrying a valid
// bearer token with the given permission.
//
// Error responses:
//   - 401 Unauthorized: missing, malformed or invalid token
//   - 403 Forbidden: valid token without the permission
func (v *Verifier) Require(permission string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeAuthError(w, http.StatusUnauthorized, "missing authorization header")
				return
			}

			scheme, token, ok := strings.Cut(authHeader, " ")
			if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
				writeAuthError(w, http.StatusUnauthorized, "invalid authorization header format")
				return
			}

			claims, err := v.Verify(r.Context(), strings.TrimSpace(token))
			if err != nil {
				v.logger.Warn("JWT verification failed", slog.Any("error", err))
				writeAuthError(w, http.StatusUnauthorized, "invalid token")
				return
			}

			if !claims.HasPermission(permission) {
				writeAuthError(w, http.StatusForbidden, "missing permission "+permission)
				return
			}

			ctx := context.WithValue(r.Context(), ClaimsContextKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func writeAuthError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]string{
			"message": message,
			"type":    "authentication_error",
		},
	})
}

// JWKSCache caches JWKS keys from Auth0.
type JWKSCache struct {
	url        string
	mu         sync.RWMutex
	keys       map[string]any // kid -> public key
	lastFetch  time.Time
	cacheTTL   time.Duration
	httpClient *http.Client
	logger     *slog.Logger
}

// NewJWKSCache creates a new JWKS cache.
func NewJWKSCache(jwksURL string, logger *slog.Logger) *JWKSCache {
	if logger == nil {
		logger = slog.Default()
	}
	return &JWKSCache{
		url:      jwksURL,
		keys:     make(map[string]any),
		cacheTTL: 10 * time.Minute,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: logger,
	}
}

// GetKey returns the public key for the given key ID.
func (c *JWKSCache) GetKey(ctx context.Context, kid string) (any, error) {
	c.mu.RLock()
	key, ok := c.keys[kid]
	needsRefresh := time.Since(c.lastFetch) > c.cacheTTL
	c.mu.RUnlock()

	if ok && !needsRefresh {
		return key, nil
	}

	if err := c.refresh(ctx); err != nil {
		// Keep serving the cached key while the JWKS endpoint is down.
		if ok {
			c.logger.Warn("JWKS refresh failed, using cached key", slog.Any("error", err))
			return key, nil
		}
		return nil, fmt.Errorf("failed to fetch JWKS: %w", err)
	}

	c.mu.RLock()
	key, ok = c.keys[kid]
	c.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("key %s not found in JWKS", kid)
	}

	return key, nil
}

// JWKS represents a JSON Web Key Set.
type JWKS struct {
	Keys []JWK `json:"keys"`
}

// JWK represents a JSON Web Key.
type JWK struct {
	Kty string `json:"kty"`
	Kid string `json:"kid"`
	Use string `json:"use"`
	N   string `json:"n"`
	E   string `json:"e"`
	Alg string `json:"alg"`
}

// refresh refetches the key set unless another goroutine already did so
// within the TTL.
func (c *JWKSCache) refresh(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if time.Since(c.lastFetch) < c.cacheTTL && len(c.keys) > 0 {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("JWKS endpoint returned status %d", resp.StatusCode)
	}

	var jwks JWKS
	if err := json.NewDecoder(resp.Body).Decode(&jwks); err != nil {
		return fmt.Errorf("failed to decode JWKS: %w", err)
	}

	newKeys := make(map[string]any)
	for _, key := range jwks.Keys {
		if key.Kty != "RSA" || (key.Use != "" && key.Use != "sig") {
			continue
		}

		publicKey, err := parseRSAPublicKey(key.N, key.E)
		if err != nil {
			c.logger.Warn("failed to parse RSA key", slog.String("kid", key.Kid), slog.Any("error", err))
			continue
		}

		newKeys[key.Kid] = publicKey
	}

	c.keys = newKeys
	c.lastFetch = time.Now()

	return nil
}
