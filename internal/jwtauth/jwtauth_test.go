package jwtauth

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	testIssuer   = "https://tenant.auth0.com/"
	testAudience = "https://api.flightplanner.test"
	testKid      = "test-key"
)

type staticKeys map[string]any

func (s staticKeys) GetKey(_ context.Context, kid string) (any, error) {
	if k, ok := s[kid]; ok {
		return k, nil
	}
	return nil, errors.New("unknown kid")
}

func newTestKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("failed to generate key: %v", err)
	}
	return key
}

func signToken(t *testing.T, key *rsa.PrivateKey, claims Claims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = testKid
	s, err := token.SignedString(key)
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return s
}

func validClaims(perms ...string) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "auth0|pilot",
			Issuer:    testIssuer,
			Audience:  jwt.ClaimStrings{testAudience},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
		Permissions: perms,
	}
}

func TestNewVerifier(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{name: "valid config", cfg: Config{Domain: "test.auth0.com", Audience: testAudience}},
		{name: "missing domain", cfg: Config{Audience: testAudience}, wantErr: true},
		{name: "missing audience", cfg: Config{Domain: "test.auth0.com"}, wantErr: true},
		{name: "domain with https prefix", cfg: Config{Domain: "https://test.auth0.com/", Audience: testAudience}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := NewVerifier(tt.cfg, nil)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewVerifier() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && v.issuer != "https://test.auth0.com/" {
				t.Errorf("unexpected issuer %q", v.issuer)
			}
		})
	}
}

func TestClaims_HasPermission(t *testing.T) {
	claims := &Claims{Permissions: []string{"read:aircraft", PermissionWriteAircraft}}

	if !claims.HasPermission(PermissionWriteAircraft) {
		t.Error("expected HasPermission(write:aircraft) to be true")
	}
	if claims.HasPermission("delete:everything") {
		t.Error("expected HasPermission(delete:everything) to be false")
	}
}

func TestVerifier_Verify(t *testing.T) {
	key := newTestKey(t)
	v := NewVerifierWithKeys(testIssuer, testAudience, staticKeys{testKid: &key.PublicKey}, nil)

	expired := validClaims()
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Hour))

	wrongAudience := validClaims()
	wrongAudience.Audience = jwt.ClaimStrings{"https://other.example"}

	wrongIssuer := validClaims()
	wrongIssuer.Issuer = "https://evil.example/"

	noExpiry := validClaims()
	noExpiry.ExpiresAt = nil

	tests := []struct {
		name    string
		token   string
		wantErr bool
	}{
		{name: "valid", token: signToken(t, key, validClaims())},
		{name: "expired", token: signToken(t, key, expired), wantErr: true},
		{name: "wrong audience", token: signToken(t, key, wrongAudience), wantErr: true},
		{name: "wrong issuer", token: signToken(t, key, wrongIssuer), wantErr: true},
		{name: "no expiry", token: signToken(t, key, noExpiry), wantErr: true},
		{name: "signed by another key", token: signToken(t, newTestKey(t), validClaims()), wantErr: true},
		{name: "garbage", token: "not.a.jwt", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := v.Verify(context.Background(), tt.token)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Verify() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && claims.Subject != "auth0|pilot" {
				t.Errorf("unexpected subject %q", claims.Subject)
			}
		})
	}
}

func TestVerifier_Verify_RejectsHS256(t *testing.T) {
	v := NewVerifierWithKeys(testIssuer, testAudience, staticKeys{testKid: []byte("secret")}, nil)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, validClaims())
	token.Header["kid"] = testKid
	s, err := token.SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("failed to sign: %v", err)
	}

	if _, err := v.Verify(context.Background(), s); err == nil {
		t.Fatal("expected HS256 token to be rejected")
	}
}

func TestVerifier_Require(t *testing.T) {
	key := newTestKey(t)
	v := NewVerifierWithKeys(testIssuer, testAudience, staticKeys{testKid: &key.PublicKey}, nil)

	var gotClaims *Claims
	protected := v.Require(PermissionWriteAircraft)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotClaims = GetClaims(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name       string
		header     string
		wantStatus int
	}{
		{name: "missing header", header: "", wantStatus: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic abc", wantStatus: http.StatusUnauthorized},
		{name: "empty bearer", header: "Bearer ", wantStatus: http.StatusUnauthorized},
		{name: "invalid token", header: "Bearer nope", wantStatus: http.StatusUnauthorized},
		{name: "missing permission", header: "Bearer " + signToken(t, key, validClaims("read:aircraft")), wantStatus: http.StatusForbidden},
		{name: "authorized", header: "bearer " + signToken(t, key, validClaims(PermissionWriteAircraft)), wantStatus: http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotClaims = nil
			req := httptest.NewRequest(http.MethodPut, "/api/v1/aircraft/SP-KAA", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			protected.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d: %s", tt.wantStatus, rec.Code, rec.Body.String())
			}
			if tt.wantStatus == http.StatusNoContent && gotClaims == nil {
				t.Error("expected claims in request context")
			}
			if tt.wantStatus != http.StatusNoContent {
				var body struct {
					Error struct {
						Type string `json:"type"`
					} `json:"error"`
				}
				if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
					t.Fatalf("failed to decode error body: %v", err)
				}
				if body.Error.Type != "authentication_error" {
					t.Errorf("expected authentication_error, got %q", body.Error.Type)
				}
			}
		})
	}
}

func TestGetClaims_Missing(t *testing.T) {
	if GetClaims(context.Background()) != nil {
		t.Error("expected nil claims for bare context")
	}
}

func TestJWKSCache_FetchesAndCaches(t *testing.T) {
	key := newTestKey(t)
	var fetches atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fetches.Add(1)
		_ = json.NewEncoder(w).Encode(JWKS{Keys: []JWK{
			{
				Kty: "RSA",
				Kid: testKid,
				Use: "sig",
				Alg: "RS256",
				N:   base64.RawURLEncoding.EncodeToString(key.PublicKey.N.Bytes()),
				E:   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(key.PublicKey.E)).Bytes()),
			},
			{Kty: "EC", Kid: "ec-key", Use: "sig"},
		}})
	}))
	defer server.Close()

	cache := NewJWKSCache(server.URL, nil)
	ctx := context.Background()

	got, err := cache.GetKey(ctx, testKid)
	if err != nil {
		t.Fatalf("GetKey failed: %v", err)
	}
	pub, ok := got.(*rsa.PublicKey)
	if !ok || pub.N.Cmp(key.PublicKey.N) != 0 || pub.E != key.PublicKey.E {
		t.Fatalf("unexpected key: %#v", got)
	}

	if _, err := cache.GetKey(ctx, testKid); err != nil {
		t.Fatalf("cached GetKey failed: %v", err)
	}
	if _, err := cache.GetKey(ctx, "ec-key"); err == nil {
		t.Error("expected non-RSA key to be skipped")
	}
	if n := fetches.Load(); n != 1 {
		t.Errorf("expected a single JWKS fetch, got %d", n)
	}

	// End to end through the verifier.
	v := NewVerifierWithKeys(testIssuer, testAudience, cache, nil)
	if _, err := v.Verify(ctx, signToken(t, key, validClaims())); err != nil {
		t.Errorf("Verify with JWKS cache failed: %v", err)
	}
}

func TestJWKSCache_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	cache := NewJWKSCache(server.URL, nil)
	if _, err := cache.GetKey(context.Background(), testKid); err == nil {
		t.Fatal("expected error when JWKS endpoint fails")
	}
}

func TestParseRSAPublicKey_Invalid(t *testing.T) {
	if _, err := parseRSAPublicKey("!!", "AQAB"); err == nil {
		t.Error("expected error for invalid n")
	}
	if _, err := parseRSAPublicKey("AQAB", ""); err == nil {
		t.Error("expected error for empty e")
	}
}
