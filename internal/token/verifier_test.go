package token

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"

	"github.com/dropDatabas3/cognitogate/internal/jwks"
)

const (
	testIssuer   = "https://cognito-idp.eu-west-1.amazonaws.com/eu-west-1_TESTPOOL"
	testClientID = "client123"
	testKID      = "kid-1"
)

type verifierFixture struct {
	key      *rsa.PrivateKey
	verifier *Verifier
}

func newFixture(t *testing.T) *verifierFixture {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}

	n := base64.RawURLEncoding.EncodeToString(key.PublicKey.N.Bytes())
	e := base64.RawURLEncoding.EncodeToString(big.NewInt(int64(key.PublicKey.E)).Bytes())
	doc := fmt.Sprintf(`{"keys":[{"kty":"RSA","alg":"RS256","use":"sig","kid":%q,"n":%q,"e":%q}]}`, testKID, n, e)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(doc))
	}))
	t.Cleanup(srv.Close)

	cache := jwks.New(srv.URL, 5*time.Second)
	return &verifierFixture{
		key:      key,
		verifier: New(cache, testIssuer, testClientID),
	}
}

// sign emite un token RS256 con el kid del fixture y las claims dadas
// mergeadas sobre un access token válido.
func (f *verifierFixture) sign(t *testing.T, overrides map[string]any) string {
	t.Helper()
	claims := jwtv5.MapClaims{
		"iss":       testIssuer,
		"client_id": testClientID,
		"sub":       "sub-123",
		"token_use": "access",
		"exp":       time.Now().Add(time.Hour).Unix(),
		"iat":       time.Now().Add(-time.Minute).Unix(),
	}
	for k, v := range overrides {
		if v == nil {
			delete(claims, k)
			continue
		}
		claims[k] = v
	}

	tok := jwtv5.NewWithClaims(jwtv5.SigningMethodRS256, claims)
	tok.Header["kid"] = testKID
	raw, err := tok.SignedString(f.key)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return raw
}

func TestVerifyAccessToken(t *testing.T) {
	f := newFixture(t)

	claims, err := f.verifier.Verify(context.Background(), f.sign(t, nil))
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if claims.Sub() != "sub-123" {
		t.Errorf("sub = %q", claims.Sub())
	}
	if claims.TokenUse() != "access" {
		t.Errorf("token_use = %q", claims.TokenUse())
	}
}

func TestVerifyIDTokenAudience(t *testing.T) {
	f := newFixture(t)

	// Los ID tokens llevan aud en vez de client_id.
	raw := f.sign(t, map[string]any{
		"client_id": nil,
		"aud":       testClientID,
		"token_use": "id",
		"email":     "a@x.com",
	})
	claims, err := f.verifier.Verify(context.Background(), raw)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if claims.Email() != "a@x.com" {
		t.Errorf("email = %q", claims.Email())
	}
}

func TestVerifyRejections(t *testing.T) {
	f := newFixture(t)

	cases := []struct {
		name    string
		token   func(t *testing.T) string
		wantErr error
	}{
		{
			name:    "garbage",
			token:   func(*testing.T) string { return "not-a-jwt" },
			wantErr: ErrMalformed,
		},
		{
			name: "expired",
			token: func(t *testing.T) string {
				return f.sign(t, map[string]any{"exp": time.Now().Add(-time.Hour).Unix()})
			},
			wantErr: ErrClaimMismatch,
		},
		{
			name: "missing exp",
			token: func(t *testing.T) string {
				return f.sign(t, map[string]any{"exp": nil})
			},
			wantErr: ErrClaimMismatch,
		},
		{
			name: "wrong issuer",
			token: func(t *testing.T) string {
				return f.sign(t, map[string]any{"iss": "https://evil.example.com/pool"})
			},
			wantErr: ErrClaimMismatch,
		},
		{
			name: "wrong audience",
			token: func(t *testing.T) string {
				return f.sign(t, map[string]any{"client_id": "other-client"})
			},
			wantErr: ErrClaimMismatch,
		},
		{
			name: "missing token_use",
			token: func(t *testing.T) string {
				return f.sign(t, map[string]any{"token_use": nil})
			},
			wantErr: ErrClaimMismatch,
		},
		{
			name: "unknown kid",
			token: func(t *testing.T) string {
				tok := jwtv5.NewWithClaims(jwtv5.SigningMethodRS256, jwtv5.MapClaims{
					"iss": testIssuer, "client_id": testClientID, "sub": "s",
					"token_use": "access", "exp": time.Now().Add(time.Hour).Unix(),
				})
				tok.Header["kid"] = "kid-rotated-away"
				raw, err := tok.SignedString(f.key)
				if err != nil {
					t.Fatal(err)
				}
				return raw
			},
			wantErr: ErrUnknownKeyID,
		},
		{
			name: "missing kid header",
			token: func(t *testing.T) string {
				tok := jwtv5.NewWithClaims(jwtv5.SigningMethodRS256, jwtv5.MapClaims{
					"iss": testIssuer, "client_id": testClientID, "sub": "s",
					"token_use": "access", "exp": time.Now().Add(time.Hour).Unix(),
				})
				raw, err := tok.SignedString(f.key)
				if err != nil {
					t.Fatal(err)
				}
				return raw
			},
			wantErr: ErrUnknownKeyID,
		},
		{
			name: "alg none",
			token: func(t *testing.T) string {
				header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"none","kid":"kid-1"}`))
				payload := base64.RawURLEncoding.EncodeToString([]byte(fmt.Sprintf(
					`{"iss":%q,"client_id":%q,"sub":"s","token_use":"access","exp":%d}`,
					testIssuer, testClientID, time.Now().Add(time.Hour).Unix(),
				)))
				return header + "." + payload + "."
			},
			wantErr: ErrSignatureInvalid,
		},
		{
			name: "tampered signature",
			token: func(t *testing.T) string {
				raw := f.sign(t, nil)
				// Firmar el mismo payload con otra clave.
				other, err := rsa.GenerateKey(rand.Reader, 2048)
				if err != nil {
					t.Fatal(err)
				}
				parts := strings.Split(raw, ".")
				tok := jwtv5.New(jwtv5.SigningMethodRS256)
				sig, err := tok.Method.Sign(parts[0]+"."+parts[1], other)
				if err != nil {
					t.Fatal(err)
				}
				return parts[0] + "." + parts[1] + "." + base64.RawURLEncoding.EncodeToString(sig)
			},
			wantErr: ErrSignatureInvalid,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			claims, err := f.verifier.Verify(context.Background(), tc.token(t))
			if claims != nil {
				t.Fatal("rejected token must not return claims")
			}
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("err = %v, want %v", err, tc.wantErr)
			}
		})
	}
}

func TestVerifyExpiredIsDistinguishable(t *testing.T) {
	f := newFixture(t)

	raw := f.sign(t, map[string]any{"exp": time.Now().Add(-time.Hour).Unix()})
	_, err := f.verifier.Verify(context.Background(), raw)
	if !errors.Is(err, jwtv5.ErrTokenExpired) {
		t.Fatalf("expired token must wrap jwt.ErrTokenExpired, got %v", err)
	}
}

func TestVerifyKeyFetchFailurePassesThrough(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	v := New(jwks.New(srv.URL, 2*time.Second), testIssuer, testClientID)

	f := newFixture(t)
	_, err := v.Verify(context.Background(), f.sign(t, nil))
	if !errors.Is(err, jwks.ErrKeyFetch) {
		t.Fatalf("infrastructure failure must surface as ErrKeyFetch, got %v", err)
	}
	// Y no debe confundirse con un token inválido.
	if errors.Is(err, ErrSignatureInvalid) || errors.Is(err, ErrMalformed) {
		t.Fatalf("key fetch failure misclassified as invalid token: %v", err)
	}
}
