package auth

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

func TestIdentity_Can(t *testing.T) {
	ident := &Identity{Capabilities: []string{CapView, CapEdit}}

	if !ident.Can(CapView) {
		t.Error("expected held capability to pass")
	}
	if ident.Can(CapManageAccounting) {
		t.Error("expected missing capability to fail")
	}

	admin := &Identity{Admin: true}
	if !admin.Can(CapManageAccounting) {
		t.Error("expected admin to hold every capability")
	}

	var nilIdent *Identity
	if nilIdent.Can(CapView) {
		t.Error("expected nil identity to hold nothing")
	}
}

func TestRequireCapability_Denies(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req = req.WithContext(WithIdentity(req.Context(), &Identity{Capabilities: []string{CapView}}))
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	called := false
	h := RequireCapability(CapManageEncounters)(func(c echo.Context) error {
		called = true
		return nil
	})
	if err := h(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if called {
		t.Error("handler must not run without the capability")
	}
	if rec.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"success":false`) {
		t.Errorf("expected failure envelope, got %s", rec.Body.String())
	}
}

func TestRequireCapability_AdminOverride(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req = req.WithContext(WithIdentity(req.Context(), &Identity{Admin: true}))
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	called := false
	h := RequireCapability(CapManageAccounting)(func(c echo.Context) error {
		called = true
		return nil
	})
	if err := h(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !called {
		t.Error("expected admin to pass the capability check")
	}
}

func TestNonces_IssueVerify(t *testing.T) {
	n := NewNonces("secret", time.Hour)

	tok := n.Issue(42)
	if !n.Verify(tok, 42) {
		t.Error("expected freshly issued nonce to verify")
	}
	if n.Verify(tok, 43) {
		t.Error("expected nonce bound to another user to fail")
	}
	if n.Verify("garbage", 42) {
		t.Error("expected malformed nonce to fail")
	}

	other := NewNonces("other-secret", time.Hour)
	if other.Verify(tok, 42) {
		t.Error("expected nonce signed with a different secret to fail")
	}
}

func TestNonces_Expiry(t *testing.T) {
	n := NewNonces("secret", time.Hour)
	tok := n.Issue(1)

	n.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	if n.Verify(tok, 1) {
		t.Error("expected expired nonce to fail")
	}
}

func TestRequireNonce_LegacyFields(t *testing.T) {
	n := NewNonces("secret", time.Hour)
	tok := n.Issue(7)
	e := echo.New()

	for _, field := range []string{"nonce", "security"} {
		form := strings.NewReader(field + "=" + tok)
		req := httptest.NewRequest(http.MethodPost, "/", form)
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
		req = req.WithContext(WithIdentity(req.Context(), &Identity{UserID: 7}))
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		called := false
		h := RequireNonce(n)(func(c echo.Context) error {
			called = true
			return nil
		})
		if err := h(c); err != nil {
			t.Fatalf("field %s: unexpected error: %v", field, err)
		}
		if !called {
			t.Errorf("field %s: expected nonce from legacy field to pass", field)
		}
	}
}

func TestRequireNonce_RejectsMissing(t *testing.T) {
	n := NewNonces("secret", time.Hour)
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req = req.WithContext(WithIdentity(req.Context(), &Identity{UserID: 7}))
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	h := RequireNonce(n)(func(c echo.Context) error { return nil })
	if err := h(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}

func TestJWTMiddleware_HMAC(t *testing.T) {
	key := []byte("test-signing-key")
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "12",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Name:         "Dr. Example",
		Capabilities: []string{CapView},
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var got *Identity
	h := JWTMiddleware(JWTConfig{SigningKey: key})(func(c echo.Context) error {
		got = IdentityFromContext(c.Request().Context())
		return nil
	})
	if err := h(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got == nil {
		t.Fatal("expected identity in context")
	}
	if got.UserID != 12 {
		t.Errorf("expected numeric subject to become user id 12, got %d", got.UserID)
	}
	if !got.Can(CapView) {
		t.Error("expected capability from claims")
	}
}

func TestJWTMiddleware_RejectsMissingToken(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	called := false
	h := JWTMiddleware(JWTConfig{SigningKey: []byte("k")})(func(c echo.Context) error {
		called = true
		return nil
	})
	if err := h(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if called {
		t.Error("handler must not run without a token")
	}
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}

func TestJWTMiddleware_SharesJWKSCacheAcrossRequests(t *testing.T) {
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}

	fetches := 0
	jwks := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fetches++
		resp := JWKSResponse{Keys: []JWKSKey{{
			Kty: "RSA",
			Kid: "k1",
			N:   base64.RawURLEncoding.EncodeToString(priv.PublicKey.N.Bytes()),
			E:   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(priv.PublicKey.E)).Bytes()),
		}}}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer jwks.Close()

	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "12",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = "k1"
	tok, err := token.SignedString(priv)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	e := echo.New()
	h := JWTMiddleware(JWTConfig{JWKSURL: jwks.URL})(func(c echo.Context) error {
		return nil
	})
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+tok)
		rec := httptest.NewRecorder()
		if err := h(e.NewContext(req, rec)); err != nil {
			t.Fatalf("request %d: %v", i, err)
		}
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d: %s", i, rec.Code, rec.Body.String())
		}
	}
	if fetches != 1 {
		t.Errorf("jwks fetches = %d, want 1", fetches)
	}
}
