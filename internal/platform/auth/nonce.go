package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/patientdocs/api/internal/platform/respond"
)

// NonceHeader carries the action nonce on modern clients. Older clients send
// it as a "nonce" or "security" request field instead; both are accepted.
const NonceHeader = "X-Records-Nonce"

// Nonces issues and verifies per-user HMAC action nonces. A nonce binds the
// caller's user id and an expiry; it carries no server-side state.
type Nonces struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewNonces(secret string, ttl time.Duration) *Nonces {
	return &Nonces{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue returns a nonce valid for the given user until the TTL elapses.
func (n *Nonces) Issue(userID int64) string {
	exp := n.now().Add(n.ttl).Unix()
	payload := fmt.Sprintf("%d:%d", userID, exp)
	return base64.RawURLEncoding.EncodeToString([]byte(payload + ":" + n.sign(payload)))
}

// Verify reports whether the token is a valid, unexpired nonce for the user.
func (n *Nonces) Verify(token string, userID int64) bool {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return false
	}
	parts := strings.Split(string(raw), ":")
	if len(parts) != 3 {
		return false
	}

	uid, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil || uid != userID {
		return false
	}
	exp, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil || n.now().Unix() > exp {
		return false
	}

	payload := parts[0] + ":" + parts[1]
	return hmac.Equal([]byte(parts[2]), []byte(n.sign(payload)))
}

func (n *Nonces) sign(payload string) string {
	mac := hmac.New(sha256.New, n.secret)
	mac.Write([]byte(payload))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

// nonceFromRequest extracts the nonce from the header or, for older clients,
// from the "nonce" or "security" request fields.
func nonceFromRequest(c echo.Context) string {
	if v := c.Request().Header.Get(NonceHeader); v != "" {
		return v
	}
	for _, field := range []string{"nonce", "security"} {
		if v := c.FormValue(field); v != "" {
			return v
		}
		if v := c.QueryParam(field); v != "" {
			return v
		}
	}
	return ""
}

// RequireNonce returns middleware that rejects mutating requests without a
// valid nonce for the authenticated user.
func RequireNonce(n *Nonces) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ident := IdentityFromContext(c.Request().Context())
			if ident == nil {
				return respond.Unauthorized(c, "authentication required")
			}
			token := nonceFromRequest(c)
			if token == "" || !n.Verify(token, ident.UserID) {
				return respond.Unauthorized(c, "invalid or expired nonce")
			}
			return next(c)
		}
	}
}

// IssueHandler returns a handler that hands the caller a fresh nonce.
func IssueHandler(n *Nonces) echo.HandlerFunc {
	return func(c echo.Context) error {
		ident := IdentityFromContext(c.Request().Context())
		if ident == nil {
			return respond.Unauthorized(c, "authentication required")
		}
		return respond.OK(c, map[string]string{"nonce": n.Issue(ident.UserID)})
	}
}
