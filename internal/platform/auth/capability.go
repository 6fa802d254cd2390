package auth

import (
	"github.com/labstack/echo/v4"

	"github.com/patientdocs/api/internal/platform/respond"
)

// RequireCapability returns middleware that rejects requests whose identity
// does not hold the named capability. The check runs after token validation
// and before any handler or store code.
func RequireCapability(capability string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ident := IdentityFromContext(c.Request().Context())
			if ident == nil {
				return respond.Unauthorized(c, "authentication required")
			}
			if !ident.Can(capability) {
				return respond.Forbidden(c, "required capability: "+capability)
			}
			return next(c)
		}
	}
}
