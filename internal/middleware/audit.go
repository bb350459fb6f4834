package middleware

import (
	"log"
	"time"

	"boxtenant/internal/auth"

	"github.com/labstack/echo/v4"
)

// AuditRequest logs every authenticated request with the acting
// identity, tenant scope, and outcome. It backs the platform audit
// trail the authorization gate's decision log feeds into; audit failure
// never fails the request.
func AuditRequest() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			actor, ok := auth.FromContext(c.Request().Context())
			if !ok {
				return err
			}

			status := c.Response().Status
			if httpErr, isHTTP := err.(*echo.HTTPError); isHTTP {
				status = httpErr.Code
			}

			tenant := ""
			if actor.HasActiveTenant() {
				tenant = actor.ActiveTenantID.String()
			}
			log.Printf("audit actor=%s role=%s tenant=%s method=%s path=%s status=%d duration=%s ip=%s",
				actor.UserID, actor.Role, tenant,
				c.Request().Method, c.Path(), status,
				time.Since(start).Round(time.Millisecond), c.RealIP())

			return err
		}
	}
}
