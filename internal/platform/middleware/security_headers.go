package middleware

import (
	"github.com/labstack/echo/v4"
)

// SecurityHeaders sets security response headers on every request. The CSP
// permits same-origin resources because the form pages are served inline.
func SecurityHeaders() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			h := c.Response().Header()

			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("X-Frame-Options", "DENY")
			h.Set("Content-Security-Policy", "default-src 'self'; frame-ancestors 'none'")
			h.Set("Referrer-Policy", "no-referrer")

			// Responses carry clinical data; keep them out of shared caches.
			h.Set("Cache-Control", "no-store")

			return next(c)
		}
	}
}
