package middleware

import "github.com/labstack/echo/v4"

// currentUserID returns the authenticated user's identifier from the
// request context, or "anon" for guests.  The rate limiter uses it to key
// buckets per user where a token is present.
func currentUserID(c echo.Context) string {
	if s, ok := c.Get("user_id").(string); ok && s != "" {
		return s
	}
	return "anon"
}
