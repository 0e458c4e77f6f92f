package middleware

import (
	"net/http"
	"sync"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"
)

// RateLimit is a token bucket per caller, falling back to the client IP
// for unauthenticated requests.
func RateLimit(rps float64, burst int) echo.MiddlewareFunc {
	var mu sync.Mutex
	buckets := make(map[string]*rate.Limiter)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := "ip:" + c.RealIP()
			if caller, ok := CallerFrom(c); ok {
				key = "caller:" + caller.ID
			}
			mu.Lock()
			lim, ok := buckets[key]
			if !ok {
				lim = rate.NewLimiter(rate.Limit(rps), burst)
				buckets[key] = lim
			}
			mu.Unlock()
			if !lim.Allow() {
				return c.JSON(http.StatusTooManyRequests, map[string]string{"error": "rate limit exceeded"})
			}
			return next(c)
		}
	}
}
