package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/seqlabs/genoportal/internal/api/response"
	"github.com/seqlabs/genoportal/internal/session"
)

const defaultRequestsPerMinute = 60

const tokenPrefixLen = 8

// RateLimit provides sliding-window rate limiting via Redis, keyed by a
// prefix of the session token.
type RateLimit struct {
	sessions       session.Store
	requestsPerMin int
}

// NewRateLimit creates a new RateLimit middleware.
func NewRateLimit(s session.Store, requestsPerMin int) *RateLimit {
	if requestsPerMin <= 0 {
		requestsPerMin = defaultRequestsPerMinute
	}
	return &RateLimit{sessions: s, requestsPerMin: requestsPerMin}
}

// Limit applies rate limiting based on the session set by auth middleware.
func (rl *RateLimit) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, ok := GetSession(r)
		if !ok || len(sess.Token) < tokenPrefixLen {
			// No session means auth middleware didn't run; pass through
			next.ServeHTTP(w, r)
			return
		}

		key := session.RateLimitKey(sess.Token[:tokenPrefixLen])
		count, err := rl.sessions.IncrWithExpiry(r.Context(), key, 60*time.Second)
		if err != nil {
			// On Redis error, allow the request (fail open)
			next.ServeHTTP(w, r)
			return
		}

		remaining := rl.requestsPerMin - int(count)
		if remaining < 0 {
			remaining = 0
		}
		resetTime := time.Now().Add(60 * time.Second).Unix()

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(rl.requestsPerMin))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
		w.Header().Set("X-RateLimit-Reset", fmt.Sprintf("%d", resetTime))

		if count > int64(rl.requestsPerMin) {
			w.Header().Set("Retry-After", "60")
			response.Error(w, http.StatusTooManyRequests,
				"RATE_LIMIT_EXCEEDED", "Too many requests", nil)
			return
		}

		next.ServeHTTP(w, r)
	})
}
