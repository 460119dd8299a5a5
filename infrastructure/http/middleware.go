package http

import (
	"context"
	"net/http"
	"strings"
	"sync"

	"chat-core/auth"

	"golang.org/x/time/rate"
)

type claimsKeyType struct{}

var claimsKey claimsKeyType

// callerClaims returns the identity asserted by the auth middleware.
func callerClaims(r *http.Request) *auth.Claims {
	claims, _ := r.Context().Value(claimsKey).(*auth.Claims)
	return claims
}

// authMiddleware requires a bearer token signed by the external identity
// issuer. The asserted user id lands in the request context.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			writeJSONError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		claims, err := s.verifier.Verify(token)
		if err != nil {
			writeJSONError(w, http.StatusUnauthorized, "invalid token")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), claimsKey, claims)))
	})
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if after, found := strings.CutPrefix(header, "Bearer "); found {
		return after
	}
	// The websocket handshake cannot set headers from browsers.
	return r.URL.Query().Get("token")
}

// rateLimitMiddleware applies a per-caller token bucket.
func (s *Server) rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims := callerClaims(r)
		key := r.RemoteAddr
		if claims != nil {
			key = claims.UserID
		}
		if !s.limiter.Allow(key) {
			writeJSONError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

type limiterPool struct {
	mu    sync.Mutex
	m     map[string]*rate.Limiter
	rps   float64
	burst int
}

func newLimiterPool(rps float64, burst int) *limiterPool {
	if rps <= 0 {
		rps = 20
	}
	if burst <= 0 {
		burst = 40
	}
	return &limiterPool{m: make(map[string]*rate.Limiter), rps: rps, burst: burst}
}

func (p *limiterPool) Allow(key string) bool {
	p.mu.Lock()
	limiter, ok := p.m[key]
	if !ok {
		limiter = rate.NewLimiter(rate.Limit(p.rps), p.burst)
		p.m[key] = limiter
	}
	p.mu.Unlock()
	return limiter.Allow()
}
