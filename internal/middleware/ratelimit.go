package middleware

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/httprate"
	"golang.org/x/time/rate"
)

type clientLimiter struct {
	general  *rate.Limiter
	auth     *rate.Limiter
	lastSeen time.Time
}

// RateLimitMiddleware is the coarse per-IP budget applied to the whole API.
// Auth routes draw from a separate, smaller bucket.
type RateLimitMiddleware struct {
	generalRPM int
	authRPM    int
	mu         sync.Mutex
	clients    map[string]*clientLimiter
}

func NewRateLimitMiddleware(generalRPM int, authRPM int) *RateLimitMiddleware {
	if generalRPM == 0 {
		generalRPM = 100
	}
	if authRPM <= 0 {
		authRPM = 30
	}

	return &RateLimitMiddleware{
		generalRPM: generalRPM,
		authRPM:    authRPM,
		clients:    map[string]*clientLimiter{},
	}
}

func (m *RateLimitMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := strings.ToLower(r.URL.Path)
		if !strings.HasPrefix(path, "/api/") {
			next.ServeHTTP(w, r)
			return
		}

		limiter := m.getLimiter(ClientIP(r))

		target := limiter.general
		if strings.HasPrefix(path, "/api/v1/auth") {
			target = limiter.auth
		}

		// a nil limiter means the budget is disabled
		if target != nil && !target.Allow() {
			w.Header().Set("Retry-After", "60")
			writeTooManyRequests(w, r)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (m *RateLimitMiddleware) getLimiter(clientIP string) *clientLimiter {
	m.mu.Lock()
	defer m.mu.Unlock()

	if limiter, exists := m.clients[clientIP]; exists {
		limiter.lastSeen = time.Now()
		m.gcLocked()
		return limiter
	}

	created := &clientLimiter{
		general:  perMinute(m.generalRPM),
		auth:     perMinute(m.authRPM),
		lastSeen: time.Now(),
	}
	m.clients[clientIP] = created
	m.gcLocked()

	return created
}

func perMinute(rpm int) *rate.Limiter {
	if rpm < 0 {
		return nil
	}
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(rpm)), rpm)
}

func (m *RateLimitMiddleware) gcLocked() {
	if len(m.clients) < 1000 {
		return
	}

	cutoff := time.Now().Add(-10 * time.Minute)
	for ip, limiter := range m.clients {
		if limiter.lastSeen.Before(cutoff) {
			delete(m.clients, ip)
		}
	}
}

// Sliding-window limits for the individual unauthenticated auth endpoints.
var (
	LoginLimit          = limitByIP(10, 5*time.Minute)
	RegisterLimit       = limitByIP(5, time.Hour)
	VerifyEmailLimit    = limitByIP(10, 10*time.Minute)
	ResendVerifyLimit   = limitByIP(3, time.Hour)
	ForgotPasswordLimit = limitByIP(3, time.Hour)
	ResetPasswordLimit  = limitByIP(10, 10*time.Minute)
)

func limitByIP(limit int, window time.Duration) func() func(http.Handler) http.Handler {
	return func() func(http.Handler) http.Handler {
		return httprate.Limit(limit, window,
			httprate.WithKeyFuncs(func(r *http.Request) (string, error) {
				return ClientIP(r), nil
			}),
			httprate.WithLimitHandler(writeTooManyRequests),
		)
	}
}

func writeTooManyRequests(w http.ResponseWriter, _ *http.Request) {
	writeJSONError(w, http.StatusTooManyRequests, "RATE_LIMITED", "Too many requests")
}
