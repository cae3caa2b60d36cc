package server

import (
	"crypto/subtle"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

const (
	limiterSweepEvery = 5 * time.Minute
	limiterIdleAfter  = 10 * time.Minute
)

// GetRealIP attempts to determine the client's real IP address, trusting
// headers like CF-Connecting-IP or X-Forwarded-For if configured to do so.
func GetRealIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if cf := r.Header.Get("CF-Connecting-IP"); cf != "" {
			return cf
		}
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			first, _, _ := strings.Cut(xff, ",")
			return strings.TrimSpace(first)
		}
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}

	return ip
}

// ipLimiters keeps one token bucket per client address.
type ipLimiters struct {
	clients map[string]*ipClient
	limit   rate.Limit
	burst   int
	mu      sync.Mutex
}

type ipClient struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newIPLimiters(count int, window time.Duration) *ipLimiters {
	if count <= 0 {
		count = 1
	}
	if window <= 0 {
		window = time.Minute
	}

	return &ipLimiters{
		clients: make(map[string]*ipClient),
		limit:   rate.Limit(float64(count) / window.Seconds()),
		burst:   count,
	}
}

// reserve takes a token for ip at now. A zero wait means the request may run.
func (l *ipLimiters) reserve(ip string, now time.Time) time.Duration {
	l.mu.Lock()
	cli, found := l.clients[ip]
	if !found {
		cli = &ipClient{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.clients[ip] = cli
	}
	cli.lastSeen = now
	l.mu.Unlock()

	res := cli.limiter.ReserveN(now, 1)
	wait := res.DelayFrom(now)
	if wait > 0 {
		res.CancelAt(now)
	}

	return wait
}

// sweep forgets clients idle for longer than limiterIdleAfter.
func (l *ipLimiters) sweep(now time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	for ip, c := range l.clients {
		if now.Sub(c.lastSeen) > limiterIdleAfter {
			delete(l.clients, ip)
			removed++
		}
	}

	return removed
}

// RateLimitMiddleware applies a hard rate limit based on the client's IP address.
// Rejected requests get 429 with a Retry-After header in whole seconds.
func (s *Server) RateLimitMiddleware(next http.Handler) http.Handler {
	limiters := newIPLimiters(s.hardLimitCount, s.hardLimitWin)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(limiterSweepEvery)
		defer ticker.Stop()

		for {
			select {
			case <-s.shutdown:
				return
			case now := <-ticker.C:
				if n := limiters.sweep(now); n > 0 {
					log.Trace().Int("removed", n).Msg("Rate limiter clients swept")
				}
			}
		}
	}()

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := GetRealIP(r, s.trustProxy)

		if wait := limiters.reserve(ip, time.Now()); wait > 0 {
			w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
			writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: "too many requests", Kind: "rate_limited"})
			return
		}

		next.ServeHTTP(w, r)
	})
}

// statusRecorder remembers the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// LoggingMiddleware logs method, path, status, client IP and duration of each request.
// Server errors are logged at warn level, everything else at debug.
func (s *Server) LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		level := zerolog.DebugLevel
		if rec.status >= http.StatusInternalServerError {
			level = zerolog.WarnLevel
		}
		log.WithLevel(level).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Str("ip", GetRealIP(r, s.trustProxy)).
			Dur("duration", time.Since(start)).
			Msg("Request handled")
	})
}

// AdminAuthMiddleware protects endpoints by requiring a valid Bearer token in the Authorization header.
// An empty token rejects every request.
func AdminAuthMiddleware(token string, next http.Handler) http.Handler {
	expected := []byte("Bearer " + token)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got := []byte(r.Header.Get("Authorization"))
		if token == "" || subtle.ConstantTimeCompare(got, expected) != 1 {
			writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "unauthorized", Kind: "auth"})
			return
		}

		next.ServeHTTP(w, r)
	})
}
