package handlers

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/time/rate"

	"github.com/vsoeiu/LegatumM/pkg/metrics"
)

// maxClients bounds the limiter table; the least recently seen client is
// forgotten first and starts over with a full allowance.
const maxClients = 10_000

// Throttle grants each client a token bucket of requests per window,
// refilled continuously.
type Throttle struct {
	limit    rate.Limit
	burst    int
	clients  *lru.Cache[string, *rate.Limiter]
	clientIP func(*http.Request) string
}

// NewThrottle allows requests per window for every client address.
func NewThrottle(requests int, window time.Duration) (*Throttle, error) {
	clients, err := lru.New[string, *rate.Limiter](maxClients)
	if err != nil {
		return nil, err
	}
	return &Throttle{
		limit:    rate.Limit(float64(requests) / window.Seconds()),
		burst:    requests,
		clients:  clients,
		clientIP: remoteIP,
	}, nil
}

// Allow reports whether the client may make another request now.
func (t *Throttle) Allow(client string) bool {
	return t.limiter(client).Allow()
}

func (t *Throttle) limiter(client string) *rate.Limiter {
	if l, ok := t.clients.Get(client); ok {
		return l
	}
	l := rate.NewLimiter(t.limit, t.burst)
	if prev, ok, _ := t.clients.PeekOrAdd(client, l); ok {
		return prev
	}
	return l
}

// Middleware rejects requests over the allowance with 429 and a Retry-After
// hint.
func (t *Throttle) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		l := t.limiter(t.clientIP(r))
		if !l.Allow() {
			metrics.ThrottledRequests.Inc()
			wait := l.Reserve()
			delay := wait.Delay()
			wait.Cancel()
			w.Header().Set("Retry-After", strconv.Itoa(max(1, int(math.Ceil(delay.Seconds())))))
			respondJSONError(w, http.StatusTooManyRequests, "too many requests")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func remoteIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
