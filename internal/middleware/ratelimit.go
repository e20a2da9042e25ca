package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimit enforces a per-client-IP token bucket. Idle client entries
// are reaped so the map stays bounded.
func RateLimit(rps rate.Limit, burst int) func(http.Handler) http.Handler {
	type entry struct {
		limiter *rate.Limiter
		seen    time.Time
	}
	var (
		mu      sync.Mutex
		clients = make(map[string]*entry)
	)

	go func() {
		for range time.Tick(time.Minute) {
			mu.Lock()
			for ip, e := range clients {
				if time.Since(e.seen) > 3*time.Minute {
					delete(clients, ip)
				}
			}
			mu.Unlock()
		}
	}()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip, _, err := net.SplitHostPort(r.RemoteAddr)
			if err != nil {
				ip = r.RemoteAddr
			}
			mu.Lock()
			e, ok := clients[ip]
			if !ok {
				e = &entry{limiter: rate.NewLimiter(rps, burst)}
				clients[ip] = e
			}
			e.seen = time.Now()
			allowed := e.limiter.Allow()
			mu.Unlock()

			if !allowed {
				http.Error(w, `{"error":"too many requests"}`, http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
