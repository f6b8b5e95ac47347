package httpx

import (
	"context"
	"net"
	"net/http"

	log "github.com/sirupsen/logrus"
)

type Limiter interface {
	Allow(ctx context.Context, action, identifier string) (bool, error)
}

// RateLimit caps attempts of action per client address. A failing limiter lets the request through.
func RateLimit(l Limiter, action string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			client := clientAddr(r)
			ok, err := l.Allow(r.Context(), action, client)
			if err != nil {
				log.WithError(err).WithField("action", action).Warn("rate limiter unavailable")
			} else if !ok {
				log.WithFields(log.Fields{"action": action, "client": client}).Warn("rate limited")
				writeJSON(w, http.StatusTooManyRequests, errorBody{Error: "too many attempts, try again later"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientAddr(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
