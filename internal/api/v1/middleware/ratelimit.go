package middleware

import (
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/terranocoder/terrano/internal/config"
	"github.com/terranocoder/terrano/internal/metrics"
	"github.com/terranocoder/terrano/pkg/httpext"
	"github.com/terranocoder/terrano/pkg/ratelimit"
)

func RateLimit(limitKey string) func(http.Handler) http.Handler {
	return rateLimit(limitKey, config.GetRateLimitConfig(limitKey))
}

func rateLimit(limitKey string, cfg config.RateLimitConfig, opts ...ratelimit.Option) func(http.Handler) http.Handler {
	limiter := ratelimit.NewLimiter(cfg.Window, cfg.MaxHits, opts...)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !cfg.Enabled {
				next.ServeHTTP(w, r)
				return
			}

			// Use X-Forwarded-For if behind proxy, otherwise remote address
			ip := r.Header.Get("X-Forwarded-For")
			if ip == "" {
				ip = r.RemoteAddr
			}

			if !limiter.Allow(ip) {
				metrics.RequestsTotal.WithLabelValues(limitKey, "rejected").Inc()
				log.Warn().Str("ip", ip).Str("group", limitKey).Msg("Rate limit exceeded")
				httpext.JsonError(w, "Rate limit exceeded", http.StatusTooManyRequests)
				return
			}

			metrics.RequestsTotal.WithLabelValues(limitKey, "accepted").Inc()
			next.ServeHTTP(w, r)
		})
	}
}
