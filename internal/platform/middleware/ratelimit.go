package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"loomline/pkg/requestcontext"
)

// RateLimit enforces a fixed-window per-caller request cap backed by redis.
// The window key is caller identity when authenticated, remote address
// otherwise. Redis outages fail open: availability of the ledger API wins
// over strict limiting.
func RateLimit(client *redis.Client, perMinute int, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if client == nil || perMinute <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			subject := r.RemoteAddr
			if caller, ok := requestcontext.Caller(ctx); ok {
				subject = caller.ID
			}
			window := time.Now().Unix() / 60
			key := "ratelimit:" + subject + ":" + time.Unix(window*60, 0).UTC().Format("1504")

			count, err := client.Incr(ctx, key).Result()
			if err != nil {
				logger.WarnContext(ctx, "rate limiter unavailable, failing open",
					"error", err,
					"request_id", requestcontext.RequestID(ctx),
				)
				next.ServeHTTP(w, r)
				return
			}
			if count == 1 {
				client.Expire(ctx, key, time.Minute)
			}
			if count > int64(perMinute) {
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("Retry-After", "60")
				w.WriteHeader(http.StatusTooManyRequests)
				_, _ = w.Write([]byte(`{"error":"rate_limited","error_description":"Request quota exceeded"}`))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
