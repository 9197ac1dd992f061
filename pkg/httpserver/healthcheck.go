package httpserver

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/easyauth/pkg/logger"
)

// HealthCheck is a named dependency check.
type HealthCheck struct {
	Name  string
	Check func(context.Context) error
}

// HealthCheckHandler answers 200 "READY" when every check passes and 503
// "NOT_READY" otherwise. With no checks it acts as a liveness check and
// answers "ALIVE".
func HealthCheckHandler(log *slog.Logger, checks ...HealthCheck) http.HandlerFunc {
	if log == nil {
		log = logger.Discard()
	}
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		if len(checks) == 0 {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ALIVE"))
			return
		}

		for _, c := range checks {
			if err := c.Check(r.Context()); err != nil {
				log.ErrorContext(r.Context(), "readiness check failed",
					slog.String("check", c.Name), logger.Error(err))
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte("NOT_READY"))
				return
			}
		}

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("READY"))
	}
}
