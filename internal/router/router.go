package router

import (
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/prdly/service-api-go/internal/config"
	"github.com/prdly/service-api-go/internal/friends"
	friendsrepo "github.com/prdly/service-api-go/internal/friends/repo"
	"github.com/prdly/service-api-go/internal/mood"
	"github.com/prdly/service-api-go/internal/period"
	periodrepo "github.com/prdly/service-api-go/internal/period/repo"
	"github.com/prdly/service-api-go/internal/session"
	"github.com/prdly/service-api-go/internal/user"
	userrepo "github.com/prdly/service-api-go/internal/user/repo"
	"github.com/prdly/service-api-go/pkg/utilities"
)

// loggingResponseWriter wraps http.ResponseWriter to capture status and size.
type loggingResponseWriter struct {
	http.ResponseWriter
	status int
	size   int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.status = code
	lrw.ResponseWriter.WriteHeader(code)
}

func (lrw *loggingResponseWriter) Write(b []byte) (int, error) {
	if lrw.status == 0 {
		lrw.status = http.StatusOK
	}
	n, err := lrw.ResponseWriter.Write(b)
	lrw.size += n
	return n, err
}

// LoggingMiddleware returns a middleware that logs requests at debug level
// using the provided sugared logger.
func LoggingMiddleware(logger *zap.SugaredLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			lrw := &loggingResponseWriter{ResponseWriter: w}
			next.ServeHTTP(lrw, r)
			dur := time.Since(start)
			status := lrw.status
			if status == 0 {
				status = http.StatusOK
			}
			logger.Debugw("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"remote", r.RemoteAddr,
				"status", status,
				"duration_ms", float64(dur.Microseconds())/1000.0,
				"size", lrw.size,
				"request_id", w.Header().Get("X-Request-Id"),
			)
		})
	}
}

// RequestIDMiddleware attaches a KSUID to each response for log correlation.
func RequestIDMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get("X-Request-Id")
			if id == "" {
				id = utilities.NewKSUID()
			}
			w.Header().Set("X-Request-Id", id)
			next.ServeHTTP(w, r)
		})
	}
}

// SecurityHeadersMiddleware returns a middleware that sets common HTTP
// security headers.
func SecurityHeadersMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "DENY")
			w.Header().Set("Referrer-Policy", "no-referrer-when-downgrade")
			if w.Header().Get("Content-Security-Policy") == "" {
				w.Header().Set("Content-Security-Policy", "default-src 'self'; object-src 'none'; base-uri 'self';")
			}
			if r.TLS != nil {
				w.Header().Set("Strict-Transport-Security", "max-age=2592000; includeSubDomains")
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RegisterRoutes wires repositories, services and handlers onto the standard
// library's http.ServeMux.
func RegisterRoutes(logger *zap.SugaredLogger, db *sqlx.DB, cfg config.Config) http.Handler {
	tokens := session.NewTokenService(cfg.TokenSecret, cfg.TokenTTL)

	users := user.NewService(userrepo.NewUserRepo(db), user.BcryptHasher{Cost: cfg.BcryptCost})
	periods := period.NewService(periodrepo.NewPeriodRepo(db))
	friendships := friends.NewService(friendsrepo.NewFriendsRepo(db), userrepo.NewUserRepo(db))

	sessionHandler := session.NewHandler(tokens, users, logger)
	userHandler := user.NewHandler(users, logger)
	periodHandler := period.NewHandler(periods, logger)
	friendsHandler := friends.NewHandler(friendships, logger)
	moodHandler := mood.NewHandler(periods, logger)

	authed := func(h http.HandlerFunc) http.Handler { return session.Middleware(tokens, h) }
	admin := func(h http.HandlerFunc) http.Handler { return session.RequireAdmin(tokens, h) }

	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	mux.HandleFunc("POST /api/session/login", sessionHandler.Login)

	mux.Handle("POST /api/user", session.OptionalMiddleware(tokens, http.HandlerFunc(userHandler.Register)))
	mux.Handle("GET /api/user/list", admin(userHandler.List))
	mux.Handle("DELETE /api/user/{id}", admin(userHandler.Delete))

	mux.Handle("GET /api/friends", authed(friendsHandler.List))
	mux.Handle("POST /api/friends", authed(friendsHandler.AddFriend))
	mux.Handle("GET /api/friends/beast", authed(friendsHandler.Beast))
	mux.Handle("POST /api/friends/beast", authed(friendsHandler.AddBeast))
	mux.Handle("GET /api/friends/beast/status", authed(friendsHandler.BeastStats))
	mux.Handle("GET /api/friends/{id}", authed(friendsHandler.ListFor))

	mux.HandleFunc("GET /api/mood/list", moodHandler.Options)
	mux.Handle("GET /api/mood", authed(moodHandler.List))
	mux.Handle("POST /api/mood", authed(moodHandler.Add))

	mux.Handle("GET /api/period/typical", authed(periodHandler.Typical))
	mux.Handle("PUT /api/period/typical", authed(periodHandler.UpsertTypical))
	mux.Handle("GET /api/period/current", authed(periodHandler.Current))
	mux.Handle("GET /api/period/previous/{n}", authed(periodHandler.Previous))
	mux.Handle("POST /api/period/new-cycle", authed(periodHandler.NewCycle))
	mux.Handle("POST /api/period/mood", authed(periodHandler.RecordMood))
	mux.Handle("POST /api/period/symptom", authed(periodHandler.RecordSymptom))

	handler := LoggingMiddleware(logger)(SecurityHeadersMiddleware()(mux))
	return RequestIDMiddleware()(handler)
}
