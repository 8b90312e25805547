package handler

import (
	"context"
	"log/slog"
	"net/http"
	"runtime/debug"
	"slices"
	"strings"
	"time"

	"github.com/GoArmGo/StudentRegistry/internal/domain"
	"github.com/GoArmGo/StudentRegistry/internal/usecase"
	"github.com/go-chi/chi/v5/middleware"
)

type contextKey struct{}

// WithUser кладёт аутентифицированного пользователя в контекст запроса.
func WithUser(ctx context.Context, user *domain.User) context.Context {
	return context.WithValue(ctx, contextKey{}, user)
}

// UserFromContext достаёт пользователя, положенного Authenticate.
func UserFromContext(ctx context.Context) (*domain.User, bool) {
	user, ok := ctx.Value(contextKey{}).(*domain.User)
	return user, ok && user != nil
}

// RequestLogger - middleware для логирования HTTP-запросов.
func RequestLogger(logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// Оборачиваем ResponseWriter, чтобы знать статус
			ww := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(ww, r)

			logger.Info("http request",
				"request_id", middleware.GetReqID(r.Context()),
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.statusCode,
				"duration_ms", time.Since(start).Milliseconds(),
			)
		})
	}
}

// responseWriter нужен, чтобы перехватывать код ответа
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Recoverer превращает панику в ответ 500 в общем формате.
func Recoverer(logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						panic(rec)
					}
					logger.Error("panic recovered",
						"method", r.Method,
						"path", r.URL.Path,
						"panic", rec,
						"stack", string(debug.Stack()),
					)
					respondWithError(w, http.StatusInternalServerError, msgInternal, logger)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// Authenticate проверяет заголовок "Authorization: Bearer <token>" и
// кладёт владельца токена в контекст.
func Authenticate(authUseCase usecase.AuthUseCase, logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, found := strings.CutPrefix(header, "Bearer ")
			token = strings.TrimSpace(token)
			if !found || token == "" {
				respondWithError(w, http.StatusUnauthorized, msgNotAuthorized, logger)
				return
			}

			user, err := authUseCase.Authenticate(r.Context(), token)
			if err != nil {
				respondWithDomainError(w, r, err, logger)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

// RequireRole пропускает только пользователей с одной из указанных ролей.
// Должен стоять после Authenticate.
func RequireRole(logger *slog.Logger, roles ...domain.Role) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := UserFromContext(r.Context())
			if !ok {
				respondWithError(w, http.StatusUnauthorized, msgNotAuthorized, logger)
				return
			}
			if !slices.Contains(roles, user.Role) {
				logger.Warn("access denied", "user_id", user.ID, "role", user.Role, "path", r.URL.Path)
				respondWithError(w, http.StatusForbidden, msgForbidden, logger)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
