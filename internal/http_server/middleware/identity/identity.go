package identity

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	resp "student_connect/internal/lib/api/response"
	"student_connect/internal/lib/jwt"
	sl "student_connect/internal/lib/logger"
)

type ctxKey struct{}

// New returns middleware that requires a valid bearer session token and
// places the decoded claims into the request context as a typed value.
func New(log *slog.Logger, secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middleware.identity.New"

			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			header := r.Header.Get("Authorization")
			if header == "" || !strings.HasPrefix(header, "Bearer ") {
				log.Info("missing bearer token")

				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, resp.Error("Not authorized, no token provided"))

				return
			}

			claims, err := jwt.ParseToken(secret, strings.TrimPrefix(header, "Bearer "))
			if err != nil {
				log.Info("invalid bearer token", sl.Err(err))

				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, resp.Error("Not authorized, invalid token"))

				return
			}

			ctx := context.WithValue(r.Context(), ctxKey{}, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// FromContext returns the claims stored by the middleware.
func FromContext(ctx context.Context) (jwt.Claims, bool) {
	claims, ok := ctx.Value(ctxKey{}).(jwt.Claims)

	return claims, ok
}
