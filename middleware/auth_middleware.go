package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"user_server_go/models"
	"user_server_go/services"
)

// TokenHeader carries the access token on authorized routes.
const TokenHeader = "token"

type ctxKey int

const (
	userIDKey ctxKey = iota
	usernameKey
)

// UserIDFrom returns the authorized user's id stored by Authorize.
func UserIDFrom(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(userIDKey).(int64)
	return id, ok
}

// UsernameFrom returns the authorized user's name stored by Authorize.
func UsernameFrom(ctx context.Context) (string, bool) {
	name, ok := ctx.Value(usernameKey).(string)
	return name, ok
}

// WithUser returns ctx carrying the given user identity.
func WithUser(ctx context.Context, userID int64, username string) context.Context {
	ctx = context.WithValue(ctx, userIDKey, userID)
	return context.WithValue(ctx, usernameKey, username)
}

// Authorize resolves the token header through users. Requests with an unknown
// or expired token get {"e":2}; storage failures get {"e":1}.
func Authorize(users services.UserService, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			resp := users.Authorize(r.Context(), r.Header.Get(TokenHeader))
			switch {
			case resp.E == models.CodeFailure:
				writeResponse(w, log, models.NewResponse(models.CodeFailure))
				return
			case !resp.IsSuccess():
				log.Debug("unauthorized request", "path", r.URL.Path, "code", resp.E)
				writeResponse(w, log, models.NewResponse(models.CodeUnauthorized))
				return
			}

			user, ok := resp.D.(*models.User)
			if !ok {
				log.Error("authorize returned no user", "path", r.URL.Path)
				writeResponse(w, log, models.NewResponse(models.CodeFailure))
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user.UserID, user.Username)))
		})
	}
}

func writeResponse(w http.ResponseWriter, log *slog.Logger, resp models.Response) {
	if err := resp.Write(w); err != nil {
		log.Error("failed to write response", "err", err)
	}
}
