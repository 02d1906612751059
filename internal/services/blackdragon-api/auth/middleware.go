package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/NordCoder/BlackDragon/internal/domain/identity"
	"github.com/NordCoder/BlackDragon/internal/obs"
	"github.com/NordCoder/BlackDragon/internal/services/blackdragon-api/httpx"
	"github.com/NordCoder/BlackDragon/internal/token"
	"go.uber.org/zap"
)

type TokenValidator interface {
	Validate(ctx context.Context, raw string) (identity.Identity, error)
}

// BearerToken extracts the token from an "Authorization: Bearer ..." header.
func BearerToken(r *http.Request) (string, bool) {
	h := strings.TrimSpace(r.Header.Get("Authorization"))
	scheme, raw, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	raw = strings.TrimSpace(raw)
	return raw, raw != ""
}

// RequireAuth rejects requests without a valid bearer token and binds the
// resolved identity to the request context otherwise.
func RequireAuth(v TokenValidator, log *zap.Logger) func(http.Handler) http.Handler {
	return RequireAuthWithMessage(v, log, "unauthorized")
}

// RequireAuthWithMessage is RequireAuth answering 401 with msg.
func RequireAuthWithMessage(v TokenValidator, log *zap.Logger, msg string) func(http.Handler) http.Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := BearerToken(r)
			if !ok {
				httpx.Message(w, r, http.StatusUnauthorized, msg)
				return
			}
			id, err := v.Validate(r.Context(), raw)
			switch {
			case err == nil:
			case errors.Is(err, token.ErrLedgerUnavailable):
				obs.Logger(r.Context(), log).Error("auth.ledger_unavailable", zap.Error(err))
				httpx.Message(w, r, http.StatusServiceUnavailable, "service unavailable")
				return
			default:
				obs.Logger(r.Context(), log).Debug("auth.rejected", zap.Error(err))
				httpx.Message(w, r, http.StatusUnauthorized, msg)
				return
			}

			ctx := identity.WithIdentity(r.Context(), id)
			ctx = obs.WithLogger(ctx, obs.Logger(ctx, log).With(zap.String("user_id", id.UserID())))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
