// Package api assembles the member API: controllers, auth middleware and
// the ambient endpoints.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/NordCoder/BlackDragon/internal/domain/profile"
	"github.com/NordCoder/BlackDragon/internal/domain/revocation"
	"github.com/NordCoder/BlackDragon/internal/domain/user"
	"github.com/NordCoder/BlackDragon/internal/obs"
	"github.com/NordCoder/BlackDragon/internal/services/blackdragon-api/auth"
	"github.com/NordCoder/BlackDragon/internal/services/blackdragon-api/echo"
	"github.com/NordCoder/BlackDragon/internal/services/blackdragon-api/httpx"
	profilesvc "github.com/NordCoder/BlackDragon/internal/services/blackdragon-api/profile"
	"go.uber.org/zap"
)

type Transactor interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type Deps struct {
	Logger    *zap.Logger
	Users     user.Repo
	Profiles  profile.Repo
	Ledger    revocation.Ledger
	Issuer    auth.TokenIssuer
	Validator auth.TokenValidator
	Tx        Transactor
	Events    auth.EventSink
	Auth      auth.Config
	// Health backs /healthz; nil reports healthy.
	Health func(ctx context.Context) error
	Now    func() time.Time
}

func NewRouter(d Deps) http.Handler {
	log := d.Logger
	if log == nil {
		log = zap.NewNop()
	}
	if d.Health == nil {
		d.Health = func(context.Context) error { return nil }
	}
	if d.Auth.Now == nil {
		d.Auth.Now = d.Now
	}

	mux := http.NewServeMux()
	mux.Handle("GET /healthz", obs.HealthHandler(d.Health))
	mux.Handle("GET /metrics", obs.MetricsHandler())

	authUC := auth.NewUseCase(d.Users, d.Ledger, d.Issuer, d.Tx, d.Events, d.Auth)
	auth.NewController(authUC, d.Validator, log.Named("auth")).Register(mux)

	profileUC := profilesvc.NewUseCase(d.Profiles, d.Tx, d.Now)
	profileAuth := auth.RequireAuthWithMessage(d.Validator, log, profilesvc.MissingIdentityMessage)
	profilesvc.NewController(profileUC, profileAuth, log.Named("profile")).Register(mux)

	echo.Register(mux)

	return httpx.Chain(mux,
		httpx.RequestIDMiddleware,
		httpx.LoggingMiddleware(log.Named("http")),
		httpx.RecoverMiddleware,
	)
}
