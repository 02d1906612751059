package profile

import (
	"errors"
	"net/http"

	"github.com/NordCoder/BlackDragon/internal/domain/identity"
	"github.com/NordCoder/BlackDragon/internal/domain/profile"
	"github.com/NordCoder/BlackDragon/internal/domain/validation"
	"github.com/NordCoder/BlackDragon/internal/obs"
	"github.com/NordCoder/BlackDragon/internal/services/blackdragon-api/httpx"
	"go.uber.org/zap"
)

const MissingIdentityMessage = "Missing user identity."

type Controller struct {
	uc          *Usecase
	requireAuth func(http.Handler) http.Handler
	log         *zap.Logger
}

// NewController serves the caller's own profile. requireAuth must bind an
// identity to the request context.
func NewController(uc *Usecase, requireAuth func(http.Handler) http.Handler, log *zap.Logger) *Controller {
	if log == nil {
		log = zap.NewNop()
	}
	return &Controller{uc: uc, requireAuth: requireAuth, log: log}
}

func (c *Controller) Register(mux *http.ServeMux) {
	mux.Handle("GET /api/profile/me", c.requireAuth(http.HandlerFunc(c.getMe)))
	mux.Handle("PUT /api/profile/me", c.requireAuth(http.HandlerFunc(c.upsertMe)))
}

func (c *Controller) getMe(w http.ResponseWriter, r *http.Request) {
	p, err := c.uc.GetMe(r.Context(), identity.FromContext(r.Context()))
	switch {
	case err == nil:
		httpx.JSON(w, r, http.StatusOK, p)
	case errors.Is(err, ErrUnauthenticated):
		httpx.Message(w, r, http.StatusUnauthorized, MissingIdentityMessage)
	case errors.Is(err, ErrProfileNotFound):
		w.WriteHeader(http.StatusNotFound)
	default:
		httpx.Internal(w, r, err)
	}
}

func (c *Controller) upsertMe(w http.ResponseWriter, r *http.Request) {
	var patch profile.Patch
	if err := httpx.Decode(r, &patch); err != nil {
		httpx.Validation(w, r, validation.New("InvalidRequest", "Request body is not valid JSON."))
		return
	}

	p, err := c.uc.UpsertMe(r.Context(), identity.FromContext(r.Context()), patch)
	var verr *validation.Error
	switch {
	case err == nil:
	case errors.Is(err, ErrUnauthenticated):
		httpx.Message(w, r, http.StatusUnauthorized, MissingIdentityMessage)
		return
	case errors.As(err, &verr):
		httpx.Validation(w, r, verr)
		return
	default:
		httpx.Internal(w, r, err)
		return
	}

	obs.Logger(r.Context(), c.log).Info("profile.upserted",
		zap.Int64("profile_id", p.ID),
		zap.String("belt", p.BeltLevel),
	)
	httpx.JSON(w, r, http.StatusOK, p)
}
