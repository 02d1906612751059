package auth

import (
	"errors"
	"net/http"

	"github.com/NordCoder/BlackDragon/internal/domain/identity"
	"github.com/NordCoder/BlackDragon/internal/domain/validation"
	"github.com/NordCoder/BlackDragon/internal/obs"
	"github.com/NordCoder/BlackDragon/internal/services/blackdragon-api/httpx"
	"go.uber.org/zap"
)

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

type Controller struct {
	uc          *Usecase
	requireAuth func(http.Handler) http.Handler
	log         *zap.Logger
}

func NewController(uc *Usecase, validator TokenValidator, log *zap.Logger) *Controller {
	if log == nil {
		log = zap.NewNop()
	}
	return &Controller{uc: uc, requireAuth: RequireAuth(validator, log), log: log}
}

func (c *Controller) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/authentication/register", c.register)
	mux.HandleFunc("POST /api/authentication/login", c.login)
	mux.Handle("POST /api/authentication/logout", c.requireAuth(http.HandlerFunc(c.logout)))
	mux.Handle("DELETE /api/authentication/delete/{email}", c.requireAuth(http.HandlerFunc(c.deleteAccount)))
}

func (c *Controller) register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Validation(w, r, validation.New("InvalidRequest", "Request body is not valid JSON."))
		return
	}

	u, err := c.uc.Register(r.Context(), req.Email, req.Password)
	var verr *validation.Error
	switch {
	case err == nil:
	case errors.As(err, &verr):
		httpx.Validation(w, r, verr)
		return
	default:
		httpx.Internal(w, r, err)
		return
	}

	obs.Logger(r.Context(), c.log).Info("auth.registered", zap.String("user_id", u.ID))
	w.WriteHeader(http.StatusOK)
}

func (c *Controller) login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Message(w, r, http.StatusBadRequest, "malformed request body")
		return
	}

	t, err := c.uc.Login(r.Context(), req.Email, req.Password)
	switch {
	case err == nil:
	case errors.Is(err, ErrInvalidCredentials):
		httpx.Message(w, r, http.StatusUnauthorized, "unauthorized")
		return
	default:
		httpx.Internal(w, r, err)
		return
	}

	obs.Logger(r.Context(), c.log).Info("auth.login",
		zap.String("user_id", t.Claims.Subject),
		zap.String("jti", t.Claims.TokenID),
	)
	httpx.JSON(w, r, http.StatusOK, loginResponse{Token: t.Raw})
}

func (c *Controller) logout(w http.ResponseWriter, r *http.Request) {
	caller := identity.FromContext(r.Context())
	err := c.uc.Logout(r.Context(), caller)
	switch {
	case err == nil:
	case errors.Is(err, ErrUnauthenticated):
		httpx.Message(w, r, http.StatusUnauthorized, "unauthorized")
		return
	default:
		httpx.Internal(w, r, err)
		return
	}

	obs.Logger(r.Context(), c.log).Info("auth.logout", zap.String("jti", caller.TokenID()))
	w.WriteHeader(http.StatusOK)
}

func (c *Controller) deleteAccount(w http.ResponseWriter, r *http.Request) {
	caller := identity.FromContext(r.Context())
	deleted, err := c.uc.DeleteAccount(r.Context(), caller, r.PathValue("email"))
	switch {
	case err == nil:
	case errors.Is(err, ErrUnauthenticated):
		httpx.Message(w, r, http.StatusUnauthorized, "unauthorized")
		return
	case errors.Is(err, ErrForbidden):
		httpx.Message(w, r, http.StatusForbidden, "forbidden")
		return
	case errors.Is(err, ErrUserNotFound):
		httpx.Message(w, r, http.StatusNotFound, "user not found")
		return
	default:
		obs.Logger(r.Context(), c.log).Error("auth.delete_failed", zap.Error(err))
		httpx.Message(w, r, http.StatusBadRequest, "account could not be deleted")
		return
	}

	obs.Logger(r.Context(), c.log).Info("auth.deleted",
		zap.String("user_id", deleted.ID),
		zap.String("by", caller.UserID()),
	)
	w.WriteHeader(http.StatusOK)
}
