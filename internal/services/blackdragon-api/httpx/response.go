package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/NordCoder/BlackDragon/internal/domain/validation"
	"github.com/NordCoder/BlackDragon/internal/obs"
	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

type MessageResponse struct {
	Message string `json:"message"`
}

func JSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(data); err != nil {
		obs.Logger(r.Context(), nil).Error("write json response", zap.Error(err))
	}
}

func Message(w http.ResponseWriter, r *http.Request, status int, msg string) {
	JSON(w, r, status, MessageResponse{Message: msg})
}

// Validation writes the error list as a bare JSON array.
func Validation(w http.ResponseWriter, r *http.Request, err *validation.Error) {
	JSON(w, r, http.StatusBadRequest, err.Errors)
}

// Internal logs err and answers with a generic 500.
func Internal(w http.ResponseWriter, r *http.Request, err error) {
	obs.Logger(r.Context(), nil).Error("request failed", zap.Error(err))
	Message(w, r, http.StatusInternalServerError, "internal error")
}

var ErrBadBody = errors.New("malformed request body")

// Decode reads a single JSON object from the body into dst.
func Decode(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: %w", ErrBadBody, err)
	}
	return nil
}
