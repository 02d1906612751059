// Package echo serves a connectivity probe that returns its input.
package echo

import (
	"errors"
	"io"
	"net/http"

	"github.com/NordCoder/BlackDragon/internal/services/blackdragon-api/httpx"
)

type Request struct {
	Message string `json:"message"`
	Count   int    `json:"count"`
	Truth   bool   `json:"truth"`
}

func defaults() Request { return Request{Message: "Hello"} }

func Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/echo", handle)
}

func handle(w http.ResponseWriter, r *http.Request) {
	req := defaults()
	if err := httpx.Decode(r, &req); err != nil && !errors.Is(err, io.EOF) {
		httpx.Message(w, r, http.StatusBadRequest, "malformed request body")
		return
	}
	httpx.JSON(w, r, http.StatusOK, req)
}
