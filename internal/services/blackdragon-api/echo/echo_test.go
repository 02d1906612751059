package echo

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEcho(t *testing.T) {
	mux := http.NewServeMux()
	Register(mux)

	tests := []struct {
		name string
		body string
		code int
		want string
	}{
		{"empty body uses defaults", "", http.StatusOK, `{"message":"Hello","count":0,"truth":false}`},
		{"partial", `{"count":3}`, http.StatusOK, `{"message":"Hello","count":3,"truth":false}`},
		{"full", `{"message":"osu","count":7,"truth":true}`, http.StatusOK, `{"message":"osu","count":7,"truth":true}`},
		{"malformed", `{"count":"x"}`, http.StatusBadRequest, `{"message":"malformed request body"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/echo", strings.NewReader(tt.body)))
			assert.Equal(t, tt.code, rec.Code)
			assert.JSONEq(t, tt.want, rec.Body.String())
		})
	}
}
