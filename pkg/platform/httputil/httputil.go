// Package httputil carries the JSON response helpers shared by every handler.
package httputil

import (
	"encoding/json"
	"net/http"

	domainerrors "dropspace/pkg/domain-errors"
)

type errorBody struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}

// WriteError renders a coded domain error as JSON. Internal errors hide their
// message so infrastructure details never reach callers.
func WriteError(w http.ResponseWriter, err error) {
	code := domainerrors.CodeOf(err)
	body := errorBody{Error: string(code)}
	if code != domainerrors.CodeInternal {
		body.ErrorDescription = err.Error()
	}
	WriteJSON(w, domainerrors.ToHTTPStatus(code), body)
}

// WriteJSON renders v with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
