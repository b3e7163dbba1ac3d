// Package httputil centralizes JSON response writing and domain error translation.
package httputil

import (
	"encoding/json"
	"net/http"

	dErrors "badgeledger/pkg/domain-errors"
)

// ErrorResponse is the JSON body of every error reply.
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}

// WriteJSON encodes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError maps a domain error to its status and code. Uncoded errors are
// reported as internal without leaking their message.
func WriteError(w http.ResponseWriter, err error) {
	de, ok := dErrors.As(err)
	if !ok {
		WriteJSON(w, http.StatusInternalServerError, ErrorResponse{
			Error:            string(dErrors.CodeInternal),
			ErrorDescription: "internal server error",
		})
		return
	}
	desc := de.Message
	if de.Code == dErrors.CodeInternal {
		desc = "internal server error"
	}
	WriteJSON(w, dErrors.ToHTTPStatus(de.Code), ErrorResponse{
		Error:            string(de.Code),
		ErrorDescription: desc,
	})
}

// DecodeJSON decodes a request body, rejecting unknown fields.
func DecodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid request body")
	}
	return nil
}
