// Package httputil centralizes JSON encoding and domain error translation so
// handlers stay thin and error envelopes stay consistent across modules.
package httputil

import (
	"encoding/json"
	"errors"
	"net/http"

	dErrors "pantrypulse/pkg/domain-errors"
)

// WriteJSON writes v as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Decode decodes the request body into T, rejecting unknown fields.
func Decode[T any](r *http.Request) (T, error) {
	var v T
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&v); err != nil {
		return v, dErrors.New(dErrors.CodeBadRequest, "invalid request body")
	}
	return v, nil
}

// WriteError translates a domain error into an HTTP response. Internal errors
// omit the description so infrastructure details never leak to callers.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	body := map[string]string{"error": string(code)}
	var de *dErrors.Error
	if code != dErrors.CodeInternal && errors.As(err, &de) && de.Message != "" {
		body["error_description"] = de.Message
	}
	WriteJSON(w, toHTTPStatus(code), body)
}

func toHTTPStatus(code dErrors.Code) int {
	switch code {
	case dErrors.CodeBadRequest:
		return http.StatusBadRequest
	case dErrors.CodeNotFound:
		return http.StatusNotFound
	case dErrors.CodeConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
