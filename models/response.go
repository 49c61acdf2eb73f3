package models

import (
	"encoding/json"
	"net/http"
)

// Response codes carried in the "e" field.
const (
	CodeSuccess      = 0
	CodeFailure      = 1
	CodeUnauthorized = 2
	// CodeNotFound also signals an already-taken username on register.
	CodeNotFound = 10
	// CodeRejected signals a wrong password on login or an expired token on authorize.
	CodeRejected = 11
)

// Response is the envelope returned by every API call: {"e": code, "d": data}.
type Response struct {
	E int `json:"e"`
	D any `json:"d,omitempty"`
}

// NewResponse returns an envelope without data.
func NewResponse(code int) Response {
	return Response{E: code}
}

// NewDataResponse returns an envelope carrying data.
func NewDataResponse(code int, d any) Response {
	return Response{E: code, D: d}
}

// IsSuccess reports whether the envelope carries CodeSuccess.
func (r Response) IsSuccess() bool {
	return r.E == CodeSuccess
}

// Write sends r as the JSON body of a 200 response.
func (r Response) Write(w http.ResponseWriter) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	return json.NewEncoder(w).Encode(r)
}
