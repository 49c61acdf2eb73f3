package middleware

import (
	"net/http"

	"github.com/gorilla/handlers"
)

// AllowedHeaders are the request headers accepted on cross-origin calls.
var AllowedHeaders = []string{"Content-Type", "Authorization", TokenHeader, "id", RequestIDHeader}

// CORS allows GET, POST and OPTIONS from origins, with credentials.
func CORS(origins []string) func(http.Handler) http.Handler {
	return handlers.CORS(
		handlers.AllowedOrigins(origins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
		handlers.AllowedHeaders(AllowedHeaders),
		handlers.AllowCredentials(),
	)
}
