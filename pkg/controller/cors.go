package controller

import (
	"net/http"

	"github.com/rs/cors"
)

// WithCORS returns a middleware that answers CORS preflight requests and sets
// the CORS response headers for the given origins. An empty list allows any
// origin.
func WithCORS(origins []string) func(http.Handler) http.Handler {
	allowCredentials := true
	if len(origins) == 0 {
		origins = []string{"*"}
		// browsers reject credentialed responses for a wildcard origin
		allowCredentials = false
	}

	c := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions,
		},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "X-Request-Id"},
		ExposedHeaders:   []string{"Content-Length", "X-Request-Id"},
		AllowCredentials: allowCredentials,
	})

	return c.Handler
}
