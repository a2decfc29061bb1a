package middleware

import (
	"net/http"
	"strings"

	"github.com/go-chi/cors"

	"github.com/elida-shop/storefront-backend/pkg/config"
)

// CORS allows the browser storefront to call the API cross-origin. Localhost
// stays allowed for development builds.
func CORS(cfg config.AppConfig) func(http.Handler) http.Handler {
	origins := []string{"http://localhost:3000", "http://localhost:5173"}
	if origin := strings.TrimRight(cfg.StorefrontBaseURL, "/"); origin != "" {
		origins = append(origins, origin)
	}
	return cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key", "X-Requested-With"},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler
}
