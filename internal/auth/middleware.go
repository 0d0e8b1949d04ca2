package auth

import (
	"encoding/json"
	"net/http"
)

// KeyParam is both the header and the query parameter carrying the API key.
const KeyParam = "api-key"

// Middleware returns an http.Handler middleware that enforces authentication.
// In open mode (no keys configured), all requests pass through.
// Otherwise the api-key header or query param must match a known key.
func (s *Service) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.IsOpenMode() {
			next.ServeHTTP(w, r)
			return
		}

		if s.VerifyKey(r.Header.Get(KeyParam)) || s.VerifyKey(r.URL.Query().Get(KeyParam)) {
			next.ServeHTTP(w, r)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{
			"error":   "unauthorized",
			"message": "missing or invalid api key",
		})
	})
}
