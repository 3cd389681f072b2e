package middleware

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/json"
	"net/http"
)

// APIKey authenticates requests by comparing the configured header
// against a single configured key. Hashes are compared so the check is
// constant time regardless of key length.
type APIKey struct {
	headerName string
	keyHash    [sha256.Size]byte
}

func NewAPIKey(headerName, key string) *APIKey {
	return &APIKey{
		headerName: headerName,
		keyHash:    sha256.Sum256([]byte(key)),
	}
}

func (m *APIKey) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		presented := sha256.Sum256([]byte(r.Header.Get(m.headerName)))
		if subtle.ConstantTimeCompare(presented[:], m.keyHash[:]) != 1 {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"error": "invalid API key"})
			return
		}
		next.ServeHTTP(w, r)
	})
}
