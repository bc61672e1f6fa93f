// Package web exposes the machine's status over HTTP.
package web

import (
	"encoding/json"
	"net/http"

	"golang.org/x/crypto/bcrypt"

	"spinnled/internal/machine"
)

// StatusSource yields the machine-wide snapshot.
type StatusSource interface {
	Snapshot() machine.Snapshot
}

// Handler serves /api/status. A non-empty bcrypt passwordHash enables
// HTTP basic auth; the username is ignored.
func Handler(status StatusSource, passwordHash string) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/status", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.Header().Set("Allow", http.MethodGet)
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if !authorized(r, passwordHash) {
			w.Header().Set("WWW-Authenticate", `Basic realm="spinnled"`)
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		b, err := json.MarshalIndent(status.Snapshot(), "", "  ")
		if err != nil {
			http.Error(w, "marshal failed", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(b)
	})

	return mux
}

func authorized(r *http.Request, passwordHash string) bool {
	if passwordHash == "" {
		return true
	}
	_, password, ok := r.BasicAuth()
	if !ok {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(password)) == nil
}
