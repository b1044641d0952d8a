package server

import "net/http"

// healthBody is the exact liveness payload. It is a fixed value: the
// endpoint must answer the same way regardless of application state.
var healthBody = []byte(`{"status":"healthy","service":"bar-server"}`)

// AttachHealth registers the liveness route on an application mux. The
// handler is pure: no state is read, no side effects occur, and the
// response never varies. Attaching twice panics with the mux's own
// duplicate-pattern error.
func AttachHealth(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(healthBody)
	})
}
