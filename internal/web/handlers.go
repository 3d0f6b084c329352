package web

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"notion-herald/internal/app"
	"notion-herald/internal/config"
)

const maxBody = 1 << 20

// Submitter is the slice of app.App the API needs.
type Submitter interface {
	Submit(ctx context.Context, input any, action app.Action) (*app.SubmitResult, error)
}

// Factory builds a Submitter from freshly loaded config for each request.
type Factory func() (Submitter, error)

// NewRouter returns an http.Handler with the API routes mounted
func NewRouter(build Factory) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/health", healthHandler)
	mux.HandleFunc("/api/submit", submitHandler(build))
	return mux
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// submitHandler handles POST /api/submit?action=create|delete with a JSON
// object or array body and answers with the batch result.
func submitHandler(build Factory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		action, err := app.ParseAction(r.URL.Query().Get("action"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		body, err := io.ReadAll(io.LimitReader(r.Body, maxBody))
		if err != nil {
			http.Error(w, "failed to read body", http.StatusBadRequest)
			return
		}
		input, err := app.DecodeInput(body)
		if err != nil {
			http.Error(w, "invalid JSON", http.StatusBadRequest)
			return
		}
		s, err := build()
		if err != nil {
			http.Error(w, "failed to load config", http.StatusInternalServerError)
			return
		}
		res, err := s.Submit(r.Context(), input, action)
		if err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, config.ErrMissing) {
				status = http.StatusServiceUnavailable
			}
			writeJSON(w, status, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// AuthMiddleware enforces an Authorization: Bearer <token> header when token is non-empty
func AuthMiddleware(handler http.Handler, token string) http.Handler {
	if token == "" {
		return handler
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/health" {
			handler.ServeHTTP(w, r)
			return
		}
		auth := r.Header.Get("Authorization")
		if auth != "Bearer "+token {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		handler.ServeHTTP(w, r)
	})
}
