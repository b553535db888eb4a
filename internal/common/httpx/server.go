package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"restaurant-chatbot/internal/common/errs"
)

type Server struct{ *http.Server }

func New(addr string, h http.Handler) *Server {
	return &Server{Server: &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}}
}

// Run serves until ctx is cancelled, then drains for up to five seconds.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() { errCh <- s.ListenAndServe() }()
	select {
	case <-ctx.Done():
		ctx2, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.Shutdown(ctx2)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func WriteJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteProblem is a simplified RFC 7807 body.
func WriteProblem(w http.ResponseWriter, code int, typ, detail string) {
	WriteJSON(w, code, map[string]any{
		"type":   typ,
		"title":  http.StatusText(code),
		"status": code,
		"detail": detail,
	})
}

// WriteError maps the errs taxonomy onto HTTP status codes.
func WriteError(w http.ResponseWriter, err error) {
	switch {
	case errs.IsValidation(err):
		WriteProblem(w, http.StatusBadRequest, "validation_error", err.Error())
	case errs.IsNotFound(err):
		WriteProblem(w, http.StatusNotFound, "not_found", err.Error())
	case errs.IsBusinessRule(err):
		WriteProblem(w, http.StatusConflict, "business_rule_violation", err.Error())
	case errs.IsTransient(err):
		WriteProblem(w, http.StatusBadGateway, "dependency_unavailable", err.Error())
	default:
		WriteProblem(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}
