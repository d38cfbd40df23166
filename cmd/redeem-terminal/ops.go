package main

import (
	"encoding/json"
	"net/http"
	"time"

	goRedeem "github.com/MrEthical07/goRedeem"
	"github.com/MrEthical07/goRedeem/metrics/export/prometheus"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type statusResponse struct {
	Session  string `json:"session"`
	User     string `json:"user,omitempty"`
	Workflow string `json:"workflow,omitempty"`
}

// newOpsRouter serves health, session status and metrics for the terminal.
// It never exposes tokens.
func newOpsRouter(engine *goRedeem.Engine) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(5 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		if err := engine.Ping(req.Context()); err != nil {
			http.Error(w, "storage unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})

	r.Get("/status", func(w http.ResponseWriter, _ *http.Request) {
		resp := statusResponse{Session: engine.Session().Status().String()}
		if user, ok := engine.Session().User(); ok {
			resp.User = user.Email
			if wf, err := engine.Gate().Workflow(); err == nil {
				resp.Workflow = wf.State().State.String()
			}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	})

	r.Method(http.MethodGet, "/metrics", prometheus.NewPrometheusExporter(engine).Handler())

	return r
}
