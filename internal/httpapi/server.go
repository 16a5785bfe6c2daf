// Package httpapi exposes bricks over HTTP: a small JSON facade used by the
// serve subcommand.
package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ericcurtin/llamanetes/internal/brick"
	"github.com/ericcurtin/llamanetes/pkg/types"
)

// maxBodyBytes limits JSON request bodies to 1 MiB.
const maxBodyBytes int64 = 1 << 20

// Service bundles the bricks the facade serves. Config is optional.
type Service struct {
	Generation   *brick.GenerationBrick
	Tokenization *brick.TokenizationBrick
	Config       *brick.ConfigBrick
}

// NewMux builds the router: /healthz, /metrics, /v1/generate, /v1/tokenize
// and, when a config brick is present, /v1/config.
func NewMux(svc Service) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)
	r.Use(metricsMiddleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Content-Type"},
	}))
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			next.ServeHTTP(w, r)
		})
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}` + "\n"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Post("/v1/generate", func(w http.ResponseWriter, r *http.Request) {
		var req types.GenerateRequest
		if !decodeJSONBody(w, r, &req) {
			return
		}
		if strings.TrimSpace(req.Prompt) == "" {
			writeJSONError(w, http.StatusBadRequest, "prompt is required")
			return
		}
		in := types.Input{"prompt": req.Prompt}
		if req.MaxTokens > 0 {
			in["max_tokens"] = req.MaxTokens
		}
		if req.Temperature > 0 {
			in["temperature"] = req.Temperature
		}
		if req.TopP > 0 {
			in["top_p"] = req.TopP
		}
		if req.TopK > 0 {
			in["top_k"] = req.TopK
		}
		res, err := svc.Generation.Invoke(r.Context(), in)
		if err != nil {
			writeBrickError(w, err)
			return
		}
		writeJSON(w, res)
	})

	r.Post("/v1/tokenize", func(w http.ResponseWriter, r *http.Request) {
		var req types.TokenizeAPIRequest
		if !decodeJSONBody(w, r, &req) {
			return
		}
		in := types.Input{"text": req.Text}
		if req.Operation != "" {
			in["operation"] = req.Operation
		}
		res, err := svc.Tokenization.Invoke(r.Context(), in)
		if err != nil {
			writeBrickError(w, err)
			return
		}
		writeJSON(w, res)
	})

	if svc.Config != nil {
		r.Get("/v1/config", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, svc.Config.List())
		})
	}

	return r
}

func decodeJSONBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	ct := r.Header.Get("Content-Type")
	if ct == "" || !strings.HasPrefix(strings.ToLower(ct), "application/json") {
		writeJSONError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
		return false
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to encode response")
	}
}
