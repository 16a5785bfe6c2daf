package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ericcurtin/llamanetes/internal/brick"
	"github.com/ericcurtin/llamanetes/pkg/types"
)

func newTestService(t *testing.T, modelExists bool) Service {
	t.Helper()
	dir := t.TempDir()
	modelPath := filepath.Join(dir, "m.gguf")
	if modelExists {
		if err := os.WriteFile(modelPath, []byte("gguf"), 0o644); err != nil {
			t.Fatalf("write model: %v", err)
		}
	}
	tok := filepath.Join(dir, "llama-tokenize")
	if err := os.WriteFile(tok, []byte("#!/bin/sh\necho \"1 2 3\"\n"), 0o755); err != nil {
		t.Fatalf("write tool: %v", err)
	}
	mb, err := brick.NewModelBrick(brick.ModelConfig{
		ModelPath:   modelPath,
		TokenizeBin: tok,
		Timeout:     5 * time.Second,
	})
	if err != nil {
		t.Fatalf("NewModelBrick: %v", err)
	}
	gb, err := brick.NewGenerationBrick(mb, brick.DefaultGenerationParams())
	if err != nil {
		t.Fatalf("NewGenerationBrick: %v", err)
	}
	tb, err := brick.NewTokenizationBrick(mb)
	if err != nil {
		t.Fatalf("NewTokenizationBrick: %v", err)
	}
	return Service{Generation: gb, Tokenization: tb}
}

func postJSON(t *testing.T, h http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	h := NewMux(newTestService(t, true))
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestGenerateRejectsBadRequests(t *testing.T) {
	h := NewMux(newTestService(t, true))

	// Missing content type.
	req := httptest.NewRequest(http.MethodPost, "/v1/generate", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnsupportedMediaType {
		t.Fatalf("expected 415, got %d", rec.Code)
	}

	if rec := postJSON(t, h, "/v1/generate", "{not json"); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad JSON, got %d", rec.Code)
	}
	if rec := postJSON(t, h, "/v1/generate", `{"prompt":"  "}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty prompt, got %d", rec.Code)
	}
}

func TestGenerateMissingModelMapsTo404(t *testing.T) {
	h := NewMux(newTestService(t, false))
	rec := postJSON(t, h, "/v1/generate", `{"prompt":"hi"}`)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for missing model, got %d: %s", rec.Code, rec.Body.String())
	}
	var er types.ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &er); err != nil {
		t.Fatalf("decode error payload: %v", err)
	}
	if er.Code != http.StatusNotFound || er.Error == "" {
		t.Fatalf("unexpected error payload: %+v", er)
	}
}

func TestTokenizeEndpoint(t *testing.T) {
	h := NewMux(newTestService(t, true))

	rec := postJSON(t, h, "/v1/tokenize", `{"text":"abc","operation":"count"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var res types.Result
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.Status != types.StatusSuccess || res.Data["count"] != float64(3) {
		t.Fatalf("unexpected result: %+v", res)
	}

	if rec := postJSON(t, h, "/v1/tokenize", `{"text":"abc","operation":"shred"}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid operation, got %d", rec.Code)
	}
}

func TestConfigEndpoint(t *testing.T) {
	svc := newTestService(t, true)
	path := filepath.Join(t.TempDir(), "cfg.json")
	if err := os.WriteFile(path, []byte(`{"k":"v"}`), 0o644); err != nil {
		t.Fatalf("write cfg: %v", err)
	}
	cb, err := brick.NewConfigBrick(path)
	if err != nil {
		t.Fatalf("NewConfigBrick: %v", err)
	}
	if err := cb.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	svc.Config = cb
	h := NewMux(svc)

	req := httptest.NewRequest(http.MethodGet, "/v1/config", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var got map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got["k"] != "v" {
		t.Fatalf("unexpected config: %v", got)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	h := NewMux(newTestService(t, true))
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}
