package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTempFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return p
}

func TestLoadJSON(t *testing.T) {
	d := t.TempDir()
	p := writeTempFile(t, d, "pipe.json", `{
  "name": "demo",
  "bricks": [
    {"type": "model", "params": {"model_path": "m.gguf", "port": 8081}},
    {"type": "generation", "params": {"max_tokens": 32, "temperature": 0.5}}
  ]
}`)
	spec, err := Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if spec.Name != "demo" || len(spec.Bricks) != 2 {
		t.Fatalf("unexpected spec: %+v", spec)
	}
	if spec.Bricks[0].Type != "model" || spec.Bricks[1].Type != "generation" {
		t.Fatalf("unexpected brick types: %+v", spec.Bricks)
	}
}

func TestLoadYAML(t *testing.T) {
	d := t.TempDir()
	p := writeTempFile(t, d, "pipe.yaml", "name: demo\nbricks:\n  - type: model\n    params:\n      model_path: m.gguf\n  - type: tokenization\n")
	spec, err := Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if spec.Name != "demo" || len(spec.Bricks) != 2 || spec.Bricks[1].Type != "tokenization" {
		t.Fatalf("unexpected spec: %+v", spec)
	}
}

func TestLoadTOML(t *testing.T) {
	d := t.TempDir()
	p := writeTempFile(t, d, "pipe.toml", "name = \"demo\"\n\n[[bricks]]\ntype = \"model\"\n[bricks.params]\nmodel_path = \"m.gguf\"\n\n[[bricks]]\ntype = \"generation\"\n[bricks.params]\nmax_tokens = 16\n")
	spec, err := Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if spec.Name != "demo" || len(spec.Bricks) != 2 {
		t.Fatalf("unexpected spec: %+v", spec)
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(""); err == nil {
		t.Fatalf("expected error on empty path")
	}
	d := t.TempDir()
	if _, err := Load(filepath.Join(d, "missing.json")); err == nil {
		t.Fatalf("expected error on missing file")
	}
	p := writeTempFile(t, d, "pipe.ini", "name=x")
	if _, err := Load(p); err == nil {
		t.Fatalf("expected error on unsupported extension")
	}
	p = writeTempFile(t, d, "bad.json", "{")
	if _, err := Load(p); err == nil {
		t.Fatalf("expected error on malformed JSON")
	}
}
