package cli

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseValue(t *testing.T) {
	cases := []struct {
		in   string
		want any
	}{
		{"0.2", float64(0.2)},
		{"42", float64(42)},
		{"true", true},
		{`"quoted"`, "quoted"},
		{"plain string", "plain string"},
		{`{"a":1}`, map[string]any{"a": float64(1)}},
	}
	for _, tc := range cases {
		got := parseValue(tc.in)
		switch want := tc.want.(type) {
		case map[string]any:
			m, ok := got.(map[string]any)
			if !ok || m["a"] != want["a"] {
				t.Errorf("parseValue(%q) = %v, want %v", tc.in, got, tc.want)
			}
		default:
			if got != tc.want {
				t.Errorf("parseValue(%q) = %v, want %v", tc.in, got, tc.want)
			}
		}
	}
}

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestConfigSetGetRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.json")

	// First set creates the file.
	out, err := runCommand(t, "config", "--file", path, "--set", "temperature", "--set", "0.2")
	if err != nil {
		t.Fatalf("set: %v", err)
	}
	if !strings.Contains(out, "Set temperature = 0.2") {
		t.Fatalf("unexpected set output: %q", out)
	}

	out, err = runCommand(t, "config", "--file", path, "--get", "temperature")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !strings.Contains(out, "temperature: 0.2") {
		t.Fatalf("unexpected get output: %q", out)
	}

	out, err = runCommand(t, "config", "--file", path, "--list")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.Contains(out, `"temperature": 0.2`) {
		t.Fatalf("unexpected list output: %q", out)
	}
}

func TestConfigGetMissingKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.json")
	if _, err := runCommand(t, "config", "--file", path, "--set", "a", "--set", "1"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if _, err := runCommand(t, "config", "--file", path, "--get", "missing"); err == nil {
		t.Fatal("expected error for missing key")
	}
}

func TestConfigRequiresAction(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.json")
	if _, err := runCommand(t, "config", "--file", path); err == nil {
		t.Fatal("expected usage error without an action flag")
	}
}

func TestGenerateRequiresFlags(t *testing.T) {
	if _, err := runCommand(t, "generate"); err == nil {
		t.Fatal("expected error for missing required flags")
	}
}
