package cli

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// captureConfig swaps generateRunner for the duration of the test. Tests
// using it must not run in parallel.
func captureConfig(t *testing.T) **GenerateConfig {
	t.Helper()
	var captured *GenerateConfig
	generateRunner = func(ctx context.Context, cfg *GenerateConfig) error {
		captured = cfg
		return nil
	}
	t.Cleanup(func() { generateRunner = runGenerate })
	return &captured
}

func TestGenerateConfigDefaults(t *testing.T) {
	captured := captureConfig(t)

	root := NewRootCmd()
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	root.SetArgs([]string{"generate", "--dir", t.TempDir()})

	if err := root.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}
	cfg := *captured
	if cfg == nil {
		t.Fatalf("expected config to be captured")
	}
	if cfg.Root != "src/resources" {
		t.Errorf("root: got %q", cfg.Root)
	}
	if cfg.SchemasDir != "schemas" {
		t.Errorf("schemas dir: got %q", cfg.SchemasDir)
	}
	if cfg.Types != "src/types/schemas.d.ts" {
		t.Errorf("types: got %q", cfg.Types)
	}
	if cfg.Namespace != "Api.Schemas" {
		t.Errorf("namespace: got %q", cfg.Namespace)
	}
	if cfg.OpenAPI != "" || cfg.Templates != "" {
		t.Errorf("expected optional outputs off, got openapi=%q templates=%q", cfg.OpenAPI, cfg.Templates)
	}
	if cfg.Out == nil {
		t.Errorf("expected output writer to be set")
	}
}

func TestGenerateConfigFromFlags(t *testing.T) {
	captured := captureConfig(t)
	dir := t.TempDir()

	root := NewRootCmd()
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	root.SetArgs([]string{
		"--verbose",
		"--no-color",
		"generate",
		"--dir", dir,
		"--root", "./app/modules/",
		"--pattern", "**/*.schema.json",
		"--schemas-dir", "contracts",
		"--types", "types/api.d.ts",
		"--namespace", "Backend.Schemas",
		"--templates", "tpl",
		"--openapi", "docs/components.yaml",
		"--dry-run",
	})

	if err := root.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}
	cfg := *captured
	if cfg == nil {
		t.Fatalf("expected config to be captured")
	}
	if cfg.Dir != filepath.Clean(dir) {
		t.Errorf("dir mismatch: got %q", cfg.Dir)
	}
	if cfg.Root != "app/modules" {
		t.Errorf("root mismatch: got %q", cfg.Root)
	}
	if cfg.Pattern != "**/*.schema.json" {
		t.Errorf("pattern mismatch: got %q", cfg.Pattern)
	}
	if cfg.SchemasDir != "contracts" {
		t.Errorf("schemas dir mismatch: got %q", cfg.SchemasDir)
	}
	if cfg.Types != "types/api.d.ts" {
		t.Errorf("types mismatch: got %q", cfg.Types)
	}
	if cfg.Namespace != "Backend.Schemas" {
		t.Errorf("namespace mismatch: got %q", cfg.Namespace)
	}
	if cfg.Templates != "tpl" {
		t.Errorf("templates mismatch: got %q", cfg.Templates)
	}
	if cfg.OpenAPI != "docs/components.yaml" {
		t.Errorf("openapi mismatch: got %q", cfg.OpenAPI)
	}
	if !cfg.DryRun {
		t.Errorf("expected dry-run true")
	}
	if !cfg.Verbose {
		t.Errorf("expected verbose true")
	}
	if !cfg.NoColor {
		t.Errorf("expected no-color true")
	}
}

func TestGenerateConfigPrecedence(t *testing.T) {
	captured := captureConfig(t)

	dir := t.TempDir()
	configPath := filepath.Join(dir, "schemagen.yaml")
	configContent := strings.TrimSpace(`
dir: `+dir+`
root: cfg/resources
schemas_dir: cfg-schemas
types: cfg/types.d.ts
namespace: Cfg.Schemas
dry-run: true
verbose: true
`) + "\n"
	if err := os.WriteFile(configPath, []byte(configContent), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	dotenv := "SCHEMAGEN_TYPES=env/types.d.ts\nSCHEMAGEN_NAMESPACE=Env.Schemas\n"
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte(dotenv), 0o600); err != nil {
		t.Fatalf("write .env: %v", err)
	}

	root := NewRootCmd()
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	root.SetArgs([]string{
		"--config", configPath,
		"generate",
		"--namespace", "Flag.Schemas",
		"--dry-run=false",
	})

	if err := root.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}
	cfg := *captured
	if cfg == nil {
		t.Fatalf("expected config to be captured")
	}

	if cfg.Root != "cfg/resources" {
		t.Errorf("root: want cfg/resources got %q", cfg.Root)
	}
	if cfg.SchemasDir != "cfg-schemas" {
		t.Errorf("schemas dir: want cfg-schemas got %q", cfg.SchemasDir)
	}
	if cfg.Types != "env/types.d.ts" {
		t.Errorf("types: want env/types.d.ts from .env got %q", cfg.Types)
	}
	if cfg.Namespace != "Flag.Schemas" {
		t.Errorf("namespace: want Flag.Schemas got %q", cfg.Namespace)
	}
	if cfg.DryRun {
		t.Errorf("expected dry-run false after flag override")
	}
	if !cfg.Verbose {
		t.Errorf("expected verbose true from config file")
	}
	if cfg.ConfigPath != configPath {
		t.Errorf("config path mismatch: got %q", cfg.ConfigPath)
	}
}

func TestGenerateConfigEnvironmentBeatsDotEnv(t *testing.T) {
	cfg := defaultGenerateConfig()
	dir := t.TempDir()
	cfg.Dir = dir
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("SCHEMAGEN_ROOT=from/dotenv\nSCHEMAGEN_CHECK=true\n"), 0o600); err != nil {
		t.Fatalf("write .env: %v", err)
	}

	flags := newGenerateCmd().Flags()
	environ := []string{"SCHEMAGEN_ROOT=from/env", "UNRELATED=1"}
	if err := applyGenerateEnv(flags, &cfg, environ); err != nil {
		t.Fatalf("apply env: %v", err)
	}
	if cfg.Root != "from/env" {
		t.Errorf("root: want from/env got %q", cfg.Root)
	}
	if !cfg.Check {
		t.Errorf("expected check true from .env")
	}
}

func TestGenerateConfigInvalidEnvironment(t *testing.T) {
	cfg := defaultGenerateConfig()
	cfg.Dir = t.TempDir()
	err := applyGenerateEnv(newGenerateCmd().Flags(), &cfg, []string{"SCHEMAGEN_VERBOSE=sometimes"})
	if !errors.Is(err, ErrUsage) {
		t.Fatalf("expected usage error, got %v", err)
	}
}

func TestGenerateConfigUnknownKey(t *testing.T) {
	t.Parallel()

	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "bad.yaml")
	if err := os.WriteFile(configPath, []byte("unknown: value\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	root := NewRootCmd()
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	root.SetArgs([]string{"--config", configPath, "generate"})

	err := root.Execute()
	if err == nil {
		t.Fatalf("expected an error")
	}
	if !errors.Is(err, ErrUsage) {
		t.Fatalf("expected usage error, got %v", err)
	}
	if !strings.Contains(err.Error(), "unknown field") {
		t.Fatalf("unexpected error message: %v", err)
	}
}

func TestGenerateConfigValidation(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		args []string
		want string
	}{
		{"absolute root", []string{"--root", "/etc/resources"}, "root must be a relative path"},
		{"escaping types", []string{"--types", "../types.d.ts"}, "types must be a relative path"},
		{"nested schemas dir", []string{"--schemas-dir", "a/b"}, "schemasDir must be a single directory name"},
		{"empty namespace", []string{"--namespace", " "}, "namespace is required"},
		{"check with dry run", []string{"--check", "--dry-run"}, "cannot be combined"},
		{"bad pattern", []string{"--pattern", "[a-"}, "invalid pattern"},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			root := NewRootCmd()
			root.SetOut(io.Discard)
			root.SetErr(io.Discard)
			root.SetArgs(append([]string{"generate", "--dir", t.TempDir()}, tc.args...))

			err := root.Execute()
			if !errors.Is(err, ErrUsage) {
				t.Fatalf("expected usage error, got %v", err)
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("error %q does not mention %q", err, tc.want)
			}
		})
	}
}

func TestNormalizeKey(t *testing.T) {
	t.Parallel()
	for in, want := range map[string]string{
		"schemasDir":  "schemasdir",
		"schemas-dir": "schemasdir",
		" NO_COLOR ":  "nocolor",
	} {
		if got := normalizeKey(in); got != want {
			t.Errorf("normalizeKey(%q) = %q, want %q", in, got, want)
		}
	}
}
