package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bianoble/texbatch/internal/config"
	"gopkg.in/yaml.v3"
)

func useConfigPath(t *testing.T, path string) {
	t.Helper()
	old := configPath
	configPath = path
	t.Cleanup(func() { configPath = old })
}

func TestInitCreatesConfig(t *testing.T) {
	dir := t.TempDir()
	outPath := filepath.Join(dir, "texbatch.yaml")
	useConfigPath(t, outPath)

	initForce = false
	if err := initCmd.RunE(initCmd, nil); err != nil {
		t.Fatalf("init: %v", err)
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("config file is empty")
	}
}

func TestInitRefusesOverwrite(t *testing.T) {
	dir := t.TempDir()
	outPath := filepath.Join(dir, "texbatch.yaml")
	if err := os.WriteFile(outPath, []byte("existing"), 0644); err != nil {
		t.Fatal(err)
	}
	useConfigPath(t, outPath)

	initForce = false
	err := initCmd.RunE(initCmd, nil)
	if err == nil {
		t.Fatal("expected error when file exists")
	}
	if !strings.Contains(err.Error(), "already exists") {
		t.Errorf("error should mention 'already exists': %v", err)
	}
}

func TestInitForceOverwrites(t *testing.T) {
	dir := t.TempDir()
	outPath := filepath.Join(dir, "texbatch.yaml")
	if err := os.WriteFile(outPath, []byte("old content"), 0644); err != nil {
		t.Fatal(err)
	}
	useConfigPath(t, outPath)

	initForce = true
	t.Cleanup(func() { initForce = false })
	if err := initCmd.RunE(initCmd, nil); err != nil {
		t.Fatalf("init --force: %v", err)
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) == "old content" {
		t.Error("file was not overwritten")
	}
}

func TestInitTemplateIsValidYAML(t *testing.T) {
	var out map[string]any
	if err := yaml.Unmarshal([]byte(initTemplate), &out); err != nil {
		t.Fatalf("template is not valid YAML: %v", err)
	}
	if out["version"] == nil {
		t.Error("template should contain 'version'")
	}
}

func TestInitTemplateLoads(t *testing.T) {
	dir := t.TempDir()
	outPath := filepath.Join(dir, "texbatch.yaml")
	useConfigPath(t, outPath)

	initForce = false
	if err := initCmd.RunE(initCmd, nil); err != nil {
		t.Fatal(err)
	}

	cfg, err := config.Load(outPath)
	if err != nil {
		t.Fatalf("generated config does not load: %v", err)
	}
	if cfg.SourceRoot != filepath.Join(dir, "tex") || cfg.OutputRoot != filepath.Join(dir, "pdf") {
		t.Errorf("roots = %s, %s", cfg.SourceRoot, cfg.OutputRoot)
	}
	if cfg.EffectiveCompiler() != "pdflatex" {
		t.Errorf("compiler = %s", cfg.EffectiveCompiler())
	}
}

func TestInitTOML(t *testing.T) {
	dir := t.TempDir()
	outPath := filepath.Join(dir, "texbatch.toml")
	useConfigPath(t, outPath)

	initForce = false
	if err := initCmd.RunE(initCmd, nil); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "source_root = './tex'") && !strings.Contains(string(data), `source_root = "./tex"`) {
		t.Errorf("unexpected TOML:\n%s", data)
	}

	cfg, err := config.Load(outPath)
	if err != nil {
		t.Fatalf("generated TOML does not load: %v", err)
	}
	if cfg.Version != 1 {
		t.Errorf("version = %d", cfg.Version)
	}
}
