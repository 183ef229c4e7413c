package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/hazz-dev/sitewatch/internal/checker"
	"github.com/hazz-dev/sitewatch/internal/config"
)

func configIn(t *testing.T, dir, checkerName string) (*config.Config, string) {
	t.Helper()
	cfg := config.Default()
	cfg.Checker.Name = checkerName
	return &cfg, filepath.Join(dir, "config.yml")
}

func TestLoadChecker_NoConfigNeeded(t *testing.T) {
	cfg, path := configIn(t, t.TempDir(), checker.ChangedName)

	h, err := config.LoadChecker(cfg, path, nil, nil)
	if err != nil {
		t.Fatalf("LoadChecker: %v", err)
	}
	if _, ok := h.Config.Value(); ok {
		t.Error("changed checker should carry no configuration")
	}
	if h.Name != checker.ChangedName {
		t.Errorf("unexpected handle name %q", h.Name)
	}
}

func TestLoadChecker_UnknownName(t *testing.T) {
	cfg, path := configIn(t, t.TempDir(), "does-not-exist")
	_, err := config.LoadChecker(cfg, path, nil, nil)
	if !errors.Is(err, checker.ErrUnknownChecker) {
		t.Fatalf("expected ErrUnknownChecker, got %v", err)
	}
}

func TestLoadChecker_GeneratesMissingConfig(t *testing.T) {
	dir := t.TempDir()
	cfg, path := configIn(t, dir, checker.ContainsName)

	_, err := config.LoadChecker(cfg, path, nil, nil)
	if !errors.Is(err, config.ErrGenerated) {
		t.Fatalf("expected ErrGenerated, got %v", err)
	}
	generated := filepath.Join(dir, (&checker.ContainsChecker{}).ConfigInfo().FileName)
	if _, err := os.Stat(generated); err != nil {
		t.Fatalf("expected generated file at %s: %v", generated, err)
	}

	// Second start picks the generated file up.
	h, err := config.LoadChecker(cfg, path, nil, nil)
	if err != nil {
		t.Fatalf("LoadChecker after generation: %v", err)
	}
	resp := &checker.Response{StatusCode: 200, Body: []byte("the website must contain this text!")}
	positive, err := h.Check(context.Background(), resp)
	if err != nil || !positive {
		t.Errorf("expected default config to match its own text, got %v, %v", positive, err)
	}
}

func TestLoadChecker_ConfigFileOverride(t *testing.T) {
	dir := t.TempDir()
	cfg, path := configIn(t, dir, checker.ContainsName)
	cfg.Checker.ConfigFile = "custom.yml"
	if err := os.WriteFile(filepath.Join(dir, "custom.yml"), []byte("contained_string: sold out\nignore_case: false\ncontains_or_not: false\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	h, err := config.LoadChecker(cfg, path, nil, nil)
	if err != nil {
		t.Fatalf("LoadChecker: %v", err)
	}
	v, ok := h.Config.Value()
	if !ok {
		t.Fatal("expected configuration")
	}
	if got := v.(checker.ContainsConfig); got.ContainedString != "sold out" || got.ContainsOrNot {
		t.Errorf("unexpected config %+v", got)
	}
}

func TestLoadChecker_InvalidConfig(t *testing.T) {
	dir := t.TempDir()
	cfg, path := configIn(t, dir, checker.ContainsName)
	name := (&checker.ContainsChecker{}).ConfigInfo().FileName
	if err := os.WriteFile(filepath.Join(dir, name), []byte("nonsense: [\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := config.LoadChecker(cfg, path, nil, nil); err == nil {
		t.Fatal("expected parse error")
	}
}

type fixedResolver struct{ c checker.Checker }

func (r fixedResolver) Lookup(string) (checker.Checker, error) { return r.c, nil }

func TestLoadChecker_CustomResolver(t *testing.T) {
	cfg, path := configIn(t, t.TempDir(), "anything")
	want := &checker.ChangedChecker{}
	h, err := config.LoadChecker(cfg, path, fixedResolver{want}, nil)
	if err != nil {
		t.Fatalf("LoadChecker: %v", err)
	}
	if h.Checker != want {
		t.Errorf("expected resolver's checker, got %T", h.Checker)
	}
}
