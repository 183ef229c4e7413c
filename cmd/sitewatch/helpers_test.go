package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hazz-dev/sitewatch/internal/config"
)

// testConfig returns a config polling target with the contains checker and
// writes the checker config next to the returned config path.
func testConfig(t *testing.T, target, contained string) (*config.Config, string) {
	t.Helper()
	dir := t.TempDir()

	checkerCfg := "contained_string: " + contained + "\nignore_case: true\ncontains_or_not: true\n"
	if err := os.WriteFile(filepath.Join(dir, "simple-contains-config.yml"), []byte(checkerCfg), 0o644); err != nil {
		t.Fatalf("writing checker config: %v", err)
	}

	cfg := &config.Config{
		Request: config.RequestConfig{
			URL:            target,
			MinDelay:       1,
			MaxDelay:       2,
			DelayUnit:      "milliseconds",
			RandomnessUnit: "milliseconds",
			Periodic:       true,
			Timeout:        config.Duration{Duration: 5 * time.Second},
		},
		Checker: config.CheckerConfig{Name: "contains"},
		Server:  config.ServerConfig{Disabled: true},
		Storage: config.StorageConfig{Path: ":memory:"},
	}
	return cfg, filepath.Join(dir, "config.yml")
}
