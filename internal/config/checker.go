package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/hazz-dev/sitewatch/internal/checker"
)

// Resolver looks up checkers by name.
type Resolver interface {
	Lookup(name string) (checker.Checker, error)
}

// LoadChecker resolves the configured checker and, if it declares one, loads
// its configuration file from the directory of configPath. A missing checker
// configuration is generated from the checker's default and ErrGenerated is
// returned. Pass nil resolver to use the default registry.
func LoadChecker(cfg *Config, configPath string, resolver Resolver, logger *slog.Logger) (*checker.Handle, error) {
	if logger == nil {
		logger = slog.Default()
	}
	lookup := checker.Lookup
	if resolver != nil {
		lookup = resolver.Lookup
	}

	c, err := lookup(cfg.Checker.Name)
	if err != nil {
		return nil, fmt.Errorf("loading checker: %w", err)
	}
	h := &checker.Handle{Name: cfg.Checker.Name, Checker: c, Config: checker.NoConfig()}
	logger.Info("checker loaded", "checker", h.Name)

	cp, ok := c.(checker.ConfigProvider)
	if !ok {
		logger.Info("checker requires no configuration", "checker", h.Name)
		return h, nil
	}

	info := cp.ConfigInfo()
	name := cfg.Checker.ConfigFile
	if name == "" {
		name = info.FileName
	}
	path := name
	if !filepath.IsAbs(path) {
		path = filepath.Join(filepath.Dir(configPath), name)
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		encoded, encErr := cp.EncodeConfig(info.Default)
		if encErr != nil {
			return nil, fmt.Errorf("encoding default %s config: %w", h.Name, encErr)
		}
		if err := writeNew(path, encoded); err != nil {
			return nil, err
		}
		logger.Info("checker configuration not found, generated example", "checker", h.Name, "path", path)
		return nil, fmt.Errorf("%w: %s", ErrGenerated, path)
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s config: %w", h.Name, err)
	}

	v, err := cp.DecodeConfig(data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	h.Config = checker.WithConfig(v)
	logger.Info("checker configuration loaded", "checker", h.Name, "path", path)
	return h, nil
}
