package checker

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"

	"gopkg.in/yaml.v3"
)

// ContainsName is the registered name of the contains checker.
const ContainsName = "contains"

func init() {
	Register(ContainsName, func() Checker { return &ContainsChecker{} })
}

// ContainsConfig configures ContainsChecker.
type ContainsConfig struct {
	// ContainedString is searched for in the response body.
	ContainedString string `yaml:"contained_string"`
	IgnoreCase      bool   `yaml:"ignore_case"`
	// ContainsOrNot selects the polarity: false means positive when the string is absent.
	ContainsOrNot bool `yaml:"contains_or_not"`
}

// ContainsChecker is positive when the body contains (or lacks) a configured string.
type ContainsChecker struct{}

func (c *ContainsChecker) ConfigInfo() ConfigInfo {
	return ConfigInfo{
		FileName: "simple-contains-config.yml",
		Default: ContainsConfig{
			ContainedString: "The website must contain this text!",
			IgnoreCase:      true,
			ContainsOrNot:   true,
		},
	}
}

func (c *ContainsChecker) DecodeConfig(data []byte) (any, error) {
	var cfg ContainsConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decoding contains config: %w", err)
	}
	return cfg, nil
}

func (c *ContainsChecker) EncodeConfig(v any) ([]byte, error) {
	out, err := yaml.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encoding contains config: %w", err)
	}
	return out, nil
}

func (c *ContainsChecker) Commands() []Command {
	return []Command{{
		Names:       []string{"example"},
		Description: "Example for a custom command contributed by a checker",
		Run:         func() { slog.Info("pong") },
	}}
}

func (c *ContainsChecker) Check(_ context.Context, resp *Response, cfg Config) (bool, error) {
	v, ok := cfg.Value()
	if !ok {
		return false, NewCheckError("contains checker requires a configuration")
	}
	var conf ContainsConfig
	switch t := v.(type) {
	case ContainsConfig:
		conf = t
	case *ContainsConfig:
		if t == nil {
			return false, NewCheckError("contains checker requires a configuration")
		}
		conf = *t
	default:
		return false, NewCheckError("contains checker: unexpected configuration type %T", v)
	}

	body, needle := resp.Text(), conf.ContainedString
	if conf.IgnoreCase {
		body, needle = strings.ToLower(body), strings.ToLower(needle)
	}
	return conf.ContainsOrNot == strings.Contains(body, needle), nil
}
