package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hazz-dev/sitewatch/internal/checker"
)

// ErrGenerated is returned when a missing configuration file was replaced
// by an example. The program should stop so the file can be edited.
var ErrGenerated = errors.New("example configuration generated")

// Default returns the example configuration written on first start.
func Default() Config {
	return Config{
		Request: RequestConfig{
			URL:            "https://example.com",
			MinDelay:       3,
			MaxDelay:       5,
			DelayUnit:      "minutes",
			RandomnessUnit: "seconds",
			Timeout:        Duration{30 * time.Second},
		},
		Checker: CheckerConfig{Name: checker.ContainsName},
		Alerts: AlertsConfig{
			Mail: MailConfig{
				Host:     "smtp.example.com",
				Port:     465,
				Username: "sender@example.com",
				Password: "1234pwd",
				From:     "sender@example.com",
				FromName: "Example sender",
				To:       []string{"recipient@example.com"},
				Content: checker.MailContent{
					Subject: "Mail subject",
					Text:    "This is the content of the mail!",
				},
			},
		},
		Server:  ServerConfig{Address: ":8080"},
		Storage: StorageConfig{Path: "sitewatch.db"},
	}
}

// WriteDefault writes the example configuration to path. It refuses to
// overwrite an existing file.
func WriteDefault(path string) error {
	data, err := yaml.Marshal(Default())
	if err != nil {
		return fmt.Errorf("encoding default config: %w", err)
	}
	return writeNew(path, data)
}

func writeNew(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", path, err)
	}
	return nil
}
