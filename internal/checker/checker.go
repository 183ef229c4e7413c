// Package checker defines the contract a site check implementation satisfies
// and the registry that resolves implementations by name.
//
// Only Check is required. A checker can additionally implement ConfigProvider
// to receive a decoded configuration file, ContentEditor to rewrite outgoing
// mail, CommandProvider to add console commands, and ListenerProvider to
// observe poll outcomes.
package checker

import (
	"context"
	"errors"
	"fmt"

	"github.com/hazz-dev/sitewatch/internal/outcome"
)

// Checker decides whether a fetched response is a positive result.
//
// Check is only called after a successful (2xx) fetch and at most once per poll.
// It has no access to scheduling state.
type Checker interface {
	Check(ctx context.Context, resp *Response, cfg Config) (bool, error)
}

// ConfigInfo describes the side-channel configuration file a checker needs.
type ConfigInfo struct {
	// FileName is a bare file name, resolved next to the main configuration file.
	FileName string
	// Default is written to FileName when the file does not exist yet.
	Default any
}

// ConfigProvider is implemented by checkers that need a configuration file.
type ConfigProvider interface {
	ConfigInfo() ConfigInfo
	DecodeConfig(data []byte) (any, error)
	EncodeConfig(v any) ([]byte, error)
}

// MailContent is the subject and body of a notification mail.
type MailContent struct {
	Subject string `yaml:"subject"`
	Text    string `yaml:"text"`
}

// ContentEditor is implemented by checkers that customize notification mail.
type ContentEditor interface {
	EditMailContent(MailContent) MailContent
}

// Command is an interactive console command.
type Command struct {
	Names       []string
	Description string
	Run         func()
}

// CommandProvider is implemented by checkers that contribute console commands.
type CommandProvider interface {
	Commands() []Command
}

// ListenerProvider is implemented by checkers that subscribe to poll outcomes.
// Its listeners run after the suspend gate and before the next poll is scheduled.
type ListenerProvider interface {
	Listeners() []outcome.Listener
}

// Config is the optional decoded configuration passed through to Check.
// The zero value carries no configuration.
type Config struct {
	value any
	set   bool
}

// NoConfig returns an empty Config.
func NoConfig() Config { return Config{} }

// WithConfig wraps v.
func WithConfig(v any) Config { return Config{value: v, set: true} }

// Value returns the wrapped configuration and whether one is present.
func (c Config) Value() (any, bool) { return c.value, c.set }

// Handle is a resolved checker together with its configuration.
type Handle struct {
	Name    string
	Checker Checker
	Config  Config
}

// Check calls the wrapped checker with the handle's configuration.
func (h *Handle) Check(ctx context.Context, resp *Response) (bool, error) {
	return h.Checker.Check(ctx, resp, h.Config)
}

// CheckError reports that a checker could not evaluate a response.
type CheckError struct {
	Msg string
	Err error
}

// NewCheckError returns a CheckError with a formatted message.
func NewCheckError(format string, args ...any) *CheckError {
	return &CheckError{Msg: fmt.Sprintf(format, args...)}
}

func (e *CheckError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *CheckError) Unwrap() error { return e.Err }

// ErrUnknownChecker is returned by Lookup for unregistered names.
var ErrUnknownChecker = errors.New("unknown checker")
