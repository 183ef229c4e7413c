package console

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/chzyer/readline"
)

func TestTerminalLine(t *testing.T) {
	broken := errors.New("tty gone")
	tests := []struct {
		name     string
		line     string
		err      error
		wantLine string
		wantErr  error
	}{
		{"line", "confirm", nil, "confirm", nil},
		{"ctrl-c", "", readline.ErrInterrupt, "exit", nil},
		{"ctrl-d", "", io.EOF, "exit", nil},
		{"read error", "", broken, "", broken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			line, err := terminalLine(tt.line, tt.err)
			if line != tt.wantLine {
				t.Errorf("expected line %q, got %q", tt.wantLine, line)
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected error %v, got %v", tt.wantErr, err)
			}
		})
	}
}

type ctrlDReader struct{}

func (ctrlDReader) Readline() (string, error) { return terminalLine("", io.EOF) }

func TestConsole_CtrlDEndsLoop(t *testing.T) {
	c := New(&bytes.Buffer{}, nil)
	if err := c.Loop(ctrlDReader{}); err != nil {
		t.Errorf("expected Ctrl-D to exit cleanly, got %v", err)
	}
}
