// Package console reads operator commands such as "confirm" from a terminal.
package console

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"text/tabwriter"

	"github.com/hazz-dev/sitewatch/internal/checker"
)

// LineReader yields one line of input per call and io.EOF when input ends.
type LineReader interface {
	Readline() (string, error)
}

type scannerReader struct {
	s *bufio.Scanner
}

// Lines adapts a plain reader, such as piped stdin, to a LineReader.
func Lines(r io.Reader) LineReader {
	return &scannerReader{s: bufio.NewScanner(r)}
}

func (r *scannerReader) Readline() (string, error) {
	if r.s.Scan() {
		return r.s.Text(), nil
	}
	if err := r.s.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}

type entry struct {
	source string
	cmd    checker.Command
}

// Console dispatches input lines to registered commands.
type Console struct {
	out    io.Writer
	logger *slog.Logger

	mu       sync.RWMutex
	commands []entry
	exit     bool
}

// New creates a Console with the built-in "exit" and "help" commands.
// Pass nil logger to use the default logger.
func New(out io.Writer, logger *slog.Logger) *Console {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Console{out: out, logger: logger}
	c.Register("console",
		checker.Command{Names: []string{"exit"}, Description: "Exits the program", Run: c.requestExit},
		checker.Command{Names: []string{"help", "h"}, Description: "Prints a list of all commands", Run: c.printHelp},
	)
	return c
}

// Register adds commands on behalf of source, which is shown in the help output.
func (c *Console) Register(source string, cmds ...checker.Command) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, cmd := range cmds {
		c.commands = append(c.commands, entry{source: source, cmd: cmd})
	}
}

// Names returns every registered command name in registration order.
func (c *Console) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var names []string
	for _, e := range c.commands {
		names = append(names, e.cmd.Names...)
	}
	return names
}

// Loop handles lines from r until "exit" is entered, in which case it
// returns nil. It returns io.EOF when the input ends first.
func (c *Console) Loop(r LineReader) error {
	for {
		line, err := r.Readline()
		if errors.Is(err, io.EOF) {
			return io.EOF
		}
		if err != nil {
			return fmt.Errorf("reading console input: %w", err)
		}

		c.Handle(line)
		c.mu.RLock()
		exit := c.exit
		c.mu.RUnlock()
		if exit {
			c.logger.Info("exit requested from console")
			return nil
		}
	}
}

// Handle runs the command matching line. It reports whether one matched.
func (c *Console) Handle(line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}
	c.mu.RLock()
	var match *checker.Command
	for i := range c.commands {
		for _, name := range c.commands[i].cmd.Names {
			if name == line {
				match = &c.commands[i].cmd
				break
			}
		}
		if match != nil {
			break
		}
	}
	c.mu.RUnlock()

	if match == nil {
		c.logger.Info("command not found", "command", line)
		return false
	}
	match.Run()
	return true
}

func (c *Console) requestExit() {
	c.mu.Lock()
	c.exit = true
	c.mu.Unlock()
}

func (c *Console) printHelp() {
	c.mu.RLock()
	defer c.mu.RUnlock()

	w := tabwriter.NewWriter(c.out, 0, 0, 2, ' ', 0)
	for _, e := range c.commands {
		fmt.Fprintf(w, "[%s]\t%s\t%s\n", e.source, strings.Join(e.cmd.Names, ", "), e.cmd.Description)
	}
	w.Flush()
}
