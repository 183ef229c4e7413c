package console

import (
	"errors"
	"io"

	"github.com/chzyer/readline"
)

// Terminal is a line editor with history and tab completion of command names.
type Terminal struct {
	rl *readline.Instance
}

// IsTerminal reports whether fd is an interactive terminal.
func IsTerminal(fd int) bool {
	return readline.IsTerminal(fd)
}

// Terminal opens a line editor on the process terminal that completes the
// names registered so far. Close it when the console loop has ended.
func (c *Console) Terminal() (*Terminal, error) {
	var items []readline.PrefixCompleterInterface
	for _, name := range c.Names() {
		items = append(items, readline.PcItem(name))
	}
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "> ",
		AutoComplete:    readline.NewPrefixCompleter(items...),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, err
	}
	return &Terminal{rl: rl}, nil
}

// Readline returns the next line. Ctrl-C and Ctrl-D are read as the exit command.
func (t *Terminal) Readline() (string, error) {
	return terminalLine(t.rl.Readline())
}

func terminalLine(line string, err error) (string, error) {
	if errors.Is(err, readline.ErrInterrupt) || errors.Is(err, io.EOF) {
		return "exit", nil
	}
	return line, err
}

// Close restores the terminal.
func (t *Terminal) Close() error {
	return t.rl.Close()
}
