package engine

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Confirmer answers yes/no questions before mutating the machine.
type Confirmer interface {
	Confirm(prompt string) (bool, error)
}

// ConsoleConfirm prompts on the terminal and accepts y/yes.
type ConsoleConfirm struct {
	In  io.Reader
	Out io.Writer
}

// Confirm prints the prompt and reads one line. Anything but y/yes,
// including a read error on a closed stdin, declines.
func (c ConsoleConfirm) Confirm(prompt string) (bool, error) {
	fmt.Fprintf(c.Out, "%s [y/N]: ", prompt)

	line, err := bufio.NewReader(c.In).ReadString('\n')
	if err != nil && line == "" {
		return false, nil
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}

// AutoConfirm answers yes to everything (--yes).
type AutoConfirm struct{}

// Confirm always accepts.
func (AutoConfirm) Confirm(string) (bool, error) { return true, nil }

// AutoDecline answers no to everything.
type AutoDecline struct{}

// Confirm always declines.
func (AutoDecline) Confirm(string) (bool, error) { return false, nil }
