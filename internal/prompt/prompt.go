// Package prompt reads line-oriented answers from the user.
package prompt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// ErrCancelled is returned when the user backs out of a choice.
var ErrCancelled = errors.New("cancelled")

// Prompter defines the interface for reading user input
type Prompter interface {
	Prompt(prompt string) (string, error)
}

// LinePrompter writes the prompt to out and reads one line from in.
type LinePrompter struct {
	reader *bufio.Reader
	out    io.Writer
}

// NewStdinPrompter creates a prompter that reads from stdin
func NewStdinPrompter() *LinePrompter {
	return NewLinePrompter(os.Stdin, os.Stdout)
}

// NewLinePrompter creates a prompter over arbitrary streams. Tests pass a
// strings.Reader and a bytes.Buffer.
func NewLinePrompter(in io.Reader, out io.Writer) *LinePrompter {
	if out == nil {
		out = io.Discard
	}
	return &LinePrompter{reader: bufio.NewReader(in), out: out}
}

// Prompt displays a prompt and reads user input
func (p *LinePrompter) Prompt(prompt string) (string, error) {
	fmt.Fprint(p.out, prompt)
	input, err := p.reader.ReadString('\n')
	if err != nil {
		// A final line without a newline is still an answer.
		if errors.Is(err, io.EOF) && input != "" {
			return strings.TrimSpace(input), nil
		}
		return "", err
	}
	return strings.TrimSpace(input), nil
}

// YesNo asks until the answer is y or n. An empty answer returns def.
func YesNo(p Prompter, question string, def bool) (bool, error) {
	hint := "[y/N]"
	if def {
		hint = "[Y/n]"
	}
	for {
		answer, err := p.Prompt(fmt.Sprintf("%s %s ", question, hint))
		if err != nil {
			return false, err
		}
		switch strings.ToLower(answer) {
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		case "":
			return def, nil
		}
	}
}

// Choose prints a numbered list to out and returns the zero-based index the
// user picked. Entering q returns ErrCancelled.
func Choose(p Prompter, out io.Writer, items []string) (int, error) {
	if len(items) == 0 {
		return 0, ErrCancelled
	}
	for i, item := range items {
		fmt.Fprintf(out, "  %d. %s\n", i+1, item)
	}
	for {
		answer, err := p.Prompt("Enter a number, or 'q' to cancel: ")
		if err != nil {
			return 0, err
		}
		if strings.EqualFold(answer, "q") {
			return 0, ErrCancelled
		}
		n, err := strconv.Atoi(answer)
		if err == nil && n >= 1 && n <= len(items) {
			return n - 1, nil
		}
		fmt.Fprintf(out, "Please enter a number between 1 and %d\n", len(items))
	}
}
