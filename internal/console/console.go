// Package console abstracts interactive prompting so commands can run
// against a real terminal, piped input, or scripted answers in tests.
package console

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// Prompter is the capability interface commands use for user input.
type Prompter interface {
	// Ask prints a question and returns the entered line, or def when the
	// answer is empty.
	Ask(question, def string) (string, error)
	// Confirm asks a yes/no question and returns the parsed answer, or def
	// when the answer is empty.
	Confirm(question string, def bool) (bool, error)
	// Secret reads a value without echoing it back to the terminal.
	Secret(question string) (string, error)
}

// Terminal prompts on an interactive or piped stream pair.
type Terminal struct {
	In  io.Reader
	Out io.Writer

	reader *bufio.Reader
}

// NewTerminal builds a Terminal prompter over the given streams.
func NewTerminal(in io.Reader, out io.Writer) *Terminal {
	return &Terminal{In: in, Out: out, reader: bufio.NewReader(in)}
}

// Ask implements Prompter.
func (t *Terminal) Ask(question, def string) (string, error) {
	if def != "" {
		if _, err := fmt.Fprintf(t.Out, "%s [%s]: ", question, def); err != nil {
			return "", fmt.Errorf("write prompt: %w", err)
		}
	} else {
		if _, err := fmt.Fprintf(t.Out, "%s: ", question); err != nil {
			return "", fmt.Errorf("write prompt: %w", err)
		}
	}

	line, err := t.readLine()
	if err != nil {
		return "", err
	}
	if line == "" {
		return def, nil
	}
	return line, nil
}

// Confirm implements Prompter.
func (t *Terminal) Confirm(question string, def bool) (bool, error) {
	hint := "y/N"
	if def {
		hint = "Y/n"
	}
	if _, err := fmt.Fprintf(t.Out, "%s [%s]: ", question, hint); err != nil {
		return false, fmt.Errorf("write prompt: %w", err)
	}

	line, err := t.readLine()
	if err != nil {
		return false, err
	}
	switch strings.ToLower(line) {
	case "":
		return def, nil
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

// Secret implements Prompter. When stdin is a terminal the input is read
// without echo; piped input falls back to a plain line read.
func (t *Terminal) Secret(question string) (string, error) {
	if f, ok := t.In.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		if _, err := fmt.Fprintf(t.Out, "%s (hidden): ", question); err != nil {
			return "", fmt.Errorf("write prompt: %w", err)
		}
		data, err := term.ReadPassword(int(f.Fd()))
		if _, ferr := fmt.Fprintln(t.Out); ferr != nil {
			return "", fmt.Errorf("write prompt: %w", ferr)
		}
		if err != nil {
			return "", fmt.Errorf("read secret: %w", err)
		}
		return strings.TrimSpace(string(data)), nil
	}

	line, err := t.readLine()
	if err != nil {
		return "", err
	}
	return line, nil
}

func (t *Terminal) readLine() (string, error) {
	line, err := t.reader.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read answer: %w", err)
	}
	if line == "" && errors.Is(err, io.EOF) {
		return "", nil
	}
	return strings.TrimSpace(line), nil
}

// NonInteractive answers every question with its default and refuses to read
// secrets. Used for --yes runs where blocking on a prompt would hang scripts.
type NonInteractive struct{}

// Ask implements Prompter.
func (NonInteractive) Ask(_, def string) (string, error) { return def, nil }

// Confirm implements Prompter.
func (NonInteractive) Confirm(_ string, def bool) (bool, error) { return def, nil }

// Secret implements Prompter.
func (NonInteractive) Secret(string) (string, error) {
	return "", errors.New("cannot prompt for a secret in non-interactive mode")
}

// Scripted replays canned answers in order. Test helper.
type Scripted struct {
	Answers []string

	next int
	// Questions records every question asked, for assertions.
	Questions []string
}

// Ask implements Prompter.
func (s *Scripted) Ask(question, def string) (string, error) {
	answer, err := s.pop(question)
	if err != nil {
		return "", err
	}
	if answer == "" {
		return def, nil
	}
	return answer, nil
}

// Confirm implements Prompter.
func (s *Scripted) Confirm(question string, def bool) (bool, error) {
	answer, err := s.pop(question)
	if err != nil {
		return false, err
	}
	switch strings.ToLower(answer) {
	case "":
		return def, nil
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

// Secret implements Prompter.
func (s *Scripted) Secret(question string) (string, error) {
	return s.pop(question)
}

func (s *Scripted) pop(question string) (string, error) {
	s.Questions = append(s.Questions, question)
	if s.next >= len(s.Answers) {
		return "", fmt.Errorf("no scripted answer for %q", question)
	}
	answer := s.Answers[s.next]
	s.next++
	return answer, nil
}
