package cleanup

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Confirmer decides whether a deletion candidate may be removed.
type Confirmer interface {
	Confirm(path string) (bool, error)
}

// Always answers every confirmation with the same value.
type Always bool

// Confirm returns a without asking.
func (a Always) Confirm(string) (bool, error) {
	return bool(a), nil
}

// Prompt asks on a writer and reads the answer from a reader. An empty answer means
// yes; end of input means no.
type Prompt struct {
	in  *bufio.Reader
	out io.Writer
}

// NewPrompt returns a Prompt reading answers from in and asking on out.
func NewPrompt(in io.Reader, out io.Writer) *Prompt {
	return &Prompt{in: bufio.NewReader(in), out: out}
}

// Confirm asks about path until it gets a yes, a no, or end of input.
func (p *Prompt) Confirm(path string) (bool, error) {
	for {
		fmt.Fprintf(p.out, "Delete %s? [Y/n] ", path)
		line, err := p.in.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return false, fmt.Errorf("reading confirmation for `%s`: %w", path, err)
		}

		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		case "":
			if errors.Is(err, io.EOF) {
				fmt.Fprintln(p.out)
				return false, nil
			}
			return true, nil
		}

		if errors.Is(err, io.EOF) {
			fmt.Fprintln(p.out)
			return false, nil
		}
		fmt.Fprintln(p.out, "Please answer y or n.")
	}
}
