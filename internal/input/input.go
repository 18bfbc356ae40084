// Package input reads lines typed into a remora session, either from a
// terminal through readline or from any other stream.
package input

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"
)

// DefaultPrompt is the prompt shown when none has been set.
const DefaultPrompt = "> "

// LineReader is a source of session lines. Close must be called on it before
// it is disposed of.
type LineReader interface {
	// ReadLine blocks until the next non-blank line is read and returns it
	// with surrounding whitespace removed. At end of input it returns "" and
	// io.EOF.
	ReadLine() (string, error)

	// SetPrompt sets the prompt shown before each line. Readers that do not
	// show a prompt ignore it.
	SetPrompt(p string)

	Close() error
}

// DirectReader reads lines from any io.Reader. It does not strip control or
// editing sequences from the input.
//
// Create one with [NewDirectReader].
type DirectReader struct {
	r *bufio.Reader
}

// InteractiveReader reads lines from stdin using a Go implementation of GNU
// Readline, which keeps editing sequences out of the input and gives the user
// line history. It should only be used when connected to a TTY.
//
// Create one with [NewInteractiveReader].
type InteractiveReader struct {
	rl     *readline.Instance
	prompt string
}

// NewDirectReader creates a DirectReader with a buffered reader on r.
func NewDirectReader(r io.Reader) *DirectReader {
	return &DirectReader{
		r: bufio.NewReader(r),
	}
}

// NewInteractiveReader creates an InteractiveReader and initializes readline.
// If historyFile is not empty, lines are saved to and loaded from it.
func NewInteractiveReader(historyFile string) (*InteractiveReader, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:      DefaultPrompt,
		HistoryFile: historyFile,
	})
	if err != nil {
		return nil, fmt.Errorf("create readline config: %w", err)
	}

	return &InteractiveReader{
		rl:     rl,
		prompt: DefaultPrompt,
	}, nil
}

// Close does nothing; it is here so DirectReader is a LineReader.
func (dr *DirectReader) Close() error {
	return nil
}

// Close tears down readline.
func (ir *InteractiveReader) Close() error {
	return ir.rl.Close()
}

// ReadLine reads the next non-blank line.
func (dr *DirectReader) ReadLine() (string, error) {
	var line string
	var err error

	for line == "" {
		line, err = dr.r.ReadString('\n')
		if err != nil && (err != io.EOF || line == "") {
			return "", err
		}

		line = strings.TrimSpace(line)
	}

	return line, nil
}

// ReadLine reads the next non-blank line. An interrupt (Ctrl-C) on an empty
// line is reported as io.EOF.
func (ir *InteractiveReader) ReadLine() (string, error) {
	var line string
	var err error

	for line == "" {
		line, err = ir.rl.Readline()
		if err == readline.ErrInterrupt {
			if line == "" {
				return "", io.EOF
			}
			line = ""
			continue
		}
		if err != nil && (err != io.EOF || line == "") {
			return "", err
		}

		line = strings.TrimSpace(line)
	}

	return line, nil
}

// SetPrompt does nothing for a DirectReader.
func (dr *DirectReader) SetPrompt(p string) {}

// SetPrompt updates the prompt to the given text.
func (ir *InteractiveReader) SetPrompt(p string) {
	ir.prompt = p
	ir.rl.SetPrompt(p)
}

// Prompt gets the current prompt.
func (ir *InteractiveReader) Prompt() string {
	return ir.prompt
}
