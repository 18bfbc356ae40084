package remora

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dekarrin/remora/internal/eval"
	"github.com/dekarrin/remora/internal/input"
	"github.com/dekarrin/remora/internal/rmerrors"
	"github.com/dekarrin/remora/scan"
	"github.com/dekarrin/rosed"
)

const consoleOutputWidth = 80

const sessionHelp = `Each line typed is parsed with the grammar. Commands:
  :rule NAME                  parse from rule NAME
  :mode predictive|backtrack  choose how alternatives are decided
  :first                      show the FIRST set of every rule
  :debug                      toggle the rule invocation trace
  :help                       show this help
  :quit                       end the session`

// SessionOptions configures a Session.
type SessionOptions struct {
	// Parse is the initial parse configuration. Partial is ignored.
	Parse ParseOptions

	// ForceDirect reads input directly instead of through readline even when
	// attached to a terminal.
	ForceDirect bool

	// HistoryFile is where readline keeps line history. Empty keeps none.
	HistoryFile string
}

// Session tries a grammar out interactively: every line read is parsed and
// the result or the failure is written out.
type Session struct {
	spec *Spec
	in   input.LineReader
	out  *bufio.Writer

	opts    ParseOptions
	debug   bool
	interp  *eval.Interpreter
	running bool

	forceDirect bool
}

// NewSession creates a session on the given streams. Nil streams default to
// stdin and stdout. Readline is used when both are the terminal and
// ForceDirect is not set.
func NewSession(spec *Spec, inputStream io.Reader, outputStream io.Writer, opts SessionOptions) (*Session, error) {
	if inputStream == nil {
		inputStream = os.Stdin
	}
	if outputStream == nil {
		outputStream = os.Stdout
	}

	sess := &Session{
		spec:        spec,
		out:         bufio.NewWriter(outputStream),
		opts:        opts.Parse,
		forceDirect: opts.ForceDirect,
	}
	sess.opts.Partial = false

	if err := sess.reload(); err != nil {
		return nil, err
	}

	useReadline := !opts.ForceDirect && inputStream == os.Stdin && outputStream == os.Stdout
	if useReadline {
		ir, err := input.NewInteractiveReader(opts.HistoryFile)
		if err != nil {
			return nil, fmt.Errorf("initializing interactive-mode input reader: %w", err)
		}
		sess.in = ir
	} else {
		sess.in = input.NewDirectReader(inputStream)
	}

	return sess, nil
}

// Close releases the input reader. It must not be called while the session
// is running.
func (sess *Session) Close() error {
	if sess.running {
		return fmt.Errorf("cannot close a running session")
	}

	if err := sess.in.Close(); err != nil {
		return fmt.Errorf("close line reader: %w", err)
	}
	return nil
}

// RunUntilQuit reads and handles lines until :quit is given or input ends.
func (sess *Session) RunUntilQuit() error {
	intro := "remora grammar session\n"
	if sess.forceDirect {
		intro += "(direct input mode)\n"
	}
	intro += "======================\n"
	intro += fmt.Sprintf("%d rules; parsing from %s in %s mode.\n", len(sess.spec.Grammar.Rules), sess.interp.Entry(), sess.modeName())
	intro += "Type :help for commands.\n"
	if err := sess.write(intro); err != nil {
		return err
	}

	sess.running = true
	defer func() {
		sess.running = false
	}()

	for sess.running {
		sess.in.SetPrompt(sess.interp.Entry() + "> ")
		line, err := sess.in.ReadLine()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("get input line: %w", err)
		}

		var output string
		if strings.HasPrefix(line, ":") {
			output, err = sess.command(line)
		} else {
			output = sess.parse(line)
		}
		if err != nil {
			output = rosed.Edit(rmerrors.Human(err)).Wrap(consoleOutputWidth).String()
		}
		if output != "" {
			if err := sess.write(output + "\n"); err != nil {
				return err
			}
		}
	}

	return sess.write("Goodbye\n")
}

func (sess *Session) command(line string) (string, error) {
	fields := strings.Fields(line)
	cmd, args := strings.ToLower(fields[0]), fields[1:]

	switch cmd {
	case ":quit", ":q", ":exit":
		sess.running = false
		return "", nil
	case ":help", ":h":
		return sessionHelp, nil
	case ":first":
		return sess.spec.FirstTable(consoleOutputWidth), nil
	case ":debug":
		sess.debug = !sess.debug
		if sess.debug {
			return "Trace on", nil
		}
		return "Trace off", nil
	case ":rule":
		if len(args) != 1 {
			return "", rmerrors.New("Give the name of exactly one rule, like \":rule expr\"", "")
		}
		old := sess.opts.Entry
		sess.opts.Entry = args[0]
		if err := sess.reload(); err != nil {
			sess.opts.Entry = old
			return "", err
		}
		return "Parsing from " + args[0], nil
	case ":mode":
		if len(args) != 1 {
			return "", rmerrors.New("Give the mode to use, either \"predictive\" or \"backtrack\"", "")
		}
		switch strings.ToLower(args[0]) {
		case "predictive", "p":
			sess.opts.Backtrack = false
		case "backtrack", "backtracking", "b":
			sess.opts.Backtrack = true
		default:
			return "", rmerrors.Newf("There is no %q mode; use \"predictive\" or \"backtrack\"", args[0])
		}
		if err := sess.reload(); err != nil {
			return "", err
		}
		return "Using " + sess.modeName() + " mode", nil
	default:
		return "", rmerrors.Newf("I don't know the command %q; type :help to see the commands", fields[0])
	}
}

// parse parses line and describes the outcome.
func (sess *Session) parse(line string) string {
	p, result, err := sess.interp.Parse(line, "", sess.debug)

	var sb strings.Builder
	if sess.debug {
		if trace := p.Trace(); trace != "" {
			sb.WriteString(trace)
			sb.WriteString("\n")
		}
	}

	var f *scan.Failure
	switch {
	case err == nil:
		sb.WriteString("accepted: ")
		sb.WriteString(FormatValue(result))
	case errors.As(err, &f):
		sb.WriteString(f.FullMessage(line))
	default:
		sb.WriteString(rosed.Edit("error: " + err.Error()).Wrap(consoleOutputWidth).String())
	}
	return sb.String()
}

func (sess *Session) reload() error {
	interp, err := sess.spec.Interpreter(sess.opts)
	if err != nil {
		return err
	}
	sess.interp = interp
	return nil
}

func (sess *Session) modeName() string {
	if sess.opts.Backtrack {
		return "backtracking"
	}
	return "predictive"
}

func (sess *Session) write(s string) error {
	if _, err := sess.out.WriteString(s); err != nil {
		return fmt.Errorf("could not write output: %w", err)
	}
	if err := sess.out.Flush(); err != nil {
		return fmt.Errorf("could not flush output: %w", err)
	}
	return nil
}

// FormatValue renders a parse result for display. Strings are quoted and
// trees are shown as rule[children...].
func FormatValue(v interface{}) string {
	switch tv := v.(type) {
	case nil:
		return "none"
	case string:
		return fmt.Sprintf("%q", tv)
	case *scan.Tree:
		parts := make([]string, len(tv.Children))
		for i := range tv.Children {
			parts[i] = FormatValue(tv.Children[i])
		}
		return tv.Rule + "[" + strings.Join(parts, " ") + "]"
	default:
		return fmt.Sprintf("%v", tv)
	}
}
