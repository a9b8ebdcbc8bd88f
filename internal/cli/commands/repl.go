package commands

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapbf/internal/cli/output"
	"github.com/leapstack-labs/leapbf/internal/engine"
	"github.com/leapstack-labs/leapbf/pkg/interp"
	"github.com/leapstack-labs/leapbf/pkg/ir"
	"github.com/leapstack-labs/leapbf/pkg/parser"
)

const (
	replPrompt     = "leapbf> "
	replContPrompt = "   ...> "
	replSourceName = "<repl>"
	defaultWindow  = 8
)

// NewREPLCommand creates the repl command.
func NewREPLCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Interactive interpreter on a persistent tape",
		Long: `Start an interactive session. Each line is compiled and run on a tape
that persists between lines. A line with an unclosed '[' continues on the
next line until the brackets balance.

',' always sees end of input in the REPL.`,
		Args: cobra.NoArgs,
		RunE: runREPL,
	}
}

func runREPL(cmd *cobra.Command, _ []string) error {
	cc, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	var historyFile string
	if cc.Cfg.History && cc.Cfg.StatePath != "" {
		historyFile = filepath.Join(filepath.Dir(cc.Cfg.StatePath), "repl_history")
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          replPrompt,
		HistoryFile:     historyFile,
		AutoComplete:    newDotCompleter(),
		InterruptPrompt: "^C",
		EOFPrompt:       ".quit",
	})
	if err != nil {
		return fmt.Errorf("failed to initialize REPL: %w", err)
	}
	defer func() { _ = rl.Close() }()

	cc.Renderer.Printf("leapbf REPL (tape: %d cells, eof: %s, -O%d)\n", cc.Cfg.TapeSize, cc.Cfg.EOF, cc.Cfg.OptLevel)
	cc.Renderer.Println("Type .help for commands, .quit to exit")

	s := newREPLSession(cc.Engine, cc.Renderer)
	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			s.discard()
			rl.SetPrompt(replPrompt)
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read line: %w", err)
		}

		quit, more := s.feed(line)
		if quit {
			return nil
		}
		if more {
			rl.SetPrompt(replContPrompt)
		} else {
			rl.SetPrompt(replPrompt)
		}
	}
}

func newDotCompleter() *readline.PrefixCompleter {
	return readline.NewPrefixCompleter(
		readline.PcItem(".help"),
		readline.PcItem(".tape"),
		readline.PcItem(".reset"),
		readline.PcItem(".ir"),
		readline.PcItem(".quit"),
		readline.PcItem(".exit"),
	)
}

// replSession is the state behind the REPL prompt: one interpreter whose
// tape survives between lines, plus any incomplete input.
type replSession struct {
	eng     *engine.Engine
	it      *interp.Interpreter
	r       *output.Renderer
	pending strings.Builder
	last    *ir.Program
}

func newREPLSession(eng *engine.Engine, r *output.Renderer) *replSession {
	return &replSession{
		eng: eng,
		it:  eng.NewInterpreter(nil, r.Writer()),
		r:   r,
	}
}

// feed handles one input line. quit ends the session; more asks for a
// continuation line.
func (s *replSession) feed(line string) (quit, more bool) {
	if s.pending.Len() == 0 {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			return false, false
		}
		if strings.HasPrefix(trimmed, ".") {
			return s.dot(trimmed), false
		}
	}

	s.pending.WriteString(line)
	s.pending.WriteByte('\n')
	src := s.pending.String()

	u, err := s.eng.Frontend(replSourceName, []byte(src))
	if errors.Is(err, parser.ErrUnmatchedLoopStart) {
		return false, true
	}
	s.pending.Reset()
	if err != nil {
		s.r.Diagnostic(replSourceName, []byte(src), err)
		return false, false
	}

	s.last = u.Program
	if err := s.it.Run(u.Program); err != nil {
		s.r.Error(err.Error())
	}
	return false, false
}

// discard drops incomplete input.
func (s *replSession) discard() {
	s.pending.Reset()
}

func (s *replSession) dot(line string) bool {
	parts := strings.Fields(line)
	switch strings.ToLower(parts[0]) {
	case ".quit", ".exit":
		return true

	case ".help":
		s.r.Printf("%s", replHelp)

	case ".reset":
		s.it.Tape().Reset()
		s.r.Muted("tape reset")

	case ".tape":
		window := defaultWindow
		if len(parts) > 1 {
			n, err := strconv.Atoi(parts[1])
			if err != nil || n <= 0 {
				s.r.Error("usage: .tape [cells]")
				return false
			}
			window = n
		}
		s.renderTape(window)

	case ".ir":
		if s.last == nil {
			s.r.Muted("(no program yet)")
			return false
		}
		_ = s.last.Format(s.r.Writer())

	default:
		s.r.Error(fmt.Sprintf("unknown command: %s (type .help for commands)", parts[0]))
	}
	return false
}

// renderTape shows window cells starting half a window left of the pointer.
func (s *replSession) renderTape(window int) {
	tp := s.it.Tape()
	if window > tp.Size() {
		window = tp.Size()
	}
	ptr := tp.Pointer()
	from := ptr - window/2

	header := table.Row{""}
	values := table.Row{"value"}
	for i := from; i < from+window; i++ {
		idx := tp.Index(i - ptr)
		label := strconv.Itoa(idx)
		if idx == ptr {
			label = "*" + label
		}
		header = append(header, label)
		values = append(values, tp.Cell(idx))
	}

	t := s.r.Table()
	t.AppendHeader(header)
	t.AppendRow(values)
	t.Render()
}

const replHelp = `
Commands:
  .help           Show this help message
  .tape [n]       Show n cells around the pointer (marked *)
  .reset          Zero the tape and return the pointer to cell 0
  .ir             Show the IR of the last program
  .quit / .exit   Exit the REPL

Tips:
  - An unclosed '[' continues on the next line
  - Ctrl-C discards an incomplete program
`
