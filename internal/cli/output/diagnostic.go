package output

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/leapstack-labs/leapbf/pkg/parser"
)

// Diagnostic renders err for the source file name. Parse errors are shown as
// file:line:col followed by the offending source line and a caret; any other
// error is rendered as a plain error line.
func (r *Renderer) Diagnostic(name string, src []byte, err error) {
	var pe *parser.ParseError
	if !errors.As(err, &pe) || !pe.Pos.IsValid() {
		r.Error(err.Error())
		return
	}
	_, _ = fmt.Fprintf(r.errOut, "%s %s%s\n",
		r.styles.Path.Render(fmt.Sprintf("%s:%d:%d:", name, pe.Pos.Line, pe.Pos.Column)),
		r.styles.Error.Render("error: "),
		pe.Message(),
	)
	if line, pad, ok := sourceContext(src, pe.Pos.Offset); ok {
		// Only the caret is styled; rendering the padding would expand its tabs.
		_, _ = fmt.Fprintf(r.errOut, "  %s\n  %s%s\n", line, pad, r.styles.Caret.Render("^"))
	}
}

// sourceContext returns the line containing offset and the padding that puts
// a caret under it. Tabs are preserved in the padding so it stays aligned.
func sourceContext(src []byte, offset int) (line, pad string, ok bool) {
	if offset < 0 || offset >= len(src) {
		return "", "", false
	}
	start := bytes.LastIndexByte(src[:offset], '\n') + 1
	end := len(src)
	if i := bytes.IndexByte(src[offset:], '\n'); i >= 0 {
		end = offset + i
	}
	line = strings.TrimRight(string(src[start:end]), "\r")

	var b strings.Builder
	for _, c := range src[start:offset] {
		if c == '\t' {
			b.WriteByte('\t')
		} else {
			b.WriteByte(' ')
		}
	}
	return line, b.String(), true
}
