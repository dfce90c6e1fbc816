package vm

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
)

// DiagKind is a diagnostic severity.
type DiagKind uint8

const (
	DiagErr DiagKind = iota
	DiagTrace
	DiagNote
)

// Diagnostic carries a compile/runtime message with source position.
type Diagnostic struct {
	Message     string
	SourceBytes []byte
	SourcePath  string
	ByteOffset  int
	Kind        DiagKind
}

// ErrorReporter accumulates compile/runtime diagnostics with source
// positions and renders them as a caret-annotated snippet, colorized by
// severity via fatih/color / go-colorable / go-isatty.
type ErrorReporter struct {
	diags  []Diagnostic
	out    io.Writer
	colors bool
}

// NewErrorReporter builds a reporter writing to w. If w is nil, it
// defaults to a colorable-wrapped stderr and only colorizes when stderr
// is a real terminal.
func NewErrorReporter(w io.Writer) *ErrorReporter {
	if w == nil {
		w = colorable.NewColorableStderr()
		return &ErrorReporter{out: w, colors: isatty.IsTerminal(os.Stderr.Fd())}
	}
	return &ErrorReporter{out: w, colors: false}
}

func (r *ErrorReporter) record(d Diagnostic) {
	r.diags = append(r.diags, d)
}

func (r *ErrorReporter) reportFatal(msg, path string, offset int, trace []TraceEntry) {
	r.record(Diagnostic{Message: msg, SourcePath: path, ByteOffset: offset, Kind: DiagErr})
	for _, t := range trace[1:] {
		r.record(Diagnostic{Message: t.Note, SourcePath: t.SourcePath, ByteOffset: t.ByteOffset, Kind: DiagTrace})
	}
}

func (r *ErrorReporter) Note(msg, path string, offset int) {
	r.record(Diagnostic{Message: msg, SourcePath: path, ByteOffset: offset, Kind: DiagNote})
}

// Diagnostics returns the accumulated diagnostics in emission order.
func (r *ErrorReporter) Diagnostics() []Diagnostic { return r.diags }

// Print renders every accumulated diagnostic as a caret line under the
// offending source, colorized by severity when attached to a tty: red
// for err, yellow for trace, cyan for note.
func (r *ErrorReporter) Print() {
	for _, d := range r.diags {
		r.printOne(d)
	}
}

func (r *ErrorReporter) printOne(d Diagnostic) {
	header := fmt.Sprintf("[%s] %s", kindLabel(d.Kind), d.Message)
	if d.SourcePath != "" {
		line, col := lineColAt(d.SourceBytes, d.ByteOffset)
		header = fmt.Sprintf("%s:%d:%d: %s", d.SourcePath, line, col, header)
	}
	if r.colors {
		fmt.Fprintln(r.out, colorFor(d.Kind).Sprint(header))
	} else {
		fmt.Fprintln(r.out, header)
	}
	if len(d.SourceBytes) == 0 {
		return
	}
	printSourceSnippet(r.out, d.SourceBytes, d.ByteOffset, r.colors, colorFor(d.Kind))
}

func kindLabel(k DiagKind) string {
	switch k {
	case DiagErr:
		return "error"
	case DiagTrace:
		return "trace"
	case DiagNote:
		return "note"
	default:
		return "diag"
	}
}

func colorFor(k DiagKind) *color.Color {
	switch k {
	case DiagErr:
		return color.New(color.FgRed, color.Bold)
	case DiagTrace:
		return color.New(color.FgYellow)
	default:
		return color.New(color.FgCyan)
	}
}

func lineColAt(src []byte, offset int) (line, col int) {
	line, col = 1, 1
	for i := 0; i < offset; i++ {
		if i < len(src) && src[i] == '\n' {
			line++
			col = 1
		} else {
			col++
		}
	}
	return
}

// printSourceSnippet renders a padded, caret-annotated source line,
// narrowed to a single line since a diagnostic carries a byte offset
// rather than a line range.
func printSourceSnippet(out io.Writer, src []byte, offset int, colors bool, c *color.Color) {
	content := string(src)
	lines := strings.Split(content, "\n")
	lineNo, col := lineColAt(src, offset)
	idx := lineNo - 1
	if idx < 0 || idx >= len(lines) {
		return
	}
	fmt.Fprintf(out, "%4d | %s\n", lineNo, lines[idx])
	pad := col - 1
	if pad < 0 {
		pad = 0
	}
	caret := strings.Repeat(" ", pad) + "^"
	if colors {
		fmt.Fprintf(out, "     | %s\n", c.Sprint(caret))
	} else {
		fmt.Fprintf(out, "     | %s\n", caret)
	}
}
