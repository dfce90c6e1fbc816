package vm

import (
	"bytes"
	"strings"
	"testing"
)

func TestErrorReporterRecordsNote(t *testing.T) {
	var buf bytes.Buffer
	r := NewErrorReporter(&buf)
	r.Note("heads up", "a.atom", 5)
	diags := r.Diagnostics()
	if len(diags) != 1 || diags[0].Kind != DiagNote || diags[0].Message != "heads up" {
		t.Fatalf("expected a single recorded note diagnostic, got %v", diags)
	}
}

func TestErrorReporterReportFatalRecordsMessageAndTrace(t *testing.T) {
	var buf bytes.Buffer
	r := NewErrorReporter(&buf)
	trace := []TraceEntry{
		{SourcePath: "a.atom", ByteOffset: 0, Note: "top"},
		{SourcePath: "a.atom", ByteOffset: 10, Note: "called from here"},
	}
	r.reportFatal("boom", "a.atom", 3, trace)
	diags := r.Diagnostics()
	if len(diags) != 2 {
		t.Fatalf("expected the fatal message plus one trace entry (trace[0] is the fatal itself), got %d", len(diags))
	}
	if diags[0].Kind != DiagErr || diags[0].Message != "boom" {
		t.Fatalf("expected the first diagnostic to be the fatal error itself, got %v", diags[0])
	}
	if diags[1].Kind != DiagTrace || diags[1].Message != "called from here" {
		t.Fatalf("expected the second diagnostic to be the trace entry, got %v", diags[1])
	}
}

func TestErrorReporterPrintWithoutColorsIncludesMessageAndPosition(t *testing.T) {
	var buf bytes.Buffer
	r := NewErrorReporter(&buf)
	r.Note("bad token", "a.atom", 2)
	r.Print()
	out := buf.String()
	if !strings.Contains(out, "bad token") {
		t.Fatalf("expected printed output to contain the message, got %q", out)
	}
	if !strings.Contains(out, "a.atom:1:3") {
		t.Fatalf("expected printed output to contain the line:col position, got %q", out)
	}
}

func TestErrorReporterPrintRendersSourceSnippetWhenAttached(t *testing.T) {
	var buf bytes.Buffer
	r := NewErrorReporter(&buf)
	r.record(Diagnostic{
		Message:     "unexpected token",
		SourceBytes: []byte("let x = ;"),
		SourcePath:  "a.atom",
		ByteOffset:  8,
		Kind:        DiagErr,
	})
	r.Print()
	out := buf.String()
	if !strings.Contains(out, "let x = ;") {
		t.Fatalf("expected the source line to be rendered, got %q", out)
	}
	if !strings.Contains(out, "^") {
		t.Fatalf("expected a caret under the offending byte offset, got %q", out)
	}
}

func TestLineColAtTracksNewlines(t *testing.T) {
	src := []byte("ab\ncd\nef")
	line, col := lineColAt(src, 4)
	if line != 2 || col != 2 {
		t.Fatalf("expected line 2 col 2 at offset 4, got line=%d col=%d", line, col)
	}
}
