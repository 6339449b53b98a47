// Package errors formats diagnostics with source context: line/column
// information and a caret pointing at the failing token. Modeled on the
// teacher's internal/errors.CompilerError, with its own small Position type
// instead of a Pascal lexer.Position.
package errors

import (
	"fmt"
	"strings"
)

// Position is the minimal location info a Diagnostic needs to render a caret.
type Position struct {
	Filename string
	Line     int
	Column   int
}

// Diagnostic is a single reportable failure: a parse error, an analysis
// error (spec §4.2), or an unchecked runtime error (spec §7).
type Diagnostic struct {
	Message string
	Source  string
	Pos     Position
}

func New(pos Position, message, source string) *Diagnostic {
	return &Diagnostic{Pos: pos, Message: message, Source: source}
}

func (d *Diagnostic) Error() string { return d.Format(false) }

// Format renders the diagnostic with source context; color enables ANSI
// escapes for terminal output (spec §7: "errors are formatted to a
// diagnostic string" at the host boundary).
func (d *Diagnostic) Format(color bool) string {
	var sb strings.Builder

	if d.Pos.Filename != "" {
		sb.WriteString(fmt.Sprintf("Error in %s:%d:%d\n", d.Pos.Filename, d.Pos.Line, d.Pos.Column))
	} else {
		sb.WriteString(fmt.Sprintf("Error at line %d:%d\n", d.Pos.Line, d.Pos.Column))
	}

	line := d.sourceLine(d.Pos.Line)
	if line != "" {
		lineNumStr := fmt.Sprintf("%4d | ", d.Pos.Line)
		sb.WriteString(lineNumStr)
		sb.WriteString(line)
		sb.WriteString("\n")

		sb.WriteString(strings.Repeat(" ", len(lineNumStr)+max(d.Pos.Column-1, 0)))
		if color {
			sb.WriteString("\033[1;31m")
		}
		sb.WriteString("^")
		if color {
			sb.WriteString("\033[0m")
		}
		sb.WriteString("\n")
	}

	if color {
		sb.WriteString("\033[1m")
	}
	sb.WriteString(d.Message)
	if color {
		sb.WriteString("\033[0m")
	}

	return sb.String()
}

func (d *Diagnostic) sourceLine(lineNum int) string {
	if d.Source == "" {
		return ""
	}
	lines := strings.Split(d.Source, "\n")
	if lineNum < 1 || lineNum > len(lines) {
		return ""
	}
	return lines[lineNum-1]
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// FormatAll renders a batch of diagnostics, one after another.
func FormatAll(diags []*Diagnostic, color bool) string {
	var sb strings.Builder
	for _, d := range diags {
		sb.WriteString(d.Format(color))
		sb.WriteString("\n")
	}
	return sb.String()
}
