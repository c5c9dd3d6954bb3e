package bundle

import (
	"fmt"
	"html"
	"strings"

	"github.com/fatih/color"
)

// Severity of one engine diagnostic.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Notice is a formatted engine diagnostic (spec.md §4.H): the engine's raw
// error-list entries pass through here before being attached to BuildFailed
// or the result's warnings field.
type Notice struct {
	Severity Severity
	Text     string
	File     string
	Line     int
	Column   int
}

// AnsiMode selects how notices are rendered (spec.md §3 BuildConfig.ansi).
type AnsiMode string

const (
	AnsiColor AnsiMode = "ansi"
	AnsiHTML  AnsiMode = "html"
	AnsiNone  AnsiMode = "none"
)

var (
	errorColor = color.New(color.FgRed, color.Bold)
	warnColor  = color.New(color.FgYellow, color.Bold)
	dimColor   = color.New(color.Faint)
)

// Format renders a notice according to mode.
func (n Notice) Format(mode AnsiMode) string {
	switch mode {
	case AnsiHTML:
		return n.formatHTML()
	case AnsiNone:
		return n.plainText()
	default:
		return n.formatANSI()
	}
}

func (n Notice) plainText() string {
	loc := ""
	if n.File != "" {
		loc = fmt.Sprintf(" (%s:%d:%d)", n.File, n.Line, n.Column)
	}
	return fmt.Sprintf("%s: %s%s", n.Severity, n.Text, loc)
}

func (n Notice) formatANSI() string {
	c := errorColor
	if n.Severity == SeverityWarning {
		c = warnColor
	}
	loc := ""
	if n.File != "" {
		loc = dimColor.Sprintf(" (%s:%d:%d)", n.File, n.Line, n.Column)
	}
	return c.Sprint(strings.ToUpper(string(n.Severity))) + ": " + n.Text + loc
}

func (n Notice) formatHTML() string {
	class := "esbundle-error"
	colorHex := "#d33"
	if n.Severity == SeverityWarning {
		class = "esbundle-warning"
		colorHex = "#b58900"
	}
	loc := ""
	if n.File != "" {
		loc = fmt.Sprintf(` <span style="opacity:.6">(%s:%d:%d)</span>`, html.EscapeString(n.File), n.Line, n.Column)
	}
	return fmt.Sprintf(`<span class="%s" style="color:%s">%s</span>%s`, class, colorHex, html.EscapeString(n.Text), loc)
}

// FormatNotices joins every notice's rendering with newlines. The session
// does not call it: ErrBuildFailed.Notices and BuildResult.Warnings hold the
// unformatted Notice values, and BuildConfig.Ansi is not applied to them.
func FormatNotices(notices []Notice, mode AnsiMode) string {
	lines := make([]string, len(notices))
	for i, n := range notices {
		lines[i] = n.Format(mode)
	}
	return strings.Join(lines, "\n")
}
