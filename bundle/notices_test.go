package bundle

import (
	"strings"
	"testing"
)

func TestNoticePlainTextIncludesLocation(t *testing.T) {
	n := Notice{Severity: SeverityError, Text: "unexpected token", File: "/a.ts", Line: 3, Column: 5}
	got := n.Format(AnsiNone)
	if !strings.Contains(got, "/a.ts:3:5") || !strings.Contains(got, "unexpected token") {
		t.Errorf("expected plain text to include file:line:col and message, got %q", got)
	}
}

func TestNoticeHTMLEscapesText(t *testing.T) {
	n := Notice{Severity: SeverityWarning, Text: `<script>alert(1)</script>`}
	got := n.Format(AnsiHTML)
	if strings.Contains(got, "<script>alert(1)</script>") {
		t.Errorf("expected HTML formatting to escape notice text, got %q", got)
	}
	if !strings.Contains(got, "esbundle-warning") {
		t.Errorf("expected warning class in HTML output, got %q", got)
	}
}

func TestFormatNoticesJoinsWithNewlines(t *testing.T) {
	notices := []Notice{
		{Severity: SeverityError, Text: "first"},
		{Severity: SeverityWarning, Text: "second"},
	}
	got := FormatNotices(notices, AnsiNone)
	lines := strings.Split(got, "\n")
	if len(lines) != 2 {
		t.Fatalf("expected two lines, got %d: %q", len(lines), got)
	}
}
