package bundle

import (
	"strings"
	"testing"
)

func TestTransformStripsTypes(t *testing.T) {
	result, err := Transform(`const x: number = 1 + 2`, TransformOptions{Loader: "ts", Minify: false})
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(result.Code), ": number") {
		t.Errorf("expected type annotation to be stripped, got %q", result.Code)
	}
}

func TestTransformReportsSyntaxErrorsAsBuildFailed(t *testing.T) {
	_, err := Transform(`const = = =`, TransformOptions{Loader: "js"})
	if err == nil {
		t.Fatal("expected a syntax error to be reported")
	}
	e, ok := err.(*ErrBuildFailed)
	if !ok || len(e.Notices) == 0 {
		t.Errorf("expected ErrBuildFailed with notices, got %v (%T)", err, err)
	}
}
