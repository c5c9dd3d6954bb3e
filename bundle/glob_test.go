package bundle

import "testing"

func TestGlobMatchLiteral(t *testing.T) {
	if !globMatch("lib/index.js", "lib/index.js") {
		t.Error("expected literal pattern to match identical path")
	}
	if globMatch("lib/index.js", "lib/other.js") {
		t.Error("expected literal pattern not to match a different path")
	}
}

func TestGlobMatchStar(t *testing.T) {
	if !globMatch("lib/*.js", "lib/index.js") {
		t.Error("expected star pattern to match within a segment")
	}
	if globMatch("lib/*.js", "lib/index.css") {
		t.Error("expected star pattern to respect the literal suffix")
	}
}

func TestGlobMatchStripsLeadingDotSlash(t *testing.T) {
	if !globMatch("./lib/*.js", "./lib/index.js") {
		t.Error("expected leading ./ to be stripped from both pattern and path")
	}
}
