package builtin

import "testing"

func TestRegistryRoundTrip(t *testing.T) {
	for _, e := range table {
		bare := stripNodePrefix(e.Name)
		got := Normalize(bare)
		want := "node:" + bare
		if got != want {
			t.Errorf("Normalize(%q) = %q, want %q", bare, got, want)
		}
		if !IsBuiltin(Normalize(e.Name)) {
			t.Errorf("IsBuiltin(Normalize(%q)) = false, want true", e.Name)
		}
	}
}

func TestIsBuiltinWithPrefixAndSubpath(t *testing.T) {
	cases := []struct {
		spec string
		want bool
	}{
		{"fs", true},
		{"node:fs", true},
		{"node:fs/promises", true},
		{"fs/promises", true},
		{"left-pad", false},
		{"node:not-a-builtin", false},
	}
	for _, c := range cases {
		if got := IsBuiltin(c.spec); got != c.want {
			t.Errorf("IsBuiltin(%q) = %v, want %v", c.spec, got, c.want)
		}
	}
}

func TestGetPolyfill(t *testing.T) {
	if p := GetPolyfill("buffer"); p != "buffer" {
		t.Errorf("GetPolyfill(buffer) = %q", p)
	}
	if p := GetPolyfill("inspector"); p != "" {
		t.Errorf("GetPolyfill(inspector) = %q, want empty", p)
	}
}

func TestGetExternalPatternsExcludesDeprecatedByDefault(t *testing.T) {
	patterns := GetExternalPatterns(ExternalPatternsOptions{Runtime: "node"})
	for _, p := range patterns {
		if p == "domain" || p == "punycode" {
			t.Errorf("expected deprecated builtin %q to be excluded by default", p)
		}
	}
}

func TestGetPolyfillMapProfiles(t *testing.T) {
	conservative := GetPolyfillMap(ProfileConservative)
	maximal := GetPolyfillMap(ProfileMaximal)
	if len(maximal) < len(conservative) {
		t.Errorf("maximal profile (%d) should be a superset of conservative (%d)", len(maximal), len(conservative))
	}
	if _, ok := conservative["punycode"]; ok {
		t.Error("conservative profile should not include deprecated punycode")
	}
	if _, ok := maximal["punycode"]; !ok {
		t.Error("maximal profile should include deprecated punycode")
	}
}
