package cdn

import "testing"

func TestBuildURLBitExactShapes(t *testing.T) {
	ref := PackageRef{Name: "react-dom", Version: "18.2.0", Subpath: "client"}
	cases := []struct {
		shorthand string
		want      string
	}{
		{"unpkg", "https://unpkg.com/react-dom@18.2.0/client"},
		{"jsdelivr", "https://cdn.jsdelivr.net/npm/react-dom@18.2.0/client"},
		{"esm.sh", "https://esm.sh/react-dom@18.2.0/client"},
	}
	for _, c := range cases {
		spec, err := Parse(c.shorthand)
		if err != nil {
			t.Fatalf("Parse(%q): %v", c.shorthand, err)
		}
		got := spec.BuildURL(ref)
		if got != c.want {
			t.Errorf("BuildURL(%q) = %q, want %q", c.shorthand, got, c.want)
		}
	}
}

func TestParseURLRoundTrip(t *testing.T) {
	spec, _ := Parse("unpkg")
	ref := PackageRef{Name: "@scope/pkg", Version: "1.0.0", Subpath: "dist/index.js"}
	u := spec.BuildURL(ref)
	got := spec.ParseURL(u)
	if got == nil {
		t.Fatalf("ParseURL(%q) = nil", u)
	}
	if *got != ref {
		t.Errorf("ParseURL(%q) = %+v, want %+v", u, *got, ref)
	}
}

func TestParseURLUnscopedNoSubpath(t *testing.T) {
	spec, _ := Parse("esm.sh")
	u := spec.BuildURL(PackageRef{Name: "lodash", Version: "4.17.21"})
	got := spec.ParseURL(u)
	if got == nil || got.Name != "lodash" || got.Version != "4.17.21" || got.Subpath != "" {
		t.Errorf("ParseURL(%q) = %+v", u, got)
	}
}

func TestParseUnknownShorthand(t *testing.T) {
	if _, err := Parse("not-a-cdn"); err != ErrUnknownShorthand {
		t.Errorf("expected ErrUnknownShorthand, got %v", err)
	}
}

func TestParseExplicitHost(t *testing.T) {
	spec, err := Parse("https://my-mirror.example.com")
	if err != nil {
		t.Fatal(err)
	}
	if spec.Origin != "https://my-mirror.example.com" {
		t.Errorf("Origin = %q", spec.Origin)
	}
}
