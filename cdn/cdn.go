// Package cdn implements the CDN URL Model: parsing shorthand CDN names or
// explicit hosts into a layout that can build and parse package URLs. It
// only constructs URLs; fetching is left to the caller (registry/tarball
// packages), matching the teacher's separation of URL composition
// (server/server.go, router.go cdnDomain/VERSION handling) from fetching.
package cdn

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrUnknownShorthand is returned when Parse is given neither a known
// shorthand nor a valid https:// URL.
var ErrUnknownShorthand = errors.New("cdn: unrecognized shorthand or URL")

// Layout names the URL template a CDN uses.
type Layout string

const (
	LayoutUnpkg    Layout = "unpkg"
	LayoutJsdelivr Layout = "jsdelivr"
	LayoutEsmSh    Layout = "esm.sh"
)

// PackageRef is the minimal package identity the CDN model builds URLs from
// and parses URLs back into.
type PackageRef struct {
	Name    string
	Version string
	Subpath string // no leading slash
}

// Spec is a resolved CDN: an origin plus the layout used to compose URLs
// against it.
type Spec struct {
	Origin string
	Layout Layout
}

var shorthands = map[string]Spec{
	"unpkg":    {Origin: "https://unpkg.com", Layout: LayoutUnpkg},
	"jsdelivr": {Origin: "https://cdn.jsdelivr.net", Layout: LayoutJsdelivr},
	"esm.sh":   {Origin: "https://esm.sh", Layout: LayoutEsmSh},
	"skypack":  {Origin: "https://cdn.skypack.dev", Layout: LayoutUnpkg},
	"jspm":     {Origin: "https://ga.jspm.io/npm:", Layout: LayoutEsmSh},
	"esm.run":  {Origin: "https://esm.run", Layout: LayoutUnpkg},
}

// Parse resolves a shorthand ("unpkg", "esm.sh", "jsdelivr.b", "skypack",
// "jspm", "esm.run") or an explicit "https://host" URL into a Spec. The
// ".b" suffix recognized on jsdelivr is the teacher's shorthand for its
// bundled-build path and resolves to the same jsdelivr layout.
func Parse(cdn string) (Spec, error) {
	key := strings.TrimSuffix(cdn, ".b")
	if s, ok := shorthands[key]; ok {
		return s, nil
	}
	if strings.HasPrefix(cdn, "https://") || strings.HasPrefix(cdn, "http://") {
		u, err := url.Parse(cdn)
		if err != nil {
			return Spec{}, fmt.Errorf("cdn: invalid URL %q: %w", cdn, err)
		}
		return Spec{Origin: strings.TrimSuffix(cdn, "/"), Layout: inferLayout(u.Host)}, nil
	}
	return Spec{}, ErrUnknownShorthand
}

func inferLayout(host string) Layout {
	switch {
	case strings.Contains(host, "jsdelivr"):
		return LayoutJsdelivr
	case strings.Contains(host, "esm.sh") || strings.Contains(host, "jspm"):
		return LayoutEsmSh
	default:
		return LayoutUnpkg
	}
}

// BuildURL composes the bit-exact URL for ref under the CDN's layout.
func (s Spec) BuildURL(ref PackageRef) string {
	pkgAtVersion := ref.Name + "@" + ref.Version
	switch s.Layout {
	case LayoutJsdelivr:
		u := s.Origin + "/npm/" + pkgAtVersion
		if ref.Subpath != "" {
			u += "/" + ref.Subpath
		}
		return u
	case LayoutEsmSh:
		u := s.Origin + "/" + pkgAtVersion
		if ref.Subpath != "" {
			u += "/" + ref.Subpath
		}
		return u
	default: // unpkg and unpkg-shaped CDNs
		u := s.Origin + "/" + pkgAtVersion
		if ref.Subpath != "" {
			u += "/" + ref.Subpath
		}
		return u
	}
}

// ParseURL is the inverse of BuildURL: given a CDN URL served by this Spec,
// recover the PackageRef, or nil if the URL does not match this CDN's
// origin/layout shape.
func (s Spec) ParseURL(raw string) *PackageRef {
	if !strings.HasPrefix(raw, s.Origin+"/") {
		return nil
	}
	rest := strings.TrimPrefix(raw, s.Origin+"/")
	if s.Layout == LayoutJsdelivr {
		rest = strings.TrimPrefix(rest, "npm/")
	}
	rest = strings.SplitN(rest, "?", 2)[0]

	var nameVersion, subpath string
	if strings.HasPrefix(rest, "@") {
		// scoped package: "@scope/name@version/subpath..."
		scopeAndRest := strings.SplitN(rest, "/", 2)
		if len(scopeAndRest) != 2 {
			return nil
		}
		nameAndRest := strings.SplitN(scopeAndRest[1], "/", 2)
		nameVersion = scopeAndRest[0] + "/" + nameAndRest[0]
		if len(nameAndRest) == 2 {
			subpath = nameAndRest[1]
		}
	} else {
		parts := strings.SplitN(rest, "/", 2)
		nameVersion = parts[0]
		if len(parts) == 2 {
			subpath = parts[1]
		}
	}

	at := strings.LastIndexByte(nameVersion, '@')
	if at <= 0 {
		return nil
	}
	return &PackageRef{Name: nameVersion[:at], Version: nameVersion[at+1:], Subpath: subpath}
}
