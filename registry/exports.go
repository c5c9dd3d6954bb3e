package registry

import (
	"encoding/json"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Conditions selects which condition branches of an exports/imports map are
// honored, derived from the build's platform (spec.md §4.F.6.4).
type Conditions struct {
	Browser bool
	Module  bool
	Default bool // always true in practice; included for explicitness
}

// ConditionsForPlatform maps esbuild.platform to the condition set spec.md
// §4.F.6.4 specifies: browser ⇒ {browser, module, import, default}; node ⇒
// {node, require, default}.
func ConditionsForPlatform(platform string) []string {
	if platform == "browser" {
		return []string{"browser", "module", "import", "default"}
	}
	return []string{"node", "require", "default"}
}

// ExportsValue is one node of a package.json "exports"/"imports" tree:
// either a direct file-path string or a map of conditions/subpath patterns
// to further ExportsValue nodes. Unmarshaling preserves object key order
// via orderedmap.OrderedMap, because spec.md §9 Design Notes calls out that
// the algorithm's tie-breaks between overlapping glob patterns are an
// observable property of declaration order, not key name or length: "implement
// it from the documented spec rather than ad-hoc lookups, because tie-breaks
// (object-order vs. key-alphabetical) are observable." A plain
// map[string]any, populated by encoding/json, discards that order and makes
// an equal-length-pattern tie-break nondeterministic across builds
// (violates Testable Property spec.md §8.2).
type ExportsValue struct {
	str   string
	obj   *orderedmap.OrderedMap[string, ExportsValue]
	isStr bool
}

// UnmarshalJSON accepts either a JSON string or a JSON object; any other
// shape (array, number, bool, null) is invalid for an exports/imports node
// and decodes to the zero value (isStr=false, obj=nil), which resolves to
// "not found" rather than erroring, matching the permissive posture the
// rest of this resolver takes toward malformed metadata.
func (v *ExportsValue) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		v.str, v.isStr = s, true
		return nil
	}
	om := orderedmap.New[string, ExportsValue]()
	if err := json.Unmarshal(data, om); err != nil {
		return nil // zero value: resolves to "not found", not a hard error
	}
	v.obj = om
	return nil
}

// ResolvedEntry is the result of resolveEntry: a path relative to the
// package root plus the sideEffects declaration, if any.
type ResolvedEntry struct {
	File        string
	SideEffects any // bool, or []string of glob patterns; nil if unspecified
}

// ResolveEntry implements spec.md §4.D resolveEntry: exports conditional map
// → module → main → browser → index.js, in that priority order.
func ResolveEntry(m *Manifest, subpath string, platformConditions []string) (*ResolvedEntry, error) {
	if m.Exports != nil {
		file, ok := resolveExportsMap(m.Exports, subpath, platformConditions)
		if !ok {
			return nil, &ErrSubpathNotExported{Name: m.Name, Subpath: subpath}
		}
		return &ResolvedEntry{File: file, SideEffects: m.SideEffects}, nil
	}
	if subpath != "" && subpath != "." {
		// No exports map: npm's legacy resolution treats any subpath as a
		// direct relative file reference from the package root.
		return &ResolvedEntry{File: "/" + strings.TrimPrefix(subpath, "/"), SideEffects: m.SideEffects}, nil
	}
	if m.Module != "" {
		return &ResolvedEntry{File: normalizeEntryFile(m.Module), SideEffects: m.SideEffects}, nil
	}
	if m.Main != "" {
		return &ResolvedEntry{File: normalizeEntryFile(m.Main), SideEffects: m.SideEffects}, nil
	}
	if browserMain, ok := m.Browser.(string); ok && browserMain != "" {
		return &ResolvedEntry{File: normalizeEntryFile(browserMain), SideEffects: m.SideEffects}, nil
	}
	return &ResolvedEntry{File: "/index.js", SideEffects: m.SideEffects}, nil
}

func normalizeEntryFile(f string) string {
	if !strings.HasPrefix(f, "/") {
		f = "/" + f
	}
	return f
}

// resolveExportsMap walks the package.json "exports" field. It accepts the
// three shapes the npm spec allows: a bare string (package has a single
// entry, no subpaths), a flat map of conditions (no subpaths), or a map of
// subpath patterns each holding its own condition map.
func resolveExportsMap(exports *ExportsValue, subpath string, conditions []string) (string, bool) {
	key := "."
	if subpath != "" && subpath != "." {
		key = "./" + strings.TrimPrefix(subpath, "/")
	}

	if exports.isStr {
		if key == "." {
			return exports.str, true
		}
		return "", false
	}
	if exports.obj == nil {
		return "", false
	}
	if isConditionsMap(exports.obj) {
		// flat condition map, only addresses the "." export
		if key != "." {
			return "", false
		}
		return resolveConditions(exports.obj, conditions)
	}
	// subpath map: try exact key, then glob-star patterns
	if target, ok := exports.obj.Get(key); ok {
		return resolveTarget(&target, conditions)
	}
	return resolveExportsGlob(exports.obj, key, conditions)
}

// isConditionsMap distinguishes {"import": "...", "require": "..."} (a flat
// condition map for ".") from {"./a": {...}, "./b": "..."} (a subpath map):
// npm's rule is that if every key starts with "." it's a subpath map,
// otherwise it's a condition map.
func isConditionsMap(m *orderedmap.OrderedMap[string, ExportsValue]) bool {
	for pair := m.Oldest(); pair != nil; pair = pair.Next() {
		if strings.HasPrefix(pair.Key, ".") {
			return false
		}
	}
	return true
}

func resolveConditions(m *orderedmap.OrderedMap[string, ExportsValue], conditions []string) (string, bool) {
	for _, cond := range conditions {
		if target, ok := m.Get(cond); ok {
			return resolveTarget(&target, conditions)
		}
	}
	return "", false
}

func resolveTarget(target *ExportsValue, conditions []string) (string, bool) {
	if target.isStr {
		return target.str, true
	}
	if target.obj != nil {
		return resolveConditions(target.obj, conditions)
	}
	return "", false
}

// resolveExportsGlob matches key against the subpath map's glob-star
// patterns (e.g. "./lib/*" -> "./dist/*.js"), the way the teacher's
// build.go walks package.json#exports glob entries. Patterns are compared
// in declaration order (via the OrderedMap's Oldest()/Next() iteration):
// the longest matching pattern wins, and when two patterns tie in length
// the first one declared in package.json wins, matching Node's own
// exports-resolution tie-break rather than leaving it to Go's randomized
// map iteration order.
func resolveExportsGlob(m *orderedmap.OrderedMap[string, ExportsValue], key string, conditions []string) (string, bool) {
	var bestPattern string
	var bestTarget *ExportsValue
	for pair := m.Oldest(); pair != nil; pair = pair.Next() {
		pattern := pair.Key
		idx := strings.IndexByte(pattern, '*')
		if idx < 0 {
			continue
		}
		prefix, suffix := pattern[:idx], pattern[idx+1:]
		if !strings.HasPrefix(key, prefix) || !strings.HasSuffix(key, suffix) {
			continue
		}
		if bestTarget == nil || len(pattern) > len(bestPattern) {
			bestPattern = pattern
			target := pair.Value
			bestTarget = &target
		}
	}
	if bestTarget == nil {
		return "", false
	}
	idx := strings.IndexByte(bestPattern, '*')
	matched := key[idx : len(key)-(len(bestPattern)-idx-1)]
	resolved, ok := resolveTarget(bestTarget, conditions)
	if !ok {
		return "", false
	}
	return strings.Replace(resolved, "*", matched, 1), true
}
