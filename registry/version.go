package registry

import (
	"fmt"
	"sort"

	"github.com/Masterminds/semver/v3"
)

// ErrVersionUnresolvable is wrapped with the package/range that could not be
// satisfied by any published version.
type ErrVersionUnresolvable struct {
	Name  string
	Range string
}

func (e *ErrVersionUnresolvable) Error() string {
	return fmt.Sprintf("registry: no version of %s satisfies %q", e.Name, e.Range)
}

// semverExact reports whether s is already an exact, fully-qualified semver
// (spec.md §4.D resolveVersion step 1), returning its canonical form.
func semverExact(s string) (string, error) {
	v, err := semver.StrictNewVersion(s)
	if err != nil {
		return "", err
	}
	return v.Original(), nil
}

// resolveVersionFromDoc implements §4.D resolveVersion's selection step once
// the registry document is already in hand: if rangeOrTag already names an
// exact published version, it wins outright (step 1); otherwise the dist-tag
// map is consulted, then the highest version satisfying the semver range is
// picked, excluding prereleases unless the range itself mentions one —
// exactly the precedence github.com/Masterminds/semver/v3 applies natively.
func resolveVersionFromDoc(doc *VersionsDocument, rangeOrTag string) (string, error) {
	if _, ok := doc.Versions[rangeOrTag]; ok {
		return rangeOrTag, nil
	}
	if tagged, ok := doc.DistTags[rangeOrTag]; ok {
		if _, ok := doc.Versions[tagged]; ok {
			return tagged, nil
		}
	}
	constraint, err := semver.NewConstraint(rangeOrTag)
	if err != nil {
		return "", &ErrVersionUnresolvable{Name: doc.Name, Range: rangeOrTag}
	}
	var candidates semver.Collection
	rawByCanonical := make(map[string]string, len(doc.Versions))
	for raw := range doc.Versions {
		v, err := semver.NewVersion(raw)
		if err != nil {
			continue
		}
		if constraint.Check(v) {
			candidates = append(candidates, v)
			rawByCanonical[v.String()] = raw
		}
	}
	if len(candidates) == 0 {
		return "", &ErrVersionUnresolvable{Name: doc.Name, Range: rangeOrTag}
	}
	sort.Sort(candidates)
	best := candidates[len(candidates)-1]
	if raw, ok := rawByCanonical[best.String()]; ok {
		return raw, nil
	}
	return best.String(), nil
}
