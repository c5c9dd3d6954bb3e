// Package vfs implements the engine's virtual filesystem: a path-normalized
// byte store with an in-memory backend and a disk-backed backend, selected
// at session init.
package vfs

import (
	"errors"
	"strings"
)

// ErrEscapesRoot is returned by Normalize when a path's ".." segments would
// resolve outside of the virtual root.
var ErrEscapesRoot = errors.New("vfs: path escapes root")

// Normalize canonicalizes a virtual path: collapses separators, resolves "."
// and ".." segments, and ensures a single leading "/". It rejects paths whose
// ".." segments would escape the root.
func Normalize(p string) (string, error) {
	if p == "" {
		return "/", nil
	}
	segments := strings.Split(p, "/")
	stack := make([]string, 0, len(segments))
	for _, seg := range segments {
		switch seg {
		case "", ".":
			continue
		case "..":
			if len(stack) == 0 {
				return "", ErrEscapesRoot
			}
			stack = stack[:len(stack)-1]
		default:
			stack = append(stack, seg)
		}
	}
	return "/" + strings.Join(stack, "/"), nil
}

// MustNormalize is Normalize for call sites that already know the path is
// well-formed (literals, config defaults).
func MustNormalize(p string) string {
	n, err := Normalize(p)
	if err != nil {
		panic(err)
	}
	return n
}

// Join normalizes the concatenation of a resolve directory and a relative
// specifier, the way the resolver chain joins an importer's directory with a
// relative import.
func Join(dir, rel string) (string, error) {
	if strings.HasPrefix(rel, "/") {
		return Normalize(rel)
	}
	return Normalize(dir + "/" + rel)
}

// Ext reports the extension of a virtual path, including the leading dot, or
// "" if the path has none.
func Ext(p string) string {
	base := p
	if i := strings.LastIndexByte(p, '/'); i >= 0 {
		base = p[i+1:]
	}
	i := strings.LastIndexByte(base, '.')
	if i <= 0 {
		return ""
	}
	return base[i:]
}
