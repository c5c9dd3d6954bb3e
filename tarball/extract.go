// Package tarball implements the Tarball Mount Service (spec.md §4.E):
// streaming gzip+tar extraction of an npm package tarball into the virtual
// filesystem, with single-flight download coordination per mount root.
package tarball

import (
	"archive/tar"
	"compress/gzip"
	"fmt"
	"io"
	"strings"

	"github.com/esm-dev/esbundle/vfs"
)

// ErrCorrupt wraps a gzip/tar decode failure (spec.md §7 TarballCorrupt).
type ErrCorrupt struct {
	Cause error
}

func (e *ErrCorrupt) Error() string { return fmt.Sprintf("tarball: corrupt archive: %v", e.Cause) }
func (e *ErrCorrupt) Unwrap() error  { return e.Cause }

// Extract streams r (gzip+tar) into fsys, rooting every entry at mountRoot
// after stripping the standard npm pack "package/" directory prefix
// (spec.md §4.E step 3, §6 tarball format). Grounded on
// other_examples/bennypowers-cem workspace/remote.go's
// extractFilesFromTarGz, generalized from copying two named files to disk
// into mounting an entire package tree into a VirtualFileSystem.
func Extract(r io.Reader, mountRoot string, fsys vfs.FileSystem) (int, error) {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return 0, &ErrCorrupt{Cause: err}
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	count := 0
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return count, &ErrCorrupt{Cause: err}
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}
		rel := strings.TrimPrefix(hdr.Name, "package/")
		rel = strings.TrimPrefix(rel, "/")
		if rel == "" {
			continue
		}
		path, err := vfs.Join(mountRoot, rel)
		if err != nil {
			continue
		}
		body, err := io.ReadAll(tr)
		if err != nil {
			return count, &ErrCorrupt{Cause: err}
		}
		if err := fsys.Write(path, body); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}
