// Package archive streams MusicBrainz export bundles: bz2-compressed tar
// archives whose entries are tab-separated dump files, one per table.
package archive

import (
	"archive/tar"
	"compress/bzip2"
	"io"

	"github.com/pkg/errors"
)

// Entry is a single file inside an archive, readable exactly once before
// the next call to Reader.Next.
type Entry struct {
	// Name is the path as stored in the tar, e.g. "mbdump/artist".
	Name string
	// Size is the uncompressed entry size in bytes, as recorded in the
	// tar header; used only as a progress-reporting hint.
	Size int64

	r io.Reader
}

// Read implements io.Reader, forwarding to the underlying tar entry.
func (e *Entry) Read(p []byte) (int, error) {
	return e.r.Read(p)
}

// Reader walks the entries of a bz2-compressed tar archive in order.
type Reader struct {
	tr *tar.Reader
}

// NewReader wraps r, decompressing it as bzip2 and parsing the result as a
// tar stream. r is never closed by Reader; callers own its lifecycle.
func NewReader(r io.Reader) *Reader {
	return &Reader{tr: tar.NewReader(bzip2.NewReader(r))}
}

// Next advances to the following regular-file entry, skipping directories
// and other non-file tar members. It returns io.EOF once the archive is
// exhausted.
func (a *Reader) Next() (*Entry, error) {
	for {
		hdr, err := a.tr.Next()
		if err == io.EOF {
			return nil, io.EOF
		}
		if err != nil {
			return nil, errors.Wrap(err, "reading tar header")
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}
		return &Entry{Name: hdr.Name, Size: hdr.Size, r: a.tr}, nil
	}
}
