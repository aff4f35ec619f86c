package pgn

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/inhies/go-bytesize"
)

// Source delivers the raw decompressed byte stream of one archive in chunks
// of whatever size the caller reads.
type Source interface {
	Open() error
	Close() error
	// Read returns the next chunk of decompressed bytes, io.EOF at the end.
	Read(p []byte) (int, error)
	// The size (or estimated size in case of archives) of the data
	Size() bytesize.ByteSize
	// Decompressed bytes delivered so far
	BytesRead() bytesize.ByteSize
}

// Reader that keeps track of the bytes read.
// Useful for reading compressed files and estimating their compression by wrapping input and output readers (i.e. input: file, output: decompressed data read).
type ByteCountingReader struct {
	reader    io.Reader
	bytesRead bytesize.ByteSize
}

func (bcr *ByteCountingReader) Read(p []byte) (n int, err error) {
	c, err := bcr.reader.Read(p)
	bcr.bytesRead += bytesize.ByteSize(uint64(c))
	return c, err
}

type closeFn func() error

func openSource(path string) (io.Reader, bytesize.ByteSize, closeFn, error) {
	if isURL(path) {
		r, err := http.Get(path)
		if err != nil {
			return nil, 0, nil, err
		}
		if r.StatusCode != http.StatusOK {
			_ = r.Body.Close()
			return nil, 0, nil, fmt.Errorf("fetching %s: unexpected status %s", path, r.Status)
		}

		return r.Body, bytesize.ByteSize(r.ContentLength), r.Body.Close, nil
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, 0, nil, err
	}

	stat, err := file.Stat()
	if err != nil {
		return nil, 0, nil, err
	}

	return file, bytesize.ByteSize(stat.Size()), file.Close, err
}

func sourceFromPath(path string) (Source, error) {
	switch {
	case strings.HasSuffix(path, ".zst"):
		return NewZstSource(path), nil
	case strings.HasSuffix(path, ".bz2"):
		return NewBzip2Source(path), nil
	case strings.HasSuffix(path, ".pgn"):
		return NewPlainSource(path), nil
	default:
		return nil, fmt.Errorf("unsupported file format: %s", path)
	}
}

// ParsePath expands a comma-separated list of archive paths, URLs and
// directories into sources. Unreadable and unrecognized entries are skipped.
func ParsePath(pgnPath string) ([]Source, error) {
	files := make([]Source, 0)
	paths := strings.Split(pgnPath, ",")

	for _, path := range paths {
		path = strings.TrimSpace(path)

		if isURL(path) {
			if source, err := sourceFromPath(path); err == nil {
				files = append(files, source)
			}
			continue
		}

		fileInfo, err := os.Stat(path)
		if err != nil {
			continue
		}

		if fileInfo.IsDir() {
			if dirSources, err := sourcesFromDir(path); err == nil {
				files = append(files, dirSources...)
			}
		} else {
			if source, err := sourceFromPath(path); err == nil {
				files = append(files, source)
			}
		}
	}
	return files, nil
}

func isURL(path string) bool {
	u, err := url.Parse(path)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https")
}

func sourcesFromDir(path string) ([]Source, error) {
	subfiles, err := os.ReadDir(path)
	sc := make([]Source, 0)
	if err != nil {
		return nil, err
	}

	for _, subfile := range subfiles {
		// Ignore subdirectories
		if subfile.IsDir() {
			continue
		}

		if source, err := sourceFromPath(filepath.Join(path, subfile.Name())); err == nil {
			sc = append(sc, source)
		}
	}
	return sc, nil
}

// Stem returns the archive name with its extensions stripped, for deriving
// output file names: ".../lichess_db_2018-01.pgn.zst" -> "lichess_db_2018-01".
func Stem(path string) string {
	base := filepath.Base(path)
	if i := strings.IndexByte(base, '.'); i > 0 {
		base = base[:i]
	}
	return base
}
