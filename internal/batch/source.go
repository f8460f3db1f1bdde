package batch

import (
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Source is one named invoice stream.
type Source struct {
	// Name is the original file name reported in records and failures.
	Name string

	// Open returns a fresh reader over the document.
	Open func() (io.ReadCloser, error)
}

// FileSource reads the document at path.
func FileSource(path string) Source {
	return Source{
		Name: filepath.Base(path),
		Open: func() (io.ReadCloser, error) {
			return os.Open(path)
		},
	}
}

// BytesSource serves an in-memory document, e.g. an uploaded file.
func BytesSource(name string, data []byte) Source {
	return Source{
		Name: name,
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}
}

// FileSources wraps each path with FileSource, keeping order.
func FileSources(paths []string) []Source {
	sources := make([]Source, len(paths))
	for i, path := range paths {
		sources[i] = FileSource(path)
	}
	return sources
}

// DiscoverXMLFiles expands files and directories into the list of XML files
// to process. Files are kept in argument order; directories are walked
// recursively in lexical order and contribute every *.xml file.
func DiscoverXMLFiles(paths ...string) ([]string, error) {
	const op = "DiscoverXMLFiles"

	var files []string
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		if !info.IsDir() {
			files = append(files, path)
			continue
		}

		err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && isXML(d.Name()) {
				files = append(files, p)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("%s: failed to walk %s: %w", op, path, err)
		}
	}

	return files, nil
}

func isXML(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".xml")
}
