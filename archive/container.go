// Package archive exposes the parts of an OPC package (a docx file is a zip
// archive with a content-types manifest) as named byte streams.
package archive

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"github.com/h2non/filetype"
	"github.com/h2non/filetype/matchers"
	zip "github.com/hidez8891/zip"
)

// ErrInvalidArchive is returned when the input is not a readable zip package.
var ErrInvalidArchive = errors.New("input is not a valid package archive")

// Container gives access to package parts by their archive names.
type Container struct {
	rc    *zip.ReadCloser
	parts map[string]*zip.File
}

// Open sniffs the file type and opens the package for part access.
func Open(name string) (*Container, error) {
	head := make([]byte, 262)
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	n, err := io.ReadFull(f, head)
	f.Close()
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidArchive, err)
	}
	if !filetype.IsType(head[:n], matchers.TypeZip) {
		return nil, fmt.Errorf("%w: not a zip archive (%s)", ErrInvalidArchive, name)
	}

	rc, err := zip.OpenReader(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidArchive, err)
	}

	c := &Container{rc: rc, parts: make(map[string]*zip.File, len(rc.File))}
	for _, zf := range rc.File {
		if zf.FileInfo().IsDir() {
			continue
		}
		if !isSafePath(zf.Name) {
			rc.Close()
			return nil, fmt.Errorf("%w: entry %q has unsafe path", ErrInvalidArchive, zf.Name)
		}
		c.parts[zf.Name] = zf
	}
	return c, nil
}

func (c *Container) Close() error {
	return c.rc.Close()
}

// Has reports whether the named part exists in the package.
func (c *Container) Has(name string) bool {
	_, ok := c.parts[name]
	return ok
}

// Part reads the full content of the named part. os.ErrNotExist is returned
// when the part is missing so callers can treat optional parts uniformly.
func (c *Container) Part(name string) ([]byte, error) {
	zf, ok := c.parts[name]
	if !ok {
		return nil, fmt.Errorf("part %q: %w", name, os.ErrNotExist)
	}
	r, err := zf.Open()
	if err != nil {
		return nil, fmt.Errorf("part %q: %w", name, err)
	}
	defer r.Close()
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("part %q: %w", name, err)
	}
	return data, nil
}

// Match returns names of parts under prefix with the given suffix, e.g.
// Match("word/theme/", ".xml") finds the theme part whatever its exact name.
func (c *Container) Match(prefix, suffix string) []string {
	var names []string
	for name := range c.parts {
		if strings.HasPrefix(name, prefix) && strings.HasSuffix(name, suffix) {
			names = append(names, name)
		}
	}
	return names
}

// isSafePath returns false for paths that could escape an extraction
// directory: absolute paths and those containing ".." components.
func isSafePath(name string) bool {
	if path.IsAbs(name) || strings.HasPrefix(name, "/") || strings.HasPrefix(name, `\`) {
		return false
	}
	for _, part := range strings.Split(name, "/") {
		if part == ".." {
			return false
		}
	}
	return true
}
