package convert

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// buildOutputPath derives the destination file from the source name when no
// destination was given, resolves a destination directory into a file inside
// it, and without overwrite steps around existing files by appending "(n)".
func buildOutputPath(src, dst string, overwrite bool) string {
	if dst == "" {
		dst = strings.TrimSuffix(src, filepath.Ext(src)) + ".pdf"
	} else if fi, err := os.Stat(dst); err == nil && fi.IsDir() {
		base := strings.TrimSuffix(filepath.Base(src), filepath.Ext(src)) + ".pdf"
		dst = filepath.Join(dst, base)
	}
	if overwrite {
		return dst
	}
	return availablePath(dst)
}

// availablePath returns the first non-existing variant of path, counting up
// from "name(2).pdf".
func availablePath(path string) string {
	if _, err := os.Stat(path); err != nil {
		return path
	}
	ext := filepath.Ext(path)
	stem := strings.TrimSuffix(path, ext)
	for n := 2; ; n++ {
		candidate := fmt.Sprintf("%s(%d)%s", stem, n, ext)
		if _, err := os.Stat(candidate); err != nil {
			return candidate
		}
	}
}
