package fonts

import (
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/maruel/natural"
	"go.uber.org/zap"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/sync/errgroup"

	"dxp/docx"
)

// EnvFonts names directories to search before the platform ones,
// OS-list-separated.
const EnvFonts = "DXP_FONTS"

// faceRef locates one face on disk.
type faceRef struct {
	path  string
	index int
}

// index maps face keys to files for one tier of the fallback chain.
type index map[docx.FontKey]faceRef

// envDirectories returns the user-configured search directories: DXP_FONTS
// entries first, then directories from the configuration.
func envDirectories(extra []string) []string {
	var dirs []string
	for _, part := range filepath.SplitList(os.Getenv(EnvFonts)) {
		if part = strings.TrimSpace(part); part != "" {
			dirs = append(dirs, part)
		}
	}
	return append(dirs, extra...)
}

// systemDirectories returns the platform-standard font locations.
func systemDirectories() []string {
	switch runtime.GOOS {
	case "darwin":
		dirs := []string{
			"/Applications/Microsoft Word.app/Contents/Resources/DFonts",
			"/Library/Fonts",
			"/Library/Fonts/Microsoft",
			"/System/Library/Fonts",
			"/System/Library/Fonts/Supplemental",
		}
		if home, err := os.UserHomeDir(); err == nil {
			cloud := filepath.Join(home, "Library/Group Containers/UBF8T346G9.Office/FontCache/4/CloudFonts")
			if entries, err := os.ReadDir(cloud); err == nil {
				for _, e := range entries {
					if e.IsDir() {
						dirs = append(dirs, filepath.Join(cloud, e.Name()))
					}
				}
			}
		}
		return dirs
	case "windows":
		if windir := os.Getenv("WINDIR"); windir != "" {
			return []string{filepath.Join(windir, "Fonts")}
		}
		return []string{`C:\Windows\Fonts`}
	default:
		dirs := []string{"/usr/share/fonts", "/usr/local/share/fonts"}
		if home, err := os.UserHomeDir(); err == nil {
			dirs = append(dirs, filepath.Join(home, ".local/share/fonts"))
		}
		return dirs
	}
}

func isFontFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".ttf", ".otf", ".ttc":
		return true
	}
	return false
}

// listFontFiles walks the directories collecting candidate font files in
// natural name order, so index construction is deterministic across runs.
func listFontFiles(dirs []string) []string {
	var files []string
	for _, dir := range dirs {
		_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return nil // unreadable entries are skipped, not fatal
			}
			if !d.IsDir() && isFontFile(path) {
				files = append(files, path)
			}
			return nil
		})
	}
	sort.Sort(natural.StringSlice(files))
	return files
}

// fileFaces is the identity listing of one font file.
type fileFaces struct {
	path  string
	mtime int64
	faces []docx.FontKey
}

// scanIndex builds a tier index over the given directories. Face
// identification is parallel per file; merge order follows the sorted file
// list so the first face for a key always wins deterministically. When a
// cache is available, files with unchanged mtimes skip parsing.
func scanIndex(dirs []string, workers int, cache *Cache, log *zap.Logger) index {
	files := listFontFiles(dirs)
	if len(files) == 0 {
		return index{}
	}

	results := make([]fileFaces, len(files))
	var eg errgroup.Group
	eg.SetLimit(workers)
	for i, path := range files {
		eg.Go(func() error {
			results[i] = identifyFile(path, cache, log)
			return nil
		})
	}
	_ = eg.Wait()

	idx := make(index)
	for _, ff := range results {
		for faceIdx, key := range ff.faces {
			if key.Family == "" {
				continue
			}
			if _, taken := idx[key]; !taken {
				idx[key] = faceRef{path: ff.path, index: faceIdx}
			}
		}
	}
	return idx
}

func identifyFile(path string, cache *Cache, log *zap.Logger) fileFaces {
	ff := fileFaces{path: path}

	st, err := os.Stat(path)
	if err != nil {
		return ff
	}
	ff.mtime = st.ModTime().UnixNano()

	if cache != nil {
		if faces, ok := cache.Lookup(path, ff.mtime); ok {
			ff.faces = faces
			return ff
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		log.Debug("Unable to read font file", zap.String("path", path), zap.Error(err))
		return ff
	}
	faces, err := parseFaces(data)
	if err != nil {
		log.Debug("Unable to parse font file", zap.String("path", path), zap.Error(err))
		return ff
	}

	var buf sfnt.Buffer
	for _, face := range faces {
		key, _, err := faceIdentity(face, &buf)
		if err != nil {
			key = docx.FontKey{} // keeps collection indexes aligned
		}
		ff.faces = append(ff.faces, key)
	}

	if cache != nil {
		cache.Store(path, ff.mtime, ff.faces)
	}
	return ff
}
