package config

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"dxp/misc"
)

type ReporterConfig struct {
	Destination string `yaml:"destination" sanitize:"path_clean,assure_dir_exists_for_file" validate:"required,filepath"`
}

// Prepare creates initialized empty reporter.
func (conf *ReporterConfig) Prepare() (*Report, error) {

	r := &Report{entries: make(map[string]entry)}

	if f, err := os.Create(conf.Destination); err == nil {
		r.file = f
	} else if f, err = os.CreateTemp("", misc.GetAppName()+"-report.*.zip"); err == nil {
		r.file = f
	} else {
		return nil, fmt.Errorf("unable to create report: %w", err)
	}
	return r, nil
}

type entry struct {
	path  string
	stamp time.Time
	data  []byte
}

// Report accumulates debugging artifacts (parsed document dumps, resolved
// style and layout snapshots, final log) to be archived together.
// NOTE: presently not to be used concurrently!
type Report struct {
	entries map[string]entry
	file    *os.File
}

// Name returns name of underlying file.
func (r *Report) Name() string {
	if r == nil || r.file == nil {
		return ""
	}
	if n, err := filepath.Abs(r.file.Name()); err == nil {
		return n
	}
	return r.file.Name()
}

// Store saves path to a file to be put in the final archive later.
func (r *Report) Store(name, path string) {
	if r == nil {
		// Ignore uninitialized cases to avoid checking in many places. This means no report has been requested.
		return
	}
	if p, err := filepath.Abs(path); err == nil {
		path = p
	}
	r.entries[name] = entry{path: path, stamp: time.Now()}
}

// StoreData saves binary data to be put in the final archive later as a file
// under requested name.
func (r *Report) StoreData(name string, data []byte) {
	if r == nil {
		return
	}
	if _, exists := r.entries[name]; exists {
		// version the name to avoid collisions
		name = fmt.Sprintf("%s-%d", name, time.Now().UnixNano())
	}
	r.entries[name] = entry{data: data, stamp: time.Now()}
}

// Close finalizes debug report.
func (r *Report) Close() error {
	if r == nil || r.file == nil {
		return nil
	}
	defer r.file.Close()
	return r.finalize()
}

// finalize creates the final archive (report) with all previously stored items.
func (r *Report) finalize() error {

	arc := zip.NewWriter(r.file)
	defer arc.Close()

	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	sort.Strings(names)

	manifest := new(bytes.Buffer)
	for _, name := range names {
		e := r.entries[name]
		if len(e.path) > 0 {
			fmt.Fprintf(manifest, "%s\t%s\t%s\n", name, e.stamp.Format(time.RFC3339), e.path)
		} else {
			fmt.Fprintf(manifest, "%s\t%s\t(%d bytes)\n", name, e.stamp.Format(time.RFC3339), len(e.data))
		}
	}
	if err := saveFile(arc, "MANIFEST", time.Now(), bytes.NewReader(manifest.Bytes())); err != nil {
		return err
	}

	for _, name := range names {
		e := r.entries[name]
		if len(e.path) > 0 {
			f, err := os.Open(e.path)
			if err != nil {
				// file may be gone by now - record the fact and keep going
				if err := saveFile(arc, name+".missing", e.stamp, bytes.NewReader([]byte(err.Error()))); err != nil {
					return err
				}
				continue
			}
			err = saveFile(arc, name, e.stamp, f)
			f.Close()
			if err != nil {
				return err
			}
			continue
		}
		if err := saveFile(arc, name, e.stamp, bytes.NewReader(e.data)); err != nil {
			return err
		}
	}
	return nil
}

func saveFile(arc *zip.Writer, name string, stamp time.Time, r io.Reader) error {
	w, err := arc.CreateHeader(&zip.FileHeader{
		Name:     name,
		Method:   zip.Deflate,
		Modified: stamp,
	})
	if err != nil {
		return err
	}
	_, err = io.Copy(w, r)
	return err
}
