// Package files keeps uploaded payloads and rendered charts on local disk.
package files

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Disk owns the upload and graph directories.
type Disk struct {
	uploadDir string
	graphDir  string
}

// NewDisk creates both directories if they do not exist.
func NewDisk(uploadDir, graphDir string) (*Disk, error) {
	for _, dir := range []string{uploadDir, graphDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create %s: %w", dir, err)
		}
	}
	return &Disk{uploadDir: uploadDir, graphDir: graphDir}, nil
}

func (d *Disk) UploadDir() string { return d.uploadDir }

func (d *Disk) GraphDir() string { return d.graphDir }

// SaveUpload writes data verbatim to <upload dir>/<id>.<ext> and returns the
// path.
func (d *Disk) SaveUpload(id, ext string, data []byte) (string, error) {
	ext = strings.TrimPrefix(ext, ".")
	if id == "" || strings.ContainsAny(id, `/\`) || strings.ContainsAny(ext, `/\`) {
		return "", fmt.Errorf("invalid upload name %q.%q", id, ext)
	}

	name := id
	if ext != "" {
		name += "." + ext
	}
	path := filepath.Join(d.uploadDir, name)

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write upload: %w", err)
	}

	return path, nil
}

// Remove deletes the given files. Missing files are not an error.
func (d *Disk) Remove(paths ...string) error {
	var errs []error
	for _, p := range paths {
		if p == "" {
			continue
		}
		if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
