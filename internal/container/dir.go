package container

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/holotome/htconv/internal/models"
)

// attrsFile is the per-group sidecar describing shape and sample type.
const attrsFile = "attrs.yaml"

// groupAttrs mirrors the attrs.yaml sidecar of one image group.
type groupAttrs struct {
	Shape models.Shape `yaml:",inline"`
	DType string       `yaml:"dtype"`
}

// Dir implements Reader over an extracted acquisition layout: one directory
// per image group holding an attrs.yaml sidecar plus raw little-endian
// plane files, one per (T, Z) pair.
type Dir struct {
	root string
}

// NewDir creates a Dir reader rooted at the given directory.
// The directory must already exist.
func NewDir(root string) (*Dir, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("container: resolve root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("container: stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("container: root is not a directory: %s", abs)
	}
	return &Dir{root: abs}, nil
}

// List walks the container root and returns an entry for every directory
// carrying an attrs.yaml sidecar, in lexical path order.
func (d *Dir) List() ([]Entry, error) {
	var out []Entry
	err := filepath.WalkDir(d.root, func(p string, de fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if de.IsDir() || de.Name() != attrsFile {
			return nil
		}
		group := filepath.Dir(p)
		attrs, err := d.readAttrs(group)
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(d.root, group)
		if err != nil {
			return err
		}
		out = append(out, Entry{
			Path:  filepath.ToSlash(rel),
			Shape: attrs.Shape,
			DType: attrs.DType,
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("container: list: %w", err)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

// Read loads the array at path by concatenating its plane files in
// T-major, Z-minor order.
func (d *Dir) Read(path string) (*Array, error) {
	group, err := d.safePath(path)
	if err != nil {
		return nil, err
	}
	attrs, err := d.readAttrs(group)
	if err != nil {
		return nil, err
	}

	planeBytes := attrs.Shape.X * attrs.Shape.Y * sampleSize(attrs.DType)
	nPlanes := attrs.Shape.Z * attrs.Shape.T
	data := make([]byte, 0, planeBytes*nPlanes)

	for t := 0; t < attrs.Shape.T; t++ {
		for z := 0; z < attrs.Shape.Z; z++ {
			name := filepath.Join(group, planeName(t, z))
			plane, err := os.ReadFile(name)
			if err != nil {
				return nil, fmt.Errorf("container: read plane %s: %w", name, err)
			}
			if len(plane) != planeBytes {
				return nil, fmt.Errorf("container: plane %s is %d bytes, want %d", name, len(plane), planeBytes)
			}
			data = append(data, plane...)
		}
	}

	return &Array{Shape: attrs.Shape, DType: attrs.DType, Data: data}, nil
}

func (d *Dir) readAttrs(group string) (*groupAttrs, error) {
	data, err := os.ReadFile(filepath.Join(group, attrsFile))
	if err != nil {
		return nil, fmt.Errorf("container: read attrs: %w", err)
	}
	var attrs groupAttrs
	if err := yaml.Unmarshal(data, &attrs); err != nil {
		return nil, fmt.Errorf("container: parse attrs: %w", err)
	}
	if attrs.Shape.X <= 0 || attrs.Shape.Y <= 0 {
		return nil, fmt.Errorf("container: attrs in %s missing size_x/size_y", group)
	}
	if attrs.Shape.Z <= 0 {
		attrs.Shape.Z = 1
	}
	if attrs.Shape.T <= 0 {
		attrs.Shape.T = 1
	}
	if attrs.DType == "" {
		attrs.DType = "uint16"
	}
	return &attrs, nil
}

// safePath resolves a container path against the root and rejects any
// result that escapes it.
func (d *Dir) safePath(rel string) (string, error) {
	cleaned := filepath.Clean(filepath.FromSlash(rel))
	if filepath.IsAbs(cleaned) {
		return "", fmt.Errorf("container: absolute paths not allowed: %s", rel)
	}
	joined := filepath.Join(d.root, cleaned)
	abs, err := filepath.Abs(joined)
	if err != nil {
		return "", fmt.Errorf("container: resolve path: %w", err)
	}
	if !strings.HasPrefix(abs, d.root+string(os.PathSeparator)) && abs != d.root {
		return "", fmt.Errorf("container: path escapes root: %s", rel)
	}
	return abs, nil
}

// planeName returns the raw plane file name for a (T, Z) pair.
func planeName(t, z int) string {
	return fmt.Sprintf("t%03d_z%03d.raw", t, z)
}

// sampleSize returns the byte width of one sample of the given dtype.
func sampleSize(dtype string) int {
	switch dtype {
	case "uint8":
		return 1
	case "float32":
		return 4
	case "float64":
		return 8
	default: // uint16
		return 2
	}
}
