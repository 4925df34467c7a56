// Package testutil provides shared test helpers for building synthetic
// acquisition folders and temporary ledger databases.
package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/holotome/htconv/internal/ledger"
	"github.com/holotome/htconv/internal/models"
)

// TestLedger creates a temporary ledger database that is automatically
// cleaned up.
func TestLedger(t *testing.T) *ledger.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "htconv-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := ledger.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// WriteSideFiles writes the metadata side-files of an acquisition folder.
// Lines in autoA use "key,value", lines in autoB use "key=value",
// mirroring the two software generations that write them.
func WriteSideFiles(t *testing.T, folder string, autoA, autoB map[string]string, timestamp string) {
	t.Helper()
	if err := os.MkdirAll(folder, 0o755); err != nil {
		t.Fatal(err)
	}
	writeKV(t, filepath.Join(folder, "config.dat"), autoA, ",")
	if autoB != nil {
		writeKV(t, filepath.Join(folder, "deviceinfo.dat"), autoB, "=")
	}
	if timestamp != "" {
		if err := os.WriteFile(filepath.Join(folder, "timestamp.txt"), []byte(timestamp), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

// WriteGroup writes one image group under folder: the attrs.yaml sidecar
// plus zero-filled uint16 plane files for every (T, Z) pair.
func WriteGroup(t *testing.T, folder, relPath string, shape models.Shape) {
	t.Helper()
	group := filepath.Join(folder, filepath.FromSlash(relPath))
	if err := os.MkdirAll(group, 0o755); err != nil {
		t.Fatal(err)
	}
	attrs := fmt.Sprintf("size_x: %d\nsize_y: %d\nsize_z: %d\nsize_t: %d\ndtype: uint16\n",
		shape.X, shape.Y, shape.Z, shape.T)
	if err := os.WriteFile(filepath.Join(group, "attrs.yaml"), []byte(attrs), 0o644); err != nil {
		t.Fatal(err)
	}
	plane := make([]byte, shape.X*shape.Y*2)
	for ti := 0; ti < shape.T; ti++ {
		for z := 0; z < shape.Z; z++ {
			name := fmt.Sprintf("t%03d_z%03d.raw", ti, z)
			if err := os.WriteFile(filepath.Join(group, name), plane, 0o644); err != nil {
				t.Fatal(err)
			}
		}
	}
}

// WriteOverall writes a user overall-config file and returns its path.
func WriteOverall(t *testing.T, dir string, values map[string]string) string {
	t.Helper()
	path := filepath.Join(dir, "overall.csv")
	writeKV(t, path, values, ",")
	return path
}

func writeKV(t *testing.T, path string, values map[string]string, sep string) {
	t.Helper()
	var content string
	for k, v := range values {
		content += k + sep + v + "\n"
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}
