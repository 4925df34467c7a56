package container

import (
	"testing"

	"github.com/holotome/htconv/internal/models"
	"github.com/holotome/htconv/internal/testutil"
)

func TestDir_ListAndRead(t *testing.T) {
	root := t.TempDir()
	testutil.WriteGroup(t, root, "Data/3D", models.Shape{X: 4, Y: 4, Z: 2, T: 1})
	testutil.WriteGroup(t, root, "Data/2DMIP", models.Shape{X: 4, Y: 4, Z: 1, T: 1})

	d, err := NewDir(root)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	entries, err := d.List()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("len(entries) = %d, want 2", len(entries))
	}
	// Lexical order: 2DMIP before 3D.
	if entries[0].Path != "Data/2DMIP" || entries[1].Path != "Data/3D" {
		t.Errorf("paths = [%s %s]", entries[0].Path, entries[1].Path)
	}
	if entries[1].Shape != (models.Shape{X: 4, Y: 4, Z: 2, T: 1}) {
		t.Errorf("shape = %+v", entries[1].Shape)
	}

	arr, err := d.Read("Data/3D")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := 4 * 4 * 2 * 2; len(arr.Data) != want {
		t.Errorf("len(Data) = %d, want %d", len(arr.Data), want)
	}
	if arr.DType != "uint16" {
		t.Errorf("DType = %q", arr.DType)
	}
}

func TestDir_PathEscapeRejected(t *testing.T) {
	root := t.TempDir()
	testutil.WriteGroup(t, root, "Data/3D", models.Shape{X: 2, Y: 2, Z: 1, T: 1})

	d, err := NewDir(root)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := d.Read("../outside"); err == nil {
		t.Fatal("expected error for escaping path")
	}
}

func TestNewDir_MissingRoot(t *testing.T) {
	if _, err := NewDir("/does/not/exist"); err == nil {
		t.Fatal("expected error for missing root")
	}
}
