// Package container defines the hierarchical image container abstraction
// the pipeline reads acquisitions from.
package container

import "github.com/holotome/htconv/internal/models"

// Entry describes one image entity available inside a container.
type Entry struct {
	// Path identifies the entity inside the container, e.g. "Data/3D".
	Path string
	// Shape is the dimensional extent of the entity.
	Shape models.Shape
	// DType is the sample type: "uint8", "uint16", "float32" or "float64".
	DType string
}

// Array is one decoded N-dimensional numeric array with shape metadata.
// Data is raw little-endian samples in T-major, Z-minor plane order.
type Array struct {
	Shape models.Shape
	DType string
	Data  []byte
}

// Reader is the interface for container pixel-data access.
type Reader interface {
	// List returns every image entity in the container.
	List() ([]Entry, error)
	// Read returns the array stored at path.
	Read(path string) (*Array, error)
}
