package omexml

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/holotome/htconv/internal/apperr"
	"github.com/holotome/htconv/internal/container"
	"github.com/holotome/htconv/internal/models"
)

// FileWriter persists the serialized document next to the acquisition as
// <folder-base>.companion.ome. Pixel arrays flow through the same call so
// a combined-container writer can be slotted in behind the same contract.
type FileWriter struct{}

// Write serializes doc and atomically writes it into folder.
func (FileWriter) Write(folder string, doc *models.MetadataDocument, _ map[string]*container.Array) error {
	data, err := Serialize(doc)
	if err != nil {
		return fmt.Errorf("%v: %w", err, apperr.ErrWrite)
	}
	target := filepath.Join(folder, filepath.Base(folder)+".companion.ome")
	if err := writeAtomic(target, data); err != nil {
		return fmt.Errorf("%v: %w", err, apperr.ErrWrite)
	}
	return nil
}

// WriteStandalone writes the serialized document to <folder-base>.ome.xml
// for metadata-only export.
func WriteStandalone(folder string, doc *models.MetadataDocument) error {
	data, err := Serialize(doc)
	if err != nil {
		return fmt.Errorf("%v: %w", err, apperr.ErrWrite)
	}
	target := filepath.Join(folder, filepath.Base(folder)+".ome.xml")
	if err := writeAtomic(target, data); err != nil {
		return fmt.Errorf("%v: %w", err, apperr.ErrWrite)
	}
	return nil
}

// writeAtomic writes content via tmp file, fsync and rename.
func writeAtomic(target string, content []byte) error {
	dir := filepath.Dir(target)
	tmp, err := os.CreateTemp(dir, ".htconv-tmp-*")
	if err != nil {
		return fmt.Errorf("omexml: create temp: %w", err)
	}
	tmpName := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(content); err != nil {
		return fmt.Errorf("omexml: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("omexml: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("omexml: close temp: %w", err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		return fmt.Errorf("omexml: rename: %w", err)
	}
	success = true
	return nil
}
