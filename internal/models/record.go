// Package models defines the domain types for htconv.
package models

import "time"

// KV is one free-form metadata pair preserved for annotation emission.
type KV struct {
	Key   string
	Value string
}

// ReconciledRecord is the merged, acquisition-scoped metadata view produced
// by reconciliation. It is read-only to all downstream assemblers.
type ReconciledRecord struct {
	// Voxel size in micrometers. X and Y are required unconditionally;
	// Z is only meaningful when a 3D modality exists.
	VoxelSizeX float64
	VoxelSizeY float64
	VoxelSizeZ Field[float64]

	// AcquiredAt carries the fixed-offset zone resolved during
	// reconciliation so the stored instant matches the local clock the
	// acquisition software displayed.
	AcquiredAt time.Time

	// TimeInterval is the per-frame interval in seconds.
	TimeInterval Field[float64]

	// Exposure times per modality class, in milliseconds.
	ExposureHT Field[float64]
	ExposureFL Field[float64]
	ExposureBF Field[float64]

	// Stage position in micrometers.
	StageX Field[float64]
	StageY Field[float64]
	StageZ Field[float64]

	// First-plane Z positions of the reference (phase) volume and the
	// fluorescence volume, in micrometers.
	ReferenceZStart Field[float64]
	FluorZStart     Field[float64]

	// Excitations lists fluorescence excitation wavelengths in
	// nanometers, ascending. Empty when no fluorescence modality exists.
	Excitations []float64

	// Tiling metadata, present only for tiled acquisitions.
	TileGroup    Field[string]
	TileIndex    Field[int]
	TileSiblings []string

	// Device and software identifiers.
	DeviceSerial    Field[string]
	SoftwareVersion Field[string]

	// Objective parameters.
	NumericalAperture Field[float64]
	Magnification     Field[float64]
	ImmersionRI       Field[float64]

	// User-authored project metadata.
	Experimenter          Field[string]
	ExperimenterEmail     Field[string]
	Institution           Field[string]
	ProjectName           Field[string]
	ProjectDescription    Field[string]
	ExperimentDescription Field[string]

	// Extra holds reconciled keys not consumed by any typed field above,
	// in stable (sorted) order.
	Extra []KV
}
