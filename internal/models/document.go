package models

import "time"

// ModalityKind identifies one kind of image content within an acquisition.
type ModalityKind string

// Modality kinds.
const (
	KindHT3D   ModalityKind = "ht-3d"
	KindHT2MIP ModalityKind = "ht-2d-mip"
	KindHT2D   ModalityKind = "ht-2d"
	KindFL3D   ModalityKind = "fl-3d"
	KindFL2D   ModalityKind = "fl-2d"
	KindBF     ModalityKind = "brightfield"
)

// IsFluorescence reports whether the kind is a fluorescence modality.
func (k ModalityKind) IsFluorescence() bool {
	return k == KindFL3D || k == KindFL2D
}

// Shape is the dimensional extent of one image entity.
type Shape struct {
	X int `yaml:"size_x"`
	Y int `yaml:"size_y"`
	Z int `yaml:"size_z"`
	T int `yaml:"size_t"`
}

// ModalityDescriptor describes one discovered image entity in the container.
type ModalityDescriptor struct {
	Kind       ModalityKind
	Excitation float64 // nm, fluorescence kinds only
	Shape      Shape
	Path       string // source path inside the container
	PixelSizeX float64
	PixelSizeY float64
	PixelSizeZ Field[float64]
}

// LightSourceType classifies a physical illumination device.
type LightSourceType string

// Light source types.
const (
	SourceLaser LightSourceType = "laser"
	SourceLED   LightSourceType = "led"
	SourceLamp  LightSourceType = "lamp"
)

// LightSourceDescriptor is one physical light source, deduplicated by
// (type, wavelength) and shared by identity across channels.
type LightSourceDescriptor struct {
	ID         int
	Type       LightSourceType
	Wavelength float64 // nm; 0 for broadband sources
}

// ChannelDescriptor is one rendered channel. IDs are unique within a
// document even when channels share a light source.
type ChannelDescriptor struct {
	ID             int
	Name           string
	ContrastMethod string
	LightSourceID  int
	Kind           ModalityKind
	Path           string
	Shape          Shape   // shape of the modality the channel renders
	Excitation     float64 // nm, fluorescence kinds only
}

// PlaneDescriptor is one (channel, Z, T) plane.
type PlaneDescriptor struct {
	ChannelID int
	Z         int
	T         int
	Exposure  Field[float64] // ms
	StageX    Field[float64] // µm
	StageY    Field[float64]
	StageZ    Field[float64]
	DeltaT    float64 // s from acquisition start
}

// StageLabel carries the Z-offset between the reference volume's first
// plane and a fluorescence volume's first plane, attached per channel.
type StageLabel struct {
	ChannelID int
	ZOffset   float64 // µm
}

// AnnotationRecord is one free-form key/value annotation.
type AnnotationRecord struct {
	Key   string
	Value string
}

// TilingAnnotation relates this acquisition to its sibling tiles in one
// logical stitched image.
type TilingAnnotation struct {
	Group      string
	Index      int
	Siblings   []string
	StitchedID string
}

// MetadataDocument is the root aggregate paired with raw pixel data.
// Once returned by the builder it is immutable.
type MetadataDocument struct {
	Name          string
	AcquiredAt    time.Time
	PhysicalSizeX float64
	PhysicalSizeY float64
	PhysicalSizeZ Field[float64]

	Channels     []ChannelDescriptor
	LightSources []LightSourceDescriptor
	Planes       []PlaneDescriptor
	StageLabels  []StageLabel
	Annotations  []AnnotationRecord
	Tiling       *TilingAnnotation

	DeviceSerial    string
	SoftwareVersion string
}
