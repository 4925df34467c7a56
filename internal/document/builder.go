// Package document composes assembler outputs into one validated
// metadata document per acquisition.
package document

import (
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/holotome/htconv/internal/apperr"
	"github.com/holotome/htconv/internal/models"
)

// Build assembles the root metadata document and validates its
// cross-cutting invariants: channel-ID uniqueness, referential integrity
// of planes and stage labels to channels, of channels to light sources,
// and that every light source is referenced. It fails wrapping
// apperr.ErrInvalidDocument with the first invariant violated and never
// returns a partially valid document.
func Build(channels []models.ChannelDescriptor, sources []models.LightSourceDescriptor, planes []models.PlaneDescriptor, labels []models.StageLabel, annotations []models.AnnotationRecord, tiling *models.TilingAnnotation, rec *models.ReconciledRecord, name string) (*models.MetadataDocument, error) {
	doc := &models.MetadataDocument{
		Name:            name,
		AcquiredAt:      rec.AcquiredAt,
		PhysicalSizeX:   rec.VoxelSizeX,
		PhysicalSizeY:   rec.VoxelSizeY,
		PhysicalSizeZ:   rec.VoxelSizeZ,
		Channels:        channels,
		LightSources:    sources,
		Planes:          planes,
		StageLabels:     labels,
		Annotations:     annotations,
		Tiling:          tiling,
		DeviceSerial:    rec.DeviceSerial.Or(""),
		SoftwareVersion: rec.SoftwareVersion.Or(""),
	}

	if err := validate(doc); err != nil {
		return nil, fmt.Errorf("document: %v: %w", err, apperr.ErrInvalidDocument)
	}
	return doc, nil
}

// validate runs the invariant rules in order and returns the first
// violation.
func validate(doc *models.MetadataDocument) error {
	rules := []validation.RuleFunc{
		uniqueChannelIDs,
		channelsReferenceSources,
		planesReferenceChannels,
		labelsReferenceChannels,
		sourcesReferenced,
	}
	for _, rule := range rules {
		if err := validation.Validate(doc, validation.By(rule)); err != nil {
			return err
		}
	}
	return nil
}

func uniqueChannelIDs(value interface{}) error {
	doc := value.(*models.MetadataDocument)
	seen := make(map[int]struct{}, len(doc.Channels))
	for _, ch := range doc.Channels {
		if _, dup := seen[ch.ID]; dup {
			return fmt.Errorf("duplicate channel id %d", ch.ID)
		}
		seen[ch.ID] = struct{}{}
	}
	return nil
}

func channelsReferenceSources(value interface{}) error {
	doc := value.(*models.MetadataDocument)
	for _, ch := range doc.Channels {
		if !hasSource(doc, ch.LightSourceID) {
			return fmt.Errorf("channel %d references unknown light source %d", ch.ID, ch.LightSourceID)
		}
	}
	return nil
}

func planesReferenceChannels(value interface{}) error {
	doc := value.(*models.MetadataDocument)
	for _, p := range doc.Planes {
		if !hasChannel(doc, p.ChannelID) {
			return fmt.Errorf("plane (c=%d z=%d t=%d) references unknown channel", p.ChannelID, p.Z, p.T)
		}
	}
	return nil
}

func labelsReferenceChannels(value interface{}) error {
	doc := value.(*models.MetadataDocument)
	for _, l := range doc.StageLabels {
		if !hasChannel(doc, l.ChannelID) {
			return fmt.Errorf("stage label references unknown channel %d", l.ChannelID)
		}
	}
	return nil
}

func sourcesReferenced(value interface{}) error {
	doc := value.(*models.MetadataDocument)
	for _, s := range doc.LightSources {
		referenced := false
		for _, ch := range doc.Channels {
			if ch.LightSourceID == s.ID {
				referenced = true
				break
			}
		}
		if !referenced {
			return fmt.Errorf("light source %d is referenced by no channel", s.ID)
		}
	}
	return nil
}

func hasChannel(doc *models.MetadataDocument, id int) bool {
	for _, ch := range doc.Channels {
		if ch.ID == id {
			return true
		}
	}
	return false
}

func hasSource(doc *models.MetadataDocument, id int) bool {
	for _, s := range doc.LightSources {
		if s.ID == id {
			return true
		}
	}
	return false
}
