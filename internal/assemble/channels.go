package assemble

import (
	"fmt"

	"github.com/holotome/htconv/internal/models"
)

// htLaserWavelength is the holotomography illumination wavelength in nm.
const htLaserWavelength = 532

// Channels derives one channel per modality plus the deduplicated light
// source list. Modalities backed by the same physical source share one
// light source entry by identity but still receive distinct channel IDs:
// reusing a channel ID across the 3D/MIP/2D variants of one acquisition
// produces an invalid document.
func Channels(modalities []models.ModalityDescriptor, rec *models.ReconciledRecord, alloc *IDAllocator) ([]models.ChannelDescriptor, []models.LightSourceDescriptor) {
	type sourceKey struct {
		t  models.LightSourceType
		wl float64
	}
	sourceIDs := make(map[sourceKey]int)
	var sources []models.LightSourceDescriptor

	sourceFor := func(t models.LightSourceType, wl float64) int {
		key := sourceKey{t: t, wl: wl}
		if id, ok := sourceIDs[key]; ok {
			return id
		}
		id := len(sources)
		sources = append(sources, models.LightSourceDescriptor{ID: id, Type: t, Wavelength: wl})
		sourceIDs[key] = id
		return id
	}

	channels := make([]models.ChannelDescriptor, 0, len(modalities))
	for _, m := range modalities {
		ch := models.ChannelDescriptor{
			ID:         alloc.Next(),
			Kind:       m.Kind,
			Path:       m.Path,
			Shape:      m.Shape,
			Excitation: m.Excitation,
		}
		switch m.Kind {
		case models.KindHT3D:
			ch.Name = "3D HT"
			ch.ContrastMethod = "Phase"
			ch.LightSourceID = sourceFor(models.SourceLaser, htLaserWavelength)
		case models.KindHT2MIP:
			ch.Name = "2D MIP HT"
			ch.ContrastMethod = "Phase"
			ch.LightSourceID = sourceFor(models.SourceLaser, htLaserWavelength)
		case models.KindHT2D:
			ch.Name = "2D Phase"
			ch.ContrastMethod = "Phase"
			ch.LightSourceID = sourceFor(models.SourceLaser, htLaserWavelength)
		case models.KindFL3D:
			ch.Name = fmt.Sprintf("3D FL %gnm", m.Excitation)
			ch.ContrastMethod = "Fluorescence"
			ch.LightSourceID = sourceFor(models.SourceLED, m.Excitation)
		case models.KindFL2D:
			ch.Name = fmt.Sprintf("2D FL %gnm", m.Excitation)
			ch.ContrastMethod = "Fluorescence"
			ch.LightSourceID = sourceFor(models.SourceLED, m.Excitation)
		default:
			ch.Name = "Brightfield"
			ch.ContrastMethod = "Brightfield"
			ch.LightSourceID = sourceFor(models.SourceLamp, 0)
		}
		channels = append(channels, ch)
	}
	return channels, sources
}
