package assemble

import "github.com/holotome/htconv/internal/models"

// Geometry emits one plane per (channel, Z, T) triple plus the stage
// labels carrying the fluorescence Z-offset. channels[i] must correspond
// to modalities[i]; planes are ordered T-major, Z-minor within a channel.
//
// The Z-offset is a single scalar — fluorescence first-plane Z minus the
// reference volume's first-plane Z — attached to fluorescence channels
// only, and only when a reference volume exists and both Z starts are in
// the record.
func Geometry(modalities []models.ModalityDescriptor, channels []models.ChannelDescriptor, rec *models.ReconciledRecord) ([]models.PlaneDescriptor, []models.StageLabel) {
	var planes []models.PlaneDescriptor
	for i, m := range modalities {
		ch := channels[i]
		exposure := exposureFor(m.Kind, rec)
		for t := 0; t < m.Shape.T; t++ {
			deltaT := float64(t) * rec.TimeInterval.Or(0)
			for z := 0; z < m.Shape.Z; z++ {
				planes = append(planes, models.PlaneDescriptor{
					ChannelID: ch.ID,
					Z:         z,
					T:         t,
					Exposure:  exposure,
					StageX:    rec.StageX,
					StageY:    rec.StageY,
					StageZ:    rec.StageZ,
					DeltaT:    deltaT,
				})
			}
		}
	}

	return planes, stageLabels(modalities, channels, rec)
}

func stageLabels(modalities []models.ModalityDescriptor, channels []models.ChannelDescriptor, rec *models.ReconciledRecord) []models.StageLabel {
	hasReference := false
	for _, m := range modalities {
		if m.Kind == models.KindHT3D {
			hasReference = true
			break
		}
	}
	if !hasReference {
		return nil
	}
	refZ, okRef := rec.ReferenceZStart.Get()
	flZ, okFL := rec.FluorZStart.Get()
	if !okRef || !okFL {
		return nil
	}

	var labels []models.StageLabel
	for _, ch := range channels {
		if ch.Kind.IsFluorescence() {
			labels = append(labels, models.StageLabel{ChannelID: ch.ID, ZOffset: flZ - refZ})
		}
	}
	return labels
}

func exposureFor(kind models.ModalityKind, rec *models.ReconciledRecord) models.Field[float64] {
	switch {
	case kind.IsFluorescence():
		return rec.ExposureFL
	case kind == models.KindBF:
		return rec.ExposureBF
	default:
		return rec.ExposureHT
	}
}
