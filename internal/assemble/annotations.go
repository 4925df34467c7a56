package assemble

import (
	"strconv"

	"github.com/holotome/htconv/internal/models"
)

// Annotations emits the objective and project metadata the document has no
// structural slot for, one free-form annotation per reconciled key not
// consumed by a typed field, and the tiling annotation when the record
// carries a tile group. Tiling is best effort: missing tiling metadata
// never fails assembly.
func Annotations(rec *models.ReconciledRecord) ([]models.AnnotationRecord, *models.TilingAnnotation) {
	annotations := make([]models.AnnotationRecord, 0, len(rec.Extra))
	appendFloat := func(key string, f models.Field[float64]) {
		if v, ok := f.Get(); ok {
			annotations = append(annotations, models.AnnotationRecord{
				Key:   key,
				Value: strconv.FormatFloat(v, 'g', -1, 64),
			})
		}
	}
	appendString := func(key string, f models.Field[string]) {
		if v, ok := f.Get(); ok {
			annotations = append(annotations, models.AnnotationRecord{Key: key, Value: v})
		}
	}

	appendFloat("NumericalAperture", rec.NumericalAperture)
	appendFloat("Magnification", rec.Magnification)
	appendFloat("ImmersionRI", rec.ImmersionRI)
	appendString("Experimenter", rec.Experimenter)
	appendString("ExperimenterEmail", rec.ExperimenterEmail)
	appendString("Institution", rec.Institution)
	appendString("ProjectName", rec.ProjectName)
	appendString("ProjectDescription", rec.ProjectDescription)
	appendString("ExperimentDescription", rec.ExperimentDescription)

	for _, kv := range rec.Extra {
		annotations = append(annotations, models.AnnotationRecord{Key: kv.Key, Value: kv.Value})
	}

	group, ok := rec.TileGroup.Get()
	if !ok {
		return annotations, nil
	}
	return annotations, &models.TilingAnnotation{
		Group:      group,
		Index:      rec.TileIndex.Or(0),
		Siblings:   rec.TileSiblings,
		StitchedID: group,
	}
}
