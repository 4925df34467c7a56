package modality

import (
	"fmt"
	"sort"

	"github.com/holotome/htconv/internal/apperr"
	"github.com/holotome/htconv/internal/container"
	"github.com/holotome/htconv/internal/models"
)

// Options control modality resolution.
type Options struct {
	// IncludeMIP keeps maximum-intensity-projection modalities in the
	// output. When false they are suppressed after classification.
	IncludeMIP bool
	// Rules is the ordered classification table; nil uses DefaultRules.
	Rules []Rule
}

// Resolve classifies every container entry and returns modality
// descriptors in deterministic order: 3D phase volume, its MIP (when
// included), 2D phase, fluorescence ascending by excitation wavelength,
// brightfield last. Downstream channel IDs are assigned by enumeration
// order, so this order must be stable across runs.
//
// An entry no rule matches fails wrapping apperr.ErrUnsupportedModality
// rather than being silently dropped.
func Resolve(entries []container.Entry, rec *models.ReconciledRecord, opts Options) ([]models.ModalityDescriptor, error) {
	rules := opts.Rules
	if rules == nil {
		rules = DefaultRules()
	}

	var out []models.ModalityDescriptor
	for _, e := range entries {
		kind, chIndex, ok := classify(rules, e.Path)
		if !ok {
			return nil, fmt.Errorf("modality: cannot classify container path %q: %w", e.Path, apperr.ErrUnsupportedModality)
		}

		desc := models.ModalityDescriptor{
			Kind:       kind,
			Shape:      e.Shape,
			Path:       e.Path,
			PixelSizeX: rec.VoxelSizeX,
			PixelSizeY: rec.VoxelSizeY,
		}
		if e.Shape.Z > 1 {
			desc.PixelSizeZ = rec.VoxelSizeZ
		}
		if kind.IsFluorescence() {
			desc.Excitation = excitationFor(rec, chIndex)
		}
		out = append(out, desc)
	}

	out = resolveMIPs(out)

	if !opts.IncludeMIP {
		kept := out[:0]
		for _, d := range out {
			if d.Kind != models.KindHT2MIP {
				kept = append(kept, d)
			}
		}
		out = kept
	}

	sort.SliceStable(out, func(i, j int) bool {
		ri, rj := orderRank(out[i]), orderRank(out[j])
		if ri != rj {
			return ri < rj
		}
		if out[i].Excitation != out[j].Excitation {
			return out[i].Excitation < out[j].Excitation
		}
		// Volumes sort before their 2D counterparts at equal wavelength.
		if out[i].Kind != out[j].Kind {
			return out[i].Kind == models.KindFL3D
		}
		return out[i].Path < out[j].Path
	})
	return out, nil
}

// resolveMIPs applies the derivation heuristic: a MIP-named entry is only a
// derived projection when a 3D volume with matching XY and singleton Z on
// the MIP side exists; otherwise it is an independent 2D acquisition.
func resolveMIPs(descs []models.ModalityDescriptor) []models.ModalityDescriptor {
	for i, d := range descs {
		if d.Kind != models.KindHT2MIP {
			continue
		}
		derived := false
		if d.Shape.Z <= 1 {
			for _, ref := range descs {
				if ref.Kind == models.KindHT3D && ref.Shape.X == d.Shape.X && ref.Shape.Y == d.Shape.Y {
					derived = true
					break
				}
			}
		}
		if !derived {
			descs[i].Kind = models.KindHT2D
		}
	}
	return descs
}

// excitationFor maps a fluorescence channel index onto the reconciled
// wavelength list. Index -1 with a single configured wavelength resolves
// to that wavelength; anything unresolvable yields 0.
func excitationFor(rec *models.ReconciledRecord, chIndex int) float64 {
	if chIndex >= 0 && chIndex < len(rec.Excitations) {
		return rec.Excitations[chIndex]
	}
	if chIndex < 0 && len(rec.Excitations) == 1 {
		return rec.Excitations[0]
	}
	return 0
}

// orderRank fixes the cross-kind ordering of the resolved sequence.
func orderRank(d models.ModalityDescriptor) int {
	switch d.Kind {
	case models.KindHT3D:
		return 0
	case models.KindHT2MIP:
		return 1
	case models.KindHT2D:
		return 2
	case models.KindFL3D, models.KindFL2D:
		return 3
	default: // brightfield
		return 4
	}
}
