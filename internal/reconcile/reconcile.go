// Package reconcile merges the three raw metadata sources of one
// acquisition into a single canonical record.
package reconcile

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/holotome/htconv/internal/apperr"
	"github.com/holotome/htconv/internal/models"
)

// Machine-written keys. AutoConfigA and AutoConfigB share this namespace;
// B is written later in the acquisition pipeline and wins on collision.
const (
	KeyResolutionX     = "ResolutionX"
	KeyResolutionY     = "ResolutionY"
	KeyResolutionZ     = "ResolutionZ"
	KeyRecordingTime   = "RecordingTime"
	KeyTimeZoneOffset  = "TimeZoneOffset"
	KeyTimeInterval    = "TimeInterval"
	KeyExposureHT      = "ExposureHT"
	KeyExposureFL      = "ExposureFL"
	KeyExposureBF      = "ExposureBF"
	KeyStageX          = "StageX"
	KeyStageY          = "StageY"
	KeyStageZ          = "StageZ"
	KeyZStartHT        = "ZStartHT"
	KeyZStartFL        = "ZStartFL"
	KeyExcitation      = "Excitation"
	KeyTileGroup       = "TileGroup"
	KeyTileIndex       = "TileIndex"
	KeyTileSiblings    = "TileSiblings"
	KeySerial          = "Serial"
	KeySoftwareVersion = "SoftwareVersion"
	KeyNA              = "NA"
	KeyMagnification   = "M"
	KeyImmersionRI     = "Immersion_RI"
)

// User-authored keys. Disjoint from the machine namespace by contract.
const (
	KeyExperFirstName = "exper_firstn"
	KeyExperLastName  = "exper_lastn"
	KeyExperEmail     = "exper_email"
	KeyExperInst      = "exper_inst"
	KeyProjectName    = "proj_name"
	KeyProjectDesc    = "proj_desc"
	KeyExperimentDesc = "exp_desc"
)

// timestampLayout is the raw acquisition clock format (YYYYMMDDHHMMSS).
const timestampLayout = "20060102150405"

// Options control reconciliation fallbacks.
type Options struct {
	// DefaultUTCOffsetMin is applied when the timezone-offset key is
	// absent, in minutes east of UTC, so the stored instant still equals
	// the local clock the acquisition software displayed.
	DefaultUTCOffsetMin int
}

// Reconcile merges the three metadata sources into one record. AutoConfigB
// overlays AutoConfigA; user keys live in their own namespace. It fails
// wrapping apperr.ErrIncompleteConfig only when an unconditionally required
// key is missing from all sources.
func Reconcile(user, autoA, autoB map[string]string, opts Options) (*models.ReconciledRecord, error) {
	merged := make(map[string]string, len(autoA)+len(autoB)+len(user))
	for k, v := range autoA {
		merged[k] = v
	}
	for k, v := range autoB {
		merged[k] = v
	}
	for k, v := range user {
		merged[k] = v
	}

	m := &merger{values: merged, consumed: make(map[string]struct{})}
	rec := &models.ReconciledRecord{}

	var err error
	if rec.VoxelSizeX, err = m.requiredFloat(KeyResolutionX); err != nil {
		return nil, err
	}
	if rec.VoxelSizeY, err = m.requiredFloat(KeyResolutionY); err != nil {
		return nil, err
	}
	rec.VoxelSizeZ = m.optionalFloat(KeyResolutionZ)

	if rec.AcquiredAt, err = m.timestamp(opts); err != nil {
		return nil, err
	}

	rec.TimeInterval = m.optionalFloat(KeyTimeInterval)
	rec.ExposureHT = m.optionalFloat(KeyExposureHT)
	rec.ExposureFL = m.optionalFloat(KeyExposureFL)
	rec.ExposureBF = m.optionalFloat(KeyExposureBF)
	rec.StageX = m.optionalFloat(KeyStageX)
	rec.StageY = m.optionalFloat(KeyStageY)
	rec.StageZ = m.optionalFloat(KeyStageZ)
	rec.ReferenceZStart = m.optionalFloat(KeyZStartHT)
	rec.FluorZStart = m.optionalFloat(KeyZStartFL)
	rec.Excitations = m.floatList(KeyExcitation)
	rec.TileGroup = m.optionalString(KeyTileGroup)
	rec.TileIndex = m.optionalInt(KeyTileIndex)
	rec.TileSiblings = m.stringList(KeyTileSiblings)
	rec.DeviceSerial = m.optionalString(KeySerial)
	rec.SoftwareVersion = m.optionalString(KeySoftwareVersion)
	rec.NumericalAperture = m.optionalFloat(KeyNA)
	rec.Magnification = m.optionalFloat(KeyMagnification)
	rec.ImmersionRI = m.optionalFloat(KeyImmersionRI)

	rec.Experimenter = m.experimenterName()
	rec.ExperimenterEmail = m.optionalString(KeyExperEmail)
	rec.Institution = m.optionalString(KeyExperInst)
	rec.ProjectName = m.optionalString(KeyProjectName)
	rec.ProjectDescription = m.optionalString(KeyProjectDesc)
	rec.ExperimentDescription = m.optionalString(KeyExperimentDesc)

	rec.Extra = m.leftovers()
	return rec, nil
}

// merger tracks which merged keys were consumed by typed fields so the
// remainder can flow into free-form annotations.
type merger struct {
	values   map[string]string
	consumed map[string]struct{}
}

func (m *merger) take(key string) (string, bool) {
	v, ok := m.values[key]
	if ok {
		m.consumed[key] = struct{}{}
	}
	return v, ok
}

func (m *merger) requiredFloat(key string) (float64, error) {
	raw, ok := m.take(key)
	if !ok {
		return 0, fmt.Errorf("reconcile: key %s missing from all sources: %w", key, apperr.ErrIncompleteConfig)
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("reconcile: key %s has non-numeric value %q: %w", key, raw, apperr.ErrIncompleteConfig)
	}
	return f, nil
}

func (m *merger) optionalFloat(key string) models.Field[float64] {
	raw, ok := m.take(key)
	if !ok {
		return models.Field[float64]{}
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return models.Field[float64]{}
	}
	return models.Some(f)
}

func (m *merger) optionalInt(key string) models.Field[int] {
	raw, ok := m.take(key)
	if !ok {
		return models.Field[int]{}
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return models.Field[int]{}
	}
	return models.Some(n)
}

func (m *merger) optionalString(key string) models.Field[string] {
	raw, ok := m.take(key)
	if !ok {
		return models.Field[string]{}
	}
	return models.Some(raw)
}

func (m *merger) floatList(key string) []float64 {
	raw, ok := m.take(key)
	if !ok {
		return nil
	}
	var out []float64
	for _, part := range splitList(raw) {
		f, err := strconv.ParseFloat(part, 64)
		if err != nil {
			continue
		}
		out = append(out, f)
	}
	sort.Float64s(out)
	return out
}

func (m *merger) stringList(key string) []string {
	raw, ok := m.take(key)
	if !ok {
		return nil
	}
	return splitList(raw)
}

// splitList splits a value list on commas or semicolons. The line parser
// only consumes the first separator of a line, so list values keep their
// internal commas.
func splitList(raw string) []string {
	parts := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ';'
	})
	var out []string
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// timestamp resolves the acquisition instant: the raw local-clock digits
// plus a timezone offset in minutes, falling back to the configured default
// offset when the offset key is absent.
func (m *merger) timestamp(opts Options) (time.Time, error) {
	raw, ok := m.take(KeyRecordingTime)
	if !ok {
		return time.Time{}, fmt.Errorf("reconcile: key %s missing from all sources: %w", KeyRecordingTime, apperr.ErrIncompleteConfig)
	}

	offsetMin := opts.DefaultUTCOffsetMin
	if rawOffset, ok := m.take(KeyTimeZoneOffset); ok {
		n, err := strconv.Atoi(strings.TrimPrefix(rawOffset, "+"))
		if err == nil {
			offsetMin = n
		}
	}

	loc := time.FixedZone(zoneName(offsetMin), offsetMin*60)
	ts, err := time.ParseInLocation(timestampLayout, raw, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("reconcile: key %s has malformed value %q: %w", KeyRecordingTime, raw, apperr.ErrIncompleteConfig)
	}
	return ts, nil
}

// experimenterName joins the user-config first and last name fields.
func (m *merger) experimenterName() models.Field[string] {
	first, okFirst := m.take(KeyExperFirstName)
	last, okLast := m.take(KeyExperLastName)
	if !okFirst && !okLast {
		return models.Field[string]{}
	}
	return models.Some(strings.TrimSpace(first + " " + last))
}

// leftovers returns all unconsumed keys in sorted order.
func (m *merger) leftovers() []models.KV {
	var keys []string
	for k := range m.values {
		if _, ok := m.consumed[k]; !ok {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	out := make([]models.KV, 0, len(keys))
	for _, k := range keys {
		out = append(out, models.KV{Key: k, Value: m.values[k]})
	}
	return out
}

// zoneName formats a fixed-offset zone name such as UTC+09:00.
func zoneName(offsetMin int) string {
	sign := "+"
	if offsetMin < 0 {
		sign = "-"
		offsetMin = -offsetMin
	}
	return fmt.Sprintf("UTC%s%02d:%02d", sign, offsetMin/60, offsetMin%60)
}
