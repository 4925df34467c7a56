package document

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/holotome/htconv/internal/apperr"
	"github.com/holotome/htconv/internal/models"
)

func record() *models.ReconciledRecord {
	return &models.ReconciledRecord{
		VoxelSizeX: 0.095,
		VoxelSizeY: 0.095,
		AcquiredAt: time.Date(2024, 3, 12, 14, 30, 5, 0, time.FixedZone("UTC+09:00", 9*3600)),
	}
}

func validParts() ([]models.ChannelDescriptor, []models.LightSourceDescriptor, []models.PlaneDescriptor) {
	sources := []models.LightSourceDescriptor{
		{ID: 0, Type: models.SourceLaser, Wavelength: 532},
	}
	channels := []models.ChannelDescriptor{
		{ID: 0, Name: "3D HT", Kind: models.KindHT3D, LightSourceID: 0},
		{ID: 1, Name: "2D MIP HT", Kind: models.KindHT2MIP, LightSourceID: 0},
	}
	planes := []models.PlaneDescriptor{
		{ChannelID: 0, Z: 0, T: 0},
		{ChannelID: 1, Z: 0, T: 0},
	}
	return channels, sources, planes
}

func TestBuild_Valid(t *testing.T) {
	channels, sources, planes := validParts()

	doc, err := Build(channels, sources, planes, nil, nil, nil, record(), "acq-001")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Name != "acq-001" {
		t.Errorf("Name = %q", doc.Name)
	}
	if len(doc.Channels) != 2 {
		t.Errorf("len(Channels) = %d, want 2", len(doc.Channels))
	}
}

func TestBuild_SharedSourceDistinctIDsIsValid(t *testing.T) {
	// Regression: two channels sharing one light source is the normal
	// 3D/MIP arrangement and must validate as long as IDs differ.
	channels, sources, planes := validParts()

	if _, err := Build(channels, sources, planes, nil, nil, nil, record(), "acq"); err != nil {
		t.Fatalf("shared light source with distinct channel ids rejected: %v", err)
	}
}

func TestBuild_DuplicateChannelID(t *testing.T) {
	channels, sources, planes := validParts()
	channels[1].ID = channels[0].ID

	_, err := Build(channels, sources, planes, nil, nil, nil, record(), "acq")
	if !errors.Is(err, apperr.ErrInvalidDocument) {
		t.Fatalf("err = %v, want ErrInvalidDocument", err)
	}
	if !strings.Contains(err.Error(), "duplicate channel id") {
		t.Errorf("error should name the violated invariant, got %q", err.Error())
	}
}

func TestBuild_PlaneReferencesUnknownChannel(t *testing.T) {
	channels, sources, planes := validParts()
	planes = append(planes, models.PlaneDescriptor{ChannelID: 99})

	_, err := Build(channels, sources, planes, nil, nil, nil, record(), "acq")
	if !errors.Is(err, apperr.ErrInvalidDocument) {
		t.Fatalf("err = %v, want ErrInvalidDocument", err)
	}
}

func TestBuild_ChannelReferencesUnknownSource(t *testing.T) {
	channels, sources, planes := validParts()
	channels[0].LightSourceID = 7

	_, err := Build(channels, sources, planes, nil, nil, nil, record(), "acq")
	if !errors.Is(err, apperr.ErrInvalidDocument) {
		t.Fatalf("err = %v, want ErrInvalidDocument", err)
	}
}

func TestBuild_UnreferencedSource(t *testing.T) {
	channels, sources, planes := validParts()
	sources = append(sources, models.LightSourceDescriptor{ID: 1, Type: models.SourceLamp})

	_, err := Build(channels, sources, planes, nil, nil, nil, record(), "acq")
	if !errors.Is(err, apperr.ErrInvalidDocument) {
		t.Fatalf("err = %v, want ErrInvalidDocument", err)
	}
}

func TestBuild_StageLabelReferencesUnknownChannel(t *testing.T) {
	channels, sources, planes := validParts()
	labels := []models.StageLabel{{ChannelID: 42, ZOffset: 2.5}}

	_, err := Build(channels, sources, planes, labels, nil, nil, record(), "acq")
	if !errors.Is(err, apperr.ErrInvalidDocument) {
		t.Fatalf("err = %v, want ErrInvalidDocument", err)
	}
}
