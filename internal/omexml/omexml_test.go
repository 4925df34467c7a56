package omexml

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/holotome/htconv/internal/models"
)

func testDoc() *models.MetadataDocument {
	return &models.MetadataDocument{
		Name:          "acq-001",
		AcquiredAt:    time.Date(2024, 3, 12, 14, 30, 5, 0, time.FixedZone("UTC+09:00", 9*3600)),
		PhysicalSizeX: 0.095,
		PhysicalSizeY: 0.095,
		PhysicalSizeZ: models.Some(0.19),
		LightSources: []models.LightSourceDescriptor{
			{ID: 0, Type: models.SourceLaser, Wavelength: 532},
			{ID: 1, Type: models.SourceLED, Wavelength: 488},
		},
		Channels: []models.ChannelDescriptor{
			{ID: 0, Name: "3D HT", ContrastMethod: "Phase", Kind: models.KindHT3D,
				LightSourceID: 0, Shape: models.Shape{X: 512, Y: 512, Z: 64, T: 1}},
			{ID: 1, Name: "3D FL 488nm", ContrastMethod: "Fluorescence", Kind: models.KindFL3D,
				LightSourceID: 1, Excitation: 488, Shape: models.Shape{X: 512, Y: 512, Z: 32, T: 1}},
		},
		Planes: []models.PlaneDescriptor{
			{ChannelID: 0, Z: 0, T: 0, Exposure: models.Some(40.0)},
			{ChannelID: 1, Z: 0, T: 0, Exposure: models.Some(120.0)},
		},
		StageLabels: []models.StageLabel{{ChannelID: 1, ZOffset: 2.5}},
		Annotations: []models.AnnotationRecord{{Key: "CustomKey", Value: "v"}},
		Tiling: &models.TilingAnnotation{
			Group: "stitch-7", Index: 3, Siblings: []string{"acq-001", "acq-002"}, StitchedID: "stitch-7",
		},
		DeviceSerial:    "HT2H-1234",
		SoftwareVersion: "2.1.9",
	}
}

func TestSerialize_Deterministic(t *testing.T) {
	doc := testDoc()
	first, err := Serialize(doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := Serialize(doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Error("repeated serialization is not byte-identical")
	}
}

func TestSerialize_Content(t *testing.T) {
	data, err := Serialize(testDoc())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	xml := string(data)

	for _, want := range []string{
		`AcquisitionDate>2024-03-12T14:30:05+09:00<`,
		`ID="Channel:0"`,
		`ID="Channel:1"`,
		`ID="LightSource:0"`,
		`Wavelength="532"`,
		`ExcitationWavelength="488"`,
		`StageLabel Name="FL Z-offset" Z="2.5"`,
		`SerialNumber="HT2H-1234"`,
		`K="CustomKey"`,
		`StitchedImage="stitch-7"`,
		`TileIndex="3"`,
	} {
		if !strings.Contains(xml, want) {
			t.Errorf("serialized document missing %q", want)
		}
	}
}

func TestSerialize_NoStageLabelWithoutFluorescence(t *testing.T) {
	doc := testDoc()
	doc.StageLabels = nil
	data, err := Serialize(doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(string(data), "StageLabel") {
		t.Error("StageLabel emitted without stage labels")
	}
}

func TestWriteStandalone(t *testing.T) {
	folder := filepath.Join(t.TempDir(), "acq-001")
	if err := os.MkdirAll(folder, 0o755); err != nil {
		t.Fatal(err)
	}

	if err := WriteStandalone(folder, testDoc()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(folder, "acq-001.ome.xml"))
	if err != nil {
		t.Fatalf("document not written: %v", err)
	}
	if !strings.HasPrefix(string(data), "<?xml") {
		t.Error("missing xml header")
	}
}

func TestFileWriter(t *testing.T) {
	folder := filepath.Join(t.TempDir(), "acq-001")
	if err := os.MkdirAll(folder, 0o755); err != nil {
		t.Fatal(err)
	}

	if err := (FileWriter{}).Write(folder, testDoc(), nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := os.Stat(filepath.Join(folder, "acq-001.companion.ome")); err != nil {
		t.Fatalf("companion document not written: %v", err)
	}
}
