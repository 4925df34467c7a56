package modality

import (
	"errors"
	"testing"

	"github.com/holotome/htconv/internal/apperr"
	"github.com/holotome/htconv/internal/container"
	"github.com/holotome/htconv/internal/models"
)

func testRecord() *models.ReconciledRecord {
	return &models.ReconciledRecord{
		VoxelSizeX:  0.095,
		VoxelSizeY:  0.095,
		VoxelSizeZ:  models.Some(0.19),
		Excitations: []float64{488, 561},
	}
}

func TestResolve_MIPSuppressedByDefault(t *testing.T) {
	entries := []container.Entry{
		{Path: "Data/3D", Shape: models.Shape{X: 512, Y: 512, Z: 64, T: 1}},
		{Path: "Data/2DMIP", Shape: models.Shape{X: 512, Y: 512, Z: 1, T: 1}},
	}

	mods, err := Resolve(entries, testRecord(), Options{IncludeMIP: false})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(mods) != 1 {
		t.Fatalf("len(mods) = %d, want 1", len(mods))
	}
	if mods[0].Kind != models.KindHT3D {
		t.Errorf("kind = %v, want ht-3d", mods[0].Kind)
	}
}

func TestResolve_MIPIncludedAfterVolume(t *testing.T) {
	entries := []container.Entry{
		{Path: "Data/2DMIP", Shape: models.Shape{X: 512, Y: 512, Z: 1, T: 1}},
		{Path: "Data/3D", Shape: models.Shape{X: 512, Y: 512, Z: 64, T: 1}},
	}

	mods, err := Resolve(entries, testRecord(), Options{IncludeMIP: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(mods) != 2 {
		t.Fatalf("len(mods) = %d, want 2", len(mods))
	}
	if mods[0].Kind != models.KindHT3D || mods[1].Kind != models.KindHT2MIP {
		t.Errorf("order = [%v %v], want [ht-3d ht-2d-mip]", mods[0].Kind, mods[1].Kind)
	}
}

func TestResolve_MIPWithoutMatchingVolumeIsIndependent(t *testing.T) {
	entries := []container.Entry{
		{Path: "Data/2DMIP", Shape: models.Shape{X: 512, Y: 512, Z: 1, T: 1}},
	}

	mods, err := Resolve(entries, testRecord(), Options{IncludeMIP: false})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// No 3D volume with matching XY exists, so the entry is an
	// independent 2D acquisition and survives MIP suppression.
	if len(mods) != 1 || mods[0].Kind != models.KindHT2D {
		t.Fatalf("mods = %v, want one ht-2d", mods)
	}
}

func TestResolve_DeterministicOrder(t *testing.T) {
	entries := []container.Entry{
		{Path: "Data/BF", Shape: models.Shape{X: 512, Y: 512, Z: 1, T: 1}},
		{Path: "Data/3DFL/CH1", Shape: models.Shape{X: 512, Y: 512, Z: 32, T: 1}},
		{Path: "Data/3DFL/CH0", Shape: models.Shape{X: 512, Y: 512, Z: 32, T: 1}},
		{Path: "Data/2D", Shape: models.Shape{X: 512, Y: 512, Z: 1, T: 1}},
		{Path: "Data/3D", Shape: models.Shape{X: 512, Y: 512, Z: 64, T: 1}},
	}

	mods, err := Resolve(entries, testRecord(), Options{IncludeMIP: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	wantKinds := []models.ModalityKind{
		models.KindHT3D, models.KindHT2D, models.KindFL3D, models.KindFL3D, models.KindBF,
	}
	if len(mods) != len(wantKinds) {
		t.Fatalf("len(mods) = %d, want %d", len(mods), len(wantKinds))
	}
	for i, want := range wantKinds {
		if mods[i].Kind != want {
			t.Errorf("mods[%d].Kind = %v, want %v", i, mods[i].Kind, want)
		}
	}
	if mods[2].Excitation != 488 || mods[3].Excitation != 561 {
		t.Errorf("fluorescence order = %v nm then %v nm, want ascending 488 then 561",
			mods[2].Excitation, mods[3].Excitation)
	}
}

func TestResolve_UnclassifiablePathFails(t *testing.T) {
	entries := []container.Entry{
		{Path: "Data/MYSTERY", Shape: models.Shape{X: 512, Y: 512, Z: 1, T: 1}},
	}

	_, err := Resolve(entries, testRecord(), Options{})
	if !errors.Is(err, apperr.ErrUnsupportedModality) {
		t.Fatalf("err = %v, want ErrUnsupportedModality", err)
	}
}

func TestResolve_PixelSizesFromRecord(t *testing.T) {
	entries := []container.Entry{
		{Path: "Data/3D", Shape: models.Shape{X: 512, Y: 512, Z: 64, T: 1}},
		{Path: "Data/2D", Shape: models.Shape{X: 512, Y: 512, Z: 1, T: 1}},
	}

	mods, err := Resolve(entries, testRecord(), Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mods[0].PixelSizeX != 0.095 {
		t.Errorf("PixelSizeX = %v, want 0.095", mods[0].PixelSizeX)
	}
	if z, ok := mods[0].PixelSizeZ.Get(); !ok || z != 0.19 {
		t.Errorf("3D PixelSizeZ = %v set=%v, want 0.19", z, ok)
	}
	if mods[1].PixelSizeZ.IsSet() {
		t.Errorf("2D modality should have no Z pixel size")
	}
}

func TestCompileRules_BadPattern(t *testing.T) {
	_, err := CompileRules([]RuleConfig{{Pattern: "([", Kind: string(models.KindHT3D)}})
	if err == nil {
		t.Fatal("expected error for bad pattern")
	}
}

func TestCompileRules_BadKind(t *testing.T) {
	_, err := CompileRules([]RuleConfig{{Pattern: "^x$", Kind: "nope"}})
	if err == nil {
		t.Fatal("expected error for unknown kind")
	}
}
