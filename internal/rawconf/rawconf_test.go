package rawconf

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestParseOverall(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "overall.csv", "exper_firstn,Ada\nexper_lastn,Lovelace\nproj_name,Organoid Study\n")

	got, err := ParseOverall(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got["exper_firstn"] != "Ada" {
		t.Errorf("exper_firstn = %q, want %q", got["exper_firstn"], "Ada")
	}
	if got["proj_name"] != "Organoid Study" {
		t.Errorf("proj_name = %q, want %q", got["proj_name"], "Organoid Study")
	}
}

func TestParseAuto_CommaAndEqualsLines(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "deviceinfo.dat", "ResolutionX=0.095\nSerial=HT2H-1234\n\nSoftwareVersion=2.1.9\n")

	got, err := ParseAuto(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got["ResolutionX"] != "0.095" {
		t.Errorf("ResolutionX = %q, want %q", got["ResolutionX"], "0.095")
	}
	if got["Serial"] != "HT2H-1234" {
		t.Errorf("Serial = %q", got["Serial"])
	}
	if len(got) != 3 {
		t.Errorf("len = %d, want 3 (blank lines skipped)", len(got))
	}
}

func TestParseAuto_ValueKeepsLaterSeparators(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.dat", "Excitation,488,561\n")

	got, err := ParseAuto(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got["Excitation"] != "488,561" {
		t.Errorf("Excitation = %q, want %q", got["Excitation"], "488,561")
	}
}

func TestParseAuto_ImmersionRIRepair(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.dat", "Immersion_RI1.337\nNA,1.2\n")

	got, err := ParseAuto(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got["Immersion_RI"] != "1.337" {
		t.Errorf("Immersion_RI = %q, want %q", got["Immersion_RI"], "1.337")
	}
}

func TestParseAuto_ImmersionRIWithSeparatorUntouched(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.dat", "Immersion_RI,1.337\n")

	got, err := ParseAuto(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got["Immersion_RI"] != "1.337" {
		t.Errorf("Immersion_RI = %q, want %q", got["Immersion_RI"], "1.337")
	}
}

func TestReadTimestamp(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "timestamp.txt", "20240312143005\n")

	got, err := ReadTimestamp(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "20240312143005" {
		t.Errorf("timestamp = %q, want %q", got, "20240312143005")
	}
}
