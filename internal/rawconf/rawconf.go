// Package rawconf parses the raw metadata side-files of an acquisition
// folder into key/value mappings: the user-authored overall config
// (comma-separated), the two machine-written per-acquisition configs
// (comma- or equals-separated lines), and the timestamp file.
package rawconf

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Side-file names inside an acquisition folder.
const (
	AutoConfigAFile = "config.dat"
	AutoConfigBFile = "deviceinfo.dat"
	TimestampFile   = "timestamp.txt"
)

// ParseOverall reads the user-created overall config: one "key,value" pair
// per line, shared across all acquisition folders.
func ParseOverall(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("rawconf: read overall config %s: %w", path, err)
	}
	return parseLines(string(data)), nil
}

// ParseAuto reads a machine-generated per-acquisition config file. Lines are
// "key,value" or "key=value"; blank lines are skipped. Some acquisition
// software versions emit the Immersion_RI line without its separator; those
// lines are repaired before splitting.
func ParseAuto(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("rawconf: read auto config %s: %w", path, err)
	}
	return parseLines(string(data)), nil
}

// ReadTimestamp reads the acquisition timestamp file and returns the raw
// digit string (YYYYMMDDHHMMSS).
func ReadTimestamp(folder string) (string, error) {
	data, err := os.ReadFile(filepath.Join(folder, TimestampFile))
	if err != nil {
		return "", fmt.Errorf("rawconf: read timestamp: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// parseLines splits config lines into a map. The first ',' or '=' on each
// line separates key from value; later occurrences stay in the value.
func parseLines(content string) map[string]string {
	out := make(map[string]string)
	sc := bufio.NewScanner(strings.NewReader(content))
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r\n")
		if strings.TrimSpace(line) == "" {
			continue
		}
		line = repairImmersionRI(line)
		key, value, ok := splitPair(line)
		if !ok {
			continue
		}
		out[key] = value
	}
	return out
}

// splitPair splits on the first ',' or '=', whichever comes first.
func splitPair(line string) (string, string, bool) {
	comma := strings.IndexByte(line, ',')
	equals := strings.IndexByte(line, '=')
	sep := comma
	if sep < 0 || (equals >= 0 && equals < sep) {
		sep = equals
	}
	if sep < 0 {
		return "", "", false
	}
	key := strings.TrimSpace(line[:sep])
	value := strings.TrimSpace(line[sep+1:])
	if key == "" {
		return "", "", false
	}
	return key, value, true
}

// repairImmersionRI restores the separator on Immersion_RI lines that the
// buggy software versions write as "Immersion_RI1.337".
func repairImmersionRI(line string) string {
	const key = "Immersion_RI"
	if !strings.HasPrefix(line, key) {
		return line
	}
	rest := line[len(key):]
	if rest == "" || rest[0] == ',' || rest[0] == '=' {
		return line
	}
	return key + "," + rest
}
