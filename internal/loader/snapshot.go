package loader

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// ErrNoEpoch is returned when a snapshot file name carries no epoch.
var ErrNoEpoch = errors.New("snapshot file name has no E<epoch> marker")

// epochPattern matches the trailing E<epoch>.json of snapshot file names.
var epochPattern = regexp.MustCompile(`E(\d+)\.json$`)

// Window is an inclusive range of epoch seconds.
type Window struct {
	Start int64
	End   int64
}

// Contains reports whether epoch lies in the window, both ends included.
func (w Window) Contains(epoch int64) bool {
	return w.Start <= epoch && epoch <= w.End
}

// IsSnapshotFile reports whether name looks like a snapshot JSON file.
func IsSnapshotFile(name string) bool {
	return strings.HasSuffix(strings.ToLower(name), ".json")
}

// SnapshotEpoch extracts the scraping epoch embedded in a snapshot file name.
func SnapshotEpoch(name string) (int64, error) {
	match := epochPattern.FindStringSubmatch(filepath.Base(name))
	if match == nil {
		return 0, fmt.Errorf("%w: %s", ErrNoEpoch, name)
	}

	epoch, err := strconv.ParseInt(match[1], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %w", ErrNoEpoch, name, err)
	}

	return epoch, nil
}
