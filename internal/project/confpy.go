package project

import (
	"fmt"
	"os"
	"regexp"
)

// Markers delimiting the region of conf.py that update-docs manages.
const (
	updateStartMarker = "# :entaldocs: <update>"
	updateEndMarker   = "# :entaldocs: </update>"
)

var managedRegion = regexp.MustCompile(
	`(?s)` + regexp.QuoteMeta(updateStartMarker) + `.*?` + regexp.QuoteMeta(updateEndMarker),
)

// UpdateManagedRegion replaces the managed region of the conf.py at destPath
// with the region found in the incoming boilerplate conf.py. When the
// incoming file carries no region nothing happens; when the destination has
// none yet the region is appended.
func UpdateManagedRegion(destPath string, incoming []byte) error {
	region := managedRegion.Find(incoming)
	if region == nil {
		return nil
	}

	current, err := os.ReadFile(destPath)
	if err != nil {
		return fmt.Errorf("read %s: %w", destPath, err)
	}

	var updated []byte
	if managedRegion.Match(current) {
		// ReplaceAllFunc so $ characters inside the region are taken
		// literally instead of as template references.
		updated = managedRegion.ReplaceAllFunc(current, func([]byte) []byte { return region })
	} else {
		updated = append(current, '\n')
		updated = append(updated, region...)
	}
	if len(updated) == 0 || updated[len(updated)-1] != '\n' {
		updated = append(updated, '\n')
	}

	if err := os.WriteFile(destPath, updated, 0o644); err != nil {
		return fmt.Errorf("update %s: %w", destPath, err)
	}
	return nil
}
