package deps

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// IsStale reports whether derived must be regenerated from reference.
// A missing derived file is stale, and so is one whose modification time is
// not strictly newer than the reference's: equal timestamps do not prove the
// derived file was written after the reference changed.
func IsStale(reference, derived string) (bool, error) {
	refInfo, err := os.Stat(reference)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, fmt.Errorf("%w: %s", ErrMissingInput, reference)
		}
		return false, err
	}

	derivedInfo, err := os.Stat(derived)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return true, nil
		}
		return false, err
	}

	return !derivedInfo.ModTime().After(refInfo.ModTime()), nil
}
