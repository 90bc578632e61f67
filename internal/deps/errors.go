package deps

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMissingInput is returned by IsStale when the reference file is absent.
var ErrMissingInput = errors.New("missing input")

// ErrMalformedLine marks a dependency file line without a package separator.
var ErrMalformedLine = errors.New("malformed dependency line")

// QueryFailed reports that the manifest query exited non-zero or produced
// output that is not a JSON object.
type QueryFailed struct {
	Err    error
	Output []string
}

func (e *QueryFailed) Error() string {
	return "query package manifest: " + e.Err.Error()
}

func (e *QueryFailed) Unwrap() error {
	return e.Err
}

// WriteFailed reports a filesystem error while writing the dependency file.
type WriteFailed struct {
	Path string
	Err  error
}

func (e *WriteFailed) Error() string {
	return fmt.Sprintf("write %s: %v", e.Path, e.Err)
}

func (e *WriteFailed) Unwrap() error {
	return e.Err
}

func truncateOutput(out []byte, n int) string {
	s := strings.TrimSpace(string(out))
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
