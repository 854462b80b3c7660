package cli

import (
	"errors"
	"strings"
)

var (
	ErrUsage = errors.New("cli usage error")
	// ErrStale is returned by generate --check when outputs are out of date.
	ErrStale = errors.New("generated files are out of date")
)

type usageError struct {
	msg string
}

func newUsageError(msg string) error {
	return usageError{msg: msg}
}

func (e usageError) Error() string {
	return e.msg
}

func (e usageError) Is(target error) bool {
	return target == ErrUsage
}

type staleError struct {
	paths []string
}

func (e staleError) Error() string {
	return "generated files are out of date; rerun `schemagen generate`:\n- " + strings.Join(e.paths, "\n- ")
}

func (e staleError) Is(target error) bool {
	return target == ErrStale
}

// StalePaths returns the files reported by an ErrStale error.
func StalePaths(err error) []string {
	var se staleError
	if errors.As(err, &se) {
		return se.paths
	}
	return nil
}
