package inventory

import (
	"errors"
	"fmt"

	"github.com/poco-labs/testnet-env/internal/address"
)

// The four error classes of the registry. Every error raised by a
// registration or query call wraps exactly one of them, so callers can
// branch with errors.Is without parsing messages.
var (
	// ErrConflict marks duplicate names, duplicate resolved addresses,
	// occupied hub slots, and already-paired chains.
	ErrConflict = errors.New("conflict")

	// ErrNotFound marks unknown hubs, chains, machines and entries, and
	// peers missing at backfill time.
	ErrNotFound = errors.New("not found")

	// ErrInvalid marks rejected input: non-portable names, malformed
	// port ranges, flavour mismatches, out-of-range worker indices.
	ErrInvalid = errors.New("invalid")

	// ErrResolution marks placeholder tokens with no binding. This is an
	// internal invariant violation, not a user error: the placeholder
	// catalog is closed at registry construction.
	ErrResolution = address.ErrResolution
)

func conflictf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConflict, fmt.Sprintf(format, args...))
}

func notFoundf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}

// IsConflict reports whether err is a conflict error.
func IsConflict(err error) bool { return errors.Is(err, ErrConflict) }

// IsNotFound reports whether err is a reference error.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsInvalid reports whether err is a validation error.
func IsInvalid(err error) bool { return errors.Is(err, ErrInvalid) }

// IsResolution reports whether err is a placeholder resolution failure.
func IsResolution(err error) bool { return errors.Is(err, ErrResolution) }
