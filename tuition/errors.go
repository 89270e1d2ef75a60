/*
errors.go - Error taxonomy for the tuition engine

ERROR CATEGORIES:
  1. Storage errors    - blob missing, unreadable or unwritable
  2. Validation errors - rejected user input (operation aborted, nothing mutated)
  3. Lookup errors     - unknown tuition id

RECOVERY:
  Storage read failures are recovered by falling back to seed data.
  Storage write failures are logged and swallowed; in-memory state stays
  authoritative until the next successful write. Neither reaches the user.
  Validation errors are the only ones meant to be shown to the user.

USAGE:
  if errors.Is(err, tuition.ErrValidation) {
      // show a prompt
  }
*/
package tuition

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrTuitionNotFound is returned when an operation names an unknown id.
	ErrTuitionNotFound = errors.New("tuition not found")

	// ErrBlobNotFound is returned by a BlobStore when nothing is stored under a key.
	ErrBlobNotFound = errors.New("blob not found")

	// ErrValidation is wrapped by every ValidationError.
	ErrValidation = errors.New("validation failed")

	// ErrStorageRead is wrapped by StorageError for failed or corrupt reads.
	ErrStorageRead = errors.New("storage read failure")

	// ErrStorageWrite is wrapped by StorageError for failed writes.
	ErrStorageWrite = errors.New("storage write failure")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ValidationError describes rejected input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// StorageError wraps a failed blob operation.
type StorageError struct {
	Op  string // "read" or "write"
	Key string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *StorageError) Unwrap() []error {
	kind := ErrStorageRead
	if e.Op == "write" {
		kind = ErrStorageWrite
	}
	return []error{kind, e.Err}
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsNotFound returns true if the error indicates a missing tuition.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrTuitionNotFound)
}
