package storage

import (
	"fmt"

	"github.com/chelorope/local-llm-rag/core"
)

// Sentinel errors for storage operations. All of them wrap core.ErrStorage
// so callers can classify failures with a single errors.Is check.
var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = fmt.Errorf("%w: record not found", core.ErrStorage)

	// ErrClosed is returned when an operation is attempted on a closed
	// repository.
	ErrClosed = fmt.Errorf("%w: repository is closed", core.ErrStorage)

	// ErrCorruptRecord is returned when a stored record cannot be decoded.
	ErrCorruptRecord = fmt.Errorf("%w: corrupt record", core.ErrStorage)
)
