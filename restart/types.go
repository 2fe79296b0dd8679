// Package restart implements the append-only restart log: a versioned file
// of length-prefixed, checksummed evaluation records that seeds the
// evaluation cache at startup.
//
// Failure semantics follow the engine contract: log I/O errors are surfaced
// but non-fatal — the caller logs a warning and proceeds without persistence.
// On read, a truncated final record is discarded; any complete record that
// fails its checksum or decode is corruption and rejects the file.
package restart

import "errors"

// Sentinel errors.
var (
	// ErrIO wraps underlying file errors; non-fatal by contract.
	ErrIO = errors.New("restart: log I/O error")

	// ErrVersion indicates a file whose version tag does not match; the file
	// is rejected rather than silently re-interpreted.
	ErrVersion = errors.New("restart: unsupported log version")

	// ErrCorruptRecord indicates a complete record failing checksum/decode.
	ErrCorruptRecord = errors.New("restart: corrupt record")

	// ErrClosed indicates use of a closed writer.
	ErrClosed = errors.New("restart: writer closed")
)

// FlushPolicy selects when appended records reach stable storage.
type FlushPolicy uint8

const (
	// PerRecord flushes after every append (safest, slowest).
	PerRecord FlushPolicy = iota

	// PerIteration flushes buffered appends when FlushIteration is called,
	// once per iterator generation; in between, records reach the file only
	// when the write buffer fills.
	PerIteration

	// OnExit flushes only at Close; before that, records reach the file only
	// when the write buffer fills.
	OnExit
)

// String implements fmt.Stringer.
func (f FlushPolicy) String() string {
	switch f {
	case PerRecord:
		return "per-record"
	case PerIteration:
		return "per-iteration"
	case OnExit:
		return "on-exit"
	}
	return "unknown"
}

// Format constants.
const (
	// magic identifies an optiq restart log.
	magic = "OQRS"

	// version is the current record-format version.
	version byte = 1

	// maxRecordLen guards against absurd length prefixes from damaged files.
	maxRecordLen = 1 << 28
)
