// Package restart - the append-side of the log.
package restart

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"os"

	"github.com/google/uuid"

	"github.com/katalvlaran/optiq/cache"
)

// Writer appends completed pairs to a restart log.
// Writers are not safe for concurrent use; the engine serializes appends the
// same way it serializes cache stores.
type Writer struct {
	f      *os.File
	buf    *bufio.Writer
	policy FlushPolicy
	closed bool
}

// Create opens (truncating) a restart log at path, writing the header:
// magic, version byte, and the 16-byte run id.
func Create(path string, policy FlushPolicy, runID uuid.UUID) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIO, err)
	}
	w := &Writer{f: f, buf: bufio.NewWriter(f), policy: policy}
	if _, err = w.buf.WriteString(magic); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("%w: %v", ErrIO, err)
	}
	if err = w.buf.WriteByte(version); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("%w: %v", ErrIO, err)
	}
	if _, err = w.buf.Write(runID[:]); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("%w: %v", ErrIO, err)
	}
	if err = w.buf.Flush(); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("%w: %v", ErrIO, err)
	}
	return w, nil
}

// Append frames and writes one pair: 4-byte big-endian payload length,
// 4-byte CRC-32 (IEEE) of the payload, then the payload.
func (w *Writer) Append(p *cache.Pair) error {
	if w.closed {
		return ErrClosed
	}
	rec, err := toRecord(p)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrIO, err)
	}
	payload, err := rec.encode()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrIO, err)
	}

	var hdr [8]byte
	binary.BigEndian.PutUint32(hdr[0:4], uint32(len(payload)))
	binary.BigEndian.PutUint32(hdr[4:8], crc32.ChecksumIEEE(payload))
	if _, err = w.buf.Write(hdr[:]); err != nil {
		return fmt.Errorf("%w: %v", ErrIO, err)
	}
	if _, err = w.buf.Write(payload); err != nil {
		return fmt.Errorf("%w: %v", ErrIO, err)
	}
	if w.policy == PerRecord {
		return w.Flush()
	}
	return nil
}

// FlushIteration flushes buffered records under the PerIteration policy;
// a no-op otherwise.
func (w *Writer) FlushIteration() error {
	if w.policy != PerIteration {
		return nil
	}
	return w.Flush()
}

// Flush forces buffered bytes to the OS.
func (w *Writer) Flush() error {
	if w.closed {
		return ErrClosed
	}
	if err := w.buf.Flush(); err != nil {
		return fmt.Errorf("%w: %v", ErrIO, err)
	}
	return nil
}

// Close flushes, syncs, and closes the file.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	if err := w.buf.Flush(); err != nil {
		_ = w.f.Close()
		return fmt.Errorf("%w: %v", ErrIO, err)
	}
	if err := w.f.Sync(); err != nil {
		_ = w.f.Close()
		return fmt.Errorf("%w: %v", ErrIO, err)
	}
	if err := w.f.Close(); err != nil {
		return fmt.Errorf("%w: %v", ErrIO, err)
	}
	return nil
}
