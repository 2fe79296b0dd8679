// Package restart - the replay-side of the log.
package restart

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"os"

	"github.com/google/uuid"

	"github.com/katalvlaran/optiq/cache"
	"github.com/katalvlaran/optiq/runtime"
)

// Reader sequentially decodes a restart log.
type Reader struct {
	f     *os.File
	buf   *bufio.Reader
	runID uuid.UUID
}

// Open validates the header of the log at path.
// A wrong magic or version returns ErrVersion: the file is rejected, never
// silently re-interpreted.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIO, err)
	}
	r := &Reader{f: f, buf: bufio.NewReader(f)}

	hdr := make([]byte, len(magic)+1+16)
	if _, err = io.ReadFull(r.buf, hdr); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("%w: short header", ErrVersion)
	}
	if string(hdr[:len(magic)]) != magic || hdr[len(magic)] != version {
		_ = f.Close()
		return nil, ErrVersion
	}
	copy(r.runID[:], hdr[len(magic)+1:])
	return r, nil
}

// RunID returns the run identity recorded at file creation.
func (r *Reader) RunID() uuid.UUID { return r.runID }

// Next decodes the next pair. Returns io.EOF at a clean end of file.
// A record cut short by truncation also ends iteration with io.EOF — the
// partial tail is discarded by contract. A complete record failing its
// checksum or decode returns ErrCorruptRecord.
func (r *Reader) Next() (*cache.Pair, error) {
	var hdr [8]byte
	if _, err := io.ReadFull(r.buf, hdr[:]); err != nil {
		// Clean EOF or a torn length/CRC prefix: both end replay.
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("%w: %v", ErrIO, err)
	}
	n := binary.BigEndian.Uint32(hdr[0:4])
	sum := binary.BigEndian.Uint32(hdr[4:8])
	if n == 0 || n > maxRecordLen {
		return nil, ErrCorruptRecord
	}

	payload := make([]byte, n)
	if _, err := io.ReadFull(r.buf, payload); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			// Truncated final record: discard.
			return nil, io.EOF
		}
		return nil, fmt.Errorf("%w: %v", ErrIO, err)
	}
	if crc32.ChecksumIEEE(payload) != sum {
		return nil, ErrCorruptRecord
	}
	rec, err := decodeRecord(payload)
	if err != nil {
		return nil, ErrCorruptRecord
	}
	return rec.toPair()
}

// Close releases the file.
func (r *Reader) Close() error {
	if err := r.f.Close(); err != nil {
		return fmt.Errorf("%w: %v", ErrIO, err)
	}
	return nil
}

// Replay reads the whole log into c, marking every pair restart-sourced.
// Returns the number of pairs inserted. Metrics may be nil.
func Replay(path string, c *cache.Cache, m *runtime.Metrics) (int, error) {
	r, err := Open(path)
	if err != nil {
		return 0, err
	}
	defer func() { _ = r.Close() }()

	n := 0
	for {
		pair, err := r.Next()
		if errors.Is(err, io.EOF) {
			return n, nil
		}
		if err != nil {
			return n, err
		}
		if err = c.Store(pair); err != nil {
			return n, err
		}
		n++
		if m != nil {
			m.RestartRead.Inc()
		}
	}
}
