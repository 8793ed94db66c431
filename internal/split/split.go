package split

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/telegrab/telegrab/internal/platform"
)

// ErrConsumed is returned by Next once the sequence is exhausted.
var ErrConsumed = io.EOF

// Unit is one transmittable piece of a source file: the whole file, or one
// byte-range chunk backed by a transient side file.
type Unit struct {
	Seq       int
	Path      string
	Size      int64
	Transient bool
}

// Discard removes the unit's backing file. Non-transient units keep the
// original file in place.
func (u *Unit) Discard() error {
	if !u.Transient {
		return nil
	}
	return platform.RemoveIfExists(u.Path)
}

// Sequence lazily yields the delivery units for one file. Each chunk is
// materialized on Next, so at most one chunk exists on disk at a time;
// the consumer discards a unit after transmitting it. The sequence is
// finite and non-restartable.
type Sequence struct {
	path   string
	size   int64
	chunk  int64
	count  int
	whole  bool
	next   int
	source *os.File
}

// Plan inspects the file and prepares its delivery sequence. Files at or
// below ceiling yield exactly one unit reusing the original path; larger
// files yield ceil(size/chunkBytes) ordered chunks, the last covering the
// remainder. chunkBytes must sit strictly below ceiling to leave headroom
// for the transport's framing overhead.
func Plan(path string, ceiling, chunkBytes int64) (*Sequence, error) {
	if chunkBytes < 1 || chunkBytes >= ceiling {
		return nil, fmt.Errorf("chunk size %d must be positive and below ceiling %d", chunkBytes, ceiling)
	}

	size, err := platform.FileSize(path)
	if err != nil {
		return nil, err
	}

	s := &Sequence{path: path, size: size, chunk: chunkBytes}
	if size <= ceiling {
		s.whole = true
		s.count = 1
		return s, nil
	}

	s.count = int((size + chunkBytes - 1) / chunkBytes)
	return s, nil
}

// Count returns the total number of units the sequence will yield.
func (s *Sequence) Count() int {
	return s.count
}

// Next materializes and returns the next unit, or ErrConsumed when the
// sequence is exhausted.
func (s *Sequence) Next() (*Unit, error) {
	if s.next >= s.count {
		s.closeSource()
		return nil, ErrConsumed
	}

	if s.whole {
		s.next++
		return &Unit{Seq: 0, Path: s.path, Size: s.size, Transient: false}, nil
	}

	if s.source == nil {
		f, err := os.Open(s.path)
		if err != nil {
			return nil, fmt.Errorf("failed to open source file: %w", err)
		}
		s.source = f
	}

	seq := s.next
	chunkPath := fmt.Sprintf("%s.part%d", s.path, seq)

	dst, err := os.OpenFile(chunkPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to create chunk file: %w", err)
	}

	written, err := io.CopyN(dst, s.source, s.chunk)
	if err != nil && !errors.Is(err, io.EOF) {
		dst.Close()
		os.Remove(chunkPath)
		return nil, fmt.Errorf("failed to materialize chunk %d: %w", seq, err)
	}
	if err := dst.Close(); err != nil {
		os.Remove(chunkPath)
		return nil, fmt.Errorf("failed to close chunk %d: %w", seq, err)
	}
	if written == 0 {
		// Source shrank underneath the plan
		os.Remove(chunkPath)
		s.closeSource()
		return nil, ErrConsumed
	}

	s.next++
	if s.next >= s.count {
		s.closeSource()
	}
	return &Unit{Seq: seq, Path: chunkPath, Size: written, Transient: true}, nil
}

// Close releases the source file handle. Safe to call at any point, and
// after it no further units can be produced.
func (s *Sequence) Close() error {
	s.next = s.count
	return s.closeSource()
}

func (s *Sequence) closeSource() error {
	if s.source == nil {
		return nil
	}
	err := s.source.Close()
	s.source = nil
	return err
}
