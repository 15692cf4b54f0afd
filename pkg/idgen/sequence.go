// Package idgen provides the durable monotonic identifier generator
// that assigns product ids. The state is a single 8-byte cell holding
// the next value to hand out.
package idgen

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"github.com/ssargent/njord/pkg/region"
)

const cellSize = 8

// ErrCellCorrupt is returned when the counter region exists but does
// not hold a full 8-byte cell.
var ErrCellCorrupt = errors.New("identifier cell corrupt")

// Sequence hands out strictly increasing uint64 identifiers backed by a
// durable cell. A value is only returned once its successor has been
// persisted, so no id can ever be handed out twice, restarts included.
type Sequence struct {
	region *region.Region
	mutex  sync.Mutex
	next   uint64
}

// Open restores the sequence from its region. A zero-length region is a
// first-ever startup and starts the counter at 0.
func Open(r *region.Region) (*Sequence, error) {
	s := &Sequence{region: r}

	switch size := r.Size(); {
	case size == 0:
		s.next = 0
	case size < cellSize:
		return nil, fmt.Errorf("%w: region holds %d bytes, want %d", ErrCellCorrupt, size, cellSize)
	default:
		buf := make([]byte, cellSize)
		if _, err := r.ReadAt(buf, 0); err != nil {
			return nil, fmt.Errorf("read identifier cell: %w", err)
		}
		s.next = binary.LittleEndian.Uint64(buf)
	}
	return s, nil
}

// Next returns the next identifier. The incremented cell is durable
// before the value is returned; a persistence failure aborts the call
// and the value is not considered assigned.
func (s *Sequence) Next() (uint64, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	id := s.next

	buf := make([]byte, cellSize)
	binary.LittleEndian.PutUint64(buf, id+1)
	if _, err := s.region.WriteAt(buf, 0); err != nil {
		return 0, fmt.Errorf("persist identifier cell: %w", err)
	}
	if err := s.region.Sync(); err != nil {
		return 0, fmt.Errorf("sync identifier cell: %w", err)
	}

	s.next = id + 1
	return id, nil
}

// Current returns the next value that would be handed out, without
// assigning it.
func (s *Sequence) Current() uint64 {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.next
}
