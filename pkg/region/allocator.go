// Package region partitions a single durable data directory into
// independently growable, numbered regions. Each layer of the store
// claims a well-known region id and never has to coordinate offsets
// with its neighbours.
package region

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Well-known region assignments.
const (
	// RegionIDCounter holds the 8-byte monotonic identifier cell.
	RegionIDCounter uint8 = 0
	// RegionProductLog holds the ordered id-to-product log.
	RegionProductLog uint8 = 1
)

// Allocator hands out durable regions backed by files under a single
// root directory. Requesting the same region id always yields a handle
// onto the same underlying bytes, across process restarts included.
type Allocator struct {
	dir     string
	mutex   sync.Mutex
	regions map[uint8]*Region
}

// NewAllocator opens (creating if necessary) the physical storage space
// rooted at dir.
func NewAllocator(dir string) (*Allocator, error) {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("create region directory: %w", err)
	}
	return &Allocator{
		dir:     dir,
		regions: make(map[uint8]*Region),
	}, nil
}

// Region returns the region with the given id, creating its backing
// file on first use. The call is idempotent: repeated requests for one
// id return the same handle.
func (a *Allocator) Region(id uint8) (*Region, error) {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	if r, ok := a.regions[id]; ok {
		return r, nil
	}

	path := filepath.Join(a.dir, fmt.Sprintf("region-%03d.dat", id))
	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0600)
	if err != nil {
		return nil, fmt.Errorf("open region %d: %w", id, err)
	}
	stat, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("stat region %d: %w", id, err)
	}

	r := &Region{id: id, file: file, size: stat.Size()}
	a.regions[id] = r
	return r, nil
}

// Close releases every open region handle.
func (a *Allocator) Close() error {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	var firstErr error
	for id, r := range a.regions {
		if err := r.close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("close region %d: %w", id, err)
		}
		delete(a.regions, id)
	}
	return firstErr
}

// Region is an independently growable slice of the durable storage
// space. Mutations are durable once Sync returns.
type Region struct {
	id    uint8
	file  *os.File
	mutex sync.Mutex
	size  int64
}

// ID returns the region's number.
func (r *Region) ID() uint8 {
	return r.id
}

// Size returns the current length of the region in bytes.
func (r *Region) Size() int64 {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.size
}

// ReadAt reads len(p) bytes starting at off.
func (r *Region) ReadAt(p []byte, off int64) (int, error) {
	return r.file.ReadAt(p, off)
}

// WriteAt writes p at off, growing the region if the write extends past
// its current end.
func (r *Region) WriteAt(p []byte, off int64) (int, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	n, err := r.file.WriteAt(p, off)
	if end := off + int64(n); end > r.size {
		r.size = end
	}
	return n, err
}

// Append writes p at the end of the region and returns the offset the
// write started at.
func (r *Region) Append(p []byte) (int64, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	off := r.size
	n, err := r.file.WriteAt(p, off)
	r.size += int64(n)
	if err != nil {
		return 0, err
	}
	return off, nil
}

// Truncate shrinks the region to n bytes.
func (r *Region) Truncate(n int64) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if err := r.file.Truncate(n); err != nil {
		return err
	}
	r.size = n
	return nil
}

// Sync flushes outstanding writes to the underlying device.
func (r *Region) Sync() error {
	return r.file.Sync()
}

func (r *Region) close() error {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.file.Close()
}
