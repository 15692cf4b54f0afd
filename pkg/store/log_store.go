// Package store provides the durable, ordered id-to-product mapping.
// The primary implementation appends codec-encoded products to a
// region-backed log and keeps an in-memory B+ tree from id to log
// offset, rebuilt on open by replaying the log.
package store

import (
	"fmt"
	"sync"

	"github.com/ssargent/njord/pkg/bptree"
	"github.com/ssargent/njord/pkg/codec"
	"github.com/ssargent/njord/pkg/region"
)

const indexOrder = 64

// LogStore is the log-structured ProductStore.
type LogStore struct {
	region *region.Region
	index  *bptree.BPlusTree[uint64, int64]
	mutex  sync.Mutex
}

// OpenLogStore replays the product log in the given region and builds
// the id index. A torn or corrupt tail is truncated back to the last
// valid entry; what was cut is reported in the RecoveryResult.
func OpenLogStore(r *region.Region) (*LogStore, *RecoveryResult, error) {
	s := &LogStore{
		region: r,
		index:  bptree.New[uint64, int64](indexOrder),
	}

	result := &RecoveryResult{}
	size := r.Size()
	offset := int64(0)

	for offset < size {
		entry, next, err := readEntryAt(r, offset)
		if err != nil {
			// Anything from the first bad entry on is unusable; cut it
			// off so subsequent appends land on a clean tail.
			if terr := r.Truncate(offset); terr != nil {
				return nil, nil, fmt.Errorf("truncate corrupt log tail: %w", terr)
			}
			result.TruncatedBytes = size - offset
			break
		}

		if entry.tombstone() {
			s.index.Delete(entry.id)
		} else {
			s.index.Insert(entry.id, offset)
		}
		result.EntriesReplayed++
		offset = next
	}

	result.LogSize = r.Size()
	return s, result, nil
}

// Get returns the product stored under id.
func (s *LogStore) Get(id uint64) (*codec.Product, bool, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.read(id)
}

// Put writes or overwrites the entry at p.ID. The entry is durable
// before Put returns.
func (s *LogStore) Put(p *codec.Product) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	value, err := codec.Encode(p)
	if err != nil {
		return err
	}
	offset, err := appendEntry(s.region, p.ID, 0, value)
	if err != nil {
		return err
	}
	s.index.Insert(p.ID, offset)
	return nil
}

// Remove deletes the entry at id, returning the prior value. The
// tombstone is durable before Remove returns.
func (s *LogStore) Remove(id uint64) (*codec.Product, bool, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	prior, ok, err := s.read(id)
	if err != nil || !ok {
		return nil, false, err
	}

	if _, err := appendEntry(s.region, id, flagTombstone, nil); err != nil {
		return nil, false, err
	}
	s.index.Delete(id)
	return prior, true, nil
}

// List returns every live product in ascending id order.
func (s *LogStore) List() ([]*codec.Product, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	type location struct {
		id     uint64
		offset int64
	}
	var locations []location
	s.index.Ascend(func(id uint64, offset int64) bool {
		locations = append(locations, location{id, offset})
		return true
	})

	products := make([]*codec.Product, 0, len(locations))
	for _, loc := range locations {
		entry, _, err := readEntryAt(s.region, loc.offset)
		if err != nil {
			return nil, fmt.Errorf("read product %d: %w", loc.id, err)
		}
		p, err := codec.Decode(entry.value)
		if err != nil {
			return nil, fmt.Errorf("decode product %d: %w", loc.id, err)
		}
		products = append(products, p)
	}
	return products, nil
}

// Stats returns store statistics.
func (s *LogStore) Stats() *StoreStats {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return &StoreStats{
		Products: s.index.Len(),
		DataSize: s.region.Size(),
	}
}

// Close flushes the log. The region handle itself belongs to the
// allocator and stays open.
func (s *LogStore) Close() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.region.Sync()
}

func (s *LogStore) read(id uint64) (*codec.Product, bool, error) {
	offset, ok := s.index.Search(id)
	if !ok {
		return nil, false, nil
	}
	entry, _, err := readEntryAt(s.region, offset)
	if err != nil {
		return nil, false, err
	}
	p, err := codec.Decode(entry.value)
	if err != nil {
		return nil, false, err
	}
	return p, true, nil
}

var _ ProductStore = (*LogStore)(nil)
