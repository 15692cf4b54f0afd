// Package storage provides a pebble-backed ProductStore. Keys are
// big-endian ids, so pebble's native key ordering matches the store's
// ascending-id contract.
package storage

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/cockroachdb/pebble"

	"github.com/ssargent/njord/pkg/codec"
	"github.com/ssargent/njord/pkg/store"
)

// PebbleStore implements store.ProductStore on top of a pebble LSM.
type PebbleStore struct {
	db *pebble.DB
}

// OpenPebbleStore opens (creating if necessary) a pebble database at path.
func OpenPebbleStore(path string) (*PebbleStore, error) {
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("open pebble store: %w", err)
	}
	return &PebbleStore{db: db}, nil
}

// Get returns the product stored under id.
func (s *PebbleStore) Get(id uint64) (*codec.Product, bool, error) {
	data, closer, err := s.db.Get(key(id))
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}
	defer closer.Close()

	p, err := codec.Decode(data)
	if err != nil {
		return nil, false, err
	}
	return p, true, nil
}

// Put writes or overwrites the entry at p.ID with a synced write.
func (s *PebbleStore) Put(p *codec.Product) error {
	value, err := codec.Encode(p)
	if err != nil {
		return err
	}
	return s.db.Set(key(p.ID), value, pebble.Sync)
}

// Remove deletes the entry at id and returns the prior value.
func (s *PebbleStore) Remove(id uint64) (*codec.Product, bool, error) {
	prior, ok, err := s.Get(id)
	if err != nil || !ok {
		return nil, false, err
	}
	if err := s.db.Delete(key(id), pebble.Sync); err != nil {
		return nil, false, err
	}
	return prior, true, nil
}

// List returns every product in ascending id order.
func (s *PebbleStore) List() ([]*codec.Product, error) {
	iter, err := s.db.NewIter(&pebble.IterOptions{})
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	var products []*codec.Product
	for iter.First(); iter.Valid(); iter.Next() {
		p, err := codec.Decode(iter.Value())
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	if err := iter.Error(); err != nil {
		return nil, err
	}
	return products, nil
}

// Close closes the underlying database.
func (s *PebbleStore) Close() error {
	return s.db.Close()
}

func key(id uint64) []byte {
	k := make([]byte, 8)
	binary.BigEndian.PutUint64(k, id)
	return k
}

var _ store.ProductStore = (*PebbleStore)(nil)
