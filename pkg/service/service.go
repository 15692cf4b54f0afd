// Package service implements the product tracking operations: create,
// read, update, delete and list. It validates payloads, assigns ids and
// timestamps, and delegates persistence to a ProductStore.
package service

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ssargent/njord/pkg/codec"
	"github.com/ssargent/njord/pkg/idgen"
	"github.com/ssargent/njord/pkg/store"
)

// Payload carries the caller-supplied product fields. Name and Origin
// are only honored on create; updates ignore them.
type Payload struct {
	Name            string  `json:"name"`
	Origin          string  `json:"origin"`
	CurrentLocation string  `json:"current_location"`
	Status          string  `json:"status"`
	Certification   *string `json:"certification,omitempty"`
	IoTData         *string `json:"iot_data,omitempty"`
}

// TrackerConfig wires a Tracker's collaborators.
type TrackerConfig struct {
	Sequence *idgen.Sequence
	Store    store.ProductStore

	// Clock returns the current time in nanoseconds. Defaults to the
	// wall clock; tests inject a deterministic one.
	Clock func() uint64
}

// Tracker is the product tracking service. A mutex serializes
// operations so the identifier-assign-then-insert pair stays atomic
// under concurrent callers.
type Tracker struct {
	sequence *idgen.Sequence
	store    store.ProductStore
	now      func() uint64
	mutex    sync.Mutex
}

// NewTracker creates the service from its configuration.
func NewTracker(config TrackerConfig) *Tracker {
	now := config.Clock
	if now == nil {
		now = func() uint64 { return uint64(time.Now().UnixNano()) }
	}
	return &Tracker{
		sequence: config.Sequence,
		store:    config.Store,
		now:      now,
	}
}

// Create validates the payload, assigns the next id and persists a new
// product. A rejected payload never consumes an id.
func (t *Tracker) Create(payload Payload) (*codec.Product, error) {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	if err := validate(payload); err != nil {
		return nil, err
	}

	product := &codec.Product{
		Name:            payload.Name,
		Origin:          payload.Origin,
		CurrentLocation: payload.CurrentLocation,
		Status:          payload.Status,
		Certification:   payload.Certification,
		IoTData:         payload.IoTData,
	}

	// The size check runs before an id is consumed; the id itself is
	// fixed-width and cannot change the outcome.
	if err := checkSize(product); err != nil {
		return nil, err
	}

	id, err := t.sequence.Next()
	if err != nil {
		return nil, fmt.Errorf("assign product id: %w", err)
	}
	product.ID = id
	product.Timestamp = t.now()

	if err := t.store.Put(product); err != nil {
		return nil, fmt.Errorf("store product %d: %w", id, err)
	}
	return product, nil
}

// Get returns the product at id.
func (t *Tracker) Get(id uint64) (*codec.Product, error) {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	product, ok, err := t.store.Get(id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &NotFoundError{ID: id}
	}
	return product, nil
}

// Update validates the payload and replaces the mutable fields of the
// product at id. Id, name, origin and the creation timestamp are never
// touched; LastUpdate is stamped with the current time.
func (t *Tracker) Update(id uint64, payload Payload) (*codec.Product, error) {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	if err := validate(payload); err != nil {
		return nil, err
	}

	product, ok, err := t.store.Get(id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &NotFoundError{ID: id}
	}

	product.CurrentLocation = payload.CurrentLocation
	product.Status = payload.Status
	product.Certification = payload.Certification
	product.IoTData = payload.IoTData
	lastUpdate := t.now()
	product.LastUpdate = &lastUpdate

	// The merged record carries the stored name and origin, so its size
	// is checked after the merge, still before any write.
	if err := checkSize(product); err != nil {
		return nil, err
	}

	if err := t.store.Put(product); err != nil {
		return nil, fmt.Errorf("store product %d: %w", id, err)
	}
	return product, nil
}

// Delete removes the product at id and returns the removed value. The
// id is never handed out again.
func (t *Tracker) Delete(id uint64) (*codec.Product, error) {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	product, ok, err := t.store.Remove(id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &NotFoundError{ID: id}
	}
	return product, nil
}

// List returns every tracked product in ascending id order.
func (t *Tracker) List() ([]*codec.Product, error) {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	return t.store.List()
}

// validate rejects blank required fields. Optional fields are exempt
// from the emptiness checks.
func validate(payload Payload) error {
	checks := []struct {
		value string
		msg   string
	}{
		{payload.Name, "product name cannot be empty"},
		{payload.Origin, "product origin cannot be empty"},
		{payload.CurrentLocation, "current location cannot be empty"},
		{payload.Status, "status cannot be empty"},
	}
	for _, c := range checks {
		if strings.TrimSpace(c.value) == "" {
			return &InvalidInputError{Msg: c.msg}
		}
	}
	return nil
}

// checkSize rejects products whose encoded form could not fit the
// record size bound, sizing the worst case: a later update stamps
// LastUpdate, growing the record by 8 bytes, and that must still fit.
func checkSize(p *codec.Product) error {
	candidate := *p
	if candidate.LastUpdate == nil {
		lastUpdate := uint64(0)
		candidate.LastUpdate = &lastUpdate
	}
	if size := codec.EncodedSize(&candidate); size > codec.MaxEncodedSize {
		return &InvalidInputError{
			Msg: fmt.Sprintf("product data of %d bytes exceeds the %d byte record limit", size, codec.MaxEncodedSize),
		}
	}
	return nil
}
