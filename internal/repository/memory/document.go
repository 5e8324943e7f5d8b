// Package memory provides an in-process DocumentStore used for local runs and tests.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dtroode/sportify-server/internal/model"
)

var _ model.DocumentStore = (*DocumentStore)(nil)

// Op names a DocumentStore method for fault injection.
type Op string

const (
	OpGet    Op = "get"
	OpSet    Op = "set"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
	OpList   Op = "list"
	OpAdd    Op = "add"
)

// FaultFunc may return an error to fail the given call before it touches data.
type FaultFunc func(op Op, collection, id string) error

type entry struct {
	raw       []byte
	createdAt time.Time
	updatedAt time.Time
	seq       uint64
}

// DocumentStore keeps JSON encoded documents in memory. Values round trip
// through encoding/json so readers observe the same shapes as with postgres.
type DocumentStore struct {
	mu    sync.RWMutex
	data  map[string]map[string]entry
	seq   uint64
	fault FaultFunc
}

func NewDocumentStore() *DocumentStore {
	return &DocumentStore{data: make(map[string]map[string]entry)}
}

// SetFault installs fn as the fault hook. A nil fn removes it.
func (s *DocumentStore) SetFault(fn FaultFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fault = fn
}

func (s *DocumentStore) Get(ctx context.Context, collection, id string) (model.Document, error) {
	if err := s.check(ctx, OpGet, collection, id); err != nil {
		return model.Document{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.data[collection][id]
	if !ok {
		return model.Document{}, fmt.Errorf("failed to get %s/%s: %w", collection, id, model.ErrNotFound)
	}
	return decode(id, e)
}

func (s *DocumentStore) Set(ctx context.Context, collection, id string, fields model.Fields) error {
	if err := s.check(ctx, OpSet, collection, id); err != nil {
		return err
	}
	raw, err := json.Marshal(orEmpty(fields))
	if err != nil {
		return fmt.Errorf("failed to encode fields: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	coll := s.collection(collection)
	e, ok := coll[id]
	if !ok {
		s.seq++
		e = entry{createdAt: now, seq: s.seq}
	}
	e.raw = raw
	e.updatedAt = now
	coll[id] = e
	return nil
}

func (s *DocumentStore) Update(ctx context.Context, collection, id string, fields model.Fields) error {
	if err := s.check(ctx, OpUpdate, collection, id); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.data[collection][id]
	if !ok {
		return fmt.Errorf("failed to update %s/%s: %w", collection, id, model.ErrNotFound)
	}

	var current model.Fields
	if err := json.Unmarshal(e.raw, &current); err != nil {
		return fmt.Errorf("failed to decode %s/%s: %w", collection, id, err)
	}
	if current == nil {
		current = model.Fields{}
	}
	for k, v := range fields {
		current[k] = v
	}
	raw, err := json.Marshal(current)
	if err != nil {
		return fmt.Errorf("failed to encode fields: %w", err)
	}

	e.raw = raw
	e.updatedAt = time.Now()
	s.data[collection][id] = e
	return nil
}

func (s *DocumentStore) Delete(ctx context.Context, collection, id string) error {
	if err := s.check(ctx, OpDelete, collection, id); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.data[collection][id]; !ok {
		return fmt.Errorf("failed to delete %s/%s: %w", collection, id, model.ErrNotFound)
	}
	delete(s.data[collection], id)
	return nil
}

func (s *DocumentStore) List(ctx context.Context, collection string) ([]model.Document, error) {
	if err := s.check(ctx, OpList, collection, ""); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	type item struct {
		id string
		e  entry
	}
	items := make([]item, 0, len(s.data[collection]))
	for id, e := range s.data[collection] {
		items = append(items, item{id: id, e: e})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].e.seq < items[j].e.seq })

	docs := make([]model.Document, 0, len(items))
	for _, it := range items {
		doc, err := decode(it.id, it.e)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func (s *DocumentStore) Add(ctx context.Context, collection string, fields model.Fields) (string, error) {
	id := uuid.NewString()
	if err := s.check(ctx, OpAdd, collection, id); err != nil {
		return "", err
	}
	if err := s.Set(ctx, collection, id, fields); err != nil {
		return "", err
	}
	return id, nil
}

func (s *DocumentStore) check(ctx context.Context, op Op, collection, id string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", model.ErrRemoteUnavailable, err)
	}
	s.mu.RLock()
	fault := s.fault
	s.mu.RUnlock()
	if fault != nil {
		return fault(op, collection, id)
	}
	return nil
}

func (s *DocumentStore) collection(name string) map[string]entry {
	coll, ok := s.data[name]
	if !ok {
		coll = make(map[string]entry)
		s.data[name] = coll
	}
	return coll
}

func decode(id string, e entry) (model.Document, error) {
	var fields model.Fields
	if err := json.Unmarshal(e.raw, &fields); err != nil {
		return model.Document{}, fmt.Errorf("failed to decode %s: %w", id, err)
	}
	return model.Document{ID: id, Fields: fields, CreatedAt: e.createdAt, UpdatedAt: e.updatedAt}, nil
}

func orEmpty(fields model.Fields) model.Fields {
	if fields == nil {
		return model.Fields{}
	}
	return fields
}
