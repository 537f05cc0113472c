package store

import (
	"context"
	"sync"
	"time"

	"github.com/calcore/davcore/internal/model"
)

// memStore is an in-memory Store used only by this package's own tests
// to exercise WritePath/indexer without a SQL backend.
type memStore struct {
	mu sync.Mutex

	collections map[string]*model.Collection
	instances   map[string]map[string]*model.Instance // collectionID -> slug -> instance
	entities    map[string]*model.Entity
	calIndex    map[string][]*model.CalIndex // entityID -> rows
	calOcc      map[string][]*model.CalOccurrence
	cardIndex   map[string]*model.CardIndex
	tombstones  []*model.Tombstone
}

func newMemStore() *memStore {
	return &memStore{
		collections: map[string]*model.Collection{},
		instances:   map[string]map[string]*model.Instance{},
		entities:    map[string]*model.Entity{},
		calIndex:    map[string][]*model.CalIndex{},
		calOcc:      map[string][]*model.CalOccurrence{},
		cardIndex:   map[string]*model.CardIndex{},
	}
}

func (m *memStore) seedCollection(c *model.Collection) {
	m.collections[c.ID] = c
	m.instances[c.ID] = map[string]*model.Instance{}
}

func (m *memStore) Begin(ctx context.Context) (Tx, error) {
	m.mu.Lock()
	return &memTx{m: m}, nil
}

func (m *memStore) GetCollection(ctx context.Context, id string) (*model.Collection, error) {
	if c, ok := m.collections[id]; ok {
		return c, nil
	}
	return nil, ErrNotFound
}
func (m *memStore) GetCollectionByURI(ctx context.Context, uri string) (*model.Collection, error) {
	for _, c := range m.collections {
		if c.URI == uri {
			return c, nil
		}
	}
	return nil, ErrNotFound
}
func (m *memStore) ListCollectionsByOwner(ctx context.Context, ownerPrincipalID string) ([]*model.Collection, error) {
	var out []*model.Collection
	for _, c := range m.collections {
		if c.OwnerPrincipalID == ownerPrincipalID {
			out = append(out, c)
		}
	}
	return out, nil
}
func (m *memStore) CreateCollection(ctx context.Context, c *model.Collection) error {
	m.seedCollection(c)
	return nil
}
func (m *memStore) UpdateCollection(ctx context.Context, c *model.Collection) error {
	m.collections[c.ID] = c
	return nil
}
func (m *memStore) DeleteCollection(ctx context.Context, id string) error {
	delete(m.collections, id)
	return nil
}

func (m *memStore) GetInstance(ctx context.Context, collectionID, slug string) (*model.Instance, error) {
	if byColl, ok := m.instances[collectionID]; ok {
		if inst, ok := byColl[slug]; ok {
			return inst, nil
		}
	}
	return nil, ErrNotFound
}
func (m *memStore) GetInstanceByUID(ctx context.Context, collectionID, logicalUID string) (*model.Instance, error) {
	for _, inst := range m.instances[collectionID] {
		if inst.LogicalUID == logicalUID {
			return inst, nil
		}
	}
	return nil, ErrNotFound
}
func (m *memStore) ListInstances(ctx context.Context, collectionID string) ([]*model.Instance, error) {
	var out []*model.Instance
	for _, inst := range m.instances[collectionID] {
		out = append(out, inst)
	}
	return out, nil
}
func (m *memStore) GetEntity(ctx context.Context, id string) (*model.Entity, error) {
	if e, ok := m.entities[id]; ok {
		return e, nil
	}
	return nil, ErrNotFound
}
func (m *memStore) ListCalIndex(ctx context.Context, collectionID string) ([]*model.CalIndex, error) {
	var out []*model.CalIndex
	for _, inst := range m.instances[collectionID] {
		out = append(out, m.calIndex[inst.EntityID]...)
	}
	return out, nil
}
func (m *memStore) ListCalOccurrences(ctx context.Context, entityID string, start, end time.Time) ([]*model.CalOccurrence, error) {
	var out []*model.CalOccurrence
	for _, occ := range m.calOcc[entityID] {
		if occ.DTStartUTC.Before(end) && occ.DTEndUTC.After(start) {
			out = append(out, occ)
		}
	}
	return out, nil
}
func (m *memStore) ListCardIndex(ctx context.Context, collectionID string) ([]*model.CardIndex, error) {
	var out []*model.CardIndex
	for _, inst := range m.instances[collectionID] {
		if idx, ok := m.cardIndex[inst.EntityID]; ok {
			out = append(out, idx)
		}
	}
	return out, nil
}
func (m *memStore) ListChangesSince(ctx context.Context, collectionID string, sinceRevision uint64, limit int) ([]Change, uint64, error) {
	coll := m.collections[collectionID]
	var out []Change
	for _, inst := range m.instances[collectionID] {
		if inst.SyncRevision > sinceRevision {
			out = append(out, Change{Slug: inst.Slug, LogicalUID: inst.LogicalUID, SyncRevision: inst.SyncRevision})
		}
	}
	for _, t := range m.tombstones {
		if t.CollectionID == collectionID && t.SyncRevision > sinceRevision {
			out = append(out, Change{Slug: t.Slug, LogicalUID: t.LogicalUID, Deleted: true, SyncRevision: t.SyncRevision})
		}
	}
	var rev uint64
	if coll != nil {
		rev = coll.SyncRevision
	}
	return out, rev, nil
}
func (m *memStore) OldestRetainedRevision(ctx context.Context, collectionID string) (uint64, error) {
	return 0, nil
}
func (m *memStore) SweepTombstones(ctx context.Context, cutoff time.Time) (int64, error) {
	var kept []*model.Tombstone
	var removed int64
	for _, t := range m.tombstones {
		if t.DeletedAt.Before(cutoff) {
			removed++
			continue
		}
		kept = append(kept, t)
	}
	m.tombstones = kept
	return removed, nil
}

type memTx struct {
	m *memStore
}

func (tx *memTx) LockCollection(ctx context.Context, collectionID string) (*model.Collection, error) {
	if c, ok := tx.m.collections[collectionID]; ok {
		return c, nil
	}
	return nil, ErrNotFound
}
func (tx *memTx) GetInstance(ctx context.Context, collectionID, slug string) (*model.Instance, error) {
	return tx.m.GetInstance(ctx, collectionID, slug)
}
func (tx *memTx) GetInstanceByUID(ctx context.Context, collectionID, logicalUID string) (*model.Instance, error) {
	return tx.m.GetInstanceByUID(ctx, collectionID, logicalUID)
}
func (tx *memTx) PutEntity(ctx context.Context, e *model.Entity, comps []*model.Component, props []*model.Property, params []*model.Parameter) error {
	tx.m.entities[e.ID] = e
	return nil
}
func (tx *memTx) PutCalIndex(ctx context.Context, idx []*model.CalIndex, occ []*model.CalOccurrence) error {
	if len(idx) == 0 {
		return nil
	}
	tx.m.calIndex[idx[0].EntityID] = idx
	tx.m.calOcc[idx[0].EntityID] = occ
	return nil
}
func (tx *memTx) PutCardIndex(ctx context.Context, idx *model.CardIndex, emails []*model.CardEmail, phones []*model.CardPhone) error {
	tx.m.cardIndex[idx.EntityID] = idx
	return nil
}
func (tx *memTx) DeleteEntityIndex(ctx context.Context, entityID string) error {
	delete(tx.m.entities, entityID)
	delete(tx.m.calIndex, entityID)
	delete(tx.m.calOcc, entityID)
	delete(tx.m.cardIndex, entityID)
	return nil
}
func (tx *memTx) PutInstance(ctx context.Context, inst *model.Instance) error {
	byColl, ok := tx.m.instances[inst.CollectionID]
	if !ok {
		byColl = map[string]*model.Instance{}
		tx.m.instances[inst.CollectionID] = byColl
	}
	byColl[inst.Slug] = inst
	return nil
}
func (tx *memTx) DeleteInstance(ctx context.Context, collectionID, slug string) error {
	delete(tx.m.instances[collectionID], slug)
	return nil
}
func (tx *memTx) PutTombstone(ctx context.Context, t *model.Tombstone) error {
	tx.m.tombstones = append(tx.m.tombstones, t)
	return nil
}
func (tx *memTx) BumpRevision(ctx context.Context, collectionID string) (uint64, error) {
	c := tx.m.collections[collectionID]
	c.SyncRevision++
	return c.SyncRevision, nil
}
func (tx *memTx) Commit() error {
	tx.m.mu.Unlock()
	return nil
}
func (tx *memTx) Rollback() error {
	tx.m.mu.Unlock()
	return nil
}
