package report

import (
	"context"
	"sort"
	"time"

	"github.com/calcore/davcore/internal/model"
	"github.com/calcore/davcore/internal/store"
)

// fakeStore is a minimal in-memory store.Store, enough to drive the
// report engine's read paths without a database. Mutation helpers
// below bypass the write path entirely since this package never tests
// C8's concurrency semantics.
type fakeStore struct {
	entities    map[string]*model.Entity
	instances   map[string]map[string]*model.Instance // collectionID -> slug -> Instance
	occurrences map[string][]*model.CalOccurrence      // entityID -> occurrences
	changes     map[string][]store.Change
	revision    map[string]uint64
	retention   map[string]uint64
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		entities:    map[string]*model.Entity{},
		instances:   map[string]map[string]*model.Instance{},
		occurrences: map[string][]*model.CalOccurrence{},
		changes:     map[string][]store.Change{},
		revision:    map[string]uint64{},
		retention:   map[string]uint64{},
	}
}

func (f *fakeStore) putInstance(collectionID string, inst *model.Instance, ent *model.Entity) {
	if f.instances[collectionID] == nil {
		f.instances[collectionID] = map[string]*model.Instance{}
	}
	f.instances[collectionID][inst.Slug] = inst
	f.entities[ent.ID] = ent
}

func (f *fakeStore) Begin(ctx context.Context) (store.Tx, error) { return nil, nil }

func (f *fakeStore) GetCollection(ctx context.Context, id string) (*model.Collection, error) {
	return nil, store.ErrNotFound
}
func (f *fakeStore) GetCollectionByURI(ctx context.Context, uri string) (*model.Collection, error) {
	return nil, store.ErrNotFound
}
func (f *fakeStore) ListCollectionsByOwner(ctx context.Context, ownerPrincipalID string) ([]*model.Collection, error) {
	return nil, nil
}
func (f *fakeStore) CreateCollection(ctx context.Context, c *model.Collection) error { return nil }
func (f *fakeStore) UpdateCollection(ctx context.Context, c *model.Collection) error { return nil }
func (f *fakeStore) DeleteCollection(ctx context.Context, id string) error           { return nil }

func (f *fakeStore) GetInstance(ctx context.Context, collectionID, slug string) (*model.Instance, error) {
	byColl, ok := f.instances[collectionID]
	if !ok {
		return nil, store.ErrNotFound
	}
	inst, ok := byColl[slug]
	if !ok {
		return nil, store.ErrNotFound
	}
	return inst, nil
}

func (f *fakeStore) GetInstanceByUID(ctx context.Context, collectionID, logicalUID string) (*model.Instance, error) {
	for _, inst := range f.instances[collectionID] {
		if inst.LogicalUID == logicalUID {
			return inst, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeStore) ListInstances(ctx context.Context, collectionID string) ([]*model.Instance, error) {
	var out []*model.Instance
	for _, inst := range f.instances[collectionID] {
		out = append(out, inst)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slug < out[j].Slug })
	return out, nil
}

func (f *fakeStore) GetEntity(ctx context.Context, id string) (*model.Entity, error) {
	ent, ok := f.entities[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return ent, nil
}

func (f *fakeStore) ListCalIndex(ctx context.Context, collectionID string) ([]*model.CalIndex, error) {
	return nil, nil
}

func (f *fakeStore) ListCalOccurrences(ctx context.Context, entityID string, start, end time.Time) ([]*model.CalOccurrence, error) {
	var out []*model.CalOccurrence
	for _, occ := range f.occurrences[entityID] {
		if occ.DTEndUTC.After(start) && end.After(occ.DTStartUTC) {
			out = append(out, occ)
		}
	}
	return out, nil
}

func (f *fakeStore) ListCardIndex(ctx context.Context, collectionID string) ([]*model.CardIndex, error) {
	return nil, nil
}

func (f *fakeStore) ListChangesSince(ctx context.Context, collectionID string, sinceRevision uint64, limit int) ([]store.Change, uint64, error) {
	all := f.changes[collectionID]
	var out []store.Change
	for _, ch := range all {
		if ch.SyncRevision > sinceRevision {
			out = append(out, ch)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SyncRevision < out[j].SyncRevision })
	if len(out) > limit+1 {
		out = out[:limit+1]
	}
	return out, f.revision[collectionID], nil
}

func (f *fakeStore) OldestRetainedRevision(ctx context.Context, collectionID string) (uint64, error) {
	return f.retention[collectionID], nil
}

func (f *fakeStore) SweepTombstones(ctx context.Context, cutoff time.Time) (int64, error) {
	return 0, nil
}
