// Package store defines the Store contract (C6) and the backend-agnostic
// Indexer (C7) and Write Path (C8) logic built on top of it. Concrete
// backends live under internal/store/sqlstore; this package never
// imports database/sql directly so the write-path orchestration in
// writepath.go is testable against an in-memory fake.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/calcore/davcore/internal/model"
)

// ErrNotFound is returned by single-row lookups with no match.
var ErrNotFound = errors.New("store: not found")

// ErrUIDConflict describes a (collection_id, UID) uniqueness violation
// (spec §4.6). No Store or Tx method in this module returns it;
// WritePath.Put reports a UID conflict as a direrr.UidConflict error.
type ErrUIDConflict struct {
	ExistingSlug string
}

func (e *ErrUIDConflict) Error() string { return "store: UID already exists at " + e.ExistingSlug }

// Change is one row of a sync-collection delta: either a live Instance
// (Deleted == false) or a Tombstone (Deleted == true).
type Change struct {
	Slug         string
	LogicalUID   string
	Deleted      bool
	SyncRevision uint64
}

// Store is pure CRUD over the §3 entities. Every method that mutates
// state must be called inside a Transaction (see Tx) so entity write,
// instance write, index refresh, tombstone creation, and sync_revision
// bump commit atomically.
type Store interface {
	// Begin opens a write transaction. It is not tied to a collection:
	// Tx.LockCollection takes each collection's lock inside it (spec
	// §5). A failed transaction is not retried.
	Begin(ctx context.Context) (Tx, error)

	GetCollection(ctx context.Context, id string) (*model.Collection, error)
	GetCollectionByURI(ctx context.Context, uri string) (*model.Collection, error)
	ListCollectionsByOwner(ctx context.Context, ownerPrincipalID string) ([]*model.Collection, error)
	CreateCollection(ctx context.Context, c *model.Collection) error
	UpdateCollection(ctx context.Context, c *model.Collection) error
	DeleteCollection(ctx context.Context, id string) error

	GetInstance(ctx context.Context, collectionID, slug string) (*model.Instance, error)
	GetInstanceByUID(ctx context.Context, collectionID, logicalUID string) (*model.Instance, error)
	ListInstances(ctx context.Context, collectionID string) ([]*model.Instance, error)
	GetEntity(ctx context.Context, id string) (*model.Entity, error)

	// ListCalIndex returns every cal_index row of the live instances in
	// collectionID, with no time-range filtering. ListCalOccurrences
	// returns one entity's cal_occurrence rows overlapping [start,end).
	ListCalIndex(ctx context.Context, collectionID string) ([]*model.CalIndex, error)
	ListCalOccurrences(ctx context.Context, entityID string, start, end time.Time) ([]*model.CalOccurrence, error)
	ListCardIndex(ctx context.Context, collectionID string) ([]*model.CardIndex, error)

	// ListChangesSince returns every Change with SyncRevision >
	// sinceRevision, oldest first, capped at limit+1 (the sync-collection
	// REPORT uses the extra row to detect truncation without a second count
	// query), along with the collection's current revision.
	ListChangesSince(ctx context.Context, collectionID string, sinceRevision uint64, limit int) (changes []Change, currentRevision uint64, err error)

	// OldestRetainedRevision reports the floor below which
	// ListChangesSince can no longer serve a complete delta (tombstones
	// older than the retention window have been swept).
	OldestRetainedRevision(ctx context.Context, collectionID string) (uint64, error)

	// SweepTombstones deletes tombstones older than cutoff, returning
	// the number removed.
	SweepTombstones(ctx context.Context, cutoff time.Time) (int64, error)
}

// Tx is the write-path's atomic unit: every method must observe and
// leave the collection's sync_revision consistent with the rest of the
// transaction's writes. Callers must Commit or Rollback exactly once.
type Tx interface {
	// LockCollection takes the per-collection exclusive lock the
	// concurrency model requires (spec §5) and returns its current
	// state for the caller to validate preconditions against.
	LockCollection(ctx context.Context, collectionID string) (*model.Collection, error)

	GetInstance(ctx context.Context, collectionID, slug string) (*model.Instance, error)
	GetInstanceByUID(ctx context.Context, collectionID, logicalUID string) (*model.Instance, error)

	// PutEntity inserts a new Entity row (entities are immutable: a
	// content change always creates a fresh one) along with its
	// Component/Property/Parameter tree.
	PutEntity(ctx context.Context, e *model.Entity, comps []*model.Component, props []*model.Property, params []*model.Parameter) error

	// PutCalIndex / PutCardIndex insert the freshly computed index rows
	// for a new entity (C7). They do not remove rows already stored for
	// an entity; DeleteEntityIndex does that.
	PutCalIndex(ctx context.Context, idx []*model.CalIndex, occ []*model.CalOccurrence) error
	PutCardIndex(ctx context.Context, idx *model.CardIndex, emails []*model.CardEmail, phones []*model.CardPhone) error

	// DeleteEntityIndex cascades removal of an entity's component tree
	// and every index/occurrence row derived from it.
	DeleteEntityIndex(ctx context.Context, entityID string) error

	// PutInstance creates or overwrites the (collectionID, slug)
	// binding to point at entityID, stamping it with the collection's
	// new revision (obtained via BumpRevision).
	PutInstance(ctx context.Context, inst *model.Instance) error
	DeleteInstance(ctx context.Context, collectionID, slug string) error

	// PutTombstone records a deleted/renamed-away slug at the given
	// revision.
	PutTombstone(ctx context.Context, t *model.Tombstone) error

	// BumpRevision atomically increments and returns the collection's
	// sync_revision. The write path calls it once per affected
	// collection per logical write, before writing the instance or
	// tombstone that carries the returned revision, so every committed
	// write observes a strictly higher revision than the last.
	BumpRevision(ctx context.Context, collectionID string) (uint64, error)

	Commit() error
	Rollback() error
}
