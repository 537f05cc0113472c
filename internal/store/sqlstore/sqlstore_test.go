package sqlstore

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calcore/davcore/internal/model"
	"github.com/calcore/davcore/internal/store"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "test.db")
	s, err := New(DialectSQLite, dsn, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSQLiteCollectionRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	c := &model.Collection{
		ID:               model.NewCollectionID(),
		OwnerPrincipalID: "owner-1",
		Kind:             model.CollectionCalendar,
		URI:              "/calendars/owner-1/home/",
		DisplayName:      "Home",
		SupportedComps:   []string{"VEVENT", "VTODO"},
	}
	require.NoError(t, s.CreateCollection(ctx, c))

	got, err := s.GetCollectionByURI(ctx, c.URI)
	require.NoError(t, err)
	assert.Equal(t, c.ID, got.ID)
	assert.ElementsMatch(t, []string{"VEVENT", "VTODO"}, got.SupportedComps)

	_, err = s.GetCollection(ctx, "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestSQLiteWriteAndReadEntityThroughTx(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	coll := &model.Collection{ID: model.NewCollectionID(), OwnerPrincipalID: "owner-1", Kind: model.CollectionCalendar, URI: "/calendars/owner-1/home/"}
	require.NoError(t, s.CreateCollection(ctx, coll))

	tx, err := s.Begin(ctx)
	require.NoError(t, err)

	locked, err := tx.LockCollection(ctx, coll.ID)
	require.NoError(t, err)
	assert.Equal(t, coll.ID, locked.ID)

	now := time.Now().UTC()
	entity := &model.Entity{ID: model.NewEntityID(), LogicalUID: "uid-1", ContentType: "text/calendar", Canonical: []byte("BEGIN:VCALENDAR\r\nEND:VCALENDAR\r\n"), CreatedAt: now}
	require.NoError(t, tx.PutEntity(ctx, entity, nil, nil, nil))

	rev, err := tx.BumpRevision(ctx, coll.ID)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), rev)

	inst := &model.Instance{ID: model.NewInstanceID(), CollectionID: coll.ID, Slug: "a.ics", EntityID: entity.ID, LogicalUID: "uid-1", ETag: `"abc"`, ContentType: "text/calendar", SyncRevision: rev, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, tx.PutInstance(ctx, inst))

	require.NoError(t, tx.Commit())

	gotEntity, err := s.GetEntity(ctx, entity.ID)
	require.NoError(t, err)
	assert.Equal(t, "uid-1", gotEntity.LogicalUID)

	gotInstance, err := s.GetInstance(ctx, coll.ID, "a.ics")
	require.NoError(t, err)
	assert.Equal(t, `"abc"`, gotInstance.ETag)

	changes, currentRev, err := s.ListChangesSince(ctx, coll.ID, 0, 10)
	require.NoError(t, err)
	require.Len(t, changes, 1)
	assert.Equal(t, uint64(1), currentRev)
}
