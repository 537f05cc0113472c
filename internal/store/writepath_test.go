package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calcore/davcore/internal/direrr"
	"github.com/calcore/davcore/internal/model"
)

const sampleEvent = "BEGIN:VCALENDAR\r\n" +
	"VERSION:2.0\r\n" +
	"PRODID:-//test//test//EN\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:event-1@example.com\r\n" +
	"DTSTAMP:20260101T120000Z\r\n" +
	"DTSTART:20260115T090000Z\r\n" +
	"DTEND:20260115T100000Z\r\n" +
	"SUMMARY:Weekly sync\r\n" +
	"RRULE:FREQ=WEEKLY;COUNT=3\r\n" +
	"END:VEVENT\r\n" +
	"END:VCALENDAR\r\n"

const sampleCardPayload = "BEGIN:VCARD\r\n" +
	"VERSION:4.0\r\n" +
	"UID:card-1@example.com\r\n" +
	"FN:Ada Lovelace\r\n" +
	"EMAIL;TYPE=work:ADA@EXAMPLE.COM\r\n" +
	"TEL;TYPE=cell:+1 (555) 010-0001\r\n" +
	"END:VCARD\r\n"

func newTestWritePath(t *testing.T) (*WritePath, *memStore, *model.Collection) {
	t.Helper()
	ms := newMemStore()
	cal := &model.Collection{ID: "cal-1", OwnerPrincipalID: "owner-1", Kind: model.CollectionCalendar, URI: "/calendars/owner-1/home/"}
	ms.seedCollection(cal)
	addr := &model.Collection{ID: "card-1", OwnerPrincipalID: "owner-1", Kind: model.CollectionAddressbook, URI: "/addressbooks/owner-1/home/"}
	ms.seedCollection(addr)
	wp := &WritePath{Store: ms, Clock: fixedClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)), RecurrenceHorizon: 365 * 24 * time.Hour}
	return wp, ms, cal
}

// fixedClock pins WritePath.now() so the occurrences materialized over
// [now, now+horizon) do not depend on the wall clock.
type fixedClock time.Time

func (c fixedClock) Now() time.Time { return time.Time(c) }

func TestWritePathPutCreatesCalendarInstance(t *testing.T) {
	wp, ms, cal := newTestWritePath(t)
	res, err := wp.Put(context.Background(), PutRequest{
		CollectionID: cal.ID,
		Slug:         "event-1.ics",
		Payload:      []byte(sampleEvent),
		ContentType:  "text/calendar",
	})
	require.NoError(t, err)
	assert.True(t, res.Created)
	assert.NotEmpty(t, res.ETag)

	inst, err := ms.GetInstance(context.Background(), cal.ID, "event-1.ics")
	require.NoError(t, err)
	assert.Equal(t, "event-1@example.com", inst.LogicalUID)
	assert.Equal(t, uint64(1), inst.SyncRevision)

	idx, err := ms.ListCalIndex(context.Background(), cal.ID)
	require.NoError(t, err)
	require.Len(t, idx, 1)
	assert.Equal(t, "Weekly sync", idx[0].Summary)

	occs, err := ms.ListCalOccurrences(context.Background(), inst.EntityID, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Len(t, occs, 3)
}

func TestWritePathPutRejectsWrongCollectionKind(t *testing.T) {
	wp, _, cal := newTestWritePath(t)
	_, err := wp.Put(context.Background(), PutRequest{
		CollectionID: cal.ID,
		Slug:         "card.vcf",
		Payload:      []byte(sampleCardPayload),
		ContentType:  "text/vcard",
	})
	require.Error(t, err)
	derr, ok := err.(*direrr.Error)
	require.True(t, ok)
	assert.Equal(t, direrr.InvalidAddressData, derr.Kind)
}

func TestWritePathPutDetectsUIDConflict(t *testing.T) {
	wp, _, cal := newTestWritePath(t)
	ctx := context.Background()
	_, err := wp.Put(ctx, PutRequest{CollectionID: cal.ID, Slug: "a.ics", Payload: []byte(sampleEvent), ContentType: "text/calendar"})
	require.NoError(t, err)

	_, err = wp.Put(ctx, PutRequest{CollectionID: cal.ID, Slug: "b.ics", Payload: []byte(sampleEvent), ContentType: "text/calendar"})
	require.Error(t, err)
	derr, ok := err.(*direrr.Error)
	require.True(t, ok)
	assert.Equal(t, direrr.UidConflict, derr.Kind)
}

func TestWritePathPutIfNoneMatchPreventsOverwrite(t *testing.T) {
	wp, _, cal := newTestWritePath(t)
	ctx := context.Background()
	_, err := wp.Put(ctx, PutRequest{CollectionID: cal.ID, Slug: "a.ics", Payload: []byte(sampleEvent), ContentType: "text/calendar"})
	require.NoError(t, err)

	_, err = wp.Put(ctx, PutRequest{CollectionID: cal.ID, Slug: "a.ics", Payload: []byte(sampleEvent), ContentType: "text/calendar", IfNoneMatchAny: true})
	require.Error(t, err)
	derr, ok := err.(*direrr.Error)
	require.True(t, ok)
	assert.Equal(t, direrr.PreconditionFailed, derr.Kind)
}

func TestWritePathDeleteWritesTombstoneAndBumpsRevision(t *testing.T) {
	wp, ms, cal := newTestWritePath(t)
	ctx := context.Background()
	res, err := wp.Put(ctx, PutRequest{CollectionID: cal.ID, Slug: "a.ics", Payload: []byte(sampleEvent), ContentType: "text/calendar"})
	require.NoError(t, err)

	require.NoError(t, wp.Delete(ctx, DeleteRequest{CollectionID: cal.ID, Slug: "a.ics", IfMatch: res.ETag}))

	_, err = ms.GetInstance(ctx, cal.ID, "a.ics")
	assert.ErrorIs(t, err, ErrNotFound)

	changes, rev, err := ms.ListChangesSince(ctx, cal.ID, 0, 10)
	require.NoError(t, err)
	require.Len(t, changes, 1)
	assert.True(t, changes[0].Deleted)
	assert.Equal(t, uint64(2), rev)
}

func TestWritePathMoveAcrossCollectionsBumpsBothRevisions(t *testing.T) {
	wp, ms, cal := newTestWritePath(t)
	ctx := context.Background()
	dest := &model.Collection{ID: "cal-2", OwnerPrincipalID: "owner-1", Kind: model.CollectionCalendar, URI: "/calendars/owner-1/other/"}
	ms.seedCollection(dest)

	_, err := wp.Put(ctx, PutRequest{CollectionID: cal.ID, Slug: "a.ics", Payload: []byte(sampleEvent), ContentType: "text/calendar"})
	require.NoError(t, err)

	require.NoError(t, wp.Move(ctx, MoveRequest{
		SourceCollectionID: cal.ID,
		SourceSlug:         "a.ics",
		DestCollectionID:   dest.ID,
		DestSlug:           "b.ics",
	}))

	_, err = ms.GetInstance(ctx, cal.ID, "a.ics")
	assert.ErrorIs(t, err, ErrNotFound)
	moved, err := ms.GetInstance(ctx, dest.ID, "b.ics")
	require.NoError(t, err)
	assert.Equal(t, "event-1@example.com", moved.LogicalUID)
}

func TestWritePathPutCardIndexesNormalizedFields(t *testing.T) {
	wp, ms, _ := newTestWritePath(t)
	ctx := context.Background()
	res, err := wp.Put(ctx, PutRequest{CollectionID: "card-1", Slug: "ada.vcf", Payload: []byte(sampleCardPayload), ContentType: "text/vcard"})
	require.NoError(t, err)

	idx, err := ms.ListCardIndex(ctx, "card-1")
	require.NoError(t, err)
	require.Len(t, idx, 1)
	assert.Equal(t, "Ada Lovelace", idx[0].FNRaw)

	stored := ms.cardIndex[res.Instance.EntityID]
	require.NotNil(t, stored)
	assert.Equal(t, "ada lovelace", stored.FNNormalized)
}
