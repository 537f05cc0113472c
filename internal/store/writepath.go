package store

import (
	"context"
	"time"

	"github.com/calcore/davcore/internal/access"
	"github.com/calcore/davcore/internal/direrr"
	"github.com/calcore/davcore/internal/model"
	"github.com/calcore/davcore/pkg/ical"
	"github.com/calcore/davcore/pkg/vcard"
)

// WritePath orchestrates PUT/DELETE/MOVE/COPY (C8) against a Store,
// independent of the concrete SQL backend.
type WritePath struct {
	Store             Store
	Clock             access.Clock
	RecurrenceHorizon time.Duration
}

// PutRequest is one PUT's inputs (spec §4.8).
type PutRequest struct {
	CollectionID   string
	Slug           string
	Payload        []byte
	ContentType    string // text/calendar or text/vcard
	IfMatch        string
	IfNoneMatchAny bool
}

// PutResult reports whether the write created or overwrote the
// resource, for the caller to choose 201 vs. 204.
type PutResult struct {
	Created  bool
	ETag     string
	Instance *model.Instance
}

// Put implements the full PUT contract: parse, validate single main
// component, enforce UID uniqueness, check preconditions, and commit
// entity+instance+index+revision atomically. Put writes no tombstone.
func (w *WritePath) Put(ctx context.Context, req PutRequest) (*PutResult, error) {
	canonical, logicalUID, compType, err := canonicalizeAndValidate(req.ContentType, req.Payload)
	if err != nil {
		return nil, err
	}
	etag := ComputeETag(canonical)

	tx, err := w.Store.Begin(ctx)
	if err != nil {
		return nil, direrr.Wrap(err, "begin transaction")
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	coll, err := tx.LockCollection(ctx, req.CollectionID)
	if err != nil {
		return nil, direrr.Wrap(err, "lock collection")
	}
	if err := checkCollectionKind(coll, req.ContentType, compType); err != nil {
		return nil, err
	}

	existing, err := tx.GetInstance(ctx, req.CollectionID, req.Slug)
	if err != nil && err != ErrNotFound {
		return nil, direrr.Wrap(err, "lookup instance")
	}
	if err := checkPreconditions(existing, req.IfMatch, req.IfNoneMatchAny); err != nil {
		return nil, err
	}

	if conflict, err := tx.GetInstanceByUID(ctx, req.CollectionID, logicalUID); err == nil && conflict != nil && conflict.Slug != req.Slug {
		return nil, direrr.New(direrr.UidConflict, "UID already in use in this collection").WithHref(conflict.Slug)
	} else if err != nil && err != ErrNotFound {
		return nil, direrr.Wrap(err, "lookup UID conflict")
	}

	entity := &model.Entity{
		ID:          model.NewEntityID(),
		LogicalUID:  logicalUID,
		ContentType: req.ContentType,
		Canonical:   canonical,
		CreatedAt:   w.now(),
	}

	comps, props, params, calIdx, occs, cardIdx, emails, phones, err := indexEntity(req.ContentType, canonical, entity.ID, w.now(), w.RecurrenceHorizon)
	if err != nil {
		return nil, err
	}

	if existing != nil {
		if err := tx.DeleteEntityIndex(ctx, existing.EntityID); err != nil {
			return nil, direrr.Wrap(err, "retire previous entity")
		}
	}

	if err := tx.PutEntity(ctx, entity, comps, props, params); err != nil {
		return nil, direrr.Wrap(err, "write entity")
	}
	if len(calIdx) > 0 {
		if err := tx.PutCalIndex(ctx, calIdx, occs); err != nil {
			return nil, direrr.Wrap(err, "write cal index")
		}
	}
	if cardIdx != nil {
		if err := tx.PutCardIndex(ctx, cardIdx, emails, phones); err != nil {
			return nil, direrr.Wrap(err, "write card index")
		}
	}

	revision, err := tx.BumpRevision(ctx, req.CollectionID)
	if err != nil {
		return nil, direrr.Wrap(err, "bump revision")
	}

	inst := &model.Instance{
		ID:           model.NewInstanceID(),
		CollectionID: req.CollectionID,
		Slug:         req.Slug,
		EntityID:     entity.ID,
		LogicalUID:   logicalUID,
		ETag:         etag,
		ContentType:  req.ContentType,
		SyncRevision: revision,
		CreatedAt:    w.now(),
		UpdatedAt:    w.now(),
	}
	if err := tx.PutInstance(ctx, inst); err != nil {
		return nil, direrr.Wrap(err, "write instance")
	}

	if err := tx.Commit(); err != nil {
		return nil, direrr.Wrap(err, "commit")
	}
	committed = true

	return &PutResult{Created: existing == nil, ETag: etag, Instance: inst}, nil
}

// checkCollectionKind enforces that a calendar resource only lands in a
// Calendar collection and a vCard resource only in an Addressbook
// collection, and that a calendar resource's component type is within
// the collection's supported-calendar-component-set (spec §4.8).
func checkCollectionKind(coll *model.Collection, contentType, compType string) error {
	switch contentType {
	case "text/calendar":
		if coll.Kind != model.CollectionCalendar {
			return direrr.New(direrr.UnsupportedCalendarComponent, "target collection is not a calendar")
		}
		if len(coll.SupportedComps) > 0 && !containsStr(coll.SupportedComps, compType) {
			return direrr.New(direrr.UnsupportedCalendarComponent, compType+" not in supported-calendar-component-set")
		}
	case "text/vcard":
		if coll.Kind != model.CollectionAddressbook {
			return direrr.New(direrr.InvalidAddressData, "target collection is not an addressbook").WithElement("CARDDAV:supported-address-data")
		}
	}
	return nil
}

func containsStr(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

// DeleteRequest is one DELETE's inputs.
type DeleteRequest struct {
	CollectionID string
	Slug         string
	IfMatch      string
}

// Delete validates If-Match, removes the instance row and its entity's
// index rows, and records a tombstone under the bumped revision. The
// instance is not kept as a soft-deleted row.
func (w *WritePath) Delete(ctx context.Context, req DeleteRequest) error {
	tx, err := w.Store.Begin(ctx)
	if err != nil {
		return direrr.Wrap(err, "begin transaction")
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if _, err := tx.LockCollection(ctx, req.CollectionID); err != nil {
		return direrr.Wrap(err, "lock collection")
	}

	existing, err := tx.GetInstance(ctx, req.CollectionID, req.Slug)
	if err == ErrNotFound {
		return direrr.New(direrr.NotFound, "no such resource")
	}
	if err != nil {
		return direrr.Wrap(err, "lookup instance")
	}
	if req.IfMatch != "" && req.IfMatch != existing.ETag {
		return direrr.New(direrr.PreconditionFailed, "If-Match did not match current ETag")
	}

	if err := tx.DeleteEntityIndex(ctx, existing.EntityID); err != nil {
		return direrr.Wrap(err, "retire entity index")
	}
	if err := tx.DeleteInstance(ctx, req.CollectionID, req.Slug); err != nil {
		return direrr.Wrap(err, "delete instance")
	}
	revision, err := tx.BumpRevision(ctx, req.CollectionID)
	if err != nil {
		return direrr.Wrap(err, "bump revision")
	}
	if err := tx.PutTombstone(ctx, &model.Tombstone{
		ID:           newRowID(),
		CollectionID: req.CollectionID,
		Slug:         req.Slug,
		LogicalUID:   existing.LogicalUID,
		SyncRevision: revision,
		DeletedAt:    w.now(),
	}); err != nil {
		return direrr.Wrap(err, "write tombstone")
	}

	if err := tx.Commit(); err != nil {
		return direrr.Wrap(err, "commit")
	}
	committed = true
	return nil
}

// MoveRequest is one MOVE's inputs: DELETE at the source slug and PUT of
// the same entity at the destination slug under one transaction.
type MoveRequest struct {
	SourceCollectionID string
	SourceSlug         string
	DestCollectionID   string
	DestSlug           string
	Overwrite          bool
}

// Move relocates an instance, bumping both collections' revisions when
// they differ. Cross-collection moves lock in ascending collection-ID
// order to avoid deadlock (spec §5).
func (w *WritePath) Move(ctx context.Context, req MoveRequest) error {
	tx, err := w.Store.Begin(ctx)
	if err != nil {
		return direrr.Wrap(err, "begin transaction")
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	first, second := req.SourceCollectionID, req.DestCollectionID
	if second < first {
		first, second = second, first
	}
	if _, err := tx.LockCollection(ctx, first); err != nil {
		return direrr.Wrap(err, "lock collection")
	}
	if second != first {
		if _, err := tx.LockCollection(ctx, second); err != nil {
			return direrr.Wrap(err, "lock collection")
		}
	}

	src, err := tx.GetInstance(ctx, req.SourceCollectionID, req.SourceSlug)
	if err == ErrNotFound {
		return direrr.New(direrr.NotFound, "no such resource")
	}
	if err != nil {
		return direrr.Wrap(err, "lookup source instance")
	}

	dest, err := tx.GetInstance(ctx, req.DestCollectionID, req.DestSlug)
	if err != nil && err != ErrNotFound {
		return direrr.Wrap(err, "lookup destination instance")
	}
	if dest != nil && !req.Overwrite {
		return direrr.New(direrr.PreconditionFailed, "destination exists and Overwrite is F")
	}

	if err := tx.DeleteInstance(ctx, req.SourceCollectionID, req.SourceSlug); err != nil {
		return direrr.Wrap(err, "delete source instance")
	}
	srcRev, err := tx.BumpRevision(ctx, req.SourceCollectionID)
	if err != nil {
		return direrr.Wrap(err, "bump source revision")
	}
	if err := tx.PutTombstone(ctx, &model.Tombstone{
		ID:           newRowID(),
		CollectionID: req.SourceCollectionID,
		Slug:         req.SourceSlug,
		LogicalUID:   src.LogicalUID,
		SyncRevision: srcRev,
		DeletedAt:    w.now(),
	}); err != nil {
		return direrr.Wrap(err, "write source tombstone")
	}

	destRev := srcRev
	if req.DestCollectionID != req.SourceCollectionID {
		destRev, err = tx.BumpRevision(ctx, req.DestCollectionID)
		if err != nil {
			return direrr.Wrap(err, "bump destination revision")
		}
	}
	if err := tx.PutInstance(ctx, &model.Instance{
		ID:           model.NewInstanceID(),
		CollectionID: req.DestCollectionID,
		Slug:         req.DestSlug,
		EntityID:     src.EntityID,
		LogicalUID:   src.LogicalUID,
		ETag:         src.ETag,
		ContentType:  src.ContentType,
		SyncRevision: destRev,
		CreatedAt:    w.now(),
		UpdatedAt:    w.now(),
	}); err != nil {
		return direrr.Wrap(err, "write destination instance")
	}

	if err := tx.Commit(); err != nil {
		return direrr.Wrap(err, "commit")
	}
	committed = true
	return nil
}

func (w *WritePath) now() time.Time {
	if w.Clock != nil {
		return w.Clock.Now()
	}
	return time.Now().UTC()
}

// ComputeETag is a pure function of the canonical byte serialization, so
// semantically-equivalent-but-byte-different content produced the same
// way always yields the same ETag. Content-addressing is format-agnostic
// so this delegates to the iCalendar package's hasher for both content
// types rather than duplicating the hash.
func ComputeETag(canonical []byte) string {
	return ical.GenerateETag(canonical)
}

func checkPreconditions(existing *model.Instance, ifMatch string, ifNoneMatchAny bool) error {
	if ifNoneMatchAny && existing != nil {
		return direrr.New(direrr.PreconditionFailed, "If-None-Match: * but resource exists")
	}
	if ifMatch != "" {
		if existing == nil {
			return direrr.New(direrr.PreconditionFailed, "If-Match given but no existing resource")
		}
		if existing.ETag != ifMatch {
			return direrr.New(direrr.PreconditionFailed, "If-Match did not match current ETag")
		}
	}
	return nil
}

// canonicalizeAndValidate parses payload via C1/C2/C3, enforces the
// single-main-component rule, and returns the canonical re-serialized
// bytes plus the logical UID.
func canonicalizeAndValidate(contentType string, payload []byte) (canonical []byte, logicalUID, compType string, err error) {
	switch contentType {
	case "text/calendar":
		cal, perr := ical.ParseCalendar(payload)
		if perr != nil {
			return nil, "", "", direrr.New(direrr.InvalidCalendarData, perr.Error())
		}
		main := cal.MainComponents()
		if len(main) == 0 {
			return nil, "", "", direrr.New(direrr.InvalidCalendarData, "no VEVENT/VTODO/VJOURNAL/VFREEBUSY found")
		}
		uid := cal.UID()
		for _, m := range main {
			if m.Name != main[0].Name {
				return nil, "", "", direrr.New(direrr.UnsupportedCalendarComponent, "all main components must share one component type")
			}
			if u := m.Get(ical.PropUID); u == nil || textValue(u) != uid {
				return nil, "", "", direrr.New(direrr.UnsupportedCalendarComponent, "all main components must share one UID")
			}
		}
		norm, nerr := ical.NormalizeICS(payload)
		if nerr != nil {
			return nil, "", "", direrr.New(direrr.InvalidCalendarData, nerr.Error())
		}
		return norm, uid, main[0].Name, nil
	case "text/vcard":
		if verr := vcard.ValidateVCard(payload); verr != nil {
			return nil, "", "", direrr.New(direrr.InvalidAddressData, verr.Error())
		}
		cards, perr := vcard.ParseCards(payload)
		if perr != nil {
			return nil, "", "", direrr.New(direrr.InvalidAddressData, perr.Error())
		}
		if len(cards) != 1 {
			return nil, "", "", direrr.New(direrr.UnsupportedCalendarComponent, "exactly one VCARD required").WithElement("CARDDAV:supported-address-data")
		}
		uidProp := cards[0].Get(vcard.PropUID)
		if uidProp == nil {
			return nil, "", "", direrr.New(direrr.InvalidAddressData, "VCARD missing UID")
		}
		return vcard.SerializeCard(cards[0]), vcard.UnescapeText(uidProp.Raw), "VCARD", nil
	default:
		return nil, "", "", direrr.New(direrr.UnsupportedMediaType, "unsupported content type "+contentType)
	}
}

// indexEntity computes every index row set (C7) for one canonicalized
// entity, backend-agnostic.
func indexEntity(contentType string, canonical []byte, entityID string, now time.Time, horizon time.Duration) (
	comps []*model.Component, props []*model.Property, params []*model.Parameter,
	calIdx []*model.CalIndex, occs []*model.CalOccurrence,
	cardIdx *model.CardIndex, emails []*model.CardEmail, phones []*model.CardPhone,
	err error,
) {
	switch contentType {
	case "text/calendar":
		cal, perr := ical.ParseCalendar(canonical)
		if perr != nil {
			err = direrr.Wrap(perr, "re-parse canonical calendar")
			return
		}
		comps, props, params = FlattenICalTree(cal, entityID)
		calIdx = BuildCalIndex(cal, entityID, comps)
		occs, err = BuildCalOccurrences(cal, entityID, calIdx, now, horizon)
		if err != nil {
			err = direrr.Wrap(err, "expand occurrences")
			return
		}
	case "text/vcard":
		card, perr := vcard.ParseCard(canonical)
		if perr != nil {
			err = direrr.Wrap(perr, "re-parse canonical vcard")
			return
		}
		comps, props, params = FlattenVCard(card, entityID)
		cardIdx, emails, phones = BuildCardIndex(card, entityID)
	}
	return
}
