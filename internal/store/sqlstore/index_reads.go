package sqlstore

import (
	"context"
	"database/sql"
	"time"

	"github.com/calcore/davcore/internal/model"
	"github.com/calcore/davcore/internal/store"
)

const calIndexCols = `ci.id, ci.entity_id, ci.component_id, ci.component_type, ci.uid, ci.recurrence_id_utc, ci.dtstart_utc, ci.dtend_utc, ci.all_day, ci.summary, ci.organizer, ci.transparency, ci.status, ci.rrule_text, ci.tzid`

func scanCalIndex(row interface{ Scan(...any) error }) (*model.CalIndex, error) {
	var c model.CalIndex
	var recID, dtstart, dtend sql.NullTime
	var allDay int
	if err := row.Scan(&c.ID, &c.EntityID, &c.ComponentID, &c.ComponentType, &c.UID, &recID, &dtstart, &dtend, &allDay, &c.Summary, &c.Organizer, &c.Transparency, &c.Status, &c.RRuleText, &c.TZID); err != nil {
		return nil, err
	}
	if recID.Valid {
		c.RecurrenceIDUTC = &recID.Time
	}
	if dtstart.Valid {
		c.DTStartUTC = &dtstart.Time
	}
	if dtend.Valid {
		c.DTEndUTC = &dtend.Time
	}
	c.AllDay = allDay != 0
	return &c, nil
}

// ListCalIndex returns every cal_index row belonging to any live
// instance in collectionID (joined through instances->entities so a
// retired entity's stale rows, if any cleanup lagged, never leak in).
func (s *Store) ListCalIndex(ctx context.Context, collectionID string) ([]*model.CalIndex, error) {
	rows, err := s.db.QueryContext(ctx, s.q(`
		SELECT `+calIndexCols+`
		FROM cal_index ci
		JOIN instances i ON i.entity_id = ci.entity_id
		WHERE i.collection_id = ?`), collectionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*model.CalIndex
	for rows.Next() {
		c, err := scanCalIndex(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) ListCalOccurrences(ctx context.Context, entityID string, start, end time.Time) ([]*model.CalOccurrence, error) {
	rows, err := s.db.QueryContext(ctx, s.q(`
		SELECT id, entity_id, component_id, dtstart_utc, dtend_utc, is_override
		FROM cal_occurrence
		WHERE entity_id = ? AND dtstart_utc < ? AND dtend_utc > ?
		ORDER BY dtstart_utc`), entityID, end, start)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*model.CalOccurrence
	for rows.Next() {
		var o model.CalOccurrence
		var isOverride int
		if err := rows.Scan(&o.ID, &o.EntityID, &o.ComponentID, &o.DTStartUTC, &o.DTEndUTC, &isOverride); err != nil {
			return nil, err
		}
		o.IsOverride = isOverride != 0
		out = append(out, &o)
	}
	return out, rows.Err()
}

func (s *Store) ListCardIndex(ctx context.Context, collectionID string) ([]*model.CardIndex, error) {
	rows, err := s.db.QueryContext(ctx, s.q(`
		SELECT ci.id, ci.entity_id, ci.fn_raw, ci.fn_normalized, ci.family_name, ci.given_name, ci.additional_names, ci.org, ci.title
		FROM card_index ci
		JOIN instances i ON i.entity_id = ci.entity_id
		WHERE i.collection_id = ?`), collectionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*model.CardIndex
	for rows.Next() {
		var c model.CardIndex
		if err := rows.Scan(&c.ID, &c.EntityID, &c.FNRaw, &c.FNNormalized, &c.FamilyName, &c.GivenName, &c.AdditionalNames, &c.Org, &c.Title); err != nil {
			return nil, err
		}
		out = append(out, &c)
	}
	return out, rows.Err()
}

// ListChangesSince returns live-instance and tombstone changes above
// sinceRevision, each row's SyncRevision monotonically ordered, plus the
// collection's current revision (used by sync-collection REPORT and by
// the caller to detect whether the client's token predates the
// retention floor via OldestRetainedRevision).
func (s *Store) ListChangesSince(ctx context.Context, collectionID string, sinceRevision uint64, limit int) ([]store.Change, uint64, error) {
	coll, err := s.GetCollection(ctx, collectionID)
	if err != nil {
		return nil, 0, err
	}

	// Both queries are independently capped at limit+1 (enough to prove
	// truncation on their own), but live instances and tombstones are two
	// separate result sets sharing one monotonic sync_revision counter:
	// the merge below interleaves them by revision before the caller's
	// limit cutoff is applied, so a truncated page never drops a
	// lower-revision tombstone in favor of a higher-revision instance
	// that happened to be queried first.
	live, err := s.db.QueryContext(ctx, s.q(`
		SELECT slug, logical_uid, sync_revision FROM instances
		WHERE collection_id = ? AND sync_revision > ?
		ORDER BY sync_revision LIMIT ?`), collectionID, sinceRevision, limit+1)
	if err != nil {
		return nil, 0, err
	}
	liveChanges, err := scanChanges(live, false)
	if err != nil {
		return nil, 0, err
	}

	tomb, err := s.db.QueryContext(ctx, s.q(`
		SELECT slug, logical_uid, sync_revision FROM tombstones
		WHERE collection_id = ? AND sync_revision > ?
		ORDER BY sync_revision LIMIT ?`), collectionID, sinceRevision, limit+1)
	if err != nil {
		return nil, 0, err
	}
	tombChanges, err := scanChanges(tomb, true)
	if err != nil {
		return nil, 0, err
	}

	merged := mergeChangesByRevision(liveChanges, tombChanges)
	if len(merged) > limit+1 {
		merged = merged[:limit+1]
	}
	return merged, coll.SyncRevision, nil
}

func scanChanges(rows *sql.Rows, deleted bool) ([]store.Change, error) {
	defer rows.Close()
	var out []store.Change
	for rows.Next() {
		var ch store.Change
		if err := rows.Scan(&ch.Slug, &ch.LogicalUID, &ch.SyncRevision); err != nil {
			return nil, err
		}
		ch.Deleted = deleted
		out = append(out, ch)
	}
	return out, rows.Err()
}

// mergeChangesByRevision merges two slices already ordered ascending by
// SyncRevision into one ascending slice, the way ListChangesSince's two
// independently-queried result sets (live instances, tombstones) must be
// combined before a revision-based limit cutoff is meaningful.
func mergeChangesByRevision(a, b []store.Change) []store.Change {
	out := make([]store.Change, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		if a[i].SyncRevision <= b[j].SyncRevision {
			out = append(out, a[i])
			i++
		} else {
			out = append(out, b[j])
			j++
		}
	}
	out = append(out, a[i:]...)
	out = append(out, b[j:]...)
	return out
}

func (s *Store) OldestRetainedRevision(ctx context.Context, collectionID string) (uint64, error) {
	row := s.db.QueryRowContext(ctx, s.q(`SELECT COALESCE(MIN(sync_revision), 0) FROM tombstones WHERE collection_id = ?`), collectionID)
	var rev uint64
	if err := row.Scan(&rev); err != nil {
		return 0, err
	}
	return rev, nil
}

// SweepTombstones deletes tombstones older than cutoff. Nothing in this
// module calls it: neither the write path nor a background scheduler
// runs the sweep, and it does not log what it removes.
func (s *Store) SweepTombstones(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, s.q(`DELETE FROM tombstones WHERE deleted_at < ?`), cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
