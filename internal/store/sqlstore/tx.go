package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/calcore/davcore/internal/model"
	"github.com/calcore/davcore/internal/store"
)

// Tx wraps a *sql.Tx to implement store.Tx. SQLite serializes through a
// single connection (db.SetMaxOpenConns(1)), so only one transaction is
// open at a time, which gives exclusive per-database access; Begin uses
// default transaction options there. Postgres runs at SERIALIZABLE
// isolation and additionally takes a row
// lock via SELECT ... FOR UPDATE in LockCollection so concurrent writers
// against different collections don't block each other.
type Tx struct {
	tx      *sql.Tx
	dialect Dialect
}

func (s *Store) Begin(ctx context.Context) (store.Tx, error) {
	opts := &sql.TxOptions{}
	if s.dialect == DialectPostgres {
		opts.Isolation = sql.LevelSerializable
	}
	tx, err := s.db.BeginTx(ctx, opts)
	if err != nil {
		return nil, err
	}
	return &Tx{tx: tx, dialect: s.dialect}, nil
}

func (t *Tx) q(query string) string { return rebindQuery(t.dialect, query) }

func (t *Tx) LockCollection(ctx context.Context, collectionID string) (*model.Collection, error) {
	query := `SELECT ` + collectionCols + ` FROM collections WHERE id = ? AND deleted_at IS NULL`
	if t.dialect == DialectPostgres {
		query += ` FOR UPDATE`
	}
	row := t.tx.QueryRowContext(ctx, t.q(query), collectionID)
	return scanCollection(row)
}

func (t *Tx) GetInstance(ctx context.Context, collectionID, slug string) (*model.Instance, error) {
	row := t.tx.QueryRowContext(ctx, t.q(`SELECT `+instanceCols+` FROM instances WHERE collection_id = ? AND slug = ?`), collectionID, slug)
	return scanInstance(row)
}

func (t *Tx) GetInstanceByUID(ctx context.Context, collectionID, logicalUID string) (*model.Instance, error) {
	row := t.tx.QueryRowContext(ctx, t.q(`SELECT `+instanceCols+` FROM instances WHERE collection_id = ? AND logical_uid = ?`), collectionID, logicalUID)
	return scanInstance(row)
}

func (t *Tx) PutEntity(ctx context.Context, e *model.Entity, comps []*model.Component, props []*model.Property, params []*model.Parameter) error {
	if _, err := t.tx.ExecContext(ctx, t.q(`INSERT INTO entities (id, logical_uid, content_type, canonical, created_at) VALUES (?, ?, ?, ?, ?)`),
		e.ID, e.LogicalUID, e.ContentType, e.Canonical, e.CreatedAt); err != nil {
		return err
	}
	for _, c := range comps {
		if _, err := t.tx.ExecContext(ctx, t.q(`INSERT INTO components (id, entity_id, parent_id, name, ordinal) VALUES (?, ?, ?, ?, ?)`),
			c.ID, c.EntityID, c.ParentID, c.Name, c.Ordinal); err != nil {
			return err
		}
	}
	for _, p := range props {
		if _, err := t.tx.ExecContext(ctx, t.q(`INSERT INTO properties (id, component_id, name, group_tag, raw_value, ordinal) VALUES (?, ?, ?, ?, ?, ?)`),
			p.ID, p.ComponentID, p.Name, p.Group, p.RawValue, p.Ordinal); err != nil {
			return err
		}
	}
	for _, pm := range params {
		valuesJSON, err := json.Marshal(pm.Values)
		if err != nil {
			return err
		}
		if _, err := t.tx.ExecContext(ctx, t.q(`INSERT INTO parameters (id, property_id, name, values_json, ordinal) VALUES (?, ?, ?, ?, ?)`),
			pm.ID, pm.PropertyID, pm.Name, string(valuesJSON), pm.Ordinal); err != nil {
			return err
		}
	}
	return nil
}

func (t *Tx) PutCalIndex(ctx context.Context, idx []*model.CalIndex, occ []*model.CalOccurrence) error {
	for _, c := range idx {
		if _, err := t.tx.ExecContext(ctx, t.q(`
			INSERT INTO cal_index (id, entity_id, component_id, component_type, uid, recurrence_id_utc, dtstart_utc, dtend_utc, all_day, summary, organizer, transparency, status, rrule_text, tzid)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
			c.ID, c.EntityID, c.ComponentID, c.ComponentType, c.UID, c.RecurrenceIDUTC, c.DTStartUTC, c.DTEndUTC, boolInt(c.AllDay), c.Summary, c.Organizer, c.Transparency, c.Status, c.RRuleText, c.TZID); err != nil {
			return err
		}
	}
	for _, o := range occ {
		if _, err := t.tx.ExecContext(ctx, t.q(`
			INSERT INTO cal_occurrence (id, entity_id, component_id, dtstart_utc, dtend_utc, is_override)
			VALUES (?, ?, ?, ?, ?, ?)`),
			o.ID, o.EntityID, o.ComponentID, o.DTStartUTC, o.DTEndUTC, boolInt(o.IsOverride)); err != nil {
			return err
		}
	}
	return nil
}

func (t *Tx) PutCardIndex(ctx context.Context, idx *model.CardIndex, emails []*model.CardEmail, phones []*model.CardPhone) error {
	if _, err := t.tx.ExecContext(ctx, t.q(`
		INSERT INTO card_index (id, entity_id, fn_raw, fn_normalized, family_name, given_name, additional_names, org, title)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		idx.ID, idx.EntityID, idx.FNRaw, idx.FNNormalized, idx.FamilyName, idx.GivenName, idx.AdditionalNames, idx.Org, idx.Title); err != nil {
		return err
	}
	for _, e := range emails {
		if _, err := t.tx.ExecContext(ctx, t.q(`INSERT INTO card_email (id, entity_id, address, pref) VALUES (?, ?, ?, ?)`),
			e.ID, e.EntityID, e.Address, e.Pref); err != nil {
			return err
		}
	}
	for _, p := range phones {
		if _, err := t.tx.ExecContext(ctx, t.q(`INSERT INTO card_phone (id, entity_id, digits, pref) VALUES (?, ?, ?, ?)`),
			p.ID, p.EntityID, p.Digits, p.Pref); err != nil {
			return err
		}
	}
	return nil
}

// DeleteEntityIndex cascades removal of an entity's full component tree
// and every row derived from it, in child-to-parent order.
func (t *Tx) DeleteEntityIndex(ctx context.Context, entityID string) error {
	stmts := []string{
		`DELETE FROM cal_occurrence WHERE entity_id = ?`,
		`DELETE FROM cal_index WHERE entity_id = ?`,
		`DELETE FROM card_email WHERE entity_id = ?`,
		`DELETE FROM card_phone WHERE entity_id = ?`,
		`DELETE FROM card_index WHERE entity_id = ?`,
		`DELETE FROM parameters WHERE property_id IN (SELECT id FROM properties WHERE component_id IN (SELECT id FROM components WHERE entity_id = ?))`,
		`DELETE FROM properties WHERE component_id IN (SELECT id FROM components WHERE entity_id = ?)`,
		`DELETE FROM components WHERE entity_id = ?`,
		`DELETE FROM entities WHERE id = ?`,
	}
	for _, stmt := range stmts {
		if _, err := t.tx.ExecContext(ctx, t.q(stmt), entityID); err != nil {
			return err
		}
	}
	return nil
}

func (t *Tx) PutInstance(ctx context.Context, inst *model.Instance) error {
	if _, err := t.tx.ExecContext(ctx, t.q(`DELETE FROM instances WHERE collection_id = ? AND slug = ?`), inst.CollectionID, inst.Slug); err != nil {
		return err
	}
	_, err := t.tx.ExecContext(ctx, t.q(`
		INSERT INTO instances (id, collection_id, slug, entity_id, logical_uid, etag, content_type, sync_revision, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		inst.ID, inst.CollectionID, inst.Slug, inst.EntityID, inst.LogicalUID, inst.ETag, inst.ContentType, inst.SyncRevision, inst.CreatedAt, inst.UpdatedAt)
	return err
}

func (t *Tx) DeleteInstance(ctx context.Context, collectionID, slug string) error {
	_, err := t.tx.ExecContext(ctx, t.q(`DELETE FROM instances WHERE collection_id = ? AND slug = ?`), collectionID, slug)
	return err
}

func (t *Tx) PutTombstone(ctx context.Context, ts *model.Tombstone) error {
	_, err := t.tx.ExecContext(ctx, t.q(`
		INSERT INTO tombstones (id, collection_id, slug, logical_uid, sync_revision, deleted_at)
		VALUES (?, ?, ?, ?, ?, ?)`),
		ts.ID, ts.CollectionID, ts.Slug, ts.LogicalUID, ts.SyncRevision, ts.DeletedAt)
	return err
}

func (t *Tx) BumpRevision(ctx context.Context, collectionID string) (uint64, error) {
	if _, err := t.tx.ExecContext(ctx, t.q(`UPDATE collections SET sync_revision = sync_revision + 1 WHERE id = ?`), collectionID); err != nil {
		return 0, err
	}
	row := t.tx.QueryRowContext(ctx, t.q(`SELECT sync_revision FROM collections WHERE id = ?`), collectionID)
	var rev uint64
	if err := row.Scan(&rev); err != nil {
		return 0, err
	}
	return rev, nil
}

func (t *Tx) Commit() error   { return t.tx.Commit() }
func (t *Tx) Rollback() error { return t.tx.Rollback() }

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
