package sqlstore

import (
	"context"
	"database/sql"

	"github.com/calcore/davcore/internal/model"
	"github.com/calcore/davcore/internal/store"
)

const instanceCols = `id, collection_id, slug, entity_id, logical_uid, etag, content_type, sync_revision, created_at, updated_at`

func scanInstance(row interface{ Scan(...any) error }) (*model.Instance, error) {
	var i model.Instance
	if err := row.Scan(&i.ID, &i.CollectionID, &i.Slug, &i.EntityID, &i.LogicalUID, &i.ETag, &i.ContentType, &i.SyncRevision, &i.CreatedAt, &i.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &i, nil
}

func (s *Store) GetInstance(ctx context.Context, collectionID, slug string) (*model.Instance, error) {
	row := s.db.QueryRowContext(ctx, s.q(`SELECT `+instanceCols+` FROM instances WHERE collection_id = ? AND slug = ?`), collectionID, slug)
	return scanInstance(row)
}

func (s *Store) GetInstanceByUID(ctx context.Context, collectionID, logicalUID string) (*model.Instance, error) {
	row := s.db.QueryRowContext(ctx, s.q(`SELECT `+instanceCols+` FROM instances WHERE collection_id = ? AND logical_uid = ?`), collectionID, logicalUID)
	return scanInstance(row)
}

func (s *Store) ListInstances(ctx context.Context, collectionID string) ([]*model.Instance, error) {
	rows, err := s.db.QueryContext(ctx, s.q(`SELECT `+instanceCols+` FROM instances WHERE collection_id = ? ORDER BY slug`), collectionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*model.Instance
	for rows.Next() {
		i, err := scanInstance(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, i)
	}
	return out, rows.Err()
}

func (s *Store) GetEntity(ctx context.Context, id string) (*model.Entity, error) {
	row := s.db.QueryRowContext(ctx, s.q(`SELECT id, logical_uid, content_type, canonical, created_at FROM entities WHERE id = ?`), id)
	var e model.Entity
	if err := row.Scan(&e.ID, &e.LogicalUID, &e.ContentType, &e.Canonical, &e.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &e, nil
}
