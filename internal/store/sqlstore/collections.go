package sqlstore

import (
	"context"
	"database/sql"
	"time"

	"github.com/calcore/davcore/internal/model"
	"github.com/calcore/davcore/internal/store"
)

const collectionCols = `id, owner_principal_id, kind, uri, display_name, description, color, timezone, supported_comps, sync_revision, created_at, updated_at, deleted_at`

func scanCollection(row interface{ Scan(...any) error }) (*model.Collection, error) {
	var c model.Collection
	var comps string
	var deletedAt sql.NullTime
	if err := row.Scan(&c.ID, &c.OwnerPrincipalID, &c.Kind, &c.URI, &c.DisplayName, &c.Description, &c.Color, &c.Timezone, &comps, &c.SyncRevision, &c.CreatedAt, &c.UpdatedAt, &deletedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	c.SupportedComps = splitComps(comps)
	if deletedAt.Valid {
		c.DeletedAt = &deletedAt.Time
	}
	return &c, nil
}

func (s *Store) GetCollection(ctx context.Context, id string) (*model.Collection, error) {
	row := s.db.QueryRowContext(ctx, s.q(`SELECT `+collectionCols+` FROM collections WHERE id = ? AND deleted_at IS NULL`), id)
	return scanCollection(row)
}

func (s *Store) GetCollectionByURI(ctx context.Context, uri string) (*model.Collection, error) {
	row := s.db.QueryRowContext(ctx, s.q(`SELECT `+collectionCols+` FROM collections WHERE uri = ? AND deleted_at IS NULL`), uri)
	return scanCollection(row)
}

func (s *Store) ListCollectionsByOwner(ctx context.Context, ownerPrincipalID string) ([]*model.Collection, error) {
	rows, err := s.db.QueryContext(ctx, s.q(`SELECT `+collectionCols+` FROM collections WHERE owner_principal_id = ? AND deleted_at IS NULL ORDER BY uri`), ownerPrincipalID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*model.Collection
	for rows.Next() {
		c, err := scanCollection(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) CreateCollection(ctx context.Context, c *model.Collection) error {
	if c.ID == "" {
		c.ID = model.NewCollectionID()
	}
	now := time.Now().UTC()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = now
	_, err := s.db.ExecContext(ctx, s.q(`
		INSERT INTO collections (id, owner_principal_id, kind, uri, display_name, description, color, timezone, supported_comps, sync_revision, created_at, updated_at, deleted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, NULL)`),
		c.ID, c.OwnerPrincipalID, c.Kind, c.URI, c.DisplayName, c.Description, c.Color, c.Timezone, joinComps(c.SupportedComps), c.SyncRevision, c.CreatedAt, c.UpdatedAt)
	return err
}

func (s *Store) UpdateCollection(ctx context.Context, c *model.Collection) error {
	c.UpdatedAt = time.Now().UTC()
	_, err := s.db.ExecContext(ctx, s.q(`
		UPDATE collections SET display_name = ?, description = ?, color = ?, timezone = ?, supported_comps = ?, updated_at = ?
		WHERE id = ?`),
		c.DisplayName, c.Description, c.Color, c.Timezone, joinComps(c.SupportedComps), c.UpdatedAt, c.ID)
	return err
}

func (s *Store) DeleteCollection(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, s.q(`UPDATE collections SET deleted_at = ? WHERE id = ?`), time.Now().UTC(), id)
	return err
}
