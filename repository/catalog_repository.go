package repository

import (
	"context"
	"errors"
	"fmt"

	"pcbank/database"
	"pcbank/domain/entities"
	"pcbank/domain/interfaces"

	"github.com/jackc/pgx/v5"
)

const catalogColumns = `
	id, name, description, image, rarity, category, effect, price, stock, active,
	is_house, validity_days, uses, buff_hours, created_at, updated_at`

type catalogRepository struct {
	q Queryable
}

// NewCatalogRepository creates a catalog repository on the pool
func NewCatalogRepository(db *database.DB) interfaces.CatalogRepository {
	return &catalogRepository{q: db.Pool}
}

func newCatalogRepository(tx Queryable) interfaces.CatalogRepository {
	return &catalogRepository{q: tx}
}

func (r *catalogRepository) getOne(ctx context.Context, query string, arg any) (*entities.CatalogItem, error) {
	rows, err := r.q.Query(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	item, err := pgx.CollectOneRow(rows, pgx.RowToAddrOfStructByName[entities.CatalogItem])
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return item, nil
}

// GetByID retrieves a catalog item
func (r *catalogRepository) GetByID(ctx context.Context, id int64) (*entities.CatalogItem, error) {
	item, err := r.getOne(ctx, `SELECT `+catalogColumns+` FROM catalog_items WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get catalog item %d: %w", id, err)
	}
	return item, nil
}

// GetByIDForUpdate retrieves and locks a catalog item
func (r *catalogRepository) GetByIDForUpdate(ctx context.Context, id int64) (*entities.CatalogItem, error) {
	item, err := r.getOne(ctx, `SELECT `+catalogColumns+` FROM catalog_items WHERE id = $1 FOR UPDATE`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to lock catalog item %d: %w", id, err)
	}
	return item, nil
}

// GetByName retrieves the oldest catalog item with a case-insensitive name match
func (r *catalogRepository) GetByName(ctx context.Context, name string) (*entities.CatalogItem, error) {
	item, err := r.getOne(ctx, `
		SELECT `+catalogColumns+`
		FROM catalog_items
		WHERE LOWER(name) = LOWER($1)
		ORDER BY id
		LIMIT 1`, name)
	if err != nil {
		return nil, fmt.Errorf("failed to get catalog item %q: %w", name, err)
	}
	return item, nil
}

// UpdateStock writes the remaining stock
func (r *catalogRepository) UpdateStock(ctx context.Context, id int64, stock int) error {
	_, err := r.q.Exec(ctx, `
		UPDATE catalog_items
		SET stock = $2, updated_at = NOW()
		WHERE id = $1`, id, stock)
	if err != nil {
		return fmt.Errorf("failed to update stock of catalog item %d: %w", id, err)
	}
	return nil
}

// GetLegacyByName retrieves an entry of the legacy catalog
func (r *catalogRepository) GetLegacyByName(ctx context.Context, name string) (*entities.LegacyCatalogItem, error) {
	var item entities.LegacyCatalogItem
	err := r.q.QueryRow(ctx, `
		SELECT id, name, price
		FROM legacy_catalog_items
		WHERE LOWER(name) = LOWER($1)`, name).Scan(&item.ID, &item.Name, &item.Price)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get legacy catalog item %q: %w", name, err)
	}
	return &item, nil
}
