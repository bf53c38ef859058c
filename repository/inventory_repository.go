package repository

import (
	"context"
	"fmt"
	"time"

	"pcbank/database"
	"pcbank/domain/entities"
	"pcbank/domain/interfaces"

	"github.com/jackc/pgx/v5"
)

const slotColumns = `
	id, owner_kind, owner_id, catalog_item_id, name, description, image, rarity,
	category, effect, quantity, uses_remaining, origin, acquired_at, expires_at, acquired_by`

type inventoryRepository struct {
	q Queryable
}

// NewInventoryRepository creates an inventory repository on the pool
func NewInventoryRepository(db *database.DB) interfaces.InventoryRepository {
	return &inventoryRepository{q: db.Pool}
}

func newInventoryRepository(tx Queryable) interfaces.InventoryRepository {
	return &inventoryRepository{q: tx}
}

func scanSlot(row pgx.Row) (*entities.InventorySlot, error) {
	var s entities.InventorySlot
	var quantity, uses *int
	err := row.Scan(
		&s.ID,
		&s.Owner.Kind,
		&s.Owner.ID,
		&s.CatalogItemID,
		&s.Name,
		&s.Description,
		&s.Image,
		&s.Rarity,
		&s.Category,
		&s.Effect,
		&quantity,
		&uses,
		&s.Origin,
		&s.AcquiredAt,
		&s.ExpiresAt,
		&s.AcquiredBy,
	)
	if err != nil {
		return nil, err
	}
	if quantity != nil {
		s.Quantity = *quantity
	}
	if uses != nil {
		s.UsesRemaining = *uses
	}
	return &s, nil
}

// counts maps the slot's count onto the column its category uses
func counts(slot *entities.InventorySlot) (quantity, uses *int) {
	if slot.Category.UsesCharges() {
		u := slot.UsesRemaining
		return nil, &u
	}
	q := slot.Quantity
	return &q, nil
}

// ListByOwnerForUpdate locks and returns every slot of a container in id order
func (r *inventoryRepository) ListByOwnerForUpdate(ctx context.Context, owner entities.ContainerRef) ([]*entities.InventorySlot, error) {
	rows, err := r.q.Query(ctx, `
		SELECT `+slotColumns+`
		FROM inventory_slots
		WHERE owner_kind = $1 AND owner_id = $2
		ORDER BY id
		FOR UPDATE`, owner.Kind, owner.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock slots of %s %d: %w", owner.Kind, owner.ID, err)
	}
	defer rows.Close()

	var slots []*entities.InventorySlot
	for rows.Next() {
		s, err := scanSlot(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan slot: %w", err)
		}
		slots = append(slots, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate slots: %w", err)
	}
	return slots, nil
}

// Create inserts a slot and sets its ID
func (r *inventoryRepository) Create(ctx context.Context, slot *entities.InventorySlot) error {
	quantity, uses := counts(slot)
	query := `
		INSERT INTO inventory_slots (
			owner_kind, owner_id, catalog_item_id, name, description, image, rarity,
			category, effect, quantity, uses_remaining, origin, acquired_at, expires_at, acquired_by
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING id`

	err := r.q.QueryRow(ctx, query,
		slot.Owner.Kind,
		slot.Owner.ID,
		slot.CatalogItemID,
		slot.Name,
		slot.Description,
		slot.Image,
		slot.Rarity,
		slot.Category,
		slot.Effect,
		quantity,
		uses,
		slot.Origin,
		slot.AcquiredAt,
		slot.ExpiresAt,
		slot.AcquiredBy,
	).Scan(&slot.ID)
	if err != nil {
		return fmt.Errorf("failed to create slot in %s %d: %w", slot.Owner.Kind, slot.Owner.ID, err)
	}
	return nil
}

// UpdateCounts writes the quantity or uses of a slot
func (r *inventoryRepository) UpdateCounts(ctx context.Context, slot *entities.InventorySlot) error {
	quantity, uses := counts(slot)
	tag, err := r.q.Exec(ctx, `
		UPDATE inventory_slots
		SET quantity = $2, uses_remaining = $3
		WHERE id = $1`, slot.ID, quantity, uses)
	if err != nil {
		return fmt.Errorf("failed to update slot %d: %w", slot.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("slot %d not found", slot.ID)
	}
	return nil
}

// Delete removes a slot
func (r *inventoryRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM inventory_slots WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete slot %d: %w", id, err)
	}
	return nil
}

// DeleteExpiredBefore purges slots that expired before cutoff
func (r *inventoryRepository) DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.q.Exec(ctx, `
		DELETE FROM inventory_slots
		WHERE expires_at IS NOT NULL AND expires_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired slots: %w", err)
	}
	return tag.RowsAffected(), nil
}
