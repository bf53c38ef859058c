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

type giftRepository struct {
	q Queryable
}

// NewGiftRepository creates a gift repository on the pool
func NewGiftRepository(db *database.DB) interfaces.GiftRepository {
	return &giftRepository{q: db.Pool}
}

func newGiftRepository(tx Queryable) interfaces.GiftRepository {
	return &giftRepository{q: tx}
}

// Create inserts a gift and sets its ID
func (r *giftRepository) Create(ctx context.Context, gift *entities.Gift) error {
	var item []byte
	if gift.Item != nil {
		var err error
		if item, err = toJSON(gift.Item); err != nil {
			return err
		}
	}
	err := r.q.QueryRow(ctx, `
		INSERT INTO gifts (recipient_id, granted_by, amount, item, is_house, message, status, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at`,
		gift.RecipientID, gift.GrantedBy, gift.Amount, item, gift.IsHouse, gift.Message, gift.Status, gift.ExpiresAt,
	).Scan(&gift.ID, &gift.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create gift: %w", err)
	}
	return nil
}

// GetByIDForUpdate retrieves and locks a gift
func (r *giftRepository) GetByIDForUpdate(ctx context.Context, id int64) (*entities.Gift, error) {
	var g entities.Gift
	var item []byte
	err := r.q.QueryRow(ctx, `
		SELECT id, recipient_id, granted_by, amount, item, is_house, message, status, expires_at, claimed_at, created_at
		FROM gifts
		WHERE id = $1
		FOR UPDATE`, id).Scan(
		&g.ID,
		&g.RecipientID,
		&g.GrantedBy,
		&g.Amount,
		&item,
		&g.IsHouse,
		&g.Message,
		&g.Status,
		&g.ExpiresAt,
		&g.ClaimedAt,
		&g.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock gift %d: %w", id, err)
	}
	if len(item) > 0 {
		var snap entities.ItemSnapshot
		if err := fromJSON(item, &snap); err != nil {
			return nil, err
		}
		g.Item = &snap
	}
	return &g, nil
}

// Update writes the status and claim time
func (r *giftRepository) Update(ctx context.Context, gift *entities.Gift) error {
	_, err := r.q.Exec(ctx, `
		UPDATE gifts
		SET status = $2, claimed_at = $3
		WHERE id = $1`, gift.ID, gift.Status, gift.ClaimedAt)
	if err != nil {
		return fmt.Errorf("failed to update gift %d: %w", gift.ID, err)
	}
	return nil
}
