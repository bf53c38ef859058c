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

type marketListingRepository struct {
	q Queryable
}

// NewMarketListingRepository creates a listing repository on the pool
func NewMarketListingRepository(db *database.DB) interfaces.MarketListingRepository {
	return &marketListingRepository{q: db.Pool}
}

func newMarketListingRepository(tx Queryable) interfaces.MarketListingRepository {
	return &marketListingRepository{q: tx}
}

// Create inserts a listing and sets its ID
func (r *marketListingRepository) Create(ctx context.Context, listing *entities.MarketListing) error {
	item, err := toJSON(listing.Item)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO market_listings (seller_id, item, classroom_id, is_house, price, base_price, is_overpriced, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at`

	err = r.q.QueryRow(ctx, query,
		listing.SellerID,
		item,
		listing.ClassroomID,
		listing.IsHouse,
		listing.Price,
		listing.BasePrice,
		listing.IsOverpriced,
		listing.Status,
	).Scan(&listing.ID, &listing.CreatedAt, &listing.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create listing: %w", err)
	}
	return nil
}

// GetByIDForUpdate retrieves and locks a listing
func (r *marketListingRepository) GetByIDForUpdate(ctx context.Context, id int64) (*entities.MarketListing, error) {
	var l entities.MarketListing
	var item []byte
	err := r.q.QueryRow(ctx, `
		SELECT id, seller_id, item, classroom_id, is_house, price, base_price, is_overpriced,
		       status, buyer_id, sold_at, tax_collected, created_at, updated_at
		FROM market_listings
		WHERE id = $1
		FOR UPDATE`, id).Scan(
		&l.ID,
		&l.SellerID,
		&item,
		&l.ClassroomID,
		&l.IsHouse,
		&l.Price,
		&l.BasePrice,
		&l.IsOverpriced,
		&l.Status,
		&l.BuyerID,
		&l.SoldAt,
		&l.TaxCollected,
		&l.CreatedAt,
		&l.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock listing %d: %w", id, err)
	}
	if err := fromJSON(item, &l.Item); err != nil {
		return nil, err
	}
	return &l, nil
}

// Update writes the status and sale fields
func (r *marketListingRepository) Update(ctx context.Context, listing *entities.MarketListing) error {
	err := r.q.QueryRow(ctx, `
		UPDATE market_listings
		SET status = $2, buyer_id = $3, sold_at = $4, tax_collected = $5, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`,
		listing.ID, listing.Status, listing.BuyerID, listing.SoldAt, listing.TaxCollected,
	).Scan(&listing.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update listing %d: %w", listing.ID, err)
	}
	return nil
}
