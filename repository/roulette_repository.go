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

type rouletteRepository struct {
	q Queryable
}

// NewRouletteRepository creates a roulette repository on the pool
func NewRouletteRepository(db *database.DB) interfaces.RouletteRepository {
	return &rouletteRepository{q: db.Pool}
}

func newRouletteRepository(tx Queryable) interfaces.RouletteRepository {
	return &rouletteRepository{q: tx}
}

// GetWithPrizes retrieves a roulette and its prize table in table order
func (r *rouletteRepository) GetWithPrizes(ctx context.Context, id int64) (*entities.Roulette, error) {
	var ro entities.Roulette
	err := r.q.QueryRow(ctx, `
		SELECT id, name, cost, active, starts_at, ends_at, created_at
		FROM roulettes
		WHERE id = $1`, id).Scan(
		&ro.ID,
		&ro.Name,
		&ro.Cost,
		&ro.Active,
		&ro.StartsAt,
		&ro.EndsAt,
		&ro.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get roulette %d: %w", id, err)
	}

	rows, err := r.q.Query(ctx, `
		SELECT id, roulette_id, position, name, prize_type, value, catalog_item_id, weight,
		       rarity, image, category, is_house, validity_days, available_from, available_until
		FROM roulette_prizes
		WHERE roulette_id = $1
		ORDER BY position, id`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load prizes of roulette %d: %w", id, err)
	}
	prizes, err := pgx.CollectRows(rows, pgx.RowToStructByName[entities.RoulettePrize])
	if err != nil {
		return nil, fmt.Errorf("failed to scan prizes of roulette %d: %w", id, err)
	}
	ro.Prizes = prizes
	return &ro, nil
}
