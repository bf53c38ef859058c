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

type tradeRepository struct {
	q Queryable
}

// NewTradeRepository creates a trade repository on the pool
func NewTradeRepository(db *database.DB) interfaces.TradeRepository {
	return &tradeRepository{q: db.Pool}
}

func newTradeRepository(tx Queryable) interfaces.TradeRepository {
	return &tradeRepository{q: tx}
}

// Create inserts a trade and sets its ID
func (r *tradeRepository) Create(ctx context.Context, trade *entities.Trade) error {
	initiatorOffer, err := toJSON(trade.InitiatorOffer)
	if err != nil {
		return err
	}
	targetOffer, err := toJSON(trade.TargetOffer)
	if err != nil {
		return err
	}
	err = r.q.QueryRow(ctx, `
		INSERT INTO trades (initiator_id, target_id, initiator_offer, target_offer, fairness_ratio, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`,
		trade.InitiatorID, trade.TargetID, initiatorOffer, targetOffer, trade.FairnessRatio, trade.Status,
	).Scan(&trade.ID, &trade.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create trade: %w", err)
	}
	return nil
}

// GetByIDForUpdate retrieves and locks a trade
func (r *tradeRepository) GetByIDForUpdate(ctx context.Context, id int64) (*entities.Trade, error) {
	var t entities.Trade
	var initiatorOffer, targetOffer []byte
	err := r.q.QueryRow(ctx, `
		SELECT id, initiator_id, target_id, initiator_offer, target_offer, fairness_ratio, status, created_at, resolved_at
		FROM trades
		WHERE id = $1
		FOR UPDATE`, id).Scan(
		&t.ID,
		&t.InitiatorID,
		&t.TargetID,
		&initiatorOffer,
		&targetOffer,
		&t.FairnessRatio,
		&t.Status,
		&t.CreatedAt,
		&t.ResolvedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock trade %d: %w", id, err)
	}
	if err := fromJSON(initiatorOffer, &t.InitiatorOffer); err != nil {
		return nil, err
	}
	if err := fromJSON(targetOffer, &t.TargetOffer); err != nil {
		return nil, err
	}
	return &t, nil
}

// Update writes the status and resolution time
func (r *tradeRepository) Update(ctx context.Context, trade *entities.Trade) error {
	_, err := r.q.Exec(ctx, `
		UPDATE trades
		SET status = $2, resolved_at = $3
		WHERE id = $1`, trade.ID, trade.Status, trade.ResolvedAt)
	if err != nil {
		return fmt.Errorf("failed to update trade %d: %w", trade.ID, err)
	}
	return nil
}
