package repository

import (
	"context"
	"fmt"

	"pcbank/database"
	"pcbank/domain/entities"
	"pcbank/domain/interfaces"
)

type statsRepository struct {
	q Queryable
}

// NewStatsRepository creates a public stats repository on the pool
func NewStatsRepository(db *database.DB) interfaces.StatsRepository {
	return &statsRepository{q: db.Pool}
}

// GetPublicStats computes the public aggregates in one round trip
func (r *statsRepository) GetPublicStats(ctx context.Context) (*entities.PublicStats, error) {
	var s entities.PublicStats
	err := r.q.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM accounts WHERE role IN ('student', 'monitor') AND NOT blocked),
			(SELECT COALESCE(SUM(balance), 0) FROM accounts),
			(SELECT COUNT(*) FROM market_listings WHERE status = 'ACTIVE'),
			(SELECT COUNT(*) FROM classrooms),
			NOW()`).Scan(
		&s.PlayerCount,
		&s.CirculatingCurrency,
		&s.ActiveListings,
		&s.ClassroomCount,
		&s.GeneratedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to compute public stats: %w", err)
	}
	return &s, nil
}
