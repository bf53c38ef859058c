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

type classroomRepository struct {
	q Queryable
}

// NewClassroomRepository creates a classroom repository on the pool
func NewClassroomRepository(db *database.DB) interfaces.ClassroomRepository {
	return &classroomRepository{q: db.Pool}
}

func newClassroomRepository(tx Queryable) interfaces.ClassroomRepository {
	return &classroomRepository{q: tx}
}

// GetByIDForUpdate retrieves and locks a classroom
func (r *classroomRepository) GetByIDForUpdate(ctx context.Context, id int64) (*entities.Classroom, error) {
	var c entities.Classroom
	err := r.q.QueryRow(ctx, `
		SELECT id, name, score, created_at, updated_at
		FROM classrooms
		WHERE id = $1
		FOR UPDATE`, id).Scan(&c.ID, &c.Name, &c.Score, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock classroom %d: %w", id, err)
	}
	return &c, nil
}

// List returns every classroom ordered by id
func (r *classroomRepository) List(ctx context.Context) ([]*entities.Classroom, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id, name, score, created_at, updated_at
		FROM classrooms
		ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list classrooms: %w", err)
	}
	classrooms, err := pgx.CollectRows(rows, pgx.RowToAddrOfStructByName[entities.Classroom])
	if err != nil {
		return nil, fmt.Errorf("failed to scan classrooms: %w", err)
	}
	return classrooms, nil
}
