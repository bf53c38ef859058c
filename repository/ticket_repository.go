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

const ticketColumns = `id, code, account_id, classroom_id, item, status, validated_by, used_at, created_at`

type ticketRepository struct {
	q Queryable
}

// NewTicketRepository creates a ticket repository on the pool
func NewTicketRepository(db *database.DB) interfaces.TicketRepository {
	return &ticketRepository{q: db.Pool}
}

func newTicketRepository(tx Queryable) interfaces.TicketRepository {
	return &ticketRepository{q: tx}
}

func scanTicket(row pgx.Row) (*entities.Ticket, error) {
	var t entities.Ticket
	var item []byte
	err := row.Scan(
		&t.ID,
		&t.Code,
		&t.AccountID,
		&t.ClassroomID,
		&item,
		&t.Status,
		&t.ValidatedBy,
		&t.UsedAt,
		&t.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := fromJSON(item, &t.Item); err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *ticketRepository) getOne(ctx context.Context, query string, arg any) (*entities.Ticket, error) {
	ticket, err := scanTicket(r.q.QueryRow(ctx, query, arg))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return ticket, err
}

// Create inserts a ticket and sets its ID
func (r *ticketRepository) Create(ctx context.Context, ticket *entities.Ticket) error {
	item, err := toJSON(ticket.Item)
	if err != nil {
		return err
	}
	err = r.q.QueryRow(ctx, `
		INSERT INTO tickets (code, account_id, classroom_id, item, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`,
		ticket.Code, ticket.AccountID, ticket.ClassroomID, item, ticket.Status,
	).Scan(&ticket.ID, &ticket.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create ticket: %w", err)
	}
	return nil
}

// GetByIDForUpdate retrieves and locks a ticket
func (r *ticketRepository) GetByIDForUpdate(ctx context.Context, id int64) (*entities.Ticket, error) {
	ticket, err := r.getOne(ctx, `SELECT `+ticketColumns+` FROM tickets WHERE id = $1 FOR UPDATE`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to lock ticket %d: %w", id, err)
	}
	return ticket, nil
}

// GetByCodeForUpdate retrieves and locks a ticket by its normalized code
func (r *ticketRepository) GetByCodeForUpdate(ctx context.Context, code string) (*entities.Ticket, error) {
	ticket, err := r.getOne(ctx, `SELECT `+ticketColumns+` FROM tickets WHERE code = UPPER($1) FOR UPDATE`, code)
	if err != nil {
		return nil, fmt.Errorf("failed to lock ticket %s: %w", code, err)
	}
	return ticket, nil
}

// CodeExists reports whether any ticket already uses the code
func (r *ticketRepository) CodeExists(ctx context.Context, code string) (bool, error) {
	var exists bool
	err := r.q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM tickets WHERE code = $1)`, code).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check ticket code: %w", err)
	}
	return exists, nil
}

// Update writes the status and redemption fields
func (r *ticketRepository) Update(ctx context.Context, ticket *entities.Ticket) error {
	_, err := r.q.Exec(ctx, `
		UPDATE tickets
		SET status = $2, validated_by = $3, used_at = $4
		WHERE id = $1`, ticket.ID, ticket.Status, ticket.ValidatedBy, ticket.UsedAt)
	if err != nil {
		return fmt.Errorf("failed to update ticket %d: %w", ticket.ID, err)
	}
	return nil
}

// Delete removes a ticket
func (r *ticketRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM tickets WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete ticket %d: %w", id, err)
	}
	return nil
}
