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

const accountColumns = `
	id, external_id, display_name, balance, max_balance, role, turma, cargos,
	blocked, received_this_year, received_year, created_at, updated_at`

type accountRepository struct {
	q Queryable
}

// NewAccountRepository creates an account repository on the pool
func NewAccountRepository(db *database.DB) interfaces.AccountRepository {
	return &accountRepository{q: db.Pool}
}

func newAccountRepository(tx Queryable) interfaces.AccountRepository {
	return &accountRepository{q: tx}
}

func scanAccount(row pgx.Row) (*entities.Account, error) {
	var a entities.Account
	err := row.Scan(
		&a.ID,
		&a.ExternalID,
		&a.DisplayName,
		&a.Balance,
		&a.MaxBalance,
		&a.Role,
		&a.Turma,
		&a.Cargos,
		&a.Blocked,
		&a.ReceivedThisYear,
		&a.ReceivedYear,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *accountRepository) getOne(ctx context.Context, query string, arg any) (*entities.Account, error) {
	account, err := scanAccount(r.q.QueryRow(ctx, query, arg))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := r.loadBuffs(ctx, account); err != nil {
		return nil, err
	}
	return account, nil
}

func (r *accountRepository) loadBuffs(ctx context.Context, account *entities.Account) error {
	rows, err := r.q.Query(ctx, `
		SELECT effect, expires_at
		FROM account_buffs
		WHERE account_id = $1
		ORDER BY effect`, account.ID)
	if err != nil {
		return fmt.Errorf("failed to load buffs of account %d: %w", account.ID, err)
	}
	buffs, err := pgx.CollectRows(rows, pgx.RowToStructByName[entities.Buff])
	if err != nil {
		return fmt.Errorf("failed to scan buffs of account %d: %w", account.ID, err)
	}
	account.Buffs = buffs
	return nil
}

// GetByID retrieves an account with its buffs
func (r *accountRepository) GetByID(ctx context.Context, id int64) (*entities.Account, error) {
	account, err := r.getOne(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get account %d: %w", id, err)
	}
	return account, nil
}

// GetByIDForUpdate retrieves and locks an account
func (r *accountRepository) GetByIDForUpdate(ctx context.Context, id int64) (*entities.Account, error) {
	account, err := r.getOne(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1 FOR UPDATE`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to lock account %d: %w", id, err)
	}
	return account, nil
}

// GetByExternalID retrieves an account by login handle without locking it
func (r *accountRepository) GetByExternalID(ctx context.Context, externalID string) (*entities.Account, error) {
	account, err := r.getOne(ctx, `SELECT `+accountColumns+` FROM accounts WHERE external_id = $1`, externalID)
	if err != nil {
		return nil, fmt.Errorf("failed to get account %q: %w", externalID, err)
	}
	return account, nil
}

// ListByTurmaForUpdate locks every account whose turma folds to the same
// classroom key as turma, in ascending id order
func (r *accountRepository) ListByTurmaForUpdate(ctx context.Context, turma string) ([]*entities.Account, error) {
	labels, err := r.turmaLabels(ctx, entities.NormalizeClassroomName(turma))
	if err != nil {
		return nil, err
	}
	if len(labels) == 0 {
		return nil, nil
	}

	rows, err := r.q.Query(ctx, `
		SELECT `+accountColumns+`
		FROM accounts
		WHERE turma = ANY($1)
		ORDER BY id
		FOR UPDATE`, labels)
	if err != nil {
		return nil, fmt.Errorf("failed to lock accounts of turma %q: %w", turma, err)
	}
	defer rows.Close()

	var accounts []*entities.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate accounts: %w", err)
	}
	return accounts, nil
}

// turmaLabels returns the stored turma spellings that fold to key
func (r *accountRepository) turmaLabels(ctx context.Context, key string) ([]string, error) {
	if key == "" {
		return nil, nil
	}
	rows, err := r.q.Query(ctx, `SELECT DISTINCT turma FROM accounts WHERE turma <> ''`)
	if err != nil {
		return nil, fmt.Errorf("failed to list turmas: %w", err)
	}
	defer rows.Close()

	var labels []string
	for rows.Next() {
		var label string
		if err := rows.Scan(&label); err != nil {
			return nil, fmt.Errorf("failed to scan turma: %w", err)
		}
		if entities.NormalizeClassroomName(label) == key {
			labels = append(labels, label)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate turmas: %w", err)
	}
	return labels, nil
}

// Create inserts a new account and sets its ID
func (r *accountRepository) Create(ctx context.Context, account *entities.Account) error {
	if account.Cargos == nil {
		account.Cargos = []string{}
	}
	query := `
		INSERT INTO accounts (external_id, display_name, balance, max_balance, role, turma, cargos, blocked)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at`

	err := r.q.QueryRow(ctx, query,
		account.ExternalID,
		account.DisplayName,
		account.Balance,
		account.MaxBalance,
		account.Role,
		account.Turma,
		account.Cargos,
		account.Blocked,
	).Scan(&account.ID, &account.CreatedAt, &account.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create account %q: %w", account.ExternalID, err)
	}
	return nil
}

// UpdateBalance writes the balance and lifetime maximum
func (r *accountRepository) UpdateBalance(ctx context.Context, id int64, balance, maxBalance int64) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE accounts
		SET balance = $2, max_balance = $3, updated_at = NOW()
		WHERE id = $1`, id, balance, maxBalance)
	if database.IsCheckViolation(err, "accounts_balance_non_negative") {
		return entities.Detailed(entities.ErrInsufficientFunds, "balance of account %d cannot go below zero", id)
	}
	if err != nil {
		return fmt.Errorf("failed to update balance of account %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("account %d not found", id)
	}
	return nil
}

// UpdateInflow writes the annual inflow counter
func (r *accountRepository) UpdateInflow(ctx context.Context, id int64, receivedThisYear int64, year int) error {
	_, err := r.q.Exec(ctx, `
		UPDATE accounts
		SET received_this_year = $2, received_year = $3, updated_at = NOW()
		WHERE id = $1`, id, receivedThisYear, year)
	if err != nil {
		return fmt.Errorf("failed to update inflow of account %d: %w", id, err)
	}
	return nil
}

// UpsertBuff installs a buff, replacing any buff with the same effect
func (r *accountRepository) UpsertBuff(ctx context.Context, accountID int64, buff entities.Buff) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO account_buffs (account_id, effect, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (account_id, effect) DO UPDATE SET expires_at = EXCLUDED.expires_at`,
		accountID, buff.Effect, buff.ExpiresAt)
	if err != nil {
		return fmt.Errorf("failed to install buff %s on account %d: %w", buff.Effect, accountID, err)
	}
	return nil
}
