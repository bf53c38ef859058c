package infrastructure

import (
	"context"
	"errors"
	"fmt"

	"pcbank/database"
	"pcbank/domain/entities"

	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"
)

// BcryptCredentialVerifier checks a credential against the stored bcrypt hash
type BcryptCredentialVerifier struct {
	db *database.DB
}

// NewBcryptCredentialVerifier creates a verifier reading hashes from accounts
func NewBcryptCredentialVerifier(db *database.DB) *BcryptCredentialVerifier {
	return &BcryptCredentialVerifier{db: db}
}

// Verify returns ErrInvalidCredential when the credential does not match
func (v *BcryptCredentialVerifier) Verify(ctx context.Context, accountID int64, credential string) error {
	var hash string
	err := v.db.QueryRow(ctx, `SELECT password_hash FROM accounts WHERE id = $1`, accountID).Scan(&hash)
	if errors.Is(err, pgx.ErrNoRows) {
		return entities.ErrInvalidCredential
	}
	if err != nil {
		return fmt.Errorf("failed to load credential of account %d: %w", accountID, err)
	}
	return CompareCredential(hash, credential)
}

// CompareCredential compares a plaintext credential with a bcrypt hash
func CompareCredential(hash, credential string) error {
	if hash == "" || credential == "" {
		return entities.ErrInvalidCredential
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(credential)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return entities.ErrInvalidCredential
		}
		return fmt.Errorf("failed to compare credential: %w", err)
	}
	return nil
}

// HashCredential hashes a credential for storage
func HashCredential(credential string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(credential), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash credential: %w", err)
	}
	return string(hash), nil
}
