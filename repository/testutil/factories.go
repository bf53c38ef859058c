package testutil

import (
	"context"
	"testing"
	"time"

	"pcbank/database"
	"pcbank/domain/entities"

	"github.com/stretchr/testify/require"
)

// CreateTestAccount creates a student account with default values
func CreateTestAccount(externalID, turma string, balance int64) *entities.Account {
	return &entities.Account{
		ExternalID:  externalID,
		DisplayName: externalID,
		Balance:     balance,
		MaxBalance:  balance,
		Role:        entities.RoleStudent,
		Turma:       turma,
	}
}

// CreateTestCatalogItem creates an active personal consumable
func CreateTestCatalogItem(name string, price int64, stock int) *entities.CatalogItem {
	return &entities.CatalogItem{
		Name:     name,
		Rarity:   entities.RarityCommon,
		Category: entities.CategoryConsumable,
		Price:    price,
		Stock:    stock,
		Active:   true,
	}
}

// CreateTestSlot creates one personal consumable unit
func CreateTestSlot(accountID int64, name string, quantity int) *entities.InventorySlot {
	return &entities.InventorySlot{
		Owner:      entities.PersonalContainerRef(accountID),
		Name:       name,
		Rarity:     entities.RarityCommon,
		Category:   entities.CategoryConsumable,
		Quantity:   quantity,
		Origin:     entities.OriginPurchase,
		AcquiredAt: time.Now().UTC().Truncate(time.Microsecond),
	}
}

// InsertCatalogItem stores a catalog item and sets its ID. The engine never
// writes catalog rows outside stock updates, so tests seed them directly.
func InsertCatalogItem(t *testing.T, db *database.DB, item *entities.CatalogItem) {
	t.Helper()
	err := db.QueryRow(context.Background(), `
		INSERT INTO catalog_items (name, description, image, rarity, category, effect, price, stock,
		                           active, is_house, validity_days, uses, buff_hours)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id, created_at, updated_at`,
		item.Name, item.Description, item.Image, item.Rarity, item.Category, item.Effect, item.Price, item.Stock,
		item.Active, item.IsHouse, item.ValidityDays, item.Uses, item.BuffHours,
	).Scan(&item.ID, &item.CreatedAt, &item.UpdatedAt)
	require.NoError(t, err)
}

// InsertClassroom stores a classroom and returns its ID
func InsertClassroom(t *testing.T, db *database.DB, name string) int64 {
	t.Helper()
	var id int64
	err := db.QueryRow(context.Background(),
		`INSERT INTO classrooms (name) VALUES ($1) RETURNING id`, name).Scan(&id)
	require.NoError(t, err)
	return id
}

// InsertRoulette stores a roulette with its prize table
func InsertRoulette(t *testing.T, db *database.DB, roulette *entities.Roulette) {
	t.Helper()
	ctx := context.Background()
	err := db.QueryRow(ctx, `
		INSERT INTO roulettes (name, cost, active, starts_at, ends_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`,
		roulette.Name, roulette.Cost, roulette.Active, roulette.StartsAt, roulette.EndsAt,
	).Scan(&roulette.ID, &roulette.CreatedAt)
	require.NoError(t, err)

	for i := range roulette.Prizes {
		p := &roulette.Prizes[i]
		p.RouletteID = roulette.ID
		p.Position = i
		err := db.QueryRow(ctx, `
			INSERT INTO roulette_prizes (roulette_id, position, name, prize_type, value, catalog_item_id,
			                             weight, rarity, image, category, is_house, validity_days)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
			RETURNING id`,
			p.RouletteID, p.Position, p.Name, p.Type, p.Value, p.CatalogItemID,
			p.Weight, p.Rarity, p.Image, p.Category, p.IsHouse, p.ValidityDays,
		).Scan(&p.ID)
		require.NoError(t, err)
	}
}
