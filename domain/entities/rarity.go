package entities

// Rarity is the display tier of an item or prize
type Rarity string

const (
	RarityCommon    Rarity = "common"
	RarityUncommon  Rarity = "uncommon"
	RarityRare      Rarity = "rare"
	RarityEpic      Rarity = "epic"
	RarityLegendary Rarity = "legendary"
	RarityMythic    Rarity = "mythic"
)

// TieBreakWeight ranks rarities when picking the best of several roulette rolls
func (r Rarity) TieBreakWeight() int64 {
	switch r {
	case RarityLegendary, RarityMythic:
		return 5
	case RarityEpic:
		return 4
	default:
		return 1
	}
}
