package model

import "time"

// BadgeRarity orders badges from everyday to once-in-a-community.
type BadgeRarity string

const (
	RarityCommon    BadgeRarity = "COMMON"
	RarityUncommon  BadgeRarity = "UNCOMMON"
	RarityRare      BadgeRarity = "RARE"
	RarityEpic      BadgeRarity = "EPIC"
	RarityLegendary BadgeRarity = "LEGENDARY"
)

// Valid reports whether the rarity is one of the five known tiers.
func (r BadgeRarity) Valid() bool {
	switch r {
	case RarityCommon, RarityUncommon, RarityRare, RarityEpic, RarityLegendary:
		return true
	}
	return false
}

// Badge is an achievement marker users can earn.
type Badge struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description,omitempty"`
	Icon        string      `json:"icon,omitempty"`
	Color       string      `json:"color,omitempty"`
	Rarity      BadgeRarity `json:"rarity"`
}

// EarnedBadge is a badge plus the moment a particular user earned it.
// A user holds any given badge at most once.
type EarnedBadge struct {
	Badge
	EarnedAt time.Time `json:"earnedAt"`
}
