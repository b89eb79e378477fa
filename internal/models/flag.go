package models

import "time"

type FlagCategory string

const (
	FlagCategoryWeb     FlagCategory = "web"
	FlagCategoryCrypto  FlagCategory = "crypto"
	FlagCategoryPwn     FlagCategory = "pwn"
	FlagCategoryReverse FlagCategory = "reverse"
	FlagCategoryMisc    FlagCategory = "misc"
)

// Flag is the secret resource the permission gate protects. Records are
// read-only after seeding.
type Flag struct {
	ID          string       `bson:"_id" json:"id"`
	Name        string       `bson:"name" json:"name"`
	Value       string       `bson:"value" json:"value"`
	Description string       `bson:"description" json:"description"`
	Category    FlagCategory `bson:"category" json:"category"`
	Points      int          `bson:"points" json:"points"`
	IsActive    bool         `bson:"isActive" json:"isActive"`
	CreatedAt   time.Time    `bson:"createdAt" json:"createdAt"`
}
