package domain

import (
	"time"
)

// ProductType represents a product category such as "smartphones" or "laptops".
type ProductType struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	IconURL   string    `json:"icon_url"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TypeDeletePolicy controls what happens when a product type that still has
// products is deleted.
type TypeDeletePolicy string

const (
	// TypeDeleteRestrict rejects deletion of a referenced type with a conflict.
	TypeDeleteRestrict TypeDeletePolicy = "restrict"
	// TypeDeleteCascade deletes the type together with its dependent products.
	TypeDeleteCascade TypeDeletePolicy = "cascade"
)

// IsValidTypeDeletePolicy checks whether the given policy string is supported.
func IsValidTypeDeletePolicy(p string) bool {
	return p == string(TypeDeleteRestrict) || p == string(TypeDeleteCascade)
}
