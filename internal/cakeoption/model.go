package cakeoption

import (
	"time"

	"github.com/gofrs/uuid"
)

// Category is the storage key for a cake attribute group.
type Category string

const (
	CategorySize       Category = "size"
	CategoryCakeBase   Category = "cake_base"
	CategoryFrosting   Category = "frosting"
	CategoryFlavor     Category = "flavor"
	CategoryDecoration Category = "decoration"
)

func (c Category) String() string {
	return string(c)
}

// categoryOrder fixes the iteration order for grouping and validation output.
var categoryOrder = []Category{
	CategorySize,
	CategoryCakeBase,
	CategoryFrosting,
	CategoryFlavor,
	CategoryDecoration,
}

// requiredCategories must all be present in a valid customization.
var requiredCategories = []Category{
	CategorySize,
	CategoryCakeBase,
	CategoryFrosting,
}

// clientKeys maps the camelCase keys the frontend sends to storage categories.
// The set of categories is fixed, so this is an explicit table rather than a
// string transformation.
var clientKeys = map[string]Category{
	"size":       CategorySize,
	"cakeBase":   CategoryCakeBase,
	"frosting":   CategoryFrosting,
	"flavor":     CategoryFlavor,
	"decoration": CategoryDecoration,
}

// CategoryFromClientKey resolves a camelCase client key to a storage category.
func CategoryFromClientKey(key string) (Category, bool) {
	c, ok := clientKeys[key]
	return c, ok
}

// ValidCategory reports whether s names a known storage category.
func ValidCategory(s string) bool {
	for _, c := range categoryOrder {
		if c == Category(s) {
			return true
		}
	}
	return false
}

type CakeOption struct {
	ID           uuid.UUID `json:"id" db:"id"`
	Category     Category  `json:"category" db:"category"`
	Name         string    `json:"name" db:"name"`
	Description  string    `json:"description,omitempty" db:"description"`
	Price        float64   `json:"price" db:"price"`
	IsDefault    bool      `json:"isDefault" db:"is_default"`
	ImageURL     string    `json:"imageUrl,omitempty" db:"image_url"`
	IsActive     bool      `json:"isActive" db:"is_active"`
	DisplayOrder int       `json:"displayOrder" db:"display_order"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at"`
}

// SelectedOption is one chosen option inside a customization, as submitted by
// the client. Name and Price are checked against the catalog, never trusted.
type SelectedOption struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Price float64   `json:"price"`
}

// Customization is a full set of selections for one custom cake.
type Customization struct {
	Size                *SelectedOption `json:"size,omitempty"`
	CakeBase            *SelectedOption `json:"cakeBase,omitempty"`
	Frosting            *SelectedOption `json:"frosting,omitempty"`
	Flavor              *SelectedOption `json:"flavor,omitempty"`
	Decoration          *SelectedOption `json:"decoration,omitempty"`
	SpecialInstructions string          `json:"specialInstructions,omitempty"`
}

// selections returns the chosen options keyed by storage category, in the
// fixed category order. Nil selections are skipped.
func (c *Customization) selections() []categorySelection {
	byCategory := map[Category]*SelectedOption{
		CategorySize:       c.Size,
		CategoryCakeBase:   c.CakeBase,
		CategoryFrosting:   c.Frosting,
		CategoryFlavor:     c.Flavor,
		CategoryDecoration: c.Decoration,
	}

	out := make([]categorySelection, 0, len(categoryOrder))
	for _, cat := range categoryOrder {
		if sel := byCategory[cat]; sel != nil {
			out = append(out, categorySelection{Category: cat, Option: sel})
		}
	}
	return out
}

type categorySelection struct {
	Category Category
	Option   *SelectedOption
}

// ValidationResult aggregates business-rule violations instead of failing on
// the first one. TotalPrice sums the stored catalog prices of every selection
// that resolved, regardless of overall validity.
type ValidationResult struct {
	IsValid    bool     `json:"isValid"`
	TotalPrice float64  `json:"totalPrice"`
	Errors     []string `json:"errors"`
}
