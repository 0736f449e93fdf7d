package review

import (
	"time"

	"github.com/gofrs/uuid"
)

// Review is one customer review of one purchased product. A review starts out
// pending approval (IsApproved=false) and becomes publicly visible only once
// an admin approves it while IsVisible stays true.
type Review struct {
	ID         uuid.UUID `json:"id" db:"id"`
	ProductID  uuid.UUID `json:"productId" db:"product_id"`
	UserID     uuid.UUID `json:"userId" db:"user_id"`
	OrderID    uuid.UUID `json:"orderId" db:"order_id"`
	Rating     int       `json:"rating" db:"rating"`
	Comment    string    `json:"comment,omitempty" db:"comment"`
	Images     []string  `json:"images" db:"images"`
	IsApproved bool      `json:"isApproved" db:"is_approved"`
	IsVisible  bool      `json:"isVisible" db:"is_visible"`
	CreatedAt  time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt  time.Time `json:"updatedAt" db:"updated_at"`

	// Author is filled from the user service when listing product reviews.
	// Best effort, empty when the profile lookup fails.
	Author *Author `json:"author,omitempty" db:"-"`
}

// Author is the public slice of a user profile shown next to a review.
type Author struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Avatar    string `json:"avatar,omitempty"`
}

// UserPatch carries the fields an author may change on their own review.
type UserPatch struct {
	Rating  *int      `json:"rating,omitempty"`
	Comment *string   `json:"comment,omitempty"`
	Images  *[]string `json:"images,omitempty"`
}

// AdminPatch additionally exposes the moderation flags.
type AdminPatch struct {
	Rating     *int      `json:"rating,omitempty"`
	Comment    *string   `json:"comment,omitempty"`
	Images     *[]string `json:"images,omitempty"`
	IsApproved *bool     `json:"isApproved,omitempty"`
	IsVisible  *bool     `json:"isVisible,omitempty"`
}

// ListFilter narrows the admin review listing. Nil pointer fields mean "any".
type ListFilter struct {
	Page       int
	Limit      int
	IsApproved *bool
	IsVisible  *bool
	ProductID  *uuid.UUID
	UserID     *uuid.UUID
	Rating     *int
	SortBy     string // created_at or rating
	Order      string // ASC or DESC
}

// ListResult is one page of the admin listing.
type ListResult struct {
	Items []Review `json:"items"`
	Total int      `json:"total"`
	Page  int      `json:"page"`
	Limit int      `json:"limit"`
}

// Stats aggregates approved and visible reviews for a product. Distribution
// is bucketed by integer rating 1..5 and always carries all five buckets.
type Stats struct {
	AverageRating float64     `json:"averageRating"`
	TotalReviews  int         `json:"totalReviews"`
	Distribution  map[int]int `json:"distribution"`
}
