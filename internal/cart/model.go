package cart

import (
	"time"

	"github.com/gofrs/uuid"

	"github.com/kembakery/cakeshop/internal/cakeoption"
)

// CartItem is one line in a user's cart. Price and name are the client's view
// of the catalog at add time; the order service recomputes the authoritative
// price at checkout. ID is assigned per line so custom cakes, which share one
// product id across lines, stay individually addressable.
type CartItem struct {
	ID            uuid.UUID                 `json:"id"`
	ProductID     uuid.UUID                 `json:"productId"`
	Quantity      int                       `json:"quantity"`
	Name          string                    `json:"name"`
	Price         float64                   `json:"price"`
	Img           string                    `json:"img,omitempty"`
	Customization *cakeoption.Customization `json:"customization,omitempty"`
	IsCustomCake  bool                      `json:"isCustomCake,omitempty"`
}

type Cart struct {
	UserID    uuid.UUID  `json:"userId"`
	Items     []CartItem `json:"items"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// Total sums the cart at client-trusted prices. Display only.
func (c *Cart) Total() float64 {
	total := 0.0
	for _, item := range c.Items {
		total += item.Price * float64(item.Quantity)
	}
	return total
}
