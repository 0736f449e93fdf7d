package order

import (
	"time"

	"github.com/gofrs/uuid"

	"github.com/kembakery/cakeshop/internal/cakeoption"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
	StatusFailed     Status = "failed"
)

func (s Status) String() string {
	return string(s)
}

// ValidStatus reports whether s is one of the known order statuses.
func ValidStatus(s string) bool {
	switch Status(s) {
	case StatusPending, StatusProcessing, StatusCompleted, StatusCancelled, StatusFailed:
		return true
	}
	return false
}

// DeliveryTimeSlot is one of the fixed delivery windows the shop offers.
type DeliveryTimeSlot string

const (
	SlotMorning     DeliveryTimeSlot = "08:00–10:00"
	SlotLateMorning DeliveryTimeSlot = "10:00–12:00"
	SlotAfternoon   DeliveryTimeSlot = "13:00–15:00"
	SlotEvening     DeliveryTimeSlot = "16:00–18:00"
)

// ValidTimeSlot reports whether s is one of the fixed delivery windows.
func ValidTimeSlot(s string) bool {
	switch DeliveryTimeSlot(s) {
	case SlotMorning, SlotLateMorning, SlotAfternoon, SlotEvening:
		return true
	}
	return false
}

// OrderItem is a frozen snapshot of one line at purchase time. Price, name,
// image and customization are copied when the order is created and never
// re-derived from the live catalog.
type OrderItem struct {
	ID            uuid.UUID                 `json:"id" db:"id"`
	OrderID       uuid.UUID                 `json:"orderId" db:"order_id"`
	ProductID     uuid.UUID                 `json:"productId" db:"product_id"`
	Quantity      int                       `json:"quantity" db:"quantity"`
	Price         float64                   `json:"price" db:"price"`
	ProductName   string                    `json:"productName" db:"product_name"`
	ProductImg    string                    `json:"productImg,omitempty" db:"product_img"`
	Customization *cakeoption.Customization `json:"customization,omitempty" db:"customization"`
	IsCustomCake  bool                      `json:"isCustomCake" db:"is_custom_cake"`
	CreatedAt     time.Time                 `json:"createdAt" db:"created_at"`
}

type Order struct {
	ID               uuid.UUID        `json:"id" db:"id"`
	UserID           uuid.UUID        `json:"userId" db:"user_id"`
	Status           Status           `json:"status" db:"status"`
	TotalAmount      float64          `json:"totalAmount" db:"total_amount"`
	Items            []OrderItem      `json:"items" db:"-"`
	ShippingAddress  string           `json:"shippingAddress" db:"shipping_address"`
	Phone            string           `json:"phone,omitempty" db:"phone"`
	DeliveryDate     *time.Time       `json:"deliveryDate,omitempty" db:"delivery_date"`
	DeliveryTimeSlot DeliveryTimeSlot `json:"deliveryTimeSlot,omitempty" db:"delivery_time_slot"`
	DeliveryNotes    string           `json:"deliveryNotes,omitempty" db:"delivery_notes"`
	CreatedAt        time.Time        `json:"createdAt" db:"created_at"`
	UpdatedAt        time.Time        `json:"updatedAt" db:"updated_at"`
}
