package order

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"

	"github.com/kembakery/cakeshop/internal/cakeoption"
)

// allowedTransitions is the order status state machine. Completed, cancelled
// and failed are terminal.
var allowedTransitions = map[Status]map[Status]bool{
	StatusPending: {
		StatusProcessing: true,
		StatusCancelled:  true,
		StatusFailed:     true,
	},
	StatusProcessing: {
		StatusCompleted: true,
		StatusCancelled: true,
		StatusFailed:    true,
	},
	StatusCompleted: {},
	StatusCancelled: {},
	StatusFailed:    {},
}

var (
	ErrEmptyOrder              = errors.New("order must contain at least one item")
	ErrInvalidItem             = errors.New("invalid order item")
	ErrMissingCustomization    = errors.New("custom cake item requires a customization")
	ErrInvalidStatusTransition = errors.New("invalid order status transition")
)

// Pricer computes the authoritative price of a cake customization. Implemented
// by the cake option service; the price a client sent with a custom cake line
// is always replaced with this result.
type Pricer interface {
	CalculatePrice(ctx context.Context, customization *cakeoption.Customization) (float64, error)
}

type Service interface {
	CreateOrder(ctx context.Context, orderInput *Order) (*Order, error)
	GetOrderByID(ctx context.Context, id uuid.UUID) (*Order, error)
	GetOrdersByUserID(ctx context.Context, userID uuid.UUID) ([]Order, error)
	UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, newStatus Status) error
	VerifyPurchase(ctx context.Context, userID, productID, orderID uuid.UUID) (bool, error)
}

type service struct {
	orderRepo Repository
	pricer    Pricer
}

func NewService(orderRepo Repository, pricer Pricer) Service {
	return &service{
		orderRepo: orderRepo,
		pricer:    pricer,
	}
}

// CreateOrder validates the lines, reprices custom cakes from the catalog and
// freezes every line into a snapshot. The total is computed here, once, and
// never recomputed later.
func (s *service) CreateOrder(ctx context.Context, orderInput *Order) (*Order, error) {
	if len(orderInput.Items) == 0 {
		return nil, ErrEmptyOrder
	}

	orderInput.ID = uuid.Nil
	totalAmount := 0.0

	for i := range orderInput.Items {
		item := &orderInput.Items[i]

		if item.ProductID == uuid.Nil {
			return nil, fmt.Errorf("%w: product id is required", ErrInvalidItem)
		}
		if item.Quantity <= 0 {
			return nil, fmt.Errorf("%w: quantity for product %s must be greater than zero", ErrInvalidItem, item.ProductID)
		}
		if item.Price < 0 {
			return nil, fmt.Errorf("%w: price for product %s cannot be negative", ErrInvalidItem, item.ProductID)
		}

		if item.IsCustomCake {
			if item.Customization == nil {
				return nil, ErrMissingCustomization
			}

			// The cart price is client-trusted; the order price is not.
			authoritative, err := s.pricer.CalculatePrice(ctx, item.Customization)
			if err != nil {
				log.Warn().Err(err).Stringer("product_id", item.ProductID).
					Msg("service: custom cake customization rejected at checkout")
				return nil, fmt.Errorf("service: invalid custom cake item: %w", err)
			}
			item.Price = authoritative
		}

		item.ID = uuid.Nil
		item.OrderID = uuid.Nil

		totalAmount += float64(item.Quantity) * item.Price
	}

	orderInput.Status = StatusPending
	orderInput.TotalAmount = totalAmount

	if _, err := s.orderRepo.CreateOrder(ctx, orderInput); err != nil {
		log.Error().Err(err).Msg("service: failed to create order in repository")
		return nil, fmt.Errorf("service: failed to create order: %w", err)
	}

	log.Info().Stringer("order_id", orderInput.ID).Stringer("user_id", orderInput.UserID).
		Float64("total", totalAmount).Msg("service: order created")

	return orderInput, nil
}

func (s *service) GetOrderByID(ctx context.Context, id uuid.UUID) (*Order, error) {
	ord, err := s.orderRepo.GetOrderByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			return nil, ErrOrderNotFound
		}

		log.Error().Err(err).Stringer("order_id", id).Msg("service: failed to fetch order by id")
		return nil, fmt.Errorf("service: failed to fetch order by id: %w", err)
	}

	return ord, nil
}

func (s *service) GetOrdersByUserID(ctx context.Context, userID uuid.UUID) ([]Order, error) {
	orders, err := s.orderRepo.GetOrdersByUserID(ctx, userID)
	if err != nil {
		log.Error().Err(err).Stringer("user_id", userID).Msg("service: failed to fetch user orders")
		return nil, fmt.Errorf("service: failed to fetch user orders: %w", err)
	}

	return orders, nil
}

func (s *service) UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, newStatus Status) error {
	currentOrder, err := s.orderRepo.GetOrderByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			return ErrOrderNotFound
		}
		return fmt.Errorf("service: failed to get order for status update: %w", err)
	}

	if currentOrder.Status == newStatus {
		log.Info().Stringer("order_id", orderID).Stringer("status", newStatus).
			Msg("service: order status already set, no update needed")
		return nil
	}

	if !allowedTransitions[currentOrder.Status][newStatus] {
		log.Warn().
			Stringer("order_id", currentOrder.ID).
			Stringer("current_status", currentOrder.Status).
			Stringer("new_status", newStatus).
			Msg("service: invalid status transition attempt")
		return fmt.Errorf("%w: from %s to %s", ErrInvalidStatusTransition, currentOrder.Status, newStatus)
	}

	if err := s.orderRepo.UpdateOrderStatus(ctx, orderID, newStatus); err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			return ErrOrderNotFound
		}
		log.Error().Err(err).Stringer("order_id", orderID).Stringer("new_status", newStatus).
			Msg("service: failed to update order status")
		return fmt.Errorf("service: failed to update order status: %w", err)
	}

	log.Info().Stringer("order_id", orderID).Stringer("old_status", currentOrder.Status).
		Stringer("new_status", newStatus).Msg("service: order status updated")
	return nil
}

// VerifyPurchase answers the review service's eligibility check: the order
// must exist, belong to the user, be completed and contain the product. A
// missing order is simply "not purchased", not an error.
func (s *service) VerifyPurchase(ctx context.Context, userID, productID, orderID uuid.UUID) (bool, error) {
	ord, err := s.orderRepo.GetOrderByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("service: failed to verify purchase: %w", err)
	}

	if ord.UserID != userID || ord.Status != StatusCompleted {
		return false, nil
	}

	contains, err := s.orderRepo.ContainsProduct(ctx, orderID, productID)
	if err != nil {
		return false, fmt.Errorf("service: failed to verify purchase: %w", err)
	}

	return contains, nil
}
