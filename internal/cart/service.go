package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
)

var (
	ErrItemNotFound          = errors.New("cart item not found")
	ErrInvalidQuantity       = errors.New("quantity must be at least 1")
	ErrCustomizationRequired = errors.New("custom cake requires a customization")
)

type Service interface {
	Get(ctx context.Context, userID uuid.UUID) (*Cart, error)
	AddItem(ctx context.Context, userID uuid.UUID, item CartItem) (*Cart, error)
	// UpdateQuantity and RemoveItem take the line id or, for regular
	// products, the product id.
	UpdateQuantity(ctx context.Context, userID, key uuid.UUID, quantity int) (*Cart, error)
	RemoveItem(ctx context.Context, userID, key uuid.UUID) (*Cart, error)
	Clear(ctx context.Context, userID uuid.UUID) error
}

type service struct {
	store Store

	// customCakeProductID is the catalog product representing a
	// build-your-own cake; lines with it must carry a customization.
	customCakeProductID uuid.UUID
}

func NewService(store Store, customCakeProductID uuid.UUID) Service {
	return &service{
		store:               store,
		customCakeProductID: customCakeProductID,
	}
}

func (s *service) Get(ctx context.Context, userID uuid.UUID) (*Cart, error) {
	cart, err := s.store.Get(ctx, userID)
	if err != nil {
		log.Error().Err(err).Stringer("user_id", userID).Msg("service: failed to load cart")
		return nil, fmt.Errorf("service: failed to load cart: %w", err)
	}

	return cart, nil
}

// AddItem appends a line to the cart. The same regular product merges into one
// line; custom cakes are always separate lines because each carries its own
// customization.
func (s *service) AddItem(ctx context.Context, userID uuid.UUID, item CartItem) (*Cart, error) {
	if item.Quantity < 1 {
		return nil, ErrInvalidQuantity
	}

	if item.ProductID == s.customCakeProductID {
		item.IsCustomCake = true
	}
	if item.IsCustomCake && item.Customization == nil {
		return nil, ErrCustomizationRequired
	}

	cart, err := s.store.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service: failed to load cart: %w", err)
	}

	merged := false
	if !item.IsCustomCake {
		for i := range cart.Items {
			if cart.Items[i].ProductID == item.ProductID && !cart.Items[i].IsCustomCake {
				cart.Items[i].Quantity += item.Quantity
				merged = true
				break
			}
		}
	}
	if !merged {
		lineID, err := uuid.NewV4()
		if err != nil {
			return nil, fmt.Errorf("service: failed to generate cart line ID: %w", err)
		}
		item.ID = lineID
		cart.Items = append(cart.Items, item)
	}

	if err := s.store.Save(ctx, cart); err != nil {
		log.Error().Err(err).Stringer("user_id", userID).Msg("service: failed to save cart")
		return nil, fmt.Errorf("service: failed to save cart: %w", err)
	}

	log.Info().Stringer("user_id", userID).Stringer("product_id", item.ProductID).
		Bool("custom_cake", item.IsCustomCake).Msg("service: item added to cart")

	return cart, nil
}

// matchesLine resolves the key a client addresses a line with: the line id
// always matches; the product id matches regular lines only, since custom
// cakes share one product id across separate lines.
func matchesLine(item *CartItem, key uuid.UUID) bool {
	if item.ID == key {
		return true
	}
	return item.ProductID == key && !item.IsCustomCake
}

func (s *service) UpdateQuantity(ctx context.Context, userID, key uuid.UUID, quantity int) (*Cart, error) {
	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}

	cart, err := s.store.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service: failed to load cart: %w", err)
	}

	found := false
	for i := range cart.Items {
		if matchesLine(&cart.Items[i], key) {
			cart.Items[i].Quantity = quantity
			found = true
			break
		}
	}
	if !found {
		return nil, ErrItemNotFound
	}

	if err := s.store.Save(ctx, cart); err != nil {
		log.Error().Err(err).Stringer("user_id", userID).Msg("service: failed to save cart")
		return nil, fmt.Errorf("service: failed to save cart: %w", err)
	}

	return cart, nil
}

func (s *service) RemoveItem(ctx context.Context, userID, key uuid.UUID) (*Cart, error) {
	cart, err := s.store.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service: failed to load cart: %w", err)
	}

	found := false
	for i := range cart.Items {
		if matchesLine(&cart.Items[i], key) {
			cart.Items = append(cart.Items[:i], cart.Items[i+1:]...)
			found = true
			break
		}
	}
	if !found {
		return nil, ErrItemNotFound
	}

	if err := s.store.Save(ctx, cart); err != nil {
		log.Error().Err(err).Stringer("user_id", userID).Msg("service: failed to save cart")
		return nil, fmt.Errorf("service: failed to save cart: %w", err)
	}

	return cart, nil
}

func (s *service) Clear(ctx context.Context, userID uuid.UUID) error {
	if err := s.store.Delete(ctx, userID); err != nil {
		log.Error().Err(err).Stringer("user_id", userID).Msg("service: failed to clear cart")
		return fmt.Errorf("service: failed to clear cart: %w", err)
	}

	log.Info().Stringer("user_id", userID).Msg("service: cart cleared")
	return nil
}
