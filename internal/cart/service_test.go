package cart_test

import (
	"context"
	"testing"

	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kembakery/cakeshop/internal/cakeoption"
	"github.com/kembakery/cakeshop/internal/cart"
)

// memoryStore keeps carts in a map, standing in for Redis.
type memoryStore struct {
	carts map[uuid.UUID]*cart.Cart
}

func newMemoryStore() *memoryStore {
	return &memoryStore{carts: make(map[uuid.UUID]*cart.Cart)}
}

func (s *memoryStore) Get(ctx context.Context, userID uuid.UUID) (*cart.Cart, error) {
	if c, ok := s.carts[userID]; ok {
		copied := *c
		copied.Items = append([]cart.CartItem(nil), c.Items...)
		return &copied, nil
	}
	return &cart.Cart{UserID: userID, Items: []cart.CartItem{}}, nil
}

func (s *memoryStore) Save(ctx context.Context, c *cart.Cart) error {
	s.carts[c.UserID] = c
	return nil
}

func (s *memoryStore) Delete(ctx context.Context, userID uuid.UUID) error {
	delete(s.carts, userID)
	return nil
}

var customCakeProductID = uuid.FromStringOrNil("aaae8400-e29b-41d4-a716-446655440000")

func testCustomization() *cakeoption.Customization {
	return &cakeoption.Customization{
		Size:     &cakeoption.SelectedOption{ID: uuid.FromStringOrNil("550e8400-e29b-41d4-a716-446655440001"), Name: "Small"},
		CakeBase: &cakeoption.SelectedOption{ID: uuid.FromStringOrNil("550e8400-e29b-41d4-a716-446655440002"), Name: "Vanilla", Price: 50000},
		Frosting: &cakeoption.SelectedOption{ID: uuid.FromStringOrNil("550e8400-e29b-41d4-a716-446655440003"), Name: "Buttercream", Price: 30000},
	}
}

func TestCartService_AddItem(t *testing.T) {
	userID := uuid.FromStringOrNil("123e4567-e89b-12d3-a456-426614174000")
	productID := uuid.FromStringOrNil("550e8400-e29b-41d4-a716-446655440000")

	t.Run("regular_item", func(t *testing.T) {
		svc := cart.NewService(newMemoryStore(), customCakeProductID)

		c, err := svc.AddItem(context.Background(), userID, cart.CartItem{
			ProductID: productID, Quantity: 2, Name: "Tiramisu", Price: 45000,
		})
		require.NoError(t, err)
		require.Len(t, c.Items, 1)
		assert.Equal(t, 2, c.Items[0].Quantity)
		assert.InDelta(t, 90000, c.Total(), 0.001)
	})

	t.Run("same_product_merges_quantity", func(t *testing.T) {
		svc := cart.NewService(newMemoryStore(), customCakeProductID)

		_, err := svc.AddItem(context.Background(), userID, cart.CartItem{ProductID: productID, Quantity: 1, Price: 45000})
		require.NoError(t, err)
		c, err := svc.AddItem(context.Background(), userID, cart.CartItem{ProductID: productID, Quantity: 3, Price: 45000})
		require.NoError(t, err)

		require.Len(t, c.Items, 1)
		assert.Equal(t, 4, c.Items[0].Quantity)
	})

	t.Run("custom_cake_requires_customization", func(t *testing.T) {
		svc := cart.NewService(newMemoryStore(), customCakeProductID)

		_, err := svc.AddItem(context.Background(), userID, cart.CartItem{
			ProductID: customCakeProductID, Quantity: 1, Price: 80000,
		})
		assert.ErrorIs(t, err, cart.ErrCustomizationRequired)
	})

	t.Run("custom_cakes_stay_separate_lines", func(t *testing.T) {
		svc := cart.NewService(newMemoryStore(), customCakeProductID)

		_, err := svc.AddItem(context.Background(), userID, cart.CartItem{
			ProductID: customCakeProductID, Quantity: 1, Price: 80000, Customization: testCustomization(),
		})
		require.NoError(t, err)
		c, err := svc.AddItem(context.Background(), userID, cart.CartItem{
			ProductID: customCakeProductID, Quantity: 1, Price: 95000, Customization: testCustomization(),
		})
		require.NoError(t, err)

		assert.Len(t, c.Items, 2, "each custom cake carries its own customization")
		assert.True(t, c.Items[0].IsCustomCake)
	})

	t.Run("zero_quantity_rejected", func(t *testing.T) {
		svc := cart.NewService(newMemoryStore(), customCakeProductID)

		_, err := svc.AddItem(context.Background(), userID, cart.CartItem{ProductID: productID, Quantity: 0})
		assert.ErrorIs(t, err, cart.ErrInvalidQuantity)
	})

	t.Run("lines_get_distinct_ids", func(t *testing.T) {
		svc := cart.NewService(newMemoryStore(), customCakeProductID)

		_, err := svc.AddItem(context.Background(), userID, cart.CartItem{ProductID: productID, Quantity: 1, Price: 45000})
		require.NoError(t, err)
		c, err := svc.AddItem(context.Background(), userID, cart.CartItem{
			ProductID: customCakeProductID, Quantity: 1, Price: 80000, Customization: testCustomization(),
		})
		require.NoError(t, err)

		require.Len(t, c.Items, 2)
		assert.NotEqual(t, uuid.Nil, c.Items[0].ID)
		assert.NotEqual(t, uuid.Nil, c.Items[1].ID)
		assert.NotEqual(t, c.Items[0].ID, c.Items[1].ID)
	})
}

func TestCartService_UpdateQuantity(t *testing.T) {
	userID := uuid.FromStringOrNil("123e4567-e89b-12d3-a456-426614174000")
	productID := uuid.FromStringOrNil("550e8400-e29b-41d4-a716-446655440000")

	store := newMemoryStore()
	svc := cart.NewService(store, customCakeProductID)

	_, err := svc.AddItem(context.Background(), userID, cart.CartItem{ProductID: productID, Quantity: 1, Price: 45000})
	require.NoError(t, err)

	c, err := svc.UpdateQuantity(context.Background(), userID, productID, 5)
	require.NoError(t, err)
	assert.Equal(t, 5, c.Items[0].Quantity)

	_, err = svc.UpdateQuantity(context.Background(), userID, productID, 0)
	assert.ErrorIs(t, err, cart.ErrInvalidQuantity)

	otherID := uuid.FromStringOrNil("999e8400-e29b-41d4-a716-446655440000")
	_, err = svc.UpdateQuantity(context.Background(), userID, otherID, 2)
	assert.ErrorIs(t, err, cart.ErrItemNotFound)
}

func TestCartService_UpdateQuantity_CustomCakeByLineID(t *testing.T) {
	userID := uuid.FromStringOrNil("123e4567-e89b-12d3-a456-426614174000")

	svc := cart.NewService(newMemoryStore(), customCakeProductID)

	_, err := svc.AddItem(context.Background(), userID, cart.CartItem{
		ProductID: customCakeProductID, Quantity: 1, Price: 80000, Customization: testCustomization(),
	})
	require.NoError(t, err)
	c, err := svc.AddItem(context.Background(), userID, cart.CartItem{
		ProductID: customCakeProductID, Quantity: 1, Price: 95000, Customization: testCustomization(),
	})
	require.NoError(t, err)
	require.Len(t, c.Items, 2)

	c, err = svc.UpdateQuantity(context.Background(), userID, c.Items[1].ID, 3)
	require.NoError(t, err)
	assert.Equal(t, 1, c.Items[0].Quantity)
	assert.Equal(t, 3, c.Items[1].Quantity)

	// The shared custom-cake product id does not pick a line.
	_, err = svc.UpdateQuantity(context.Background(), userID, customCakeProductID, 2)
	assert.ErrorIs(t, err, cart.ErrItemNotFound)
}

func TestCartService_RemoveItem(t *testing.T) {
	userID := uuid.FromStringOrNil("123e4567-e89b-12d3-a456-426614174000")
	productID := uuid.FromStringOrNil("550e8400-e29b-41d4-a716-446655440000")

	svc := cart.NewService(newMemoryStore(), customCakeProductID)

	_, err := svc.AddItem(context.Background(), userID, cart.CartItem{ProductID: productID, Quantity: 1, Price: 45000})
	require.NoError(t, err)

	c, err := svc.RemoveItem(context.Background(), userID, productID)
	require.NoError(t, err)
	assert.Empty(t, c.Items)

	_, err = svc.RemoveItem(context.Background(), userID, productID)
	assert.ErrorIs(t, err, cart.ErrItemNotFound)
}

func TestCartService_RemoveItem_CustomCakeByLineID(t *testing.T) {
	userID := uuid.FromStringOrNil("123e4567-e89b-12d3-a456-426614174000")

	svc := cart.NewService(newMemoryStore(), customCakeProductID)

	_, err := svc.AddItem(context.Background(), userID, cart.CartItem{
		ProductID: customCakeProductID, Quantity: 1, Price: 80000, Customization: testCustomization(),
	})
	require.NoError(t, err)
	c, err := svc.AddItem(context.Background(), userID, cart.CartItem{
		ProductID: customCakeProductID, Quantity: 1, Price: 95000, Customization: testCustomization(),
	})
	require.NoError(t, err)
	require.Len(t, c.Items, 2)

	keep := c.Items[1].ID
	c, err = svc.RemoveItem(context.Background(), userID, c.Items[0].ID)
	require.NoError(t, err)
	require.Len(t, c.Items, 1)
	assert.Equal(t, keep, c.Items[0].ID)
	assert.InDelta(t, 95000, c.Items[0].Price, 0.001)
}

func TestCartService_Clear(t *testing.T) {
	userID := uuid.FromStringOrNil("123e4567-e89b-12d3-a456-426614174000")
	productID := uuid.FromStringOrNil("550e8400-e29b-41d4-a716-446655440000")

	store := newMemoryStore()
	svc := cart.NewService(store, customCakeProductID)

	_, err := svc.AddItem(context.Background(), userID, cart.CartItem{ProductID: productID, Quantity: 1, Price: 45000})
	require.NoError(t, err)

	require.NoError(t, svc.Clear(context.Background(), userID))

	c, err := svc.Get(context.Background(), userID)
	require.NoError(t, err)
	assert.Empty(t, c.Items)
}
