package cakeoption_test

import (
	"context"
	"testing"

	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kembakery/cakeshop/internal/cakeoption"
)

type mockOptionRepository struct {
	listActiveFunc     func(ctx context.Context) ([]cakeoption.CakeOption, error)
	listByCategoryFunc func(ctx context.Context, category cakeoption.Category) ([]cakeoption.CakeOption, error)
	listDefaultsFunc   func(ctx context.Context) ([]cakeoption.CakeOption, error)
	getActiveFunc      func(ctx context.Context, id uuid.UUID, category cakeoption.Category) (*cakeoption.CakeOption, error)
}

func (m *mockOptionRepository) ListActive(ctx context.Context) ([]cakeoption.CakeOption, error) {
	return m.listActiveFunc(ctx)
}

func (m *mockOptionRepository) ListByCategory(ctx context.Context, category cakeoption.Category) ([]cakeoption.CakeOption, error) {
	return m.listByCategoryFunc(ctx, category)
}

func (m *mockOptionRepository) ListDefaults(ctx context.Context) ([]cakeoption.CakeOption, error) {
	return m.listDefaultsFunc(ctx)
}

func (m *mockOptionRepository) GetActive(ctx context.Context, id uuid.UUID, category cakeoption.Category) (*cakeoption.CakeOption, error) {
	return m.getActiveFunc(ctx, id, category)
}

// catalogRepository backs GetActive with a fixed set of options.
func catalogRepository(options ...cakeoption.CakeOption) *mockOptionRepository {
	return &mockOptionRepository{
		getActiveFunc: func(ctx context.Context, id uuid.UUID, category cakeoption.Category) (*cakeoption.CakeOption, error) {
			for i := range options {
				if options[i].ID == id && options[i].Category == category && options[i].IsActive {
					return &options[i], nil
				}
			}
			return nil, cakeoption.ErrOptionNotFound
		},
	}
}

func mustUUID(t *testing.T, s string) uuid.UUID {
	t.Helper()
	id, err := uuid.FromString(s)
	require.NoError(t, err)
	return id
}

func TestService_ValidateCustomization(t *testing.T) {
	sizeID := "550e8400-e29b-41d4-a716-446655440001"
	baseID := "550e8400-e29b-41d4-a716-446655440002"
	frostingID := "550e8400-e29b-41d4-a716-446655440003"
	decorationID := "550e8400-e29b-41d4-a716-446655440004"

	catalog := []cakeoption.CakeOption{
		{ID: uuid.FromStringOrNil(sizeID), Category: cakeoption.CategorySize, Name: "Small", Price: 0, IsActive: true},
		{ID: uuid.FromStringOrNil(baseID), Category: cakeoption.CategoryCakeBase, Name: "Vanilla", Price: 50000, IsActive: true},
		{ID: uuid.FromStringOrNil(frostingID), Category: cakeoption.CategoryFrosting, Name: "Buttercream", Price: 30000, IsActive: true},
		{ID: uuid.FromStringOrNil(decorationID), Category: cakeoption.CategoryDecoration, Name: "Sprinkles", Price: 15000, IsActive: true},
	}

	tests := []struct {
		name          string
		customization *cakeoption.Customization
		wantValid     bool
		wantTotal     float64
		wantErrors    []string
	}{
		{
			name: "all_required_valid",
			customization: &cakeoption.Customization{
				Size:     &cakeoption.SelectedOption{ID: mustUUID(t, sizeID), Name: "Small", Price: 0},
				CakeBase: &cakeoption.SelectedOption{ID: mustUUID(t, baseID), Name: "Vanilla", Price: 50000},
				Frosting: &cakeoption.SelectedOption{ID: mustUUID(t, frostingID), Name: "Buttercream", Price: 30000},
			},
			wantValid: true,
			wantTotal: 80000,
		},
		{
			name: "optional_decoration_included",
			customization: &cakeoption.Customization{
				Size:       &cakeoption.SelectedOption{ID: mustUUID(t, sizeID), Name: "Small", Price: 0},
				CakeBase:   &cakeoption.SelectedOption{ID: mustUUID(t, baseID), Name: "Vanilla", Price: 50000},
				Frosting:   &cakeoption.SelectedOption{ID: mustUUID(t, frostingID), Name: "Buttercream", Price: 30000},
				Decoration: &cakeoption.SelectedOption{ID: mustUUID(t, decorationID), Name: "Sprinkles", Price: 15000},
			},
			wantValid: true,
			wantTotal: 95000,
		},
		{
			name: "missing_all_required",
			customization: &cakeoption.Customization{
				SpecialInstructions: "Happy birthday on top",
			},
			wantValid: false,
			wantTotal: 0,
			wantErrors: []string{
				"Missing required category: size",
				"Missing required category: cake_base",
				"Missing required category: frosting",
			},
		},
		{
			name: "missing_frosting_only",
			customization: &cakeoption.Customization{
				Size:     &cakeoption.SelectedOption{ID: mustUUID(t, sizeID), Name: "Small", Price: 0},
				CakeBase: &cakeoption.SelectedOption{ID: mustUUID(t, baseID), Name: "Vanilla", Price: 50000},
			},
			wantValid:  false,
			wantTotal:  50000,
			wantErrors: []string{"Missing required category: frosting"},
		},
		{
			name: "unknown_option_id",
			customization: &cakeoption.Customization{
				Size:     &cakeoption.SelectedOption{ID: mustUUID(t, "999e8400-e29b-41d4-a716-446655440000"), Name: "Huge", Price: 0},
				CakeBase: &cakeoption.SelectedOption{ID: mustUUID(t, baseID), Name: "Vanilla", Price: 50000},
				Frosting: &cakeoption.SelectedOption{ID: mustUUID(t, frostingID), Name: "Buttercream", Price: 30000},
			},
			wantValid: false,
			wantTotal: 80000,
			wantErrors: []string{
				`Invalid option ID "999e8400-e29b-41d4-a716-446655440000" for category "size"`,
			},
		},
		{
			name: "price_mismatch_beyond_tolerance",
			customization: &cakeoption.Customization{
				Size:     &cakeoption.SelectedOption{ID: mustUUID(t, sizeID), Name: "Small", Price: 0},
				CakeBase: &cakeoption.SelectedOption{ID: mustUUID(t, baseID), Name: "Vanilla", Price: 40000},
				Frosting: &cakeoption.SelectedOption{ID: mustUUID(t, frostingID), Name: "Buttercream", Price: 30000},
			},
			wantValid:  false,
			wantTotal:  80000,
			wantErrors: []string{`Price mismatch for option "Vanilla"`},
		},
		{
			name: "price_within_tolerance",
			customization: &cakeoption.Customization{
				Size:     &cakeoption.SelectedOption{ID: mustUUID(t, sizeID), Name: "Small", Price: 0.005},
				CakeBase: &cakeoption.SelectedOption{ID: mustUUID(t, baseID), Name: "Vanilla", Price: 50000},
				Frosting: &cakeoption.SelectedOption{ID: mustUUID(t, frostingID), Name: "Buttercream", Price: 30000},
			},
			wantValid: true,
			wantTotal: 80000,
		},
		{
			name: "name_mismatch",
			customization: &cakeoption.Customization{
				Size:     &cakeoption.SelectedOption{ID: mustUUID(t, sizeID), Name: "Extra Large", Price: 0},
				CakeBase: &cakeoption.SelectedOption{ID: mustUUID(t, baseID), Name: "Vanilla", Price: 50000},
				Frosting: &cakeoption.SelectedOption{ID: mustUUID(t, frostingID), Name: "Buttercream", Price: 30000},
			},
			wantValid:  false,
			wantTotal:  80000,
			wantErrors: []string{`Option name mismatch for ID "` + sizeID + `"`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := cakeoption.NewService(catalogRepository(catalog...))

			result, err := svc.ValidateCustomization(context.Background(), tt.customization)
			require.NoError(t, err)

			assert.Equal(t, tt.wantValid, result.IsValid)
			assert.InDelta(t, tt.wantTotal, result.TotalPrice, 0.001)
			if len(tt.wantErrors) > 0 {
				assert.Equal(t, tt.wantErrors, result.Errors)
			} else {
				assert.Empty(t, result.Errors)
			}
		})
	}
}

func TestService_ValidateCustomization_TotalUsesStoredPrices(t *testing.T) {
	sizeID := mustUUID(t, "550e8400-e29b-41d4-a716-446655440001")
	baseID := mustUUID(t, "550e8400-e29b-41d4-a716-446655440002")
	frostingID := mustUUID(t, "550e8400-e29b-41d4-a716-446655440003")

	svc := cakeoption.NewService(catalogRepository(
		cakeoption.CakeOption{ID: sizeID, Category: cakeoption.CategorySize, Name: "Medium", Price: 20000, IsActive: true},
		cakeoption.CakeOption{ID: baseID, Category: cakeoption.CategoryCakeBase, Name: "Chocolate", Price: 60000, IsActive: true},
		cakeoption.CakeOption{ID: frostingID, Category: cakeoption.CategoryFrosting, Name: "Ganache", Price: 35000, IsActive: true},
	))

	// The submitted prices are wrong across the board, the total must still
	// come from the catalog.
	result, err := svc.ValidateCustomization(context.Background(), &cakeoption.Customization{
		Size:     &cakeoption.SelectedOption{ID: sizeID, Name: "Medium", Price: 1},
		CakeBase: &cakeoption.SelectedOption{ID: baseID, Name: "Chocolate", Price: 1},
		Frosting: &cakeoption.SelectedOption{ID: frostingID, Name: "Ganache", Price: 1},
	})
	require.NoError(t, err)

	assert.False(t, result.IsValid)
	assert.InDelta(t, 115000, result.TotalPrice, 0.001)
	assert.Len(t, result.Errors, 3)
}

func TestService_CalculatePrice(t *testing.T) {
	sizeID := mustUUID(t, "550e8400-e29b-41d4-a716-446655440001")
	baseID := mustUUID(t, "550e8400-e29b-41d4-a716-446655440002")
	frostingID := mustUUID(t, "550e8400-e29b-41d4-a716-446655440003")

	svc := cakeoption.NewService(catalogRepository(
		cakeoption.CakeOption{ID: sizeID, Category: cakeoption.CategorySize, Name: "Small", Price: 0, IsActive: true},
		cakeoption.CakeOption{ID: baseID, Category: cakeoption.CategoryCakeBase, Name: "Vanilla", Price: 50000, IsActive: true},
		cakeoption.CakeOption{ID: frostingID, Category: cakeoption.CategoryFrosting, Name: "Buttercream", Price: 30000, IsActive: true},
	))

	t.Run("valid_customization", func(t *testing.T) {
		price, err := svc.CalculatePrice(context.Background(), &cakeoption.Customization{
			Size:     &cakeoption.SelectedOption{ID: sizeID, Name: "Small", Price: 0},
			CakeBase: &cakeoption.SelectedOption{ID: baseID, Name: "Vanilla", Price: 50000},
			Frosting: &cakeoption.SelectedOption{ID: frostingID, Name: "Buttercream", Price: 30000},
		})
		require.NoError(t, err)
		assert.InDelta(t, 80000, price, 0.001)
	})

	t.Run("invalid_customization", func(t *testing.T) {
		_, err := svc.CalculatePrice(context.Background(), &cakeoption.Customization{
			Size: &cakeoption.SelectedOption{ID: sizeID, Name: "Small", Price: 0},
		})
		assert.ErrorIs(t, err, cakeoption.ErrInvalidCustomization)
	})
}

func TestService_AllOptions_GroupsByCategory(t *testing.T) {
	repo := &mockOptionRepository{
		listActiveFunc: func(ctx context.Context) ([]cakeoption.CakeOption, error) {
			return []cakeoption.CakeOption{
				{Name: "Small", Category: cakeoption.CategorySize},
				{Name: "Large", Category: cakeoption.CategorySize},
				{Name: "Vanilla", Category: cakeoption.CategoryCakeBase},
			}, nil
		},
	}

	svc := cakeoption.NewService(repo)
	grouped, err := svc.AllOptions(context.Background())
	require.NoError(t, err)

	assert.Len(t, grouped["size"], 2)
	assert.Len(t, grouped["cake_base"], 1)
}

func TestService_OptionsByCategory_RejectsUnknownCategory(t *testing.T) {
	svc := cakeoption.NewService(&mockOptionRepository{})

	_, err := svc.OptionsByCategory(context.Background(), "topping")
	assert.ErrorIs(t, err, cakeoption.ErrInvalidCategory)
}

func TestCategoryFromClientKey(t *testing.T) {
	cat, ok := cakeoption.CategoryFromClientKey("cakeBase")
	require.True(t, ok)
	assert.Equal(t, cakeoption.CategoryCakeBase, cat)

	_, ok = cakeoption.CategoryFromClientKey("cake_base_extra")
	assert.False(t, ok)
}
