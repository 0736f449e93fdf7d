package cakeoption

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
)

// priceTolerance absorbs float rounding between client and catalog prices.
// Anything beyond it is treated as tampering or a stale cache.
const priceTolerance = 0.01

var (
	ErrInvalidCategory      = errors.New("unknown cake option category")
	ErrInvalidCustomization = errors.New("invalid customization")
)

type Service interface {
	AllOptions(ctx context.Context) (map[string][]CakeOption, error)
	OptionsByCategory(ctx context.Context, category string) ([]CakeOption, error)
	DefaultOptions(ctx context.Context) (map[string]CakeOption, error)
	ValidateCustomization(ctx context.Context, customization *Customization) (*ValidationResult, error)
	CalculatePrice(ctx context.Context, customization *Customization) (float64, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

// AllOptions returns every active option grouped by category.
func (s *service) AllOptions(ctx context.Context) (map[string][]CakeOption, error) {
	options, err := s.repo.ListActive(ctx)
	if err != nil {
		log.Error().Err(err).Msg("service: failed to list active cake options")
		return nil, fmt.Errorf("service: failed to list cake options: %w", err)
	}

	grouped := make(map[string][]CakeOption)
	for _, option := range options {
		key := option.Category.String()
		grouped[key] = append(grouped[key], option)
	}

	return grouped, nil
}

func (s *service) OptionsByCategory(ctx context.Context, category string) ([]CakeOption, error) {
	if !ValidCategory(category) {
		return nil, ErrInvalidCategory
	}

	options, err := s.repo.ListByCategory(ctx, Category(category))
	if err != nil {
		log.Error().Err(err).Str("category", category).Msg("service: failed to list cake options by category")
		return nil, fmt.Errorf("service: failed to list cake options for category %s: %w", category, err)
	}

	return options, nil
}

// DefaultOptions returns the default option per category. The storage layer
// guarantees at most one active default per category.
func (s *service) DefaultOptions(ctx context.Context) (map[string]CakeOption, error) {
	options, err := s.repo.ListDefaults(ctx)
	if err != nil {
		log.Error().Err(err).Msg("service: failed to list default cake options")
		return nil, fmt.Errorf("service: failed to list default cake options: %w", err)
	}

	defaults := make(map[string]CakeOption, len(options))
	for _, option := range options {
		defaults[option.Category.String()] = option
	}

	return defaults, nil
}

// ValidateCustomization checks every selected option against the catalog and
// sums the stored prices. Business-rule violations are aggregated into the
// result, never returned as an error; the error return is for repository
// failures only.
func (s *service) ValidateCustomization(ctx context.Context, customization *Customization) (*ValidationResult, error) {
	result := &ValidationResult{Errors: []string{}}

	provided := make(map[Category]bool)

	for _, sel := range customization.selections() {
		provided[sel.Category] = true

		stored, err := s.lookupOption(ctx, sel.Option.ID, sel.Category)
		if err != nil {
			return nil, err
		}
		if stored == nil {
			result.Errors = append(result.Errors,
				fmt.Sprintf("Invalid option ID %q for category %q", sel.Option.ID, sel.Category))
			continue
		}

		if stored.Name != sel.Option.Name {
			result.Errors = append(result.Errors,
				fmt.Sprintf("Option name mismatch for ID %q", sel.Option.ID))
		}

		if math.Abs(stored.Price-sel.Option.Price) > priceTolerance {
			result.Errors = append(result.Errors,
				fmt.Sprintf("Price mismatch for option %q", sel.Option.Name))
		}

		// Always the stored price, never the submitted one.
		result.TotalPrice += stored.Price
	}

	for _, required := range requiredCategories {
		if !provided[required] {
			result.Errors = append(result.Errors,
				fmt.Sprintf("Missing required category: %s", required))
		}
	}

	result.IsValid = len(result.Errors) == 0

	return result, nil
}

// CalculatePrice is the throwing wrapper around ValidateCustomization: it
// returns the authoritative price or ErrInvalidCustomization.
func (s *service) CalculatePrice(ctx context.Context, customization *Customization) (float64, error) {
	result, err := s.ValidateCustomization(ctx, customization)
	if err != nil {
		return 0, err
	}

	if !result.IsValid {
		return 0, fmt.Errorf("%w: %s", ErrInvalidCustomization, strings.Join(result.Errors, ", "))
	}

	return result.TotalPrice, nil
}

// lookupOption resolves an option id within a category. A missing option is
// reported as (nil, nil) so the caller can aggregate it as a business error.
func (s *service) lookupOption(ctx context.Context, id uuid.UUID, category Category) (*CakeOption, error) {
	option, err := s.repo.GetActive(ctx, id, category)
	if err != nil {
		if errors.Is(err, ErrOptionNotFound) {
			return nil, nil
		}

		log.Error().Err(err).Stringer("option_id", id).Str("category", category.String()).
			Msg("service: failed to look up cake option")
		return nil, fmt.Errorf("service: failed to look up cake option %s: %w", id, err)
	}

	return option, nil
}
