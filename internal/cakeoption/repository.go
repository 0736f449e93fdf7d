package cakeoption

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrOptionNotFound = errors.New("cake option not found")

type Repository interface {
	ListActive(ctx context.Context) ([]CakeOption, error)
	ListByCategory(ctx context.Context, category Category) ([]CakeOption, error)
	ListDefaults(ctx context.Context) ([]CakeOption, error)
	GetActive(ctx context.Context, id uuid.UUID, category Category) (*CakeOption, error)
}

type postgresRepository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &postgresRepository{db: db}
}

const optionColumns = `id, category, name, COALESCE(description, ''), price, is_default, COALESCE(image_url, ''), is_active, display_order, created_at, updated_at`

func scanOption(row pgx.Row) (*CakeOption, error) {
	var o CakeOption
	err := row.Scan(
		&o.ID,
		&o.Category,
		&o.Name,
		&o.Description,
		&o.Price,
		&o.IsDefault,
		&o.ImageURL,
		&o.IsActive,
		&o.DisplayOrder,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *postgresRepository) listOptions(ctx context.Context, query string, args ...any) ([]CakeOption, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query cake options: %w", err)
	}
	defer rows.Close()

	options := make([]CakeOption, 0)
	for rows.Next() {
		o, err := scanOption(rows)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan cake option: %w", err)
		}
		options = append(options, *o)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating cake options: %w", err)
	}

	return options, nil
}

func (r *postgresRepository) ListActive(ctx context.Context) ([]CakeOption, error) {
	query := `
		SELECT ` + optionColumns + `
		FROM cake_options
		WHERE is_active = TRUE
		ORDER BY category ASC, display_order ASC
	`
	return r.listOptions(ctx, query)
}

func (r *postgresRepository) ListByCategory(ctx context.Context, category Category) ([]CakeOption, error) {
	query := `
		SELECT ` + optionColumns + `
		FROM cake_options
		WHERE category = $1 AND is_active = TRUE
		ORDER BY display_order ASC
	`
	return r.listOptions(ctx, query, string(category))
}

func (r *postgresRepository) ListDefaults(ctx context.Context) ([]CakeOption, error) {
	query := `
		SELECT ` + optionColumns + `
		FROM cake_options
		WHERE is_default = TRUE AND is_active = TRUE
		ORDER BY category ASC
	`
	return r.listOptions(ctx, query)
}

func (r *postgresRepository) GetActive(ctx context.Context, id uuid.UUID, category Category) (*CakeOption, error) {
	query := `
		SELECT ` + optionColumns + `
		FROM cake_options
		WHERE id = $1 AND category = $2 AND is_active = TRUE
	`

	option, err := scanOption(r.db.QueryRow(ctx, query, id, string(category)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOptionNotFound
		}

		return nil, fmt.Errorf("repository: failed to select cake option by id %s: %w", id, err)
	}

	return option, nil
}
