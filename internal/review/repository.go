package review

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound        = errors.New("review not found")
	ErrAlreadyReviewed = errors.New("review already exists for this order")
)

type Repository interface {
	Create(ctx context.Context, review *Review) error
	GetByID(ctx context.Context, id uuid.UUID) (*Review, error)
	Update(ctx context.Context, review *Review) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListApprovedByProduct(ctx context.Context, productID uuid.UUID) ([]Review, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]Review, error)
	FindByPurchase(ctx context.Context, userID, productID, orderID uuid.UUID) (*Review, error)
	List(ctx context.Context, filter ListFilter) (*ListResult, error)
	RatingCounts(ctx context.Context, productID uuid.UUID) (map[int]int, error)
	SetApproved(ctx context.Context, ids []uuid.UUID, approved bool) (int64, error)
	SetVisible(ctx context.Context, ids []uuid.UUID, visible bool) (int64, error)
	DeleteMany(ctx context.Context, ids []uuid.UUID) (int64, error)
}

type postgresRepository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &postgresRepository{db: db}
}

const reviewColumns = `id, product_id, user_id, order_id, rating, COALESCE(comment, ''), images, is_approved, is_visible, created_at, updated_at`

func scanReview(row pgx.Row) (*Review, error) {
	var rv Review
	err := row.Scan(
		&rv.ID,
		&rv.ProductID,
		&rv.UserID,
		&rv.OrderID,
		&rv.Rating,
		&rv.Comment,
		&rv.Images,
		&rv.IsApproved,
		&rv.IsVisible,
		&rv.CreatedAt,
		&rv.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if rv.Images == nil {
		rv.Images = []string{}
	}
	return &rv, nil
}

// Create inserts the review. Duplicate (user, product, order) triples are
// rejected by the unique index, not by a racy pre-check.
func (r *postgresRepository) Create(ctx context.Context, review *Review) error {
	if review.ID == uuid.Nil {
		id, err := uuid.NewV4()
		if err != nil {
			return fmt.Errorf("repository: failed to generate review ID: %w", err)
		}
		review.ID = id
	}

	now := time.Now().UTC()
	review.CreatedAt = now
	review.UpdatedAt = now
	if review.Images == nil {
		review.Images = []string{}
	}

	query := `
		INSERT INTO reviews (id, product_id, user_id, order_id, rating, comment, images, is_approved, is_visible, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := r.db.Exec(ctx, query,
		review.ID,
		review.ProductID,
		review.UserID,
		review.OrderID,
		review.Rating,
		review.Comment,
		review.Images,
		review.IsApproved,
		review.IsVisible,
		review.CreatedAt,
		review.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return ErrAlreadyReviewed
		}

		return fmt.Errorf("repository: failed to insert review: %w", err)
	}

	return nil
}

func (r *postgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*Review, error) {
	query := `SELECT ` + reviewColumns + ` FROM reviews WHERE id = $1`

	review, err := scanReview(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("repository: failed to select review by id %s: %w", id, err)
	}

	return review, nil
}

func (r *postgresRepository) Update(ctx context.Context, review *Review) error {
	review.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE reviews
		SET rating = $1, comment = $2, images = $3, is_approved = $4, is_visible = $5, updated_at = $6
		WHERE id = $7
	`
	cmdTag, err := r.db.Exec(ctx, query,
		review.Rating,
		review.Comment,
		review.Images,
		review.IsApproved,
		review.IsVisible,
		review.UpdatedAt,
		review.ID,
	)
	if err != nil {
		return fmt.Errorf("repository: failed to update review %s: %w", review.ID, err)
	}

	if cmdTag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

func (r *postgresRepository) Delete(ctx context.Context, id uuid.UUID) error {
	cmdTag, err := r.db.Exec(ctx, `DELETE FROM reviews WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("repository: failed to delete review %s: %w", id, err)
	}

	if cmdTag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

func (r *postgresRepository) listReviews(ctx context.Context, query string, args ...any) ([]Review, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query reviews: %w", err)
	}
	defer rows.Close()

	reviews := make([]Review, 0)
	for rows.Next() {
		rv, err := scanReview(rows)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan review: %w", err)
		}
		reviews = append(reviews, *rv)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating reviews: %w", err)
	}

	return reviews, nil
}

func (r *postgresRepository) ListApprovedByProduct(ctx context.Context, productID uuid.UUID) ([]Review, error) {
	query := `
		SELECT ` + reviewColumns + `
		FROM reviews
		WHERE product_id = $1 AND is_approved = TRUE AND is_visible = TRUE
		ORDER BY created_at DESC
	`
	return r.listReviews(ctx, query, productID)
}

func (r *postgresRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]Review, error) {
	query := `
		SELECT ` + reviewColumns + `
		FROM reviews
		WHERE user_id = $1
		ORDER BY created_at DESC
	`
	return r.listReviews(ctx, query, userID)
}

func (r *postgresRepository) FindByPurchase(ctx context.Context, userID, productID, orderID uuid.UUID) (*Review, error) {
	query := `
		SELECT ` + reviewColumns + `
		FROM reviews
		WHERE user_id = $1 AND product_id = $2 AND order_id = $3
	`

	review, err := scanReview(r.db.QueryRow(ctx, query, userID, productID, orderID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("repository: failed to select review by purchase: %w", err)
	}

	return review, nil
}

// List applies the admin filters and returns one page plus the total count.
func (r *postgresRepository) List(ctx context.Context, filter ListFilter) (*ListResult, error) {
	conditions := make([]string, 0, 5)
	args := make([]any, 0, 5)

	addCondition := func(expr string, value any) {
		args = append(args, value)
		conditions = append(conditions, fmt.Sprintf(expr, len(args)))
	}

	if filter.IsApproved != nil {
		addCondition("is_approved = $%d", *filter.IsApproved)
	}
	if filter.IsVisible != nil {
		addCondition("is_visible = $%d", *filter.IsVisible)
	}
	if filter.ProductID != nil {
		addCondition("product_id = $%d", *filter.ProductID)
	}
	if filter.UserID != nil {
		addCondition("user_id = $%d", *filter.UserID)
	}
	if filter.Rating != nil {
		addCondition("rating = $%d", *filter.Rating)
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM reviews` + where
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("repository: failed to count reviews: %w", err)
	}

	// Sort columns come from a fixed whitelist, never from the request.
	sortBy := "created_at"
	if filter.SortBy == "rating" {
		sortBy = "rating"
	}
	direction := "DESC"
	if strings.EqualFold(filter.Order, "ASC") {
		direction = "ASC"
	}

	offset := (filter.Page - 1) * filter.Limit
	query := fmt.Sprintf(`SELECT %s FROM reviews%s ORDER BY %s %s LIMIT $%d OFFSET $%d`,
		reviewColumns, where, sortBy, direction, len(args)+1, len(args)+2)
	args = append(args, filter.Limit, offset)

	items, err := r.listReviews(ctx, query, args...)
	if err != nil {
		return nil, err
	}

	return &ListResult{
		Items: items,
		Total: total,
		Page:  filter.Page,
		Limit: filter.Limit,
	}, nil
}

func (r *postgresRepository) RatingCounts(ctx context.Context, productID uuid.UUID) (map[int]int, error) {
	query := `
		SELECT rating, COUNT(*)
		FROM reviews
		WHERE product_id = $1 AND is_approved = TRUE AND is_visible = TRUE
		GROUP BY rating
	`

	rows, err := r.db.Query(ctx, query, productID)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query rating counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[int]int)
	for rows.Next() {
		var rating, count int
		if err := rows.Scan(&rating, &count); err != nil {
			return nil, fmt.Errorf("repository: failed to scan rating count: %w", err)
		}
		counts[rating] = count
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating rating counts: %w", err)
	}

	return counts, nil
}

func (r *postgresRepository) SetApproved(ctx context.Context, ids []uuid.UUID, approved bool) (int64, error) {
	query := `UPDATE reviews SET is_approved = $1, updated_at = $2 WHERE id = ANY($3)`

	cmdTag, err := r.db.Exec(ctx, query, approved, time.Now().UTC(), ids)
	if err != nil {
		return 0, fmt.Errorf("repository: failed to set approved flag: %w", err)
	}

	return cmdTag.RowsAffected(), nil
}

func (r *postgresRepository) SetVisible(ctx context.Context, ids []uuid.UUID, visible bool) (int64, error) {
	query := `UPDATE reviews SET is_visible = $1, updated_at = $2 WHERE id = ANY($3)`

	cmdTag, err := r.db.Exec(ctx, query, visible, time.Now().UTC(), ids)
	if err != nil {
		return 0, fmt.Errorf("repository: failed to set visible flag: %w", err)
	}

	return cmdTag.RowsAffected(), nil
}

func (r *postgresRepository) DeleteMany(ctx context.Context, ids []uuid.UUID) (int64, error) {
	cmdTag, err := r.db.Exec(ctx, `DELETE FROM reviews WHERE id = ANY($1)`, ids)
	if err != nil {
		return 0, fmt.Errorf("repository: failed to delete reviews: %w", err)
	}

	return cmdTag.RowsAffected(), nil
}
