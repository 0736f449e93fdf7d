package review

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
)

// verifyTimeout bounds the cross-service purchase check. On expiry the check
// counts as failed and the review is rejected (fail-closed).
const verifyTimeout = 3 * time.Second

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

var (
	ErrForbidden     = errors.New("review does not belong to this user")
	ErrNotPurchased  = errors.New("product was not purchased in a completed order by this user")
	ErrInvalidRating = errors.New("rating must be between 1 and 5")
)

// PurchaseVerifier answers whether a user bought a product in a given
// completed order. Implemented by the order-service HTTP client.
type PurchaseVerifier interface {
	VerifyPurchase(ctx context.Context, userID, productID, orderID uuid.UUID) (bool, error)
}

// ProfileProvider resolves the public author profile for a user. Implemented
// by the user-service HTTP client.
type ProfileProvider interface {
	GetProfile(ctx context.Context, userID uuid.UUID) (*Author, error)
}

// CreateInput is what a user submits for a new review.
type CreateInput struct {
	ProductID uuid.UUID
	OrderID   uuid.UUID
	Rating    int
	Comment   string
	Images    []string
}

// CheckResult reports whether a purchase already has a review.
type CheckResult struct {
	HasReviewed bool    `json:"hasReviewed"`
	Review      *Review `json:"review,omitempty"`
}

type Service interface {
	Create(ctx context.Context, userID uuid.UUID, input CreateInput) (*Review, error)
	UpdateByUser(ctx context.Context, id, userID uuid.UUID, patch UserPatch) (*Review, error)
	Delete(ctx context.Context, id, requesterID uuid.UUID, isAdmin bool) error
	ApprovedByProduct(ctx context.Context, productID uuid.UUID) ([]Review, error)
	ByUser(ctx context.Context, userID uuid.UUID) ([]Review, error)
	HasReviewed(ctx context.Context, userID, productID, orderID uuid.UUID) (*CheckResult, error)
	ProductStats(ctx context.Context, productID uuid.UUID) (*Stats, error)

	Get(ctx context.Context, id uuid.UUID) (*Review, error)
	List(ctx context.Context, filter ListFilter) (*ListResult, error)
	Approve(ctx context.Context, id uuid.UUID) (*Review, error)
	ToggleVisibility(ctx context.Context, id uuid.UUID) (*Review, error)
	AdminUpdate(ctx context.Context, id uuid.UUID, patch AdminPatch) (*Review, error)
	BulkApprove(ctx context.Context, ids []uuid.UUID) (int64, error)
	BulkHide(ctx context.Context, ids []uuid.UUID) (int64, error)
	BulkDelete(ctx context.Context, ids []uuid.UUID) (int64, error)
}

type service struct {
	repo     Repository
	verifier PurchaseVerifier
	profiles ProfileProvider
}

func NewService(repo Repository, verifier PurchaseVerifier, profiles ProfileProvider) Service {
	return &service{
		repo:     repo,
		verifier: verifier,
		profiles: profiles,
	}
}

// Create inserts a new review in the pending-approval state after verifying
// the purchase against the order service. Duplicate reviews for the same
// (user, product, order) surface as ErrAlreadyReviewed from the repository.
func (s *service) Create(ctx context.Context, userID uuid.UUID, input CreateInput) (*Review, error) {
	if input.Rating < 1 || input.Rating > 5 {
		return nil, ErrInvalidRating
	}

	verifyCtx, cancel := context.WithTimeout(ctx, verifyTimeout)
	defer cancel()

	purchased, err := s.verifier.VerifyPurchase(verifyCtx, userID, input.ProductID, input.OrderID)
	if err != nil {
		// Fail closed: an unreachable order service never lets a review
		// bypass the purchase check.
		log.Warn().Err(err).
			Stringer("user_id", userID).
			Stringer("order_id", input.OrderID).
			Msg("service: purchase verification failed, rejecting review")
		return nil, ErrNotPurchased
	}
	if !purchased {
		return nil, ErrNotPurchased
	}

	review := &Review{
		ProductID:  input.ProductID,
		UserID:     userID,
		OrderID:    input.OrderID,
		Rating:     input.Rating,
		Comment:    input.Comment,
		Images:     input.Images,
		IsApproved: false,
		IsVisible:  true,
	}

	if err := s.repo.Create(ctx, review); err != nil {
		if errors.Is(err, ErrAlreadyReviewed) {
			return nil, ErrAlreadyReviewed
		}

		log.Error().Err(err).Stringer("user_id", userID).Msg("service: failed to create review")
		return nil, fmt.Errorf("service: failed to create review: %w", err)
	}

	log.Info().Stringer("review_id", review.ID).Stringer("user_id", userID).
		Stringer("product_id", input.ProductID).Msg("service: review created, pending approval")

	return review, nil
}

// UpdateByUser lets the author edit their review at any time. Editing an
// already approved review silently re-queues it for moderation by resetting
// the approval flag.
func (s *service) UpdateByUser(ctx context.Context, id, userID uuid.UUID, patch UserPatch) (*Review, error) {
	review, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if review.UserID != userID {
		return nil, ErrForbidden
	}

	if patch.Rating != nil {
		if *patch.Rating < 1 || *patch.Rating > 5 {
			return nil, ErrInvalidRating
		}
		review.Rating = *patch.Rating
	}
	if patch.Comment != nil {
		review.Comment = *patch.Comment
	}
	if patch.Images != nil {
		review.Images = *patch.Images
	}

	review.IsApproved = false

	if err := s.repo.Update(ctx, review); err != nil {
		log.Error().Err(err).Stringer("review_id", id).Msg("service: failed to update review")
		return nil, fmt.Errorf("service: failed to update review: %w", err)
	}

	log.Info().Stringer("review_id", id).Stringer("user_id", userID).Msg("service: review updated, approval reset")

	return review, nil
}

func (s *service) Delete(ctx context.Context, id, requesterID uuid.UUID, isAdmin bool) error {
	review, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if !isAdmin && review.UserID != requesterID {
		return ErrForbidden
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		log.Error().Err(err).Stringer("review_id", id).Msg("service: failed to delete review")
		return fmt.Errorf("service: failed to delete review: %w", err)
	}

	log.Info().Stringer("review_id", id).Stringer("requester_id", requesterID).
		Bool("admin", isAdmin).Msg("service: review deleted")

	return nil
}

func (s *service) ApprovedByProduct(ctx context.Context, productID uuid.UUID) ([]Review, error) {
	reviews, err := s.repo.ListApprovedByProduct(ctx, productID)
	if err != nil {
		log.Error().Err(err).Stringer("product_id", productID).Msg("service: failed to list product reviews")
		return nil, fmt.Errorf("service: failed to list product reviews: %w", err)
	}

	s.decorateAuthors(ctx, reviews)

	return reviews, nil
}

func (s *service) ByUser(ctx context.Context, userID uuid.UUID) ([]Review, error) {
	reviews, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		log.Error().Err(err).Stringer("user_id", userID).Msg("service: failed to list user reviews")
		return nil, fmt.Errorf("service: failed to list user reviews: %w", err)
	}

	return reviews, nil
}

func (s *service) HasReviewed(ctx context.Context, userID, productID, orderID uuid.UUID) (*CheckResult, error) {
	review, err := s.repo.FindByPurchase(ctx, userID, productID, orderID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return &CheckResult{HasReviewed: false}, nil
		}

		return nil, fmt.Errorf("service: failed to check review existence: %w", err)
	}

	return &CheckResult{HasReviewed: true, Review: review}, nil
}

// ProductStats recomputes the aggregate on demand from approved and visible
// reviews. Write volume is low enough that nothing incremental is kept.
func (s *service) ProductStats(ctx context.Context, productID uuid.UUID) (*Stats, error) {
	counts, err := s.repo.RatingCounts(ctx, productID)
	if err != nil {
		log.Error().Err(err).Stringer("product_id", productID).Msg("service: failed to load rating counts")
		return nil, fmt.Errorf("service: failed to load rating counts: %w", err)
	}

	stats := &Stats{Distribution: make(map[int]int, 5)}
	sum := 0
	for rating := 1; rating <= 5; rating++ {
		n := counts[rating]
		stats.Distribution[rating] = n
		stats.TotalReviews += n
		sum += rating * n
	}

	if stats.TotalReviews > 0 {
		stats.AverageRating = float64(sum) / float64(stats.TotalReviews)
	}

	return stats, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*Review, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) List(ctx context.Context, filter ListFilter) (*ListResult, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = defaultPageLimit
	}
	if filter.Limit > maxPageLimit {
		filter.Limit = maxPageLimit
	}

	result, err := s.repo.List(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("service: failed to list reviews")
		return nil, fmt.Errorf("service: failed to list reviews: %w", err)
	}

	return result, nil
}

// Approve marks the review approved. Approving an approved review is a no-op.
func (s *service) Approve(ctx context.Context, id uuid.UUID) (*Review, error) {
	review, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !review.IsApproved {
		if _, err := s.repo.SetApproved(ctx, []uuid.UUID{id}, true); err != nil {
			log.Error().Err(err).Stringer("review_id", id).Msg("service: failed to approve review")
			return nil, fmt.Errorf("service: failed to approve review: %w", err)
		}
		review.IsApproved = true
		log.Info().Stringer("review_id", id).Msg("service: review approved")
	}

	return review, nil
}

// ToggleVisibility flips the visible flag. Each call flips state, so blind
// retries are not safe for callers.
func (s *service) ToggleVisibility(ctx context.Context, id uuid.UUID) (*Review, error) {
	review, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	newVisible := !review.IsVisible
	if _, err := s.repo.SetVisible(ctx, []uuid.UUID{id}, newVisible); err != nil {
		log.Error().Err(err).Stringer("review_id", id).Msg("service: failed to toggle review visibility")
		return nil, fmt.Errorf("service: failed to toggle review visibility: %w", err)
	}
	review.IsVisible = newVisible

	log.Info().Stringer("review_id", id).Bool("visible", newVisible).Msg("service: review visibility toggled")

	return review, nil
}

func (s *service) AdminUpdate(ctx context.Context, id uuid.UUID, patch AdminPatch) (*Review, error) {
	review, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.Rating != nil {
		if *patch.Rating < 1 || *patch.Rating > 5 {
			return nil, ErrInvalidRating
		}
		review.Rating = *patch.Rating
	}
	if patch.Comment != nil {
		review.Comment = *patch.Comment
	}
	if patch.Images != nil {
		review.Images = *patch.Images
	}
	if patch.IsApproved != nil {
		review.IsApproved = *patch.IsApproved
	}
	if patch.IsVisible != nil {
		review.IsVisible = *patch.IsVisible
	}

	if err := s.repo.Update(ctx, review); err != nil {
		log.Error().Err(err).Stringer("review_id", id).Msg("service: failed to update review as admin")
		return nil, fmt.Errorf("service: failed to update review: %w", err)
	}

	return review, nil
}

func (s *service) BulkApprove(ctx context.Context, ids []uuid.UUID) (int64, error) {
	affected, err := s.repo.SetApproved(ctx, ids, true)
	if err != nil {
		log.Error().Err(err).Int("count", len(ids)).Msg("service: bulk approve failed")
		return 0, fmt.Errorf("service: bulk approve failed: %w", err)
	}

	log.Info().Int64("affected", affected).Msg("service: reviews bulk approved")
	return affected, nil
}

func (s *service) BulkHide(ctx context.Context, ids []uuid.UUID) (int64, error) {
	affected, err := s.repo.SetVisible(ctx, ids, false)
	if err != nil {
		log.Error().Err(err).Int("count", len(ids)).Msg("service: bulk hide failed")
		return 0, fmt.Errorf("service: bulk hide failed: %w", err)
	}

	log.Info().Int64("affected", affected).Msg("service: reviews bulk hidden")
	return affected, nil
}

func (s *service) BulkDelete(ctx context.Context, ids []uuid.UUID) (int64, error) {
	affected, err := s.repo.DeleteMany(ctx, ids)
	if err != nil {
		log.Error().Err(err).Int("count", len(ids)).Msg("service: bulk delete failed")
		return 0, fmt.Errorf("service: bulk delete failed: %w", err)
	}

	log.Info().Int64("affected", affected).Msg("service: reviews bulk deleted")
	return affected, nil
}

// decorateAuthors fills the Author field from the user service. Lookup
// failures leave the author empty rather than failing the listing.
func (s *service) decorateAuthors(ctx context.Context, reviews []Review) {
	if s.profiles == nil {
		return
	}

	cache := make(map[uuid.UUID]*Author)
	for i := range reviews {
		userID := reviews[i].UserID
		author, seen := cache[userID]
		if !seen {
			var err error
			author, err = s.profiles.GetProfile(ctx, userID)
			if err != nil {
				log.Warn().Err(err).Stringer("user_id", userID).Msg("service: failed to load review author profile")
				author = nil
			}
			cache[userID] = author
		}
		reviews[i].Author = author
	}
}
