package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"

	"github.com/kembakery/cakeshop/internal/auth"
	"github.com/kembakery/cakeshop/internal/review"
)

type CreateReviewRequest struct {
	ProductID uuid.UUID `json:"productId" validate:"required"`
	OrderID   uuid.UUID `json:"orderId" validate:"required"`
	Rating    int       `json:"rating" validate:"required,min=1,max=5"`
	Comment   string    `json:"comment" validate:"omitempty,max=2000"`
	Images    []string  `json:"images" validate:"omitempty,max=10,dive,url"`
}

type UpdateReviewRequest struct {
	Rating  *int      `json:"rating,omitempty" validate:"omitempty,min=1,max=5"`
	Comment *string   `json:"comment,omitempty" validate:"omitempty,max=2000"`
	Images  *[]string `json:"images,omitempty" validate:"omitempty,max=10,dive,url"`
}

type AdminUpdateReviewRequest struct {
	Rating     *int      `json:"rating,omitempty" validate:"omitempty,min=1,max=5"`
	Comment    *string   `json:"comment,omitempty" validate:"omitempty,max=2000"`
	Images     *[]string `json:"images,omitempty" validate:"omitempty,max=10,dive,url"`
	IsApproved *bool     `json:"isApproved,omitempty"`
	IsVisible  *bool     `json:"isVisible,omitempty"`
}

type BulkReviewRequest struct {
	ReviewIDs []uuid.UUID `json:"reviewIds" validate:"required,min=1"`
}

type BulkReviewResponse struct {
	Affected int64 `json:"affected"`
}

type ReviewHandler struct {
	service  review.Service
	verifier *auth.Verifier
	validate *validator.Validate
}

func NewReviewHandler(service review.Service, verifier *auth.Verifier) *ReviewHandler {
	return &ReviewHandler{
		service:  service,
		verifier: verifier,
		validate: validator.New(),
	}
}

func (h *ReviewHandler) RegisterRoutes(router chi.Router) {
	router.Get("/reviews/products/{productId}", h.handleListByProduct)
	router.Get("/reviews/products/{productId}/stats", h.handleProductStats)

	router.Group(func(r chi.Router) {
		r.Use(h.verifier.Middleware)

		r.Post("/reviews", h.handleCreateReview)
		r.Get("/reviews/my-reviews", h.handleMyReviews)
		r.Get("/reviews/check/{productId}/{orderId}", h.handleCheckReviewed)
		r.Patch("/reviews/{id}", h.handleUpdateReview)
		r.Delete("/reviews/{id}", h.handleDeleteReview)
	})

	router.Group(func(r chi.Router) {
		r.Use(h.verifier.Middleware, auth.RequireAdmin)

		r.Get("/reviews/admin/all", h.handleAdminList)
		r.Get("/reviews/admin/{id}", h.handleAdminGet)
		r.Patch("/reviews/admin/{id}", h.handleAdminUpdate)
		r.Patch("/reviews/admin/{id}/approve", h.handleApprove)
		r.Patch("/reviews/admin/{id}/toggle-visibility", h.handleToggleVisibility)
		r.Delete("/reviews/admin/{id}", h.handleAdminDelete)
		r.Post("/reviews/admin/bulk-approve", h.handleBulk(h.service.BulkApprove))
		r.Post("/reviews/admin/bulk-hide", h.handleBulk(h.service.BulkHide))
		r.Post("/reviews/admin/bulk-delete", h.handleBulk(h.service.BulkDelete))
	})
}

func (h *ReviewHandler) handleCreateReview(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var requestPayload CreateReviewRequest

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(&requestPayload); err != nil {
		log.Error().Err(err).Msg("Failed to decode request body")
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	if err := h.validate.Struct(requestPayload); err != nil {
		respondWithValidationError(w, err)
		return
	}

	createdReview, err := h.service.Create(r.Context(), userID, review.CreateInput{
		ProductID: requestPayload.ProductID,
		OrderID:   requestPayload.OrderID,
		Rating:    requestPayload.Rating,
		Comment:   requestPayload.Comment,
		Images:    requestPayload.Images,
	})
	if err != nil {
		log.Error().Err(err).Msg("Failed to create review via service")

		statusCode := mapErrorToStatusCode(err)

		var clientMessage string

		switch {
		case errors.Is(err, review.ErrNotPurchased):
			clientMessage = "You can only review products you have purchased"
		case errors.Is(err, review.ErrAlreadyReviewed):
			clientMessage = "You have already reviewed this product for this order"
		case errors.Is(err, review.ErrInvalidRating):
			clientMessage = "Rating must be between 1 and 5"
		default:
			clientMessage = "Failed to create review"
		}

		respondWithError(w, statusCode, clientMessage)
		return
	}

	respondWithJSON(w, http.StatusCreated, createdReview)
}

func (h *ReviewHandler) handleListByProduct(w http.ResponseWriter, r *http.Request) {
	productID, err := uuid.FromString(chi.URLParam(r, "productId"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid productId parameter")
		return
	}

	reviews, err := h.service.ApprovedByProduct(r.Context(), productID)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list product reviews via service")
		respondWithError(w, mapErrorToStatusCode(err), "Failed to list product reviews")
		return
	}

	respondWithJSON(w, http.StatusOK, reviews)
}

func (h *ReviewHandler) handleProductStats(w http.ResponseWriter, r *http.Request) {
	productID, err := uuid.FromString(chi.URLParam(r, "productId"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid productId parameter")
		return
	}

	stats, err := h.service.ProductStats(r.Context(), productID)
	if err != nil {
		log.Error().Err(err).Msg("Failed to compute product review stats via service")
		respondWithError(w, mapErrorToStatusCode(err), "Failed to compute review stats")
		return
	}

	respondWithJSON(w, http.StatusOK, stats)
}

func (h *ReviewHandler) handleMyReviews(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	reviews, err := h.service.ByUser(r.Context(), userID)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list user reviews via service")
		respondWithError(w, mapErrorToStatusCode(err), "Failed to list reviews")
		return
	}

	respondWithJSON(w, http.StatusOK, reviews)
}

func (h *ReviewHandler) handleCheckReviewed(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	productID, err := uuid.FromString(chi.URLParam(r, "productId"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid productId parameter")
		return
	}
	orderID, err := uuid.FromString(chi.URLParam(r, "orderId"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid orderId parameter")
		return
	}

	result, err := h.service.HasReviewed(r.Context(), userID, productID, orderID)
	if err != nil {
		log.Error().Err(err).Msg("Failed to check review existence via service")
		respondWithError(w, mapErrorToStatusCode(err), "Failed to check review")
		return
	}

	respondWithJSON(w, http.StatusOK, result)
}

func (h *ReviewHandler) handleUpdateReview(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	reviewID, err := uuid.FromString(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid id parameter")
		return
	}

	var requestPayload UpdateReviewRequest

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(&requestPayload); err != nil {
		log.Error().Err(err).Msg("Failed to decode request body")
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	if err := h.validate.Struct(requestPayload); err != nil {
		respondWithValidationError(w, err)
		return
	}

	updatedReview, err := h.service.UpdateByUser(r.Context(), reviewID, userID, review.UserPatch{
		Rating:  requestPayload.Rating,
		Comment: requestPayload.Comment,
		Images:  requestPayload.Images,
	})
	if err != nil {
		log.Error().Err(err).Msg("Failed to update review via service")

		statusCode := mapErrorToStatusCode(err)

		var clientMessage string

		switch {
		case errors.Is(err, review.ErrNotFound):
			clientMessage = "Review not found"
		case errors.Is(err, review.ErrForbidden):
			clientMessage = "You can only edit your own reviews"
		default:
			clientMessage = "Failed to update review"
		}

		respondWithError(w, statusCode, clientMessage)
		return
	}

	respondWithJSON(w, http.StatusOK, updatedReview)
}

func (h *ReviewHandler) handleDeleteReview(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	reviewID, err := uuid.FromString(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid id parameter")
		return
	}

	err = h.service.Delete(r.Context(), reviewID, userID, auth.IsAdmin(r.Context()))
	if err != nil {
		log.Error().Err(err).Msg("Failed to delete review via service")

		statusCode := mapErrorToStatusCode(err)

		var clientMessage string

		switch {
		case errors.Is(err, review.ErrNotFound):
			clientMessage = "Review not found"
		case errors.Is(err, review.ErrForbidden):
			clientMessage = "You can only delete your own reviews"
		default:
			clientMessage = "Failed to delete review"
		}

		respondWithError(w, statusCode, clientMessage)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *ReviewHandler) handleAdminList(w http.ResponseWriter, r *http.Request) {
	filter, err := parseReviewListFilter(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.service.List(r.Context(), filter)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list reviews via service")
		respondWithError(w, mapErrorToStatusCode(err), "Failed to list reviews")
		return
	}

	respondWithJSON(w, http.StatusOK, result)
}

func (h *ReviewHandler) handleAdminGet(w http.ResponseWriter, r *http.Request) {
	reviewID, err := uuid.FromString(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid id parameter")
		return
	}

	foundReview, err := h.service.Get(r.Context(), reviewID)
	if err != nil {
		log.Error().Err(err).Msg("Failed to get review via service")

		if errors.Is(err, review.ErrNotFound) {
			respondWithError(w, http.StatusNotFound, "Review not found")
		} else {
			respondWithError(w, mapErrorToStatusCode(err), "Failed to get review")
		}
		return
	}

	respondWithJSON(w, http.StatusOK, foundReview)
}

func (h *ReviewHandler) handleAdminUpdate(w http.ResponseWriter, r *http.Request) {
	reviewID, err := uuid.FromString(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid id parameter")
		return
	}

	var requestPayload AdminUpdateReviewRequest

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(&requestPayload); err != nil {
		log.Error().Err(err).Msg("Failed to decode request body")
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	if err := h.validate.Struct(requestPayload); err != nil {
		respondWithValidationError(w, err)
		return
	}

	updatedReview, err := h.service.AdminUpdate(r.Context(), reviewID, review.AdminPatch{
		Rating:     requestPayload.Rating,
		Comment:    requestPayload.Comment,
		Images:     requestPayload.Images,
		IsApproved: requestPayload.IsApproved,
		IsVisible:  requestPayload.IsVisible,
	})
	if err != nil {
		log.Error().Err(err).Msg("Failed to update review via service")

		if errors.Is(err, review.ErrNotFound) {
			respondWithError(w, http.StatusNotFound, "Review not found")
		} else {
			respondWithError(w, mapErrorToStatusCode(err), "Failed to update review")
		}
		return
	}

	respondWithJSON(w, http.StatusOK, updatedReview)
}

func (h *ReviewHandler) handleApprove(w http.ResponseWriter, r *http.Request) {
	reviewID, err := uuid.FromString(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid id parameter")
		return
	}

	approvedReview, err := h.service.Approve(r.Context(), reviewID)
	if err != nil {
		log.Error().Err(err).Msg("Failed to approve review via service")

		if errors.Is(err, review.ErrNotFound) {
			respondWithError(w, http.StatusNotFound, "Review not found")
		} else {
			respondWithError(w, mapErrorToStatusCode(err), "Failed to approve review")
		}
		return
	}

	respondWithJSON(w, http.StatusOK, approvedReview)
}

func (h *ReviewHandler) handleToggleVisibility(w http.ResponseWriter, r *http.Request) {
	reviewID, err := uuid.FromString(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid id parameter")
		return
	}

	toggledReview, err := h.service.ToggleVisibility(r.Context(), reviewID)
	if err != nil {
		log.Error().Err(err).Msg("Failed to toggle review visibility via service")

		if errors.Is(err, review.ErrNotFound) {
			respondWithError(w, http.StatusNotFound, "Review not found")
		} else {
			respondWithError(w, mapErrorToStatusCode(err), "Failed to toggle review visibility")
		}
		return
	}

	respondWithJSON(w, http.StatusOK, toggledReview)
}

func (h *ReviewHandler) handleAdminDelete(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	reviewID, err := uuid.FromString(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid id parameter")
		return
	}

	err = h.service.Delete(r.Context(), reviewID, userID, true)
	if err != nil {
		log.Error().Err(err).Msg("Failed to delete review via service")

		if errors.Is(err, review.ErrNotFound) {
			respondWithError(w, http.StatusNotFound, "Review not found")
		} else {
			respondWithError(w, mapErrorToStatusCode(err), "Failed to delete review")
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *ReviewHandler) handleBulk(op func(ctx context.Context, ids []uuid.UUID) (int64, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var requestPayload BulkReviewRequest

		decoder := json.NewDecoder(r.Body)
		decoder.DisallowUnknownFields()

		if err := decoder.Decode(&requestPayload); err != nil {
			log.Error().Err(err).Msg("Failed to decode request body")
			respondWithError(w, http.StatusBadRequest, "Invalid request payload")
			return
		}

		if err := h.validate.Struct(requestPayload); err != nil {
			respondWithValidationError(w, err)
			return
		}

		affected, err := op(r.Context(), requestPayload.ReviewIDs)
		if err != nil {
			log.Error().Err(err).Msg("Failed bulk review operation via service")
			respondWithError(w, mapErrorToStatusCode(err), "Failed bulk review operation")
			return
		}

		respondWithJSON(w, http.StatusOK, BulkReviewResponse{Affected: affected})
	}
}

func parseReviewListFilter(r *http.Request) (review.ListFilter, error) {
	var filter review.ListFilter

	query := r.URL.Query()

	if raw := query.Get("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil || page < 1 {
			return filter, errors.New("Invalid page parameter")
		}
		filter.Page = page
	}
	if raw := query.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			return filter, errors.New("Invalid limit parameter")
		}
		filter.Limit = limit
	}
	if raw := query.Get("isApproved"); raw != "" {
		approved, err := strconv.ParseBool(raw)
		if err != nil {
			return filter, errors.New("Invalid isApproved parameter")
		}
		filter.IsApproved = &approved
	}
	if raw := query.Get("isVisible"); raw != "" {
		visible, err := strconv.ParseBool(raw)
		if err != nil {
			return filter, errors.New("Invalid isVisible parameter")
		}
		filter.IsVisible = &visible
	}
	if raw := query.Get("productId"); raw != "" {
		productID, err := uuid.FromString(raw)
		if err != nil {
			return filter, errors.New("Invalid productId parameter")
		}
		filter.ProductID = &productID
	}
	if raw := query.Get("userId"); raw != "" {
		userID, err := uuid.FromString(raw)
		if err != nil {
			return filter, errors.New("Invalid userId parameter")
		}
		filter.UserID = &userID
	}
	if raw := query.Get("rating"); raw != "" {
		rating, err := strconv.Atoi(raw)
		if err != nil || rating < 1 || rating > 5 {
			return filter, errors.New("Invalid rating parameter")
		}
		filter.Rating = &rating
	}

	filter.SortBy = query.Get("sortBy")
	filter.Order = query.Get("order")

	return filter, nil
}
