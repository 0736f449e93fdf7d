package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"

	"github.com/kembakery/cakeshop/internal/auth"
	"github.com/kembakery/cakeshop/internal/cakeoption"
	"github.com/kembakery/cakeshop/internal/cart"
)

type AddCartItemRequest struct {
	ProductID     uuid.UUID                 `json:"productId" validate:"required"`
	Quantity      int                       `json:"quantity" validate:"required,min=1"`
	Name          string                    `json:"name" validate:"required"`
	Price         float64                   `json:"price" validate:"required,gt=0"`
	Img           string                    `json:"img"`
	Customization *cakeoption.Customization `json:"customization,omitempty"`
}

type UpdateCartItemRequest struct {
	Quantity int `json:"quantity" validate:"required,min=1"`
}

type CartHandler struct {
	service  cart.Service
	verifier *auth.Verifier
	validate *validator.Validate
}

func NewCartHandler(service cart.Service, verifier *auth.Verifier) *CartHandler {
	return &CartHandler{
		service:  service,
		verifier: verifier,
		validate: validator.New(),
	}
}

func (h *CartHandler) RegisterRoutes(router chi.Router) {
	router.Group(func(r chi.Router) {
		r.Use(h.verifier.Middleware)

		r.Get("/cart", h.handleGetCart)
		r.Post("/cart/items", h.handleAddItem)
		// Lines are addressed by line id, or by product id for regular
		// products; custom cakes share one product id across lines.
		r.Patch("/cart/items/{itemId}", h.handleUpdateQuantity)
		r.Delete("/cart/items/{itemId}", h.handleRemoveItem)
		r.Delete("/cart", h.handleClearCart)
	})
}

func (h *CartHandler) handleGetCart(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	userCart, err := h.service.Get(r.Context(), userID)
	if err != nil {
		log.Error().Err(err).Msg("Failed to get cart via service")
		respondWithError(w, mapErrorToStatusCode(err), "Failed to get cart")
		return
	}

	respondWithJSON(w, http.StatusOK, userCart)
}

func (h *CartHandler) handleAddItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var requestPayload AddCartItemRequest

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

	userCart, err := h.service.AddItem(r.Context(), userID, cart.CartItem{
		ProductID:     requestPayload.ProductID,
		Quantity:      requestPayload.Quantity,
		Name:          requestPayload.Name,
		Price:         requestPayload.Price,
		Img:           requestPayload.Img,
		Customization: requestPayload.Customization,
	})
	if err != nil {
		log.Error().Err(err).Msg("Failed to add cart item via service")

		statusCode := mapErrorToStatusCode(err)

		var clientMessage string

		switch {
		case errors.Is(err, cart.ErrCustomizationRequired):
			clientMessage = "Custom cake items require a customization"
		case errors.Is(err, cart.ErrInvalidQuantity):
			clientMessage = "Quantity must be at least 1"
		default:
			clientMessage = "Failed to add cart item"
		}

		respondWithError(w, statusCode, clientMessage)
		return
	}

	respondWithJSON(w, http.StatusOK, userCart)
}

func (h *CartHandler) handleUpdateQuantity(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	itemKey, err := uuid.FromString(chi.URLParam(r, "itemId"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid itemId parameter")
		return
	}

	var requestPayload UpdateCartItemRequest

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

	userCart, err := h.service.UpdateQuantity(r.Context(), userID, itemKey, requestPayload.Quantity)
	if err != nil {
		log.Error().Err(err).Msg("Failed to update cart item quantity via service")

		statusCode := mapErrorToStatusCode(err)

		var clientMessage string

		switch {
		case errors.Is(err, cart.ErrItemNotFound):
			clientMessage = "Cart item not found"
		case errors.Is(err, cart.ErrInvalidQuantity):
			clientMessage = "Quantity must be at least 1"
		default:
			clientMessage = "Failed to update cart item"
		}

		respondWithError(w, statusCode, clientMessage)
		return
	}

	respondWithJSON(w, http.StatusOK, userCart)
}

func (h *CartHandler) handleRemoveItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	itemKey, err := uuid.FromString(chi.URLParam(r, "itemId"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid itemId parameter")
		return
	}

	userCart, err := h.service.RemoveItem(r.Context(), userID, itemKey)
	if err != nil {
		log.Error().Err(err).Msg("Failed to remove cart item via service")

		if errors.Is(err, cart.ErrItemNotFound) {
			respondWithError(w, http.StatusNotFound, "Cart item not found")
		} else {
			respondWithError(w, mapErrorToStatusCode(err), "Failed to remove cart item")
		}
		return
	}

	respondWithJSON(w, http.StatusOK, userCart)
}

func (h *CartHandler) handleClearCart(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	if err := h.service.Clear(r.Context(), userID); err != nil {
		log.Error().Err(err).Msg("Failed to clear cart via service")
		respondWithError(w, mapErrorToStatusCode(err), "Failed to clear cart")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
