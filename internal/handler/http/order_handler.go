package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"

	"github.com/kembakery/cakeshop/internal/auth"
	"github.com/kembakery/cakeshop/internal/cakeoption"
	"github.com/kembakery/cakeshop/internal/order"
)

type OrderItemRequest struct {
	ProductID     uuid.UUID                 `json:"productId" validate:"required"`
	Quantity      int                       `json:"quantity" validate:"required,min=1"`
	Price         float64                   `json:"price" validate:"required,gt=0"`
	ProductName   string                    `json:"productName" validate:"required"`
	ProductImg    string                    `json:"productImg"`
	Customization *cakeoption.Customization `json:"customization,omitempty"`
	IsCustomCake  bool                      `json:"isCustomCake"`
}

type CreateOrderRequest struct {
	Items            []OrderItemRequest `json:"items" validate:"required,min=1,dive"`
	ShippingAddress  string             `json:"shippingAddress" validate:"required"`
	Phone            string             `json:"phone" validate:"omitempty,min=5"`
	DeliveryDate     *time.Time         `json:"deliveryDate,omitempty"`
	DeliveryTimeSlot string             `json:"deliveryTimeSlot,omitempty"`
	DeliveryNotes    string             `json:"deliveryNotes,omitempty"`
}

type UpdateOrderStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

type VerifyPurchaseResponse struct {
	Purchased bool `json:"purchased"`
}

type OrderHandler struct {
	service  order.Service
	verifier *auth.Verifier
	validate *validator.Validate
}

func NewOrderHandler(service order.Service, verifier *auth.Verifier) *OrderHandler {
	return &OrderHandler{
		service:  service,
		verifier: verifier,
		validate: validator.New(),
	}
}

func (h *OrderHandler) RegisterRoutes(router chi.Router) {
	// Internal read used by the product service for purchase verification.
	router.Get("/orders/verify-purchase", h.handleVerifyPurchase)

	router.Group(func(r chi.Router) {
		r.Use(h.verifier.Middleware)

		r.Post("/orders", h.handleCreateOrder)
		r.Get("/orders/my", h.handleMyOrders)
		r.Get("/orders/{id}", h.handleGetOrder)
	})

	router.Group(func(r chi.Router) {
		r.Use(h.verifier.Middleware, auth.RequireAdmin)

		r.Patch("/orders/{id}/status", h.handleUpdateStatus)
	})
}

func (h *OrderHandler) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var requestPayload CreateOrderRequest

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

	if requestPayload.DeliveryTimeSlot != "" && !order.ValidTimeSlot(requestPayload.DeliveryTimeSlot) {
		respondWithError(w, http.StatusBadRequest, "Invalid delivery time slot")
		return
	}

	items := make([]order.OrderItem, 0, len(requestPayload.Items))
	for _, item := range requestPayload.Items {
		items = append(items, order.OrderItem{
			ProductID:     item.ProductID,
			Quantity:      item.Quantity,
			Price:         item.Price,
			ProductName:   item.ProductName,
			ProductImg:    item.ProductImg,
			Customization: item.Customization,
			IsCustomCake:  item.IsCustomCake,
		})
	}

	createdOrder, err := h.service.CreateOrder(r.Context(), &order.Order{
		UserID:           userID,
		Items:            items,
		ShippingAddress:  requestPayload.ShippingAddress,
		Phone:            requestPayload.Phone,
		DeliveryDate:     requestPayload.DeliveryDate,
		DeliveryTimeSlot: order.DeliveryTimeSlot(requestPayload.DeliveryTimeSlot),
		DeliveryNotes:    requestPayload.DeliveryNotes,
	})
	if err != nil {
		log.Error().Err(err).Msg("Failed to create order via service")

		statusCode := mapErrorToStatusCode(err)

		var clientMessage string

		switch {
		case errors.Is(err, order.ErrEmptyOrder):
			clientMessage = "Order must contain at least one item"
		case errors.Is(err, order.ErrMissingCustomization):
			clientMessage = "Custom cake items require a customization"
		case errors.Is(err, order.ErrInvalidItem),
			errors.Is(err, cakeoption.ErrInvalidCustomization):
			clientMessage = err.Error()
		default:
			clientMessage = "Failed to create order"
		}

		respondWithError(w, statusCode, clientMessage)
		return
	}

	respondWithJSON(w, http.StatusCreated, createdOrder)
}

func (h *OrderHandler) handleMyOrders(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	orders, err := h.service.GetOrdersByUserID(r.Context(), userID)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list orders via service")
		respondWithError(w, mapErrorToStatusCode(err), "Failed to list orders")
		return
	}

	respondWithJSON(w, http.StatusOK, orders)
}

func (h *OrderHandler) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	orderID, err := uuid.FromString(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid id parameter")
		return
	}

	foundOrder, err := h.service.GetOrderByID(r.Context(), orderID)
	if err != nil {
		log.Error().Err(err).Msg("Failed to get order via service")

		if errors.Is(err, order.ErrOrderNotFound) {
			respondWithError(w, http.StatusNotFound, "Order not found")
		} else {
			respondWithError(w, mapErrorToStatusCode(err), "Failed to get order")
		}
		return
	}

	if foundOrder.UserID != userID && !auth.IsAdmin(r.Context()) {
		respondWithError(w, http.StatusForbidden, "You can only view your own orders")
		return
	}

	respondWithJSON(w, http.StatusOK, foundOrder)
}

func (h *OrderHandler) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.FromString(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid id parameter")
		return
	}

	var requestPayload UpdateOrderStatusRequest

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

	if !order.ValidStatus(requestPayload.Status) {
		respondWithError(w, http.StatusBadRequest, "Unknown order status")
		return
	}

	err = h.service.UpdateOrderStatus(r.Context(), orderID, order.Status(requestPayload.Status))
	if err != nil {
		log.Error().Err(err).Msg("Failed to update order status via service")

		statusCode := mapErrorToStatusCode(err)

		var clientMessage string

		switch {
		case errors.Is(err, order.ErrOrderNotFound):
			clientMessage = "Order not found"
		case errors.Is(err, order.ErrInvalidStatusTransition):
			clientMessage = err.Error()
		default:
			clientMessage = "Failed to update order status"
		}

		respondWithError(w, statusCode, clientMessage)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *OrderHandler) handleVerifyPurchase(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	userID, err := uuid.FromString(query.Get("userId"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid userId parameter")
		return
	}
	productID, err := uuid.FromString(query.Get("productId"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid productId parameter")
		return
	}
	orderID, err := uuid.FromString(query.Get("orderId"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid orderId parameter")
		return
	}

	purchased, err := h.service.VerifyPurchase(r.Context(), userID, productID, orderID)
	if err != nil {
		log.Error().Err(err).Msg("Failed to verify purchase via service")
		respondWithError(w, mapErrorToStatusCode(err), "Failed to verify purchase")
		return
	}

	respondWithJSON(w, http.StatusOK, VerifyPurchaseResponse{Purchased: purchased})
}
