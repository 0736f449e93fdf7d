package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/kembakery/cakeshop/internal/cakeoption"
)

type CakeOptionHandler struct {
	service cakeoption.Service
}

func NewCakeOptionHandler(service cakeoption.Service) *CakeOptionHandler {
	return &CakeOptionHandler{service: service}
}

func (h *CakeOptionHandler) RegisterRoutes(router chi.Router) {
	router.Get("/cake-options", h.handleListOptions)
	router.Get("/cake-options/defaults", h.handleListDefaults)
	router.Get("/cake-options/category/{category}", h.handleListByCategory)
	router.Post("/cake-options/validate", h.handleValidate)
	router.Post("/cake-options/calculate-price", h.handleCalculatePrice)
}

func (h *CakeOptionHandler) handleListOptions(w http.ResponseWriter, r *http.Request) {
	grouped, err := h.service.AllOptions(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to list cake options via service")
		respondWithError(w, mapErrorToStatusCode(err), "Failed to list cake options")
		return
	}

	respondWithJSON(w, http.StatusOK, grouped)
}

func (h *CakeOptionHandler) handleListDefaults(w http.ResponseWriter, r *http.Request) {
	defaults, err := h.service.DefaultOptions(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to list default cake options via service")
		respondWithError(w, mapErrorToStatusCode(err), "Failed to list default options")
		return
	}

	respondWithJSON(w, http.StatusOK, defaults)
}

func (h *CakeOptionHandler) handleListByCategory(w http.ResponseWriter, r *http.Request) {
	categoryParam := chi.URLParam(r, "category")

	options, err := h.service.OptionsByCategory(r.Context(), categoryParam)
	if err != nil {
		log.Error().Err(err).Str("category", categoryParam).Msg("Failed to list cake options by category via service")

		statusCode := mapErrorToStatusCode(err)

		var clientMessage string

		if errors.Is(err, cakeoption.ErrInvalidCategory) {
			clientMessage = "Unknown category"
		} else {
			clientMessage = "Failed to list options by category"
		}

		respondWithError(w, statusCode, clientMessage)
		return
	}

	respondWithJSON(w, http.StatusOK, options)
}

func (h *CakeOptionHandler) handleValidate(w http.ResponseWriter, r *http.Request) {
	var customization cakeoption.Customization

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(&customization); err != nil {
		log.Error().Err(err).Msg("Failed to decode customization")
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	result, err := h.service.ValidateCustomization(r.Context(), &customization)
	if err != nil {
		log.Error().Err(err).Msg("Failed to validate customization via service")
		respondWithError(w, mapErrorToStatusCode(err), "Failed to validate customization")
		return
	}

	respondWithJSON(w, http.StatusOK, result)
}

func (h *CakeOptionHandler) handleCalculatePrice(w http.ResponseWriter, r *http.Request) {
	var customization cakeoption.Customization

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(&customization); err != nil {
		log.Error().Err(err).Msg("Failed to decode customization")
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	totalPrice, err := h.service.CalculatePrice(r.Context(), &customization)
	if err != nil {
		log.Error().Err(err).Msg("Failed to calculate price via service")

		statusCode := mapErrorToStatusCode(err)

		if errors.Is(err, cakeoption.ErrInvalidCustomization) {
			respondWithError(w, statusCode, err.Error())
		} else {
			respondWithError(w, statusCode, "Failed to calculate price")
		}
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]float64{"price": totalPrice})
}
