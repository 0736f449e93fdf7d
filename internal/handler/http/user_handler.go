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
	"github.com/kembakery/cakeshop/internal/user"
)

type CreateUserRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8"`
	FirstName string `json:"firstName" validate:"required,min=2"`
	LastName  string `json:"lastName" validate:"required,min=2"`
	Phone     string `json:"phone" validate:"omitempty,min=5"`
	Address   string `json:"address"`
}

type UpdateProfileRequest struct {
	FirstName *string `json:"firstName,omitempty" validate:"omitempty,min=2"`
	LastName  *string `json:"lastName,omitempty" validate:"omitempty,min=2"`
	Phone     *string `json:"phone,omitempty" validate:"omitempty,min=5"`
	Address   *string `json:"address,omitempty"`
	Avatar    *string `json:"avatar,omitempty" validate:"omitempty,url"`
}

type UserHandler struct {
	service  user.Service
	verifier *auth.Verifier
	validate *validator.Validate
}

func NewUserHandler(service user.Service, verifier *auth.Verifier) *UserHandler {
	return &UserHandler{
		service:  service,
		verifier: verifier,
		validate: validator.New(),
	}
}

func (h *UserHandler) RegisterRoutes(router chi.Router) {
	router.Post("/users", h.handleCreateUser)

	// Internal read used by the product service to decorate review authors.
	router.Get("/users/{id}/profile", h.handleGetProfile)

	router.Group(func(r chi.Router) {
		r.Use(h.verifier.Middleware)

		r.Get("/users/{id}", h.handleGetUser)
		r.Patch("/users/{id}", h.handleUpdateProfile)
		r.Delete("/users/{id}", h.handleDeleteUser)
	})
}

func (h *UserHandler) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var requestPayload CreateUserRequest

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

	createdUser, err := h.service.CreateUser(r.Context(), &user.User{
		Email:     requestPayload.Email,
		FirstName: requestPayload.FirstName,
		LastName:  requestPayload.LastName,
		Phone:     requestPayload.Phone,
		Address:   requestPayload.Address,
	}, requestPayload.Password)
	if err != nil {
		log.Error().Err(err).Msg("Failed to create user via service")

		statusCode := mapErrorToStatusCode(err)

		var clientMessage string

		if errors.Is(err, user.ErrEmailExists) {
			clientMessage = "Email already exists"
		} else {
			clientMessage = "Failed to create user"
		}

		respondWithError(w, statusCode, clientMessage)
		return
	}

	respondWithJSON(w, http.StatusCreated, createdUser)
}

func (h *UserHandler) handleGetUser(w http.ResponseWriter, r *http.Request) {
	requesterID, ok := auth.UserID(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	userID, err := uuid.FromString(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid id parameter")
		return
	}

	if userID != requesterID && !auth.IsAdmin(r.Context()) {
		respondWithError(w, http.StatusForbidden, "You can only view your own account")
		return
	}

	foundUser, err := h.service.GetUserByID(r.Context(), userID)
	if err != nil {
		log.Error().Err(err).Msg("Failed to get user via service")

		if errors.Is(err, user.ErrNotFound) {
			respondWithError(w, http.StatusNotFound, "User not found")
		} else {
			respondWithError(w, mapErrorToStatusCode(err), "Failed to get user")
		}
		return
	}

	respondWithJSON(w, http.StatusOK, foundUser)
}

func (h *UserHandler) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.FromString(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid id parameter")
		return
	}

	profile, err := h.service.GetProfile(r.Context(), userID)
	if err != nil {
		log.Error().Err(err).Msg("Failed to get profile via service")

		if errors.Is(err, user.ErrNotFound) {
			respondWithError(w, http.StatusNotFound, "User not found")
		} else {
			respondWithError(w, mapErrorToStatusCode(err), "Failed to get profile")
		}
		return
	}

	respondWithJSON(w, http.StatusOK, profile)
}

func (h *UserHandler) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	requesterID, ok := auth.UserID(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	userID, err := uuid.FromString(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid id parameter")
		return
	}

	if userID != requesterID {
		respondWithError(w, http.StatusForbidden, "You can only update your own profile")
		return
	}

	var requestPayload UpdateProfileRequest

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

	updatedUser, err := h.service.UpdateProfile(r.Context(), userID, user.ProfilePatch{
		FirstName: requestPayload.FirstName,
		LastName:  requestPayload.LastName,
		Phone:     requestPayload.Phone,
		Address:   requestPayload.Address,
		Avatar:    requestPayload.Avatar,
	})
	if err != nil {
		log.Error().Err(err).Msg("Failed to update profile via service")

		if errors.Is(err, user.ErrNotFound) {
			respondWithError(w, http.StatusNotFound, "User not found")
		} else {
			respondWithError(w, mapErrorToStatusCode(err), "Failed to update profile")
		}
		return
	}

	respondWithJSON(w, http.StatusOK, updatedUser)
}

func (h *UserHandler) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	requesterID, ok := auth.UserID(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	userID, err := uuid.FromString(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid id parameter")
		return
	}

	if userID != requesterID && !auth.IsAdmin(r.Context()) {
		respondWithError(w, http.StatusForbidden, "You can only delete your own account")
		return
	}

	if err := h.service.DeleteUser(r.Context(), userID); err != nil {
		log.Error().Err(err).Msg("Failed to delete user via service")

		if errors.Is(err, user.ErrNotFound) {
			respondWithError(w, http.StatusNotFound, "User not found")
		} else {
			respondWithError(w, mapErrorToStatusCode(err), "Failed to delete user")
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
