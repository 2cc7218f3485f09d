package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"github.com/vasiliy-maslov/spud-kitchen/internal/menu"
	"github.com/vasiliy-maslov/spud-kitchen/internal/money"
)

type MenuItemRequest struct {
	Name           string                       `json:"name" validate:"required"`
	Description    string                       `json:"description"`
	Price          money.Cents                  `json:"price" validate:"gte=0"`
	Category       string                       `json:"category" validate:"required"`
	Available      *bool                        `json:"available"`
	SpicyLevel     int                          `json:"spicyLevel" validate:"gte=0,lte=3"`
	DietaryTags    []menu.Dietary               `json:"dietaryTags"`
	Customizations []menu.CustomizationCategory `json:"customizations"`
}

type ReviewRequest struct {
	Author  string `json:"author" validate:"required,max=100"`
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment" validate:"max=1000"`
}

type AvailabilityRequest struct {
	Available *bool `json:"available" validate:"required"`
}

type DailySpecialRequest struct {
	ItemID       int64       `json:"itemId" validate:"required,gt=0"`
	SpecialPrice money.Cents `json:"specialPrice" validate:"gte=0"`
	Description  string      `json:"description"`
}

type DailySpecialResponse struct {
	menu.DailySpecial
	Item menu.MenuItem `json:"item"`
}

type MenuHandler struct {
	service  menu.Service
	validate *validator.Validate
}

func NewMenuHandler(service menu.Service) *MenuHandler {
	return &MenuHandler{
		service:  service,
		validate: validator.New(),
	}
}

func (h *MenuHandler) RegisterRoutes(router chi.Router) {
	router.Get("/menu", h.handleListMenu)
	router.Get("/menu/special", h.handleGetSpecial)
	router.Get("/menu/{id}", h.handleGetItem)
	router.Post("/menu/{id}/reviews", h.handleAddReview)

	router.Put("/admin/menu/{id}", h.handleSaveItem)
	router.Delete("/admin/menu/{id}", h.handleDeleteItem)
	router.Put("/admin/menu/{id}/availability", h.handleSetAvailability)
	router.Put("/admin/special", h.handleSetSpecial)
}

// handleListMenu accepts ?category=, ?q= and repeated or comma separated ?dietary=.
func (h *MenuHandler) handleListMenu(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	dietary, err := menu.ParseDietary(query["dietary"]...)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	items, err := h.service.Search(r.Context(), menu.Filter{
		Category: strings.TrimSpace(query.Get("category")),
		Dietary:  dietary,
		Search:   strings.TrimSpace(query.Get("q")),
	})
	if err != nil {
		respondWithServiceError(w, err, "Failed to list menu")
		return
	}

	respondWithJSON(w, http.StatusOK, items)
}

func (h *MenuHandler) handleGetItem(w http.ResponseWriter, r *http.Request) {
	id, ok := int64Param(w, r, "id")
	if !ok {
		return
	}

	item, err := h.service.GetItem(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, err, "Failed to get menu item")
		return
	}

	respondWithJSON(w, http.StatusOK, item)
}

func (h *MenuHandler) handleAddReview(w http.ResponseWriter, r *http.Request) {
	id, ok := int64Param(w, r, "id")
	if !ok {
		return
	}

	var requestPayload ReviewRequest
	if !decodeAndValidate(w, r, h.validate, &requestPayload) {
		return
	}

	item, err := h.service.AddReview(r.Context(), id, menu.Review{
		Author:  requestPayload.Author,
		Rating:  requestPayload.Rating,
		Comment: requestPayload.Comment,
	})
	if err != nil {
		respondWithServiceError(w, err, "Failed to add review")
		return
	}

	respondWithJSON(w, http.StatusCreated, item)
}

func (h *MenuHandler) handleGetSpecial(w http.ResponseWriter, r *http.Request) {
	special, err := h.service.DailySpecial(r.Context())
	if err != nil {
		respondWithServiceError(w, err, "Failed to get daily special")
		return
	}

	item, err := h.service.GetItem(r.Context(), special.ItemID)
	if err != nil {
		if errors.Is(err, menu.ErrItemNotFound) {
			respondWithError(w, http.StatusNotFound, "No daily special today")
			return
		}
		respondWithServiceError(w, err, "Failed to get daily special")
		return
	}

	respondWithJSON(w, http.StatusOK, DailySpecialResponse{DailySpecial: special, Item: item})
}

func (h *MenuHandler) handleSaveItem(w http.ResponseWriter, r *http.Request) {
	id, ok := int64Param(w, r, "id")
	if !ok {
		return
	}

	var requestPayload MenuItemRequest
	if !decodeAndValidate(w, r, h.validate, &requestPayload) {
		return
	}

	item := menu.MenuItem{
		ID:             id,
		Name:           requestPayload.Name,
		Description:    requestPayload.Description,
		Price:          requestPayload.Price,
		Category:       requestPayload.Category,
		Available:      requestPayload.Available == nil || *requestPayload.Available,
		SpicyLevel:     requestPayload.SpicyLevel,
		DietaryTags:    requestPayload.DietaryTags,
		Customizations: requestPayload.Customizations,
	}

	if err := h.service.SaveItem(r.Context(), item); err != nil {
		respondWithServiceError(w, err, "Failed to save menu item")
		return
	}

	log.Info().Int64("item_id", id).Msg("Menu item saved")
	respondWithJSON(w, http.StatusOK, item)
}

func (h *MenuHandler) handleDeleteItem(w http.ResponseWriter, r *http.Request) {
	id, ok := int64Param(w, r, "id")
	if !ok {
		return
	}

	if err := h.service.DeleteItem(r.Context(), id); err != nil {
		respondWithServiceError(w, err, "Failed to delete menu item")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *MenuHandler) handleSetAvailability(w http.ResponseWriter, r *http.Request) {
	id, ok := int64Param(w, r, "id")
	if !ok {
		return
	}

	var requestPayload AvailabilityRequest
	if !decodeAndValidate(w, r, h.validate, &requestPayload) {
		return
	}

	if err := h.service.SetAvailability(r.Context(), id, *requestPayload.Available); err != nil {
		respondWithServiceError(w, err, "Failed to update availability")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *MenuHandler) handleSetSpecial(w http.ResponseWriter, r *http.Request) {
	var requestPayload DailySpecialRequest
	if !decodeAndValidate(w, r, h.validate, &requestPayload) {
		return
	}

	special := menu.DailySpecial{
		ItemID:       requestPayload.ItemID,
		SpecialPrice: requestPayload.SpecialPrice,
		Description:  requestPayload.Description,
	}
	if err := h.service.SetDailySpecial(r.Context(), special); err != nil {
		respondWithServiceError(w, err, "Failed to set daily special")
		return
	}

	respondWithJSON(w, http.StatusOK, special)
}
