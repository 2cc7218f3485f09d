package http

import (
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/vasiliy-maslov/spud-kitchen/internal/cart"
	"github.com/vasiliy-maslov/spud-kitchen/internal/menu"
)

type AddItemRequest struct {
	ItemID         int64            `json:"itemId" validate:"required,gt=0"`
	Quantity       *int             `json:"quantity" validate:"omitempty,lte=99"`
	Customizations []menu.Selection `json:"customizations"`
}

type AddSpecialRequest struct {
	Quantity *int `json:"quantity" validate:"omitempty,lte=99"`
}

type SetQuantityRequest struct {
	Quantity *int `json:"quantity" validate:"required,lte=99"`
}

type CartHandler struct {
	service  cart.Service
	validate *validator.Validate
}

func NewCartHandler(service cart.Service) *CartHandler {
	return &CartHandler{
		service:  service,
		validate: validator.New(),
	}
}

func (h *CartHandler) RegisterRoutes(router chi.Router) {
	router.Route("/users/{userID}/cart", func(r chi.Router) {
		r.Get("/", h.handleGetCart)
		r.Delete("/", h.handleClearCart)
		r.Post("/items", h.handleAddItem)
		r.Post("/special", h.handleAddSpecial)
		r.Put("/items/{key}", h.handleSetQuantity)
		r.Delete("/items/{key}", h.handleRemoveItem)
	})
}

func quantityOrDefault(q *int) int {
	if q == nil {
		return 1
	}
	return *q
}

// cartKey returns the line key from the URL. Keys embed JSON, so clients send them percent-encoded.
func cartKey(r *http.Request) cart.Key {
	raw := chi.URLParam(r, "key")
	if unescaped, err := url.PathUnescape(raw); err == nil {
		return cart.Key(unescaped)
	}
	return cart.Key(raw)
}

func (h *CartHandler) handleGetCart(w http.ResponseWriter, r *http.Request) {
	userID, ok := uuidParam(w, r, "userID")
	if !ok {
		return
	}

	c, err := h.service.Get(r.Context(), userID)
	if err != nil {
		respondWithServiceError(w, err, "Failed to get cart")
		return
	}

	respondWithJSON(w, http.StatusOK, c)
}

func (h *CartHandler) handleAddItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := uuidParam(w, r, "userID")
	if !ok {
		return
	}

	var requestPayload AddItemRequest
	if !decodeAndValidate(w, r, h.validate, &requestPayload) {
		return
	}

	c, err := h.service.AddItem(r.Context(), userID, requestPayload.ItemID, quantityOrDefault(requestPayload.Quantity), requestPayload.Customizations)
	if err != nil {
		respondWithServiceError(w, err, "Failed to add item to cart")
		return
	}

	respondWithJSON(w, http.StatusOK, c)
}

func (h *CartHandler) handleAddSpecial(w http.ResponseWriter, r *http.Request) {
	userID, ok := uuidParam(w, r, "userID")
	if !ok {
		return
	}

	var requestPayload AddSpecialRequest
	if r.ContentLength != 0 && !decodeAndValidate(w, r, h.validate, &requestPayload) {
		return
	}

	c, err := h.service.AddSpecial(r.Context(), userID, quantityOrDefault(requestPayload.Quantity))
	if err != nil {
		respondWithServiceError(w, err, "Failed to add daily special to cart")
		return
	}

	respondWithJSON(w, http.StatusOK, c)
}

func (h *CartHandler) handleSetQuantity(w http.ResponseWriter, r *http.Request) {
	userID, ok := uuidParam(w, r, "userID")
	if !ok {
		return
	}

	var requestPayload SetQuantityRequest
	if !decodeAndValidate(w, r, h.validate, &requestPayload) {
		return
	}

	c, err := h.service.SetQuantity(r.Context(), userID, cartKey(r), *requestPayload.Quantity)
	if err != nil {
		respondWithServiceError(w, err, "Failed to update cart")
		return
	}

	respondWithJSON(w, http.StatusOK, c)
}

func (h *CartHandler) handleRemoveItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := uuidParam(w, r, "userID")
	if !ok {
		return
	}

	c, err := h.service.Remove(r.Context(), userID, cartKey(r))
	if err != nil {
		respondWithServiceError(w, err, "Failed to remove item from cart")
		return
	}

	respondWithJSON(w, http.StatusOK, c)
}

func (h *CartHandler) handleClearCart(w http.ResponseWriter, r *http.Request) {
	userID, ok := uuidParam(w, r, "userID")
	if !ok {
		return
	}

	if err := h.service.Clear(r.Context(), userID); err != nil {
		respondWithServiceError(w, err, "Failed to clear cart")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
