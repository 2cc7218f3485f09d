package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/vasiliy-maslov/spud-kitchen/internal/promo"
)

type ValidatePromoRequest struct {
	Code string `json:"code" validate:"required"`
}

type CreatePromoRequest struct {
	Code               string          `json:"code" validate:"required"`
	DiscountPercentage decimal.Decimal `json:"discountPercentage"`
}

type PromoHandler struct {
	service  promo.Service
	validate *validator.Validate
}

func NewPromoHandler(service promo.Service) *PromoHandler {
	return &PromoHandler{
		service:  service,
		validate: validator.New(),
	}
}

func (h *PromoHandler) RegisterRoutes(router chi.Router) {
	router.Post("/promos/validate", h.handleValidate)

	router.Get("/admin/promos", h.handleList)
	router.Post("/admin/promos", h.handleCreate)
	router.Post("/admin/promos/{code}/toggle", h.handleToggle)
	router.Delete("/admin/promos/{code}", h.handleDelete)
}

func (h *PromoHandler) handleValidate(w http.ResponseWriter, r *http.Request) {
	var requestPayload ValidatePromoRequest
	if !decodeAndValidate(w, r, h.validate, &requestPayload) {
		return
	}

	p, err := h.service.FindActive(r.Context(), requestPayload.Code)
	if err != nil {
		respondWithServiceError(w, err, "Failed to validate promo code")
		return
	}

	respondWithJSON(w, http.StatusOK, p)
}

func (h *PromoHandler) handleList(w http.ResponseWriter, r *http.Request) {
	codes, err := h.service.List(r.Context())
	if err != nil {
		respondWithServiceError(w, err, "Failed to list promo codes")
		return
	}

	respondWithJSON(w, http.StatusOK, codes)
}

func (h *PromoHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var requestPayload CreatePromoRequest
	if !decodeAndValidate(w, r, h.validate, &requestPayload) {
		return
	}

	p, err := h.service.Create(r.Context(), requestPayload.Code, requestPayload.DiscountPercentage)
	if err != nil {
		respondWithServiceError(w, err, "Failed to create promo code")
		return
	}

	respondWithJSON(w, http.StatusCreated, p)
}

func (h *PromoHandler) handleToggle(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.Toggle(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		respondWithServiceError(w, err, "Failed to toggle promo code")
		return
	}

	respondWithJSON(w, http.StatusOK, p)
}

func (h *PromoHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "code")); err != nil {
		respondWithServiceError(w, err, "Failed to delete promo code")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
