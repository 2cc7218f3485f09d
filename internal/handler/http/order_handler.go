package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/vasiliy-maslov/spud-kitchen/internal/order"
	"github.com/vasiliy-maslov/spud-kitchen/internal/pricing"
)

type QuoteRequest struct {
	OrderType      string `json:"orderType" validate:"required,oneof=delivery pickup"`
	PromoCode      string `json:"promoCode"`
	PointsToRedeem int64  `json:"pointsToRedeem"`
}

func (q QuoteRequest) toDomain() order.QuoteRequest {
	return order.QuoteRequest{
		OrderType:      pricing.OrderType(q.OrderType),
		PromoCode:      q.PromoCode,
		PointsToRedeem: q.PointsToRedeem,
	}
}

type ConfirmRequest struct {
	QuoteRequest
	DeliveryAddress        string     `json:"deliveryAddress"`
	PickupTime             string     `json:"pickupTime"`
	ScheduledFor           *time.Time `json:"scheduledFor"`
	ExpectedLoyaltyVersion *int64     `json:"expectedLoyaltyVersion" validate:"omitempty,gte=0"`
}

type AdjustPointsRequest struct {
	Points *int64 `json:"points" validate:"required,gte=0"`
}

type OrderHandler struct {
	service  order.Service
	validate *validator.Validate
}

func NewOrderHandler(service order.Service) *OrderHandler {
	return &OrderHandler{
		service:  service,
		validate: validator.New(),
	}
}

func (h *OrderHandler) RegisterRoutes(router chi.Router) {
	router.Post("/users/{userID}/checkout/quote", h.handleQuote)
	router.Post("/users/{userID}/checkout/confirm", h.handleConfirm)
	router.Get("/users/{userID}/orders", h.handleListOrders)
	router.Get("/users/{userID}/orders/{orderID}", h.handleGetOrder)
	router.Post("/users/{userID}/orders/{orderID}/reorder", h.handleReorder)
	router.Get("/users/{userID}/loyalty", h.handleGetLoyalty)
	router.Get("/leaderboard", h.handleLeaderboard)

	router.Put("/admin/users/{userID}/points", h.handleAdjustPoints)
}

func (h *OrderHandler) handleQuote(w http.ResponseWriter, r *http.Request) {
	userID, ok := uuidParam(w, r, "userID")
	if !ok {
		return
	}

	var requestPayload QuoteRequest
	if !decodeAndValidate(w, r, h.validate, &requestPayload) {
		return
	}

	quote, err := h.service.Quote(r.Context(), userID, requestPayload.toDomain())
	if err != nil {
		respondWithServiceError(w, err, "Failed to price cart")
		return
	}

	respondWithJSON(w, http.StatusOK, quote)
}

func (h *OrderHandler) handleConfirm(w http.ResponseWriter, r *http.Request) {
	userID, ok := uuidParam(w, r, "userID")
	if !ok {
		return
	}

	var requestPayload ConfirmRequest
	if !decodeAndValidate(w, r, h.validate, &requestPayload) {
		return
	}

	confirmation, err := h.service.Confirm(r.Context(), userID, order.ConfirmRequest{
		QuoteRequest: requestPayload.toDomain(),
		Fulfillment: order.Fulfillment{
			DeliveryAddress: requestPayload.DeliveryAddress,
			PickupTime:      requestPayload.PickupTime,
			ScheduledFor:    requestPayload.ScheduledFor,
		},
		ExpectedLoyaltyVersion: requestPayload.ExpectedLoyaltyVersion,
	})
	if err != nil {
		respondWithServiceError(w, err, "Failed to confirm order")
		return
	}

	respondWithJSON(w, http.StatusCreated, confirmation)
}

func (h *OrderHandler) handleListOrders(w http.ResponseWriter, r *http.Request) {
	userID, ok := uuidParam(w, r, "userID")
	if !ok {
		return
	}

	history, err := h.service.History(r.Context(), userID)
	if err != nil {
		respondWithServiceError(w, err, "Failed to get order history")
		return
	}

	respondWithJSON(w, http.StatusOK, history)
}

func (h *OrderHandler) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	userID, ok := uuidParam(w, r, "userID")
	if !ok {
		return
	}
	orderID, ok := uuidParam(w, r, "orderID")
	if !ok {
		return
	}

	o, err := h.service.GetOrder(r.Context(), userID, orderID)
	if err != nil {
		respondWithServiceError(w, err, "Failed to get order")
		return
	}

	respondWithJSON(w, http.StatusOK, o)
}

func (h *OrderHandler) handleReorder(w http.ResponseWriter, r *http.Request) {
	userID, ok := uuidParam(w, r, "userID")
	if !ok {
		return
	}
	orderID, ok := uuidParam(w, r, "orderID")
	if !ok {
		return
	}

	c, err := h.service.Reorder(r.Context(), userID, orderID)
	if err != nil {
		respondWithServiceError(w, err, "Failed to reorder")
		return
	}

	respondWithJSON(w, http.StatusOK, c)
}

func (h *OrderHandler) handleGetLoyalty(w http.ResponseWriter, r *http.Request) {
	userID, ok := uuidParam(w, r, "userID")
	if !ok {
		return
	}

	summary, err := h.service.Loyalty(r.Context(), userID)
	if err != nil {
		respondWithServiceError(w, err, "Failed to get loyalty summary")
		return
	}

	respondWithJSON(w, http.StatusOK, summary)
}

func (h *OrderHandler) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			respondWithError(w, http.StatusBadRequest, "Invalid limit parameter")
			return
		}
		limit = min(n, order.MaxLeaderboardSize)
	}

	standings, err := h.service.Leaderboard(r.Context(), limit)
	if err != nil {
		respondWithServiceError(w, err, "Failed to get leaderboard")
		return
	}

	respondWithJSON(w, http.StatusOK, standings)
}

func (h *OrderHandler) handleAdjustPoints(w http.ResponseWriter, r *http.Request) {
	userID, ok := uuidParam(w, r, "userID")
	if !ok {
		return
	}

	var requestPayload AdjustPointsRequest
	if !decodeAndValidate(w, r, h.validate, &requestPayload) {
		return
	}

	summary, err := h.service.AdjustPoints(r.Context(), userID, *requestPayload.Points)
	if err != nil {
		respondWithServiceError(w, err, "Failed to adjust points")
		return
	}

	respondWithJSON(w, http.StatusOK, summary)
}
