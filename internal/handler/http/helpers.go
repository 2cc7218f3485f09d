package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"

	"github.com/vasiliy-maslov/spud-kitchen/internal/cart"
	"github.com/vasiliy-maslov/spud-kitchen/internal/loyalty"
	"github.com/vasiliy-maslov/spud-kitchen/internal/menu"
	"github.com/vasiliy-maslov/spud-kitchen/internal/order"
	"github.com/vasiliy-maslov/spud-kitchen/internal/pricing"
	"github.com/vasiliy-maslov/spud-kitchen/internal/promo"
)

type ValidationErrorResponse struct {
	Error   string            `json:"error"`
	Details map[string]string `json:"details"`
}

// respondWithError отправляет JSON ошибку
func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

// respondWithJSON отправляет JSON ответ
func respondWithJSON(w http.ResponseWriter, code int, payload any) {
	response, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"Failed to marshal JSON response"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err := w.Write(response); err != nil {
		log.Error().Err(err).Msg("Failed to write JSON response")
	}
}

func formatValidationErrors(errs validator.ValidationErrors) map[string]string {
	details := make(map[string]string, len(errs))
	for _, fe := range errs {
		switch fe.Tag() {
		case "required":
			details[fe.Field()] = "is required"
		case "oneof":
			details[fe.Field()] = fmt.Sprintf("must be one of: %s", fe.Param())
		case "min", "gte":
			details[fe.Field()] = fmt.Sprintf("must be at least %s", fe.Param())
		case "max", "lte":
			details[fe.Field()] = fmt.Sprintf("must be at most %s", fe.Param())
		default:
			details[fe.Field()] = fmt.Sprintf("failed on %q", fe.Tag())
		}
	}
	return details
}

func mapErrorToStatusCode(err error) int {
	var pe *order.PersistenceError
	switch {
	case errors.As(err, &pe):
		return http.StatusServiceUnavailable
	case errors.Is(err, menu.ErrItemNotFound),
		errors.Is(err, order.ErrOrderNotFound),
		errors.Is(err, promo.ErrPromoNotFound):
		return http.StatusNotFound
	case errors.Is(err, order.ErrStaleLoyaltyState),
		errors.Is(err, promo.ErrPromoExists):
		return http.StatusConflict
	case errors.Is(err, menu.ErrItemUnavailable),
		errors.Is(err, promo.ErrInvalidPromo),
		errors.Is(err, pricing.ErrInconsistentCartState),
		errors.Is(err, pricing.ErrRedemptionExceedsBalance),
		errors.Is(err, pricing.ErrRedemptionExceedsCap),
		errors.Is(err, loyalty.ErrInsufficientPoints):
		return http.StatusUnprocessableEntity
	case errors.Is(err, cart.ErrInvalidQuantity),
		errors.Is(err, menu.ErrInvalidCustomization),
		errors.Is(err, menu.ErrInvalidItem),
		errors.Is(err, menu.ErrInvalidSpecial),
		errors.Is(err, menu.ErrInvalidReview),
		errors.Is(err, menu.ErrInvalidFilter),
		errors.Is(err, promo.ErrInvalidDiscount),
		errors.Is(err, promo.ErrEmptyCode),
		errors.Is(err, order.ErrMissingDeliveryAddress),
		errors.Is(err, order.ErrScheduleInPast),
		errors.Is(err, pricing.ErrInvalidOrderType),
		errors.Is(err, pricing.ErrInvalidRedemption),
		errors.Is(err, loyalty.ErrNegativePoints):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// respondWithServiceError hides internal failures behind fallback and reports
// domain rule violations as they are.
func respondWithServiceError(w http.ResponseWriter, err error, fallback string) {
	code := mapErrorToStatusCode(err)
	switch code {
	case http.StatusInternalServerError:
		log.Error().Err(err).Msg(fallback)
		respondWithError(w, code, fallback)
	case http.StatusServiceUnavailable:
		log.Error().Err(err).Msg(fallback)
		respondWithError(w, code, "Storage is temporarily unavailable, nothing was changed")
	default:
		log.Warn().Err(err).Msg(fallback)
		respondWithError(w, code, err.Error())
	}
}

// decodeAndValidate reads a JSON body into dst and runs struct validation.
// It writes the error response itself and reports whether the caller may continue.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, validate *validator.Validate, dst any) bool {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dst); err != nil {
		log.Warn().Err(err).Msg("Failed to decode request body")
		respondWithError(w, http.StatusBadRequest, fmt.Sprintf("Invalid request payload %v", err))
		return false
	}

	if err := validate.Struct(dst); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			respondWithJSON(w, http.StatusBadRequest, ValidationErrorResponse{
				Error:   "Validation failed",
				Details: formatValidationErrors(validationErrors),
			})
		} else {
			log.Error().Err(err).Type("validation_error_type", err).Msg("Unexpected error type during validation")
			respondWithError(w, http.StatusInternalServerError, "Internal validation error")
		}
		return false
	}
	return true
}

func uuidParam(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	raw := chi.URLParam(r, name)
	id, err := uuid.FromString(raw)
	if err != nil {
		log.Warn().Err(err).Str(name, raw).Msg("Failed to parse uuid parameter from URL")
		respondWithError(w, http.StatusBadRequest, fmt.Sprintf("Invalid %s parameter", name))
		return uuid.Nil, false
	}
	return id, true
}

func int64Param(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		log.Warn().Err(err).Str(name, raw).Msg("Failed to parse numeric parameter from URL")
		respondWithError(w, http.StatusBadRequest, fmt.Sprintf("Invalid %s parameter", name))
		return 0, false
	}
	return id, true
}
