package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"expensetracker/internal/currency"
	apperrors "expensetracker/internal/errors"
	"expensetracker/internal/services"
)

// PreferenceHandler handles display preference requests.
type PreferenceHandler struct {
	tracker services.TrackerServicer
}

// NewPreferenceHandler creates a new PreferenceHandler.
func NewPreferenceHandler(tracker services.TrackerServicer) *PreferenceHandler {
	return &PreferenceHandler{tracker: tracker}
}

// UpdatePreferencesRequest represents the preference update payload. Omitted
// fields are left unchanged.
type UpdatePreferencesRequest struct {
	Currency *string `json:"currency" example:"EUR"`
	Theme    *string `json:"theme" enums:"light,dark"`
}

// CurrencyResponse describes one selectable currency.
type CurrencyResponse struct {
	Code   string `json:"code"`
	Symbol string `json:"symbol"`
}

// GetPreferences returns the session's display preferences
// @Summary     Get preferences
// @Description Selected currency and theme; defaults for anonymous callers
// @Tags        preferences
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} services.PreferencesView "Preferences"
// @Router      /preferences [get]
func (h *PreferenceHandler) GetPreferences(c *gin.Context) {
	prefs, err := h.tracker.Preferences(c.Request.Context(), optionalUserID(c))
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, prefs)
}

// UpdatePreferences changes the selected currency and/or theme
// @Summary     Update preferences
// @Description Persist a new currency and/or theme; balances are re-rendered on the next read
// @Tags        preferences
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body UpdatePreferencesRequest true "Preference changes"
// @Success     200 {object} services.PreferencesView "Updated preferences"
// @Failure     400 {object} ErrorResponse "Unsupported currency or theme"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     502 {object} ErrorResponse "Persistence failure"
// @Router      /preferences [put]
func (h *PreferenceHandler) UpdatePreferences(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdatePreferencesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	prefs, err := h.tracker.UpdatePreferences(c.Request.Context(), userID, services.PreferenceUpdate{
		Currency: req.Currency,
		Theme:    req.Theme,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, prefs)
}

// ToggleTheme switches between the light and dark themes
// @Summary     Toggle theme
// @Tags        preferences
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} services.PreferencesView "Updated preferences"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /preferences/theme/toggle [post]
func (h *PreferenceHandler) ToggleTheme(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	prefs, err := h.tracker.ToggleTheme(c.Request.Context(), userID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, prefs)
}

// ListCurrencies returns the selectable currencies
// @Summary     List currencies
// @Tags        preferences
// @Produce     json
// @Success     200 {array} CurrencyResponse "Supported currencies"
// @Router      /currencies [get]
func (h *PreferenceHandler) ListCurrencies(c *gin.Context) {
	codes := currency.Supported()
	out := make([]CurrencyResponse, 0, len(codes))
	for _, code := range codes {
		out = append(out, CurrencyResponse{Code: code, Symbol: currency.Symbol(code)})
	}
	c.JSON(http.StatusOK, gin.H{"currencies": out})
}
