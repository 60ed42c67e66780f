package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "expensetracker/internal/errors"
	"expensetracker/internal/models"
	"expensetracker/internal/services"
)

// TransactionHandler handles the dashboard and transaction requests.
type TransactionHandler struct {
	tracker services.TrackerServicer
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(tracker services.TrackerServicer) *TransactionHandler {
	return &TransactionHandler{tracker: tracker}
}

// CreateTransactionRequest represents the request payload for creating a
// transaction. Amount may be a JSON number or a numeric string.
type CreateTransactionRequest struct {
	Description string      `json:"description"`
	Amount      interface{} `json:"amount" swaggertype:"number"`
	Type        string      `json:"type" enums:"income,expense"`
	Date        string      `json:"date" example:"2024-01-31"`
}

// toNewTransaction converts the payload. An amount that cannot be read as a
// number becomes zero, which validation then reports as invalid.
func (r CreateTransactionRequest) toNewTransaction() models.NewTransaction {
	return models.NewTransaction{
		Description: r.Description,
		Amount:      parseAmount(r.Amount),
		Type:        models.TransactionType(strings.ToLower(strings.TrimSpace(r.Type))),
		Date:        r.Date,
	}
}

func parseAmount(v interface{}) decimal.Decimal {
	switch a := v.(type) {
	case float64:
		return decimal.NewFromFloat(a)
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(a))
		if err != nil {
			return decimal.Zero
		}
		return d
	default:
		return decimal.Zero
	}
}

// Dashboard returns the balance summary and the most recent transactions
// @Summary     Get dashboard
// @Description Balance and the three most recent transactions in the selected currency. Anonymous callers get an empty dashboard.
// @Tags        transactions
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} services.DashboardView "Dashboard"
// @Router      /dashboard [get]
func (h *TransactionHandler) Dashboard(c *gin.Context) {
	view, err := h.tracker.Dashboard(c.Request.Context(), optionalUserID(c))
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// ListTransactions returns the transaction history
// @Summary     List transactions
// @Description Every transaction of the session, filtered and sorted. Omitted parameters reuse the previous choice.
// @Tags        transactions
// @Produce     json
// @Security    BearerAuth
// @Param       filter query string false "Transaction type" Enums(all, income, expense)
// @Param       sort   query string false "Sort order" Enums(newest, oldest, highest, lowest)
// @Success     200 {object} services.HistoryView "Transaction history"
// @Router      /transactions [get]
func (h *TransactionHandler) ListTransactions(c *gin.Context) {
	view, err := h.tracker.History(c.Request.Context(), optionalUserID(c), c.Query("filter"), c.Query("sort"))
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// CreateTransaction handles the creation of a new transaction
// @Summary     Create a transaction
// @Description Validate, persist and record a new income or expense
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateTransactionRequest true "Transaction details"
// @Success     201 {object} models.Transaction "Transaction created"
// @Failure     400 {object} ErrorResponse "Validation failed"
// @Failure     401 {object} ErrorResponse "Not signed in"
// @Failure     409 {object} ErrorResponse "Previous request still in flight"
// @Failure     502 {object} ErrorResponse "Persistence failure"
// @Failure     504 {object} ErrorResponse "Timeout"
// @Router      /transactions [post]
func (h *TransactionHandler) CreateTransaction(c *gin.Context) {
	var req CreateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, fmt.Sprintf("invalid request body: %v", err)))
		return
	}

	transaction, err := h.tracker.AddTransaction(c.Request.Context(), optionalUserID(c), req.toNewTransaction())
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"transaction": transaction})
}

// DeleteTransaction handles the deletion of a transaction
// @Summary     Delete a transaction
// @Description Delete a transaction from the document store, then from the session
// @Tags        transactions
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Transaction ID"
// @Success     204 "Transaction deleted"
// @Failure     400 {object} ErrorResponse "Invalid ID"
// @Failure     401 {object} ErrorResponse "Not signed in"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Failure     502 {object} ErrorResponse "Persistence failure"
// @Router      /transactions/{id} [delete]
func (h *TransactionHandler) DeleteTransaction(c *gin.Context) {
	userID := optionalUserID(c)
	if userID == "" {
		respondWithError(c, apperrors.ErrNotAuthenticated)
		return
	}

	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.tracker.DeleteTransaction(c.Request.Context(), userID, id); err != nil {
		respondWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
