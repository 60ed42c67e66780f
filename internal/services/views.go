package services

import (
	"github.com/shopspring/decimal"

	"expensetracker/internal/currency"
	"expensetracker/internal/ledger"
	"expensetracker/internal/models"
)

// EmptyListMessage is shown in place of an empty transaction list.
const EmptyListMessage = "No transactions yet"

// BalanceView is the balance summary in raw and display form. Expense is
// displayed as a negative amount.
type BalanceView struct {
	Income         decimal.Decimal `json:"income"`
	Expense        decimal.Decimal `json:"expense"`
	Net            decimal.Decimal `json:"net"`
	IncomeDisplay  string          `json:"income_display"`
	ExpenseDisplay string          `json:"expense_display"`
	NetDisplay     string          `json:"net_display"`
	Negative       bool            `json:"negative"`
}

// TransactionItem is one rendered row of a transaction list.
type TransactionItem struct {
	models.Transaction
	Sign          string `json:"sign"`
	Class         string `json:"class"`
	AmountDisplay string `json:"amount_display"`
}

// DashboardView is the summary screen: balance and the most recent entries.
type DashboardView struct {
	Authenticated  bool              `json:"authenticated"`
	Currency       string            `json:"currency"`
	CurrencySymbol string            `json:"currency_symbol"`
	Today          string            `json:"today"`
	Balance        BalanceView       `json:"balance"`
	Recent         []TransactionItem `json:"recent"`
	EmptyMessage   string            `json:"empty_message,omitempty"`
	Notice         string            `json:"notice,omitempty"`
}

// HistoryView is the full, filtered and sorted transaction list.
type HistoryView struct {
	Authenticated bool              `json:"authenticated"`
	Filter        ledger.Filter     `json:"filter"`
	Sort          ledger.SortKey    `json:"sort"`
	Currency      string            `json:"currency"`
	Items         []TransactionItem `json:"items"`
	EmptyMessage  string            `json:"empty_message,omitempty"`
	Notice        string            `json:"notice,omitempty"`
}

// PreferencesView holds the display settings of a session.
type PreferencesView struct {
	Currency       string `json:"currency"`
	CurrencySymbol string `json:"currency_symbol"`
	Theme          string `json:"theme"`
}

func newBalanceView(b ledger.Balance, code string) BalanceView {
	return BalanceView{
		Income:         b.Income,
		Expense:        b.Expense,
		Net:            b.Net,
		IncomeDisplay:  currency.Format(b.Income, code),
		ExpenseDisplay: currency.Format(b.Expense.Neg(), code),
		NetDisplay:     currency.Format(b.Net, code),
		Negative:       b.Net.IsNegative(),
	}
}

func newTransactionItems(records []models.Transaction, code string) []TransactionItem {
	items := make([]TransactionItem, 0, len(records))
	for _, r := range records {
		sign, class := "+", "plus"
		if r.Type == models.TransactionTypeExpense {
			sign, class = "-", "minus"
		}
		items = append(items, TransactionItem{
			Transaction:   r,
			Sign:          sign,
			Class:         class,
			AmountDisplay: sign + currency.Format(r.Amount.Abs(), code),
		})
	}
	return items
}

func emptyMessage(items []TransactionItem) string {
	if len(items) == 0 {
		return EmptyListMessage
	}
	return ""
}
