package ledger

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"expensetracker/internal/models"
)

// Filter selects transactions by type.
type Filter string

const (
	FilterAll     Filter = "all"
	FilterIncome  Filter = "income"
	FilterExpense Filter = "expense"
)

// SortKey orders a transaction list.
type SortKey string

const (
	SortNewest  SortKey = "newest"
	SortOldest  SortKey = "oldest"
	SortHighest SortKey = "highest"
	SortLowest  SortKey = "lowest"
)

// DefaultSortKey is applied right after a load and whenever a key is unknown.
const DefaultSortKey = SortNewest

// epoch is the ordering value for dates that cannot be parsed.
var epoch = time.Unix(0, 0).UTC()

// ParseFilter maps user input to a Filter. Unknown values mean FilterAll.
func ParseFilter(s string) Filter {
	switch f := Filter(strings.ToLower(strings.TrimSpace(s))); f {
	case FilterIncome, FilterExpense:
		return f
	default:
		return FilterAll
	}
}

// ParseSortKey maps user input to a SortKey. Unknown values mean DefaultSortKey.
func ParseSortKey(s string) SortKey {
	switch k := SortKey(strings.ToLower(strings.TrimSpace(s))); k {
	case SortNewest, SortOldest, SortHighest, SortLowest:
		return k
	default:
		return DefaultSortKey
	}
}

// Balance aggregates a set of transactions.
type Balance struct {
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
	Net     decimal.Decimal `json:"net"`
}

// ComputeBalance sums amounts by type. Net is Income minus Expense.
func ComputeBalance(records []models.Transaction) Balance {
	income := decimal.Zero
	expense := decimal.Zero
	for _, r := range records {
		switch r.Type {
		case models.TransactionTypeIncome:
			income = income.Add(r.Amount)
		case models.TransactionTypeExpense:
			expense = expense.Add(r.Amount)
		}
	}
	return Balance{Income: income, Expense: expense, Net: income.Sub(expense)}
}

// FilterAndSort returns a new slice holding the records matching filter,
// ordered by key. Ties keep their input order. records is never modified.
func FilterAndSort(records []models.Transaction, filter Filter, key SortKey) []models.Transaction {
	out := make([]models.Transaction, 0, len(records))
	for _, r := range records {
		if filter == FilterAll || string(r.Type) == string(filter) {
			out = append(out, r)
		}
	}
	sortStable(out, key)
	return out
}

// LimitForSummaryView returns at most the first n records of an already
// ordered slice.
func LimitForSummaryView(records []models.Transaction, n int) []models.Transaction {
	if n <= 0 {
		return []models.Transaction{}
	}
	if n > len(records) {
		n = len(records)
	}
	out := make([]models.Transaction, n)
	copy(out, records[:n])
	return out
}

// ParseDate reads a transaction date. Full timestamps are accepted as well as
// plain calendar dates; anything else reads as the Unix epoch so malformed
// records sort instead of failing. The epoch is the floor only for dates from
// 1970 on: a valid earlier date still sorts below a malformed one.
func ParseDate(s string) time.Time {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(models.DateLayout, s); err == nil {
		return t
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC()
	}
	return epoch
}

func sortStable(records []models.Transaction, key SortKey) {
	var less func(a, b models.Transaction) bool
	switch ParseSortKey(string(key)) {
	case SortOldest:
		less = func(a, b models.Transaction) bool { return ParseDate(a.Date).Before(ParseDate(b.Date)) }
	case SortHighest:
		less = func(a, b models.Transaction) bool { return a.Amount.GreaterThan(b.Amount) }
	case SortLowest:
		less = func(a, b models.Transaction) bool { return a.Amount.LessThan(b.Amount) }
	default:
		less = func(a, b models.Transaction) bool { return ParseDate(a.Date).After(ParseDate(b.Date)) }
	}
	sort.SliceStable(records, func(i, j int) bool { return less(records[i], records[j]) })
}
