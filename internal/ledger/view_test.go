package ledger

import (
	"reflect"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"expensetracker/internal/models"
)

func scenario() []models.Transaction {
	return []models.Transaction{
		txn("inc", models.TransactionTypeIncome, "100", "2024-01-01"),
		txn("exp", models.TransactionTypeExpense, "40", "2024-01-02"),
	}
}

func TestComputeBalance(t *testing.T) {
	t.Run("scenario", func(t *testing.T) {
		b := ComputeBalance(scenario())
		if !b.Income.Equal(decimal.NewFromInt(100)) {
			t.Errorf("expected income 100, got %s", b.Income)
		}
		if !b.Expense.Equal(decimal.NewFromInt(40)) {
			t.Errorf("expected expense 40, got %s", b.Expense)
		}
		if !b.Net.Equal(decimal.NewFromInt(60)) {
			t.Errorf("expected net 60, got %s", b.Net)
		}
	})

	t.Run("empty", func(t *testing.T) {
		b := ComputeBalance(nil)
		if !b.Income.IsZero() || !b.Expense.IsZero() || !b.Net.IsZero() {
			t.Errorf("expected all zero, got %+v", b)
		}
	})

	t.Run("negative_net", func(t *testing.T) {
		b := ComputeBalance([]models.Transaction{
			txn("a", models.TransactionTypeIncome, "10.10", "2024-01-01"),
			txn("b", models.TransactionTypeExpense, "20.20", "2024-01-01"),
			txn("c", models.TransactionTypeExpense, "0.05", "2024-01-01"),
		})
		if !b.Net.Equal(decimal.RequireFromString("-10.15")) {
			t.Errorf("expected net -10.15, got %s", b.Net)
		}
	})

	t.Run("net_is_income_minus_expense", func(t *testing.T) {
		records := []models.Transaction{
			txn("1", models.TransactionTypeIncome, "3.33", "2024-01-01"),
			txn("2", models.TransactionTypeExpense, "1.11", "2024-01-01"),
			txn("3", models.TransactionTypeIncome, "0.01", "2024-01-01"),
			txn("4", models.TransactionTypeExpense, "7", "2024-01-01"),
		}
		b := ComputeBalance(records)
		if !b.Net.Equal(b.Income.Sub(b.Expense)) {
			t.Errorf("net %s != income %s - expense %s", b.Net, b.Income, b.Expense)
		}
		if b.Income.IsNegative() || b.Expense.IsNegative() {
			t.Errorf("income and expense must be non-negative: %+v", b)
		}
	})

	t.Run("unknown_types_ignored", func(t *testing.T) {
		b := ComputeBalance([]models.Transaction{txn("x", models.TransactionType("transfer"), "5", "2024-01-01")})
		if !b.Net.IsZero() {
			t.Errorf("expected zero net, got %s", b.Net)
		}
	})
}

func TestFilterAndSort(t *testing.T) {
	records := []models.Transaction{
		txn("a", models.TransactionTypeIncome, "50", "2024-02-01"),
		txn("b", models.TransactionTypeExpense, "10", "2024-03-01"),
		txn("c", models.TransactionTypeIncome, "75", "2024-01-15"),
		txn("d", models.TransactionTypeExpense, "75", "2024-02-20"),
	}

	tests := []struct {
		name   string
		filter Filter
		key    SortKey
		want   []string
	}{
		{"all_newest", FilterAll, SortNewest, []string{"b", "d", "a", "c"}},
		{"all_oldest", FilterAll, SortOldest, []string{"c", "a", "d", "b"}},
		{"all_highest_stable_ties", FilterAll, SortHighest, []string{"c", "d", "a", "b"}},
		{"all_lowest_stable_ties", FilterAll, SortLowest, []string{"b", "a", "c", "d"}},
		{"income_newest", FilterIncome, SortNewest, []string{"a", "c"}},
		{"expense_lowest", FilterExpense, SortLowest, []string{"b", "d"}},
		{"unknown_key_is_newest", FilterAll, SortKey("alphabetical"), []string{"b", "d", "a", "c"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			equalIDs(t, FilterAndSort(records, tt.filter, tt.key), tt.want...)
		})
	}

	t.Run("scenario_expense_newest", func(t *testing.T) {
		got := FilterAndSort(scenario(), FilterExpense, SortNewest)
		equalIDs(t, got, "exp")
	})

	t.Run("stable_highest", func(t *testing.T) {
		got := FilterAndSort([]models.Transaction{
			txn("a", models.TransactionTypeIncome, "10", "2024-01-01"),
			txn("b", models.TransactionTypeIncome, "10", "2024-01-01"),
		}, FilterAll, SortHighest)
		equalIDs(t, got, "a", "b")
	})

	t.Run("non_mutating", func(t *testing.T) {
		input := scenario()
		before := make([]models.Transaction, len(input))
		copy(before, input)

		_ = FilterAndSort(input, FilterAll, SortHighest)
		_ = FilterAndSort(input, FilterExpense, SortOldest)

		if !reflect.DeepEqual(input, before) {
			t.Error("input was modified")
		}
	})

	t.Run("idempotent", func(t *testing.T) {
		first := FilterAndSort(records, FilterAll, SortLowest)
		second := FilterAndSort(records, FilterAll, SortLowest)
		if !reflect.DeepEqual(first, second) {
			t.Errorf("expected identical output, got %v and %v", ids(first), ids(second))
		}
	})

	t.Run("malformed_dates_sort_as_epoch", func(t *testing.T) {
		mixed := []models.Transaction{
			txn("bad", models.TransactionTypeIncome, "1", "not-a-date"),
			txn("good", models.TransactionTypeIncome, "1", "2001-01-01"),
			txn("ancient", models.TransactionTypeIncome, "1", "1960-06-01"),
		}
		equalIDs(t, FilterAndSort(mixed, FilterAll, SortNewest), "good", "bad", "ancient")
		equalIDs(t, FilterAndSort(mixed, FilterAll, SortOldest), "ancient", "bad", "good")
	})

	t.Run("empty_input", func(t *testing.T) {
		got := FilterAndSort(nil, FilterAll, SortNewest)
		if got == nil || len(got) != 0 {
			t.Errorf("expected empty non-nil slice, got %v", got)
		}
	})
}

func TestLimitForSummaryView(t *testing.T) {
	sorted := FilterAndSort([]models.Transaction{
		txn("1", models.TransactionTypeIncome, "1", "2024-01-01"),
		txn("2", models.TransactionTypeIncome, "1", "2024-01-02"),
		txn("3", models.TransactionTypeIncome, "1", "2024-01-03"),
		txn("4", models.TransactionTypeIncome, "1", "2024-01-04"),
	}, FilterAll, SortNewest)

	equalIDs(t, LimitForSummaryView(sorted, 3), "4", "3", "2")
	equalIDs(t, LimitForSummaryView(sorted, 10), "4", "3", "2", "1")
	equalIDs(t, LimitForSummaryView(sorted, 0))
	equalIDs(t, LimitForSummaryView(sorted, -1))

	limited := LimitForSummaryView(sorted, 2)
	limited[0].ID = "changed"
	if sorted[0].ID != "4" {
		t.Error("limit must not alias its input")
	}
}

func TestParsers(t *testing.T) {
	if ParseFilter(" Income ") != FilterIncome {
		t.Error("expected income filter")
	}
	if ParseFilter("bogus") != FilterAll {
		t.Error("expected unknown filter to mean all")
	}
	if ParseSortKey("HIGHEST") != SortHighest {
		t.Error("expected highest")
	}
	if ParseSortKey("") != SortNewest {
		t.Error("expected empty sort key to mean newest")
	}
}

func TestParseDate(t *testing.T) {
	want := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	if got := ParseDate("2024-01-02"); !got.Equal(want) {
		t.Errorf("expected %v, got %v", want, got)
	}
	if got := ParseDate("2024-01-02T10:00:00+02:00"); !got.Equal(time.Date(2024, 1, 2, 8, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected timestamp parse %v", got)
	}
	if got := ParseDate("02/01/2024"); !got.Equal(time.Unix(0, 0)) {
		t.Errorf("expected epoch for malformed date, got %v", got)
	}
}
