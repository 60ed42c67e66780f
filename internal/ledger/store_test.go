package ledger

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"expensetracker/internal/models"
)

func txn(id string, typ models.TransactionType, amount string, date string) models.Transaction {
	return models.Transaction{
		ID:          id,
		Description: "entry " + id,
		Amount:      decimal.RequireFromString(amount),
		Type:        typ,
		Date:        date,
	}
}

func ids(records []models.Transaction) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.ID
	}
	return out
}

func equalIDs(t *testing.T, got []models.Transaction, want ...string) {
	t.Helper()
	g := ids(got)
	if len(g) != len(want) {
		t.Fatalf("expected ids %v, got %v", want, g)
	}
	for i := range want {
		if g[i] != want[i] {
			t.Fatalf("expected ids %v, got %v", want, g)
		}
	}
}

func TestStore_AddAndRemove(t *testing.T) {
	t.Run("round_trip", func(t *testing.T) {
		s := NewStore()
		rec := txn("a", models.TransactionTypeIncome, "100", "2024-01-01")

		if err := s.Add(rec); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		all := s.All()
		if len(all) != 1 || all[0].ID != "a" || !all[0].Amount.Equal(rec.Amount) || all[0].Description != rec.Description {
			t.Fatalf("expected the added record, got %+v", all)
		}

		if !s.Remove("a") {
			t.Fatal("expected Remove to report the record was held")
		}
		if len(s.All()) != 0 {
			t.Errorf("expected empty store after remove, got %v", ids(s.All()))
		}
	})

	t.Run("remove_missing_is_noop", func(t *testing.T) {
		s := NewStore()
		_ = s.Add(txn("a", models.TransactionTypeIncome, "1", "2024-01-01"))
		if s.Remove("zzz") {
			t.Error("expected Remove to report false for unknown id")
		}
		if s.Len() != 1 {
			t.Errorf("expected 1 record, got %d", s.Len())
		}
	})

	t.Run("rejects_missing_id", func(t *testing.T) {
		s := NewStore()
		err := s.Add(txn("", models.TransactionTypeIncome, "1", "2024-01-01"))
		if !errors.Is(err, ErrMissingID) {
			t.Fatalf("expected ErrMissingID, got %v", err)
		}
	})

	t.Run("rejects_duplicate_id", func(t *testing.T) {
		s := NewStore()
		_ = s.Add(txn("a", models.TransactionTypeIncome, "1", "2024-01-01"))
		err := s.Add(txn("a", models.TransactionTypeExpense, "2", "2024-01-02"))
		if !errors.Is(err, ErrDuplicateID) {
			t.Fatalf("expected ErrDuplicateID, got %v", err)
		}
		if s.Len() != 1 {
			t.Errorf("expected 1 record, got %d", s.Len())
		}
	})

	t.Run("add_keeps_insertion_order", func(t *testing.T) {
		s := NewStore()
		_ = s.Add(txn("old", models.TransactionTypeIncome, "1", "2020-01-01"))
		_ = s.Add(txn("new", models.TransactionTypeIncome, "1", "2024-01-01"))
		equalIDs(t, s.All(), "old", "new")
	})
}

func TestStore_ReplaceAll(t *testing.T) {
	t.Run("applies_default_newest_order", func(t *testing.T) {
		s := NewStore()
		s.ReplaceAll([]models.Transaction{
			txn("a", models.TransactionTypeIncome, "1", "2024-01-01"),
			txn("c", models.TransactionTypeIncome, "1", "2024-03-01"),
			txn("b", models.TransactionTypeIncome, "1", "2024-02-01"),
		})
		equalIDs(t, s.All(), "c", "b", "a")
	})

	t.Run("replaces_previous_contents", func(t *testing.T) {
		s := NewStore()
		_ = s.Add(txn("old", models.TransactionTypeIncome, "1", "2024-01-01"))
		s.ReplaceAll([]models.Transaction{txn("new", models.TransactionTypeIncome, "1", "2024-01-01")})
		equalIDs(t, s.All(), "new")

		if err := s.Add(txn("old", models.TransactionTypeIncome, "1", "2024-01-01")); err != nil {
			t.Errorf("replaced id should be addable again: %v", err)
		}
	})

	t.Run("drops_duplicates_and_unpersisted", func(t *testing.T) {
		s := NewStore()
		s.ReplaceAll([]models.Transaction{
			txn("a", models.TransactionTypeIncome, "1", "2024-01-01"),
			txn("a", models.TransactionTypeExpense, "9", "2024-01-01"),
			txn("", models.TransactionTypeIncome, "1", "2024-01-01"),
		})
		all := s.All()
		equalIDs(t, all, "a")
		if all[0].Type != models.TransactionTypeIncome {
			t.Error("expected the first occurrence to win")
		}
	})

	t.Run("does_not_alias_input", func(t *testing.T) {
		s := NewStore()
		input := []models.Transaction{txn("a", models.TransactionTypeIncome, "1", "2024-01-01")}
		s.ReplaceAll(input)
		input[0].Description = "mutated"
		if s.All()[0].Description == "mutated" {
			t.Error("store must not share the caller's slice")
		}
	})
}

func TestStore_AllIsDefensiveCopy(t *testing.T) {
	s := NewStore()
	_ = s.Add(txn("a", models.TransactionTypeIncome, "1", "2024-01-01"))
	_ = s.Add(txn("b", models.TransactionTypeIncome, "1", "2024-01-02"))

	snapshot := s.All()
	snapshot[0].Description = "changed"
	_ = FilterAndSort(snapshot, FilterAll, SortNewest)

	equalIDs(t, s.All(), "a", "b")
	if s.All()[0].Description == "changed" {
		t.Error("mutating a snapshot must not change the store")
	}
}

func TestStore_Clear(t *testing.T) {
	s := NewStore()
	_ = s.Add(txn("a", models.TransactionTypeIncome, "1", "2024-01-01"))
	s.Clear()
	if s.Len() != 0 || len(s.All()) != 0 {
		t.Fatal("expected empty store after Clear")
	}
	if err := s.Add(txn("a", models.TransactionTypeIncome, "1", "2024-01-01")); err != nil {
		t.Errorf("expected id to be free after Clear: %v", err)
	}
}
