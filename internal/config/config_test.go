package config

import (
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		t.Setenv("PORT", "")
		t.Setenv("COLLABORATOR_TIMEOUT", "")
		t.Setenv("DEFAULT_CURRENCY", "")
		t.Setenv("SUMMARY_LIMIT", "")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.Port != "8080" {
			t.Errorf("expected port 8080, got %s", cfg.Port)
		}
		if cfg.CollaboratorTimeout != 10*time.Second {
			t.Errorf("expected 10s timeout, got %s", cfg.CollaboratorTimeout)
		}
		if cfg.DefaultCurrency != "USD" {
			t.Errorf("expected USD, got %s", cfg.DefaultCurrency)
		}
		if cfg.SummaryLimit != 3 {
			t.Errorf("expected summary limit 3, got %d", cfg.SummaryLimit)
		}
	})

	t.Run("overrides", func(t *testing.T) {
		t.Setenv("COLLABORATOR_TIMEOUT", "2s")
		t.Setenv("DEFAULT_CURRENCY", "eur")
		t.Setenv("SUMMARY_LIMIT", "5")

		cfg, _ := Load()
		if cfg.CollaboratorTimeout != 2*time.Second {
			t.Errorf("expected 2s timeout, got %s", cfg.CollaboratorTimeout)
		}
		if cfg.DefaultCurrency != "EUR" {
			t.Errorf("expected EUR, got %s", cfg.DefaultCurrency)
		}
		if cfg.SummaryLimit != 5 {
			t.Errorf("expected summary limit 5, got %d", cfg.SummaryLimit)
		}
	})

	t.Run("invalid_values_fall_back", func(t *testing.T) {
		t.Setenv("COLLABORATOR_TIMEOUT", "soon")
		t.Setenv("SUMMARY_LIMIT", "-1")

		cfg, _ := Load()
		if cfg.CollaboratorTimeout != 10*time.Second {
			t.Errorf("expected fallback 10s, got %s", cfg.CollaboratorTimeout)
		}
		if cfg.SummaryLimit != 3 {
			t.Errorf("expected fallback 3, got %d", cfg.SummaryLimit)
		}
	})
}
