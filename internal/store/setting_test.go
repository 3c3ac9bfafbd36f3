package store

import (
	"errors"
	"testing"
)

func TestSettingRepository(t *testing.T) {
	s := newTestStore(t)
	repo := s.Settings()

	if _, err := repo.Get("profile"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for unset key, got %v", err)
	}

	if err := repo.Set("profile", "front"); err != nil {
		t.Fatalf("failed to set: %v", err)
	}
	if err := repo.Set("profile", "back"); err != nil {
		t.Fatalf("failed to overwrite: %v", err)
	}

	got, err := repo.Get("profile")
	if err != nil {
		t.Fatalf("failed to get: %v", err)
	}
	if got != "back" {
		t.Errorf("Get() = %q, want %q", got, "back")
	}
}
