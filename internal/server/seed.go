package server

import (
	"fmt"
	"time"
)

func strPtr(s string) *string { return &s }

// Seed installs demo data when the database holds no families. It must run
// before the listener starts and never concurrently with itself; main calls
// it once, synchronously.
func (s *Server) Seed() error {
	families, err := s.familyStore.List()
	if err != nil {
		return fmt.Errorf("check existing families: %w", err)
	}
	if len(families) > 0 {
		return nil
	}

	sport, err := s.familyStore.Create("Sport", strPtr("🏃‍♂️"), 1)
	if err != nil {
		return fmt.Errorf("seed family: %w", err)
	}
	health, err := s.familyStore.Create("Health", strPtr("🍏"), 2)
	if err != nil {
		return fmt.Errorf("seed family: %w", err)
	}

	pilates, err := s.trackerStore.Create("Pilates", &sport.ID, "#f87171", strPtr("20 min daily pilates"), 1)
	if err != nil {
		return fmt.Errorf("seed tracker: %w", err)
	}
	if _, err := s.trackerStore.Create("10k steps", &sport.ID, "#fb923c", nil, 2); err != nil {
		return fmt.Errorf("seed tracker: %w", err)
	}
	meditation, err := s.trackerStore.Create("Meditation", &health.ID, "#60a5fa", strPtr("10 min morning meditation"), 1)
	if err != nil {
		return fmt.Errorf("seed tracker: %w", err)
	}
	if _, err := s.trackerStore.Create("Read 10 pages", nil, "#a78bfa", strPtr("Read before bed"), 4); err != nil {
		return fmt.Errorf("seed tracker: %w", err)
	}

	today := time.Now().Format("2006-01-02")
	if _, err := s.entryStore.Create(pilates.ID, today, strPtr("Felt great today!"), nil); err != nil {
		return fmt.Errorf("seed entry: %w", err)
	}
	if _, err := s.entryStore.Create(meditation.ID, today, nil, nil); err != nil {
		return fmt.Errorf("seed entry: %w", err)
	}

	s.logger.Info("seeded demo data", "families", 2, "trackers", 4, "entries", 2)
	return nil
}
