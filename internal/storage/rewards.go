package storage

import "fmt"

func (s *Storage) RewardTotal() (int, error) {
	var total int
	if err := s.db.QueryRow(`SELECT total FROM reward_total WHERE id = 1`).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to read reward total: %w", err)
	}
	return total, nil
}

func (s *Storage) SaveRewardTotal(total int) error {
	if total < 0 {
		return fmt.Errorf("reward total must be >= 0, got %d", total)
	}
	_, err := s.db.Exec(
		`INSERT INTO reward_total (id, total) VALUES (1, ?)
		 ON CONFLICT(id) DO UPDATE SET total = excluded.total`, total,
	)
	if err != nil {
		return fmt.Errorf("failed to save reward total: %w", err)
	}
	return nil
}
