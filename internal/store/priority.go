// Source-priority lists: one ordered package list per data category.
package store

import (
	"database/sql"
	"fmt"

	"github.com/helix-health/healthvault/pkg/types"
)

// Priority returns the ordered package list for a category. An absent
// category yields an empty list.
func (s *Store) Priority(category types.Category) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.open {
		return nil, types.ErrStoreClosed
	}

	var order string
	err := s.db.QueryRow(
		"SELECT priority_order FROM priority_list WHERE category = ?", string(category)).Scan(&order)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading priority list: %w", err)
	}
	return splitList(order), nil
}

// SetPriority replaces the ordered package list for a category.
func (s *Store) SetPriority(category types.Category, packages []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.open {
		return types.ErrStoreClosed
	}

	return s.withTx(func(tx *sql.Tx) error {
		return setPriorityTx(tx, category, packages)
	})
}

// setPriorityTx upserts the category's priority list inside the caller's
// transaction.
func setPriorityTx(tx *sql.Tx, category types.Category, packages []string) error {
	order, err := joinList(packages)
	if err != nil {
		return err
	}
	_, err = tx.Exec(`
		INSERT INTO priority_list (category, priority_order)
		VALUES (?, ?)
		ON CONFLICT(category) DO UPDATE SET priority_order = excluded.priority_order`,
		string(category), order)
	if err != nil {
		return fmt.Errorf("upserting priority list: %w", err)
	}
	return nil
}
