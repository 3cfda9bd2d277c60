// Global settings and migration bookkeeping: a key/value settings table plus
// the persisted set of applied migration entity ids, which makes the
// exactly-once guarantee restart-safe.
package store

import (
	"database/sql"
	"fmt"
	"strconv"

	"github.com/helix-health/healthvault/pkg/types"
)

// Setting keys.
const (
	settingRetentionDays          = "record_retention_days"
	settingMinSDKExtensionVersion = "min_sdk_extension_version"
	settingMigrationPhase         = "migration_phase"
)

func (s *Store) setting(key string) (string, bool, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM settings WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("reading setting %s: %w", key, err)
	}
	return value, true, nil
}

func (s *Store) setSetting(key, value string) error {
	_, err := s.db.Exec(`
		INSERT INTO settings (key, value)
		VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	if err != nil {
		return fmt.Errorf("writing setting %s: %w", key, err)
	}
	return nil
}

// setSettingTx writes one setting inside the caller's transaction.
func setSettingTx(tx *sql.Tx, key, value string) error {
	_, err := tx.Exec(`
		INSERT INTO settings (key, value)
		VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	if err != nil {
		return fmt.Errorf("writing setting %s: %w", key, err)
	}
	return nil
}

func (s *Store) intSetting(key string, fallback int) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.open {
		return 0, types.ErrStoreClosed
	}
	value, ok, err := s.setting(key)
	if err != nil {
		return 0, err
	}
	if !ok {
		return fallback, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("parsing setting %s=%q: %w: %v", key, value, types.ErrInternal, err)
	}
	return n, nil
}

func (s *Store) setIntSetting(key string, value int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.open {
		return types.ErrStoreClosed
	}
	return s.setSetting(key, strconv.Itoa(value))
}

// RetentionDays returns the record retention period in days; zero means keep
// forever.
func (s *Store) RetentionDays() (int, error) {
	return s.intSetting(settingRetentionDays, 0)
}

// SetRetentionDays updates the record retention period.
func (s *Store) SetRetentionDays(days int) error {
	return s.setIntSetting(settingRetentionDays, days)
}

// MinSDKExtensionVersion returns the minimum SDK extension version the data
// source must reach before migration may start; zero means no requirement.
func (s *Store) MinSDKExtensionVersion() (int, error) {
	return s.intSetting(settingMinSDKExtensionVersion, 0)
}

// SetMinSDKExtensionVersion records the minimum SDK extension version.
func (s *Store) SetMinSDKExtensionVersion(v int) error {
	return s.setIntSetting(settingMinSDKExtensionVersion, v)
}

// MigrationPhase returns the persisted migration phase string, or "" when no
// migration has ever been recorded.
func (s *Store) MigrationPhase() (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.open {
		return "", types.ErrStoreClosed
	}
	phase, _, err := s.setting(settingMigrationPhase)
	return phase, err
}

// SetMigrationPhase persists the migration phase.
func (s *Store) SetMigrationPhase(phase string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.open {
		return types.ErrStoreClosed
	}
	return s.setSetting(settingMigrationPhase, phase)
}

// EntityApplied reports whether a migration entity id has already been
// applied in this or a prior migration run.
func (s *Store) EntityApplied(entityID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.open {
		return false, types.ErrStoreClosed
	}
	var one int
	err := s.db.QueryRow(
		"SELECT 1 FROM migration_entities WHERE entity_id = ?", entityID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking entity %s: %w", entityID, err)
	}
	return true, nil
}
