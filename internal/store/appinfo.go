// App-info rows: display name and icon for packages contributing records.
package store

import (
	"database/sql"
	"fmt"

	"github.com/helix-health/healthvault/pkg/types"
)

// AppInfo is the stored display metadata of a contributing package.
type AppInfo struct {
	Package string
	AppName string
	Icon    []byte
}

// UpsertAppInfo stores or replaces the display metadata for a package.
func (s *Store) UpsertAppInfo(pkg, appName string, icon []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.open {
		return types.ErrStoreClosed
	}

	return s.withTx(func(tx *sql.Tx) error {
		return upsertAppInfoTx(tx, pkg, appName, icon)
	})
}

// upsertAppInfoTx writes the app-info row inside the caller's transaction.
func upsertAppInfoTx(tx *sql.Tx, pkg, appName string, icon []byte) error {
	_, err := tx.Exec(`
		INSERT INTO app_info (app_package, app_name, icon)
		VALUES (?, ?, ?)
		ON CONFLICT(app_package) DO UPDATE SET
			app_name = excluded.app_name,
			icon = excluded.icon`,
		pkg, appName, icon)
	if err != nil {
		return fmt.Errorf("upserting app info for %s: %w", pkg, err)
	}
	return nil
}

// AppInfoFor returns the stored display metadata for a package, or
// ErrNotFound when none has been recorded.
func (s *Store) AppInfoFor(pkg string) (AppInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.open {
		return AppInfo{}, types.ErrStoreClosed
	}

	info := AppInfo{Package: pkg}
	var name sql.NullString
	err := s.db.QueryRow(
		"SELECT app_name, icon FROM app_info WHERE app_package = ?", pkg).
		Scan(&name, &info.Icon)
	if err == sql.ErrNoRows {
		return AppInfo{}, types.ErrNotFound
	}
	if err != nil {
		return AppInfo{}, fmt.Errorf("reading app info for %s: %w", pkg, err)
	}
	info.AppName = name.String
	return info, nil
}
