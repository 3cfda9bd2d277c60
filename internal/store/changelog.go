// Change-log helper: an append-only ledger with one entry per mutation,
// keyed by an auto-incrementing row id. Entries are written inside the
// mutation's transaction and never updated afterward.
package store

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/helix-health/healthvault/pkg/types"
)

// listDelimiter joins multi-valued columns. Values are rejected at write time
// when they contain it; there is no escaping.
const listDelimiter = ","

// joinList encodes a string list as one delimiter-joined column value.
func joinList(values []string) (string, error) {
	for _, v := range values {
		if strings.Contains(v, listDelimiter) {
			return "", fmt.Errorf("%q: %w", v, types.ErrReservedDelimiter)
		}
	}
	return strings.Join(values, listDelimiter), nil
}

// splitList decodes a delimiter-joined column value.
func splitList(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, listDelimiter)
}

func joinKinds(kinds []types.RecordKind) string {
	parts := make([]string, len(kinds))
	for i, k := range kinds {
		parts[i] = strconv.Itoa(int(k))
	}
	return strings.Join(parts, listDelimiter)
}

func splitKinds(s string) ([]types.RecordKind, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, listDelimiter)
	kinds := make([]types.RecordKind, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("parsing record kind %q: %w: %v", p, types.ErrInternal, err)
		}
		kinds[i] = types.RecordKind(n)
	}
	return kinds, nil
}

// appendChangeLogTx writes one change-log entry inside the caller's
// transaction.
func appendChangeLogTx(tx *sql.Tx, op types.ChangeOperation, uuids []string, kind types.RecordKind, pkg string, at time.Time) error {
	joined, err := joinList(uuids)
	if err != nil {
		return err
	}
	_, err = tx.Exec(`
		INSERT INTO change_logs (operation, uuids, record_kind, app_package, time_millis)
		VALUES (?, ?, ?, ?, ?)`,
		string(op), joined, int(kind), pkg, at.UnixMilli())
	if err != nil {
		return fmt.Errorf("appending change log: %w", err)
	}
	return nil
}

// LatestChangeRowID returns the greatest change-log row id, or NoChangeLogs
// when the log is empty. New tokens snapshot this value as their cursor.
func (s *Store) LatestChangeRowID() (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.open {
		return 0, types.ErrStoreClosed
	}
	return s.latestChangeRowIDLocked(s.db)
}

type rowQueryer interface {
	QueryRow(query string, args ...any) *sql.Row
}

func (s *Store) latestChangeRowIDLocked(q rowQueryer) (int64, error) {
	var rowID sql.NullInt64
	err := q.QueryRow("SELECT MAX(row_id) FROM change_logs").Scan(&rowID)
	if err != nil {
		return 0, fmt.Errorf("reading latest change row id: %w", err)
	}
	if !rowID.Valid {
		return types.NoChangeLogs, nil
	}
	return rowID.Int64, nil
}

// ChangesSince returns up to limit change-log entries after the request's
// cursor, restricted to the request's package and kind filters, in row-id
// order. A limit of zero or less means no limit.
func (s *Store) ChangesSince(req types.TokenRequest, limit int) ([]types.ChangeLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.open {
		return nil, types.ErrStoreClosed
	}

	query := "SELECT row_id, operation, uuids, record_kind, app_package, time_millis FROM change_logs WHERE row_id > ?"
	args := []any{req.RowID}

	if len(req.Packages) > 0 {
		marks := strings.Repeat("?,", len(req.Packages))
		query += fmt.Sprintf(" AND app_package IN (%s)", marks[:len(marks)-1])
		args = append(args, toAnySlice(req.Packages)...)
	}
	if len(req.Kinds) > 0 {
		marks := strings.Repeat("?,", len(req.Kinds))
		query += fmt.Sprintf(" AND record_kind IN (%s)", marks[:len(marks)-1])
		for _, k := range req.Kinds {
			args = append(args, int(k))
		}
	}
	query += " ORDER BY row_id"
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("reading change logs: %w", err)
	}
	defer rows.Close()

	var logs []types.ChangeLog
	for rows.Next() {
		var (
			entry      types.ChangeLog
			op, uuids  string
			kind       int
			timeMillis int64
		)
		if err := rows.Scan(&entry.RowID, &op, &uuids, &kind, &entry.Package, &timeMillis); err != nil {
			return nil, fmt.Errorf("scanning change log: %w", err)
		}
		entry.Operation = types.ChangeOperation(op)
		entry.UUIDs = splitList(uuids)
		entry.Kind = types.RecordKind(kind)
		entry.Time = fromMillis(timeMillis)
		logs = append(logs, entry)
	}
	return logs, rows.Err()
}
