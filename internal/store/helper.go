// Record helper machinery: each record kind declares its table name and
// kind-specific columns, plus functions mapping its payload to column values
// and back. The shared code here builds DDL, inserts, updates, deletes, and
// reads uniformly across every kind, including the child sample tables of
// series kinds.
package store

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/helix-health/healthvault/pkg/types"
)

// columnSpec declares one kind-specific column of a record table.
type columnSpec struct {
	name    string
	sqlType string
}

// seriesSchema declares the child sample table of a series kind. Sample rows
// are foreign-keyed on the record UUID; ordering within a UUID group is
// row-insertion order, with no explicit sequence column. fromSamples yields a
// nil sample slice for an empty group, so zero-sample records read back with
// nil rather than an empty slice.
type seriesSchema struct {
	table        string
	columns      []columnSpec
	sampleValues func(p types.Payload) [][]any
	fromSamples  func(samples [][]any) types.Payload
}

// recordHelper maps one record kind to its main table and, for series kinds,
// its child sample table.
type recordHelper struct {
	kind    types.RecordKind
	table   string
	columns []columnSpec                    // scalar payload columns, nil for series kinds
	values  func(p types.Payload) []any     // scalar column values, aligned with columns
	payload func(vals []any) types.Payload  // rebuild payload from scanned scalar values
	series  *seriesSchema
}

// Value accessors for scanned column destinations.

func f64(v any) float64 { return *(v.(*float64)) }
func i64(v any) int64   { return *(v.(*int64)) }

// scanDest returns a scan destination for a column type.
func scanDest(sqlType string) any {
	switch sqlType {
	case colReal:
		return new(float64)
	case colText, colTextNotNull:
		return new(string)
	default:
		return new(int64)
	}
}

func toMillis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}

// commonColumns returns the metadata and time columns shared by every record
// table of the helper's shape.
func (h *recordHelper) commonColumns() []columnSpec {
	cols := []columnSpec{
		{"uuid", "TEXT NOT NULL UNIQUE"},
		{"app_package", colTextNotNull},
		{"client_record_id", colText},
		{"device", colText},
		{"last_modified", colInteger},
	}
	if h.kind.IsInterval() {
		return append(cols,
			columnSpec{"start_time_millis", colInteger},
			columnSpec{"end_time_millis", colInteger},
			columnSpec{"start_zone_offset", colInteger},
			columnSpec{"end_zone_offset", colInteger},
		)
	}
	return append(cols,
		columnSpec{"time_millis", colInteger},
		columnSpec{"zone_offset", colInteger},
	)
}

// createDDL returns the CREATE TABLE statements for the kind's main table
// and, for series kinds, its child sample table and index.
func (h *recordHelper) createDDL() []string {
	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TABLE IF NOT EXISTS %s (\n    row_id %s", h.table, colPrimary)
	for _, c := range append(h.commonColumns(), h.columns...) {
		fmt.Fprintf(&b, ",\n    %s %s", c.name, c.sqlType)
	}
	b.WriteString("\n);")
	stmts := []string{b.String()}

	if h.series != nil {
		var sb strings.Builder
		fmt.Fprintf(&sb, "CREATE TABLE IF NOT EXISTS %s (\n    row_id %s,\n    record_uuid %s", h.series.table, colPrimary, colTextNotNull)
		for _, c := range h.series.columns {
			fmt.Fprintf(&sb, ",\n    %s %s", c.name, c.sqlType)
		}
		fmt.Fprintf(&sb, ",\n    FOREIGN KEY (record_uuid) REFERENCES %s(uuid)\n);", h.table)
		stmts = append(stmts, sb.String())
		stmts = append(stmts, fmt.Sprintf(
			"CREATE INDEX IF NOT EXISTS idx_%s_uuid ON %s(record_uuid);", h.series.table, h.series.table))
	}
	return stmts
}

// commonValues returns the values for commonColumns in declaration order.
func (h *recordHelper) commonValues(r *types.Record) []any {
	vals := []any{
		r.UUID,
		r.Package,
		r.ClientRecordID,
		r.Device,
		toMillis(r.LastModified),
	}
	if h.kind.IsInterval() {
		return append(vals,
			toMillis(r.Start), toMillis(r.End),
			int64(r.StartZoneOffset), int64(r.EndZoneOffset))
	}
	return append(vals, toMillis(r.Time), int64(r.ZoneOffset))
}

// insertTx inserts the record's main row and, for series kinds, one child row
// per sample. The record's UUID must already be assigned.
func (h *recordHelper) insertTx(tx *sql.Tx, r *types.Record) error {
	cols := append(h.commonColumns(), h.columns...)
	names := make([]string, len(cols))
	marks := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.name
		marks[i] = "?"
	}

	vals := h.commonValues(r)
	if h.values != nil {
		vals = append(vals, h.values(r.Payload)...)
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		h.table, strings.Join(names, ", "), strings.Join(marks, ", "))
	if _, err := tx.Exec(query, vals...); err != nil {
		return fmt.Errorf("inserting %s record: %w", h.kind, err)
	}

	if h.series != nil {
		if err := h.insertSamplesTx(tx, r); err != nil {
			return err
		}
	}
	return nil
}

func (h *recordHelper) insertSamplesTx(tx *sql.Tx, r *types.Record) error {
	names := make([]string, 0, len(h.series.columns)+1)
	marks := []string{"?"}
	names = append(names, "record_uuid")
	for _, c := range h.series.columns {
		names = append(names, c.name)
		marks = append(marks, "?")
	}
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		h.series.table, strings.Join(names, ", "), strings.Join(marks, ", "))

	for _, sample := range h.series.sampleValues(r.Payload) {
		vals := append([]any{r.UUID}, sample...)
		if _, err := tx.Exec(query, vals...); err != nil {
			return fmt.Errorf("inserting %s sample: %w", h.kind, err)
		}
	}
	return nil
}

// updateTx rewrites the main row identified by the record's UUID. For series
// kinds the child rows are dropped and re-inserted so sample order stays
// insertion order.
func (h *recordHelper) updateTx(tx *sql.Tx, r *types.Record) error {
	cols := append(h.commonColumns(), h.columns...)
	sets := make([]string, len(cols))
	for i, c := range cols {
		sets[i] = c.name + " = ?"
	}

	vals := h.commonValues(r)
	if h.values != nil {
		vals = append(vals, h.values(r.Payload)...)
	}
	vals = append(vals, r.UUID)

	query := fmt.Sprintf("UPDATE %s SET %s WHERE uuid = ?", h.table, strings.Join(sets, ", "))
	if _, err := tx.Exec(query, vals...); err != nil {
		return fmt.Errorf("updating %s record: %w", h.kind, err)
	}

	if h.series != nil {
		if _, err := tx.Exec(
			fmt.Sprintf("DELETE FROM %s WHERE record_uuid = ?", h.series.table), r.UUID); err != nil {
			return fmt.Errorf("clearing %s samples: %w", h.kind, err)
		}
		if err := h.insertSamplesTx(tx, r); err != nil {
			return err
		}
	}
	return nil
}

// deleteTx removes the records matching the UUIDs owned by pkg and their
// sample rows. Returns the UUIDs actually deleted.
func (h *recordHelper) deleteTx(tx *sql.Tx, uuids []string, pkg string) ([]string, error) {
	if len(uuids) == 0 {
		return nil, nil
	}
	marks := strings.Repeat("?,", len(uuids))
	marks = marks[:len(marks)-1]

	args := make([]any, 0, len(uuids)+1)
	for _, u := range uuids {
		args = append(args, u)
	}
	args = append(args, pkg)

	rows, err := tx.Query(fmt.Sprintf(
		"SELECT uuid FROM %s WHERE uuid IN (%s) AND app_package = ?", h.table, marks), args...)
	if err != nil {
		return nil, fmt.Errorf("finding %s records: %w", h.kind, err)
	}
	defer rows.Close()

	var found []string
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, fmt.Errorf("scanning %s uuid: %w", h.kind, err)
		}
		found = append(found, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, nil
	}

	if h.series != nil {
		foundMarks := strings.Repeat("?,", len(found))
		if _, err := tx.Exec(fmt.Sprintf(
			"DELETE FROM %s WHERE record_uuid IN (%s)", h.series.table, foundMarks[:len(foundMarks)-1]),
			toAnySlice(found)...); err != nil {
			return nil, fmt.Errorf("deleting %s samples: %w", h.kind, err)
		}
	}
	if _, err := tx.Exec(fmt.Sprintf(
		"DELETE FROM %s WHERE uuid IN (%s) AND app_package = ?", h.table, marks), args...); err != nil {
		return nil, fmt.Errorf("deleting %s records: %w", h.kind, err)
	}
	return found, nil
}

// existingUUID returns the UUID of the row matching (package, client record
// id), or "" when absent. Used by the upsert path.
func (h *recordHelper) existingUUID(tx *sql.Tx, pkg, clientRecordID string) (string, error) {
	var uuid string
	err := tx.QueryRow(fmt.Sprintf(
		"SELECT uuid FROM %s WHERE app_package = ? AND client_record_id = ?", h.table),
		pkg, clientRecordID).Scan(&uuid)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("checking %s client record id: %w", h.kind, err)
	}
	return uuid, nil
}

// read returns the records matching the query, samples attached, ordered by
// insertion. Series records are reassembled by an explicit grouping pass over
// the child table, ordered by record UUID then row id, so each contiguous
// UUID group becomes one record's sample list.
func (h *recordHelper) read(db *sql.DB, q RecordQuery) ([]*types.Record, error) {
	cols := append(h.commonColumns(), h.columns...)
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.name
	}

	query := fmt.Sprintf("SELECT %s FROM %s", strings.Join(names, ", "), h.table)
	var conditions []string
	var args []any
	if len(q.UUIDs) > 0 {
		marks := strings.Repeat("?,", len(q.UUIDs))
		conditions = append(conditions, fmt.Sprintf("uuid IN (%s)", marks[:len(marks)-1]))
		args = append(args, toAnySlice(q.UUIDs)...)
	}
	if len(q.Packages) > 0 {
		marks := strings.Repeat("?,", len(q.Packages))
		conditions = append(conditions, fmt.Sprintf("app_package IN (%s)", marks[:len(marks)-1]))
		args = append(args, toAnySlice(q.Packages)...)
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY row_id"

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("reading %s records: %w", h.kind, err)
	}
	defer rows.Close()

	var records []*types.Record
	byUUID := make(map[string]*types.Record)
	for rows.Next() {
		r, err := h.scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
		byUUID[r.UUID] = r
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if h.series != nil && len(records) > 0 {
		if err := h.attachSamples(db, byUUID); err != nil {
			return nil, err
		}
	}
	return records, nil
}

func (h *recordHelper) scanRecord(rows *sql.Rows) (*types.Record, error) {
	var (
		uuid, pkg              string
		clientRecordID, device sql.NullString
		lastModified           int64
	)
	dests := []any{&uuid, &pkg, &clientRecordID, &device, &lastModified}

	var t1, t2, z1, z2 int64
	if h.kind.IsInterval() {
		dests = append(dests, &t1, &t2, &z1, &z2)
	} else {
		dests = append(dests, &t1, &z1)
	}

	payloadDests := make([]any, len(h.columns))
	for i, c := range h.columns {
		payloadDests[i] = scanDest(c.sqlType)
	}
	dests = append(dests, payloadDests...)

	if err := rows.Scan(dests...); err != nil {
		return nil, fmt.Errorf("scanning %s record: %w: %v", h.kind, types.ErrInternal, err)
	}

	r := &types.Record{
		Metadata: types.Metadata{
			UUID:           uuid,
			Package:        pkg,
			ClientRecordID: clientRecordID.String,
			Device:         device.String,
			LastModified:   fromMillis(lastModified),
		},
	}
	if h.kind.IsInterval() {
		r.Start = fromMillis(t1)
		r.End = fromMillis(t2)
		r.StartZoneOffset = int(z1)
		r.EndZoneOffset = int(z2)
	} else {
		r.Time = fromMillis(t1)
		r.ZoneOffset = int(z1)
	}
	if h.payload != nil {
		r.Payload = h.payload(payloadDests)
	} else {
		r.Payload = h.series.fromSamples(nil)
	}
	return r, nil
}

// attachSamples runs the grouping read over the child table. Rows arrive
// ordered by record UUID then row id; each time the UUID changes the
// accumulated group becomes the previous record's sample list.
func (h *recordHelper) attachSamples(db *sql.DB, byUUID map[string]*types.Record) error {
	uuids := make([]string, 0, len(byUUID))
	for u := range byUUID {
		uuids = append(uuids, u)
	}
	marks := strings.Repeat("?,", len(uuids))

	names := make([]string, 0, len(h.series.columns)+1)
	names = append(names, "record_uuid")
	for _, c := range h.series.columns {
		names = append(names, c.name)
	}

	rows, err := db.Query(fmt.Sprintf(
		"SELECT %s FROM %s WHERE record_uuid IN (%s) ORDER BY record_uuid, row_id",
		strings.Join(names, ", "), h.series.table, marks[:len(marks)-1]),
		toAnySlice(uuids)...)
	if err != nil {
		return fmt.Errorf("reading %s samples: %w", h.kind, err)
	}
	defer rows.Close()

	var (
		current string
		group   [][]any
	)
	flush := func() {
		if current == "" {
			return
		}
		if r, ok := byUUID[current]; ok {
			r.Payload = h.series.fromSamples(group)
		}
		group = nil
	}

	for rows.Next() {
		var uuid string
		sample := make([]any, len(h.series.columns))
		for i, c := range h.series.columns {
			sample[i] = scanDest(c.sqlType)
		}
		dests := append([]any{&uuid}, sample...)
		if err := rows.Scan(dests...); err != nil {
			return fmt.Errorf("scanning %s sample: %w: %v", h.kind, types.ErrInternal, err)
		}
		if uuid != current {
			flush()
			current = uuid
		}
		group = append(group, sample)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	flush()
	return nil
}

func toAnySlice(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

// helperFor returns the registered helper for a kind.
func helperFor(kind types.RecordKind) (*recordHelper, error) {
	h, ok := recordHelpers[kind]
	if !ok {
		return nil, fmt.Errorf("record kind %d: %w", kind, types.ErrNotFound)
	}
	return h, nil
}
