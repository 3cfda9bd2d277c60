// Package store implements the SQLite storage layer for healthvault: record
// tables keyed by kind, the append-only change log, change-log request
// tokens, source-priority lists, permission grants, app info, and global
// settings.
package store

// Column type fragments shared by all table builders.
const (
	colPrimary     = "INTEGER PRIMARY KEY AUTOINCREMENT"
	colInteger     = "INTEGER"
	colReal        = "REAL"
	colText        = "TEXT"
	colTextNotNull = "TEXT NOT NULL"
)

// Schema DDL for the fixed (non-record) tables. Record tables are generated
// from the helper registry; see helper.go.
const (
	createChangeLogs = `CREATE TABLE IF NOT EXISTS change_logs (
    row_id INTEGER PRIMARY KEY AUTOINCREMENT,
    operation TEXT NOT NULL,
    uuids TEXT NOT NULL,
    record_kind INTEGER NOT NULL,
    app_package TEXT NOT NULL,
    time_millis INTEGER NOT NULL
);`

	createChangeLogRequests = `CREATE TABLE IF NOT EXISTS change_log_requests (
    row_id INTEGER PRIMARY KEY AUTOINCREMENT,
    packages_to_filter TEXT NOT NULL,
    record_kinds TEXT NOT NULL,
    requesting_package TEXT NOT NULL,
    change_log_row_id INTEGER NOT NULL
);`

	createPriorityList = `CREATE TABLE IF NOT EXISTS priority_list (
    category TEXT PRIMARY KEY,
    priority_order TEXT NOT NULL
);`

	createPermissionGrants = `CREATE TABLE IF NOT EXISTS permission_grants (
    row_id INTEGER PRIMARY KEY AUTOINCREMENT,
    app_package TEXT NOT NULL,
    permission TEXT NOT NULL,
    first_grant_millis INTEGER NOT NULL,
    UNIQUE (app_package, permission)
);`

	createAppInfo = `CREATE TABLE IF NOT EXISTS app_info (
    app_package TEXT PRIMARY KEY,
    app_name TEXT,
    icon BLOB
);`

	createSettings = `CREATE TABLE IF NOT EXISTS settings (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
);`

	createMigrationEntities = `CREATE TABLE IF NOT EXISTS migration_entities (
    entity_id TEXT PRIMARY KEY
);`
)

// Index DDL for common queries.
const (
	idxChangeLogsPackage  = `CREATE INDEX IF NOT EXISTS idx_change_logs_package ON change_logs(app_package);`
	idxChangeLogsKind     = `CREATE INDEX IF NOT EXISTS idx_change_logs_kind ON change_logs(record_kind);`
	idxPermissionsPackage = `CREATE INDEX IF NOT EXISTS idx_permission_grants_package ON permission_grants(app_package);`
)

// fixedDDL lists the statements for the non-record tables in dependency order.
var fixedDDL = []string{
	createChangeLogs,
	createChangeLogRequests,
	createPriorityList,
	createPermissionGrants,
	createAppInfo,
	createSettings,
	createMigrationEntities,
	idxChangeLogsPackage,
	idxChangeLogsKind,
	idxPermissionsPackage,
}
