package migration

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/helix-health/healthvault/internal/store"
	"github.com/helix-health/healthvault/pkg/types"
)

// InstalledApps reports which packages are currently installed for the user.
// App-info payloads only take effect for packages that are not installed; the
// OS package manager backs this in production.
type InstalledApps interface {
	IsInstalled(pkg string) bool
}

// InstalledSet is an InstalledApps backed by a fixed set of package names.
type InstalledSet map[string]bool

func (s InstalledSet) IsInstalled(pkg string) bool { return s[pkg] }

// Engine applies migration entities to the store. Entities are deduplicated
// by id against a persisted applied set, so the same entity submitted twice
// (in the same or a later batch, or after a restart) takes effect exactly
// once.
type Engine struct {
	store  *store.Store
	state  *State
	apps   InstalledApps
	logger zerolog.Logger
}

// NewEngine wires the engine to its store, state machine, and installed-apps
// collaborator.
func NewEngine(st *store.Store, state *State, apps InstalledApps, logger zerolog.Logger) *Engine {
	if apps == nil {
		apps = InstalledSet{}
	}
	return &Engine{store: st, state: state, apps: apps, logger: logger}
}

// State returns the engine's state machine, for installation as the store's
// mutation guard.
func (e *Engine) State() *State { return e.state }

// SetMinSDKExtensionVersion records the minimum SDK extension version the
// data source must reach before migration may start.
func (e *Engine) SetMinSDKExtensionVersion(v int) error {
	return e.store.SetMinSDKExtensionVersion(v)
}

// StartMigration moves the lifecycle to in-progress. It fails with
// ErrMigrationInProgress when a migration is already running and with
// ErrMigrationFinished once a migration has completed; there are no
// re-entrant migrations.
func (e *Engine) StartMigration() error {
	if err := e.state.transition(PhaseIdle, PhaseInProgress); err != nil {
		return err
	}
	e.logger.Info().Msg("migration started")
	return nil
}

// FinishMigration commits the lifecycle to complete. Idempotent once
// complete; fails with ErrMigrationNotStarted when no migration is running.
func (e *Engine) FinishMigration() error {
	if e.state.Phase() == PhaseComplete {
		return nil
	}
	if err := e.state.transition(PhaseInProgress, PhaseComplete); err != nil {
		return err
	}
	e.logger.Info().Msg("migration finished")
	return nil
}

// AbortMigration returns the lifecycle to idle, discarding nothing that has
// already committed: entity application is per-entity transactional and
// idempotent by entity id, so a later run resumes safely.
func (e *Engine) AbortMigration() error {
	if err := e.state.transition(PhaseInProgress, PhaseIdle); err != nil {
		return err
	}
	e.logger.Warn().Msg("migration aborted")
	return nil
}

// WriteMigrationData applies a batch of entities. It requires an in-progress
// migration. Entities whose id has already been applied are skipped silently.
// Entity-level failures are isolated: the offending entity is reported in the
// returned slice with its id and its siblings still apply, each in its own
// transaction together with its applied-set entry.
func (e *Engine) WriteMigrationData(entities []types.MigrationEntity) ([]types.EntityError, error) {
	if phase := e.state.Phase(); phase != PhaseInProgress {
		if phase == PhaseComplete {
			return nil, types.ErrMigrationFinished
		}
		return nil, types.ErrMigrationNotStarted
	}

	var failures []types.EntityError
	for _, entity := range entities {
		applied, err := e.applyEntity(entity)
		if err != nil {
			e.logger.Warn().Str("entity", entity.EntityID).Err(err).Msg("entity failed")
			failures = append(failures, types.EntityError{EntityID: entity.EntityID, Err: err})
			continue
		}
		if !applied {
			e.logger.Debug().Str("entity", entity.EntityID).Msg("duplicate entity skipped")
		}
	}
	return failures, nil
}

// applyEntity plans one entity and commits its effect. Planning reads run
// before the transaction opens; the returned closure only writes.
func (e *Engine) applyEntity(entity types.MigrationEntity) (bool, error) {
	fn, err := e.planEntity(entity)
	if err != nil {
		return false, err
	}
	return e.store.ApplyMigration(entity.EntityID, fn)
}

func (e *Engine) planEntity(entity types.MigrationEntity) (func(tx *sql.Tx) error, error) {
	switch p := entity.Payload.(type) {
	case types.RecordPayload:
		if p.Record == nil {
			return nil, fmt.Errorf("record payload has no record: %w", types.ErrMissingPayload)
		}
		return func(tx *sql.Tx) error {
			return e.store.MigrateRecordTx(tx, p.Record)
		}, nil
	case types.PermissionPayload:
		var firstGrant time.Time
		if p.FirstGrantTimeMillis > 0 {
			firstGrant = time.UnixMilli(p.FirstGrantTimeMillis)
		}
		return func(tx *sql.Tx) error {
			return e.store.GrantPermissionsTx(tx, p.Package, p.Permissions, firstGrant)
		}, nil
	case types.PriorityPayload:
		return e.planPriority(p)
	case types.AppInfoPayload:
		return e.planAppInfo(p)
	case types.MetadataPayload:
		return func(tx *sql.Tx) error {
			return e.store.SetRetentionDaysTx(tx, p.RecordRetentionDays)
		}, nil
	default:
		return nil, types.ErrUnsupportedPayloadKind
	}
}

// planPriority merges the payload's ordered package list into the category's
// existing priority list: the payload's order wins for the packages it names,
// existing packages it does not name keep their relative order after them,
// and packages lacking the category's read/write permission are pruned. The
// engine does not reorder across payload kinds within a batch, so callers
// must sequence permission entities before the priority entities that depend
// on them.
func (e *Engine) planPriority(p types.PriorityPayload) (func(tx *sql.Tx) error, error) {
	existing, err := e.store.Priority(p.Category)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(p.Packages))
	merged := make([]string, 0, len(p.Packages)+len(existing))
	for _, pkg := range p.Packages {
		if seen[pkg] {
			continue
		}
		seen[pkg] = true
		merged = append(merged, pkg)
	}
	for _, pkg := range existing {
		if seen[pkg] {
			continue
		}
		seen[pkg] = true
		merged = append(merged, pkg)
	}

	pruned := merged[:0]
	for _, pkg := range merged {
		ok, err := e.store.HasCategoryPermission(pkg, p.Category)
		if err != nil {
			return nil, err
		}
		if ok {
			pruned = append(pruned, pkg)
		}
	}
	return func(tx *sql.Tx) error {
		return e.store.SetPriorityTx(tx, p.Category, pruned)
	}, nil
}

// planAppInfo upserts display metadata only when the package is not currently
// installed and at least one of its records has been migrated; otherwise the
// entity is accepted with no visible effect.
func (e *Engine) planAppInfo(p types.AppInfoPayload) (func(tx *sql.Tx) error, error) {
	skip := func(tx *sql.Tx) error { return nil }
	if e.apps.IsInstalled(p.Package) {
		return skip, nil
	}
	hasRecords, err := e.store.HasRecordsForPackage(p.Package)
	if err != nil {
		return nil, err
	}
	if !hasRecords {
		return skip, nil
	}
	return func(tx *sql.Tx) error {
		return e.store.UpsertAppInfoTx(tx, p.Package, p.AppName, p.Icon)
	}, nil
}
