package migration

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helix-health/healthvault/internal/store"
	"github.com/helix-health/healthvault/pkg/types"
)

func validWeightRecord(pkg string, kg float64) *types.Record {
	return &types.Record{
		Metadata: types.Metadata{Package: pkg},
		Time:     time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC),
		Payload:  types.Weight{Kilograms: kg},
	}
}

func recordEntity(id, pkg string, kg float64) types.MigrationEntity {
	return types.MigrationEntity{
		EntityID: id,
		Payload:  types.RecordPayload{Record: validWeightRecord(pkg, kg)},
	}
}

func permissionEntity(id, pkg string, permissions ...string) types.MigrationEntity {
	return types.MigrationEntity{
		EntityID: id,
		Payload:  types.PermissionPayload{Package: pkg, Permissions: permissions},
	}
}

func startedEngine(t *testing.T, installed InstalledSet) (*Engine, *store.Store) {
	t.Helper()
	engine, st := newTestEngine(t, t.TempDir(), installed)
	require.NoError(t, engine.StartMigration())
	return engine, st
}

func TestWriteMigrationDataRequiresInProgress(t *testing.T) {
	engine, _ := newTestEngine(t, t.TempDir(), nil)

	_, err := engine.WriteMigrationData([]types.MigrationEntity{recordEntity("e-1", "com.legacy.app", 70)})
	assert.ErrorIs(t, err, types.ErrMigrationNotStarted)

	require.NoError(t, engine.StartMigration())
	require.NoError(t, engine.FinishMigration())
	_, err = engine.WriteMigrationData([]types.MigrationEntity{recordEntity("e-1", "com.legacy.app", 70)})
	assert.ErrorIs(t, err, types.ErrMigrationFinished)
}

func TestWriteMigrationDataAppliesRecords(t *testing.T) {
	engine, st := startedEngine(t, nil)

	failures, err := engine.WriteMigrationData([]types.MigrationEntity{
		recordEntity("e-1", "com.legacy.app", 70),
		recordEntity("e-2", "com.legacy.app", 71),
	})
	require.NoError(t, err)
	assert.Empty(t, failures)

	records, err := st.ReadRecords(types.KindWeight, store.RecordQuery{})
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "com.legacy.app", records[0].Package)

	// Migrated inserts land in the change log like ordinary writes.
	logs, err := st.ChangesSince(types.TokenRequest{RowID: types.NoChangeLogs}, 0)
	require.NoError(t, err)
	assert.Len(t, logs, 2)
}

func TestDuplicateEntitiesApplyOnce(t *testing.T) {
	engine, st := startedEngine(t, nil)

	batch := []types.MigrationEntity{
		recordEntity("e-1", "com.legacy.app", 70),
		recordEntity("e-1", "com.legacy.app", 70),
	}
	failures, err := engine.WriteMigrationData(batch)
	require.NoError(t, err)
	assert.Empty(t, failures)

	// Same id in a later batch is also skipped.
	failures, err = engine.WriteMigrationData(batch[:1])
	require.NoError(t, err)
	assert.Empty(t, failures)

	records, err := st.ReadRecords(types.KindWeight, store.RecordQuery{})
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestEntityFailuresAreIsolated(t *testing.T) {
	engine, st := startedEngine(t, nil)

	failures, err := engine.WriteMigrationData([]types.MigrationEntity{
		recordEntity("e-1", "com.legacy.app", 70),
		permissionEntity("e-2", "com.legacy.app", "health.permission.READ_everything"),
		recordEntity("e-3", "com.legacy.app", 71),
	})
	require.NoError(t, err)
	require.Len(t, failures, 1)
	assert.Equal(t, "e-2", failures[0].EntityID)
	assert.ErrorIs(t, failures[0].Err, types.ErrUnknownPermission)

	records, err := st.ReadRecords(types.KindWeight, store.RecordQuery{})
	require.NoError(t, err)
	assert.Len(t, records, 2, "siblings of a failed entity still apply")
}

func TestFailedEntityCanBeRetried(t *testing.T) {
	engine, st := startedEngine(t, nil)

	invalid := types.MigrationEntity{
		EntityID: "e-1",
		Payload:  types.RecordPayload{Record: &types.Record{Metadata: types.Metadata{Package: "com.legacy.app"}}},
	}
	failures, err := engine.WriteMigrationData([]types.MigrationEntity{invalid})
	require.NoError(t, err)
	require.Len(t, failures, 1)

	failures, err = engine.WriteMigrationData([]types.MigrationEntity{recordEntity("e-1", "com.legacy.app", 70)})
	require.NoError(t, err)
	assert.Empty(t, failures, "a failed entity id is not marked applied")

	records, err := st.ReadRecords(types.KindWeight, store.RecordQuery{})
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestNilRecordPayloadFails(t *testing.T) {
	engine, _ := startedEngine(t, nil)

	failures, err := engine.WriteMigrationData([]types.MigrationEntity{
		{EntityID: "e-1", Payload: types.RecordPayload{}},
	})
	require.NoError(t, err)
	require.Len(t, failures, 1)
	assert.ErrorIs(t, failures[0].Err, types.ErrMissingPayload)
}

func TestUnsupportedPayloadFails(t *testing.T) {
	engine, _ := startedEngine(t, nil)

	failures, err := engine.WriteMigrationData([]types.MigrationEntity{
		{EntityID: "e-1"},
	})
	require.NoError(t, err)
	require.Len(t, failures, 1)
	assert.ErrorIs(t, failures[0].Err, types.ErrUnsupportedPayloadKind)
}

func TestPermissionEntityGrants(t *testing.T) {
	engine, st := startedEngine(t, nil)

	grantTime := time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)
	failures, err := engine.WriteMigrationData([]types.MigrationEntity{
		{
			EntityID: "perm-1",
			Payload: types.PermissionPayload{
				Package:              "com.legacy.app",
				FirstGrantTimeMillis: grantTime.UnixMilli(),
				Permissions: []string{
					types.ReadPermission(types.CategoryActivity),
					types.WritePermission(types.CategoryActivity),
				},
			},
		},
	})
	require.NoError(t, err)
	assert.Empty(t, failures)

	granted, err := st.GrantedPermissions("com.legacy.app")
	require.NoError(t, err)
	assert.Len(t, granted, 2)
}

func TestPriorityMergePayloadOrderWins(t *testing.T) {
	engine, st := startedEngine(t, nil)

	grant := func(pkg string) types.MigrationEntity {
		return permissionEntity("perm-"+pkg, pkg,
			types.ReadPermission(types.CategoryActivity))
	}
	priority := func(id string, packages ...string) types.MigrationEntity {
		return types.MigrationEntity{
			EntityID: id,
			Payload:  types.PriorityPayload{Category: types.CategoryActivity, Packages: packages},
		}
	}

	failures, err := engine.WriteMigrationData([]types.MigrationEntity{
		grant("com.app.a"),
		grant("com.app.b"),
		priority("prio-1", "com.app.a"),
		priority("prio-2", "com.app.b", "com.app.a"),
	})
	require.NoError(t, err)
	assert.Empty(t, failures)

	packages, err := st.Priority(types.CategoryActivity)
	require.NoError(t, err)
	assert.Equal(t, []string{"com.app.b", "com.app.a"}, packages,
		"the payload's order wins for the packages it names")
}

func TestPriorityMergeKeepsUnnamedExisting(t *testing.T) {
	engine, st := startedEngine(t, nil)

	failures, err := engine.WriteMigrationData([]types.MigrationEntity{
		permissionEntity("perm-a", "com.app.a", types.ReadPermission(types.CategoryActivity)),
		permissionEntity("perm-b", "com.app.b", types.ReadPermission(types.CategoryActivity)),
		permissionEntity("perm-c", "com.app.c", types.ReadPermission(types.CategoryActivity)),
		{
			EntityID: "prio-1",
			Payload: types.PriorityPayload{
				Category: types.CategoryActivity,
				Packages: []string{"com.app.a", "com.app.b"},
			},
		},
		{
			EntityID: "prio-2",
			Payload: types.PriorityPayload{
				Category: types.CategoryActivity,
				Packages: []string{"com.app.c"},
			},
		},
	})
	require.NoError(t, err)
	assert.Empty(t, failures)

	packages, err := st.Priority(types.CategoryActivity)
	require.NoError(t, err)
	assert.Equal(t, []string{"com.app.c", "com.app.a", "com.app.b"}, packages,
		"existing packages not named keep their relative order after the payload's")
}

func TestPriorityMergePrunesUnpermitted(t *testing.T) {
	engine, st := startedEngine(t, nil)

	failures, err := engine.WriteMigrationData([]types.MigrationEntity{
		permissionEntity("perm-a", "com.app.a", types.ReadPermission(types.CategoryActivity)),
		{
			EntityID: "prio-1",
			Payload: types.PriorityPayload{
				Category: types.CategoryActivity,
				Packages: []string{"com.app.none", "com.app.a"},
			},
		},
	})
	require.NoError(t, err)
	assert.Empty(t, failures)

	packages, err := st.Priority(types.CategoryActivity)
	require.NoError(t, err)
	assert.Equal(t, []string{"com.app.a"}, packages,
		"packages without a category permission are pruned")
}

func TestAppInfoAppliesOnlyToUninstalledWithRecords(t *testing.T) {
	appInfo := func(id, pkg string) types.MigrationEntity {
		return types.MigrationEntity{
			EntityID: id,
			Payload:  types.AppInfoPayload{Package: pkg, AppName: "Legacy " + pkg},
		}
	}

	t.Run("uninstalled package with migrated records", func(t *testing.T) {
		engine, st := startedEngine(t, nil)

		failures, err := engine.WriteMigrationData([]types.MigrationEntity{
			recordEntity("rec-1", "com.legacy.app", 70),
			appInfo("app-1", "com.legacy.app"),
		})
		require.NoError(t, err)
		assert.Empty(t, failures)

		info, err := st.AppInfoFor("com.legacy.app")
		require.NoError(t, err)
		assert.Equal(t, "Legacy com.legacy.app", info.AppName)
	})

	t.Run("installed package is skipped", func(t *testing.T) {
		engine, st := startedEngine(t, InstalledSet{"com.legacy.app": true})

		failures, err := engine.WriteMigrationData([]types.MigrationEntity{
			recordEntity("rec-1", "com.legacy.app", 70),
			appInfo("app-1", "com.legacy.app"),
		})
		require.NoError(t, err)
		assert.Empty(t, failures)

		_, err = st.AppInfoFor("com.legacy.app")
		assert.ErrorIs(t, err, types.ErrNotFound)
	})

	t.Run("package without records is skipped", func(t *testing.T) {
		engine, st := startedEngine(t, nil)

		failures, err := engine.WriteMigrationData([]types.MigrationEntity{
			appInfo("app-1", "com.legacy.app"),
		})
		require.NoError(t, err)
		assert.Empty(t, failures)

		_, err = st.AppInfoFor("com.legacy.app")
		assert.ErrorIs(t, err, types.ErrNotFound)
	})
}

func TestMetadataEntitySetsRetention(t *testing.T) {
	engine, st := startedEngine(t, nil)

	failures, err := engine.WriteMigrationData([]types.MigrationEntity{
		{EntityID: "meta-1", Payload: types.MetadataPayload{RecordRetentionDays: 120}},
	})
	require.NoError(t, err)
	assert.Empty(t, failures)

	days, err := st.RetentionDays()
	require.NoError(t, err)
	assert.Equal(t, 120, days)
}

func TestMigrationResumesAfterAbort(t *testing.T) {
	dir := t.TempDir()

	engine, st := newTestEngine(t, dir, nil)
	require.NoError(t, engine.StartMigration())
	_, err := engine.WriteMigrationData([]types.MigrationEntity{
		recordEntity("e-1", "com.legacy.app", 70),
	})
	require.NoError(t, err)
	require.NoError(t, engine.AbortMigration())
	require.NoError(t, st.Close())

	engine, st = newTestEngine(t, dir, nil)
	require.NoError(t, engine.StartMigration())
	failures, err := engine.WriteMigrationData([]types.MigrationEntity{
		recordEntity("e-1", "com.legacy.app", 70),
		recordEntity("e-2", "com.legacy.app", 71),
	})
	require.NoError(t, err)
	assert.Empty(t, failures)

	records, err := st.ReadRecords(types.KindWeight, store.RecordQuery{})
	require.NoError(t, err)
	assert.Len(t, records, 2, "already-applied entities are skipped on resume")
}
