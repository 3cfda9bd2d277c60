// Migrate commands drive the one-shot data migration lifecycle.
package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/helix-health/healthvault/internal/migration"
	"github.com/helix-health/healthvault/pkg/types"
)

var migrateInstalled []string

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Drive the one-shot data migration",
}

var migrateStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start a migration",
	Long: `Start moves the migration lifecycle to in-progress. Ordinary writes
are blocked until finish or abort. A migration can run at most once; start
fails once a previous migration has completed.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEngine(func(engine *migration.Engine) error {
			if err := engine.StartMigration(); err != nil {
				return err
			}
			fmt.Println("migration started")
			return nil
		})
	},
}

var migrateFinishCmd = &cobra.Command{
	Use:   "finish",
	Short: "Finish the running migration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEngine(func(engine *migration.Engine) error {
			if err := engine.FinishMigration(); err != nil {
				return err
			}
			fmt.Println("migration finished")
			return nil
		})
	},
}

var migrateAbortCmd = &cobra.Command{
	Use:   "abort",
	Short: "Abort the running migration",
	Long: `Abort returns the lifecycle to idle. Entities already applied stay
applied; a later migration run skips them by entity id.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEngine(func(engine *migration.Engine) error {
			if err := engine.AbortMigration(); err != nil {
				return err
			}
			fmt.Println("migration aborted")
			return nil
		})
	},
}

var migrateWriteCmd = &cobra.Command{
	Use:   "write <entities.json>",
	Short: "Apply a batch of migration entities",
	Long: `Write reads a JSON array of migration entities and applies them to
the store. Use "-" to read from stdin. Entities already applied (in this or
an earlier batch) are skipped. A failing entity is reported and does not
stop its siblings.

Example entity:
  {"entity_id": "rec-1", "kind": "record", "payload": {"record":
    {"kind": "steps", "package": "com.example.app",
     "start": "2024-03-01T08:00:00Z", "end": "2024-03-01T09:00:00Z",
     "payload": {"count": 1200}}}}`,
	Args: cobra.ExactArgs(1),
	RunE: runMigrateWrite,
}

var migrateMinSDKCmd = &cobra.Command{
	Use:   "min-sdk <version>",
	Short: "Set the minimum SDK extension version for migration",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var v int
		if _, err := fmt.Sscanf(args[0], "%d", &v); err != nil {
			return fmt.Errorf("version must be an integer: %w", err)
		}
		return withEngine(func(engine *migration.Engine) error {
			if err := engine.SetMinSDKExtensionVersion(v); err != nil {
				return err
			}
			fmt.Println("minimum SDK extension version set to", v)
			return nil
		})
	},
}

func init() {
	migrateWriteCmd.Flags().StringSliceVar(&migrateInstalled, "installed", nil, "packages to treat as currently installed")

	migrateCmd.AddCommand(migrateStartCmd)
	migrateCmd.AddCommand(migrateFinishCmd)
	migrateCmd.AddCommand(migrateAbortCmd)
	migrateCmd.AddCommand(migrateWriteCmd)
	migrateCmd.AddCommand(migrateMinSDKCmd)
}

// withEngine opens the store, wires the migration engine, and runs fn.
func withEngine(fn func(*migration.Engine) error) error {
	st, state, err := openStoreAndState()
	if err != nil {
		return err
	}
	defer st.Close()

	installed := make(migration.InstalledSet, len(migrateInstalled))
	for _, pkg := range migrateInstalled {
		installed[pkg] = true
	}
	return fn(migration.NewEngine(st, state, installed, logger))
}

func runMigrateWrite(cmd *cobra.Command, args []string) error {
	data, err := readInput(args[0])
	if err != nil {
		return fmt.Errorf("read entities: %w", err)
	}

	var entities []types.MigrationEntity
	if err := json.Unmarshal(data, &entities); err != nil {
		return fmt.Errorf("decode entities: %w", err)
	}

	return withEngine(func(engine *migration.Engine) error {
		failures, err := engine.WriteMigrationData(entities)
		if err != nil {
			return err
		}
		for _, f := range failures {
			fmt.Printf("entity %s failed: %v\n", f.EntityID, f.Err)
		}
		fmt.Printf("applied %d of %d entities\n", len(entities)-len(failures), len(entities))
		return nil
	})
}
