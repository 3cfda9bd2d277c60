// Shared helpers for healthvault CLI commands.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/helix-health/healthvault/internal/migration"
	"github.com/helix-health/healthvault/internal/store"
	"github.com/helix-health/healthvault/pkg/types"
)

// openStore resolves the data directory and opens the store with the
// migration guard installed, so ordinary writes fail while a migration is in
// progress. The caller must defer st.Close().
func openStore() (*store.Store, error) {
	st, _, err := openStoreAndState()
	return st, err
}

// openStoreAndState opens the store and loads the persisted migration state.
func openStoreAndState() (*store.Store, *migration.State, error) {
	dataDir, err := resolveDataDir()
	if err != nil {
		return nil, nil, fmt.Errorf("resolve data dir: %w", err)
	}

	cfg := types.Config{Backend: types.BackendSQLite, DataDir: dataDir}
	st, err := store.Open(cfg, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("open store: %w", err)
	}

	state, err := migration.LoadState(st, logger)
	if err != nil {
		st.Close()
		return nil, nil, fmt.Errorf("load migration state: %w", err)
	}
	st.SetGuard(state)
	return st, state, nil
}

// parseKindArg maps a kind name argument to its RecordKind, with the valid
// names in the error message.
func parseKindArg(name string) (types.RecordKind, error) {
	kind, ok := types.ParseKind(name)
	if !ok {
		names := make([]string, 0, len(types.AllKinds))
		for _, k := range types.AllKinds {
			names = append(names, k.String())
		}
		return 0, fmt.Errorf("unknown record kind %q (valid: %s)", name, strings.Join(names, ", "))
	}
	return kind, nil
}

// parseCategoryArg maps a category name argument to its Category.
func parseCategoryArg(name string) (types.Category, error) {
	for _, c := range types.AllCategories {
		if string(c) == name {
			return c, nil
		}
	}
	names := make([]string, 0, len(types.AllCategories))
	for _, c := range types.AllCategories {
		names = append(names, string(c))
	}
	return "", fmt.Errorf("unknown category %q (valid: %s)", name, strings.Join(names, ", "))
}

// readInput returns the content of path, or stdin when path is "-".
func readInput(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}

// printJSON writes v to stdout as indented JSON.
func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal output: %w", err)
	}
	fmt.Println(string(out))
	return nil
}
