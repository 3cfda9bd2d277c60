// Delete command removes records by UUID.
package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var deleteCmd = &cobra.Command{
	Use:   "delete <kind> <package> <uuid>...",
	Short: "Delete records by UUID",
	Long: `Delete removes the named records owned by the package and appends a
delete entry to the change log. UUIDs that do not exist, or belong to another
package, are ignored.`,
	Args: cobra.MinimumNArgs(3),
	RunE: runDelete,
}

func runDelete(cmd *cobra.Command, args []string) error {
	kind, err := parseKindArg(args[0])
	if err != nil {
		return err
	}
	pkg := args[1]
	uuids := args[2:]

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.DeleteRecords(kind, pkg, uuids...); err != nil {
		return err
	}
	fmt.Printf("delete applied for %d uuid(s)\n", len(uuids))
	return nil
}
