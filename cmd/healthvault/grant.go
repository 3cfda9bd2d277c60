// Grant command records health permission grants for a package.
package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var grantCmd = &cobra.Command{
	Use:   "grant <package> <permission>...",
	Short: "Grant health permissions to a package",
	Long: `Grant records the permissions as granted to the package. Permission
names follow the health.permission.READ_<CATEGORY> and
health.permission.WRITE_<CATEGORY> forms; an unrecognized name fails the
whole call. Re-granting keeps the original grant time.`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.GrantPermissions(args[0], args[1:], time.Now()); err != nil {
			return err
		}
		fmt.Printf("granted %d permission(s) to %s\n", len(args)-1, args[0])
		return nil
	},
}
