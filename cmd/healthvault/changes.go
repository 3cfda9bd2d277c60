// Changes command lists change-log entries after a token's position.
package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var changesLimit int

var changesCmd = &cobra.Command{
	Use:   "changes <token>",
	Short: "List changes since a token was created",
	Long: `Changes resolves the token's stored filter and prints the matching
change-log entries that happened after the token was created, oldest first.
The token stays valid; rerunning the command returns the same entries plus
any newer ones.`,
	Args: cobra.ExactArgs(1),
	RunE: runChanges,
}

func init() {
	changesCmd.Flags().IntVar(&changesLimit, "limit", 0, "maximum entries to return (0 = no limit)")
}

func runChanges(cmd *cobra.Command, args []string) error {
	token, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("token must be an integer: %w", err)
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	req, err := st.ResolveChangeToken(token)
	if err != nil {
		return err
	}
	logs, err := st.ChangesSince(req, changesLimit)
	if err != nil {
		return err
	}
	return printJSON(logs)
}
