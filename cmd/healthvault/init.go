// Init command creates the data directory and database schema.
package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize the healthvault storage",
	Long:  `Init creates the data directory and the database schema when missing.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		dataDir, err := resolveDataDir()
		if err != nil {
			return err
		}
		fmt.Println("healthvault initialized at", dataDir)
		return nil
	},
}
