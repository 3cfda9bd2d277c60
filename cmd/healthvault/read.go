// Read command lists records of one kind.
package main

import (
	"github.com/spf13/cobra"

	"github.com/helix-health/healthvault/internal/store"
)

var (
	readUUIDs    []string
	readPackages []string
)

var readCmd = &cobra.Command{
	Use:   "read <kind>",
	Short: "Read records of a kind",
	Long: `Read prints the records of the given kind as a JSON array, in
insertion order, with series samples attached.

Example:
  healthvault read weight
  healthvault read heart_rate --package com.example.app`,
	Args: cobra.ExactArgs(1),
	RunE: runRead,
}

func init() {
	readCmd.Flags().StringSliceVar(&readUUIDs, "uuid", nil, "only records with these UUIDs")
	readCmd.Flags().StringSliceVar(&readPackages, "package", nil, "only records from these packages")
}

func runRead(cmd *cobra.Command, args []string) error {
	kind, err := parseKindArg(args[0])
	if err != nil {
		return err
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	records, err := st.ReadRecords(kind, store.RecordQuery{
		UUIDs:    readUUIDs,
		Packages: readPackages,
	})
	if err != nil {
		return err
	}
	return printJSON(records)
}
