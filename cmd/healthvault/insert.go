// Insert command writes records from a JSON file.
package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/helix-health/healthvault/pkg/types"
)

var insertUpsert bool

var insertCmd = &cobra.Command{
	Use:   "insert <records.json>",
	Short: "Insert records from a JSON file",
	Long: `Insert reads a JSON array of record envelopes and writes them in one
transaction. Use "-" to read from stdin. With --upsert, records whose
(package, client_record_id) pair matches an existing row update it in place.

Example envelope:
  {"kind": "weight", "package": "com.example.app", "time": "2024-03-01T08:00:00Z",
   "payload": {"kilograms": 71.5}}`,
	Args: cobra.ExactArgs(1),
	RunE: runInsert,
}

func init() {
	insertCmd.Flags().BoolVar(&insertUpsert, "upsert", false, "update records matching an existing client record id")
}

func runInsert(cmd *cobra.Command, args []string) error {
	data, err := readInput(args[0])
	if err != nil {
		return fmt.Errorf("read records: %w", err)
	}

	var records []*types.Record
	if err := json.Unmarshal(data, &records); err != nil {
		return fmt.Errorf("decode records: %w", err)
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	var uuids []string
	if insertUpsert {
		uuids, err = st.UpsertRecords(records...)
	} else {
		uuids, err = st.InsertRecords(records...)
	}
	if err != nil {
		return err
	}
	return printJSON(uuids)
}
