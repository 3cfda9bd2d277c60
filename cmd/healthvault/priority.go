// Priority commands read and replace category priority lists.
package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var priorityCmd = &cobra.Command{
	Use:   "priority",
	Short: "Manage per-category priority lists",
}

var priorityGetCmd = &cobra.Command{
	Use:   "get <category>",
	Short: "Print a category's priority list",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		category, err := parseCategoryArg(args[0])
		if err != nil {
			return err
		}

		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		packages, err := st.Priority(category)
		if err != nil {
			return err
		}
		return printJSON(packages)
	},
}

var prioritySetCmd = &cobra.Command{
	Use:   "set <category> <package>...",
	Short: "Replace a category's priority list",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		category, err := parseCategoryArg(args[0])
		if err != nil {
			return err
		}

		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.SetPriority(category, args[1:]); err != nil {
			return err
		}
		fmt.Println("priority updated for", category)
		return nil
	},
}

func init() {
	priorityCmd.AddCommand(priorityGetCmd)
	priorityCmd.AddCommand(prioritySetCmd)
}
