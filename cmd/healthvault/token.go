// Token commands create and inspect change-log tokens.
package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/helix-health/healthvault/pkg/types"
)

var (
	tokenPackages []string
	tokenKinds    []string
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Manage change-log tokens",
}

var tokenCreateCmd = &cobra.Command{
	Use:   "create <requester>",
	Short: "Create a change-log token",
	Long: `Create records the requester's filter and the current change-log
position, and prints a token. A later "changes" call with the token returns
only mutations that happened after this point.`,
	Args: cobra.ExactArgs(1),
	RunE: runTokenCreate,
}

var tokenShowCmd = &cobra.Command{
	Use:   "show <token>",
	Short: "Show the filter stored for a token",
	Args:  cobra.ExactArgs(1),
	RunE:  runTokenShow,
}

func init() {
	tokenCreateCmd.Flags().StringSliceVar(&tokenPackages, "package", nil, "only changes from these packages")
	tokenCreateCmd.Flags().StringSliceVar(&tokenKinds, "kind", nil, "only changes to these record kinds")

	tokenCmd.AddCommand(tokenCreateCmd)
	tokenCmd.AddCommand(tokenShowCmd)
}

func parseKindArgs(names []string) ([]types.RecordKind, error) {
	kinds := make([]types.RecordKind, 0, len(names))
	for _, name := range names {
		kind, err := parseKindArg(name)
		if err != nil {
			return nil, err
		}
		kinds = append(kinds, kind)
	}
	return kinds, nil
}

func runTokenCreate(cmd *cobra.Command, args []string) error {
	kinds, err := parseKindArgs(tokenKinds)
	if err != nil {
		return err
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	token, err := st.CreateChangeToken(args[0], tokenPackages, kinds)
	if err != nil {
		return err
	}
	fmt.Println(token)
	return nil
}

func runTokenShow(cmd *cobra.Command, args []string) error {
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
	return printJSON(req)
}
