package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var removeCmd = &cobra.Command{
	Use:     "remove <alias>",
	Aliases: []string{"rm"},
	Short:   "Delete a source and all of its archived snapshots",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		alias := args[0]
		if !manager.Exists(alias) {
			return handleError(ErrSourceNotFound, alias, fmt.Errorf("source %q not found", alias))
		}
		shards.Evict(alias)
		if err := controller.Remove(alias); err != nil {
			return handleError(ErrStorageError, alias, err)
		}
		if isJSONOutput() {
			outputSuccess(map[string]string{"alias": alias}, nil)
			return nil
		}
		printlnOrJSON(fmt.Sprintf("removed %s", alias))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(removeCmd)
}
