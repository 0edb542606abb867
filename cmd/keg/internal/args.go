package internal

import (
	"fmt"

	"github.com/spf13/cobra"
)

var argsCmd = &cobra.Command{
	Use:   "args [formula]",
	Short: "Print the configure arguments of a formula, one per line",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runArgs,
}

func init() {
	rootCmd.AddCommand(argsCmd)
}

func runArgs(cmd *cobra.Command, args []string) error {
	f, err := loadFormula(args)
	if err != nil {
		return err
	}
	for _, a := range newInstaller(f, nil).Args(f) {
		fmt.Fprintln(cmd.OutOrStdout(), a)
	}
	return nil
}
