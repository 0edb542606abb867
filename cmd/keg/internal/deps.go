package internal

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kegworks/keg/formula"
	"github.com/kegworks/keg/internal/install"
)

var depsWithout []string

var depsCmd = &cobra.Command{
	Use:   "deps [formula]",
	Short: "List the dependencies an install would resolve",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runDeps,
}

func init() {
	depsCmd.Flags().StringSliceVar(&depsWithout, "without", nil, "skip recommended dependencies")
	rootCmd.AddCommand(depsCmd)
}

func runDeps(cmd *cobra.Command, args []string) error {
	f, err := loadFormula(args)
	if err != nil {
		return err
	}
	opts, err := formula.NewOptions(f, nil, depsWithout)
	if err != nil {
		return err
	}
	for _, d := range install.Required(f, opts) {
		fmt.Fprintln(cmd.OutOrStdout(), d.String())
	}
	return nil
}
