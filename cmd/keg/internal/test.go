package internal

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/kegworks/keg/pkgs/runner"
)

var testCmd = &cobra.Command{
	Use:   "test [formula]",
	Short: "Run the smoke test of an installed formula",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runTest,
}

func init() {
	rootCmd.AddCommand(testCmd)
}

func runTest(cmd *cobra.Command, args []string) error {
	f, err := loadFormula(args)
	if err != nil {
		return err
	}
	if f.Test == "" {
		logger.Warn("formula has no smoke test", "formula", f.Name)
		return nil
	}
	r := runner.NewExec(logger, os.Stderr, true)
	if err := newInstaller(f, r).Verify(cmd.Context(), f); err != nil {
		return err
	}
	logger.Info("smoke test passed", "formula", f.Name)
	return nil
}
