package internal

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kegworks/keg/formula/builtin"
	"github.com/kegworks/keg/internal/env"
	"github.com/kegworks/keg/internal/receipt"
)

var listInstalled bool

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List built-in formulas, or installed ones with --installed",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func init() {
	listCmd.Flags().BoolVarP(&listInstalled, "installed", "i", false, "list installed formulas")
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	w := cmd.OutOrStdout()
	if !listInstalled {
		for _, name := range builtin.Names() {
			fmt.Fprintln(w, name)
		}
		return nil
	}
	dir, err := env.ReceiptsDir()
	if err != nil {
		return err
	}
	recs, err := receipt.Store{Dir: dir}.List()
	if err != nil {
		return err
	}
	for _, r := range recs {
		line := r.Name + " " + r.Version
		if r.Head != "" {
			line += " (HEAD " + shortCommit(r.Head) + ")"
		}
		if !r.Verified {
			line += " [unverified]"
		}
		fmt.Fprintln(w, line)
	}
	return nil
}

func shortCommit(c string) string {
	if len(c) > 7 {
		return c[:7]
	}
	return c
}
