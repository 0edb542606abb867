package internal

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kegworks/keg/formula"
	"github.com/kegworks/keg/internal/env"
	"github.com/kegworks/keg/internal/receipt"
)

var infoCmd = &cobra.Command{
	Use:   "info [formula]",
	Short: "Show formula metadata, options and install state",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runInfo,
}

func init() {
	rootCmd.AddCommand(infoCmd)
}

func runInfo(cmd *cobra.Command, args []string) error {
	f, err := loadFormula(args)
	if err != nil {
		return err
	}
	dir, err := env.ReceiptsDir()
	if err != nil {
		return err
	}
	rec, err := receipt.Store{Dir: dir}.Lookup(f.Name)
	if err != nil {
		return err
	}
	printInfo(cmd.OutOrStdout(), f, rec)
	return nil
}

func printInfo(w io.Writer, f *formula.Formula, rec *receipt.Receipt) {
	fmt.Fprintf(w, "%s: %s\n", f.Name, f.Version)
	if f.Desc != "" {
		fmt.Fprintln(w, f.Desc)
	}
	if f.Homepage != "" {
		fmt.Fprintln(w, f.Homepage)
	}
	if f.URL != "" {
		fmt.Fprintf(w, "url: %s\n", f.URL)
	}
	if f.Head != "" {
		fmt.Fprintf(w, "head: %s\n", f.Head)
	}

	if f.Deps.Len() > 0 {
		fmt.Fprintln(w, "\nDependencies:")
		for _, kind := range []formula.DepKind{formula.Build, formula.Runtime, formula.Recommended} {
			var names []string
			for _, d := range f.Deps.Of(kind) {
				names = append(names, d.Name)
			}
			if len(names) > 0 {
				fmt.Fprintf(w, "  %s: %s\n", kind, strings.Join(names, ", "))
			}
		}
	}

	if len(f.Options) > 0 {
		fmt.Fprintln(w, "\nOptions:")
		for _, o := range f.Options {
			fmt.Fprintf(w, "  --%s\n      %s\n", o.Flag(), o.Desc)
		}
		for _, d := range f.Deps.Of(formula.Recommended) {
			fmt.Fprintf(w, "  --without-%s\n      Build without %s support\n", d.Name, d.Name)
		}
	}

	fmt.Fprintln(w)
	if rec == nil {
		fmt.Fprintln(w, "Not installed")
		return
	}
	state := "verified"
	if !rec.Verified {
		state = "smoke test failed"
	}
	fmt.Fprintf(w, "Installed %s on %s (%s)\n", rec.Version, rec.InstalledAt.Format("2006-01-02 15:04"), state)
	if rec.Head != "" {
		fmt.Fprintf(w, "  head commit: %s\n", rec.Head)
	}
	if len(rec.Options) > 0 {
		fmt.Fprintf(w, "  options: %s\n", strings.Join(rec.Options, " "))
	}
}
