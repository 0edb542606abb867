package internal

import (
	"fmt"

	"github.com/kegworks/keg/formula"
	"github.com/kegworks/keg/formula/builtin"
	"github.com/kegworks/keg/internal/deps"
	"github.com/kegworks/keg/internal/install"
	"github.com/kegworks/keg/pkgs/buildsys"
	"github.com/kegworks/keg/pkgs/buildsys/autotools"
	"github.com/kegworks/keg/pkgs/buildsys/cmake"
	"github.com/kegworks/keg/pkgs/runner"
)

// loadFormula returns the formula named by args[0], or the one in --file.
func loadFormula(args []string) (*formula.Formula, error) {
	if formulaFile != "" {
		if len(args) > 0 {
			return nil, fmt.Errorf("both --file and formula name %q given", args[0])
		}
		return formula.Load(formulaFile)
	}
	if len(args) == 0 {
		return nil, fmt.Errorf("formula name or --file required")
	}
	return builtin.Lookup(args[0])
}

// hostDefaults returns the default build arguments for the recipe system of f.
func hostDefaults(f *formula.Formula) buildsys.DefaultArgs {
	if f.Recipe.System == formula.Autotools {
		return autotools.StdArgs{Prefix: cfg.Prefix}
	}
	return cmake.StdArgs{Prefix: cfg.Prefix}
}

func newInstaller(f *formula.Formula, r runner.Runner) *install.Installer {
	return &install.Installer{
		Runner: r,
		Resolver: &deps.Host{
			Runner:   r,
			Install:  cfg.Host.Install,
			Features: cfg.Host.FeatureInstall,
			Logger:   logger,
		},
		Defaults: hostDefaults(f),
		Logger:   logger,
		Jobs:     cfg.Jobs,
		KeepTmp:  cfg.KeepTmp,
	}
}

