package internal

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/kegworks/keg/formula"
	"github.com/kegworks/keg/internal/env"
	"github.com/kegworks/keg/internal/fetch"
	"github.com/kegworks/keg/internal/install"
	"github.com/kegworks/keg/internal/lock"
	"github.com/kegworks/keg/internal/receipt"
	"github.com/kegworks/keg/internal/vcs"
	"github.com/kegworks/keg/pkgs/runner"
)

var (
	installWith    []string
	installWithout []string
	installHead    bool
	installDryRun  bool
	installAll     bool
	installForce   bool
	installVerbose bool
)

var installCmd = &cobra.Command{
	Use:   "install [formula]",
	Short: "Build and install a formula",
	Long: `Install resolves the dependencies of a formula, fetches its source, runs the
configure, build, optional test and install steps inside a scratch build
directory, and finally runs the formula's smoke test.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInstall,
}

func init() {
	flags := installCmd.Flags()
	flags.StringSliceVar(&installWith, "with", nil, "enable formula options, e.g. --with test")
	flags.StringSliceVar(&installWithout, "without", nil, "skip recommended dependencies, e.g. --without mpi")
	flags.BoolVar(&installHead, "head", false, "build the latest commit of the head repository")
	flags.BoolVarP(&installDryRun, "dry-run", "n", false, "print the steps without running them")
	flags.BoolVar(&installAll, "all-options", false, "with --dry-run, print the steps of every option combination")
	flags.BoolVar(&installForce, "force", false, "reinstall even if this or a newer version is installed")
	flags.Bool("keep-tmp", false, "keep the build directory when the install fails")
	flags.IntP("jobs", "j", 0, "make parallelism, overrides the formula")
	flags.BoolVarP(&installVerbose, "verbose", "v", false, "stream build output")
	rootCmd.AddCommand(installCmd)
}

func runInstall(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	f, err := loadFormula(args)
	if err != nil {
		return err
	}
	opts, err := formula.NewOptions(f, installWith, installWithout)
	if err != nil {
		return err
	}
	if installHead && f.Head == "" {
		return fmt.Errorf("%s has no head repository", f.Name)
	}
	logger.Info("installing", "formula", f.Name, "version", f.Version, "options", opts.String())

	if installAll && !installDryRun {
		return fmt.Errorf("--all-options requires --dry-run")
	}
	if installDryRun {
		combos := []formula.Options{opts}
		if installAll {
			combos = formula.Combinations(f)
		}
		for _, o := range combos {
			logger.Info("dry run", "formula", f.Name, "options", o.String())
			if err := dryRunInstall(ctx, f, o); err != nil {
				return err
			}
		}
		return nil
	}

	workDir, err := env.WorkDir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(workDir, 0o700); err != nil {
		return err
	}
	l, err := lock.Acquire(ctx, filepath.Join(workDir, ".lock"))
	if err != nil {
		return err
	}
	defer l.Release()

	receiptsDir, err := env.ReceiptsDir()
	if err != nil {
		return err
	}
	store := receipt.Store{Dir: receiptsDir}
	if !installForce {
		if err := checkInstalled(ctx, store, f); err != nil {
			return fmt.Errorf("%w; use --force to reinstall", err)
		}
	}

	proj, commit, err := source(ctx, f)
	if err != nil {
		return err
	}

	r := runner.NewExec(logger, os.Stderr, installVerbose)
	res, err := newInstaller(f, r).Install(ctx, f, proj, opts)
	if res != nil && res.Installed {
		rec := receipt.New(f.Name, f.Version)
		rec.Head = commit
		rec.Options = opts.Selected()
		rec.Args = res.Args
		rec.Verified = res.Verified
		if saveErr := store.Save(rec); saveErr != nil {
			logger.Warn("write receipt", "err", saveErr)
		}
	}
	if err != nil {
		var verr *install.VerifyError
		if errors.As(err, &verr) {
			logger.Warn("installed but the smoke test failed", "formula", f.Name)
		}
		return err
	}
	logger.Info("installed", "formula", f.Name, "version", f.Version)
	return nil
}

// checkInstalled refuses to reinstall what is already there: an equal or
// newer version, or for --head installs the current remote commit.
func checkInstalled(ctx context.Context, store receipt.Store, f *formula.Formula) error {
	prev, err := store.Lookup(f.Name)
	if err != nil || prev == nil {
		return err
	}
	if !installHead {
		return receipt.Check(prev, f.Version)
	}
	if prev.Head == "" {
		return nil
	}
	latest, err := vcs.NewGitVCS().Latest(ctx, f.Head)
	if err != nil {
		return err
	}
	return receipt.CheckHead(prev, latest)
}

// source prepares the source tree of f and returns the head commit for
// --head installs.
func source(ctx context.Context, f *formula.Formula) (*formula.Project, string, error) {
	sourcesDir, err := env.SourcesDir()
	if err != nil {
		return nil, "", err
	}
	if installHead {
		dir := filepath.Join(sourcesDir, f.Name+"-HEAD")
		git := vcs.NewGitVCS()
		logger.Info("syncing", "repo", f.Head, "dir", dir)
		if err := git.Sync(ctx, f.Head, "HEAD", dir); err != nil {
			return nil, "", fmt.Errorf("sync %s: %w", f.Head, err)
		}
		commit, err := git.Head(ctx, dir)
		if err != nil {
			return nil, "", err
		}
		return formula.NewProject(dir), commit, nil
	}

	downloads, err := env.DownloadsDir()
	if err != nil {
		return nil, "", err
	}
	dir := filepath.Join(sourcesDir, f.Name+"-"+f.Version)
	fetcher := &fetch.Fetcher{Cache: downloads, Logger: logger}
	if err := fetcher.Source(ctx, f.Metadata, dir); err != nil {
		return nil, "", err
	}
	return formula.NewProject(dir), "", nil
}

// dryRunInstall logs the steps an install would run against an empty
// scratch source tree.
func dryRunInstall(ctx context.Context, f *formula.Formula, opts formula.Options) error {
	dir, err := os.MkdirTemp("", "keg-dry-run-")
	if err != nil {
		return err
	}
	defer os.RemoveAll(dir)

	in := newInstaller(f, runner.DryRun{Logger: logger})
	_, err = in.Install(ctx, f, formula.NewProject(dir), opts)
	return err
}
