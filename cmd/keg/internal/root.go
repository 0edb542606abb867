package internal

import (
	"context"
	"os"
	"os/signal"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/kegworks/keg/internal/config"
)

var (
	configFile  string
	formulaFile string

	cfg    *config.Config
	logger = log.NewWithOptions(os.Stderr, log.Options{Prefix: "keg"})
)

var rootCmd = &cobra.Command{
	Use:   "keg",
	Short: "keg builds and installs software from formulas",
	Long: `keg builds and installs software from formulas: it resolves dependencies,
configures and builds the source with cmake or autotools, installs it and
runs the formula's smoke test.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configFile, "config", "", "config file (default "+config.FileName+" in the user config dir)")
	pf.StringVarP(&formulaFile, "file", "f", "", "load the formula from a YAML file instead of the built-ins")
	pf.String("prefix", "", "default install prefix; a recipe CMAKE_INSTALL_PREFIX define takes precedence")
	pf.String("log-level", "", "log level: debug, info, warn, error")
}

// setup resolves the configuration once flags are parsed.
func setup(cmd *cobra.Command, args []string) error {
	var err error
	cfg, err = config.Load(config.LoadOptions{File: configFile, Flags: cmd.Flags()})
	if err != nil {
		return err
	}
	logger.SetLevel(cfg.Level())
	return nil
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		logger.Error(err)
		os.Exit(1)
	}
}
