package main

import (
	"fmt"
	"io"
	"os"

	"github.com/eflab/nwbtrials/internal/config"
	"github.com/eflab/nwbtrials/pkg/logger"
	"github.com/eflab/nwbtrials/pkg/nwbtrials"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// app carries state shared by every subcommand.
type app struct {
	v          *viper.Viper
	cfg        *config.Config
	log        *logger.Logger
	logOutput  io.Writer
	configPath string
	opener     nwbtrials.Opener // nil uses the NWB file opener
}

func main() {
	a := &app{logOutput: os.Stderr}
	if err := a.rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func (a *app) rootCmd() *cobra.Command {
	a.v = config.New()

	root := &cobra.Command{
		Use:   "nwbtrials",
		Short: "Trial-aligned signal extraction from NWB files",
		Long: `nwbtrials reads dF/F response series from an NWB file, groups them by
trial and channel, re-zeroes time on a reference trial and joins stimulus
annotations onto every sample.

Settings come from flags, NWBTRIALS_* environment variables and
` + config.ConfigFile() + `, in that order.`,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.log != nil {
				_ = a.log.Sync()
			}
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "config file (default "+config.ConfigFile()+")")
	flags.String("log-level", "info", "log level: debug, info, warn, error")
	flags.Int("reference-trial", 1, "trial whose first sample becomes time zero")
	flags.StringSlice("channels", nil, "recognised channel names (default DMD1,DMD2)")
	flags.String("order", "table", "overlapping interval order: table or start_time")
	flags.String("stimulus-table", nwbtrials.DefaultStimulusTable, "interval table holding stimulus presentations")

	bind := map[string]string{
		"logging.level":           "log-level",
		"session.reference_trial": "reference-trial",
		"session.channels":        "channels",
		"session.interval_order":  "order",
		"session.stimulus_table":  "stimulus-table",
	}
	for key, flag := range bind {
		_ = a.v.BindPFlag(key, flags.Lookup(flag))
	}

	root.AddCommand(
		a.metaCmd(),
		a.ratesCmd(),
		a.stimulusCmd(),
		a.dffCmd(),
		a.masksCmd(),
		a.planesCmd(),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	if err := config.ReadFile(a.v, a.configPath); err != nil {
		return err
	}
	cfg, err := config.Load(a.v)
	if err != nil {
		return err
	}
	a.cfg = cfg

	logCfg := logger.DefaultConfig()
	logCfg.Level = cfg.LogLevel()
	logCfg.Output = a.logOutput
	if os.Getenv("NO_COLOR") != "" {
		logCfg.Colorize = false
	}
	a.log = logger.New(logCfg)
	a.log.Debugf("Running %s with reference trial %d", cmd.Name(), cfg.Session.ReferenceTrial)
	return nil
}

// options returns the session options derived from configuration.
func (a *app) options(path string) []nwbtrials.Option {
	opts := append(a.cfg.Options(), nwbtrials.WithLogger(a.log.With("file", path)))
	if a.opener != nil {
		opts = append(opts, nwbtrials.WithOpener(a.opener))
	}
	return opts
}

func (a *app) withSession(path string, fn func(*nwbtrials.Session) error) error {
	return nwbtrials.WithSession(path, fn, a.options(path)...)
}
