package cmd

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gnolang/tgrit/engine"
	"github.com/gnolang/tgrit/internal/cache"
	"github.com/gnolang/tgrit/rewrite"
)

const (
	defaultRulesFile = ".tgrit.yaml"
	defaultTimeout   = 5 * time.Minute
)

// ErrMatchesFound is returned by search --fail when any rule matched.
var ErrMatchesFound = errors.New("matches found")

type rootOptions struct {
	rulesFile   string
	cacheDir    string
	metricsFile string
	timeout     time.Duration
	verbose     bool

	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{logger: zap.NewNop()}

	rootCmd := &cobra.Command{
		Use:              "tgrit [paths...]",
		Short:            "tgrit - structural search and rewrite for Go sources",
		Args:             cobra.ArbitraryArgs,
		TraverseChildren: true, // Prioritize subcommands
		SilenceUsage:     true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newLogger(opts.verbose)
			if err != nil {
				return err
			}
			opts.logger = logger
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			// display help when only 'tgrit' is entered
			if len(args) == 0 {
				return cmd.Help()
			}
			// tgrit [path1 path2 ...] behaves like the search subcommand
			return runSearch(cmd, opts, &searchOptions{}, args)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&opts.rulesFile, "rules", "r", defaultRulesFile, "Rule file")
	flags.DurationVar(&opts.timeout, "timeout", defaultTimeout, "Abort after this long")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging")
	flags.StringVar(&opts.cacheDir, "cache-dir", "", "Reuse search results stored in this directory")
	flags.StringVar(&opts.metricsFile, "metrics", "", "Write run metrics in Prometheus text format to this file")

	rootCmd.AddCommand(newInitCmd(opts))
	rootCmd.AddCommand(newSearchCmd(opts))
	rootCmd.AddCommand(newApplyCmd(opts))
	rootCmd.AddCommand(newWatchCmd(opts))
	return rootCmd
}

func Execute() error {
	return newRootCmd().Execute()
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	return cfg.Build()
}

// newEngine loads the rule file and wires logging, metrics and the cache
// into a rewrite engine.
func (o *rootOptions) newEngine() (*rewrite.Engine, *prometheus.Registry, error) {
	rules, err := engine.LoadRules(o.rulesFile)
	if err != nil {
		return nil, nil, err
	}

	reg := prometheus.NewRegistry()
	engineOpts := []rewrite.Option{
		rewrite.WithLogger(o.logger),
		rewrite.WithMetrics(rewrite.NewMetrics(reg)),
	}
	if o.cacheDir != "" {
		hash, err := engine.RulesHash(rules)
		if err != nil {
			return nil, nil, err
		}
		c, err := cache.New(o.cacheDir, hash)
		if err != nil {
			return nil, nil, err
		}
		engineOpts = append(engineOpts, rewrite.WithCache(c))
	}

	e, err := rewrite.NewEngine(rules, engineOpts...)
	if err != nil {
		return nil, nil, err
	}
	return e, reg, nil
}

func (o *rootOptions) writeMetrics(reg *prometheus.Registry) {
	if o.metricsFile == "" {
		return
	}
	if err := prometheus.WriteToTextfile(o.metricsFile, reg); err != nil {
		o.logger.Error("Error writing metrics", zap.String("file", o.metricsFile), zap.Error(err))
	}
}
