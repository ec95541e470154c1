package main

import (
	"errors"
	"fmt"

	inherit "github.com/goliatone/go-inherit"
	"github.com/goliatone/go-inherit/pkg/manifest"
	"github.com/goliatone/go-inherit/pkg/zaplog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// app holds what every command needs once configuration is loaded.
type app struct {
	v          *viper.Viper
	configFile string
	logger     *zap.Logger
	types      *manifest.TypeRegistry
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New(), types: manifest.NewTypeRegistry()}

	root := &cobra.Command{
		Use:   "inheritctl",
		Short: "Inspect hierarchical configuration levels declared in a manifest",
		Long: `inheritctl builds the levels declared in a manifest file and answers
lookups against them. Lookups for bindings walk from the chosen level up to
the root; converters and aspects are aggregated along the same chain.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd)
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configFile, "config", "", "config file (default .inheritctl.yaml)")
	flags.StringP("manifest", "m", "", "manifest file")
	flags.String("log-level", "", "log level (debug, info, warn, error)")
	flags.String("engine", "", "default engine for match expressions (expr, cel, js)")
	_ = a.v.BindPFlag(cfgKeyManifest, flags.Lookup("manifest"))
	_ = a.v.BindPFlag(cfgKeyLogLevel, flags.Lookup("log-level"))
	_ = a.v.BindPFlag(cfgKeyMatcherEngine, flags.Lookup("engine"))

	root.AddCommand(
		newResolveCmd(a),
		newConvertCmd(a),
		newReservedCmd(a),
		newInspectCmd(a),
		newSnapshotCmd(a),
		newVersionCmd(),
	)
	return root
}

func (a *app) init(cmd *cobra.Command) error {
	if cmd.Name() == "version" {
		return nil
	}
	if err := loadConfig(a.v, a.configFile); err != nil {
		return err
	}
	logger, err := zaplog.New(a.v.GetBool(cfgKeyLogProduction), a.v.GetString(cfgKeyLogLevel))
	if err != nil {
		return err
	}
	a.logger = logger
	return nil
}

// hierarchy parses and builds the configured manifest.
func (a *app) hierarchy(cmd *cobra.Command) (*inherit.Hierarchy, error) {
	path := a.v.GetString(cfgKeyManifest)
	if path == "" {
		return nil, errors.New("no manifest given (use --manifest or set manifest in the config)")
	}
	m, err := manifest.ParseFile(path)
	if err != nil {
		return nil, err
	}
	h, err := manifest.Build(m, a.types,
		manifest.WithContext(cmd.Context()),
		manifest.WithDefaultEngine(a.v.GetString(cfgKeyMatcherEngine)),
		manifest.WithLevelOptions(inherit.WithLogger(zaplog.NewStateLogger(a.logger))),
		manifest.WithEvaluatorLogger(zaplog.NewEvaluatorLogger(a.logger)),
	)
	if err != nil {
		return nil, err
	}
	a.logger.Debug("manifest built", zap.String("path", path), zap.Int("levels", h.Len()))
	return h, nil
}

// level builds the manifest and returns the level named by --level.
func (a *app) level(cmd *cobra.Command, name string) (*inherit.Level, error) {
	h, err := a.hierarchy(cmd)
	if err != nil {
		return nil, err
	}
	if name == "" {
		return nil, errors.New("--level is required")
	}
	l, ok := h.Level(name)
	if !ok {
		return nil, fmt.Errorf("unknown level %q (have %v)", name, h.Names())
	}
	return l, nil
}

func (a *app) key(typeName, qualifier string) (inherit.Key, error) {
	if typeName == "" {
		return inherit.Key{}, errors.New("--type is required")
	}
	t, err := a.types.Lookup(typeName)
	if err != nil {
		return inherit.Key{}, err
	}
	return inherit.KeyFor(t, qualifier), nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "inheritctl %s\n", version)
		},
	}
}
