// Copyright 2026 The Boxfish Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/kevinabrown/boxfish/datatree"
	"github.com/kevinabrown/boxfish/domain"
	"github.com/kevinabrown/boxfish/errors"
	"github.com/kevinabrown/boxfish/runfile"
)

// Config holds the settings of boxstat.
type Config struct {
	Log struct {
		Level string `mapstructure:"level"`
	} `mapstructure:"log"`
	Aggregator string         `mapstructure:"aggregator"`
	Domains    []DomainConfig `mapstructure:"domains"`
}

// DomainConfig registers an extra domain.
type DomainConfig struct {
	Type        string   `mapstructure:"type"`
	Dims        int      `mapstructure:"dims"`
	Coords      []string `mapstructure:"coords"`
	Description string   `mapstructure:"description"`
}

// app is the state shared by the subcommands.
type app struct {
	v   *viper.Viper
	cfg Config
	log *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New()}
	root := &cobra.Command{
		Use:           "boxstat",
		Short:         "Summarize boxfish runs",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.log != nil {
				_ = a.log.Sync()
			}
		},
	}
	flags := root.PersistentFlags()
	flags.String("config", "", "read settings from `file`")
	flags.String("log-level", "warn", "log `level`: debug, info, warn or error")
	_ = a.v.BindPFlag("log.level", flags.Lookup("log-level"))

	a.v.SetDefault("aggregator", "mean")
	a.v.SetEnvPrefix("BOXSTAT")
	a.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	a.v.AutomaticEnv()

	root.AddCommand(a.treeCmd(), a.groupByCmd(), a.torusCmd())
	return root
}

func (a *app) init(cmd *cobra.Command) error {
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		a.v.SetConfigFile(path)
		if err := a.v.ReadInConfig(); err != nil {
			return errors.Wrap(err, "reading config")
		}
	}
	if err := a.v.Unmarshal(&a.cfg); err != nil {
		return errors.Wrap(err, "decoding config")
	}
	log, err := newLogger(a.cfg.Log.Level)
	if err != nil {
		return err
	}
	a.log = log
	return nil
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, errors.Wrap(err, "log level")
	}
	cfg := zap.NewDevelopmentConfig()
	if lvl > zapcore.DebugLevel {
		cfg = zap.NewProductionConfig()
		cfg.Encoding = "console"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	return cfg.Build()
}

// registry returns the builtin domains plus those in the config.
func (a *app) registry() (*domain.Registry, error) {
	reg := domain.Builtin()
	for _, d := range a.cfg.Domains {
		err := reg.Register(d.Type, domain.Domain{
			Type:        d.Type,
			Dims:        d.Dims,
			Coords:      d.Coords,
			Description: d.Description,
		})
		if err != nil {
			return nil, err
		}
	}
	return reg, nil
}

// load reads the run descriptor at path into a new tree.
func (a *app) load(path string) (*datatree.Tree, datatree.Handle, *datatree.LoadReport, error) {
	reg, err := a.registry()
	if err != nil {
		return nil, datatree.Handle{}, nil, err
	}
	r, err := runfile.Load(path)
	if err != nil {
		return nil, datatree.Handle{}, nil, err
	}
	tree := datatree.New(datatree.WithRegistry(reg), datatree.WithLogger(a.log))
	run, report, err := r.Insert(tree)
	if err != nil {
		return nil, datatree.Handle{}, nil, err
	}
	return tree, run, report, nil
}
