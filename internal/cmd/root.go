// Copyright 2018 Google Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package cmd implements the argo command line.
package cmd

import (
	"fmt"
	"os"

	"github.com/googlegenomics/argo/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// options holds the state shared by the commands of one command tree.
type options struct {
	v          *viper.Viper
	configFile string
}

func (o *options) load() (config.Config, *zap.Logger, error) {
	c, err := config.Load(o.v, o.configFile)
	if err != nil {
		return config.Config{}, nil, err
	}
	logger, err := newLogger(c.Verbose)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("creating logger: %v", err)
	}
	return c, logger, nil
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// NewRootCommand returns the argo command with all of its subcommands.
func NewRootCommand() *cobra.Command {
	o := &options{v: viper.New()}

	root := &cobra.Command{
		Use:   "argo",
		Short: "Rank genomic regions by sequence, element and gene evidence",
		Long: `argo ranks uploaded genomic regions by sequence conservation and motifs,
overlapping candidate cis-regulatory element z-scores and linked gene
specificity and expression, then aggregates the three rankings.`,
		SilenceUsage: true,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&o.configFile, "config", "", "config file (default is ./argo.yaml or $HOME/.argo/argo.yaml)")
	flags.Bool("verbose", false, "development logging")
	flags.String("endpoint", "", "GraphQL endpoint")
	flags.String("assembly", "", "genome assembly")
	flags.Int("batch-size", 0, "base pair budget of a single conservation query")
	o.bindFlags("", flags, "verbose", "endpoint", "assembly", "batch-size")

	root.AddCommand(newServeCommand(o), newRankCommand(o))
	return root
}

// bindFlags binds each named flag to the configuration key prefix+name.  It
// panics if a flag is not defined.
func (o *options) bindFlags(prefix string, flags *pflag.FlagSet, names ...string) {
	for _, name := range names {
		if err := o.v.BindPFlag(prefix+name, flags.Lookup(name)); err != nil {
			panic(fmt.Sprintf("binding flag %q: %v", name, err))
		}
	}
}

// Execute runs the argo command and exits on failure.
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
