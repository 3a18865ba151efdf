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

package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/googlegenomics/argo/internal/argo"
	"github.com/googlegenomics/argo/internal/export"
	"github.com/googlegenomics/argo/internal/genomics"
	"github.com/googlegenomics/argo/internal/screen"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newRankCommand(o *options) *cobra.Command {
	var (
		regionsFile string
		optionsFile string
		format      string
	)
	cmd := &cobra.Command{
		Use:   "rank",
		Short: "Rank the regions of a BED file",
		Example: `  argo rank --regions regions.bed
  argo rank --regions regions.bed --options options.json --format csv > ranks.csv`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "json" && format != "csv" {
				return fmt.Errorf("unsupported format %q", format)
			}
			c, logger, err := o.load()
			if err != nil {
				return err
			}
			defer logger.Sync()

			regions, err := readRegions(regionsFile)
			if err != nil {
				return err
			}
			opts, err := readOptions(optionsFile)
			if err != nil {
				return err
			}
			if opts.Assembly == "" {
				opts.Assembly = c.Assembly
			}

			client := screen.NewClient(c.Endpoint,
				screen.WithBatchSize(c.BatchSize),
				screen.WithLogger(logger.Named("screen")))
			result, err := argo.NewRanker(client, logger.Named("argo")).Rank(cmd.Context(), regions, opts)
			if err != nil {
				return fmt.Errorf("ranking %s: %v", regionsFile, err)
			}
			logger.Debug("Ranked", zap.Int("regions", len(result.Ranked)))

			return writeRanks(cmd.OutOrStdout(), format, result)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&regionsFile, "regions", "r", "", "BED file of regions to rank")
	flags.StringVar(&optionsFile, "options", "", "JSON file of ranking options")
	flags.StringVarP(&format, "format", "f", "json", `output format, "json" or "csv"`)
	cmd.MarkFlagRequired("regions")
	return cmd
}

func readRegions(name string) ([]genomics.InputRegion, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, fmt.Errorf("opening regions: %v", err)
	}
	defer f.Close()

	regions, err := genomics.ParseBED(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %v", name, err)
	}
	return regions, nil
}

// readOptions reads ranking options from name.  Settings missing from the
// file keep their defaults, except the assembly which is left empty so that
// the configured one applies.
func readOptions(name string) (argo.Options, error) {
	opts := argo.DefaultOptions()
	opts.Assembly = ""
	if name == "" {
		return opts, nil
	}

	content, err := os.ReadFile(name)
	if err != nil {
		return argo.Options{}, fmt.Errorf("reading options: %v", err)
	}
	if err := json.Unmarshal(content, &opts); err != nil {
		return argo.Options{}, fmt.Errorf("decoding options %s: %v", name, err)
	}
	return opts, nil
}

func writeRanks(w io.Writer, format string, result *argo.Result) error {
	if format == "csv" {
		return export.WriteCSV(w, result.Ranked)
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(result.Ranked); err != nil {
		return fmt.Errorf("writing ranks: %v", err)
	}
	return nil
}
