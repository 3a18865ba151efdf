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

package gene

import (
	"encoding/json"

	"github.com/googlegenomics/argo/internal/genomics"
	"github.com/googlegenomics/argo/internal/rank"
)

// Options selects the linked genes and scores that contribute to the gene
// rank.
type Options struct {
	UseGenes bool            `json:"useGenes"`
	Methods  map[Method]bool `json:"methods"`
	// ProteinCodingOnly ignores links to genes of any other type.
	ProteinCodingOnly bool           `json:"proteinCodingOnly"`
	RankBy            rank.Reduction `json:"rankBy"`
	UseSpecificity    bool           `json:"useSpecificity"`
	UseExpression     bool           `json:"useExpression"`
	// Biosample selects the expression dataset.  Specificity is independent of
	// the biosample.
	Biosample string `json:"biosample,omitempty"`
}

// DefaultOptions enables every linkage method and both scores and ranks by
// the maximum.
func DefaultOptions() Options {
	opts := Options{
		UseGenes:       true,
		Methods:        make(map[Method]bool),
		RankBy:         rank.Max,
		UseSpecificity: true,
		UseExpression:  true,
	}
	for _, method := range Methods {
		opts.Methods[method] = true
	}
	return opts
}

// UnmarshalJSON decodes options over the current values of opts.  A methods
// map present in data replaces the current one.
func (opts *Options) UnmarshalJSON(data []byte) error {
	type plain Options
	decoded := plain(*opts)
	decoded.Methods = nil
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}
	if decoded.Methods == nil {
		decoded.Methods = opts.Methods
	}
	*opts = Options(decoded)
	return nil
}

// Enabled reports whether any gene score contributes to the rank.
func (opts Options) Enabled() bool {
	return opts.UseGenes && (opts.UseSpecificity || opts.UseExpression)
}

// Ranks returns the gene rank of every input region.  Specificity and
// expression are ranked separately, highest first, and the enabled streams
// are summed and re-ranked.  A region with no scored gene in any enabled
// stream gets rank 0.
func Ranks(specificity, expression []Row, regions []genomics.InputRegion, opts Options) []rank.Entry {
	coordinates := genomics.Regions(regions)
	if !opts.Enabled() {
		return rank.Zero(coordinates)
	}

	var streams [][]rank.Entry
	if opts.UseSpecificity {
		streams = append(streams, dense(specificity))
	}
	if opts.UseExpression {
		streams = append(streams, dense(expression))
	}
	return rank.ReRank(rank.Sum(coordinates, streams...))
}

func dense(rows []Row) []rank.Entry {
	return rank.Dense(rows,
		func(row Row) genomics.Region { return row.InputRegion.Region },
		func(row Row) (float64, bool) { return row.Score, true })
}
