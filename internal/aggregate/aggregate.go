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

// Package aggregate combines the sequence, element and gene rank streams of a
// set of input regions into one final ranking.
package aggregate

import (
	"sort"

	"github.com/googlegenomics/argo/internal/genomics"
	"github.com/googlegenomics/argo/internal/rank"
)

// Row carries every rank of one input region.
type Row struct {
	genomics.InputRegion
	SequenceRank  int `json:"sequenceRank"`
	ElementRank   int `json:"elementRank"`
	GeneRank      int `json:"geneRank"`
	AggregateRank int `json:"aggregateRank"`
}

// CalculateAggregateRanks sums, for every input region, its rank in each of
// the three streams and re-ranks the sums ascending.  Streams are matched to
// regions by exact coordinates and a region missing from a stream contributes
// 0.  Regions whose sum is 0 are dropped.
func CalculateAggregateRanks(regions []genomics.InputRegion, sequence, element, gene []rank.Entry) []rank.Entry {
	totals := rank.Sum(genomics.Regions(regions), sequence, element, gene)
	return rank.NonZero(rank.ReRank(totals))
}

// MatchRanks attaches the three dimension ranks and the aggregate rank to each
// input region.  Regions without an aggregate rank are dropped.  Rows are
// ordered by aggregate rank and then by region ID.
func MatchRanks(regions []genomics.InputRegion, sequence, element, gene, aggregate []rank.Entry) []Row {
	var (
		seq  = rank.Lookup(sequence)
		elem = rank.Lookup(element)
		gen  = rank.Lookup(gene)
		agg  = rank.Lookup(aggregate)
	)

	var rows []Row
	for _, region := range regions {
		if agg[region.Region] == 0 {
			continue
		}
		rows = append(rows, Row{
			InputRegion:   region,
			SequenceRank:  seq[region.Region],
			ElementRank:   elem[region.Region],
			GeneRank:      gen[region.Region],
			AggregateRank: agg[region.Region],
		})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].AggregateRank != rows[j].AggregateRank {
			return rows[i].AggregateRank < rows[j].AggregateRank
		}
		return rows[i].RegionID < rows[j].RegionID
	})
	return rows
}
