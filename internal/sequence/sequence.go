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

// Package sequence normalizes sequence level data, conservation scores and
// transcription factor motifs, into per-region rows and ranks them.
package sequence

import (
	"github.com/googlegenomics/argo/internal/genomics"
	"github.com/googlegenomics/argo/internal/rank"
)

// Options selects which sequence scores contribute to the sequence rank.
type Options struct {
	// UseConservation ranks regions by their conservation score.
	UseConservation bool `json:"useConservation"`
	// Alignment names the conservation track, for example "241-mam-phyloP".
	Alignment string `json:"alignment"`
	// RankBy collapses the per-base conservation values of a region.
	RankBy rank.Reduction `json:"rankBy"`

	// UseMotifs ranks regions by the number of motifs that pass MotifFilter.
	UseMotifs    bool        `json:"useMotifs"`
	MotifCatalog string      `json:"motifCatalog"`
	MotifFilter  MotifFilter `json:"motifFilter"`
}

// DefaultOptions ranks by maximum 241-mammal phyloP conservation.
func DefaultOptions() Options {
	return Options{
		UseConservation: true,
		Alignment:       "241-mam-phyloP",
		RankBy:          rank.Max,
		MotifCatalog:    "HOCOMOCO",
		MotifFilter:     DefaultMotifFilter(),
	}
}

// Enabled reports whether any sequence score contributes to the rank.
func (opts Options) Enabled() bool {
	return opts.UseConservation || opts.UseMotifs
}

// Row holds the sequence scores of one input region.
type Row struct {
	RegionID    int                  `json:"regionID"`
	InputRegion genomics.InputRegion `json:"inputRegion"`
	// Conservation is nil when no conservation data covered the region.
	Conservation *float64   `json:"conservationScore,omitempty"`
	NumMotifs    int        `json:"numOverlappingMotifs"`
	Motifs       []MotifHit `json:"motifs,omitempty"`
}

// Ranks returns the sequence rank of every region.  Each enabled score forms
// one rank stream; the streams are summed and re-ranked.  Regions without a
// conservation score are excluded from the conservation stream.
func Ranks(rows []Row, regions []genomics.InputRegion, opts Options) []rank.Entry {
	coordinates := genomics.Regions(regions)
	if !opts.Enabled() {
		return rank.Zero(coordinates)
	}

	var streams [][]rank.Entry
	if opts.UseConservation {
		var conserved []Row
		for _, row := range rows {
			if row.Conservation != nil {
				conserved = append(conserved, row)
			}
		}
		streams = append(streams, rank.Dense(conserved, rowRegion, func(row Row) (float64, bool) {
			return *row.Conservation, true
		}))
	}
	if opts.UseMotifs {
		streams = append(streams, rank.Dense(rows, rowRegion, func(row Row) (float64, bool) {
			return float64(row.NumMotifs), true
		}))
	}
	return rank.ReRank(rank.Sum(coordinates, streams...))
}

func rowRegion(row Row) genomics.Region {
	return row.InputRegion.Region
}

// Merge combines conservation rows and motif rows into one row per region, in
// region order.  Regions present in neither are omitted.
func Merge(regions []genomics.InputRegion, conservation, motifs []Row) []Row {
	byID := make(map[int]*Row)
	for _, rows := range [][]Row{conservation, motifs} {
		for _, row := range rows {
			merged, ok := byID[row.RegionID]
			if !ok {
				merged = &Row{RegionID: row.RegionID, InputRegion: row.InputRegion}
				byID[row.RegionID] = merged
			}
			if row.Conservation != nil {
				merged.Conservation = row.Conservation
			}
			if row.Motifs != nil || row.NumMotifs > 0 {
				merged.NumMotifs = row.NumMotifs
				merged.Motifs = row.Motifs
			}
		}
	}

	var merged []Row
	for _, region := range regions {
		if row, ok := byID[region.RegionID]; ok {
			merged = append(merged, *row)
		}
	}
	return merged
}
