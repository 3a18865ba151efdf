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

package element

import (
	"encoding/json"

	"github.com/googlegenomics/argo/internal/genomics"
	"github.com/googlegenomics/argo/internal/rank"
)

// Options selects the cCREs and assays that contribute to the element rank.
type Options struct {
	UseElements bool `json:"useElements"`
	// Biosample restricts z-scores to one biosample.  When empty the aggregate
	// z-scores across all biosamples are used.
	Biosample string         `json:"biosample,omitempty"`
	Assays    map[Assay]bool `json:"assays"`
	Classes   map[Class]bool `json:"classes"`
	// RankBy collapses the z-scores of several cCREs overlapping one region.
	RankBy rank.Reduction `json:"rankBy"`
}

// DefaultOptions enables every assay and class and ranks by the maximum.
func DefaultOptions() Options {
	opts := Options{
		UseElements: true,
		Assays:      make(map[Assay]bool),
		Classes:     make(map[Class]bool),
		RankBy:      rank.Max,
	}
	for _, assay := range Assays {
		opts.Assays[assay] = true
	}
	for _, class := range Classes {
		opts.Classes[class] = true
	}
	return opts
}

// UnmarshalJSON decodes options over the current values of opts.  A toggle
// map present in data replaces the current map instead of being merged into
// it, so only the assays and classes it names can be enabled.
func (opts *Options) UnmarshalJSON(data []byte) error {
	type plain Options
	decoded := plain(*opts)
	decoded.Assays, decoded.Classes = nil, nil
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}
	if decoded.Assays == nil {
		decoded.Assays = opts.Assays
	}
	if decoded.Classes == nil {
		decoded.Classes = opts.Classes
	}
	*opts = Options(decoded)
	return nil
}

// CellTypeSpecific reports whether z-scores should come from one biosample.
func (opts Options) CellTypeSpecific() bool {
	return opts.Biosample != ""
}

// Enabled reports whether any assay contributes to the rank.
func (opts Options) Enabled() bool {
	return opts.UseElements && len(opts.enabledAssays()) > 0
}

func (opts Options) enabledAssays() []Assay {
	var assays []Assay
	for _, assay := range Assays {
		if opts.Assays[assay] {
			assays = append(assays, assay)
		}
	}
	return assays
}

// AssayRanks holds the rank of one region in each enabled assay.
type AssayRanks struct {
	Region genomics.Region
	Ranks  map[Assay]int
}

// Total returns the sum of the assay ranks.
func (ranks AssayRanks) Total() int {
	var total int
	for _, r := range ranks.Ranks {
		total += r
	}
	return total
}

// collapsed holds the combined z-scores of the cCREs overlapping one region.
type collapsed struct {
	region genomics.InputRegion
	scores map[Assay]float64
}

// collapse combines, per region, the z-scores of rows whose class is enabled.
// Regions with no such row are absent from the result.
func collapse(rows []Row, opts Options) []collapsed {
	type builder struct {
		region genomics.InputRegion
		values map[Assay][]float64
	}
	var (
		order []int
		byID  = make(map[int]*builder)
	)
	for _, row := range rows {
		if !opts.Classes[row.Class] {
			continue
		}
		b, ok := byID[row.RegionID]
		if !ok {
			b = &builder{region: row.InputRegion, values: make(map[Assay][]float64)}
			byID[row.RegionID] = b
			order = append(order, row.RegionID)
		}
		for _, assay := range Assays {
			if score, ok := row.Score(assay); ok {
				b.values[assay] = append(b.values[assay], score)
			}
		}
	}

	result := make([]collapsed, 0, len(order))
	for _, id := range order {
		b := byID[id]
		c := collapsed{region: b.region, scores: make(map[Assay]float64)}
		for assay, values := range b.values {
			if score, ok := opts.RankBy.Reduce(values); ok {
				c.scores[assay] = score
			}
		}
		result = append(result, c)
	}
	return result
}

// RanksByAssay ranks regions separately in each enabled assay.  Regions with
// an enabled cCRE but no score for an assay rank last in that assay.
func RanksByAssay(rows []Row, opts Options) []AssayRanks {
	regions := collapse(rows, opts)

	byRegion := make([]AssayRanks, len(regions))
	index := make(map[genomics.Region]int, len(regions))
	for i, c := range regions {
		byRegion[i] = AssayRanks{Region: c.region.Region, Ranks: make(map[Assay]int)}
		index[c.region.Region] = i
	}

	for _, assay := range opts.enabledAssays() {
		assay := assay
		entries := rank.Dense(regions,
			func(c collapsed) genomics.Region { return c.region.Region },
			func(c collapsed) (float64, bool) {
				score, ok := c.scores[assay]
				return score, ok
			})
		for _, entry := range entries {
			byRegion[index[entry.Region()]].Ranks[assay] = entry.Rank
		}
	}
	return byRegion
}

// Ranks returns the element rank of every input region: the sum of its
// assay ranks, re-ranked.  Regions with no enabled cCRE, or ranked with no
// enabled assay, get rank 0.
func Ranks(rows []Row, regions []genomics.InputRegion, opts Options) []rank.Entry {
	coordinates := genomics.Regions(regions)
	if !opts.Enabled() {
		return rank.Zero(coordinates)
	}

	lookup := make(map[genomics.Region]int)
	for _, assayRanks := range RanksByAssay(rows, opts) {
		lookup[assayRanks.Region] = assayRanks.Total()
	}

	totals := make([]rank.Total, len(coordinates))
	for i, region := range coordinates {
		totals[i] = rank.Total{Region: region, Total: lookup[region]}
	}
	return rank.ReRank(totals)
}
