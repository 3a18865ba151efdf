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

package genomics

import (
	"sort"

	"github.com/biogo/store/interval"
)

// Overlap pairs a feature with an input region it intersects.
type Overlap struct {
	Input   InputRegion
	Feature Feature
}

// Index answers overlap queries against a fixed set of input regions.  Zero
// length regions are treated as covering a single base.
type Index struct {
	regions []InputRegion
	exact   map[Region]int
	trees   map[string]*interval.IntTree
}

// NewIndex builds an index over regions.
func NewIndex(regions []InputRegion) *Index {
	index := &Index{
		regions: regions,
		exact:   make(map[Region]int),
		trees:   make(map[string]*interval.IntTree),
	}
	for i, region := range regions {
		if _, ok := index.exact[region.Region]; !ok {
			index.exact[region.Region] = i
		}

		tree, ok := index.trees[region.Chr]
		if !ok {
			tree = &interval.IntTree{}
			index.trees[region.Chr] = tree
		}
		start, end := span(region.Region)
		// Ranges are never inverted after span, so Insert cannot fail.
		tree.Insert(indexedRegion{id: uintptr(i), start: start, end: end}, true)
	}
	for _, tree := range index.trees {
		tree.AdjustRanges()
	}
	return index
}

// Exact returns the input region with exactly the coordinates of region.
func (index *Index) Exact(region Region) (InputRegion, bool) {
	if i, ok := index.exact[region]; ok {
		return index.regions[i], true
	}
	return InputRegion{}, false
}

// Overlapping returns the input regions that intersect region ordered by
// region ID.
func (index *Index) Overlapping(region Region) []InputRegion {
	tree, ok := index.trees[region.Chr]
	if !ok {
		return nil
	}
	start, end := span(region)

	var found []InputRegion
	for _, hit := range tree.Get(query{start: start, end: end}) {
		found = append(found, index.regions[hit.ID()])
	}
	sort.Slice(found, func(i, j int) bool {
		return found[i].RegionID < found[j].RegionID
	})
	return found
}

// Best returns the input region sharing the most base pairs with region.  Ties
// go to the lowest region ID.
func (index *Index) Best(region Region) (InputRegion, bool) {
	var (
		best  InputRegion
		most  = -1
		start = region.Start
		end   = region.End
	)
	if end == start {
		end++
	}
	for _, candidate := range index.Overlapping(region) {
		cs, ce := span(candidate.Region)
		shared := min(end, ce) - max(start, cs)
		if shared > most {
			best, most = candidate, shared
		}
	}
	return best, most >= 0
}

// Intersect returns every (input region, feature) pair that overlaps, in
// feature order and then region ID order.
func (index *Index) Intersect(features []Feature) []Overlap {
	var overlaps []Overlap
	for _, feature := range features {
		for _, input := range index.Overlapping(feature.Region) {
			overlaps = append(overlaps, Overlap{Input: input, Feature: feature})
		}
	}
	return overlaps
}

func span(region Region) (int, int) {
	if region.End <= region.Start {
		return region.Start, region.Start + 1
	}
	return region.Start, region.End
}

type indexedRegion struct {
	id         uintptr
	start, end int
}

func (r indexedRegion) Overlap(b interval.IntRange) bool {
	return r.end > b.Start && r.start < b.End
}
func (r indexedRegion) ID() uintptr { return r.id }
func (r indexedRegion) Range() interval.IntRange {
	return interval.IntRange{Start: r.start, End: r.end}
}

type query struct {
	start, end int
}

func (q query) Overlap(b interval.IntRange) bool {
	return q.end > b.Start && q.start < b.End
}
