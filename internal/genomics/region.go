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

// Package genomics contains definitions related to genomic regions.
package genomics

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Region defines a region of genomic interest.
type Region struct {
	// Chr is the chromosome name, for example "chr1" or "chrX".
	Chr string `json:"chr"`
	// Start and End specify the half-open range [Start, End) in base pairs.
	Start int `json:"start"`
	End   int `json:"end"`
}

// Len returns the number of base pairs covered by region.
func (region Region) Len() int {
	return region.End - region.Start
}

func (region Region) String() string {
	return fmt.Sprintf("%s:%d-%d", region.Chr, region.Start, region.End)
}

// InputRegion is a user supplied region.  RegionID is its 1-based position
// after sorting and is only used for display and ordering; regions are matched
// by their coordinates.
type InputRegion struct {
	Region
	RegionID int    `json:"regionID"`
	Ref      string `json:"ref,omitempty"`
	Alt      string `json:"alt,omitempty"`
	Strand   string `json:"strand,omitempty"`
}

// Feature is a named region returned by a remote dataset, such as a cCRE.
type Feature struct {
	Region
	Name string `json:"name"`
}

// Regions returns the coordinates of each input region.
func Regions(inputs []InputRegion) []Region {
	regions := make([]Region, len(inputs))
	for i, input := range inputs {
		regions[i] = input.Region
	}
	return regions
}

// Number sorts regions by chromosome, start and end and assigns 1-based
// region IDs in that order.  The input slice is not modified.
func Number(regions []InputRegion) []InputRegion {
	sorted := make([]InputRegion, len(regions))
	copy(sorted, regions)
	sort.SliceStable(sorted, func(i, j int) bool {
		return Less(sorted[i].Region, sorted[j].Region)
	})
	for i := range sorted {
		sorted[i].RegionID = i + 1
	}
	return sorted
}

// Less orders regions by chromosome (see CompareChromosomes), then start, then
// end.
func Less(a, b Region) bool {
	if c := CompareChromosomes(a.Chr, b.Chr); c != 0 {
		return c < 0
	}
	if a.Start != b.Start {
		return a.Start < b.Start
	}
	return a.End < b.End
}

// CompareChromosomes orders numbered chromosomes numerically, followed by X, Y
// and M, followed by any other name in lexical order.
func CompareChromosomes(a, b string) int {
	ka, kb := chromosomeKey(a), chromosomeKey(b)
	switch {
	case ka < kb:
		return -1
	case ka > kb:
		return 1
	}
	return strings.Compare(a, b)
}

const unknownChromosome = 1 << 30

func chromosomeKey(name string) int {
	suffix := strings.TrimPrefix(name, "chr")
	if n, err := strconv.Atoi(suffix); err == nil && n >= 0 {
		return n
	}
	switch suffix {
	case "X":
		return unknownChromosome - 3
	case "Y":
		return unknownChromosome - 2
	case "M":
		return unknownChromosome - 1
	}
	return unknownChromosome
}
