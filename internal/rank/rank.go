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

// Package rank implements dense competition ranking of scored regions and the
// summation of rank streams.
//
// Rows are ordered best first.  The first row has rank 1.  Each following row
// shares the rank of the row before it when their scores are equal, and
// otherwise takes its 1-based position in the ordering, so the scores
// [10, 10, 5] rank as [1, 1, 3].  Rank 0 is reserved to mean that a region is
// excluded from a dimension.
package rank

import (
	"math"
	"sort"

	"github.com/googlegenomics/argo/internal/genomics"
)

// Entry is the rank of a single region within one dimension.
type Entry struct {
	Chr   string `json:"chr"`
	Start int    `json:"start"`
	End   int    `json:"end"`
	Rank  int    `json:"rank"`
}

// Region returns the coordinates of the ranked region.
func (entry Entry) Region() genomics.Region {
	return genomics.Region{Chr: entry.Chr, Start: entry.Start, End: entry.End}
}

func newEntry(region genomics.Region, rank int) Entry {
	return Entry{Chr: region.Chr, Start: region.Start, End: region.End, Rank: rank}
}

// Dense ranks rows by descending score.  The score function reports false for
// rows without a score; those rows sort after every scored row and tie with
// each other.  NaN scores are treated as missing.  Rows with equal scores keep
// their input order.
func Dense[T any](rows []T, region func(T) genomics.Region, score func(T) (float64, bool)) []Entry {
	items := make([]item, len(rows))
	for i, row := range rows {
		value, ok := score(row)
		items[i] = item{region: region(row), value: value, ok: ok && !math.IsNaN(value)}
	}
	return rankItems(items, false)
}

// Total is the sum of the ranks of one region across several dimensions.
type Total struct {
	Region genomics.Region
	Total  int
}

// Sum returns, for every region, the sum of its ranks in streams.  A region
// missing from a stream contributes 0 for that stream.
func Sum(regions []genomics.Region, streams ...[]Entry) []Total {
	lookups := make([]map[genomics.Region]int, len(streams))
	for i, stream := range streams {
		lookups[i] = Lookup(stream)
	}

	totals := make([]Total, len(regions))
	for i, region := range regions {
		totals[i].Region = region
		for _, lookup := range lookups {
			totals[i].Total += lookup[region]
		}
	}
	return totals
}

// ReRank ranks positive totals in ascending order, since a smaller rank sum
// is better.  Regions whose total is zero contributed to no dimension; they
// keep rank 0 and follow the ranked regions in input order.
func ReRank(totals []Total) []Entry {
	var (
		items    []item
		excluded []Entry
	)
	for _, total := range totals {
		if total.Total <= 0 {
			excluded = append(excluded, newEntry(total.Region, 0))
			continue
		}
		items = append(items, item{region: total.Region, value: float64(total.Total), ok: true})
	}
	return append(rankItems(items, true), excluded...)
}

// Zero returns rank 0 for every region.  It is the result of a dimension whose
// every contributing score is disabled.
func Zero(regions []genomics.Region) []Entry {
	entries := make([]Entry, len(regions))
	for i, region := range regions {
		entries[i] = newEntry(region, 0)
	}
	return entries
}

// NonZero returns the entries whose rank is not 0.
func NonZero(entries []Entry) []Entry {
	var ranked []Entry
	for _, entry := range entries {
		if entry.Rank != 0 {
			ranked = append(ranked, entry)
		}
	}
	return ranked
}

// Lookup maps each region in entries to its rank.  When a region appears more
// than once the first entry wins.
func Lookup(entries []Entry) map[genomics.Region]int {
	lookup := make(map[genomics.Region]int, len(entries))
	for _, entry := range entries {
		if _, ok := lookup[entry.Region()]; !ok {
			lookup[entry.Region()] = entry.Rank
		}
	}
	return lookup
}

type item struct {
	region genomics.Region
	value  float64
	ok     bool
}

func (a item) ties(b item) bool {
	if !a.ok || !b.ok {
		return a.ok == b.ok
	}
	return a.value == b.value
}

func rankItems(items []item, ascending bool) []Entry {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.ok != b.ok {
			return a.ok
		}
		if !a.ok {
			return false
		}
		if ascending {
			return a.value < b.value
		}
		return a.value > b.value
	})

	entries := make([]Entry, len(items))
	for i, it := range items {
		rank := i + 1
		if i > 0 && items[i-1].ties(it) {
			rank = entries[i-1].Rank
		}
		entries[i] = newEntry(it.region, rank)
	}
	return entries
}
