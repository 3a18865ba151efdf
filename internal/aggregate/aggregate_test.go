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

package aggregate

import (
	"math/rand"
	"testing"

	"github.com/googlegenomics/argo/internal/genomics"
	"github.com/googlegenomics/argo/internal/rank"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	a = genomics.InputRegion{Region: genomics.Region{Chr: "chr1", Start: 0, End: 100}, RegionID: 1}
	b = genomics.InputRegion{Region: genomics.Region{Chr: "chr1", Start: 500, End: 600}, RegionID: 2}
	c = genomics.InputRegion{Region: genomics.Region{Chr: "chr2", Start: 0, End: 10}, RegionID: 3}

	regions = []genomics.InputRegion{a, b, c}
)

func entry(region genomics.InputRegion, r int) rank.Entry {
	return rank.Entry{Chr: region.Chr, Start: region.Start, End: region.End, Rank: r}
}

func TestCalculateAggregateRanks(t *testing.T) {
	sequence := []rank.Entry{entry(a, 1), entry(b, 2), entry(c, 3)}
	element := []rank.Entry{entry(a, 3), entry(b, 1)}
	gene := []rank.Entry{entry(c, 0), entry(b, 2)}

	// Sums: a = 1+3+0, b = 2+1+2, c = 3+0+0.
	got := CalculateAggregateRanks(regions, sequence, element, gene)
	assert.Equal(t, []rank.Entry{entry(c, 1), entry(a, 2), entry(b, 3)}, got)
}

func TestCalculateAggregateRanks_DropsZero(t *testing.T) {
	sequence := []rank.Entry{entry(a, 2), entry(b, 0), entry(c, 1)}
	got := CalculateAggregateRanks(regions, sequence, nil, nil)
	assert.Equal(t, []rank.Entry{entry(c, 1), entry(a, 2)}, got)
}

func TestCalculateAggregateRanks_Empty(t *testing.T) {
	assert.Empty(t, CalculateAggregateRanks(regions, nil, nil, nil))
	assert.Empty(t, CalculateAggregateRanks(nil, nil, nil, nil))
}

// randomStreams returns n regions with random ranks in every dimension.
func randomStreams(n int) (inputs []genomics.InputRegion, sequence, element, gene []rank.Entry) {
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < n; i++ {
		region := genomics.InputRegion{Region: genomics.Region{Chr: "chr1", Start: i * 100, End: i*100 + 50}, RegionID: i + 1}
		inputs = append(inputs, region)
		sequence = append(sequence, entry(region, 1+rng.Intn(10)))
		element = append(element, entry(region, 1+rng.Intn(10)))
		gene = append(gene, entry(region, 1+rng.Intn(10)))
	}
	return inputs, sequence, element, gene
}

func TestCalculateAggregateRanks_FollowsRankSums(t *testing.T) {
	inputs, sequence, element, gene := randomStreams(50)
	got := CalculateAggregateRanks(inputs, sequence, element, gene)
	require.Len(t, got, len(inputs))

	sums := make(map[genomics.Region]int)
	for _, stream := range [][]rank.Entry{sequence, element, gene} {
		for _, e := range stream {
			sums[e.Region()] += e.Rank
		}
	}
	for i, x := range got {
		lower := 0
		for _, y := range got {
			if sums[y.Region()] < sums[x.Region()] {
				lower++
			}
		}
		assert.Equal(t, lower+1, x.Rank, "entry %d with rank sum %d", i, sums[x.Region()])
	}
}

func TestCalculateAggregateRanks_ShiftInvariant(t *testing.T) {
	// Adding the same constant to every rank in a stream leaves the aggregate
	// order unchanged.
	inputs, sequence, element, gene := randomStreams(50)
	want := CalculateAggregateRanks(inputs, sequence, element, gene)

	shifted := make([]rank.Entry, len(element))
	for i, e := range element {
		e.Rank += 7
		shifted[i] = e
	}
	got := CalculateAggregateRanks(inputs, sequence, shifted, gene)
	assert.Equal(t, want, got)
}

func TestCalculateAggregateRanks_Idempotent(t *testing.T) {
	sequence := []rank.Entry{entry(a, 1), entry(b, 1), entry(c, 3)}
	element := []rank.Entry{entry(b, 2), entry(c, 1)}

	first := CalculateAggregateRanks(regions, sequence, element, nil)
	second := CalculateAggregateRanks(regions, sequence, element, nil)
	assert.Equal(t, first, second)
}

func TestMatchRanks(t *testing.T) {
	sequence := []rank.Entry{entry(a, 1), entry(b, 2), entry(c, 3)}
	element := []rank.Entry{entry(a, 3), entry(b, 1)}
	gene := []rank.Entry{entry(b, 2)}
	aggregate := []rank.Entry{entry(c, 1), entry(a, 2), entry(b, 2)}

	rows := MatchRanks(regions, sequence, element, gene, aggregate)
	require.Len(t, rows, 3)
	assert.Equal(t, Row{InputRegion: c, SequenceRank: 3, AggregateRank: 1}, rows[0])
	assert.Equal(t, Row{InputRegion: a, SequenceRank: 1, ElementRank: 3, AggregateRank: 2}, rows[1])
	assert.Equal(t, Row{InputRegion: b, SequenceRank: 2, ElementRank: 1, GeneRank: 2, AggregateRank: 2}, rows[2])
}

func TestMatchRanks_DropsUnranked(t *testing.T) {
	sequence := []rank.Entry{entry(a, 1), entry(b, 2)}
	aggregate := CalculateAggregateRanks(regions, sequence, nil, nil)

	rows := MatchRanks(regions, sequence, nil, nil, aggregate)
	require.Len(t, rows, 2)
	assert.Equal(t, 1, rows[0].RegionID)
	assert.Equal(t, 2, rows[1].RegionID)

	assert.Empty(t, MatchRanks(regions, nil, nil, nil, nil))
}
