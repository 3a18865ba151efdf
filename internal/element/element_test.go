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
	"testing"

	"github.com/googlegenomics/argo/internal/genomics"
	"github.com/googlegenomics/argo/internal/rank"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func input(id, start int) genomics.InputRegion {
	return genomics.InputRegion{Region: genomics.Region{Chr: "chr1", Start: start, End: start + 100}, RegionID: id}
}

func overlap(region genomics.InputRegion, accession string) genomics.Overlap {
	return genomics.Overlap{
		Input:   region,
		Feature: genomics.Feature{Region: region.Region, Name: accession},
	}
}

func z(v float64) *float64 { return &v }

func ranksByID(entries []rank.Entry, regions []genomics.InputRegion) map[int]int {
	lookup := rank.Lookup(entries)
	ranks := make(map[int]int)
	for _, region := range regions {
		ranks[region.RegionID] = lookup[region.Region]
	}
	return ranks
}

func onlyAssays(assays ...Assay) Options {
	opts := DefaultOptions()
	opts.Assays = make(map[Assay]bool)
	for _, assay := range assays {
		opts.Assays[assay] = true
	}
	return opts
}

func TestMapScores(t *testing.T) {
	a, b := input(1, 0), input(2, 1000)
	overlaps := []genomics.Overlap{overlap(a, "EH38E1"), overlap(b, "EH38E2"), overlap(b, "EH38E3")}
	records := []ZScoreRecord{
		{Accession: "EH38E1", Group: "PLS", DNase: z(1.5), H3K4me3: z(2), H3K27ac: z(-1), CTCF: z(0.5), ATAC: z(3)},
		{Accession: "EH38E3", Group: "CA-only", DNase: z(-2)},
	}

	rows := MapScores(overlaps, records)
	require.Len(t, rows, 2)

	assert.Equal(t, 1, rows[0].RegionID)
	assert.Equal(t, PLS, rows[0].Class)
	score, ok := rows[0].Score(H3K4me3)
	assert.True(t, ok)
	assert.Equal(t, 2.0, score)

	assert.Equal(t, "EH38E3", rows[1].Accession)
	assert.Equal(t, CA, rows[1].Class)
	_, ok = rows[1].Score(ATAC)
	assert.False(t, ok, "missing aggregate z-score was scored")
}

func TestRanks_NullAggregateScoreRanksLast(t *testing.T) {
	var records []ZScoreRecord
	require.NoError(t, json.Unmarshal([]byte(`[
		{"accession": "EH38E1", "group": "PLS", "dnase_zscore": null},
		{"accession": "EH38E2", "group": "PLS", "dnase_zscore": -3}
	]`), &records))
	assert.Nil(t, records[0].DNase)

	a, b := input(1, 0), input(2, 1000)
	rows := MapScores([]genomics.Overlap{overlap(a, "EH38E1"), overlap(b, "EH38E2")}, records)
	regions := []genomics.InputRegion{a, b}
	assert.Equal(t, map[int]int{1: 2, 2: 1}, ranksByID(Ranks(rows, regions, onlyAssays(DNase)), regions))
}

func TestMapScoresCTSpecific(t *testing.T) {
	a := input(1, 0)
	rows := MapScoresCTSpecific(
		[]genomics.Overlap{overlap(a, "EH38E1"), overlap(a, "EH38E9")},
		[]CellTypeRecord{{Accession: "EH38E1", Group: "dELS", DNase: z(4)}})
	require.Len(t, rows, 1)

	_, ok := rows[0].Score(CTCF)
	assert.False(t, ok)
	score, ok := rows[0].Score(DNase)
	assert.True(t, ok)
	assert.Equal(t, 4.0, score)
}

func TestRanks_Ties(t *testing.T) {
	a, b, c := input(1, 0), input(2, 1000), input(3, 2000)
	regions := []genomics.InputRegion{a, b, c}
	rows := []Row{
		{RegionID: 1, InputRegion: a, Class: PLS, DNase: z(5), CTCF: z(100)},
		{RegionID: 2, InputRegion: b, Class: PLS, DNase: z(5)},
		{RegionID: 3, InputRegion: c, Class: DELS, DNase: z(1)},
	}

	got := ranksByID(Ranks(rows, regions, onlyAssays(DNase)), regions)
	assert.Equal(t, map[int]int{1: 1, 2: 1, 3: 3}, got)
}

func TestRanks_SumsAssays(t *testing.T) {
	a, b, c := input(1, 0), input(2, 1000), input(3, 2000)
	regions := []genomics.InputRegion{a, b, c}
	rows := []Row{
		{RegionID: 1, InputRegion: a, Class: PLS, DNase: z(3), H3K27ac: z(0)},
		{RegionID: 2, InputRegion: b, Class: PLS, DNase: z(2), H3K27ac: z(5)},
		{RegionID: 3, InputRegion: c, Class: PLS, DNase: z(1)},
	}

	assayRanks := RanksByAssay(rows, onlyAssays(DNase, H3K27ac))
	require.Len(t, assayRanks, 3)
	assert.Equal(t, map[Assay]int{DNase: 1, H3K27ac: 2}, assayRanks[0].Ranks)
	assert.Equal(t, map[Assay]int{DNase: 2, H3K27ac: 1}, assayRanks[1].Ranks)
	// Region 3 has no H3K27ac score and ranks last in that assay.
	assert.Equal(t, map[Assay]int{DNase: 3, H3K27ac: 3}, assayRanks[2].Ranks)

	got := ranksByID(Ranks(rows, regions, onlyAssays(DNase, H3K27ac)), regions)
	assert.Equal(t, map[int]int{1: 1, 2: 1, 3: 3}, got)
}

func TestRanks_Collapse(t *testing.T) {
	a, b := input(1, 0), input(2, 1000)
	regions := []genomics.InputRegion{a, b}
	rows := []Row{
		{RegionID: 1, InputRegion: a, Class: PLS, DNase: z(6)},
		{RegionID: 1, InputRegion: a, Class: PLS, DNase: z(0)},
		{RegionID: 2, InputRegion: b, Class: PLS, DNase: z(4)},
	}

	opts := onlyAssays(DNase)
	assert.Equal(t, map[int]int{1: 1, 2: 2}, ranksByID(Ranks(rows, regions, opts), regions))

	opts.RankBy = rank.Avg
	assert.Equal(t, map[int]int{1: 2, 2: 1}, ranksByID(Ranks(rows, regions, opts), regions))
}

func TestRanks_Exclusions(t *testing.T) {
	a, b := input(1, 0), input(2, 1000)
	regions := []genomics.InputRegion{a, b}
	rows := []Row{
		{RegionID: 1, InputRegion: a, Class: PLS, DNase: z(1)},
		{RegionID: 2, InputRegion: b, Class: CACTCF, DNase: z(9)},
	}

	t.Run("class disabled", func(t *testing.T) {
		opts := onlyAssays(DNase)
		opts.Classes[CACTCF] = false
		assert.Equal(t, map[int]int{1: 1, 2: 0}, ranksByID(Ranks(rows, regions, opts), regions))
	})

	t.Run("no assays", func(t *testing.T) {
		assert.Equal(t, map[int]int{1: 0, 2: 0}, ranksByID(Ranks(rows, regions, onlyAssays()), regions))
	})

	t.Run("elements disabled", func(t *testing.T) {
		opts := onlyAssays(DNase)
		opts.UseElements = false
		assert.Equal(t, map[int]int{1: 0, 2: 0}, ranksByID(Ranks(rows, regions, opts), regions))
	})
}

func TestNormalizeClass(t *testing.T) {
	assert.Equal(t, TF, NormalizeClass("TF-only"))
	assert.Equal(t, DELS, NormalizeClass("dELS"))
	assert.Equal(t, Class(""), NormalizeClass("unknown"))
}

func TestAccessions(t *testing.T) {
	a, b := input(1, 0), input(2, 1000)
	got := Accessions([]genomics.Overlap{overlap(a, "X"), overlap(b, "Y"), overlap(b, "X")})
	assert.Equal(t, []string{"X", "Y"}, got)
}

func TestOptions_UnmarshalJSON(t *testing.T) {
	testCases := []struct {
		name        string
		input       string
		wantAssays  map[Assay]bool
		wantClasses int
		wantEnabled bool
	}{
		{"absent keeps defaults", `{"rankBy": "avg"}`, DefaultOptions().Assays, len(Classes), true},
		{"null keeps defaults", `{"assays": null}`, DefaultOptions().Assays, len(Classes), true},
		{"replaces", `{"assays": {"dnase": true}, "classes": {"PLS": true}}`, map[Assay]bool{DNase: true}, 1, true},
		{"empty disables", `{"assays": {}}`, map[Assay]bool{}, len(Classes), false},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			opts := DefaultOptions()
			require.NoError(t, json.Unmarshal([]byte(tc.input), &opts))
			assert.Equal(t, tc.wantAssays, opts.Assays)
			assert.Len(t, opts.Classes, tc.wantClasses)
			assert.Equal(t, tc.wantEnabled, opts.Enabled())
			assert.True(t, opts.UseElements)
		})
	}
}

func TestOptions_UnmarshalJSON_RanksOnlyNamedAssay(t *testing.T) {
	opts := DefaultOptions()
	require.NoError(t, json.Unmarshal([]byte(`{"assays": {"dnase": true}}`), &opts))

	regions := []genomics.InputRegion{input(1, 0), input(2, 200)}
	rows := []Row{
		{RegionID: 1, InputRegion: regions[0], Accession: "EH38E1", Class: PLS, DNase: z(1), ATAC: z(9)},
		{RegionID: 2, InputRegion: regions[1], Accession: "EH38E2", Class: PLS, DNase: z(2), ATAC: z(1)},
	}
	byAssay := RanksByAssay(rows, opts)
	require.Len(t, byAssay, 2)
	assert.Equal(t, map[Assay]int{DNase: 2}, byAssay[0].Ranks)
	assert.Equal(t, map[Assay]int{DNase: 1}, byAssay[1].Ranks)

	// With ATAC also enabled both regions would tie on a rank sum of 3.
	assert.Equal(t, map[int]int{1: 2, 2: 1}, ranksByID(Ranks(rows, regions, opts), regions))
}
