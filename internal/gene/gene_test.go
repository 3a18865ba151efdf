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

func record(accession, geneID, name string, method Method) LinkedGeneRecord {
	return LinkedGeneRecord{Accession: accession, GeneID: geneID, GeneName: name, GeneType: ProteinCoding, Method: method}
}

func ranksByID(entries []rank.Entry, regions []genomics.InputRegion) map[int]int {
	lookup := rank.Lookup(entries)
	ranks := make(map[int]int)
	for _, region := range regions {
		ranks[region.RegionID] = lookup[region.Region]
	}
	return ranks
}

func TestParseLinkedGenes(t *testing.T) {
	a, b := input(1, 0), input(2, 1000)
	records := []LinkedGeneRecord{
		record("EH38E1", "ENSG1", "GATA1", Distance),
		record("EH38E1", "ENSG1", "GATA1", Distance),
		record("EH38E1", "ENSG1", "GATA1", IntactHiC),
		record("EH38E2", "ENSG2", "TAL1", EQTLs),
		record("EH38E9", "ENSG9", "MYC", Distance),
	}
	linked := ParseLinkedGenes(records, []genomics.Overlap{overlap(a, "EH38E1"), overlap(b, "EH38E2"), overlap(b, "EH38E1")})

	var got []string
	for _, l := range linked {
		got = append(got, string(l.Method)+"@"+l.InputRegion.String())
	}
	assert.Equal(t, []string{
		"distance@chr1:0-100",
		"Intact-HiC@chr1:0-100",
		"eQTLs@chr1:1000-1100",
		"distance@chr1:1000-1100",
		"Intact-HiC@chr1:1000-1100",
	}, got)
	assert.Equal(t, []string{"ENSG1", "ENSG2"}, GeneIDs(linked))
}

func TestCollapse(t *testing.T) {
	a, b := input(1, 0), input(2, 1000)
	linked := ParseLinkedGenes([]LinkedGeneRecord{
		record("EH38E1", "ENSG1", "GATA1", Distance),
		record("EH38E1", "ENSG2", "TAL1", IntactHiC),
		record("EH38E2", "ENSG2", "TAL1", EQTLs),
		record("EH38E1", "ENSG2", "TAL1", EQTLs),
		{Accession: "EH38E1", GeneID: "ENSG3", GeneName: "LINC1", GeneType: "lncRNA", Method: Distance},
	}, []genomics.Overlap{overlap(a, "EH38E1"), overlap(b, "EH38E2")})
	scores := map[string]float64{"ENSG1": 2, "ENSG2": 4, "ENSG3": 9}

	t.Run("max", func(t *testing.T) {
		opts := DefaultOptions()
		opts.ProteinCodingOnly = true
		rows := SpecificityScores(linked, scores, opts)
		require.Len(t, rows, 2)

		assert.Equal(t, "TAL1", rows[0].GeneName)
		assert.Equal(t, 4.0, rows[0].Score)
		assert.Equal(t, []Method{IntactHiC, EQTLs}, rows[0].LinkedBy)
		assert.Equal(t, 2, rows[1].RegionID)
	})

	t.Run("any gene type", func(t *testing.T) {
		rows := SpecificityScores(linked, scores, DefaultOptions())
		require.Len(t, rows, 2)
		assert.Equal(t, "LINC1", rows[0].GeneName)
	})

	t.Run("min", func(t *testing.T) {
		opts := DefaultOptions()
		opts.RankBy = rank.Min
		rows := ExpressionScores(linked, scores, opts)
		assert.Equal(t, "GATA1", rows[0].GeneName)
		assert.Equal(t, []Method{Distance}, rows[0].LinkedBy)
	})

	t.Run("average", func(t *testing.T) {
		opts := DefaultOptions()
		opts.RankBy = rank.Avg
		opts.ProteinCodingOnly = true
		rows := ExpressionScores(linked, scores, opts)
		require.Len(t, rows, 2)

		assert.Equal(t, "Average", rows[0].GeneName)
		assert.Empty(t, rows[0].GeneID)
		assert.Equal(t, 3.0, rows[0].Score)
		assert.Equal(t, []Method{Distance, IntactHiC, EQTLs}, rows[0].LinkedBy)
	})

	t.Run("method disabled", func(t *testing.T) {
		opts := DefaultOptions()
		opts.Methods[EQTLs] = false
		rows := SpecificityScores(linked, scores, opts)
		require.Len(t, rows, 1)
		assert.Equal(t, 1, rows[0].RegionID)
		assert.Equal(t, []Method{Distance}, rows[0].LinkedBy)
	})

	t.Run("unscored gene", func(t *testing.T) {
		rows := SpecificityScores(linked, map[string]float64{"ENSG1": 1}, DefaultOptions())
		require.Len(t, rows, 1)
		assert.Equal(t, "GATA1", rows[0].GeneName)
	})
}

func TestRanks(t *testing.T) {
	a, b, c := input(1, 0), input(2, 1000), input(3, 2000)
	regions := []genomics.InputRegion{a, b, c}
	specificity := []Row{
		{RegionID: 1, InputRegion: a, Score: 0.9},
		{RegionID: 2, InputRegion: b, Score: 0},
	}
	expression := []Row{
		{RegionID: 1, InputRegion: a, Score: 10},
		{RegionID: 2, InputRegion: b, Score: 50},
		{RegionID: 3, InputRegion: c, Score: 1},
	}

	testCases := []struct {
		name                       string
		useSpecificity, useExpress bool
		useGenes                   bool
		want                       map[int]int
	}{
		{"specificity", true, false, true, map[int]int{1: 1, 2: 2, 3: 0}},
		{"expression", false, true, true, map[int]int{1: 2, 2: 1, 3: 3}},
		// Sums: a = 1+2, b = 2+1, c = 0+3.
		{"both", true, true, true, map[int]int{1: 1, 2: 1, 3: 1}},
		{"neither", false, false, true, map[int]int{1: 0, 2: 0, 3: 0}},
		{"genes disabled", true, true, false, map[int]int{1: 0, 2: 0, 3: 0}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			opts := DefaultOptions()
			opts.UseGenes = tc.useGenes
			opts.UseSpecificity = tc.useSpecificity
			opts.UseExpression = tc.useExpress
			got := ranksByID(Ranks(specificity, expression, regions, opts), regions)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestRanks_ZeroSpecificityIsRanked(t *testing.T) {
	a, b := input(1, 0), input(2, 1000)
	regions := []genomics.InputRegion{a, b}
	specificity := []Row{
		{RegionID: 1, InputRegion: a, Score: 0},
		{RegionID: 2, InputRegion: b, Score: 0},
	}
	opts := DefaultOptions()
	opts.UseExpression = false

	got := ranksByID(Ranks(specificity, nil, regions, opts), regions)
	assert.Equal(t, map[int]int{1: 1, 2: 1}, got)
}

func TestOptions_UnmarshalJSON(t *testing.T) {
	t.Run("replaces methods", func(t *testing.T) {
		opts := DefaultOptions()
		require.NoError(t, json.Unmarshal([]byte(`{"methods": {"distance": true}}`), &opts))
		assert.Equal(t, map[Method]bool{Distance: true}, opts.Methods)
		assert.True(t, opts.UseSpecificity)
	})

	t.Run("absent keeps defaults", func(t *testing.T) {
		opts := DefaultOptions()
		require.NoError(t, json.Unmarshal([]byte(`{"useExpression": false}`), &opts))
		assert.Len(t, opts.Methods, len(Methods))
		assert.False(t, opts.UseExpression)
	})
}
