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

package export

import (
	"bytes"
	"encoding/csv"
	"testing"

	"github.com/googlegenomics/argo/internal/aggregate"
	"github.com/googlegenomics/argo/internal/genomics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteCSV(t *testing.T) {
	rows := []aggregate.Row{
		{
			InputRegion:  genomics.InputRegion{Region: genomics.Region{Chr: "chr1", Start: 100, End: 200}, RegionID: 2},
			SequenceRank: 1, ElementRank: 3, GeneRank: 0, AggregateRank: 1,
		},
		{
			InputRegion:  genomics.InputRegion{Region: genomics.Region{Chr: "chrX", Start: 5, End: 6}, RegionID: 1},
			SequenceRank: 2, ElementRank: 1, GeneRank: 4, AggregateRank: 2,
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, rows))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		Columns,
		{"2", "chr1", "100", "200", "1", "3", "0", "1"},
		{"1", "chrX", "5", "6", "2", "1", "4", "2"},
	}, records)
}

func TestWriteCSV_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, nil))
	assert.Equal(t, "regionID,chr,start,end,sequenceRank,elementRank,geneRank,aggregateRank\n", buf.String())
}

func TestFrame(t *testing.T) {
	df := Frame([]aggregate.Row{{
		InputRegion:   genomics.InputRegion{Region: genomics.Region{Chr: "chr2", Start: 1, End: 9}, RegionID: 1},
		AggregateRank: 1,
	}})
	require.NoError(t, df.Err)
	assert.Equal(t, Columns, df.Names())
	assert.Equal(t, 1, df.Nrow())
}
