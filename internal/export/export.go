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

// Package export writes ranked regions as tables.
package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/googlegenomics/argo/internal/aggregate"
)

// Columns lists the CSV columns in order.
var Columns = []string{
	"regionID", "chr", "start", "end",
	"sequenceRank", "elementRank", "geneRank", "aggregateRank",
}

// Frame returns rows as a data frame with one column per entry of Columns.
func Frame(rows []aggregate.Row) dataframe.DataFrame {
	var (
		ids        = make([]int, len(rows))
		chrs       = make([]string, len(rows))
		starts     = make([]int, len(rows))
		ends       = make([]int, len(rows))
		sequences  = make([]int, len(rows))
		elements   = make([]int, len(rows))
		genes      = make([]int, len(rows))
		aggregates = make([]int, len(rows))
	)
	for i, row := range rows {
		ids[i] = row.RegionID
		chrs[i] = row.Chr
		starts[i], ends[i] = row.Start, row.End
		sequences[i] = row.SequenceRank
		elements[i] = row.ElementRank
		genes[i] = row.GeneRank
		aggregates[i] = row.AggregateRank
	}
	return dataframe.New(
		series.New(ids, series.Int, Columns[0]),
		series.New(chrs, series.String, Columns[1]),
		series.New(starts, series.Int, Columns[2]),
		series.New(ends, series.Int, Columns[3]),
		series.New(sequences, series.Int, Columns[4]),
		series.New(elements, series.Int, Columns[5]),
		series.New(genes, series.Int, Columns[6]),
		series.New(aggregates, series.Int, Columns[7]),
	)
}

// WriteCSV writes rows to w as CSV with a header line.
func WriteCSV(w io.Writer, rows []aggregate.Row) error {
	if len(rows) == 0 {
		// A frame without rows has no records to write, only the header.
		cw := csv.NewWriter(w)
		cw.Write(Columns)
		cw.Flush()
		if err := cw.Error(); err != nil {
			return fmt.Errorf("writing header: %v", err)
		}
		return nil
	}

	df := Frame(rows)
	if df.Err != nil {
		return fmt.Errorf("building table: %v", df.Err)
	}
	if err := df.WriteCSV(w); err != nil {
		return fmt.Errorf("writing table: %v", err)
	}
	return nil
}
