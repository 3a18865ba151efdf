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

package sequence

import (
	"github.com/googlegenomics/argo/internal/genomics"
	"github.com/googlegenomics/argo/internal/rank"
)

// Sample is one value from a signal track, covering [Start, End).
type Sample struct {
	Chr   string  `json:"chr"`
	Start int     `json:"start"`
	End   int     `json:"end"`
	Value float64 `json:"value"`
}

// ConservationResponse holds the samples returned for one queried region.
type ConservationResponse struct {
	Query   genomics.Region
	Samples []Sample
}

// ConservationScores reduces the samples of each response to one score per
// input region.
//
// Signal files may return samples at a coarser granularity than a single base,
// so the samples of a response can extend past the queried region.  A response
// belongs to the input region with exactly its query coordinates, or failing
// that to the input region that shares the most base pairs with the span of
// its samples.  Responses for chunks of one region accumulate into that
// region.  Responses that match no input region are dropped.
func ConservationScores(responses []ConservationResponse, by rank.Reduction, regions []genomics.InputRegion) []Row {
	index := genomics.NewIndex(regions)

	values := make(map[int][]float64)
	for _, response := range responses {
		if len(response.Samples) == 0 {
			continue
		}
		owner, ok := index.Exact(response.Query)
		if !ok {
			owner, ok = index.Best(sampleSpan(response))
		}
		if !ok {
			continue
		}
		for _, sample := range response.Samples {
			values[owner.RegionID] = append(values[owner.RegionID], sample.Value)
		}
	}

	var rows []Row
	for _, region := range regions {
		score, ok := by.Reduce(values[region.RegionID])
		if !ok {
			continue
		}
		rows = append(rows, Row{
			RegionID:     region.RegionID,
			InputRegion:  region,
			Conservation: &score,
		})
	}
	return rows
}

func sampleSpan(response ConservationResponse) genomics.Region {
	span := genomics.Region{
		Chr:   response.Query.Chr,
		Start: response.Samples[0].Start,
		End:   response.Samples[0].End,
	}
	for _, sample := range response.Samples {
		if sample.Chr != "" {
			span.Chr = sample.Chr
		}
		span.Start = min(span.Start, sample.Start)
		span.End = max(span.End, sample.End)
	}
	return span
}
