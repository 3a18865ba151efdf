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

// Package batch splits genomic regions into batches bounded by a base pair
// budget, for services that limit the size of a single interval query.
package batch

import "github.com/googlegenomics/argo/internal/genomics"

// Regions splits regions into batches whose total length does not exceed
// maxBasePairs.  A region longer than maxBasePairs is first split into
// contiguous chunks of at most maxBasePairs.  Batches are filled in input
// order, and a chunk that would overflow the current batch starts a new one.
//
// If maxBasePairs is not positive every region forms its own batch.
func Regions(regions []genomics.Region, maxBasePairs int) [][]genomics.Region {
	if len(regions) == 0 {
		return nil
	}

	var (
		batches [][]genomics.Region
		current []genomics.Region
		size    int
	)
	for _, region := range regions {
		if maxBasePairs <= 0 {
			batches = append(batches, []genomics.Region{region})
			continue
		}
		for _, chunk := range split(region, maxBasePairs) {
			if len(current) > 0 && size+chunk.Len() > maxBasePairs {
				batches = append(batches, current)
				current, size = nil, 0
			}
			current = append(current, chunk)
			size += chunk.Len()
		}
	}
	if len(current) > 0 {
		batches = append(batches, current)
	}
	return batches
}

func split(region genomics.Region, size int) []genomics.Region {
	if region.Len() <= size {
		return []genomics.Region{region}
	}

	var chunks []genomics.Region
	for start := region.Start; start < region.End; start += size {
		end := start + size
		if end > region.End {
			end = region.End
		}
		chunks = append(chunks, genomics.Region{Chr: region.Chr, Start: start, End: end})
	}
	return chunks
}
