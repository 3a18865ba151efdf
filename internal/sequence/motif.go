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
	"fmt"
	"strings"

	"github.com/googlegenomics/argo/internal/genomics"
)

// MotifHit is a motif instance reported for a genomic interval.
type MotifHit struct {
	Chr   string  `json:"chr"`
	Start int     `json:"start"`
	End   int     `json:"end"`
	ID    string  `json:"motifID"`
	Score float64 `json:"score"`
}

// MotifID is a parsed motif identifier.  Identifiers carry their data sources
// and quality grade as a dot separated suffix, either
// NAME.COLLECTION.SUBTYPE.SOURCES.QUALITY or NAME.COLLECTION.SUBTYPE.SOURCESQUALITY.
type MotifID struct {
	Name       string
	Collection string
	Sources    string
	Quality    byte
}

// ParseMotifID parses id.
func ParseMotifID(id string) (MotifID, error) {
	fields := strings.Split(id, ".")
	var sources, quality string
	switch len(fields) {
	case 5:
		sources, quality = fields[3], fields[4]
	case 4:
		if last := fields[3]; len(last) > 1 {
			sources, quality = last[:len(last)-1], last[len(last)-1:]
		}
	default:
		return MotifID{}, fmt.Errorf("motif %q: want 4 or 5 dot separated fields, got %d", id, len(fields))
	}
	if sources == "" || len(quality) != 1 {
		return MotifID{}, fmt.Errorf("motif %q: missing data source or quality", id)
	}
	return MotifID{
		Name:       fields[0],
		Collection: fields[1],
		Sources:    strings.ToUpper(sources),
		Quality:    strings.ToUpper(quality)[0],
	}, nil
}

// MotifFilter holds the enabled quality grades and data source letters.
type MotifFilter struct {
	Qualities string `json:"qualities"`
	Sources   string `json:"sources"`
}

// DefaultMotifFilter enables every quality grade and data source.
func DefaultMotifFilter() MotifFilter {
	return MotifFilter{Qualities: "ABCD", Sources: "PSMGIB"}
}

// Allows reports whether id has an enabled quality and at least one enabled
// data source.
func (filter MotifFilter) Allows(id MotifID) bool {
	if !strings.ContainsRune(strings.ToUpper(filter.Qualities), rune(id.Quality)) {
		return false
	}
	return strings.ContainsAny(strings.ToUpper(filter.Sources), id.Sources)
}

// MotifCounts returns a row for every input region holding the motifs that
// overlap it and pass filter.  Hits with malformed identifiers are skipped and
// returned as errors so callers can report them.
func MotifCounts(hits []MotifHit, filter MotifFilter, regions []genomics.InputRegion) ([]Row, []error) {
	index := genomics.NewIndex(regions)

	var errs []error
	found := make(map[int][]MotifHit)
	for _, hit := range hits {
		id, err := ParseMotifID(hit.ID)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if !filter.Allows(id) {
			continue
		}
		region := genomics.Region{Chr: hit.Chr, Start: hit.Start, End: hit.End}
		for _, input := range index.Overlapping(region) {
			found[input.RegionID] = append(found[input.RegionID], hit)
		}
	}

	rows := make([]Row, len(regions))
	for i, region := range regions {
		rows[i] = Row{
			RegionID:    region.RegionID,
			InputRegion: region,
			NumMotifs:   len(found[region.RegionID]),
			Motifs:      found[region.RegionID],
		}
	}
	return rows, errs
}
