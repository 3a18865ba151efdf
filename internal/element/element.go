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

// Package element joins candidate cis-regulatory elements (cCREs) that overlap
// input regions with their assay z-scores and ranks the regions by them.
package element

import (
	"strings"

	"github.com/googlegenomics/argo/internal/genomics"
)

// Assay is a chromatin assay with a z-score for each cCRE.
type Assay string

// The assays scored for cCREs.
const (
	DNase   Assay = "dnase"
	H3K4me3 Assay = "h3k4me3"
	H3K27ac Assay = "h3k27ac"
	CTCF    Assay = "ctcf"
	ATAC    Assay = "atac"
)

// Assays lists every assay in display order.
var Assays = []Assay{DNase, H3K4me3, H3K27ac, CTCF, ATAC}

// Class is the classification of a cCRE.
type Class string

// The cCRE classes.
const (
	PLS          Class = "PLS"
	PELS         Class = "pELS"
	DELS         Class = "dELS"
	CAH3K4me3    Class = "CA-H3K4me3"
	CACTCF       Class = "CA-CTCF"
	CATF         Class = "CA-TF"
	CA           Class = "CA"
	TF           Class = "TF"
	InActive     Class = "InActive"
	unknownClass Class = ""
)

// Classes lists every cCRE class.
var Classes = []Class{PLS, PELS, DELS, CAH3K4me3, CACTCF, CATF, CA, TF, InActive}

// NormalizeClass maps the group names used by the remote service, such as
// "CA-only", onto a Class.
func NormalizeClass(group string) Class {
	switch strings.TrimSpace(group) {
	case "PLS":
		return PLS
	case "pELS":
		return PELS
	case "dELS":
		return DELS
	case "CA-H3K4me3":
		return CAH3K4me3
	case "CA-CTCF":
		return CACTCF
	case "CA-TF":
		return CATF
	case "CA", "CA-only":
		return CA
	case "TF", "TF-only":
		return TF
	case "InActive", "ylowdnase", "low-dnase":
		return InActive
	}
	return unknownClass
}

// ZScoreRecord is the aggregate z-score record of a cCRE across all
// biosamples.  Promoter and enhancer z-scores are H3K4me3 and H3K27ac.  A
// z-score the service reports as null is nil.
type ZScoreRecord struct {
	Accession string   `json:"accession"`
	Group     string   `json:"group"`
	DNase     *float64 `json:"dnase_zscore"`
	H3K4me3   *float64 `json:"promoter_zscore"`
	H3K27ac   *float64 `json:"enhancer_zscore"`
	CTCF      *float64 `json:"ctcf_zscore"`
	ATAC      *float64 `json:"atac_zscore"`
}

// CellTypeRecord is the z-score record of a cCRE in a single biosample.  An
// assay that was not performed in the biosample is nil.
type CellTypeRecord struct {
	Accession string   `json:"accession"`
	Group     string   `json:"group"`
	DNase     *float64 `json:"dnase_zscore"`
	H3K4me3   *float64 `json:"h3k4me3_zscore"`
	H3K27ac   *float64 `json:"h3k27ac_zscore"`
	CTCF      *float64 `json:"ctcf_zscore"`
	ATAC      *float64 `json:"atac_zscore"`
}

// Row is one cCRE overlapping one input region.
type Row struct {
	RegionID    int                  `json:"regionID"`
	InputRegion genomics.InputRegion `json:"inputRegion"`
	Accession   string               `json:"accession"`
	Class       Class                `json:"class"`
	DNase       *float64             `json:"dnase"`
	H3K4me3     *float64             `json:"h3k4me3"`
	H3K27ac     *float64             `json:"h3k27ac"`
	CTCF        *float64             `json:"ctcf"`
	ATAC        *float64             `json:"atac"`
}

// Score returns the z-score of assay, or false if the row has none.
func (row Row) Score(assay Assay) (float64, bool) {
	var score *float64
	switch assay {
	case DNase:
		score = row.DNase
	case H3K4me3:
		score = row.H3K4me3
	case H3K27ac:
		score = row.H3K27ac
	case CTCF:
		score = row.CTCF
	case ATAC:
		score = row.ATAC
	}
	if score == nil {
		return 0, false
	}
	return *score, true
}

// MapScores joins overlapping cCREs with their aggregate z-score records by
// accession.  Overlaps whose accession has no record are dropped.
func MapScores(overlaps []genomics.Overlap, records []ZScoreRecord) []Row {
	byAccession := make(map[string]ZScoreRecord, len(records))
	for _, record := range records {
		byAccession[record.Accession] = record
	}

	var rows []Row
	for _, overlap := range overlaps {
		record, ok := byAccession[overlap.Feature.Name]
		if !ok {
			continue
		}
		rows = append(rows, Row{
			RegionID:    overlap.Input.RegionID,
			InputRegion: overlap.Input,
			Accession:   record.Accession,
			Class:       NormalizeClass(record.Group),
			DNase:       record.DNase,
			H3K4me3:     record.H3K4me3,
			H3K27ac:     record.H3K27ac,
			CTCF:        record.CTCF,
			ATAC:        record.ATAC,
		})
	}
	return rows
}

// MapScoresCTSpecific joins overlapping cCREs with their z-scores in one
// biosample.  Overlaps whose accession has no record are dropped.
func MapScoresCTSpecific(overlaps []genomics.Overlap, records []CellTypeRecord) []Row {
	byAccession := make(map[string]CellTypeRecord, len(records))
	for _, record := range records {
		byAccession[record.Accession] = record
	}

	var rows []Row
	for _, overlap := range overlaps {
		record, ok := byAccession[overlap.Feature.Name]
		if !ok {
			continue
		}
		rows = append(rows, Row{
			RegionID:    overlap.Input.RegionID,
			InputRegion: overlap.Input,
			Accession:   record.Accession,
			Class:       NormalizeClass(record.Group),
			DNase:       record.DNase,
			H3K4me3:     record.H3K4me3,
			H3K27ac:     record.H3K27ac,
			CTCF:        record.CTCF,
			ATAC:        record.ATAC,
		})
	}
	return rows
}

// Accessions returns the distinct feature names of overlaps in order.
func Accessions(overlaps []genomics.Overlap) []string {
	seen := make(map[string]bool)
	var accessions []string
	for _, overlap := range overlaps {
		if !seen[overlap.Feature.Name] {
			seen[overlap.Feature.Name] = true
			accessions = append(accessions, overlap.Feature.Name)
		}
	}
	return accessions
}
