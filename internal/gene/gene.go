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

// Package gene joins genes linked to the cCREs overlapping input regions with
// their specificity and expression scores and ranks the regions by them.
package gene

import (
	"github.com/googlegenomics/argo/internal/genomics"
	"github.com/googlegenomics/argo/internal/rank"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Method is the experiment or heuristic that links a gene to a cCRE.
type Method string

// The linkage methods.
const (
	Distance        Method = "distance"
	IntactHiC       Method = "Intact-HiC"
	CTCFChIAPET     Method = "CTCF-ChIAPET"
	RNAPIIChIAPET   Method = "RNAPII-ChIAPET"
	CRISPRiFlowFISH Method = "CRISPRi-FlowFISH"
	EQTLs           Method = "eQTLs"
)

// Methods lists every linkage method in display order.
var Methods = []Method{Distance, IntactHiC, CTCFChIAPET, RNAPIIChIAPET, CRISPRiFlowFISH, EQTLs}

// ProteinCoding is the gene type of protein coding genes.
const ProteinCoding = "protein_coding"

// averageGene names the pseudo-gene reported when scores are averaged.
const averageGene = "Average"

// LinkedGeneRecord is a single cCRE to gene link as reported by the remote
// service.
type LinkedGeneRecord struct {
	Accession string `json:"accession"`
	GeneID    string `json:"geneid"`
	GeneName  string `json:"gene"`
	GeneType  string `json:"genetype"`
	Method    Method `json:"method"`
}

// Linked is a gene linked to an input region through an overlapping cCRE.
type Linked struct {
	RegionID    int
	InputRegion genomics.InputRegion
	LinkedGeneRecord
}

// Row is the collapsed gene score of one input region.  When scores are
// averaged GeneName is "Average" and GeneID is empty.
type Row struct {
	RegionID    int                  `json:"regionID"`
	InputRegion genomics.InputRegion `json:"inputRegion"`
	GeneID      string               `json:"geneID,omitempty"`
	GeneName    string               `json:"geneName"`
	Score       float64              `json:"score"`
	LinkedBy    []Method             `json:"linkedBy"`
}

// ParseLinkedGenes attaches linked gene records to the input regions whose
// overlapping cCRE they reference.  Records repeating the same accession, gene
// and method are kept once.
func ParseLinkedGenes(records []LinkedGeneRecord, overlaps []genomics.Overlap) []Linked {
	type key struct {
		accession, geneID string
		method            Method
	}
	seen := make(map[key]bool)
	byAccession := make(map[string][]LinkedGeneRecord)
	for _, record := range records {
		k := key{record.Accession, record.GeneID, record.Method}
		if seen[k] {
			continue
		}
		seen[k] = true
		byAccession[record.Accession] = append(byAccession[record.Accession], record)
	}

	var linked []Linked
	for _, overlap := range overlaps {
		for _, record := range byAccession[overlap.Feature.Name] {
			linked = append(linked, Linked{
				RegionID:         overlap.Input.RegionID,
				InputRegion:      overlap.Input,
				LinkedGeneRecord: record,
			})
		}
	}
	return linked
}

// GeneIDs returns the distinct gene IDs of linked in order.
func GeneIDs(linked []Linked) []string {
	seen := make(map[string]bool)
	var ids []string
	for _, l := range linked {
		if !seen[l.GeneID] {
			seen[l.GeneID] = true
			ids = append(ids, l.GeneID)
		}
	}
	return ids
}

// SpecificityScores collapses the specificity scores of the genes linked to
// each input region.
func SpecificityScores(linked []Linked, scores map[string]float64, opts Options) []Row {
	return collapse(linked, scores, opts)
}

// ExpressionScores collapses the expression (TPM) of the genes linked to each
// input region.
func ExpressionScores(linked []Linked, tpm map[string]float64, opts Options) []Row {
	return collapse(linked, tpm, opts)
}

type candidate struct {
	id, name string
	score    float64
	methods  map[Method]bool
}

// collapse keeps links with an enabled method, an allowed gene type and a
// score, then reduces the genes of each region to one row.  Max and Min pick
// a single gene; the first gene wins ties.  Avg reports the mean over distinct
// genes.
func collapse(linked []Linked, scores map[string]float64, opts Options) []Row {
	type group struct {
		region     genomics.InputRegion
		candidates []*candidate
		byGene     map[string]*candidate
	}
	var (
		order []int
		byID  = make(map[int]*group)
	)
	for _, l := range linked {
		if !opts.Methods[l.Method] {
			continue
		}
		if opts.ProteinCodingOnly && l.GeneType != ProteinCoding {
			continue
		}
		score, ok := scores[l.GeneID]
		if !ok {
			continue
		}

		g, ok := byID[l.RegionID]
		if !ok {
			g = &group{region: l.InputRegion, byGene: make(map[string]*candidate)}
			byID[l.RegionID] = g
			order = append(order, l.RegionID)
		}
		c, ok := g.byGene[l.GeneID]
		if !ok {
			c = &candidate{id: l.GeneID, name: l.GeneName, score: score, methods: make(map[Method]bool)}
			g.byGene[l.GeneID] = c
			g.candidates = append(g.candidates, c)
		}
		c.methods[l.Method] = true
	}

	rows := make([]Row, 0, len(order))
	for _, id := range order {
		g := byID[id]
		values := make([]float64, len(g.candidates))
		for i, c := range g.candidates {
			values[i] = c.score
		}

		row := Row{RegionID: id, InputRegion: g.region}
		switch opts.RankBy {
		case rank.Avg:
			row.GeneName = averageGene
			row.Score = stat.Mean(values, nil)
			row.LinkedBy = union(g.candidates...)
		default:
			i := floats.MaxIdx(values)
			if opts.RankBy == rank.Min {
				i = floats.MinIdx(values)
			}
			c := g.candidates[i]
			row.GeneID, row.GeneName, row.Score = c.id, c.name, c.score
			row.LinkedBy = union(c)
		}
		rows = append(rows, row)
	}
	return rows
}

func union(candidates ...*candidate) []Method {
	var methods []Method
	for _, method := range Methods {
		for _, c := range candidates {
			if c.methods[method] {
				methods = append(methods, method)
				break
			}
		}
	}
	return methods
}
