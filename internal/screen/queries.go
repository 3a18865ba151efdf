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

package screen

import (
	"context"
	"fmt"

	"github.com/googlegenomics/argo/internal/batch"
	"github.com/googlegenomics/argo/internal/element"
	"github.com/googlegenomics/argo/internal/gene"
	"github.com/googlegenomics/argo/internal/genomics"
	"github.com/googlegenomics/argo/internal/sequence"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Alignments maps the conservation tracks that may be ranked on to the
// bigWig files holding them.
var Alignments = map[string]string{
	"241-mam-phyloP":     "https://downloads.wenglab.org/241-mammalian-2020v2.bigWig",
	"241-mam-phastCons":  "https://downloads.wenglab.org/241Mammals-PhastCons.bigWig",
	"447-mam-phyloP":     "https://downloads.wenglab.org/mammals_phyloP-447.bigWig",
	"100-vert-phyloP":    "https://hgdownload.soe.ucsc.edu/goldenPath/hg38/phyloP100way/hg38.phyloP100way.bw",
	"100-vert-phastCons": "https://hgdownload.soe.ucsc.edu/goldenPath/hg38/phastCons100way/hg38.phastCons100way.bw",
	"43-prim-phyloP":     "https://downloads.wenglab.org/PhyloP-43.bw",
	"43-prim-phastCons":  "https://downloads.wenglab.org/hg38_43primates_phastCons.bw",
}

const bigRequestsQuery = `
query BigRequests($requests: [BigRequest!]!) {
  bigRequests(requests: $requests) {
    data
    error { errortype message }
  }
}`

type bigRequest struct {
	URL   string `json:"url"`
	Chr   string `json:"chr1"`
	Start int    `json:"start"`
	Chr2  string `json:"chr2"`
	End   int    `json:"end"`
}

type bigResult struct {
	Data  []sequence.Sample `json:"data"`
	Error *struct {
		Type    string `json:"errortype"`
		Message string `json:"message"`
	} `json:"error"`
}

// Conservation returns the conservation samples of alignment over regions.
// Regions are split into batches of at most the client's batch size and the
// batches are queried concurrently.  Each response covers one region or one
// chunk of a region longer than the batch size.
func (c *Client) Conservation(ctx context.Context, alignment string, regions []genomics.Region) ([]sequence.ConservationResponse, error) {
	url, ok := Alignments[alignment]
	if !ok {
		return nil, fmt.Errorf("unknown alignment %q", alignment)
	}

	batches := batch.Regions(regions, c.batchSize)
	results := make([][]sequence.ConservationResponse, len(batches))

	g, ctx := errgroup.WithContext(ctx)
	for i, regions := range batches {
		i, regions := i, regions
		g.Go(func() error {
			responses, err := c.conservationBatch(ctx, url, regions)
			if err != nil {
				return fmt.Errorf("batch %d: %v", i, err)
			}
			results[i] = responses
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	c.logger.Debug("Fetched conservation", zap.String("alignment", alignment), zap.Int("batches", len(batches)))

	var responses []sequence.ConservationResponse
	for _, result := range results {
		responses = append(responses, result...)
	}
	return responses, nil
}

func (c *Client) conservationBatch(ctx context.Context, url string, regions []genomics.Region) ([]sequence.ConservationResponse, error) {
	requests := make([]bigRequest, len(regions))
	for i, region := range regions {
		requests[i] = bigRequest{URL: url, Chr: region.Chr, Start: region.Start, Chr2: region.Chr, End: region.End}
	}

	var data struct {
		BigRequests []bigResult `json:"bigRequests"`
	}
	if err := c.query(ctx, "BigRequests", bigRequestsQuery, map[string]interface{}{"requests": requests}, &data); err != nil {
		return nil, err
	}
	if got, want := len(data.BigRequests), len(regions); got != want {
		return nil, fmt.Errorf("BigRequests: got %d results, want %d", got, want)
	}

	responses := make([]sequence.ConservationResponse, len(regions))
	for i, result := range data.BigRequests {
		if result.Error != nil {
			return nil, &QueryError{Operation: "BigRequests", Messages: []string{result.Error.Message}}
		}
		responses[i] = sequence.ConservationResponse{Query: regions[i], Samples: result.Data}
	}
	return responses, nil
}

const motifsQuery = `
query MotifsInRegion($assembly: String!, $catalog: String!, $ranges: [GenomicRangeInput!]!) {
  motifOccurrences(assembly: $assembly, catalog: $catalog, genomic_ranges: $ranges) {
    chr start end motifID: motif_id score
  }
}`

type genomicRange struct {
	Chr   string `json:"chromosome"`
	Start int    `json:"start"`
	End   int    `json:"end"`
}

func ranges(regions []genomics.Region) []genomicRange {
	result := make([]genomicRange, len(regions))
	for i, region := range regions {
		result[i] = genomicRange{region.Chr, region.Start, region.End}
	}
	return result
}

// Motifs returns the occurrences of catalog motifs within regions.
func (c *Client) Motifs(ctx context.Context, assembly, catalog string, regions []genomics.Region) ([]sequence.MotifHit, error) {
	var data struct {
		Hits []sequence.MotifHit `json:"motifOccurrences"`
	}
	variables := map[string]interface{}{"assembly": assembly, "catalog": catalog, "ranges": ranges(regions)}
	if err := c.query(ctx, "MotifsInRegion", motifsQuery, variables, &data); err != nil {
		return nil, err
	}
	return data.Hits, nil
}

const ccresQuery = `
query CCREs($assembly: String!, $coordinates: [GenomicRangeInput!]!) {
  cCREQuery(assembly: $assembly, coordinates: $coordinates) {
    accession
    coordinates { chromosome start end }
  }
}`

// CCREs returns the cCREs overlapping regions, named by accession.
func (c *Client) CCREs(ctx context.Context, assembly string, regions []genomics.Region) ([]genomics.Feature, error) {
	var data struct {
		CCREs []struct {
			Accession   string       `json:"accession"`
			Coordinates genomicRange `json:"coordinates"`
		} `json:"cCREQuery"`
	}
	variables := map[string]interface{}{"assembly": assembly, "coordinates": ranges(regions)}
	if err := c.query(ctx, "CCREs", ccresQuery, variables, &data); err != nil {
		return nil, err
	}

	features := make([]genomics.Feature, len(data.CCREs))
	for i, ccre := range data.CCREs {
		features[i] = genomics.Feature{
			Region: genomics.Region{Chr: ccre.Coordinates.Chr, Start: ccre.Coordinates.Start, End: ccre.Coordinates.End},
			Name:   ccre.Accession,
		}
	}
	return features, nil
}

const zScoresQuery = `
query ZScores($assembly: String!, $accessions: [String!]!) {
  cCREZScores(assembly: $assembly, accessions: $accessions) {
    accession group dnase_zscore promoter_zscore enhancer_zscore ctcf_zscore atac_zscore
  }
}`

// ZScores returns the aggregate z-scores of the cCREs named by accessions.
func (c *Client) ZScores(ctx context.Context, assembly string, accessions []string) ([]element.ZScoreRecord, error) {
	if len(accessions) == 0 {
		return nil, nil
	}
	var data struct {
		Records []element.ZScoreRecord `json:"cCREZScores"`
	}
	variables := map[string]interface{}{"assembly": assembly, "accessions": accessions}
	if err := c.query(ctx, "ZScores", zScoresQuery, variables, &data); err != nil {
		return nil, err
	}
	return data.Records, nil
}

const cellTypeZScoresQuery = `
query CellTypeZScores($assembly: String!, $biosample: String!, $accessions: [String!]!) {
  cCREZScoresInBiosample(assembly: $assembly, biosample: $biosample, accessions: $accessions) {
    accession group dnase_zscore h3k4me3_zscore h3k27ac_zscore ctcf_zscore atac_zscore
  }
}`

// CellTypeZScores returns the z-scores in biosample of the cCREs named by
// accessions.  Assays not performed in the biosample are null.
func (c *Client) CellTypeZScores(ctx context.Context, assembly, biosample string, accessions []string) ([]element.CellTypeRecord, error) {
	if len(accessions) == 0 {
		return nil, nil
	}
	var data struct {
		Records []element.CellTypeRecord `json:"cCREZScoresInBiosample"`
	}
	variables := map[string]interface{}{"assembly": assembly, "biosample": biosample, "accessions": accessions}
	if err := c.query(ctx, "CellTypeZScores", cellTypeZScoresQuery, variables, &data); err != nil {
		return nil, err
	}
	return data.Records, nil
}

const linkedGenesQuery = `
query LinkedGenes($assembly: String!, $accessions: [String!]!) {
  linkedGenes(assembly: $assembly, accession: $accessions) {
    accession geneid gene genetype method: assay
  }
}`

// LinkedGenes returns every gene linked to the cCREs named by accessions.
func (c *Client) LinkedGenes(ctx context.Context, assembly string, accessions []string) ([]gene.LinkedGeneRecord, error) {
	if len(accessions) == 0 {
		return nil, nil
	}
	var data struct {
		Records []gene.LinkedGeneRecord `json:"linkedGenes"`
	}
	variables := map[string]interface{}{"assembly": assembly, "accessions": accessions}
	if err := c.query(ctx, "LinkedGenes", linkedGenesQuery, variables, &data); err != nil {
		return nil, err
	}
	return data.Records, nil
}

const specificityQuery = `
query GeneSpecificity($assembly: String!, $geneids: [String!]!) {
  geneSpecificity(assembly: $assembly, geneids: $geneids) {
    geneid score
  }
}`

// Specificity returns the tissue specificity score of each gene in geneIDs.
// Genes without a score are absent from the result.
func (c *Client) Specificity(ctx context.Context, assembly string, geneIDs []string) (map[string]float64, error) {
	if len(geneIDs) == 0 {
		return map[string]float64{}, nil
	}
	var data struct {
		Scores []struct {
			GeneID string  `json:"geneid"`
			Score  float64 `json:"score"`
		} `json:"geneSpecificity"`
	}
	variables := map[string]interface{}{"assembly": assembly, "geneids": geneIDs}
	if err := c.query(ctx, "GeneSpecificity", specificityQuery, variables, &data); err != nil {
		return nil, err
	}

	scores := make(map[string]float64, len(data.Scores))
	for _, s := range data.Scores {
		scores[s.GeneID] = s.Score
	}
	return scores, nil
}

const expressionQuery = `
query GeneExpression($assembly: String!, $biosample: String, $geneids: [String!]!) {
  geneExpression(assembly: $assembly, biosample: $biosample, geneids: $geneids) {
    geneid tpm
  }
}`

// Expression returns the expression in TPM of each gene in geneIDs.  When
// biosample is empty the maximum over all biosamples is reported.
func (c *Client) Expression(ctx context.Context, assembly, biosample string, geneIDs []string) (map[string]float64, error) {
	if len(geneIDs) == 0 {
		return map[string]float64{}, nil
	}
	var data struct {
		Values []struct {
			GeneID string  `json:"geneid"`
			TPM    float64 `json:"tpm"`
		} `json:"geneExpression"`
	}
	variables := map[string]interface{}{"assembly": assembly, "geneids": geneIDs}
	if biosample != "" {
		variables["biosample"] = biosample
	}
	if err := c.query(ctx, "GeneExpression", expressionQuery, variables, &data); err != nil {
		return nil, err
	}

	tpm := make(map[string]float64, len(data.Values))
	for _, v := range data.Values {
		if current, ok := tpm[v.GeneID]; !ok || v.TPM > current {
			tpm[v.GeneID] = v.TPM
		}
	}
	return tpm, nil
}
