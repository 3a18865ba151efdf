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

// Package argo ranks a set of input regions by sequence, element and gene
// evidence fetched from a remote source and aggregates the three rankings.
package argo

import (
	"context"
	"fmt"

	"github.com/googlegenomics/argo/internal/aggregate"
	"github.com/googlegenomics/argo/internal/element"
	"github.com/googlegenomics/argo/internal/gene"
	"github.com/googlegenomics/argo/internal/genomics"
	"github.com/googlegenomics/argo/internal/rank"
	"github.com/googlegenomics/argo/internal/sequence"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DefaultAssembly is the genome assembly queried when none is configured.
const DefaultAssembly = "grch38"

// Source provides the remote data that regions are ranked on.  It is
// implemented by *screen.Client.
type Source interface {
	Conservation(ctx context.Context, alignment string, regions []genomics.Region) ([]sequence.ConservationResponse, error)
	Motifs(ctx context.Context, assembly, catalog string, regions []genomics.Region) ([]sequence.MotifHit, error)
	CCREs(ctx context.Context, assembly string, regions []genomics.Region) ([]genomics.Feature, error)
	ZScores(ctx context.Context, assembly string, accessions []string) ([]element.ZScoreRecord, error)
	CellTypeZScores(ctx context.Context, assembly, biosample string, accessions []string) ([]element.CellTypeRecord, error)
	LinkedGenes(ctx context.Context, assembly string, accessions []string) ([]gene.LinkedGeneRecord, error)
	Specificity(ctx context.Context, assembly string, geneIDs []string) (map[string]float64, error)
	Expression(ctx context.Context, assembly, biosample string, geneIDs []string) (map[string]float64, error)
}

// Options configures a single ranking.
type Options struct {
	Assembly string           `json:"assembly"`
	Sequence sequence.Options `json:"sequence"`
	Element  element.Options  `json:"element"`
	Gene     gene.Options     `json:"gene"`
}

// DefaultOptions enables every dimension with its default settings.
func DefaultOptions() Options {
	return Options{
		Assembly: DefaultAssembly,
		Sequence: sequence.DefaultOptions(),
		Element:  element.DefaultOptions(),
		Gene:     gene.DefaultOptions(),
	}
}

// Result holds the scores and ranks computed for a set of regions.
type Result struct {
	Regions     []genomics.InputRegion `json:"regions"`
	Sequence    []sequence.Row         `json:"sequence"`
	Elements    []element.Row          `json:"elements"`
	Specificity []gene.Row             `json:"specificity"`
	Expression  []gene.Row             `json:"expression"`

	SequenceRanks  []rank.Entry `json:"sequenceRanks"`
	ElementRanks   []rank.Entry `json:"elementRanks"`
	GeneRanks      []rank.Entry `json:"geneRanks"`
	AggregateRanks []rank.Entry `json:"aggregateRanks"`

	// Ranked holds one row per region with a non-zero aggregate rank, best
	// first.
	Ranked []aggregate.Row `json:"ranked"`
}

// Ranker ranks regions using data from a Source.  To create a properly
// initialized Ranker, use NewRanker.
type Ranker struct {
	source Source
	logger *zap.Logger
}

// NewRanker returns a Ranker that fetches data from source.  A nil logger
// discards log output.
func NewRanker(source Source, logger *zap.Logger) *Ranker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ranker{source, logger}
}

// Rank validates regions, fetches the data needed by every enabled dimension
// concurrently and ranks the regions.  Disabled dimensions are not queried and
// rank every region 0.  Regions are renumbered in genomic order.
func (r *Ranker) Rank(ctx context.Context, regions []genomics.InputRegion, opts Options) (*Result, error) {
	if err := genomics.Validate(regions); err != nil {
		return nil, err
	}
	if opts.Assembly == "" {
		opts.Assembly = DefaultAssembly
	}

	fetch := &fetcher{
		source:  r.source,
		logger:  r.logger,
		opts:    opts,
		regions: genomics.Number(regions),
	}
	fetch.coordinates = genomics.Regions(fetch.regions)

	g, gctx := errgroup.WithContext(ctx)
	if opts.Sequence.UseConservation {
		g.Go(func() error { return fetch.conservation(gctx) })
	}
	if opts.Sequence.UseMotifs {
		g.Go(func() error { return fetch.motifs(gctx) })
	}
	if opts.Element.Enabled() || opts.Gene.Enabled() {
		g.Go(func() error { return fetch.ccres(gctx) })
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := &Result{
		Regions:     fetch.regions,
		Sequence:    sequence.Merge(fetch.regions, fetch.conserved, fetch.motifRows),
		Elements:    fetch.elements,
		Specificity: fetch.specificity,
		Expression:  fetch.expression,
	}
	result.SequenceRanks = sequence.Ranks(result.Sequence, fetch.regions, opts.Sequence)
	result.ElementRanks = element.Ranks(result.Elements, fetch.regions, opts.Element)
	result.GeneRanks = gene.Ranks(result.Specificity, result.Expression, fetch.regions, opts.Gene)
	result.AggregateRanks = aggregate.CalculateAggregateRanks(fetch.regions,
		result.SequenceRanks, result.ElementRanks, result.GeneRanks)
	result.Ranked = aggregate.MatchRanks(fetch.regions,
		result.SequenceRanks, result.ElementRanks, result.GeneRanks, result.AggregateRanks)

	r.logger.Info("Ranked regions",
		zap.Int("regions", len(fetch.regions)),
		zap.Int("ranked", len(result.Ranked)))
	return result, nil
}

// fetcher collects the rows of each dimension.  Every field written by a
// fetch method is owned by that method alone.
type fetcher struct {
	source      Source
	logger      *zap.Logger
	opts        Options
	regions     []genomics.InputRegion
	coordinates []genomics.Region

	conserved   []sequence.Row
	motifRows   []sequence.Row
	elements    []element.Row
	specificity []gene.Row
	expression  []gene.Row
}

func (f *fetcher) conservation(ctx context.Context) error {
	responses, err := f.source.Conservation(ctx, f.opts.Sequence.Alignment, f.coordinates)
	if err != nil {
		return fmt.Errorf("fetching conservation: %v", err)
	}
	f.conserved = sequence.ConservationScores(responses, f.opts.Sequence.RankBy, f.regions)
	return nil
}

func (f *fetcher) motifs(ctx context.Context) error {
	hits, err := f.source.Motifs(ctx, f.opts.Assembly, f.opts.Sequence.MotifCatalog, f.coordinates)
	if err != nil {
		return fmt.Errorf("fetching motifs: %v", err)
	}
	rows, errs := sequence.MotifCounts(hits, f.opts.Sequence.MotifFilter, f.regions)
	if len(errs) > 0 {
		f.logger.Warn("Skipped malformed motif identifiers",
			zap.Int("count", len(errs)), zap.Error(errs[0]))
	}
	f.motifRows = rows
	return nil
}

// ccres fetches the cCREs overlapping the regions and then the element and
// gene data keyed by their accessions.
func (f *fetcher) ccres(ctx context.Context) error {
	features, err := f.source.CCREs(ctx, f.opts.Assembly, f.coordinates)
	if err != nil {
		return fmt.Errorf("fetching cCREs: %v", err)
	}
	overlaps := genomics.NewIndex(f.regions).Intersect(features)
	accessions := element.Accessions(overlaps)

	g, ctx := errgroup.WithContext(ctx)
	if f.opts.Element.Enabled() {
		g.Go(func() error { return f.elementScores(ctx, overlaps, accessions) })
	}
	if f.opts.Gene.Enabled() {
		g.Go(func() error { return f.geneScores(ctx, overlaps, accessions) })
	}
	return g.Wait()
}

func (f *fetcher) elementScores(ctx context.Context, overlaps []genomics.Overlap, accessions []string) error {
	opts := f.opts.Element
	if opts.CellTypeSpecific() {
		records, err := f.source.CellTypeZScores(ctx, f.opts.Assembly, opts.Biosample, accessions)
		if err != nil {
			return fmt.Errorf("fetching z-scores in %s: %v", opts.Biosample, err)
		}
		f.elements = element.MapScoresCTSpecific(overlaps, records)
		return nil
	}

	records, err := f.source.ZScores(ctx, f.opts.Assembly, accessions)
	if err != nil {
		return fmt.Errorf("fetching z-scores: %v", err)
	}
	f.elements = element.MapScores(overlaps, records)
	return nil
}

func (f *fetcher) geneScores(ctx context.Context, overlaps []genomics.Overlap, accessions []string) error {
	opts := f.opts.Gene
	records, err := f.source.LinkedGenes(ctx, f.opts.Assembly, accessions)
	if err != nil {
		return fmt.Errorf("fetching linked genes: %v", err)
	}
	linked := gene.ParseLinkedGenes(records, overlaps)
	geneIDs := gene.GeneIDs(linked)

	var specificity, expression map[string]float64
	g, ctx := errgroup.WithContext(ctx)
	if opts.UseSpecificity {
		g.Go(func() error {
			scores, err := f.source.Specificity(ctx, f.opts.Assembly, geneIDs)
			if err != nil {
				return fmt.Errorf("fetching gene specificity: %v", err)
			}
			specificity = scores
			return nil
		})
	}
	if opts.UseExpression {
		g.Go(func() error {
			tpm, err := f.source.Expression(ctx, f.opts.Assembly, opts.Biosample, geneIDs)
			if err != nil {
				return fmt.Errorf("fetching gene expression: %v", err)
			}
			expression = tpm
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if opts.UseSpecificity {
		f.specificity = gene.SpecificityScores(linked, specificity, opts)
	}
	if opts.UseExpression {
		f.expression = gene.ExpressionScores(linked, expression, opts)
	}
	return nil
}
