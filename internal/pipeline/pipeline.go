// Package pipeline runs one analysis: load, compare, resolve, report and write.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/JosephCarrino/SwissTARO/internal/cluster"
	"github.com/JosephCarrino/SwissTARO/internal/commonality"
	"github.com/JosephCarrino/SwissTARO/internal/config"
	"github.com/JosephCarrino/SwissTARO/internal/embed"
	"github.com/JosephCarrino/SwissTARO/internal/equivalence"
	"github.com/JosephCarrino/SwissTARO/internal/formatter"
	"github.com/JosephCarrino/SwissTARO/internal/loader"
	"github.com/JosephCarrino/SwissTARO/internal/logger"
	"github.com/JosephCarrino/SwissTARO/internal/models"
	"github.com/JosephCarrino/SwissTARO/internal/originals"
	"github.com/JosephCarrino/SwissTARO/internal/output"
	"github.com/JosephCarrino/SwissTARO/internal/stats"
	"github.com/JosephCarrino/SwissTARO/internal/validator"
)

// ErrUnknownEdition is returned when the configuration names an edition that is not recognized.
var ErrUnknownEdition = errors.New("unknown edition")

// Result holds every report computed by a run.
type Result struct {
	Set           models.EditionSet
	Matrix        *commonality.Matrix
	Clusters      *cluster.Clusters
	Cardinalities *stats.CardinalityReport
	Unpaired      *stats.UnpairedReport
	Originals     *originals.Classification
	Flows         *commonality.Matrix
	Validation    *validator.Result
	RunID         string
	Summary       string
	Pairs         []models.Pair
	Files         []string
	Duration      time.Duration
}

// Run executes the analysis described by cfg and writes its reports to the output directory.
// Either every report file is written or none is.
func Run(ctx context.Context, cfg *config.Config, log *logger.Logger) (*Result, error) {
	results, err := RunModes(ctx, cfg, []string{cfg.Analysis.Carousels}, log)
	if err != nil {
		return nil, err
	}

	return results[0], nil
}

// RunModes executes the analysis of cfg once per carousel mode and writes the reports of
// every mode together: if any mode fails, no file of any mode is written.
func RunModes(ctx context.Context, cfg *config.Config, modes []string, log *logger.Logger) ([]*Result, error) {
	batch := output.NewBatch(cfg.Analysis.OutputDir, log)
	results := make([]*Result, 0, len(modes))
	counts := make([]int, 0, len(modes))

	for _, mode := range modes {
		run := *cfg
		run.Analysis.Carousels = mode

		res, files, err := analyze(ctx, &run, log)
		if err != nil {
			return nil, err
		}

		batch.Append(files)
		results = append(results, res)
		counts = append(counts, files.Len())
	}

	log.Info("Phase 5: writing reports", "output_dir", cfg.Analysis.OutputDir, "files", batch.Len(), "modes", len(modes))

	written, err := batch.Commit()
	if err != nil {
		return nil, err
	}

	for i, res := range results {
		res.Files, written = written[:counts[i]], written[counts[i]:]

		log.Info("run complete", "run_id", res.RunID, "files", len(res.Files), "duration", res.Duration)
	}

	return results, nil
}

// analyze computes every report of one run and returns them with the batch of files to write.
func analyze(ctx context.Context, cfg *config.Config, log *logger.Logger) (*Result, *output.Batch, error) {
	started := time.Now()

	id, err := uuid.NewV7()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create run id: %w", err)
	}

	res := &Result{RunID: id.String()}
	log = log.With("run_id", res.RunID)

	start, end, err := cfg.Window()
	if err != nil {
		return nil, nil, err
	}

	carousels, err := loader.ParseCarouselMode(cfg.Analysis.Carousels)
	if err != nil {
		return nil, nil, err
	}

	strategy, err := equivalence.ParseStrategy(cfg.Analysis.Strategy)
	if err != nil {
		return nil, nil, err
	}

	editions, err := parseEditions(cfg.Analysis.Editions)
	if err != nil {
		return nil, nil, err
	}

	log.Info("Phase 1: loading snapshots", "data_dir", cfg.Analysis.DataDir, "carousels", carousels)

	ld := loader.New(loader.Options{
		DataDir:   cfg.Analysis.DataDir,
		Editions:  editions,
		Window:    loader.Window{Start: start, End: end},
		Carousels: carousels,
	}, log)

	res.Set, err = ld.Load(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("load failed: %w", err)
	}

	for _, e := range res.Set.Editions() {
		log.Info("edition loaded", "edition", e, "articles", res.Set.Len(e))
	}

	oracle, err := newOracle(strategy, cfg, log)
	if err != nil {
		return nil, nil, err
	}

	log.Info("Phase 2: computing commonality", "strategy", strategy, "workers", cfg.Analysis.Workers)

	agg := commonality.NewAggregator(oracle, cfg.Analysis.Workers, log)
	window := commonality.Window{StartDate: cfg.Analysis.StartDate, EndDate: cfg.Analysis.EndDate}

	res.Matrix, res.Pairs, err = agg.Matrix(ctx, res.Set, window)
	if err != nil {
		return nil, nil, fmt.Errorf("commonality failed: %w", err)
	}

	log.Info("Phase 3: resolving story clusters")

	res.Clusters = cluster.Resolve(res.Set.All(), len(models.Recognized), log)

	card := stats.Cardinalities(res.Set, res.Clusters, stats.CardinalityOptions{
		Editions: models.Recognized,
		Couples:  cfg.Reports.Couples,
		Triples:  cfg.Reports.Triples,
	})
	res.Cardinalities = &card

	log.Info("clusters resolved", "clusters", res.Clusters.Len(), "anomalies", len(res.Clusters.Anomalies))

	if cfg.Reports.Unpaired {
		unpaired := stats.Unpaired(res.Set)
		res.Unpaired = &unpaired
	}

	if cfg.Reports.Originals || cfg.Reports.Flows {
		classification := originals.Classify(res.Set)
		res.Originals = &classification
	}

	if cfg.Reports.Flows {
		log.Info("Phase 4: computing flows of originals")

		res.Flows, err = agg.Flows(ctx, res.Originals.Data, res.Set, window)
		if err != nil {
			return nil, nil, fmt.Errorf("flows failed: %w", err)
		}
	}

	res.Validation = validator.New(log).Validate(validator.Input{
		Set:           res.Set,
		Matrix:        res.Matrix,
		Clusters:      res.Clusters,
		Cardinalities: res.Cardinalities,
		Strategy:      strategy,
	})

	log.Info("reports validated", "result", res.Validation.String())

	names := output.NewNames(start, end, string(strategy), carousels.Suffix())

	batch, err := buildBatch(cfg, res, names, strategy, carousels, log)
	if err != nil {
		return nil, nil, err
	}

	res.Duration = time.Since(started)

	return res, batch, nil
}

func parseEditions(names []string) ([]models.Edition, error) {
	editions := make([]models.Edition, 0, len(names))

	for _, name := range names {
		e, ok := models.ParseEdition(name)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownEdition, name)
		}

		editions = append(editions, e)
	}

	return editions, nil
}

// newOracle builds the oracle for strategy, with its scorer when similarity is selected.
func newOracle(strategy equivalence.Strategy, cfg *config.Config, log *logger.Logger) (equivalence.Oracle, error) {
	opts := equivalence.Options{
		Log:            log,
		Threshold:      cfg.Similarity.Threshold,
		RequireEnglish: cfg.Similarity.RequireEnglish,
	}

	if strategy == equivalence.Similarity {
		switch cfg.Similarity.Scorer {
		case config.ScorerLexical:
			opts.Scorer = equivalence.NewLexicalScorer()
		default:
			embedder, err := embed.New(cfg.Similarity.Embedding, cfg.Similarity.Retry, log)
			if err != nil {
				return nil, fmt.Errorf("failed to create embedding client: %w", err)
			}

			opts.Scorer = equivalence.NewEmbeddingScorer(embedder)
		}
	}

	return equivalence.New(strategy, opts)
}

func buildBatch(cfg *config.Config, res *Result, names output.Names, strategy equivalence.Strategy, carousels loader.CarouselMode, log *logger.Logger) (*output.Batch, error) {
	batch := output.NewBatch(cfg.Analysis.OutputDir, log)

	pairs := res.Pairs
	if pairs == nil {
		pairs = []models.Pair{}
	}

	entries := []struct {
		value any
		name  string
		on    bool
	}{
		{res.Matrix, names.Commons(), true},
		{pairs, names.Paired(), true},
		{res.Cardinalities, names.Cardinalities(), true},
		{res.Unpaired, names.Unpaired(), res.Unpaired != nil},
		{originalsExport(res.Originals), names.Originals(), cfg.Reports.Originals && res.Originals != nil},
		{res.Flows, names.Flows(), res.Flows != nil},
		{res.Clusters.Export(), names.Clusters(), cfg.Reports.Clusters},
	}

	for _, e := range entries {
		if !e.on {
			continue
		}

		if err := batch.AddJSON(e.name, e.value); err != nil {
			return nil, err
		}
	}

	if cfg.Reports.Summary {
		summary := formatter.Summary{
			Matrix:        res.Matrix,
			Cardinalities: res.Cardinalities,
			Unpaired:      res.Unpaired,
			Flows:         res.Flows,
			RunID:         res.RunID,
			Strategy:      string(strategy),
			Carousels:     carousels.String(),
			Validated:     res.Validation.IsValid(),
		}

		if cfg.Reports.Originals && res.Originals != nil {
			export := res.Originals.Export()
			summary.Originals = &export
		}

		res.Summary = formatter.Render(summary)
		batch.AddText(names.Summary(), res.Summary)
	}

	return batch, nil
}

func originalsExport(c *originals.Classification) any {
	if c == nil {
		return nil
	}

	return c.Export()
}
