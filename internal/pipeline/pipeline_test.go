package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/JosephCarrino/SwissTARO/internal/commonality"
	"github.com/JosephCarrino/SwissTARO/internal/config"
	"github.com/JosephCarrino/SwissTARO/internal/loader"
	"github.com/JosephCarrino/SwissTARO/internal/logger"
	"github.com/JosephCarrino/SwissTARO/internal/models"
	"github.com/JosephCarrino/SwissTARO/internal/output"
	"github.com/JosephCarrino/SwissTARO/internal/stats"
	"github.com/JosephCarrino/SwissTARO/pkg/metadata"
)

const (
	engSnapshot = `[
  {"item_url": "/en/a", "title": "Federal vote", "content": ["Swiss voters approved the federal budget reform"],
   "carousel": false, "translations": {"Italiano": "/it/a"}},
  {"item_url": "/en/b", "title": "Alps", "content": "Snow in the Alps", "carousel": true, "translations": {}}
]`
	itaSnapshot = `[
  {"item_url": "/it/a", "title": "Voto federale", "content": "Gli svizzeri hanno approvato la riforma",
   "en_title": "Federal vote", "en_content": "Swiss voters approved the federal budget reform",
   "carousel": false, "translations": {"English": "/en/a"}},
  {"item_url": "/it/c", "title": "Ticino", "content": "Pioggia su Lugano",
   "en_title": "Ticino", "en_content": "Rain over Lugano today",
   "carousel": false, "translations": {"English": "/en/zzz"}}
]`
)

// createTestConfig writes the snapshot fixtures and returns a config reading them.
func createTestConfig(t *testing.T) *config.Config {
	t.Helper()

	root := t.TempDir()
	data := filepath.Join(root, "data")
	out := filepath.Join(root, "out")

	for edition, content := range map[string]string{"ENG": engSnapshot, "ITA": itaSnapshot} {
		dir := filepath.Join(data, edition)
		if err := os.MkdirAll(dir, 0755); err != nil {
			t.Fatalf("Failed to create %s: %v", dir, err)
		}

		name := edition + "_E1695826800.json"
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
			t.Fatalf("Failed to write snapshot: %v", err)
		}
	}

	if err := os.Mkdir(out, 0755); err != nil {
		t.Fatalf("Failed to create output dir: %v", err)
	}

	cfg := config.Default()
	cfg.Analysis.StartDate = "2023-09-27 15:00:00"
	cfg.Analysis.EndDate = "2023-09-27 22:01:00"
	cfg.Analysis.DataDir = data
	cfg.Analysis.OutputDir = out
	cfg.ApplyDefaults()

	return cfg
}

func readJSON(t *testing.T, path string, v any) {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}

	if !strings.HasSuffix(string(data), "}\n") && !strings.HasSuffix(string(data), "]\n") {
		t.Errorf("%s lacks a trailing newline", filepath.Base(path))
	}

	if err := json.Unmarshal(data, v); err != nil {
		t.Fatalf("Unmarshal of %s failed: %v", filepath.Base(path), err)
	}
}

func TestRun_Linked(t *testing.T) {
	cfg := createTestConfig(t)

	res, err := Run(context.Background(), cfg, logger.Discard())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if res.RunID == "" {
		t.Error("run id not set")
	}

	if len(res.Files) != 7 {
		t.Errorf("expected 7 report files, got %v", res.Files)
	}

	want := map[models.Edition]map[models.Edition]int{
		models.English: {models.English: 2, models.Italian: 1},
		models.Italian: {models.English: 1, models.Italian: 2},
	}

	var commons commonality.Matrix
	readJSON(t, filepath.Join(cfg.Analysis.OutputDir, "commons_2023-09-27T15.00.00_2023-09-27T22.01.00_LINKED.json"), &commons)

	for citing, row := range want {
		for cited, n := range row {
			if got := commons.Count(citing, cited); got != n {
				t.Errorf("commons[%s][%s] = %d, want %d", citing, cited, got, n)
			}
		}
	}

	if commons.Window.StartDate != cfg.Analysis.StartDate || commons.Lens[models.English] != 2 {
		t.Errorf("unexpected info block: %+v %v", commons.Window, commons.Lens)
	}

	if len(res.Pairs) != 6 {
		t.Errorf("expected 6 pairs, got %d", len(res.Pairs))
	}

	if res.Clusters.Len() != 3 {
		t.Errorf("expected 3 clusters, got %d", res.Clusters.Len())
	}

	if res.Cardinalities.Overall["1"] != 2 || res.Cardinalities.Overall["2"] != 1 {
		t.Errorf("unexpected overall cardinalities: %v", res.Cardinalities.Overall)
	}

	var unpaired stats.UnpairedReport
	readJSON(t, filepath.Join(cfg.Analysis.OutputDir, "unpaired_2023-09-27T15.00.00_2023-09-27T22.01.00.json"), &unpaired)

	if unpaired.Info.Total != 1 || unpaired.Count(models.Italian, models.English) != 1 {
		t.Errorf("unexpected unpaired report: %+v", unpaired)
	}

	if res.Flows.Count(models.English, models.Italian) != 1 || res.Flows.Count(models.Italian, models.English) != 1 {
		t.Errorf("unexpected flows: %v", res.Flows.Rows)
	}

	if _, ok := res.Flows.Rows[models.English][models.English]; ok {
		t.Error("flows must not compare an origin with itself")
	}

	if !res.Validation.IsValid() {
		t.Errorf("reports failed validation: %v", res.Validation.Err())
	}

	if ok, err := metadata.Verify(res.Summary); !ok {
		t.Errorf("summary is not signed: %v", err)
	}

	if meta, _ := metadata.Extract(res.Summary); meta == nil || meta.RunID != res.RunID || !meta.Validation {
		t.Errorf("summary metadata does not describe the run: %+v", meta)
	}
}

func TestRun_CardinalityKeysCoverRecognizedEditions(t *testing.T) {
	tests := []struct {
		name  string
		extra string
	}{
		{"two editions", ""},
		{"extra unrecognized directory", "ESP"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := createTestConfig(t)

			if tt.extra != "" {
				dir := filepath.Join(cfg.Analysis.DataDir, tt.extra)
				if err := os.MkdirAll(dir, 0755); err != nil {
					t.Fatalf("Failed to create %s: %v", dir, err)
				}

				content := `[{"item_url": "/es/a", "title": "Alpes", "translations": {}}]`
				if err := os.WriteFile(filepath.Join(dir, tt.extra+"_E1695826800.json"), []byte(content), 0644); err != nil {
					t.Fatalf("Failed to write snapshot: %v", err)
				}
			}

			res, err := Run(context.Background(), cfg, logger.Discard())
			if err != nil {
				t.Fatalf("Run failed: %v", err)
			}

			var card stats.CardinalityReport
			readJSON(t, filepath.Join(cfg.Analysis.OutputDir, "cardinalities_2023-09-27T15.00.00_2023-09-27T22.01.00.json"), &card)

			if len(card.Overall) != len(models.Recognized) {
				t.Errorf("overall buckets = %v, want keys 1..%d", card.Overall, len(models.Recognized))
			}

			for _, key := range []string{"1", "2", "3", "4"} {
				if _, ok := card.Overall[key]; !ok {
					t.Errorf("overall lacks bucket %q: %v", key, card.Overall)
				}

				if _, ok := card.ByLanguage[models.English][key]; !ok {
					t.Errorf("by_language[ENG] lacks bucket %q", key)
				}
			}

			if card.Overall["4"] != 0 {
				t.Errorf("overall[4] = %d, want 0", card.Overall["4"])
			}

			if len(card.ByCouples) != 6 || len(card.ByTriples) != 4 {
				t.Errorf("got %d couples and %d triples, want 6 and 4: %v %v",
					len(card.ByCouples), len(card.ByTriples), card.ByCouples, card.ByTriples)
			}

			for _, combo := range models.Combinations(models.Recognized, 2) {
				if _, ok := card.ByCouples[models.ComboKey(combo)]; !ok {
					t.Errorf("by_couples lacks %s", models.ComboKey(combo))
				}
			}

			if card.ByCouples["ENG-ITA"] != 1 {
				t.Errorf("by_couples[ENG-ITA] = %d, want 1", card.ByCouples["ENG-ITA"])
			}

			if !res.Validation.IsValid() {
				t.Errorf("reports failed validation: %v", res.Validation.Err())
			}
		})
	}
}

func TestRun_ExcludeCarousels(t *testing.T) {
	cfg := createTestConfig(t)
	cfg.Analysis.Carousels = loader.ExcludeCarousels.String()
	cfg.Reports.Summary = false

	res, err := Run(context.Background(), cfg, logger.Discard())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if res.Set.Len(models.English) != 1 {
		t.Errorf("carousel item should be filtered, got %d ENG items", res.Set.Len(models.English))
	}

	for _, path := range res.Files {
		if !strings.Contains(filepath.Base(path), "_no_carousels") {
			t.Errorf("file %s lacks the carousel suffix", path)
		}
	}
}

func TestRun_SimilarityLexical(t *testing.T) {
	cfg := createTestConfig(t)
	cfg.Analysis.Strategy = "SIMILARITY"
	cfg.Similarity.Scorer = config.ScorerLexical
	cfg.Similarity.Threshold = 0
	cfg.ApplyDefaults()

	res, err := Run(context.Background(), cfg, logger.Discard())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if got := res.Matrix.Count(models.English, models.Italian); got != 1 {
		t.Errorf("ENG->ITA = %d, want 1", got)
	}

	if got := res.Matrix.Count(models.Italian, models.English); got != 1 {
		t.Errorf("ITA->ENG = %d, want 1", got)
	}

	summary := filepath.Join(cfg.Analysis.OutputDir, "summary_2023-09-27T15.00.00_2023-09-27T22.01.00_SIMILARITY.md")
	if _, err := os.Stat(summary); err != nil {
		t.Errorf("summary not written: %v", err)
	}
}

func TestRun_Failures(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(t *testing.T, cfg *config.Config)
		check  func(err error) bool
	}{
		{
			"missing output dir",
			func(t *testing.T, cfg *config.Config) {
				cfg.Analysis.OutputDir = filepath.Join(cfg.Analysis.OutputDir, "absent")
			},
			func(err error) bool { return errors.Is(err, output.ErrOutputDir) },
		},
		{
			"malformed snapshot",
			func(t *testing.T, cfg *config.Config) {
				path := filepath.Join(cfg.Analysis.DataDir, "ITA", "ITA_E1695826900.json")
				if err := os.WriteFile(path, []byte(`[{"title": "no url"}]`), 0644); err != nil {
					t.Fatalf("WriteFile failed: %v", err)
				}
			},
			func(err error) bool { return errors.Is(err, loader.ErrMalformedSnapshot) },
		},
		{
			"unknown edition",
			func(t *testing.T, cfg *config.Config) { cfg.Analysis.Editions = []string{"ENG", "ESP"} },
			func(err error) bool { return errors.Is(err, ErrUnknownEdition) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := createTestConfig(t)
			out := cfg.Analysis.OutputDir
			tt.mutate(t, cfg)

			_, err := Run(context.Background(), cfg, logger.Discard())
			if !tt.check(err) {
				t.Fatalf("unexpected error: %v", err)
			}

			entries, readErr := os.ReadDir(out)
			if readErr != nil {
				t.Fatalf("ReadDir failed: %v", readErr)
			}

			if len(entries) != 0 {
				t.Errorf("a failed run must not leave files, found %d", len(entries))
			}
		})
	}
}

func TestRunModes_WritesEveryMode(t *testing.T) {
	cfg := createTestConfig(t)

	modes := make([]string, 0, len(loader.CarouselModes))
	for _, m := range loader.CarouselModes {
		modes = append(modes, m.String())
	}

	results, err := RunModes(context.Background(), cfg, modes, logger.Discard())
	if err != nil {
		t.Fatalf("RunModes failed: %v", err)
	}

	if len(results) != len(modes) {
		t.Fatalf("expected %d results, got %d", len(modes), len(results))
	}

	for i, m := range loader.CarouselModes {
		if len(results[i].Files) == 0 {
			t.Errorf("%s: no files", m)
		}

		for _, path := range results[i].Files {
			if !strings.Contains(filepath.Base(path), "_LINKED"+m.Suffix()+".") &&
				!strings.Contains(filepath.Base(path), "T22.01.00"+m.Suffix()+".") {
				t.Errorf("%s: file %s belongs to another mode", m, filepath.Base(path))
			}
		}
	}
}

func TestRunModes_FailingModeWritesNothing(t *testing.T) {
	cfg := createTestConfig(t)

	_, err := RunModes(context.Background(), cfg, []string{"INCLUDE_ALL", "SOME"}, logger.Discard())
	if !errors.Is(err, loader.ErrUnknownCarouselMode) {
		t.Fatalf("expected ErrUnknownCarouselMode, got %v", err)
	}

	entries, err := os.ReadDir(cfg.Analysis.OutputDir)
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}

	if len(entries) != 0 {
		t.Errorf("the completed mode must not leave files, found %d", len(entries))
	}
}

func TestRun_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := Run(ctx, createTestConfig(t), logger.Discard()); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
