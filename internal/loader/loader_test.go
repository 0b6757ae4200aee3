package loader

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/JosephCarrino/SwissTARO/internal/logger"
	"github.com/JosephCarrino/SwissTARO/internal/models"
)

// writeSnapshot writes a snapshot file under root/edition.
func writeSnapshot(t *testing.T, root, edition, name, content string) {
	t.Helper()

	dir := filepath.Join(root, edition)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("Failed to create edition dir: %v", err)
	}

	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write snapshot: %v", err)
	}
}

const (
	snapshotA = `[
  {"item_url": "/e/1", "title": "First", "content": ["a", "b"], "carousel": false,
   "translations": {"Italiano": "/i/1"}},
  {"item_url": "/e/2", "title": "Promo", "content": "promo", "carousel": true, "translations": {}}
]`
	snapshotB = `[
  {"item_url": "/e/1", "title": "First (later copy)", "content": "a", "carousel": false, "translations": {}},
  {"item_url": "/e/3", "title": "Third", "content": "c", "carousel": false, "translations": {}}
]`
)

func newTestLoader(root string, opts Options) *Loader {
	opts.DataDir = root
	if opts.Window == (Window{}) {
		opts.Window = Window{Start: 0, End: 1 << 40}
	}

	return New(opts, logger.Discard())
}

func TestSnapshotEpoch(t *testing.T) {
	tests := []struct {
		name    string
		want    int64
		wantErr bool
	}{
		{"ENG_E1695826800.json", 1695826800, false},
		{"snapshot_2023_E1700000000.json", 1700000000, false},
		{"/abs/path/ITA/E5.json", 5, false},
		{"notes.json", 0, true},
		{"E123.txt", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SnapshotEpoch(tt.name)
			if (err != nil) != tt.wantErr {
				t.Fatalf("SnapshotEpoch(%q) error = %v, wantErr %v", tt.name, err, tt.wantErr)
			}

			if got != tt.want {
				t.Errorf("SnapshotEpoch(%q) = %d, want %d", tt.name, got, tt.want)
			}
		})
	}
}

func TestWindow_Contains(t *testing.T) {
	w := Window{Start: 10, End: 20}

	for epoch, want := range map[int64]bool{9: false, 10: true, 15: true, 20: true, 21: false} {
		if got := w.Contains(epoch); got != want {
			t.Errorf("Contains(%d) = %v, want %v", epoch, got, want)
		}
	}
}

func TestParseCarouselMode(t *testing.T) {
	tests := map[string]CarouselMode{
		"INCLUDE_ALL":       IncludeAll,
		"exclude_carousels": ExcludeCarousels,
		"ONLY_CAROUSELS":    OnlyCarousels,
	}

	for in, want := range tests {
		got, err := ParseCarouselMode(in)
		if err != nil || got != want {
			t.Errorf("ParseCarouselMode(%q) = (%v, %v), want %v", in, got, err, want)
		}
	}

	if _, err := ParseCarouselMode("SOME"); !errors.Is(err, ErrUnknownCarouselMode) {
		t.Errorf("expected ErrUnknownCarouselMode, got %v", err)
	}
}

func TestLoader_DeduplicatesByURL(t *testing.T) {
	root := t.TempDir()
	writeSnapshot(t, root, "ENG", "ENG_E100.json", snapshotA)
	writeSnapshot(t, root, "ENG", "ENG_E200.json", snapshotB)

	set, err := newTestLoader(root, Options{}).Load(context.Background())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	items := set[models.English]
	if len(items) != 3 {
		t.Fatalf("expected 3 unique items, got %d", len(items))
	}

	seen := map[string]bool{}
	for _, a := range items {
		if seen[a.URL] {
			t.Errorf("URL %s loaded twice", a.URL)
		}

		seen[a.URL] = true
	}

	if items[0].Title != "First" {
		t.Errorf("first occurrence should win, got title %q", items[0].Title)
	}

	if items[0].PublishedEpoch != 100 || items[0].Edition != models.English {
		t.Errorf("record not stamped: epoch=%d edition=%q", items[0].PublishedEpoch, items[0].Edition)
	}

	if items[0].Content.String() != "a\nb" {
		t.Errorf("list content not joined: %q", items[0].Content.String())
	}
}

func TestLoader_WindowIsInclusive(t *testing.T) {
	root := t.TempDir()
	writeSnapshot(t, root, "ENG", "ENG_E100.json", snapshotA)
	writeSnapshot(t, root, "ENG", "ENG_E200.json", snapshotB)
	writeSnapshot(t, root, "ENG", "ENG_E300.json", `[{"item_url": "/e/9", "translations": {}}]`)

	set, err := newTestLoader(root, Options{Window: Window{Start: 200, End: 300}}).Load(context.Background())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if got := set.Len(models.English); got != 3 {
		t.Errorf("expected 3 items from the last two files, got %d", got)
	}

	if set[models.English][0].Title != "First (later copy)" {
		t.Errorf("expected the in-window copy of /e/1, got %q", set[models.English][0].Title)
	}
}

func TestLoader_CarouselModes(t *testing.T) {
	root := t.TempDir()
	writeSnapshot(t, root, "ENG", "ENG_E100.json", snapshotA)

	tests := []struct {
		mode CarouselMode
		want int
	}{
		{IncludeAll, 2},
		{ExcludeCarousels, 1},
		{OnlyCarousels, 1},
	}

	for _, tt := range tests {
		t.Run(tt.mode.String(), func(t *testing.T) {
			set, err := newTestLoader(root, Options{Carousels: tt.mode}).Load(context.Background())
			if err != nil {
				t.Fatalf("Load failed: %v", err)
			}

			if got := set.Len(models.English); got != tt.want {
				t.Errorf("%s: got %d items, want %d", tt.mode, got, tt.want)
			}
		})
	}
}

func TestLoader_CarouselFilteredURLDoesNotReserve(t *testing.T) {
	root := t.TempDir()
	writeSnapshot(t, root, "ENG", "ENG_E100.json", `[{"item_url": "/e/1", "carousel": true, "translations": {}}]`)
	writeSnapshot(t, root, "ENG", "ENG_E200.json", `[{"item_url": "/e/1", "carousel": false, "translations": {}}]`)

	set, err := newTestLoader(root, Options{Carousels: ExcludeCarousels}).Load(context.Background())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if set.Len(models.English) != 1 || set[models.English][0].Carousel {
		t.Errorf("expected the non-carousel copy to be kept, got %+v", set[models.English])
	}
}

func TestLoader_MalformedSnapshotAborts(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"invalid json", `[{"item_url": "/e/1",`},
		{"missing url", `[{"title": "no url"}]`},
		{"null record", `[null]`},
		{"bad content type", `[{"item_url": "/e/1", "content": 3}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			writeSnapshot(t, root, "ITA", "ITA_E100.json", tt.content)

			_, err := newTestLoader(root, Options{}).Load(context.Background())
			if !errors.Is(err, ErrMalformedSnapshot) {
				t.Fatalf("expected ErrMalformedSnapshot, got %v", err)
			}

			if !strings.Contains(err.Error(), "ITA_E100.json") {
				t.Errorf("error should name the offending file: %v", err)
			}
		})
	}
}

func TestLoader_SkipsForeignFiles(t *testing.T) {
	root := t.TempDir()
	writeSnapshot(t, root, "ENG", "ENG_E100.json", snapshotA)
	writeSnapshot(t, root, "ENG", "README.md", "not a snapshot")
	writeSnapshot(t, root, "ENG", "index.json", "{not even json")

	set, err := newTestLoader(root, Options{}).Load(context.Background())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if set.Len(models.English) != 2 {
		t.Errorf("expected 2 items, got %d", set.Len(models.English))
	}
}

func TestLoader_EditionFilter(t *testing.T) {
	root := t.TempDir()
	writeSnapshot(t, root, "ENG", "ENG_E100.json", snapshotA)
	writeSnapshot(t, root, "ITA", "ITA_E100.json", `[{"item_url": "/i/1", "translations": {}}]`)

	set, err := newTestLoader(root, Options{Editions: []models.Edition{models.Italian, models.German}}).Load(context.Background())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if _, ok := set[models.English]; ok {
		t.Error("ENG should be filtered out")
	}

	if set.Len(models.Italian) != 1 {
		t.Errorf("expected 1 ITA item, got %d", set.Len(models.Italian))
	}

	if items, ok := set[models.German]; !ok || len(items) != 0 {
		t.Errorf("missing GER directory should yield an empty edition, got %v (present=%v)", items, ok)
	}
}

func TestLoader_MissingDataDir(t *testing.T) {
	_, err := newTestLoader(filepath.Join(t.TempDir(), "absent"), Options{}).Load(context.Background())
	if !errors.Is(err, ErrDataDir) {
		t.Errorf("expected ErrDataDir, got %v", err)
	}
}
