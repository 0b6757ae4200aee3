// Package loader reads per-edition snapshot files into edition sets.
package loader

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/JosephCarrino/SwissTARO/internal/logger"
	"github.com/JosephCarrino/SwissTARO/internal/models"
	"github.com/JosephCarrino/SwissTARO/internal/normalizer"
)

// Loader errors.
var (
	ErrMalformedSnapshot = errors.New("malformed snapshot file")
	ErrDataDir           = errors.New("cannot read data directory")
)

// Options configures a Loader.
type Options struct {
	DataDir   string
	Editions  []models.Edition
	Window    Window
	Carousels CarouselMode
}

// Loader reads the snapshot tree: one subdirectory per edition, one JSON array per scrape.
type Loader struct {
	processor *normalizer.Processor
	log       *logger.Logger
	opts      Options
}

// New creates a loader.
func New(opts Options, log *logger.Logger) *Loader {
	return &Loader{
		processor: normalizer.NewProcessor(),
		log:       log,
		opts:      opts,
	}
}

// Load reads every edition directory and returns the deduplicated edition set.
func (l *Loader) Load(ctx context.Context) (models.EditionSet, error) {
	dirs, err := l.editionDirs()
	if err != nil {
		return nil, err
	}

	set := make(models.EditionSet, len(dirs))

	for edition, dir := range dirs {
		items, err := l.LoadEdition(ctx, edition, dir)
		if err != nil {
			return nil, err
		}

		set[edition] = items
	}

	for _, e := range l.opts.Editions {
		if _, ok := set[e]; !ok {
			l.log.Warn("edition has no snapshot directory", "edition", e, "data_dir", l.opts.DataDir)
			set[e] = nil
		}
	}

	return set, nil
}

// editionDirs maps each edition to be loaded to its directory.
func (l *Loader) editionDirs() (map[models.Edition]string, error) {
	entries, err := os.ReadDir(l.opts.DataDir)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDataDir, err)
	}

	dirs := make(map[models.Edition]string)

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		edition, ok := models.ParseEdition(entry.Name())
		if !ok {
			edition = models.Edition(entry.Name())
		}

		if len(l.opts.Editions) > 0 && !slices.Contains(l.opts.Editions, edition) {
			continue
		}

		dirs[edition] = filepath.Join(l.opts.DataDir, entry.Name())
	}

	return dirs, nil
}

// LoadEdition reads the in-window snapshots of one edition directory.
// The first occurrence of a URL wins; files are visited in name order.
func (l *Loader) LoadEdition(ctx context.Context, edition models.Edition, dir string) ([]*models.Article, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: edition %s: %w", ErrDataDir, edition, err)
	}

	log := l.log.With("edition", edition)

	var items []*models.Article

	seen := make(map[string]struct{})
	files := 0

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if entry.IsDir() || !IsSnapshotFile(entry.Name()) {
			continue
		}

		epoch, err := SnapshotEpoch(entry.Name())
		if err != nil {
			log.Warn("skipping snapshot without epoch", "file", entry.Name())
			continue
		}

		if !l.opts.Window.Contains(epoch) {
			continue
		}

		path := filepath.Join(dir, entry.Name())

		records, err := l.readSnapshot(path, edition, epoch)
		if err != nil {
			return nil, err
		}

		files++

		for _, record := range records {
			if _, dup := seen[record.URL]; dup {
				continue
			}

			if !l.opts.Carousels.Keep(record.Carousel) {
				continue
			}

			seen[record.URL] = struct{}{}
			items = append(items, record)
		}
	}

	log.Debug("edition loaded", "files", files, "items", len(items), "carousels", l.opts.Carousels)

	return items, nil
}

// readSnapshot parses one snapshot file. Any malformed record aborts the whole file.
func (l *Loader) readSnapshot(path string, edition models.Edition, epoch int64) ([]*models.Article, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot %s: %w", path, err)
	}

	var records []*models.Article
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrMalformedSnapshot, path, err)
	}

	src := normalizer.Source{Edition: edition, File: path, Epoch: epoch}

	for i, record := range records {
		if _, err := l.processor.Process(record, src); err != nil {
			return nil, fmt.Errorf("%w: %s: record %d: %w", ErrMalformedSnapshot, path, i, err)
		}
	}

	return records, nil
}
