// Package output writes the report files of a run, all of them or none.
package output

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/JosephCarrino/SwissTARO/internal/logger"
)

// FileDateLayout formats window bounds in file names.
const FileDateLayout = "2006-01-02T15.04.05"

// Output errors.
var (
	ErrOutputDir = errors.New("output directory is not usable")
	ErrEncode    = errors.New("failed to encode report")
	ErrWrite     = errors.New("failed to write report")
)

// Names builds the report file names of one run.
type Names struct {
	Start    string
	End      string
	Strategy string
	Suffix   string
}

// NewNames formats the window bounds of a run; suffix marks the carousel mode.
func NewNames(start, end int64, strategy, suffix string) Names {
	return Names{
		Start:    time.Unix(start, 0).UTC().Format(FileDateLayout),
		End:      time.Unix(end, 0).UTC().Format(FileDateLayout),
		Strategy: strategy,
		Suffix:   suffix,
	}
}

func (n Names) window() string {
	return n.Start + "_" + n.End
}

func (n Names) withStrategy(prefix, ext string) string {
	return fmt.Sprintf("%s_%s_%s%s%s", prefix, n.window(), n.Strategy, n.Suffix, ext)
}

func (n Names) plain(prefix string) string {
	return fmt.Sprintf("%s_%s%s.json", prefix, n.window(), n.Suffix)
}

// Commons is the commonality matrix file.
func (n Names) Commons() string { return n.withStrategy("commons", ".json") }

// Paired is the matched URL pairs file.
func (n Names) Paired() string { return n.withStrategy("paired", ".json") }

// Flows is the originals flow matrix file.
func (n Names) Flows() string { return n.withStrategy("flows", ".json") }

// Summary is the Markdown summary file.
func (n Names) Summary() string { return n.withStrategy("summary", ".md") }

// Unpaired is the unpaired translations file.
func (n Names) Unpaired() string { return n.plain("unpaired") }

// Cardinalities is the cardinality statistics file.
func (n Names) Cardinalities() string { return n.plain("cardinalities") }

// Clusters is the cluster debug export.
func (n Names) Clusters() string { return n.plain("clusters") }

// Originals is the originals classification file.
func (n Names) Originals() string { return n.plain("originals_data") }

// Encode marshals v with a 4-space indent, without HTML escaping, followed by a newline.
func Encode(v any) ([]byte, error) {
	var buf bytes.Buffer

	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "    ")
	enc.SetEscapeHTML(false)

	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEncode, err)
	}

	return buf.Bytes(), nil
}

type file struct {
	name string
	data []byte
}

// Batch collects the files of a run and writes them together.
type Batch struct {
	log   *logger.Logger
	dir   string
	files []file
}

// NewBatch creates an empty batch for dir.
func NewBatch(dir string, log *logger.Logger) *Batch {
	return &Batch{dir: dir, log: log}
}

// AddJSON encodes v now so that encoding errors surface before anything is written.
func (b *Batch) AddJSON(name string, v any) error {
	data, err := Encode(v)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}

	b.files = append(b.files, file{name: name, data: data})

	return nil
}

// AddText adds a file with the given content.
func (b *Batch) AddText(name, content string) {
	b.files = append(b.files, file{name: name, data: []byte(content)})
}

// Append adds the files of other after those of b.
func (b *Batch) Append(other *Batch) {
	b.files = append(b.files, other.files...)
}

// Len returns the number of files in the batch.
func (b *Batch) Len() int {
	return len(b.files)
}

// Commit writes every file to a temporary name and renames them into place. On failure the
// files of this batch already in place are removed, reports they replaced are restored, and
// the error names the offending file. The output directory must already exist.
func (b *Batch) Commit() ([]string, error) {
	info, err := os.Stat(b.dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrOutputDir, err)
	}

	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrOutputDir, b.dir)
	}

	temps := make([]string, 0, len(b.files))

	defer func() {
		for _, tmp := range temps {
			if rerr := os.Remove(tmp); rerr != nil && !errors.Is(rerr, os.ErrNotExist) {
				b.log.Warn("failed to remove temporary file", "path", tmp, "error", rerr)
			}
		}
	}()

	for _, f := range b.files {
		tmp, err := writeTemp(b.dir, f)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrWrite, f.name, err)
		}

		temps = append(temps, tmp)
	}

	placed := make([]placement, 0, len(b.files))

	for i, f := range b.files {
		p := placement{path: filepath.Join(b.dir, f.name)}

		p.backup, err = b.setAside(p.path, f.name)
		if err != nil {
			b.rollback(placed)

			return nil, fmt.Errorf("%w: %s: %w", ErrWrite, f.name, err)
		}

		if err := os.Rename(temps[i], p.path); err != nil {
			b.rollback(append(placed, placement{backup: p.backup, path: p.path, failed: true}))

			return nil, fmt.Errorf("%w: %s: %w", ErrWrite, f.name, err)
		}

		placed = append(placed, p)
	}

	written := make([]string, 0, len(placed))

	for _, p := range placed {
		if p.backup != "" {
			if err := os.Remove(p.backup); err != nil {
				b.log.Warn("failed to remove previous report", "path", p.backup, "error", err)
			}
		}

		b.log.Debug("report written", "path", p.path)
		written = append(written, p.path)
	}

	return written, nil
}

// placement is a report renamed into place, with the previous report it replaced.
type placement struct {
	path   string
	backup string
	failed bool
}

// setAside moves an existing regular file at path to a hidden backup name and returns it.
// It returns "" when there is nothing to keep.
func (b *Batch) setAside(path, name string) (string, error) {
	info, err := os.Lstat(path)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}

	if err != nil {
		return "", err
	}

	if !info.Mode().IsRegular() {
		return "", nil
	}

	tmp, err := os.CreateTemp(b.dir, "."+name+".bak-*")
	if err != nil {
		return "", err
	}

	backup := tmp.Name()
	_ = tmp.Close()

	if err := os.Rename(path, backup); err != nil {
		_ = os.Remove(backup)

		return "", err
	}

	return backup, nil
}

func (b *Batch) rollback(placed []placement) {
	for _, p := range placed {
		if !p.failed {
			if err := os.Remove(p.path); err != nil {
				b.log.Error("failed to roll back report", "path", p.path, "error", err)
				continue
			}
		}

		if p.backup == "" {
			continue
		}

		if err := os.Rename(p.backup, p.path); err != nil {
			b.log.Error("failed to restore previous report", "path", p.path, "backup", p.backup, "error", err)
		}
	}
}

func writeTemp(dir string, f file) (string, error) {
	tmp, err := os.CreateTemp(dir, "."+f.name+".tmp-*")
	if err != nil {
		return "", err
	}

	name := tmp.Name()

	if _, err := tmp.Write(f.data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(name)

		return "", err
	}

	if err := tmp.Chmod(0644); err != nil {
		_ = tmp.Close()
		_ = os.Remove(name)

		return "", err
	}

	if err := tmp.Close(); err != nil {
		_ = os.Remove(name)

		return "", err
	}

	return name, nil
}
