package formatter

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/JosephCarrino/SwissTARO/internal/commonality"
	"github.com/JosephCarrino/SwissTARO/internal/models"
	"github.com/JosephCarrino/SwissTARO/internal/originals"
	"github.com/JosephCarrino/SwissTARO/internal/stats"
	"github.com/JosephCarrino/SwissTARO/pkg/metadata"
)

// Summary gathers the reports of one run. Nil reports are left out of the document.
type Summary struct {
	Matrix        *commonality.Matrix
	Cardinalities *stats.CardinalityReport
	Unpaired      *stats.UnpairedReport
	Originals     *originals.Export
	Flows         *commonality.Matrix
	RunID         string
	Strategy      string
	Carousels     string
	Validated     bool
}

// Render writes the signed Markdown document of s.
func Render(s Summary) string {
	var sb strings.Builder

	sb.WriteString("# SwissTARO commonality summary\n\n")

	if s.Matrix != nil {
		fmt.Fprintf(&sb, "- Window: %s to %s\n", s.Matrix.Window.StartDate, s.Matrix.Window.EndDate)
	}

	if s.Strategy != "" {
		fmt.Fprintf(&sb, "- Strategy: %s\n", s.Strategy)
	}

	if s.Carousels != "" {
		fmt.Fprintf(&sb, "- Carousels: %s\n", s.Carousels)
	}

	if s.Matrix != nil {
		writeMatrix(&sb, "Commonality", s.Matrix, countCell)
		writeMatrix(&sb, "Commonality ratio", s.Matrix, ratioCell)
		writeTallies(&sb, s.Matrix)
	}

	if s.Cardinalities != nil {
		writeCardinalities(&sb, s.Cardinalities)
	}

	if s.Unpaired != nil {
		writeUnpaired(&sb, s.Unpaired)
	}

	if s.Originals != nil {
		writeOriginals(&sb, s.Originals)
	}

	if s.Flows != nil {
		writeMatrix(&sb, "Flows of originals", s.Flows, countCell)
	}

	return metadata.SignWith(AlignTables(sb.String()), metadata.Metadata{RunID: s.RunID, Validation: s.Validated})
}

func writeTable(sb *strings.Builder, header []string, rows [][]string) {
	sb.WriteString("\n")
	writeRow(sb, header)

	sep := make([]string, len(header))
	for i := range sep {
		sep[i] = "---"
	}

	writeRow(sb, sep)

	for _, row := range rows {
		writeRow(sb, row)
	}
}

func writeRow(sb *strings.Builder, cells []string) {
	sb.WriteString("| " + strings.Join(cells, " | ") + " |\n")
}

func section(sb *strings.Builder, title string) {
	fmt.Fprintf(sb, "\n## %s\n", title)
}

func countCell(m *commonality.Matrix, citing, cited models.Edition) string {
	return strconv.Itoa(m.Count(citing, cited))
}

func ratioCell(m *commonality.Matrix, citing, cited models.Edition) string {
	return percent(m.Ratio(citing, cited))
}

func percent(ratio float64) string {
	return strconv.FormatFloat(ratio*100, 'f', 2, 64) + "%"
}

// matrixColumns returns every cited edition of m in report order.
func matrixColumns(m *commonality.Matrix) []models.Edition {
	var cols []models.Edition

	for _, row := range m.Rows {
		for e := range row {
			if !slices.Contains(cols, e) {
				cols = append(cols, e)
			}
		}
	}

	models.SortEditions(cols)

	return cols
}

func writeMatrix(sb *strings.Builder, title string, m *commonality.Matrix, cell func(*commonality.Matrix, models.Edition, models.Edition) string) {
	section(sb, title)

	cols := matrixColumns(m)

	header := []string{"citing / cited"}
	for _, e := range cols {
		header = append(header, string(e))
	}

	header = append(header, "articles")

	rows := make([][]string, 0, len(m.Rows))

	for _, citing := range m.Editions() {
		row := []string{string(citing)}

		for _, cited := range cols {
			if _, ok := m.Rows[citing][cited]; !ok {
				row = append(row, "-")
				continue
			}

			row = append(row, cell(m, citing, cited))
		}

		row = append(row, strconv.Itoa(m.Lens[citing]))
		rows = append(rows, row)
	}

	writeTable(sb, header, rows)
}

func writeTallies(sb *strings.Builder, m *commonality.Matrix) {
	if len(m.Tallies) == 0 {
		return
	}

	section(sb, "Oracle outcomes")

	rows := make([][]string, 0, len(m.Tallies))

	for _, e := range m.Editions() {
		t := m.Tallies[e]
		rows = append(rows, []string{
			string(e),
			strconv.Itoa(t.Queries),
			strconv.Itoa(t.Matched),
			strconv.Itoa(t.NoMatch),
			strconv.Itoa(t.NoContent),
			strconv.Itoa(t.Untranslated),
		})
	}

	writeTable(sb, []string{"edition", "queries", "matched", "no match", "no content", "untranslated"}, rows)
}

// bucketKeys returns the keys of b in numeric order.
func bucketKeys(b stats.Buckets) []string {
	keys := make([]string, 0, len(b))
	for k := range b {
		keys = append(keys, k)
	}

	slices.SortFunc(keys, func(x, y string) int {
		nx, _ := strconv.Atoi(x)
		ny, _ := strconv.Atoi(y)

		return nx - ny
	})

	return keys
}

func writeCardinalities(sb *strings.Builder, r *stats.CardinalityReport) {
	section(sb, "Cardinalities")

	keys := bucketKeys(r.Overall)

	header := []string{"editions carrying the story"}
	header = append(header, keys...)

	overall := []string{"clusters"}
	for _, k := range keys {
		overall = append(overall, strconv.Itoa(r.Overall[k]))
	}

	rows := [][]string{overall}

	editions := make([]models.Edition, 0, len(r.ByLanguage))
	for e := range r.ByLanguage {
		editions = append(editions, e)
	}

	models.SortEditions(editions)

	for _, e := range editions {
		row := []string{string(e)}
		for _, k := range keys {
			row = append(row, fmt.Sprintf("%d (%s)", r.ByLanguage[e][k], percent(r.ByLanguageRatio[e][k])))
		}

		rows = append(rows, row)
	}

	writeTable(sb, header, rows)

	if r.Anomalies > 0 {
		fmt.Fprintf(sb, "\n%d identity anomalies were recorded.\n", r.Anomalies)
	}

	writeCombos(sb, "Couples", r.ByCouples)
	writeCombos(sb, "Triples", r.ByTriples)
}

func writeCombos(sb *strings.Builder, title string, counts map[string]int) {
	if len(counts) == 0 {
		return
	}

	section(sb, title)

	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}

	slices.Sort(keys)

	rows := make([][]string, len(keys))
	for i, k := range keys {
		rows[i] = []string{k, strconv.Itoa(counts[k])}
	}

	writeTable(sb, []string{"editions", "clusters"}, rows)
}

func writeUnpaired(sb *strings.Builder, r *stats.UnpairedReport) {
	section(sb, "Unpaired translations")

	citing := r.Citing()

	header := []string{"citing / cited"}
	for _, e := range citing {
		header = append(header, string(e))
	}

	header = append(header, "total")

	rows := make([][]string, 0, len(citing))

	for _, from := range citing {
		row := []string{string(from)}
		for _, to := range citing {
			row = append(row, strconv.Itoa(r.Info.Lens[from][to]))
		}

		rows = append(rows, append(row, strconv.Itoa(r.Info.Totals[from])))
	}

	writeTable(sb, header, rows)
	fmt.Fprintf(sb, "\nUnpaired links overall: %d\n", r.Info.Total)
}

func writeOriginals(sb *strings.Builder, o *originals.Export) {
	section(sb, "Originals")

	editions := make([]models.Edition, 0, len(o.Info.TotalLens))
	for e := range o.Info.TotalLens {
		editions = append(editions, e)
	}

	models.SortEditions(editions)

	rows := make([][]string, 0, len(editions))

	for _, e := range editions {
		share := 0.0
		if total := o.Info.TotalLens[e]; total > 0 {
			share = float64(o.Info.OriginalsLens[e]) / float64(total)
		}

		rows = append(rows, []string{
			string(e),
			strconv.Itoa(o.Info.TotalLens[e]),
			strconv.Itoa(o.Info.OriginalsLens[e]),
			percent(share),
			strconv.Itoa(o.Info.OriginLens[e]),
		})
	}

	writeTable(sb, []string{"edition", "articles", "originals", "share", "stories originating here"}, rows)
	fmt.Fprintf(sb, "\nOriginals: %d of %d articles\n", o.Info.OriginalsTotal, o.Info.Total)
}
