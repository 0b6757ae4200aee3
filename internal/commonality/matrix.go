package commonality

import (
	"encoding/json"
	"fmt"

	"github.com/JosephCarrino/SwissTARO/internal/models"
)

// Window is the analysis window as written in reports.
type Window struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

// Matrix holds commonality counts: Rows[citing][cited] is the number of citing articles with an
// equivalent in the cited edition.
type Matrix struct {
	Rows    map[models.Edition]map[models.Edition]int
	Lens    map[models.Edition]int
	Tallies map[models.Edition]Tally
	Window  Window
}

// matrixInfo is the "info" entry of the JSON form.
type matrixInfo struct {
	StartDate string                 `json:"start_date"`
	EndDate   string                 `json:"end_date"`
	Len       map[models.Edition]int `json:"len"`
}

const infoKey = "info"

// NewMatrix creates an empty matrix.
func NewMatrix(window Window, lens map[models.Edition]int) *Matrix {
	return &Matrix{
		Rows:    make(map[models.Edition]map[models.Edition]int),
		Lens:    lens,
		Tallies: make(map[models.Edition]Tally),
		Window:  window,
	}
}

// Editions returns the citing editions in report order.
func (m *Matrix) Editions() []models.Edition {
	editions := make([]models.Edition, 0, len(m.Rows))
	for e := range m.Rows {
		editions = append(editions, e)
	}

	models.SortEditions(editions)

	return editions
}

// Count returns Rows[citing][cited].
func (m *Matrix) Count(citing, cited models.Edition) int {
	return m.Rows[citing][cited]
}

// Ratio returns Rows[citing][cited] relative to the cited edition's length, or 0 when it is empty.
func (m *Matrix) Ratio(citing, cited models.Edition) float64 {
	if m.Lens[cited] == 0 {
		return 0
	}

	return float64(m.Rows[citing][cited]) / float64(m.Lens[cited])
}

// MarshalJSON writes the rows at the top level next to an "info" entry.
func (m *Matrix) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(m.Rows)+1)

	for citing, row := range m.Rows {
		out[string(citing)] = row
	}

	lens := m.Lens
	if lens == nil {
		lens = map[models.Edition]int{}
	}

	out[infoKey] = matrixInfo{StartDate: m.Window.StartDate, EndDate: m.Window.EndDate, Len: lens}

	return json.Marshal(out)
}

// UnmarshalJSON restores a matrix written by MarshalJSON.
func (m *Matrix) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*m = *NewMatrix(Window{}, nil)

	for key, value := range raw {
		if key == infoKey {
			var info matrixInfo
			if err := json.Unmarshal(value, &info); err != nil {
				return fmt.Errorf("matrix info: %w", err)
			}

			m.Window = Window{StartDate: info.StartDate, EndDate: info.EndDate}
			m.Lens = info.Len

			continue
		}

		var row map[models.Edition]int
		if err := json.Unmarshal(value, &row); err != nil {
			return fmt.Errorf("matrix row %s: %w", key, err)
		}

		m.Rows[models.Edition(key)] = row
	}

	return nil
}
