package stats

import (
	"encoding/json"
	"reflect"
	"testing"

	"github.com/JosephCarrino/SwissTARO/internal/cluster"
	"github.com/JosephCarrino/SwissTARO/internal/logger"
	"github.com/JosephCarrino/SwissTARO/internal/models"
)

func art(edition models.Edition, url string, links map[string]string) *models.Article {
	return &models.Article{Edition: edition, URL: url, Translations: links}
}

func resolve(set models.EditionSet) *cluster.Clusters {
	return cluster.Resolve(set.All(), len(models.Recognized), logger.Discard())
}

var allReports = CardinalityOptions{Editions: models.Recognized, Couples: true, Triples: true}

func sampleSet() models.EditionSet {
	return models.EditionSet{
		models.English: {
			art(models.English, "/e/1", map[string]string{"Italiano": "/i/1", "Français": "/f/1"}),
			art(models.English, "/e/2", map[string]string{"Deutsch": "/g/2"}),
			art(models.English, "/e/3", nil),
		},
		models.French: {
			art(models.French, "/f/1", map[string]string{"English": "/e/1", "Italiano": "/i/1"}),
		},
		models.German: {
			art(models.German, "/g/2", map[string]string{"English": "/e/2"}),
			art(models.German, "/g/3", nil),
		},
		models.Italian: {
			art(models.Italian, "/i/1", map[string]string{"English": "/e/1", "Français": "/f/1"}),
			art(models.Italian, "/i/9", map[string]string{"English": "/e/99"}),
		},
	}
}

func TestCardinalities_Sample(t *testing.T) {
	set := sampleSet()
	report := Cardinalities(set, resolve(set), allReports)

	wantOverall := Buckets{"1": 3, "2": 1, "3": 1, "4": 0}
	if !reflect.DeepEqual(report.Overall, wantOverall) {
		t.Errorf("Overall = %v, want %v", report.Overall, wantOverall)
	}

	wantEnglish := Buckets{"1": 1, "2": 1, "3": 1, "4": 0}
	if !reflect.DeepEqual(report.ByLanguage[models.English], wantEnglish) {
		t.Errorf("ByLanguage[ENG] = %v, want %v", report.ByLanguage[models.English], wantEnglish)
	}

	if report.ByCouples["ENG-GER"] != 1 || report.ByCouples["ENG-ITA"] != 0 || len(report.ByCouples) != 6 {
		t.Errorf("ByCouples = %v", report.ByCouples)
	}

	if report.ByTriples["ENG-FRE-ITA"] != 1 || len(report.ByTriples) != 4 {
		t.Errorf("ByTriples = %v", report.ByTriples)
	}

	if got := report.ByLanguageRatio[models.German]["1"]; got != 0.5 {
		t.Errorf("ByLanguageRatio[GER][1] = %v, want 0.5", got)
	}
}

func TestCardinalities_SumInvariants(t *testing.T) {
	sets := map[string]models.EditionSet{
		"sample": sampleSet(),
		"duplicates": {
			models.English: {
				art(models.English, "/e/1", nil),
				art(models.English, "https://www.example.ch/e/1", nil),
			},
			models.Italian: {art(models.Italian, "/i/1", map[string]string{"English": "/e/1"})},
		},
		"empty edition": {
			models.English: {art(models.English, "/e/1", nil)},
			models.French:  nil,
		},
	}

	for name, set := range sets {
		t.Run(name, func(t *testing.T) {
			clusters := resolve(set)
			report := Cardinalities(set, clusters, allReports)

			if got := report.Overall.Sum(); got != clusters.Len() {
				t.Errorf("overall sum = %d, want %d clusters", got, clusters.Len())
			}

			for e, buckets := range report.ByLanguage {
				if got := buckets.Sum(); got != set.Len(e) {
					t.Errorf("by_language[%s] sum = %d, want %d", e, got, set.Len(e))
				}
			}
		})
	}
}

func TestCardinalities_UnlinkedEditions(t *testing.T) {
	set := models.EditionSet{
		models.English: {art(models.English, "/e/1", nil)},
		models.French:  {art(models.French, "/f/1", nil)},
		models.German:  {art(models.German, "/g/1", nil)},
	}

	report := Cardinalities(set, resolve(set), CardinalityOptions{Editions: models.Recognized})

	want := Buckets{"1": 3, "2": 0, "3": 0, "4": 0}
	if !reflect.DeepEqual(report.Overall, want) {
		t.Errorf("Overall = %v, want %v", report.Overall, want)
	}

	if report.ByCouples != nil || report.ByTriples != nil {
		t.Error("disabled breakdowns should be omitted")
	}
}

func TestCardinalities_AnomaliesAreCounted(t *testing.T) {
	set := models.EditionSet{
		models.English: {
			art(models.English, "/e/1", nil),
			art(models.English, "/e/1/", nil),
		},
	}

	report := Cardinalities(set, resolve(set), allReports)
	if report.Anomalies != 1 {
		t.Errorf("Anomalies = %d, want 1", report.Anomalies)
	}
}

func TestUnpaired_DanglingLink(t *testing.T) {
	set := models.EditionSet{
		models.English: {art(models.English, "/e/1", map[string]string{"Italiano": "/i/99"})},
		models.Italian: {art(models.Italian, "/i/1", nil)},
	}

	report := Unpaired(set)

	want := map[models.Edition]map[models.Edition][]string{
		models.English: {models.Italian: {"/i/99"}},
	}
	if !reflect.DeepEqual(report.Links, want) {
		t.Errorf("Links = %v, want %v", report.Links, want)
	}

	if report.Count(models.English, models.Italian) != 1 || report.Info.Total != 1 || report.Info.Totals[models.Italian] != 0 {
		t.Errorf("unexpected info: %+v", report.Info)
	}

	if got := report.Citing(); !reflect.DeepEqual(got, []models.Edition{models.English, models.Italian}) {
		t.Errorf("Citing() = %v, want every loaded edition in report order", got)
	}
}

func TestUnpaired_Cases(t *testing.T) {
	tests := []struct {
		name  string
		set   models.EditionSet
		total int
	}{
		{
			name: "paired links",
			set: models.EditionSet{
				models.English: {art(models.English, "/e/1", map[string]string{"Italiano": "/i/1"})},
				models.Italian: {art(models.Italian, "/i/1", map[string]string{"English": "/e/1"})},
			},
			total: 0,
		},
		{
			name: "edition not loaded",
			set: models.EditionSet{
				models.English: {art(models.English, "/e/1", map[string]string{"Deutsch": "/g/1"})},
			},
			total: 0,
		},
		{
			name: "unknown edition names are ignored",
			set: models.EditionSet{
				models.English: {art(models.English, "/e/1", map[string]string{"Español": "/s/1", "original_language": "Unknown"})},
				models.Italian: nil,
			},
			total: 0,
		},
		{
			name: "exact url comparison",
			set: models.EditionSet{
				models.English: {art(models.English, "/e/1", map[string]string{"Italiano": "/i/1/"})},
				models.Italian: {art(models.Italian, "/i/1", nil)},
			},
			total: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Unpaired(tt.set).Info.Total; got != tt.total {
				t.Errorf("Total = %d, want %d", got, tt.total)
			}
		})
	}
}

func TestUnpaired_JSON(t *testing.T) {
	set := models.EditionSet{
		models.English: {art(models.English, "/e/1", map[string]string{"Italiano": "/i/99"})},
		models.Italian: nil,
	}

	data, err := json.Marshal(Unpaired(set))
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	want := `{"ENG":{"ITA":["/i/99"]},"info":{"lens":{"ENG":{"ITA":1}},"totals":{"ENG":1,"ITA":0},"total":1}}`
	if string(data) != want {
		t.Errorf("JSON = %s\nwant %s", data, want)
	}

	var back UnpairedReport
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	if back.Count(models.English, models.Italian) != 1 || back.Info.Total != 1 {
		t.Errorf("round trip lost data: %+v", back)
	}
}
