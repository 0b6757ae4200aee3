// Package cluster groups articles of different editions into stories by their identifier sets.
package cluster

import (
	"fmt"
	"slices"
	"strings"

	"github.com/JosephCarrino/SwissTARO/internal/models"
	"github.com/JosephCarrino/SwissTARO/pkg/utils"
)

// keySeparator joins identifiers into a canonical key. Identifiers never contain it.
const keySeparator = "|"

// IdentifierSet returns the sorted cross-edition keys of an article: its own key and one key per
// translation link to a recognized edition.
func IdentifierSet(a *models.Article) []string {
	set := map[string]struct{}{a.IdentifierKey(): {}}

	for edition, target := range a.TranslationLinks() {
		set[models.IdentifierKey(edition, target)] = struct{}{}
	}

	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}

	slices.Sort(ids)

	return ids
}

// Cluster is a group of articles believed to be the same story, at most one per edition.
type Cluster struct {
	ids     map[string]struct{}
	key     string
	Members []*models.Article
}

func newCluster(ids []string) *Cluster {
	c := &Cluster{}
	c.rekey(ids)

	return c
}

func (c *Cluster) rekey(ids []string) {
	c.ids = make(map[string]struct{}, len(ids))
	for _, id := range ids {
		c.ids[id] = struct{}{}
	}

	c.key = strings.Join(ids, keySeparator)
}

// Key is the canonical key: the sorted identifiers joined with "|".
func (c *Cluster) Key() string {
	return c.key
}

// Identifiers returns the sorted identifier set keying the cluster.
func (c *Cluster) Identifiers() []string {
	return strings.Split(c.key, keySeparator)
}

// Size is the number of member articles, which is the number of editions carrying the story.
func (c *Cluster) Size() int {
	return len(c.Members)
}

// Editions returns the member editions in report order.
func (c *Cluster) Editions() []models.Edition {
	editions := make([]models.Edition, 0, len(c.Members))
	for _, m := range c.Members {
		editions = append(editions, m.Edition)
	}

	models.SortEditions(editions)

	return editions
}

func (c *Cluster) hasEdition(e models.Edition) bool {
	for _, m := range c.Members {
		if m.Edition == e {
			return true
		}
	}

	return false
}

// covers reports whether every id is in the cluster key.
func (c *Cluster) covers(ids []string) bool {
	for _, id := range ids {
		if _, ok := c.ids[id]; !ok {
			return false
		}
	}

	return true
}

// within reports whether the cluster key is contained in ids.
func (c *Cluster) within(ids []string) bool {
	if len(c.ids) > len(ids) {
		return false
	}

	for id := range c.ids {
		if _, found := slices.BinarySearch(ids, id); !found {
			return false
		}
	}

	return true
}

// AnomalyKind classifies identity-resolution anomalies.
type AnomalyKind string

// Anomaly kinds.
const (
	DuplicateEdition AnomalyKind = "duplicate_edition"
	Oversized        AnomalyKind = "oversized"
)

// Anomaly is a linking inconsistency found while resolving clusters.
type Anomaly struct {
	Kind       AnomalyKind    `json:"kind"`
	ClusterKey string         `json:"cluster"`
	Edition    models.Edition `json:"edition,omitempty"`
	URL        string         `json:"url,omitempty"`
	Size       int            `json:"size,omitempty"`
}

// maxKeyWidth bounds the cluster key shown in messages.
const maxKeyWidth = 80

func (a Anomaly) String() string {
	key := utils.NewStringHelper().TruncateString(a.ClusterKey, maxKeyWidth)

	switch a.Kind {
	case DuplicateEdition:
		return fmt.Sprintf("cluster %s already has a %s member, dropped %s", key, a.Edition, a.URL)
	default:
		return fmt.Sprintf("cluster %s has %d members", key, a.Size)
	}
}
