package cluster

import (
	"cmp"
	"slices"
	"strings"

	"github.com/JosephCarrino/SwissTARO/internal/logger"
	"github.com/JosephCarrino/SwissTARO/internal/models"
)

// Clusters is the result of Resolve.
type Clusters struct {
	byKey      map[string]*Cluster
	assignment map[string]*Cluster
	Anomalies  []Anomaly
}

type pending struct {
	article *models.Article
	ids     []string
	key     string
}

// Resolve merges the articles into clusters. An article joins an existing cluster when its
// identifier set is a subset or a superset of the cluster key; a superset re-keys the cluster.
// Partially overlapping sets stay apart.
//
// Articles are processed in a canonical order (larger identifier sets first, then by key) and
// the matching cluster with the smallest key wins, so the grouping does not depend on the input
// order. Duplicate editions inside a cluster and clusters larger than maxEditions are recorded
// as anomalies and logged.
func Resolve(articles []*models.Article, maxEditions int, log *logger.Logger) *Clusters {
	if log == nil {
		log = logger.Discard()
	}

	queue := make([]pending, 0, len(articles))
	for _, a := range articles {
		ids := IdentifierSet(a)
		queue = append(queue, pending{article: a, ids: ids, key: strings.Join(ids, keySeparator)})
	}

	slices.SortFunc(queue, func(x, y pending) int {
		if c := cmp.Compare(len(y.ids), len(x.ids)); c != 0 {
			return c
		}

		if c := strings.Compare(x.key, y.key); c != 0 {
			return c
		}

		return strings.Compare(x.article.Key(), y.article.Key())
	})

	cs := &Clusters{
		byKey:      make(map[string]*Cluster),
		assignment: make(map[string]*Cluster, len(articles)),
	}

	for _, p := range queue {
		c := cs.match(p.ids)

		switch {
		case c == nil:
			c = newCluster(p.ids)
			cs.byKey[c.key] = c
		case !c.covers(p.ids):
			delete(cs.byKey, c.key)
			c.rekey(p.ids)
			cs.byKey[c.key] = c
		}

		cs.assignment[p.article.Key()] = c

		if c.hasEdition(p.article.Edition) {
			anomaly := Anomaly{Kind: DuplicateEdition, ClusterKey: c.key, Edition: p.article.Edition, URL: p.article.URL}
			cs.Anomalies = append(cs.Anomalies, anomaly)
			log.Warn("duplicate edition in cluster", "cluster", c.key, "edition", p.article.Edition, "url", p.article.URL)

			continue
		}

		c.Members = append(c.Members, p.article)
	}

	for _, c := range cs.All() {
		if c.Size() > maxEditions {
			cs.Anomalies = append(cs.Anomalies, Anomaly{Kind: Oversized, ClusterKey: c.key, Size: c.Size()})
			log.Warn("cluster exceeds the number of editions", "cluster", c.key, "size", c.Size(), "max", maxEditions)
		}
	}

	return cs
}

// match returns the existing cluster whose key is a superset of ids or, failing that, a subset
// of ids. Among several, the smallest key wins.
func (cs *Clusters) match(ids []string) *Cluster {
	var covering, within *Cluster

	for key, c := range cs.byKey {
		switch {
		case c.covers(ids):
			if covering == nil || key < covering.key {
				covering = c
			}
		case c.within(ids):
			if within == nil || key < within.key {
				within = c
			}
		}
	}

	if covering != nil {
		return covering
	}

	return within
}

// Len returns the number of clusters.
func (cs *Clusters) Len() int {
	return len(cs.byKey)
}

// All returns the clusters ordered by key.
func (cs *Clusters) All() []*Cluster {
	all := make([]*Cluster, 0, len(cs.byKey))
	for _, c := range cs.byKey {
		all = append(all, c)
	}

	slices.SortFunc(all, func(a, b *Cluster) int {
		return strings.Compare(a.key, b.key)
	})

	return all
}

// ClusterOf returns the cluster an article was assigned to, or the smallest-keyed cluster whose
// key contains the article's identifier set.
func (cs *Clusters) ClusterOf(a *models.Article) (*Cluster, bool) {
	if c, ok := cs.assignment[a.Key()]; ok {
		return c, true
	}

	ids := IdentifierSet(a)

	var best *Cluster

	for key, c := range cs.byKey {
		if c.covers(ids) && (best == nil || key < best.key) {
			best = c
		}
	}

	return best, best != nil
}

// SizeOf returns the size of the article's cluster, or 0 when none contains it.
func (cs *Clusters) SizeOf(a *models.Article) int {
	if c, ok := cs.ClusterOf(a); ok {
		return c.Size()
	}

	return 0
}

// ExportedMember is an article reference in the debug export.
type ExportedMember struct {
	Edition models.Edition `json:"edition"`
	URL     string         `json:"url"`
}

// ExportedCluster is the debug form of a cluster.
type ExportedCluster struct {
	Identifiers []string         `json:"identifiers"`
	Members     []ExportedMember `json:"members"`
	Size        int              `json:"size"`
}

// Export is the debug export of a resolution.
type Export struct {
	Clusters  []ExportedCluster `json:"clusters"`
	Anomalies []Anomaly         `json:"anomalies"`
}

// Export returns the clusters in key order together with the anomalies.
func (cs *Clusters) Export() Export {
	out := Export{
		Clusters:  make([]ExportedCluster, 0, cs.Len()),
		Anomalies: cs.Anomalies,
	}

	if out.Anomalies == nil {
		out.Anomalies = []Anomaly{}
	}

	for _, c := range cs.All() {
		ec := ExportedCluster{Identifiers: c.Identifiers(), Size: c.Size()}
		for _, m := range c.Members {
			ec.Members = append(ec.Members, ExportedMember{Edition: m.Edition, URL: m.URL})
		}

		out.Clusters = append(out.Clusters, ec)
	}

	return out
}
