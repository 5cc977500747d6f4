package dupes

import (
	"sort"
	"strings"

	"github.com/sw33tLie/xcdupes/pkg/naming"
)

// collapseKey identifies one logical duplicate: the exact set of imagesets a
// group touches plus its majority logical name.
type collapseKey struct {
	containers string
	name       string
}

type slot struct {
	score int
	occs  []Occurrence
	name  string
}

// Collapse turns an index into report groups.
//
// Fingerprints confined to a single imageset are dropped: scale variants
// inside one imageset are expected. The remaining groups are keyed by their
// imageset set and majority name; per key only the group with the strictly
// highest declared scale survives, and on a tie the first one seen stays.
// Groups keep the slot of the first group seen for their key.
func Collapse(idx *Index) []ReportGroup {
	var keys []collapseKey
	best := make(map[collapseKey]*slot)

	idx.Each(func(_ string, occs []Occurrence) bool {
		containers := distinctContainers(occs)
		if len(containers) < 2 {
			return true
		}

		sort.Strings(containers)
		name := MajorityName(occs)
		key := collapseKey{containers: strings.Join(containers, "\x00"), name: name}
		score := MaxScore(occs)

		cur, ok := best[key]
		if !ok {
			keys = append(keys, key)
			best[key] = &slot{score: score, occs: occs, name: name}
			return true
		}
		if score > cur.score {
			cur.score = score
			cur.occs = occs
		}
		return true
	})

	groups := make([]ReportGroup, 0, len(keys))
	for i, k := range keys {
		s := best[k]
		groups = append(groups, ReportGroup{
			ID:          i + 1,
			Fingerprint: s.occs[0].Fingerprint,
			Name:        s.name,
			Occurrences: s.occs,
		})
	}
	return groups
}

// MajorityName returns the most frequent Name among occs. Ties go to the
// name seen first.
func MajorityName(occs []Occurrence) string {
	counts := make(map[string]int)
	var order []string
	for _, o := range occs {
		if _, ok := counts[o.Name]; !ok {
			order = append(order, o.Name)
		}
		counts[o.Name]++
	}

	var name string
	top := 0
	for _, n := range order {
		if counts[n] > top {
			name, top = n, counts[n]
		}
	}
	return name
}

// MaxScore returns the highest declared scale score among occs.
func MaxScore(occs []Occurrence) int {
	top := 0
	for _, o := range occs {
		if s := naming.Score(o.Scale); s > top {
			top = s
		}
	}
	return top
}

func distinctContainers(occs []Occurrence) []string {
	seen := make(map[string]struct{}, len(occs))
	var out []string
	for _, o := range occs {
		if _, ok := seen[o.Container]; ok {
			continue
		}
		seen[o.Container] = struct{}{}
		out = append(out, o.Container)
	}
	return out
}
