package matching

import (
	"math"
	"sort"
)

// Jaccard is |a ∩ b| / |a ∪ b| over the distinct members of a and b. It is 0 when
// either set is empty.
func Jaccard(a, b []string) float64 {
	as, bs := toSet(a), toSet(b)
	if len(as) == 0 || len(bs) == 0 {
		return 0
	}

	inter := 0
	for k := range as {
		if bs[k] {
			inter++
		}
	}

	return float64(inter) / float64(len(as)+len(bs)-inter)
}

// Intersect returns the sorted members present in both sets.
func Intersect(a, b []string) []string {
	bs := toSet(b)
	out := []string{}
	for k := range toSet(a) {
		if bs[k] {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

// Difference returns the sorted members of a missing from b.
func Difference(a, b []string) []string {
	bs := toSet(b)
	out := []string{}
	for k := range toSet(a) {
		if !bs[k] {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

// Union returns the sorted distinct members of all sets.
func Union(sets ...[]string) []string {
	all := make(map[string]bool)
	for _, s := range sets {
		for _, k := range s {
			all[k] = true
		}
	}
	out := make([]string, 0, len(all))
	for k := range all {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func toSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, item := range items {
		set[item] = true
	}
	return set
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
