package dates

import (
	"fmt"
	"sort"
	"strings"
)

// Sampling strategies and their target sizes. Complete searches every candidate.
const (
	StrategyConservative  = "conservative"
	StrategyWeekly        = "weekly"
	StrategyComprehensive = "comprehensive"
	StrategyComplete      = "complete"
)

var strategyTargets = map[string]int{
	StrategyConservative:  3,
	StrategyWeekly:        13,
	StrategyComprehensive: 24,
}

// Strategies lists the known strategy names in increasing size
func Strategies() []string {
	return []string{StrategyConservative, StrategyWeekly, StrategyComprehensive, StrategyComplete}
}

// TargetFor returns how many pairs the named strategy searches out of total candidates.
// Unknown names fall back to weekly.
func TargetFor(strategy string, total int) int {
	name := strings.ToLower(strings.TrimSpace(strategy))
	if name == StrategyComplete {
		return total
	}
	n, ok := strategyTargets[name]
	if !ok {
		n = strategyTargets[StrategyWeekly]
	}
	if n > total {
		return total
	}
	return n
}

type monthBucket struct {
	key   string
	pairs []DatePair
}

// Sample picks at most target pairs, balanced across calendar months and evenly
// spaced within each month. Output is chronological and deterministic.
func Sample(all []DatePair, target int) []DatePair {
	if target <= 0 {
		return []DatePair{}
	}
	if len(all) <= target {
		return all
	}

	buckets := groupByMonth(all)
	alloc := allocate(buckets, target)

	out := make([]DatePair, 0, target)
	for i, b := range buckets {
		out = append(out, spread(b.pairs, alloc[i])...)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Departure.Before(out[j].Departure)
	})
	if len(out) > target {
		out = out[:target]
	}
	return out
}

func groupByMonth(all []DatePair) []monthBucket {
	index := map[string]int{}
	var buckets []monthBucket
	for _, p := range all {
		key := fmt.Sprintf("%04d-%02d", p.Departure.Year(), int(p.Departure.Month()))
		i, ok := index[key]
		if !ok {
			i = len(buckets)
			index[key] = i
			buckets = append(buckets, monthBucket{key: key})
		}
		buckets[i].pairs = append(buckets[i].pairs, p)
	}
	sort.SliceStable(buckets, func(i, j int) bool { return buckets[i].key < buckets[j].key })
	return buckets
}

// allocate splits target across months: the first target%months months get one extra
// slot. A month holding fewer pairs than its share gives the remainder to later months
// first, then earlier ones.
func allocate(buckets []monthBucket, target int) []int {
	months := len(buckets)
	base, extra := target/months, target%months

	alloc := make([]int, months)
	for i := range alloc {
		alloc[i] = base
		if i < extra {
			alloc[i]++
		}
	}

	for i := range buckets {
		short := alloc[i] - len(buckets[i].pairs)
		if short <= 0 {
			continue
		}
		alloc[i] = len(buckets[i].pairs)
		for step := 1; step < months && short > 0; step++ {
			j := (i + step) % months
			spare := len(buckets[j].pairs) - alloc[j]
			if spare <= 0 {
				continue
			}
			give := min(spare, short)
			alloc[j] += give
			short -= give
		}
	}
	return alloc
}

// spread picks n pairs at floor(j*len/n) for j in [0, n).
func spread(pairs []DatePair, n int) []DatePair {
	if n <= 0 {
		return nil
	}
	if n >= len(pairs) {
		return pairs
	}
	out := make([]DatePair, 0, n)
	for j := 0; j < n; j++ {
		out = append(out, pairs[j*len(pairs)/n])
	}
	return out
}

// Coverage returns sampled/total as a percentage, rounded to one decimal.
func Coverage(sampled, total int) float64 {
	if total == 0 {
		return 0
	}
	pct := float64(sampled) / float64(total) * 100
	return float64(int(pct*10+0.5)) / 10
}
