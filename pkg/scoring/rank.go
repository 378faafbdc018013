package scoring

import (
	"cmp"
	"slices"
)

// averageRanks ranks the defined entries of vs in ascending order starting
// at 1. Tied entries share the mean of the positions they occupy. Missing
// entries take no position and get a missing rank. The second result is the
// number of ranked entries.
func averageRanks(vs []Value) ([]Value, int) {
	idx := make([]int, 0, len(vs))
	for i, v := range vs {
		if v.ok {
			idx = append(idx, i)
		}
	}
	slices.SortStableFunc(idx, func(a, b int) int {
		return cmp.Compare(vs[a].v, vs[b].v)
	})

	ranks := make([]Value, len(vs))
	for i := 0; i < len(idx); {
		j := i
		for j+1 < len(idx) && vs[idx[j+1]].v == vs[idx[i]].v {
			j++
		}
		// positions i+1 .. j+1
		r := float64(i+j+2) / 2
		for k := i; k <= j; k++ {
			ranks[idx[k]] = Present(r)
		}
		i = j + 1
	}
	return ranks, len(idx)
}
