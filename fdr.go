// Copyright (C) The GRAPE Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package grape

import "sort"

// benjaminiHochberg returns false discovery rate adjusted p-values
// (Benjamini-Hochberg step-up), in the same order as p.
func benjaminiHochberg(p []float64) []float64 {
	n := len(p)
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return p[order[a]] < p[order[b]] })
	adj := make([]float64, n)
	running := 1.0
	for rank := n - 1; rank >= 0; rank-- {
		i := order[rank]
		if v := p[i] * float64(n) / float64(rank+1); v < running {
			running = v
		}
		adj[i] = running
	}
	return adj
}
