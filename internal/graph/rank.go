package graph

import "math"

// pageRank computes PageRank over the file reference graph. alpha is the
// damping factor; iteration stops at maxIter or when the L1 delta between
// passes drops below tol.
func pageRank(
	nodes map[string]struct{},
	outEdges map[string][]string,
	outDegree map[string]int,
	alpha float64,
	maxIter int,
	tol float64,
) map[string]float64 {
	n := len(nodes)
	if n == 0 {
		return nil
	}

	rank := make(map[string]float64, n)
	initial := 1.0 / float64(n)
	for node := range nodes {
		rank[node] = initial
	}

	teleport := (1.0 - alpha) / float64(n)

	for iter := 0; iter < maxIter; iter++ {
		newRank := make(map[string]float64, n)

		// Nodes with no outgoing edges redistribute uniformly.
		var danglingSum float64
		for node := range nodes {
			if outDegree[node] == 0 {
				danglingSum += rank[node]
			}
		}
		danglingContrib := alpha * danglingSum / float64(n)

		for node := range nodes {
			newRank[node] = teleport + danglingContrib
		}

		for src, targets := range outEdges {
			deg := float64(outDegree[src])
			contrib := alpha * rank[src] / deg
			for _, tgt := range targets {
				newRank[tgt] += contrib
			}
		}

		var diff float64
		for node := range nodes {
			diff += math.Abs(newRank[node] - rank[node])
		}

		rank = newRank

		if diff < tol {
			break
		}
	}

	return rank
}
