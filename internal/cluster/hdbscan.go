package cluster

import (
	"math"
	"slices"
	"sort"

	"gonum.org/v1/gonum/floats"

	"topicseg/internal/domain"
)

// minDistance bounds lambda = 1/distance for coincident points.
const minDistance = 1e-12

type mstEdge struct {
	a, b   int
	weight float64
}

// linkage is one merge of the single linkage tree. Node ids below n are
// points, node n+i is the result of merge i.
type linkage struct {
	left, right int
	distance    float64
	size        int
}

// condensedEdge is a row of the condensed tree. Cluster ids start at n, the
// root being n itself.
type condensedEdge struct {
	parent, child int
	lambda        float64
	size          int
}

// hdbscan labels points with Euclidean HDBSCAN and excess of mass selection.
// The root cluster is never selected, so data without structure is all noise.
func hdbscan(data [][]float64, minClusterSize, minSamples int) []domain.Label {
	n := len(data)
	labels := make([]domain.Label, n)
	for i := range labels {
		labels[i] = domain.Noise()
	}
	if n < 2 {
		return labels
	}
	minSamples = max(1, min(minSamples, n-1))

	dist := pairwiseDistances(data)
	core := coreDistances(dist, minSamples)
	mst := primMST(dist, core)
	tree := condense(singleLinkage(mst, n), n, minClusterSize)
	selected := selectEOM(tree, n)
	if len(selected) == 0 {
		return labels
	}

	ids := make(map[int]int, len(selected))
	for i, c := range selected {
		ids[c] = i
	}
	parentOf := make(map[int]int, len(tree))
	for _, e := range tree {
		parentOf[e.child] = e.parent
	}
	for p := 0; p < n; p++ {
		c, ok := parentOf[p]
		for ok {
			if id, sel := ids[c]; sel {
				labels[p] = domain.ClusterLabel(id)
				break
			}
			c, ok = parentOf[c]
		}
	}
	return labels
}

func pairwiseDistances(data [][]float64) [][]float64 {
	n := len(data)
	dist := make([][]float64, n)
	for i := range dist {
		dist[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			d := floats.Distance(data[i], data[j], 2)
			dist[i][j] = d
			dist[j][i] = d
		}
	}
	return dist
}

// coreDistances returns the distance of every point to its k-th nearest
// neighbour, the point itself not counted.
func coreDistances(dist [][]float64, k int) []float64 {
	core := make([]float64, len(dist))
	row := make([]float64, len(dist))
	for i := range dist {
		copy(row, dist[i])
		sort.Float64s(row)
		core[i] = row[k]
	}
	return core
}

// primMST builds the minimum spanning tree of the mutual reachability graph.
// The returned edges are sorted by weight; ties keep discovery order.
func primMST(dist [][]float64, core []float64) []mstEdge {
	n := len(dist)
	inTree := make([]bool, n)
	best := make([]float64, n)
	from := make([]int, n)
	for i := range best {
		best[i] = math.Inf(1)
	}
	edges := make([]mstEdge, 0, n-1)
	current := 0
	inTree[current] = true
	for len(edges) < n-1 {
		next := -1
		for j := 0; j < n; j++ {
			if inTree[j] {
				continue
			}
			mr := max(core[current], core[j], dist[current][j])
			if mr < best[j] {
				best[j] = mr
				from[j] = current
			}
			if next == -1 || best[j] < best[next] {
				next = j
			}
		}
		edges = append(edges, mstEdge{a: from[next], b: next, weight: best[next]})
		inTree[next] = true
		current = next
	}
	sort.SliceStable(edges, func(i, j int) bool { return edges[i].weight < edges[j].weight })
	return edges
}

func singleLinkage(edges []mstEdge, n int) []linkage {
	parent := make([]int, 2*n-1)
	size := make([]int, 2*n-1)
	for i := range parent {
		parent[i] = i
		if i < n {
			size[i] = 1
		}
	}
	var find func(int) int
	find = func(x int) int {
		for parent[x] != x {
			parent[x] = parent[parent[x]]
			x = parent[x]
		}
		return x
	}
	out := make([]linkage, 0, len(edges))
	next := n
	for _, e := range edges {
		a, b := find(e.a), find(e.b)
		out = append(out, linkage{left: a, right: b, distance: e.weight, size: size[a] + size[b]})
		parent[a], parent[b] = next, next
		size[next] = size[a] + size[b]
		next++
	}
	return out
}

func bfsHierarchy(h []linkage, n, root int) []int {
	queue := []int{root}
	var out []int
	for len(queue) > 0 {
		x := queue[0]
		queue = queue[1:]
		out = append(out, x)
		if x >= n {
			queue = append(queue, h[x-n].left, h[x-n].right)
		}
	}
	return out
}

// condense walks the single linkage tree from the root and keeps only splits
// where both sides hold at least minClusterSize points. Smaller sides fall
// out of their parent cluster as individual points.
func condense(h []linkage, n, minClusterSize int) []condensedEdge {
	root := 2*n - 2
	relabel := make([]int, 2*n-1)
	relabel[root] = n
	next := n + 1
	ignore := make([]bool, 2*n-1)
	sizeOf := func(x int) int {
		if x < n {
			return 1
		}
		return h[x-n].size
	}

	var out []condensedEdge
	fallOut := func(parent, node int, lambda float64) {
		for _, sub := range bfsHierarchy(h, n, node) {
			if sub < n {
				out = append(out, condensedEdge{parent: parent, child: sub, lambda: lambda, size: 1})
			}
			ignore[sub] = true
		}
	}

	for _, node := range bfsHierarchy(h, n, root) {
		if ignore[node] || node < n {
			continue
		}
		link := h[node-n]
		lambda := 1 / max(link.distance, minDistance)
		left, right := link.left, link.right
		lc, rc := sizeOf(left), sizeOf(right)
		p := relabel[node]

		switch {
		case lc >= minClusterSize && rc >= minClusterSize:
			relabel[left] = next
			out = append(out, condensedEdge{parent: p, child: next, lambda: lambda, size: lc})
			next++
			relabel[right] = next
			out = append(out, condensedEdge{parent: p, child: next, lambda: lambda, size: rc})
			next++
		case lc < minClusterSize && rc < minClusterSize:
			fallOut(p, left, lambda)
			fallOut(p, right, lambda)
		case lc < minClusterSize:
			relabel[right] = p
			fallOut(p, left, lambda)
		default:
			relabel[left] = p
			fallOut(p, right, lambda)
		}
	}
	return out
}

// selectEOM returns the selected cluster ids in ascending order.
func selectEOM(tree []condensedEdge, n int) []int {
	birth := map[int]float64{n: 0}
	stability := make(map[int]float64)
	children := make(map[int][]int)
	for _, e := range tree {
		if e.size > 1 {
			birth[e.child] = e.lambda
			children[e.parent] = append(children[e.parent], e.child)
		}
	}
	for _, e := range tree {
		stability[e.parent] += (e.lambda - birth[e.parent]) * float64(e.size)
	}

	nodes := make([]int, 0, len(stability))
	for c := range stability {
		if c != n {
			nodes = append(nodes, c)
		}
	}
	// leaf clusters carry larger ids than their ancestors
	sort.Sort(sort.Reverse(sort.IntSlice(nodes)))

	isCluster := make(map[int]bool, len(nodes))
	for _, c := range nodes {
		isCluster[c] = true
	}
	for _, c := range nodes {
		var sub float64
		for _, ch := range children[c] {
			sub += stability[ch]
		}
		if sub > stability[c] {
			isCluster[c] = false
			stability[c] = sub
			continue
		}
		queue := slices.Clone(children[c])
		for len(queue) > 0 {
			x := queue[0]
			queue = queue[1:]
			isCluster[x] = false
			queue = append(queue, children[x]...)
		}
	}

	var selected []int
	for c, ok := range isCluster {
		if ok {
			selected = append(selected, c)
		}
	}
	sort.Ints(selected)
	return selected
}
