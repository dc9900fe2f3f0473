package vptree

import (
	"container/heap"
	"math"
	"sort"

	"github.com/viant/vec/search"
)

// point is one indexed vector.
type point struct {
	id        string
	vector    search.Float32s
	magnitude float32
}

func newPoint(id string, v []float32) point {
	fv := search.Float32s(v)
	return point{id: id, vector: fv, magnitude: fv.Magnitude()}
}

// node is a vantage point with the median distance splitting its subtrees.
type node struct {
	p       point
	radius  float64
	inside  *node
	outside *node
}

// tree is an immutable vantage-point tree over angular distance.
// Angular distance satisfies the triangle inequality, so pruning is exact.
type tree struct {
	root       *node
	size       int
	dimensions int
}

// distance returns the angular distance in [0, 1] between two points.
func distance(a, b point) float64 {
	if a.magnitude == 0 || b.magnitude == 0 {
		return 1
	}
	sim := 1 - float64(a.vector.CosineDistance(b.vector))
	return math.Acos(clamp(sim)) / math.Pi
}

// similarity converts an angular distance back to cosine similarity.
func similarity(d float64) float64 {
	return math.Cos(d * math.Pi)
}

func clamp(x float64) float64 {
	switch {
	case x > 1:
		return 1
	case x < -1:
		return -1
	case math.IsNaN(x):
		return 0
	}
	return x
}

func buildTree(points []point) *tree {
	t := &tree{size: len(points)}
	if len(points) > 0 {
		t.dimensions = len(points[0].vector)
	}
	t.root = build(points)
	return t
}

func build(points []point) *node {
	if len(points) == 0 {
		return nil
	}
	// The last point is the vantage point; the rest are split at the median.
	vp := points[len(points)-1]
	rest := points[:len(points)-1]
	n := &node{p: vp}
	if len(rest) == 0 {
		return n
	}

	dists := make([]float64, len(rest))
	for i := range rest {
		dists[i] = distance(vp, rest[i])
	}
	sort.Sort(byDistance{points: rest, dists: dists})

	mid := len(rest) / 2
	n.radius = dists[mid]
	n.inside = build(rest[:mid])
	n.outside = build(rest[mid:])
	return n
}

type byDistance struct {
	points []point
	dists  []float64
}

func (b byDistance) Len() int           { return len(b.points) }
func (b byDistance) Less(i, j int) bool { return b.dists[i] < b.dists[j] }
func (b byDistance) Swap(i, j int) {
	b.points[i], b.points[j] = b.points[j], b.points[i]
	b.dists[i], b.dists[j] = b.dists[j], b.dists[i]
}

// neighbour is a search candidate.
type neighbour struct {
	id       string
	distance float64
}

// neighbours is a max-heap on distance holding the current best k.
type neighbours []neighbour

func (h neighbours) Len() int           { return len(h) }
func (h neighbours) Less(i, j int) bool { return h[i].distance > h[j].distance }
func (h neighbours) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *neighbours) Push(x any)        { *h = append(*h, x.(neighbour)) }
func (h *neighbours) Pop() any {
	old := *h
	n := old[len(old)-1]
	*h = old[:len(old)-1]
	return n
}

// nearest returns up to k neighbours of q ordered by ascending distance.
func (t *tree) nearest(q point, k int) []neighbour {
	if t.root == nil || k <= 0 {
		return nil
	}
	h := &neighbours{}
	heap.Init(h)
	t.visit(t.root, q, k, h)

	out := make([]neighbour, h.Len())
	for i := len(out) - 1; i >= 0; i-- {
		out[i] = heap.Pop(h).(neighbour)
	}
	return out
}

func (t *tree) visit(n *node, q point, k int, h *neighbours) {
	if n == nil {
		return
	}
	d := distance(q, n.p)
	if h.Len() < k {
		heap.Push(h, neighbour{id: n.p.id, distance: d})
	} else if d < (*h)[0].distance {
		heap.Pop(h)
		heap.Push(h, neighbour{id: n.p.id, distance: d})
	}

	tau := func() float64 {
		if h.Len() < k {
			return math.Inf(1)
		}
		return (*h)[0].distance
	}

	if d < n.radius {
		if d-tau() <= n.radius {
			t.visit(n.inside, q, k, h)
		}
		if d+tau() >= n.radius {
			t.visit(n.outside, q, k, h)
		}
		return
	}
	if d+tau() >= n.radius {
		t.visit(n.outside, q, k, h)
	}
	if d-tau() <= n.radius {
		t.visit(n.inside, q, k, h)
	}
}
