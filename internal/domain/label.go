package domain

import "strconv"

// Label identifies the cluster a point was assigned to. The zero value is
// Cluster(0); noise is an explicit variant.
type Label struct {
	id    int
	noise bool
}

// Noise is the label of points that belong to no cluster.
func Noise() Label { return Label{noise: true} }

// ClusterLabel returns the label for cluster id.
func ClusterLabel(id int) Label { return Label{id: id} }

// IsNoise reports whether l is the noise label.
func (l Label) IsNoise() bool { return l.noise }

// ClusterID returns the cluster id and false for noise.
func (l Label) ClusterID() (int, bool) {
	if l.noise {
		return 0, false
	}
	return l.id, true
}

func (l Label) String() string {
	if l.noise {
		return "noise"
	}
	return "cluster-" + strconv.Itoa(l.id)
}

// Group is the set of point indices that share a label, in ascending order.
type Group struct {
	Label   Label
	Indices []int
}

// Assignment is the clustering outcome. Groups appear in order of the first
// point carrying each label.
type Assignment struct {
	Groups []Group
}

// NewAssignment groups per-point labels.
func NewAssignment(labels []Label) Assignment {
	pos := make(map[Label]int)
	var a Assignment
	for i, l := range labels {
		g, ok := pos[l]
		if !ok {
			g = len(a.Groups)
			pos[l] = g
			a.Groups = append(a.Groups, Group{Label: l})
		}
		a.Groups[g].Indices = append(a.Groups[g].Indices, i)
	}
	return a
}

// Clusters returns the non-noise groups.
func (a Assignment) Clusters() []Group {
	out := make([]Group, 0, len(a.Groups))
	for _, g := range a.Groups {
		if !g.Label.IsNoise() {
			out = append(out, g)
		}
	}
	return out
}

// NoiseCount returns the number of points labeled as noise.
func (a Assignment) NoiseCount() int {
	for _, g := range a.Groups {
		if g.Label.IsNoise() {
			return len(g.Indices)
		}
	}
	return 0
}

// Labels expands the assignment back into per-point labels for n points.
// Points not present in any group are reported as noise.
func (a Assignment) Labels(n int) []Label {
	out := make([]Label, n)
	for i := range out {
		out[i] = Noise()
	}
	for _, g := range a.Groups {
		for _, idx := range g.Indices {
			if idx >= 0 && idx < n {
				out[idx] = g.Label
			}
		}
	}
	return out
}
