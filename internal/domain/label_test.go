package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewAssignmentOrdersGroupsByFirstAppearance(t *testing.T) {
	labels := []Label{ClusterLabel(1), Noise(), ClusterLabel(0), ClusterLabel(1), Noise()}
	a := NewAssignment(labels)

	assert.Len(t, a.Groups, 3)
	assert.Equal(t, ClusterLabel(1), a.Groups[0].Label)
	assert.Equal(t, []int{0, 3}, a.Groups[0].Indices)
	assert.True(t, a.Groups[1].Label.IsNoise())
	assert.Equal(t, []int{1, 4}, a.Groups[1].Indices)
	assert.Equal(t, 2, a.NoiseCount())

	clusters := a.Clusters()
	assert.Len(t, clusters, 2)
	assert.Equal(t, labels, a.Labels(len(labels)))
}

func TestLabelVariants(t *testing.T) {
	id, ok := ClusterLabel(3).ClusterID()
	assert.True(t, ok)
	assert.Equal(t, 3, id)
	assert.Equal(t, "cluster-3", ClusterLabel(3).String())

	_, ok = Noise().ClusterID()
	assert.False(t, ok)
	assert.Equal(t, "noise", Noise().String())
	assert.NotEqual(t, Noise(), ClusterLabel(0))
}

func TestEmptyAssignment(t *testing.T) {
	a := NewAssignment(nil)
	assert.Empty(t, a.Groups)
	assert.Empty(t, a.Clusters())
	assert.Equal(t, 0, a.NoiseCount())
}
