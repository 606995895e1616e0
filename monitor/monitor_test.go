package monitor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderLeafHasNoChildrenKey(t *testing.T) {
	leaf := Leaf{Metrics: map[string]Metric{"count": Int64Metric(5)}}
	node := Render(leaf)

	assert.Equal(t, Int64Metric(5), node["count"])
	_, hasChildren := node["children"]
	assert.False(t, hasChildren)
}

func TestRenderNestsChildrenDepthFirst(t *testing.T) {
	root := NewWrapper(map[string]Monitorable{
		"worker-0": Leaf{Metrics: map[string]Metric{"items": Int64Metric(10)}},
		"worker-1": Leaf{Metrics: map[string]Metric{"items": Int64Metric(20)}},
	})

	node := Render(root)
	children, ok := node["children"].(map[string]Node)
	assert.True(t, ok)
	assert.Equal(t, Int64Metric(10), children["worker-0"]["items"])
	assert.Equal(t, Int64Metric(20), children["worker-1"]["items"])
}

func TestMergerLastSourceWinsOnKeyCollision(t *testing.T) {
	first := Leaf{Metrics: map[string]Metric{"count": Int64Metric(1)}}
	second := Leaf{Metrics: map[string]Metric{"count": Int64Metric(2)}}

	merged := NewMerger(first, second)
	assert.Equal(t, Int64Metric(2), merged.OwnMetrics()["count"])
}

func TestMergerUnionsChildrenAcrossSources(t *testing.T) {
	a := NewWrapper(map[string]Monitorable{"x": Leaf{}})
	b := NewWrapper(map[string]Monitorable{"y": Leaf{}})

	merged := NewMerger(a, b)
	children := merged.Children()
	assert.Contains(t, children, "x")
	assert.Contains(t, children, "y")
}

func TestMetricAcceptsEachScalarKind(t *testing.T) {
	var m Metric = StringMetric("ok")
	assert.Equal(t, StringMetric("ok"), m)

	var b Metric = BoolMetric(true)
	assert.Equal(t, BoolMetric(true), b)

	var f Metric = Float64Metric(1.5)
	assert.Equal(t, Float64Metric(1.5), f)
}
