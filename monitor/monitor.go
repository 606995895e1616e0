// Package monitor implements the hierarchical "own metrics + named
// children" export model used to surface pipeline and shuffler telemetry
// (spec §4.K).
package monitor

// Metric is a monitoring leaf value, closed to the scalar kinds the §6 JSON
// export contract promises. The unexported method keeps the set closed to
// Float64Metric, Int64Metric, StringMetric, and BoolMetric — there is no
// way to satisfy Metric from outside this package.
type Metric interface {
	metric()
}

type Float64Metric float64
type Int64Metric int64
type StringMetric string
type BoolMetric bool

func (Float64Metric) metric() {}
func (Int64Metric) metric()   {}
func (StringMetric) metric()  {}
func (BoolMetric) metric()    {}

// Monitorable is anything that can report its own metrics and named child
// monitorables.
type Monitorable interface {
	OwnMetrics() map[string]Metric
	Children() map[string]Monitorable
}

// Node is the rendered export shape: own metrics merged with a nested
// "children" key, matching the §6 JSON export contract.
type Node map[string]any

// Render walks m depth-first, producing a Node with m's own metrics plus a
// "children" sub-map, omitted entirely when m has no children.
func Render(m Monitorable) Node {
	out := Node{}
	for k, v := range m.OwnMetrics() {
		out[k] = v
	}
	children := m.Children()
	if len(children) == 0 {
		return out
	}
	rendered := make(map[string]Node, len(children))
	for name, child := range children {
		rendered[name] = Render(child)
	}
	out["children"] = rendered
	return out
}

// Merger concatenates the own metrics of several Monitorables (last one
// wins on key collision, in argument order) and the union of their
// children maps (same last-wins rule on name collision).
type Merger struct {
	sources []Monitorable
}

func NewMerger(sources ...Monitorable) *Merger {
	return &Merger{sources: sources}
}

func (m *Merger) OwnMetrics() map[string]Metric {
	out := map[string]Metric{}
	for _, s := range m.sources {
		for k, v := range s.OwnMetrics() {
			out[k] = v
		}
	}
	return out
}

func (m *Merger) Children() map[string]Monitorable {
	out := map[string]Monitorable{}
	for _, s := range m.sources {
		for k, v := range s.Children() {
			out[k] = v
		}
	}
	return out
}

// Wrapper exposes a prebuilt children map with no own metrics of its own,
// useful for grouping a set of named Monitorables under one node.
type Wrapper struct {
	children map[string]Monitorable
}

func NewWrapper(children map[string]Monitorable) *Wrapper {
	return &Wrapper{children: children}
}

func (w *Wrapper) OwnMetrics() map[string]Metric   { return map[string]Metric{} }
func (w *Wrapper) Children() map[string]Monitorable { return w.children }

// Leaf is a Monitorable with fixed own metrics and no children; the common
// case for a single counter/gauge source.
type Leaf struct {
	Metrics map[string]Metric
}

func (l Leaf) OwnMetrics() map[string]Metric    { return l.Metrics }
func (l Leaf) Children() map[string]Monitorable { return nil }
