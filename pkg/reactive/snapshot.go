package reactive

import (
	"fmt"
	"slices"
	"unicode/utf8"
)

// maxSnapshotValue bounds the formatted value stored in a NodeInfo.
const maxSnapshotValue = 120

// NodeInfo describes one live node of a runtime.
type NodeInfo struct {
	ID      string   `json:"id"`
	Kind    string   `json:"kind"`
	Name    string   `json:"name,omitempty"`
	Scope   uint64   `json:"scope"`
	Version uint64   `json:"version"`
	Value   string   `json:"value,omitempty"`
	Error   string   `json:"error,omitempty"`
	Deps    []string `json:"deps,omitempty"`
	Subs    []string `json:"subs,omitempty"`
}

// Snapshot is a point-in-time copy of a runtime's graph.
// It holds no references into the runtime and is safe to hand to another
// goroutine.
type Snapshot struct {
	Runtime string     `json:"runtime"`
	Pass    uint64     `json:"pass"`
	Stats   Stats      `json:"stats"`
	Nodes   []NodeInfo `json:"nodes"`
}

// Snapshot copies the live graph, ordered by creation.
func (rt *Runtime) Snapshot() Snapshot {
	type entry struct {
		idx uint32
		n   *node
	}
	var live []entry
	for i, s := range rt.arena.slots {
		if s.node != nil {
			live = append(live, entry{idx: uint32(i), n: s.node})
		}
	}
	slices.SortFunc(live, func(a, b entry) int {
		switch {
		case a.n.seq < b.n.seq:
			return -1
		case a.n.seq > b.n.seq:
			return 1
		}
		return 0
	})

	snap := Snapshot{
		Runtime: rt.name,
		Pass:    rt.pass,
		Stats:   rt.Stats(),
		Nodes:   make([]NodeInfo, 0, len(live)),
	}
	for _, e := range live {
		info := NodeInfo{
			ID:      rt.nodeID(e.idx),
			Kind:    e.n.kind.String(),
			Name:    e.n.name,
			Scope:   e.n.scope.id,
			Version: e.n.version,
		}
		if e.n.kind != KindEffect {
			info.Value = formatValue(e.n.value)
		}
		if e.n.err != nil {
			info.Error = e.n.err.Error()
		}
		for _, d := range e.n.deps {
			info.Deps = append(info.Deps, rt.nodeID(d))
		}
		for _, s := range e.n.subs {
			info.Subs = append(info.Subs, rt.nodeID(s))
		}
		snap.Nodes = append(snap.Nodes, info)
	}
	return snap
}

func (rt *Runtime) nodeID(idx uint32) string {
	n := rt.arena.at(idx)
	if n == nil {
		return fmt.Sprintf("#%d", idx)
	}
	return n.ref(rt.arena.handle(idx)).String()
}

func formatValue(v any) string {
	s := fmt.Sprintf("%v", v)
	if len(s) > maxSnapshotValue {
		cut := maxSnapshotValue
		for cut > 0 && !utf8.RuneStart(s[cut]) {
			cut--
		}
		return s[:cut] + "..."
	}
	return s
}
