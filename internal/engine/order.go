package engine

import "sort"

// Order is the deterministic per-tick evaluation order computed from a
// Workspace's plugin and connection lists (spec §3, component C4).
type Order struct {
	Sequence  []PluginID
	BrokenAt  []PluginID // plugins whose incoming back-edges were cut to resolve a cycle, in cut order
}

type orderNode struct {
	id       PluginID
	priority int
}

// ComputeOrder performs a priority-stable topological sort: higher
// Priority values run earlier; among plugins with no remaining
// dependency, the highest-priority (then lowest id) one is scheduled
// next. A cycle is broken by repeatedly forcing through the stalled
// node that would otherwise run earliest (highest Priority value,
// lowest id on ties), treating whichever remaining incoming edge is
// blocking it as a back-edge to cut, so the graph always yields a
// total order even when the UI has produced an illegal cycle
// transiently during an edit.
func ComputeOrder(plugins []PluginDefinition, conns []Connection) Order {
	nodes := make(map[PluginID]orderNode, len(plugins))
	for _, p := range plugins {
		nodes[p.ID] = orderNode{id: p.ID, priority: p.Priority}
	}

	// adjacency and in-degree, deduplicated at plugin granularity.
	adj := make(map[PluginID]map[PluginID]struct{})
	indeg := make(map[PluginID]int, len(nodes))
	for id := range nodes {
		indeg[id] = 0
	}
	for _, c := range conns {
		if _, ok := nodes[c.FromPlugin]; !ok {
			continue
		}
		if _, ok := nodes[c.ToPlugin]; !ok {
			continue
		}
		if c.FromPlugin == c.ToPlugin {
			continue
		}
		edges := adj[c.FromPlugin]
		if edges == nil {
			edges = make(map[PluginID]struct{})
			adj[c.FromPlugin] = edges
		}
		if _, dup := edges[c.ToPlugin]; dup {
			continue
		}
		edges[c.ToPlugin] = struct{}{}
		indeg[c.ToPlugin]++
	}

	less := func(a, b PluginID) bool {
		na, nb := nodes[a], nodes[b]
		if na.priority != nb.priority {
			return na.priority > nb.priority
		}
		return a < b
	}

	var ready []PluginID
	for id, d := range indeg {
		if d == 0 {
			ready = append(ready, id)
		}
	}
	sort.Slice(ready, func(i, j int) bool { return less(ready[i], ready[j]) })

	var out Order
	remaining := len(nodes)
	for remaining > 0 {
		if len(ready) == 0 {
			// Stalled: a cycle remains among the unscheduled nodes.
			// Force through the stalled node that would run earliest
			// under the same ordering used above (highest priority
			// value, lowest id on ties), cutting whichever remaining
			// incoming edge is blocking it.
			var pick PluginID
			found := false
			for id, d := range indeg {
				if d <= 0 {
					continue
				}
				if !found || less(id, pick) {
					pick = id
					found = true
				}
			}
			if !found {
				break
			}
			indeg[pick] = 0
			out.BrokenAt = append(out.BrokenAt, pick)
			ready = append(ready, pick)
			sort.Slice(ready, func(i, j int) bool { return less(ready[i], ready[j]) })
		}

		n := ready[0]
		ready = ready[1:]
		if indeg[n] != 0 {
			// already scheduled via a cycle break; in-degree was zeroed
			// but duplicate ready entries are not produced, so this is
			// unreachable in practice.
			continue
		}
		out.Sequence = append(out.Sequence, n)
		remaining--
		indeg[n] = -1 // mark scheduled

		next := make([]PluginID, 0)
		for to := range adj[n] {
			if indeg[to] <= 0 {
				continue
			}
			indeg[to]--
			if indeg[to] == 0 {
				next = append(next, to)
			}
		}
		if len(next) > 0 {
			ready = append(ready, next...)
			sort.Slice(ready, func(i, j int) bool { return less(ready[i], ready[j]) })
		}
	}
	return out
}
