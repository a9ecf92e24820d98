package core

import (
	"fmt"
	"maps"
	"math"
	"slices"

	"github.com/encodeous/sensornet/state"
)

// InitializeDistanceVector seeds the node's vector and routing table from its direct links.
// Every id in ids starts out unreachable.
func InitializeDistanceVector(node *state.Node, ids []state.NodeId) {
	node.DistanceVector = make(state.DistanceVector, len(ids))
	node.RoutingTable = make(map[state.NodeId]state.Route, len(ids))
	for _, id := range ids {
		node.DistanceVector[id] = state.INF
		node.RoutingTable[id] = state.Route{Nh: state.None, Metric: state.INF}
	}
	node.DistanceVector[node.Id] = 0
	node.RoutingTable[node.Id] = state.Route{Nh: node.Id, Metric: 0}
	for neigh, delay := range node.Connections {
		node.DistanceVector[neigh] = delay
		node.RoutingTable[neigh] = state.Route{Nh: neigh, Metric: delay}
	}
	if node.NeighbourVectors == nil {
		node.NeighbourVectors = make(map[state.NodeId]state.DistanceVector)
	}
	if node.LastSent == nil {
		node.LastSent = make(map[state.NodeId]state.DistanceVector)
	}
	clear(node.NeighbourVectors)
	clear(node.LastSent)
	node.Drain()

	node.NeedsUpdate = true
	node.Counters.Topology++
}

// hasMeaningfulUpdate reports whether the vector differs from the one last sent to neigh
func hasMeaningfulUpdate(node *state.Node, neigh state.NodeId) bool {
	last, ok := node.LastSent[neigh]
	if !ok {
		return true
	}
	for dst, cost := range node.DistanceVector {
		if dst == neigh {
			continue
		}
		prev := last.Get(dst)
		if math.IsInf(cost, 1) != math.IsInf(prev, 1) {
			return true
		}
		if !math.IsInf(cost, 1) && math.Abs(cost-prev) > state.UnchangedEpsilon {
			return true
		}
	}
	return false
}

// SendVector broadcasts the node's distance vector to its neighbours if it changed since the
// last broadcast. A broadcast counts as one route discovery message no matter how many
// neighbours receive it.
func SendVector(net *state.Network, node *state.Node, suppressUnchanged bool, r Router) (bool, error) {
	if !node.NeedsUpdate {
		return false, nil
	}
	node.NeedsUpdate = false

	// receivers only read the snapshot
	snapshot := node.DistanceVector.Clone()
	delivered := 0
	for _, neigh := range node.Neighbours() {
		target, err := net.Node(neigh)
		if err != nil {
			return false, fmt.Errorf("node %d sending vector: %w", node.Id, err)
		}
		if suppressUnchanged && !hasMeaningfulUpdate(node, neigh) {
			continue
		}
		target.Enqueue(state.Update{From: node.Id, Vector: snapshot})
		node.LastSent[neigh] = snapshot
		delivered++
	}
	if delivered == 0 {
		return false, nil
	}
	node.Counters.RouteDiscovery++
	r.Log(VectorSent, "sent distance vector", "node", node.Id, "receivers", delivered)
	return true, nil
}

// ProcessPendingUpdates folds every queued neighbour vector into the node's distance vector,
// accepting only strict improvements. Updates are applied in ascending sender order.
func ProcessPendingUpdates(node *state.Node, r Router) bool {
	updates := node.Drain()
	slices.SortStableFunc(updates, func(a, b state.Update) int {
		return int(a.From) - int(b.From)
	})

	changed := false
	for _, u := range updates {
		delay, ok := node.Connections[u.From]
		if !ok {
			r.Log(StaleUpdateDropped, "dropped vector from a node that is no longer a neighbour", "node", node.Id, "from", u.From)
			continue
		}
		node.NeighbourVectors[u.From] = u.Vector
		for dst, adv := range u.Vector {
			if dst == node.Id {
				continue
			}
			candidate := state.AddMetric(delay, adv)
			if candidate < node.DistanceVector.Get(dst) {
				node.DistanceVector[dst] = candidate
				node.RoutingTable[dst] = state.Route{Nh: u.From, Metric: candidate}
				changed = true
				r.Log(RouteImproved, "route improved", "node", node.Id, "dst", dst, "nh", u.From, "metric", candidate)
			}
		}
	}
	if changed {
		node.NeedsUpdate = true
	}
	return changed
}

// nextHopFor finds the neighbour that explains cost as the node's metric towards dst.
func nextHopFor(node *state.Node, dst state.NodeId, cost float64) (state.NodeId, bool) {
	if dst == node.Id {
		return node.Id, true
	}
	if math.IsInf(cost, 1) {
		return state.None, true
	}
	if delay, ok := node.Connections[dst]; ok && delay == cost {
		return dst, true
	}
	for _, neigh := range node.Neighbours() {
		vec, ok := node.NeighbourVectors[neigh]
		if !ok {
			continue
		}
		if state.AddMetric(node.Connections[neigh], vec.Get(dst)) == cost {
			return neigh, true
		}
	}
	return state.None, false
}

// ReconcileRoutingTable rewrites every routing entry whose metric disagrees with the
// distance vector.
func ReconcileRoutingTable(node *state.Node, r Router) bool {
	changed := false
	for _, dst := range slices.Sorted(maps.Keys(node.DistanceVector)) {
		cost := node.DistanceVector[dst]
		if cur, ok := node.RoutingTable[dst]; ok && cur.Metric == cost {
			continue
		}
		nh, ok := nextHopFor(node, dst, cost)
		if !ok {
			r.Log(InconsistentState, "no neighbour explains the current metric", "node", node.Id, "dst", dst, "metric", cost)
			continue
		}
		node.RoutingTable[dst] = state.Route{Nh: nh, Metric: cost}
		changed = true
		r.Log(RouteReconciled, "route reconciled", "node", node.Id, "dst", dst, "nh", nh, "metric", cost)
	}
	if changed {
		node.NeedsUpdate = true
	}
	return changed
}
