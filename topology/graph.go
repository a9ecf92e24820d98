package topology

import (
	"slices"

	"github.com/encodeous/sensornet/state"
)

// Components returns the connected components of the link graph. Each component is sorted and
// components are ordered by their smallest id.
func Components(net *state.Network) [][]state.NodeId {
	visited := make([]bool, net.Len())
	comps := make([][]state.NodeId, 0)
	for _, start := range net.Ids() {
		if visited[start] {
			continue
		}
		comp := make([]state.NodeId, 0)
		stack := []state.NodeId{start}
		visited[start] = true
		for len(stack) > 0 {
			cur := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			comp = append(comp, cur)
			for _, neigh := range net.GetNodeById(cur).Neighbours() {
				if !visited[neigh] {
					visited[neigh] = true
					stack = append(stack, neigh)
				}
			}
		}
		slices.Sort(comp)
		comps = append(comps, comp)
	}
	return comps
}

func IsConnected(net *state.Network) bool {
	return len(Components(net)) <= 1
}

// ShortestPaths computes the lowest link-delay cost from src to every node. Unreachable nodes
// are INF.
func ShortestPaths(net *state.Network, src state.NodeId) (state.DistanceVector, error) {
	if _, err := net.Node(src); err != nil {
		return nil, err
	}
	dist := make(state.DistanceVector, net.Len())
	for _, id := range net.Ids() {
		dist[id] = state.INF
	}
	dist[src] = 0
	visited := make(map[state.NodeId]bool, net.Len())

	for len(visited) < net.Len() {
		cur := state.None
		best := state.INF
		for _, id := range net.Ids() {
			if !visited[id] && dist[id] < best {
				cur = id
				best = dist[id]
			}
		}
		if cur == state.None {
			break
		}
		visited[cur] = true
		for neigh, delay := range net.GetNodeById(cur).Connections {
			if visited[neigh] {
				continue
			}
			if alt := state.AddMetric(best, delay); alt < dist[neigh] {
				dist[neigh] = alt
			}
		}
	}
	return dist, nil
}

// MutualPairs lists unlinked pairs of nodes that are within each other's transmission range.
func MutualPairs(net *state.Network) []state.Pair[state.NodeId, state.NodeId] {
	pairs := make([]state.Pair[state.NodeId, state.NodeId], 0)
	nodes := net.Nodes()
	for i, a := range nodes {
		for _, b := range nodes[i+1:] {
			if a.IsNeighbour(b.Id) {
				continue
			}
			if a.CanReach(b) && b.CanReach(a) {
				pairs = append(pairs, state.MakeSortedPair(a.Id, b.Id))
			}
		}
	}
	return pairs
}

// UnconnectedPairs lists every pair of distinct nodes without a link.
func UnconnectedPairs(net *state.Network) []state.Pair[state.NodeId, state.NodeId] {
	pairs := make([]state.Pair[state.NodeId, state.NodeId], 0)
	nodes := net.Nodes()
	for i, a := range nodes {
		for _, b := range nodes[i+1:] {
			if !a.IsNeighbour(b.Id) {
				pairs = append(pairs, state.MakeSortedPair(a.Id, b.Id))
			}
		}
	}
	return pairs
}
