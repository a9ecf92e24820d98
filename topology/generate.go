// Package topology builds and analyses sensor network topologies. It only creates nodes and
// links; routing state is left to the core package.
package topology

import (
	"math/rand/v2"

	"github.com/encodeous/sensornet/state"
)

// NewRand returns a deterministic random source for seed.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

func uniform(rng *rand.Rand, lo, hi float64) float64 {
	return lo + rng.Float64()*(hi-lo)
}

// Generate places cfg.Nodes nodes uniformly in the area with random transmission ranges, and
// links every pair where either node can reach the other with a delay drawn from U(0, 1).
// If cfg.Graph is set, its links are used instead. If cfg.Repair is set, disconnected
// components are joined afterwards.
//
// cfg must have passed state.TopologyValidator.
func Generate(rng *rand.Rand, cfg state.TopologyCfg) *state.Network {
	net := state.NewNetwork()
	for i := 0; i < cfg.Nodes; i++ {
		pos := state.Position{
			X: uniform(rng, 0, cfg.AreaSize),
			Y: uniform(rng, 0, cfg.AreaSize),
		}
		net.AddNode(pos, uniform(rng, cfg.MinRange, cfg.MaxRange))
	}
	if len(cfg.Graph) != 0 {
		links, err := state.ParseGraph(cfg.Graph, cfg.Nodes)
		if err != nil {
			panic(err)
		}
		for _, l := range links {
			_ = net.Connect(l.V1, l.V2, rng.Float64())
		}
		if cfg.Repair {
			Repair(rng, net)
		}
		return net
	}
	nodes := net.Nodes()
	for i, a := range nodes {
		for _, b := range nodes[i+1:] {
			if a.CanReach(b) || b.CanReach(a) {
				// ids are valid and distinct, Connect cannot fail
				_ = net.Connect(a.Id, b.Id, rng.Float64())
			}
		}
	}
	if cfg.Repair {
		Repair(rng, net)
	}
	return net
}

// Repair joins the components of the network by linking the closest pair of nodes between the
// first component and the rest, until the network is connected. Both endpoints' ranges are
// widened so that they can reach each other. Returns the links that were added.
func Repair(rng *rand.Rand, net *state.Network) []state.Link {
	added := make([]state.Link, 0)
	for {
		comps := Components(net)
		if len(comps) <= 1 {
			return added
		}
		inFirst := make(map[state.NodeId]bool, len(comps[0]))
		for _, id := range comps[0] {
			inFirst[id] = true
		}

		var best state.Pair[*state.Node, *state.Node]
		bestDist := state.INF
		for _, id := range comps[0] {
			a := net.GetNodeById(id)
			for _, b := range net.Nodes() {
				if inFirst[b.Id] {
					continue
				}
				if d := a.DistanceTo(b); d < bestDist {
					bestDist = d
					best = state.Pair[*state.Node, *state.Node]{V1: a, V2: b}
				}
			}
		}

		a, b := best.V1, best.V2
		a.TransmissionRange = max(a.TransmissionRange, bestDist*state.RangeRepairFactor)
		b.TransmissionRange = max(b.TransmissionRange, bestDist*state.RangeRepairFactor)
		delay := rng.Float64()
		_ = net.Connect(a.Id, b.Id, delay)
		link := state.Link{A: a.Id, B: b.Id, Delay: delay}
		if link.A > link.B {
			link.A, link.B = link.B, link.A
		}
		added = append(added, link)
	}
}

// RandomDelay draws a delay for a link created during a simulation run.
func RandomDelay(rng *rand.Rand) float64 {
	return uniform(rng, state.NewLinkMinDelay, state.NewLinkMaxDelay)
}
