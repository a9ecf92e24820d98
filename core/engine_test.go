package core

import (
	"math"
	"testing"

	"github.com/encodeous/sensornet/state"
	"github.com/encodeous/sensornet/topology"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func routingTables(net *state.Network) map[state.NodeId]map[state.NodeId]state.Route {
	out := make(map[state.NodeId]map[state.NodeId]state.Route)
	for _, node := range net.Nodes() {
		out[node.Id] = node.RoutingTable
	}
	return out
}

func assertSelfRoutes(t *testing.T, net *state.Network) {
	for _, node := range net.Nodes() {
		assert.Equal(t, state.Route{Nh: node.Id, Metric: 0}, node.RoutingTable[node.Id])
	}
	assert.NoError(t, net.Validate())
}

func TestFullProtocolLine(t *testing.T) {
	h := &RouterHarness{}
	net := MakeLine(t)
	it, err := NewTestEngine(h).RunFullProtocol(net)
	require.NoError(t, err)
	assert.Equal(t, 2, it)

	r02 := net.GetNodeById(0).RoutingTable[2]
	assert.Equal(t, state.NodeId(1), r02.Nh)
	assert.InDelta(t, 0.3, r02.Metric, 1e-9)
	r20 := net.GetNodeById(2).RoutingTable[0]
	assert.Equal(t, state.NodeId(1), r20.Nh)
	assert.InDelta(t, 0.3, r20.Metric, 1e-9)

	assertSelfRoutes(t, net)
	assert.True(t, net.IsConverged())

	// each node initialised once and broadcast in the first round, the ends broadcast again
	c := net.Counters()
	assert.Equal(t, uint64(3), c.Topology)
	assert.Equal(t, uint64(5), c.RouteDiscovery)
	h.GetActions().AssertNotContains(t, IterationCapReached)
}

func TestFullProtocolMatchesShortestPaths(t *testing.T) {
	for seed := uint64(1); seed <= 5; seed++ {
		cfg := state.DefaultScenario().Topology
		cfg.Repair = seed%2 == 0
		net := topology.Generate(topology.NewRand(seed), cfg)

		e := NewTestEngine(&RouterHarness{})
		e.MaxIterations = 2 * net.Len()
		_, err := e.RunFullProtocol(net)
		require.NoError(t, err)
		assertSelfRoutes(t, net)

		for _, node := range net.Nodes() {
			dist, err := topology.ShortestPaths(net, node.Id)
			require.NoError(t, err)
			for dst, want := range dist {
				got := node.RoutingTable[dst].Metric
				if math.IsInf(want, 1) {
					assert.True(t, math.IsInf(got, 1), "seed %d: %d -> %d should be unreachable", seed, node.Id, dst)
				} else {
					assert.InDelta(t, want, got, 1e-9, "seed %d: %d -> %d", seed, node.Id, dst)
				}
			}
		}
	}
}

func TestFullProtocolIdempotent(t *testing.T) {
	net := topology.Generate(topology.NewRand(11), state.DefaultScenario().Topology)
	e := NewTestEngine(&RouterHarness{})
	e.MaxIterations = 2 * net.Len()
	_, err := e.RunFullProtocol(net)
	require.NoError(t, err)
	first := routingTables(net)
	before := net.Counters()

	it, err := e.RunFullProtocol(net)
	require.NoError(t, err)
	assert.LessOrEqual(t, it, 1)
	if diff := cmp.Diff(first, routingTables(net)); diff != "" {
		t.Fatalf("routing tables changed (-first +second):\n%s", diff)
	}
	assert.Equal(t, before, net.Counters())
}

func TestFullProtocolParallelMatchesSequential(t *testing.T) {
	defer goleak.VerifyNone(t)
	cfg := state.DefaultScenario().Topology
	cfg.Nodes = 40

	seq := topology.Generate(topology.NewRand(5), cfg)
	par := topology.Generate(topology.NewRand(5), cfg)

	es := NewTestEngine(&RouterHarness{})
	ep := NewTestEngine(&RouterHarness{})
	ep.Workers = 8

	its, err := es.RunFullProtocol(seq)
	require.NoError(t, err)
	itp, err := ep.RunFullProtocol(par)
	require.NoError(t, err)

	assert.Equal(t, its, itp)
	if diff := cmp.Diff(routingTables(seq), routingTables(par)); diff != "" {
		t.Fatalf("parallel run differs (-seq +par):\n%s", diff)
	}
	assert.Equal(t, seq.Counters(), par.Counters())
}

func TestFullProtocolIterationCap(t *testing.T) {
	h := &RouterHarness{}
	links := make([]state.Link, 0)
	for i := 0; i < 9; i++ {
		links = append(links, state.Link{A: state.NodeId(i), B: state.NodeId(i + 1), Delay: 1})
	}
	net := MakeNetwork(t, 10, links...)
	e := NewTestEngine(h)
	e.MaxIterations = 2

	it, err := e.RunFullProtocol(net)
	require.NoError(t, err)
	assert.Equal(t, 2, it)
	assert.False(t, net.IsConverged())
	assert.True(t, math.IsInf(net.GetNodeById(0).RoutingTable[9].Metric, 1))
	h.GetActions().AssertContains(t, IterationCapReached, "iterations", 2)
	assertSelfRoutes(t, net)
}

func TestFullProtocolEmptyNetwork(t *testing.T) {
	it, err := NewTestEngine(&RouterHarness{}).RunFullProtocol(state.NewNetwork())
	require.NoError(t, err)
	assert.Equal(t, 1, it)
}

func TestFullProtocolPartitioned(t *testing.T) {
	net := MakeNetwork(t, 4,
		state.Link{A: 0, B: 1, Delay: 0.5},
		state.Link{A: 2, B: 3, Delay: 0.5},
	)
	_, err := NewTestEngine(&RouterHarness{}).RunFullProtocol(net)
	require.NoError(t, err)
	assert.Equal(t, state.Route{Nh: state.None, Metric: state.INF}, net.GetNodeById(0).RoutingTable[3])
	assert.Equal(t, state.Route{Nh: 3, Metric: 0.5}, net.GetNodeById(2).RoutingTable[3])
	assertSelfRoutes(t, net)
}

func TestIncrementalUpdateFallsBackToFull(t *testing.T) {
	net := MakeLine(t)
	it, err := NewTestEngine(&RouterHarness{}).RunIncrementalUpdate(net, []state.NodeId{0})
	require.NoError(t, err)
	assert.Equal(t, 2, it)
	assert.InDelta(t, 0.3, net.GetNodeById(0).RoutingTable[2].Metric, 1e-9)
}

func TestIncrementalUpdateUnknownSeed(t *testing.T) {
	net := MakeLine(t)
	_, err := NewTestEngine(&RouterHarness{}).RunIncrementalUpdate(net, []state.NodeId{0, 5})
	assert.ErrorIs(t, err, state.ErrNodeNotFound)
}

func TestIncrementalUpdateSeedsOnly(t *testing.T) {
	net := MakeLine(t)
	e := NewTestEngine(&RouterHarness{})
	_, err := e.RunFullProtocol(net)
	require.NoError(t, err)
	before := net.Counters()

	// nothing changed, the seed broadcasts once and nobody improves
	it, err := e.RunIncrementalUpdate(net, []state.NodeId{1})
	require.NoError(t, err)
	assert.Equal(t, 1, it)
	after := net.Counters()
	assert.Equal(t, before.RouteDiscovery+1, after.RouteDiscovery)
	assert.Equal(t, before.Topology, after.Topology)
	assert.False(t, net.IsConverged())
}
