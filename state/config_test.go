package state

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseGraph_SimpleGraph(t *testing.T) {
	input := `0, 1
2, 3
0,2,4`
	pairs, err := ParseGraph(strings.Split(input, "\n"), 5)
	assert.NoError(t, err)
	assert.ElementsMatch(t, pairs, []Pair[NodeId, NodeId]{
		{0, 1},
		{2, 3},
		{0, 2},
		{2, 4},
		{0, 4},
	})
}

func TestParseGraph_Groups(t *testing.T) {
	input := `a = 0,1
b=2,,,3
c=4,5
d=a,b
d,d
6,d`
	pairs, err := ParseGraph(strings.Split(input, "\n"), 7)
	assert.NoError(t, err)
	assert.ElementsMatch(t, pairs, []Pair[NodeId, NodeId]{
		// d,d
		{0, 1},
		{0, 2},
		{0, 3},
		{1, 2},
		{1, 3},
		{2, 3},
		// 6,d
		{0, 6},
		{1, 6},
		{2, 6},
		{3, 6},
	})
}

func TestParseGraph_Comments(t *testing.T) {
	input := `# sinks = 0
sinks = 0, 1

# field
2, sinks`
	pairs, err := ParseGraph(strings.Split(input, "\n"), 3)
	assert.NoError(t, err)
	assert.Equal(t, []Pair[NodeId, NodeId]{{0, 2}, {1, 2}}, pairs)
}

func TestParseGraph_Cycle(t *testing.T) {
	input := `a = b
b = c
c = a`
	_, err := ParseGraph(strings.Split(input, "\n"), 0)
	assert.ErrorContains(t, err, "cycle detected in graph: [a b c]")
}

func TestParseGraph_DupGroupName(t *testing.T) {
	input := `a = b
a = b
b = b`
	_, err := ParseGraph(strings.Split(input, "\n"), 0)
	assert.ErrorContains(t, err, "duplicate group name: a")
}

func TestParseGraph_SymbolError(t *testing.T) {
	input := `a = 0
b = 1`
	_, err := ParseGraph(strings.Split(input, "\n"), 1)
	assert.ErrorContains(t, err, "1 is not a valid node/group")
}

func TestParseGraph_EmptyGroup(t *testing.T) {
	_, err := ParseGraph([]string{"a ="}, 1)
	assert.ErrorContains(t, err, "node/group list must not be empty")
}

func TestParseGraph_GroupNameIsNodeId(t *testing.T) {
	_, err := ParseGraph([]string{"1 = 1"}, 2)
	assert.ErrorContains(t, err, "group name must not be a node id: 1")
}

func TestParseGraph_InvalidGroupDefinition(t *testing.T) {
	_, err := ParseGraph([]string{"a = 1 = b"}, 2)
	assert.ErrorContains(t, err, ". group definition must contain one '='")
}

func TestParseGraph_Single(t *testing.T) {
	_, err := ParseGraph([]string{"1"}, 5)
	assert.ErrorContains(t, err, "invalid pairing, [1]")
}

func TestParseGraph_GroupsDeep(t *testing.T) {
	input := `a = 0,1
b = a,a,a,a,a,a,a,a,a,a,a,a,a,a,a,a,a,a,a,a,a,a,a,a,a,a,a,a,a
c = b,b,b,b,b,b,b,b,b,b,b,b,b,b,b,b,b,b,b,b,b,b,b,b,b,b,b,b,b
d = c,c,c,c,c,c,c,c,c,c,c,c,c,c,c,c,c,c,c,c,c,c,c,c,c,c,c,c,c
e = d,d,d,d,d,d,d,d,d,d,d,d,d,d,d,d,d,d,d,d,d,d,d,d,d,d,d,d,d
e,e,2`
	pairs, err := ParseGraph(strings.Split(input, "\n"), 7)
	assert.NoError(t, err)
	assert.ElementsMatch(t, pairs, []Pair[NodeId, NodeId]{
		{0, 1},
		{0, 2},
		{1, 2},
	})
}

func failGraph(t *testing.T, graph string) {
	_, err := ParseGraph(strings.Split(graph, "\n"), 10)
	assert.Error(t, err)
}

func TestParseGraph_Invalid(t *testing.T) {
	failGraph(t, "a = 0\n0")
	failGraph(t, "0, 10")
	failGraph(t, "-1, 2")
	failGraph(t, "= 1, 2")
	failGraph(t, "a = a")
}

func TestTopologyValidator_Graph(t *testing.T) {
	cfg := DefaultScenario().Topology
	cfg.Nodes = 3
	cfg.Graph = []string{"0, 1, 2"}
	assert.NoError(t, TopologyValidator(&cfg))

	cfg.Graph = []string{"0, 3"}
	assert.ErrorContains(t, TopologyValidator(&cfg), "topology.graph: 3 is not a valid node/group")
}
