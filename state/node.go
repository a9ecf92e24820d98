package state

import (
	"fmt"
	"maps"
	"math"
	"slices"
	"strings"
	"sync"
)

type NodeId int

func (id NodeId) String() string {
	if id == None {
		return "none"
	}
	return fmt.Sprintf("%d", int(id))
}

type Position struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

func (p Position) DistanceTo(o Position) float64 {
	return math.Hypot(p.X-o.X, p.Y-o.Y)
}

// DistanceVector maps a destination to the lowest known cost of reaching it.
type DistanceVector map[NodeId]float64

func (v DistanceVector) Clone() DistanceVector {
	if v == nil {
		return nil
	}
	return maps.Clone(v)
}

// Get returns INF for destinations missing from the vector.
func (v DistanceVector) Get(dst NodeId) float64 {
	if c, ok := v[dst]; ok {
		return c
	}
	return INF
}

type Route struct {
	Nh     NodeId
	Metric float64
}

func (r Route) Reachable() bool {
	return r.Nh != None && !math.IsInf(r.Metric, 1)
}

// Update is a vector snapshot queued at a neighbour.
type Update struct {
	From   NodeId
	Vector DistanceVector
}

type Counters struct {
	Hello          uint64 `yaml:"hello"`
	Topology       uint64 `yaml:"topology"`
	RouteDiscovery uint64 `yaml:"route_discovery"`
	DataPackets    uint64 `yaml:"data_packets"`
}

func (c Counters) Total() uint64 {
	return c.Hello + c.Topology + c.RouteDiscovery + c.DataPackets
}

func (c *Counters) Add(o Counters) {
	c.Hello += o.Hello
	c.Topology += o.Topology
	c.RouteDiscovery += o.RouteDiscovery
	c.DataPackets += o.DataPackets
}

type Node struct {
	Id                NodeId
	Position          Position
	TransmissionRange float64
	Connections       map[NodeId]float64
	DistanceVector    DistanceVector
	RoutingTable      map[NodeId]Route
	// NeighbourVectors holds the most recent vector received from each neighbour
	NeighbourVectors map[NodeId]DistanceVector
	// LastSent holds the vector last delivered to each neighbour
	LastSent    map[NodeId]DistanceVector
	NeedsUpdate bool
	Counters    Counters

	mu      sync.Mutex
	pending []Update
}

func NewNode(id NodeId, pos Position, txRange float64) *Node {
	return &Node{
		Id:                id,
		Position:          pos,
		TransmissionRange: txRange,
		Connections:       make(map[NodeId]float64),
		DistanceVector:    DistanceVector{id: 0},
		RoutingTable:      map[NodeId]Route{id: {Nh: id, Metric: 0}},
		NeighbourVectors:  make(map[NodeId]DistanceVector),
		LastSent:          make(map[NodeId]DistanceVector),
	}
}

// AddConnection sets the delay towards a neighbour. The caller updates the neighbour.
func (n *Node) AddConnection(neigh NodeId, delay float64) {
	n.Connections[neigh] = delay
	n.NeedsUpdate = true
}

// RemoveConnection drops the link towards neigh, returning false if it was absent.
func (n *Node) RemoveConnection(neigh NodeId) bool {
	if _, ok := n.Connections[neigh]; !ok {
		return false
	}
	delete(n.Connections, neigh)
	delete(n.NeighbourVectors, neigh)
	delete(n.LastSent, neigh)
	n.NeedsUpdate = true
	return true
}

func (n *Node) IsNeighbour(id NodeId) bool {
	_, ok := n.Connections[id]
	return ok
}

// Neighbours returns the ids of all direct neighbours in ascending order.
func (n *Node) Neighbours() []NodeId {
	return slices.Sorted(maps.Keys(n.Connections))
}

func (n *Node) Degree() int {
	return len(n.Connections)
}

// Enqueue appends an update to the node's pending queue. Safe for concurrent use.
func (n *Node) Enqueue(u Update) {
	n.mu.Lock()
	n.pending = append(n.pending, u)
	n.mu.Unlock()
}

// Drain removes and returns every queued update.
func (n *Node) Drain() []Update {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := n.pending
	n.pending = nil
	return out
}

func (n *Node) PendingLen() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.pending)
}

func (n *Node) DistanceTo(o *Node) float64 {
	return n.Position.DistanceTo(o.Position)
}

// CanReach reports whether o lies within this node's transmission range.
func (n *Node) CanReach(o *Node) bool {
	if o == nil || o.Id == n.Id {
		return false
	}
	return n.DistanceTo(o) <= n.TransmissionRange
}

func (n *Node) StringRoutes() string {
	buf := make([]string, 0, len(n.RoutingTable))
	for _, dst := range slices.Sorted(maps.Keys(n.RoutingTable)) {
		r := n.RoutingTable[dst]
		buf = append(buf, fmt.Sprintf("%d -> nh: %s, metric: %.4f", dst, r.Nh, r.Metric))
	}
	return strings.Join(buf, "\n")
}
