package state

import (
	"fmt"
	"math"
	"slices"

	"go.uber.org/multierr"
)

// Link is an undirected link, A < B.
type Link struct {
	A     NodeId  `yaml:"a"`
	B     NodeId  `yaml:"b"`
	Delay float64 `yaml:"delay"`
}

// Network owns every node of a simulation. Node ids are the contiguous range [0, Len()).
type Network struct {
	nodes   []*Node
	version uint64

	converged      bool
	convergedLinks []Link
	convergedNodes int
}

func NewNetwork() *Network {
	return &Network{}
}

// AddNode creates a node with the next free id.
func (n *Network) AddNode(pos Position, txRange float64) *Node {
	node := NewNode(NodeId(len(n.nodes)), pos, txRange)
	n.nodes = append(n.nodes, node)
	n.Touch()
	return node
}

func (n *Network) Len() int {
	return len(n.nodes)
}

func (n *Network) Nodes() []*Node {
	return n.nodes
}

func (n *Network) Ids() []NodeId {
	ids := make([]NodeId, len(n.nodes))
	for i, node := range n.nodes {
		ids[i] = node.Id
	}
	return ids
}

// GetNodeById returns nil if the node does not exist.
func (n *Network) GetNodeById(id NodeId) *Node {
	if id < 0 || int(id) >= len(n.nodes) {
		return nil
	}
	return n.nodes[id]
}

func (n *Network) Node(id NodeId) (*Node, error) {
	node := n.GetNodeById(id)
	if node == nil {
		return nil, fmt.Errorf("node %d: %w", id, ErrNodeNotFound)
	}
	return node, nil
}

// GetAllLinks lists every undirected link once, ordered by (A, B).
func (n *Network) GetAllLinks() []Link {
	links := make([]Link, 0)
	for _, node := range n.nodes {
		for _, neigh := range node.Neighbours() {
			if node.Id < neigh {
				links = append(links, Link{A: node.Id, B: neigh, Delay: node.Connections[neigh]})
			}
		}
	}
	return links
}

func (n *Network) HasLink(a, b NodeId) bool {
	node := n.GetNodeById(a)
	return node != nil && node.IsNeighbour(b)
}

// Connect sets the delay of the link a-b on both endpoints.
func (n *Network) Connect(a, b NodeId, delay float64) error {
	na, err := n.Node(a)
	if err != nil {
		return err
	}
	nb, err := n.Node(b)
	if err != nil {
		return err
	}
	if !ValidDelay(delay) {
		return fmt.Errorf("link %d-%d delay %v: %w", a, b, delay, ErrInvalidDelay)
	}
	if a == b {
		return fmt.Errorf("link %d-%d: cannot link a node to itself", a, b)
	}
	na.AddConnection(b, delay)
	nb.AddConnection(a, delay)
	n.Touch()
	return nil
}

// Disconnect removes the link a-b, returning false if there was no such link.
func (n *Network) Disconnect(a, b NodeId) (bool, error) {
	na, err := n.Node(a)
	if err != nil {
		return false, err
	}
	nb, err := n.Node(b)
	if err != nil {
		return false, err
	}
	ra := na.RemoveConnection(b)
	rb := nb.RemoveConnection(a)
	if ra || rb {
		n.Touch()
	}
	return ra || rb, nil
}

// Version changes whenever links or routing state change.
func (n *Network) Version() uint64 {
	return n.version
}

func (n *Network) Touch() {
	n.version++
}

// MarkConverged records the current links as the topology the routing state converged on.
func (n *Network) MarkConverged() {
	n.converged = true
	n.convergedLinks = n.GetAllLinks()
	n.convergedNodes = len(n.nodes)
}

func (n *Network) InvalidateConvergence() {
	n.converged = false
	n.convergedLinks = nil
}

// IsConverged reports whether the last full convergence ran on the current topology.
func (n *Network) IsConverged() bool {
	if !n.converged || n.convergedNodes != len(n.nodes) {
		return false
	}
	return slices.Equal(n.convergedLinks, n.GetAllLinks())
}

// Counters sums the message counters of every node.
func (n *Network) Counters() Counters {
	var c Counters
	for _, node := range n.nodes {
		c.Add(node.Counters)
	}
	return c
}

// Validate checks the structural invariants of the network and its routing state.
func (n *Network) Validate() error {
	var err error
	for i, node := range n.nodes {
		if node.Id != NodeId(i) {
			err = multierr.Append(err, fmt.Errorf("node at index %d has id %d", i, node.Id))
		}
		for neigh, delay := range node.Connections {
			if neigh == node.Id {
				err = multierr.Append(err, fmt.Errorf("node %d is linked to itself", node.Id))
				continue
			}
			other := n.GetNodeById(neigh)
			if other == nil {
				err = multierr.Append(err, fmt.Errorf("node %d links to %d: %w", node.Id, neigh, ErrNodeNotFound))
				continue
			}
			if !ValidDelay(delay) {
				err = multierr.Append(err, fmt.Errorf("link %d-%d delay %v: %w", node.Id, neigh, delay, ErrInvalidDelay))
			}
			if back, ok := other.Connections[node.Id]; !ok || back != delay {
				err = multierr.Append(err, fmt.Errorf("link %d-%d is not symmetric", node.Id, neigh))
			}
		}
		if len(node.RoutingTable) == 0 {
			continue
		}
		if r, ok := node.RoutingTable[node.Id]; !ok || r.Nh != node.Id || r.Metric != 0 {
			err = multierr.Append(err, fmt.Errorf("node %d has an invalid self route %+v", node.Id, r))
		}
		for dst, r := range node.RoutingTable {
			if (r.Nh == None) != math.IsInf(r.Metric, 1) {
				err = multierr.Append(err, fmt.Errorf("node %d route to %d is inconsistent: nh %s, metric %v", node.Id, dst, r.Nh, r.Metric))
			}
		}
	}
	return err
}
