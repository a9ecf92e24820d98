package core

import (
	"fmt"

	"github.com/encodeous/sensornet/perf"
	"github.com/encodeous/sensornet/state"
)

// Change is a link event. Remove takes precedence over Delay.
type Change struct {
	A, B   state.NodeId
	Delay  float64
	Remove bool
}

func LinkUpdate(a, b state.NodeId, delay float64) Change {
	return Change{A: a, B: b, Delay: delay}
}

func LinkRemoval(a, b state.NodeId) Change {
	return Change{A: a, B: b, Remove: true}
}

func (c Change) String() string {
	if c.Remove {
		return fmt.Sprintf("remove %d-%d", c.A, c.B)
	}
	return fmt.Sprintf("link %d-%d (%.4f)", c.A, c.B, c.Delay)
}

type ChangeResult struct {
	Iterations int
	// Applied is false when the change did not alter the topology
	Applied bool
	// Isolated lists the endpoints left without any link by a removal
	Isolated []state.NodeId
}

// Controller applies link events to a network and reconverges the routing state.
type Controller struct {
	Engine *Engine
	// RequireRange only accepts new links between nodes within each other's range
	RequireRange bool
	// Optimized makes Apply reconverge incrementally
	Optimized bool
}

func NewController(engine *Engine, cfg state.ProtocolCfg) *Controller {
	return &Controller{
		Engine:       engine,
		RequireRange: cfg.RequireRange,
		Optimized:    cfg.Optimized,
	}
}

func (c *Controller) engine() *Engine {
	if c.Engine == nil {
		c.Engine = &Engine{}
	}
	return c.Engine
}

// Apply handles the change with the reconvergence strategy selected by Optimized.
func (c *Controller) Apply(net *state.Network, ch Change) (ChangeResult, error) {
	if c.Optimized {
		return c.HandleTopologyChangeOptimized(net, ch)
	}
	return c.HandleTopologyChange(net, ch)
}

// HandleTopologyChange applies the change and reruns the full protocol.
func (c *Controller) HandleTopologyChange(net *state.Network, ch Change) (ChangeResult, error) {
	res, err := c.mutate(net, ch)
	if err != nil || !res.Applied {
		return res, err
	}
	res.Iterations, err = c.engine().RunFullProtocol(net)
	return res, err
}

// HandleTopologyChangeOptimized applies the change and reconverges incrementally from
// its two endpoints.
func (c *Controller) HandleTopologyChangeOptimized(net *state.Network, ch Change) (ChangeResult, error) {
	res, err := c.mutate(net, ch)
	if err != nil || !res.Applied {
		return res, err
	}
	res.Iterations, err = c.engine().RunIncrementalUpdate(net, []state.NodeId{ch.A, ch.B})
	return res, err
}

func (c *Controller) mutate(net *state.Network, ch Change) (ChangeResult, error) {
	res := ChangeResult{}
	na, err := net.Node(ch.A)
	if err != nil {
		return res, err
	}
	nb, err := net.Node(ch.B)
	if err != nil {
		return res, err
	}
	if ch.A == ch.B {
		return res, nil
	}
	r := c.engine().router()

	if ch.Remove {
		removed, err := net.Disconnect(ch.A, ch.B)
		if err != nil || !removed {
			return res, err
		}
		res.Applied = true
		r.Log(LinkRemoved, "link removed", "a", ch.A, "b", ch.B)
		for _, node := range []*state.Node{na, nb} {
			if node.Degree() == 0 {
				res.Isolated = append(res.Isolated, node.Id)
				r.Log(NodeIsolated, "node has no remaining links", "node", node.Id)
			}
		}
		perf.TopologyChangesPerSecond.Add(1)
		return res, nil
	}

	if !state.ValidDelay(ch.Delay) {
		return res, fmt.Errorf("link %d-%d delay %v: %w", ch.A, ch.B, ch.Delay, state.ErrInvalidDelay)
	}
	cur, exists := na.Connections[ch.B]
	if exists && cur == ch.Delay {
		return res, nil
	}
	if !exists && c.RequireRange && !(na.CanReach(nb) && nb.CanReach(na)) {
		return res, nil
	}
	if err := net.Connect(ch.A, ch.B, ch.Delay); err != nil {
		return res, err
	}
	res.Applied = true
	if exists {
		r.Log(LinkUpdated, "link delay changed", "a", ch.A, "b", ch.B, "old", cur, "delay", ch.Delay)
	} else {
		r.Log(LinkAdded, "link added", "a", ch.A, "b", ch.B, "delay", ch.Delay)
	}
	perf.TopologyChangesPerSecond.Add(1)
	return res, nil
}
