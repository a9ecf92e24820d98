package core

import (
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/encodeous/sensornet/perf"
	"github.com/encodeous/sensornet/state"
	"golang.org/x/sync/errgroup"
)

// Engine drives the synchronous round-based distance-vector protocol to a fixpoint.
// Each round is a send phase followed by a process phase, with a barrier in between.
type Engine struct {
	Log    *slog.Logger
	Router Router

	MaxIterations            int
	IncrementalMaxIterations int
	// Workers > 1 runs each phase on a worker pool of that size
	Workers           int
	SuppressUnchanged bool
}

func NewEngine(log *slog.Logger, cfg state.ProtocolCfg) *Engine {
	return &Engine{
		Log:                      log,
		MaxIterations:            cfg.MaxIterations,
		IncrementalMaxIterations: cfg.IncrementalMaxIterations,
		Workers:                  cfg.Workers,
		SuppressUnchanged:        cfg.SuppressUnchanged,
	}
}

func (e *Engine) router() Router {
	if e.Router != nil {
		return e.Router
	}
	if e.Log != nil {
		return SlogRouter{Logger: e.Log}
	}
	return discardRouter{}
}

func (e *Engine) maxIterations() int {
	if e.MaxIterations > 0 {
		return e.MaxIterations
	}
	return state.DefaultMaxIterations
}

func (e *Engine) incrementalMaxIterations() int {
	if e.IncrementalMaxIterations > 0 {
		return e.IncrementalMaxIterations
	}
	return state.DefaultIncrementalMaxIterations
}

// RunFullProtocol reinitialises every node and runs rounds until no node sends or changes,
// returning the number of rounds executed. If the routing state already converged on the
// current topology, the nodes are left as is and a single silent round is run.
func (e *Engine) RunFullProtocol(net *state.Network) (int, error) {
	start := time.Now()
	if !net.IsConverged() {
		ids := net.Ids()
		for _, node := range net.Nodes() {
			InitializeDistanceVector(node, ids)
		}
	}
	iterations, converged, err := e.runRounds(net, e.maxIterations())
	net.Touch()
	if err != nil {
		net.InvalidateConvergence()
		return iterations, err
	}
	if converged {
		net.MarkConverged()
	} else {
		net.InvalidateConvergence()
	}
	perf.ConvergenceRounds.Add(float64(iterations))
	perf.ConvergenceLatency.Add(float64(time.Since(start).Microseconds()))
	if e.Log != nil {
		e.Log.Debug("full protocol finished", "iterations", iterations, "converged", converged, "elapsed", time.Since(start))
	}
	return iterations, nil
}

// RunIncrementalUpdate marks only the seed nodes for re-advertisement and runs rounds with
// the smaller incremental cap. Distances never increase during an incremental run, so the
// result can be locally consistent yet globally suboptimal after a link removal.
func (e *Engine) RunIncrementalUpdate(net *state.Network, seeds []state.NodeId) (int, error) {
	for _, id := range seeds {
		if _, err := net.Node(id); err != nil {
			return 0, err
		}
	}
	if !initialized(net) {
		return e.RunFullProtocol(net)
	}
	start := time.Now()
	net.InvalidateConvergence()
	for _, id := range seeds {
		net.GetNodeById(id).NeedsUpdate = true
	}
	iterations, converged, err := e.runRounds(net, e.incrementalMaxIterations())
	net.Touch()
	if err != nil {
		return iterations, err
	}
	perf.IncrementalRounds.Add(float64(iterations))
	perf.ConvergenceLatency.Add(float64(time.Since(start).Microseconds()))
	if e.Log != nil {
		e.Log.Debug("incremental update finished", "seeds", seeds, "iterations", iterations, "converged", converged, "elapsed", time.Since(start))
	}
	return iterations, nil
}

// initialized reports whether every node holds a vector entry for every node in the network
func initialized(net *state.Network) bool {
	for _, node := range net.Nodes() {
		if len(node.DistanceVector) != net.Len() {
			return false
		}
	}
	return true
}

func (e *Engine) runRounds(net *state.Network, maxIterations int) (int, bool, error) {
	r := e.router()
	nodes := net.Nodes()
	iterations := 0
	for iterations < maxIterations {
		iterations++

		sent, err := e.forEachNode(nodes, func(node *state.Node) (bool, error) {
			return SendVector(net, node, e.SuppressUnchanged, r)
		})
		if err != nil {
			return iterations, false, err
		}
		perf.SentVectorsPerSecond.Add(float64(sent))
		if sent == 0 {
			return iterations, true, nil
		}

		changed, err := e.forEachNode(nodes, func(node *state.Node) (bool, error) {
			improved := ProcessPendingUpdates(node, r)
			reconciled := ReconcileRoutingTable(node, r)
			return improved || reconciled, nil
		})
		if err != nil {
			return iterations, false, err
		}
		if changed == 0 {
			return iterations, true, nil
		}
	}
	r.Log(IterationCapReached, "protocol did not converge within the iteration cap", "iterations", iterations)
	return iterations, false, nil
}

// forEachNode applies fn to every node and returns how many calls reported true.
// All calls have returned when forEachNode returns.
func (e *Engine) forEachNode(nodes []*state.Node, fn func(*state.Node) (bool, error)) (int, error) {
	if e.Workers <= 1 {
		count := 0
		for _, node := range nodes {
			ok, err := fn(node)
			if err != nil {
				return count, err
			}
			if ok {
				count++
			}
		}
		return count, nil
	}

	var count atomic.Int64
	g := errgroup.Group{}
	g.SetLimit(e.Workers)
	for _, node := range nodes {
		g.Go(func() error {
			ok, err := fn(node)
			if err != nil {
				return err
			}
			if ok {
				count.Add(1)
			}
			return nil
		})
	}
	err := g.Wait()
	return int(count.Load()), err
}
