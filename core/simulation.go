package core

import (
	"context"
	"errors"
	"log/slog"
	"maps"
	"math/rand/v2"
	"sync/atomic"
	"time"

	"github.com/encodeous/sensornet/state"
	"github.com/encodeous/sensornet/topology"
	"github.com/google/uuid"
)

type SimStats struct {
	RunId    string `yaml:"run_id"`
	Scenario string `yaml:"scenario,omitempty"`
	Seed     uint64 `yaml:"seed"`
	Steps    int    `yaml:"steps"`
	Nodes    int    `yaml:"nodes"`

	InitialIterations       int `yaml:"initial_iterations"`
	ReconvergenceIterations int `yaml:"reconvergence_iterations"`
	LinksRemoved            int `yaml:"links_removed"`
	LinksAdded              int `yaml:"links_added"`
	HelloRounds             int `yaml:"hello_rounds"`

	Requests   int            `yaml:"requests"`
	Delivered  int            `yaml:"delivered"`
	Failures   map[string]int `yaml:"failures,omitempty"`
	TotalDelay float64        `yaml:"total_delay"`
	TotalHops  int            `yaml:"total_hops"`

	Messages     MessageTotals `yaml:"messages"`
	Efficiency   float64       `yaml:"efficiency"`
	Connectivity float64       `yaml:"connectivity"`
	Elapsed      time.Duration `yaml:"elapsed"`
}

func (s *SimStats) AverageDelay() float64 {
	if s.Delivered == 0 {
		return 0
	}
	return s.TotalDelay / float64(s.Delivered)
}

func (s *SimStats) AverageHops() float64 {
	if s.Delivered == 0 {
		return 0
	}
	return float64(s.TotalHops) / float64(s.Delivered)
}

func (s *SimStats) SuccessRate() float64 {
	if s.Requests == 0 {
		return 0
	}
	return float64(s.Delivered) / float64(s.Requests)
}

// Simulation evolves a generated network over discrete time steps: hello exchanges, random
// link failures, random new links and random transmission requests.
type Simulation struct {
	Cfg        state.ScenarioCfg
	Log        *slog.Logger
	Net        *state.Network
	Engine     *Engine
	Controller *Controller
	Resolver   *Resolver
	RunId      uuid.UUID

	rng      *rand.Rand
	stats    SimStats
	started  bool
	counters atomic.Pointer[state.Counters]
}

// NewSimulation generates the initial topology. All randomness is drawn from cfg.Seed.
func NewSimulation(cfg state.ScenarioCfg, log *slog.Logger) *Simulation {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	rng := topology.NewRand(cfg.Seed)
	net := topology.Generate(rng, cfg.Topology)
	engine := NewEngine(log, cfg.Protocol)
	s := &Simulation{
		Cfg:        cfg,
		Log:        log,
		Net:        net,
		Engine:     engine,
		Controller: NewController(engine, cfg.Protocol),
		Resolver:   NewResolver(net),
		RunId:      uuid.New(),
		rng:        rng,
	}
	s.stats = SimStats{
		RunId:    s.RunId.String(),
		Scenario: cfg.Name,
		Seed:     cfg.Seed,
		Nodes:    net.Len(),
		Failures: make(map[string]int),
	}
	s.snapshot()
	return s
}

// Counters returns the network-wide counters as of the end of the last step. Safe for
// concurrent use.
func (s *Simulation) Counters() state.Counters {
	return *s.counters.Load()
}

func (s *Simulation) snapshot() {
	c := s.Net.Counters()
	s.counters.Store(&c)
}

// Setup runs the initial full convergence.
func (s *Simulation) Setup() error {
	it, err := s.Engine.RunFullProtocol(s.Net)
	if err != nil {
		return err
	}
	s.started = true
	s.stats.InitialIterations = it
	if s.Cfg.IgnoreInitialRouteDiscovery {
		ResetCounters(s.Net, RouteDiscoveryCounter)
	}
	conn := CheckConnectivity(s.Net)
	s.Log.Info("initial convergence complete",
		"nodes", s.Net.Len(), "links", len(s.Net.GetAllLinks()),
		"iterations", it, "connected", conn.Connected)
	s.snapshot()
	return nil
}

// Step advances the simulation by one time step.
func (s *Simulation) Step(t int) error {
	if s.Cfg.HelloInterval > 0 && t%s.Cfg.HelloInterval == 0 {
		SendHellos(s.Net)
		s.stats.HelloRounds++
	}

	if links := s.Net.GetAllLinks(); len(links) > 0 && s.rng.Float64() < s.Cfg.PFail {
		l := links[s.rng.IntN(len(links))]
		res, err := s.Controller.Apply(s.Net, LinkRemoval(l.A, l.B))
		if err != nil {
			return err
		}
		s.stats.LinksRemoved++
		s.stats.ReconvergenceIterations += res.Iterations
		s.Log.Debug("link failed", "step", t, "a", l.A, "b", l.B, "iterations", res.Iterations, "isolated", res.Isolated)
	}

	if s.rng.Float64() < s.Cfg.PNew {
		var candidates []state.Pair[state.NodeId, state.NodeId]
		if s.Controller.RequireRange {
			candidates = topology.MutualPairs(s.Net)
		} else {
			candidates = topology.UnconnectedPairs(s.Net)
		}
		if len(candidates) > 0 {
			p := candidates[s.rng.IntN(len(candidates))]
			delay := topology.RandomDelay(s.rng)
			res, err := s.Controller.Apply(s.Net, LinkUpdate(p.V1, p.V2, delay))
			if err != nil {
				return err
			}
			if res.Applied {
				s.stats.LinksAdded++
				s.stats.ReconvergenceIterations += res.Iterations
				s.Log.Debug("link added", "step", t, "a", p.V1, "b", p.V2, "delay", delay, "iterations", res.Iterations)
			}
		}
	}

	if n := s.Net.Len(); n >= 2 && s.rng.Float64() < s.Cfg.PRequest {
		src := state.NodeId(s.rng.IntN(n))
		dst := state.NodeId(s.rng.IntN(n - 1))
		if dst >= src {
			dst++
		}
		s.stats.Requests++
		tx, err := s.Resolver.Resolve(src, dst)
		if err != nil {
			var re *RouteError
			if !errors.As(err, &re) {
				return err
			}
			s.stats.Failures[re.Kind.String()]++
			s.Log.Debug("transmission failed", "step", t, "src", src, "dst", dst, "err", re)
		} else {
			s.stats.Delivered++
			s.stats.TotalDelay += tx.Delay
			s.stats.TotalHops += tx.Hops()
			s.Log.Debug("transmission delivered", "step", t, "path", tx.Path, "delay", tx.Delay)
		}
	}

	s.stats.Steps++
	s.snapshot()
	return nil
}

// Run performs the initial convergence if needed and then every time step, stopping early if
// ctx is cancelled. The statistics gathered so far are returned in either case.
func (s *Simulation) Run(ctx context.Context) (*SimStats, error) {
	start := time.Now()
	if !s.started {
		if err := s.Setup(); err != nil {
			return nil, err
		}
	}
	var runErr error
	for t := s.stats.Steps; t < s.Cfg.TimeSteps; t++ {
		if err := ctx.Err(); err != nil {
			runErr = context.Cause(ctx)
			break
		}
		if err := s.Step(t); err != nil {
			runErr = err
			break
		}
	}
	stats := s.Stats()
	stats.Elapsed = time.Since(start)
	s.Log.Info("simulation finished",
		"run", stats.RunId, "steps", stats.Steps,
		"requests", stats.Requests, "delivered", stats.Delivered,
		"efficiency", stats.Efficiency, "connectivity", stats.Connectivity)
	return stats, runErr
}

// Stats returns a copy of the statistics, with message totals taken from the current network.
func (s *Simulation) Stats() *SimStats {
	stats := s.stats
	stats.Failures = maps.Clone(s.stats.Failures)
	stats.Messages = Totals(s.Net)
	stats.Efficiency = stats.Messages.Efficiency()
	stats.Connectivity = CheckConnectivity(s.Net).Ratio
	return &stats
}
