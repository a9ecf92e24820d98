package state

// TopologyCfg describes how the initial network is generated
type TopologyCfg struct {
	Nodes    int     `yaml:"nodes"`
	AreaSize float64 `yaml:"area_size"`        // nodes are placed uniformly in [0, area_size)^2
	MinRange float64 `yaml:"min_range"`        // lower bound of the per-node transmission range
	MaxRange float64 `yaml:"max_range"`        // upper bound of the per-node transmission range
	Repair   bool    `yaml:"repair,omitempty"` // link disconnected components after generation

	// Graph replaces range-based link generation with a fixed set of links, see ParseGraph
	Graph []string `yaml:"graph,omitempty"`
}

// ProtocolCfg tunes the routing engine and the topology controller
type ProtocolCfg struct {
	MaxIterations            int  `yaml:"max_iterations"`
	IncrementalMaxIterations int  `yaml:"incremental_max_iterations"`
	Optimized                bool `yaml:"optimized,omitempty"`          // reconverge incrementally after topology changes
	RequireRange             bool `yaml:"require_range,omitempty"`      // only accept new links between mutually reachable nodes
	SuppressUnchanged        bool `yaml:"suppress_unchanged,omitempty"` // skip neighbours already sent an equivalent vector
	Workers                  int  `yaml:"workers,omitempty"`            // per-phase worker pool size, <= 1 runs sequentially
}

// ScenarioCfg is a complete, reproducible simulation run
type ScenarioCfg struct {
	Name          string  `yaml:"name,omitempty"`
	Seed          uint64  `yaml:"seed"`
	TimeSteps     int     `yaml:"time_steps"`
	PRequest      float64 `yaml:"p_request"`      // probability of a transmission request per step
	PFail         float64 `yaml:"p_fail"`         // probability of a random link failure per step
	PNew          float64 `yaml:"p_new"`          // probability of a new link per step
	HelloInterval int     `yaml:"hello_interval"` // steps between hello exchanges, 0 disables hellos

	// reset route discovery counters once the initial convergence completes
	IgnoreInitialRouteDiscovery bool        `yaml:"ignore_initial_route_discovery,omitempty"`
	Topology                    TopologyCfg `yaml:"topology"`
	Protocol                    ProtocolCfg `yaml:"protocol"`
	LogPath                     string      `yaml:"log_path,omitempty"` // if not empty, logs are also written to this file
}

func DefaultProtocol() ProtocolCfg {
	return ProtocolCfg{
		MaxIterations:            DefaultMaxIterations,
		IncrementalMaxIterations: DefaultIncrementalMaxIterations,
		RequireRange:             true,
	}
}

func DefaultScenario() ScenarioCfg {
	return ScenarioCfg{
		Name:          "default",
		Seed:          42,
		TimeSteps:     100,
		PRequest:      0.5,
		PFail:         0.05,
		PNew:          0.05,
		HelloInterval: 1,
		Topology: TopologyCfg{
			Nodes:    20,
			AreaSize: 100,
			MinRange: 20,
			MaxRange: 40,
			Repair:   true,
		},
		Protocol: DefaultProtocol(),
	}
}

// ExpandScenario fills unset tunables with their defaults
func ExpandScenario(cfg *ScenarioCfg) {
	if cfg.Protocol.MaxIterations == 0 {
		cfg.Protocol.MaxIterations = DefaultMaxIterations
	}
	if cfg.Protocol.IncrementalMaxIterations == 0 {
		cfg.Protocol.IncrementalMaxIterations = DefaultIncrementalMaxIterations
	}
}
