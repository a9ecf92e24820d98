package state

import (
	"fmt"
	"math"
	"os"
	"path"
	"path/filepath"
	"regexp"

	"go.uber.org/multierr"
)

var namePattern, _ = regexp.Compile("^[0-9a-z._-]+$")

func PathValidator(s string) error {
	_, err := os.Stat(path.Dir(s))
	if err != nil {
		return err
	}
	_, err = filepath.Abs(s)
	return err
}

func NameValidator(s string) error {
	if !namePattern.MatchString(s) {
		return fmt.Errorf("%s is not a valid name, must match pattern %s", s, namePattern.String())
	}
	if len(s) > 100 {
		return fmt.Errorf("len(\"%s\") = %d > 100 is too long", s, len(s))
	}
	return nil
}

func ProbabilityValidator(name string, p float64) error {
	if math.IsNaN(p) || p < 0 || p > 1 {
		return fmt.Errorf("%s = %v must be within [0, 1]", name, p)
	}
	return nil
}

func TopologyValidator(cfg *TopologyCfg) error {
	var err error
	if cfg.Nodes <= 0 {
		err = multierr.Append(err, fmt.Errorf("topology.nodes = %d must be positive", cfg.Nodes))
	}
	if !(cfg.AreaSize > 0) {
		err = multierr.Append(err, fmt.Errorf("topology.area_size = %v must be positive", cfg.AreaSize))
	}
	if !(cfg.MinRange >= 0) || !(cfg.MaxRange >= cfg.MinRange) {
		err = multierr.Append(err, fmt.Errorf("topology ranges [%v, %v] are not ordered", cfg.MinRange, cfg.MaxRange))
	}
	if len(cfg.Graph) != 0 {
		if _, gerr := ParseGraph(cfg.Graph, cfg.Nodes); gerr != nil {
			err = multierr.Append(err, fmt.Errorf("topology.graph: %w", gerr))
		}
	}
	return err
}

func ProtocolValidator(cfg *ProtocolCfg) error {
	var err error
	if cfg.MaxIterations <= 0 {
		err = multierr.Append(err, fmt.Errorf("protocol.max_iterations = %d must be positive", cfg.MaxIterations))
	}
	if cfg.IncrementalMaxIterations <= 0 {
		err = multierr.Append(err, fmt.Errorf("protocol.incremental_max_iterations = %d must be positive", cfg.IncrementalMaxIterations))
	}
	if cfg.Workers < 0 {
		err = multierr.Append(err, fmt.Errorf("protocol.workers = %d must not be negative", cfg.Workers))
	}
	return err
}

func ScenarioValidator(cfg *ScenarioCfg) error {
	var err error
	if cfg.Name != "" {
		err = multierr.Append(err, NameValidator(cfg.Name))
	}
	if cfg.TimeSteps < 0 {
		err = multierr.Append(err, fmt.Errorf("time_steps = %d must not be negative", cfg.TimeSteps))
	}
	if cfg.HelloInterval < 0 {
		err = multierr.Append(err, fmt.Errorf("hello_interval = %d must not be negative", cfg.HelloInterval))
	}
	err = multierr.Combine(err,
		ProbabilityValidator("p_request", cfg.PRequest),
		ProbabilityValidator("p_fail", cfg.PFail),
		ProbabilityValidator("p_new", cfg.PNew),
		TopologyValidator(&cfg.Topology),
		ProtocolValidator(&cfg.Protocol),
	)
	if cfg.LogPath != "" {
		err = multierr.Append(err, PathValidator(cfg.LogPath))
	}
	return err
}
