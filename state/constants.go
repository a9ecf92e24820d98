package state

import "math"

// INF is the metric of an unreachable destination.
var INF = math.Inf(1)

const (
	// None marks a route without a next hop.
	None NodeId = -1
)

var (
	DefaultMaxIterations            = 20
	DefaultIncrementalMaxIterations = 10
	// UnchangedEpsilon is the smallest metric change re-advertised to a neighbour when
	// unchanged-vector suppression is enabled.
	UnchangedEpsilon = 0.01

	// topology repair widens both ranges to this multiple of the gap it bridges
	RangeRepairFactor = 1.1

	// delay bounds for links created during a simulation run
	NewLinkMinDelay = 0.1
	NewLinkMaxDelay = 1.0

	PathCacheCapacity = uint64(4096)

	DefaultScenarioPath = "scenario.yaml"
)
