package state

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/multierr"
)

func TestNameValidator_Valid(t *testing.T) {
	assert.NoError(t, NameValidator("1"))
	assert.NoError(t, NameValidator("ab_cd"))
	assert.NoError(t, NameValidator("grid-20.a"))
}

func TestNameValidator_Invalid(t *testing.T) {
	assert.Error(t, NameValidator("1A"))
	assert.Error(t, NameValidator("scenario name"))
	assert.Error(t, NameValidator(""))
	assert.Error(t, NameValidator("\t"))
	assert.Error(t, NameValidator(strings.Repeat("a", 200)))
}

func TestProbabilityValidator(t *testing.T) {
	assert.NoError(t, ProbabilityValidator("p", 0))
	assert.NoError(t, ProbabilityValidator("p", 1))
	assert.NoError(t, ProbabilityValidator("p", 0.3))
	assert.Error(t, ProbabilityValidator("p", -0.1))
	assert.Error(t, ProbabilityValidator("p", 1.01))
	assert.Error(t, ProbabilityValidator("p", math.NaN()))
}

func TestScenarioValidator_Default(t *testing.T) {
	cfg := DefaultScenario()
	assert.NoError(t, ScenarioValidator(&cfg))
}

func TestScenarioValidator_ReportsEveryProblem(t *testing.T) {
	cfg := DefaultScenario()
	cfg.PFail = 2
	cfg.Topology.Nodes = 0
	cfg.Topology.MinRange = 50
	cfg.Protocol.MaxIterations = 0
	err := ScenarioValidator(&cfg)
	assert.Error(t, err)
	assert.Len(t, multierr.Errors(err), 4)
}

func TestExpandScenario(t *testing.T) {
	cfg := ScenarioCfg{}
	ExpandScenario(&cfg)
	assert.Equal(t, DefaultMaxIterations, cfg.Protocol.MaxIterations)
	assert.Equal(t, DefaultIncrementalMaxIterations, cfg.Protocol.IncrementalMaxIterations)
}
