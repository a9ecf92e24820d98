package core

import (
	"fmt"
	"slices"
	"strings"
	"sync"
	"testing"

	"github.com/encodeous/sensornet/state"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

type HarnessEvent struct {
	Event RouterEvent
	Desc  string
	Args  []any
}

// RouterHarness records every protocol event
type RouterHarness struct {
	mu      sync.Mutex
	actions []HarnessEvent
}

func (h *RouterHarness) Log(event RouterEvent, desc string, args ...any) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.actions = append(h.actions, HarnessEvent{Event: event, Desc: desc, Args: args})
}

func (h *RouterHarness) GetActions() HarnessEvents {
	h.mu.Lock()
	defer h.mu.Unlock()
	x := h.actions
	h.actions = make([]HarnessEvent, 0)
	return x
}

type HarnessEvents []HarnessEvent

func (e HarnessEvents) String() string {
	out := make([]string, 0)
	for _, action := range e {
		cur := action.Event.String()
		for _, arg := range action.Args {
			cur += " " + fmt.Sprint(arg)
		}
		out = append(out, cur)
	}
	slices.Sort(out)
	return strings.Join(out, "\n")
}

// contains matches events whose leading key/value args equal args
func (e HarnessEvents) contains(event RouterEvent, args ...any) bool {
	for _, action := range e {
		if action.Event != event || len(action.Args) < len(args) {
			continue
		}
		match := true
		for i, arg := range args {
			if !cmp.Equal(action.Args[i], arg) {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

func (e HarnessEvents) Count(event RouterEvent) int {
	n := 0
	for _, action := range e {
		if action.Event == event {
			n++
		}
	}
	return n
}

func (e HarnessEvents) AssertContains(t *testing.T, event RouterEvent, args ...any) {
	if e.contains(event, args...) {
		return
	}
	t.Fatal("Expected event not found: ", event, " with args: ", args, " in ", e)
}

func (e HarnessEvents) AssertNotContains(t *testing.T, event RouterEvent, args ...any) {
	if e.contains(event, args...) {
		t.Fatal("Unexpected event found: ", event, " with args: ", args, " in ", e)
	}
}

// MakeNetwork builds a network of n nodes on a line, one unit apart, each able to reach its
// direct neighbours on the line.
func MakeNetwork(t *testing.T, n int, links ...state.Link) *state.Network {
	net := state.NewNetwork()
	for i := 0; i < n; i++ {
		net.AddNode(state.Position{X: float64(i), Y: 0}, 1.5)
	}
	for _, l := range links {
		require.NoError(t, net.Connect(l.A, l.B, l.Delay))
	}
	return net
}

// MakeLine is the three node line 0 -0.1- 1 -0.2- 2
func MakeLine(t *testing.T) *state.Network {
	return MakeNetwork(t, 3,
		state.Link{A: 0, B: 1, Delay: 0.1},
		state.Link{A: 1, B: 2, Delay: 0.2},
	)
}

func NewTestEngine(h *RouterHarness) *Engine {
	return &Engine{
		Router:                   h,
		MaxIterations:            state.DefaultMaxIterations,
		IncrementalMaxIterations: state.DefaultIncrementalMaxIterations,
	}
}
