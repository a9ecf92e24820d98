package core

import (
	"fmt"
	"log/slog"
)

type RouterEvent int

// trace events

const (
	VectorSent RouterEvent = iota
	RouteImproved
	RouteReconciled
	LinkAdded
	LinkRemoved
	LinkUpdated
)

// warn events

const (
	NodeIsolated RouterEvent = iota + 1000
	IterationCapReached
	StaleUpdateDropped
	InconsistentState
)

func (e RouterEvent) String() string {
	switch e {
	case VectorSent:
		return "VECTOR_SENT"
	case RouteImproved:
		return "ROUTE_IMPROVED"
	case RouteReconciled:
		return "ROUTE_RECONCILED"
	case LinkAdded:
		return "LINK_ADDED"
	case LinkRemoved:
		return "LINK_REMOVED"
	case LinkUpdated:
		return "LINK_UPDATED"
	case NodeIsolated:
		return "NODE_ISOLATED"
	case IterationCapReached:
		return "ITERATION_CAP_REACHED"
	case StaleUpdateDropped:
		return "STALE_UPDATE_DROPPED"
	case InconsistentState:
		return "INCONSISTENT_STATE"
	}
	return fmt.Sprintf("RouterEvent(%d)", int(e))
}

func (e RouterEvent) IsWarning() bool {
	return e >= 1000
}

// Router receives protocol events. Implementations must be safe for concurrent use.
type Router interface {
	Log(event RouterEvent, desc string, args ...any)
}

// SlogRouter writes protocol events to a slog.Logger
type SlogRouter struct {
	Logger *slog.Logger
}

func (r SlogRouter) Log(event RouterEvent, desc string, args ...any) {
	if r.Logger == nil {
		return
	}
	args = append([]any{"event", event.String()}, args...)
	if event.IsWarning() {
		r.Logger.Warn(desc, args...)
	} else {
		r.Logger.Debug(desc, args...)
	}
}

type discardRouter struct{}

func (discardRouter) Log(RouterEvent, string, ...any) {}
