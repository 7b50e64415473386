package sim

import (
	"fmt"

	"fleet-planner/internal/fleet"
	"fleet-planner/internal/graph"
)

// EventKind classifies what happened to an agent during a step.
type EventKind int

const (
	EdgeEntered EventKind = iota
	Arrived
	Delivered
	Paused
	Resumed
)

func (k EventKind) String() string {
	switch k {
	case EdgeEntered:
		return "edge_entered"
	case Arrived:
		return "arrived"
	case Delivered:
		return "delivered"
	case Paused:
		return "paused"
	case Resumed:
		return "resumed"
	default:
		return fmt.Sprintf("event(%d)", int(k))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k EventKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// Event is a transition notification returned from Step.
type Event struct {
	Tick  int           `json:"tick"`
	Kind  EventKind     `json:"kind"`
	Agent fleet.AgentID `json:"agent"`
	Node  graph.NodeID  `json:"node,omitempty"`
	Edge  *graph.Edge   `json:"edge,omitempty"`
}
