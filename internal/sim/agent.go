package sim

import (
	"errors"
	"fmt"

	"fleet-planner/internal/fleet"
	"fleet-planner/internal/graph"
)

// ErrMalformedAgent indicates an agent spec that cannot be turned into a mission.
var ErrMalformedAgent = errors.New("sim: malformed agent")

// State is the lifecycle state of an agent.
type State int

const (
	Idle State = iota
	Moving
	WaitingUntil // waiting to retry route planning
	Delivering   // unloading at the delivery point
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Moving:
		return "moving"
	case WaitingUntil:
		return "waiting"
	case Delivering:
		return "delivering"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// AgentSpec describes one agent to spawn. Exactly one of Goals or End must be
// set: Goals makes a tour that returns to Start, End a single delivery.
type AgentSpec struct {
	ID       string         `json:"id,omitempty"`
	Start    graph.NodeID   `json:"start"`
	Goals    []graph.NodeID `json:"goals,omitempty"`
	End      graph.NodeID   `json:"end,omitempty"`
	Packages int            `json:"packages"`
}

func (s AgentSpec) validate(g *graph.Graph) error {
	if s.Start == "" {
		return fmt.Errorf("%w: no start", ErrMalformedAgent)
	}
	if !g.Has(s.Start) {
		return fmt.Errorf("%w: unknown start %q", ErrMalformedAgent, s.Start)
	}
	if len(s.Goals) == 0 && s.End == "" {
		return fmt.Errorf("%w: neither goals nor end", ErrMalformedAgent)
	}
	if len(s.Goals) > 0 && s.End != "" {
		return fmt.Errorf("%w: both goals and end", ErrMalformedAgent)
	}
	if s.End != "" && !g.Has(s.End) {
		return fmt.Errorf("%w: unknown end %q", ErrMalformedAgent, s.End)
	}
	for _, goal := range s.Goals {
		if !g.Has(goal) {
			return fmt.Errorf("%w: unknown goal %q", ErrMalformedAgent, goal)
		}
	}
	if s.Packages < 0 {
		return fmt.Errorf("%w: negative packages", ErrMalformedAgent)
	}
	return nil
}

type missionKind int

const (
	deliveryMission missionKind = iota
	tourMission
)

type phase int

const (
	outbound phase = iota
	homebound
	done
)

// Agent is the simulator's view of one agent.
type Agent struct {
	id    fleet.AgentID
	spec  AgentSpec
	kind  missionKind
	phase phase
	state State
	cargo fleet.Cargo

	node     graph.NodeID // last waypoint reached
	route    []graph.Edge
	leg      int
	progress float64 // distance covered along route[leg]
	deadline int     // tick at which Delivering or WaitingUntil ends

	// pending leg retried when WaitingUntil expires
	retryFrom, retryTo graph.NodeID
	retries            int
}

// Status is a read-only snapshot of an agent.
type Status struct {
	ID       fleet.AgentID `json:"id"`
	State    State         `json:"state"`
	Node     graph.NodeID  `json:"node"`
	Edge     *graph.Edge   `json:"edge,omitempty"`
	Progress float64       `json:"progress"`
	Packages int           `json:"packages"`
	Waiting  bool          `json:"waiting"`
	Deadline int           `json:"deadline,omitempty"`
}

func (a *Agent) current() (graph.Edge, bool) {
	if a.state != Moving || a.leg >= len(a.route) {
		return graph.Edge{}, false
	}
	return a.route[a.leg], true
}

func (a *Agent) status(waiting bool) Status {
	st := Status{
		ID:       a.id,
		State:    a.state,
		Node:     a.node,
		Progress: a.progress,
		Packages: a.cargo.Count(),
		Waiting:  waiting,
	}
	if e, ok := a.current(); ok {
		st.Edge = &e
	}
	if a.state == Delivering || a.state == WaitingUntil {
		st.Deadline = a.deadline
	}
	return st
}
