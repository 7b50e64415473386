package fleet

import (
	"errors"
	"fmt"

	"fleet-planner/internal/graph"
	"fleet-planner/internal/logging"
	"fleet-planner/internal/metrics"
)

var (
	// ErrUnknownAgent indicates an agent that is not in the fleet table.
	ErrUnknownAgent = errors.New("fleet: unknown agent")

	// ErrAgentExists indicates Begin for an agent that is already moving.
	ErrAgentExists = errors.New("fleet: agent already registered")

	// ErrEmptyAgentID indicates an agent without identifier.
	ErrEmptyAgentID = errors.New("fleet: agent ID is empty")
)

// Coordinator owns the fleet table. Rows keep the order in which agents
// started moving, which is the order the yield rule visits them in.
//
// A Coordinator is driven from a single tick loop and is not safe for
// concurrent use.
type Coordinator struct {
	entries []Entry
	log     logging.Logger
}

// NewCoordinator returns an empty coordinator. A nil logger discards output.
func NewCoordinator(log logging.Logger) *Coordinator {
	if log == nil {
		log = logging.NoOp{}
	}
	return &Coordinator{log: log}
}

func (c *Coordinator) find(id AgentID) int {
	for i := range c.entries {
		if c.entries[i].Agent == id {
			return i
		}
	}
	return -1
}

// Begin adds an agent that starts traversing edge with the given load.
func (c *Coordinator) Begin(id AgentID, edge graph.Edge, load int) error {
	if id == "" {
		return ErrEmptyAgentID
	}
	if c.find(id) >= 0 {
		return fmt.Errorf("%w: %s", ErrAgentExists, id)
	}
	c.entries = append(c.entries, Entry{Agent: id, Edge: edge, Load: load})
	c.log.Debug("agent entered fleet", "agent", id, "edge", edge.String(), "load", load)
	return nil
}

// Transition records that an agent moved on to its next edge.
func (c *Coordinator) Transition(id AgentID, edge graph.Edge) error {
	i := c.find(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrUnknownAgent, id)
	}
	c.entries[i].Edge = edge
	return nil
}

// Finish removes an agent that completed its route. Unknown agents are ignored.
func (c *Coordinator) Finish(id AgentID) {
	i := c.find(id)
	if i < 0 {
		return
	}
	c.entries = append(c.entries[:i], c.entries[i+1:]...)
	c.log.Debug("agent left fleet", "agent", id)
}

// Waiting reports whether an agent has been told to wait.
func (c *Coordinator) Waiting(id AgentID) bool {
	i := c.find(id)
	return i >= 0 && c.entries[i].Waiting
}

// Len returns the number of moving agents.
func (c *Coordinator) Len() int { return len(c.entries) }

// Entries returns a copy of the fleet table.
func (c *Coordinator) Entries() []Entry {
	out := make([]Entry, len(c.entries))
	copy(out, c.entries)
	return out
}

// Tick applies the yield rule to the table and returns what changed.
func (c *Coordinator) Tick() Decision {
	var d Decision
	c.entries, d = tick(c.entries)

	for _, id := range d.Paused {
		c.log.Info("agent paused", "agent", id)
	}
	for _, id := range d.Resumed {
		c.log.Info("agent resumed", "agent", id)
	}
	metrics.ObserveFleetDecisions(len(d.Paused), len(d.Resumed), len(c.entries))
	return d
}
