// Package sim drives agents along their planned routes one tick at a time.
//
// Agents advance a scalar distance along the current edge at a speed that
// drops with cargo. Every step ends with one fleet coordinator tick, so a
// pause decided in step n takes effect in step n+1. Route planning happens
// when a mission starts: A* for single deliveries and an ant colony tour
// wrapped in A* legs for multi-goal missions.
package sim

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"fleet-planner/internal/aco"
	"fleet-planner/internal/astar"
	"fleet-planner/internal/fleet"
	"fleet-planner/internal/graph"
	"fleet-planner/internal/logging"
)

// ErrNoGraph indicates a simulator created without a waypoint graph.
var ErrNoGraph = errors.New("sim: graph is required")

// Config holds the movement parameters.
type Config struct {
	MaxSpeed          float64 // speed of an empty agent, distance per second
	DeliveryWaitTicks int     // ticks spent unloading before heading home
	RetryTicks        int     // ticks to wait before replanning an unreachable leg
	MaxRetries        int
}

// DefaultConfig returns the standard movement parameters for a 60Hz tick.
func DefaultConfig() Config {
	return Config{
		MaxSpeed:          5,
		DeliveryWaitTicks: 180,
		RetryTicks:        60,
		MaxRetries:        3,
	}
}

// Simulator owns the agents, the fleet coordinator and the tick counter. It
// is not safe for concurrent use.
type Simulator struct {
	g        *graph.Graph
	cfg      Config
	searcher *astar.Searcher
	engine   *aco.Engine
	coord    *fleet.Coordinator
	log      logging.Logger

	agents []*Agent
	byID   map[fleet.AgentID]*Agent
	tick   int
	events []Event
}

// Option configures a Simulator.
type Option func(*Simulator)

// WithLogger sets the simulator logger.
func WithLogger(l logging.Logger) Option {
	return func(s *Simulator) {
		if l != nil {
			s.log = l
		}
	}
}

// WithSearcher replaces the default A* searcher.
func WithSearcher(searcher *astar.Searcher) Option {
	return func(s *Simulator) {
		if searcher != nil {
			s.searcher = searcher
		}
	}
}

// WithEngine sets the ant colony used to order tour goals.
func WithEngine(e *aco.Engine) Option {
	return func(s *Simulator) {
		if e != nil {
			s.engine = e
		}
	}
}

// New creates a simulator over g.
func New(g *graph.Graph, cfg Config, opts ...Option) (*Simulator, error) {
	if g == nil {
		return nil, ErrNoGraph
	}
	s := &Simulator{
		g:    g,
		cfg:  cfg,
		log:  logging.NoOp{},
		byID: make(map[fleet.AgentID]*Agent),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.searcher == nil {
		s.searcher = astar.New(astar.WithLogger(s.log))
	}
	if s.engine == nil {
		engine, err := aco.New(aco.DefaultConfig(), aco.WithLogger(s.log))
		if err != nil {
			return nil, fmt.Errorf("sim: default colony: %w", err)
		}
		s.engine = engine
	}
	s.coord = fleet.NewCoordinator(s.log)
	return s, nil
}

// Tick returns the number of steps taken so far.
func (s *Simulator) Tick() int { return s.tick }

// Spawn plans a mission for every spec and puts the agents in motion.
// Malformed specs and missions that cannot be planned are logged and skipped.
// Returns the IDs of the agents that were spawned.
func (s *Simulator) Spawn(specs []AgentSpec) []fleet.AgentID {
	var ids []fleet.AgentID
	for i, spec := range specs {
		if err := spec.validate(s.g); err != nil {
			s.log.Warn("skipping agent", "index", i, "id", spec.ID, "error", err)
			continue
		}
		if spec.ID == "" {
			spec.ID = uuid.NewString()
		}
		id := fleet.AgentID(spec.ID)
		if _, dup := s.byID[id]; dup {
			s.log.Warn("skipping agent", "index", i, "id", spec.ID,
				"error", fmt.Errorf("%w: duplicate id", ErrMalformedAgent))
			continue
		}

		a := &Agent{
			id:    id,
			spec:  spec,
			cargo: fleet.NewCargo(spec.Packages),
			node:  spec.Start,
		}
		if len(spec.Goals) > 0 {
			a.kind = tourMission
			route, ok := s.planTour(a)
			if !ok {
				continue
			}
			s.register(a)
			if len(route) == 0 {
				s.arrive(a)
			} else {
				s.follow(a, route)
			}
		} else {
			a.kind = deliveryMission
			s.register(a)
			s.startLeg(a, spec.Start, spec.End)
		}
		ids = append(ids, id)
		s.log.Info("agent spawned", "agent", id, "start", spec.Start, "packages", a.cargo.Count())
	}
	return ids
}

func (s *Simulator) register(a *Agent) {
	s.agents = append(s.agents, a)
	s.byID[a.id] = a
}

// planTour orders the goals with the ant colony and wraps the tour with legs
// from and back to the start.
func (s *Simulator) planTour(a *Agent) ([]graph.Edge, bool) {
	tour, err := s.engine.PlanTour(s.searcher, s.g, a.spec.Start, a.spec.Goals, s.log)
	if err != nil {
		s.log.Warn("skipping agent", "id", a.id, "error", fmt.Errorf("%w: %v", ErrMalformedAgent, err))
		return nil, false
	}
	s.log.Debug("tour planned", "agent", a.id, "first_goal", tour.First,
		"tour_edges", len(tour.Goals), "route_edges", len(tour.Path))
	return tour.Path, true
}

// startLeg plans from -> to with A*. An unreachable leg puts the agent in
// WaitingUntil for a later retry.
func (s *Simulator) startLeg(a *Agent, from, to graph.NodeID) {
	if from == to {
		s.arrive(a)
		return
	}
	path := s.searcher.FindPath(s.g, from, to)
	if len(path) == 0 {
		a.retries++
		if a.retries > s.cfg.MaxRetries {
			s.log.Error("giving up on unreachable leg", "agent", a.id, "from", from, "to", to, "retries", a.retries-1)
			a.state = Idle
			a.phase = done
			return
		}
		a.state = WaitingUntil
		a.deadline = s.tick + s.cfg.RetryTicks
		a.retryFrom, a.retryTo = from, to
		s.log.Warn("leg unreachable, waiting", "agent", a.id, "from", from, "to", to, "until", a.deadline)
		return
	}
	a.retries = 0
	s.follow(a, path)
}

func (s *Simulator) follow(a *Agent, route []graph.Edge) {
	a.route = route
	a.leg = 0
	a.progress = 0
	a.state = Moving
	if err := s.coord.Begin(a.id, route[0], a.cargo.Count()); err != nil {
		s.log.Error("fleet registration failed", "agent", a.id, "error", err)
	}
	s.emit(EdgeEntered, a, route[0].From, &route[0])
}

// arrive handles the end of a route according to the mission phase.
func (s *Simulator) arrive(a *Agent) {
	a.route = nil
	a.leg = 0
	a.progress = 0

	if a.kind == deliveryMission && a.phase == outbound {
		if a.cargo.Remove(1) > 0 {
			s.emit(Delivered, a, a.node, nil)
		}
		a.phase = homebound
		a.state = Delivering
		a.deadline = s.tick + s.cfg.DeliveryWaitTicks
		return
	}

	a.phase = done
	a.state = Idle
	s.log.Info("mission complete", "agent", a.id, "node", a.node, "tick", s.tick)
}

func (s *Simulator) emit(kind EventKind, a *Agent, node graph.NodeID, edge *graph.Edge) {
	ev := Event{Tick: s.tick, Kind: kind, Agent: a.id, Node: node}
	if edge != nil {
		e := *edge
		ev.Edge = &e
	}
	s.events = append(s.events, ev)
}

// Step advances the simulation by dt seconds and returns the transitions
// that happened, including those caused by Spawn since the previous step.
func (s *Simulator) Step(dt float64) []Event {
	s.tick++

	for _, a := range s.agents {
		switch a.state {
		case Moving:
			if !s.coord.Waiting(a.id) {
				s.advance(a, dt)
			}
		case Delivering:
			if s.tick >= a.deadline {
				s.startLeg(a, a.node, a.spec.Start)
			}
		case WaitingUntil:
			if s.tick >= a.deadline {
				s.startLeg(a, a.retryFrom, a.retryTo)
			}
		}
	}

	d := s.coord.Tick()
	for _, id := range d.Paused {
		s.emit(Paused, s.byID[id], s.byID[id].node, nil)
	}
	for _, id := range d.Resumed {
		s.emit(Resumed, s.byID[id], s.byID[id].node, nil)
	}

	out := s.events
	s.events = nil
	return out
}

// advance moves a along its route by its current speed.
func (s *Simulator) advance(a *Agent, dt float64) {
	remaining := fleet.Speed(s.cfg.MaxSpeed, a.cargo.Count()) * dt
	for remaining > 0 && a.state == Moving {
		e := a.route[a.leg]
		left := e.Cost - a.progress
		if remaining < left {
			a.progress += remaining
			return
		}
		remaining -= left
		a.progress = 0
		a.node = e.To
		a.leg++

		if a.leg >= len(a.route) {
			s.coord.Finish(a.id)
			s.emit(Arrived, a, a.node, nil)
			s.arrive(a)
			return
		}

		next := a.route[a.leg]
		if err := s.coord.Transition(a.id, next); err != nil {
			s.log.Error("fleet transition failed", "agent", a.id, "error", err)
		}
		s.emit(EdgeEntered, a, next.From, &next)
	}
}

// Idle reports whether every agent has finished its mission.
func (s *Simulator) Idle() bool {
	for _, a := range s.agents {
		if a.state != Idle {
			return false
		}
	}
	return true
}

// RunUntilIdle steps until every agent is idle or maxSteps is reached. The
// boolean reports whether the fleet went idle.
func (s *Simulator) RunUntilIdle(dt float64, maxSteps int) ([]Event, bool) {
	var all []Event
	for i := 0; i < maxSteps; i++ {
		if s.Idle() && len(s.events) == 0 {
			return all, true
		}
		all = append(all, s.Step(dt)...)
	}
	return all, s.Idle()
}

// Agents returns a snapshot of every agent in spawn order.
func (s *Simulator) Agents() []Status {
	out := make([]Status, 0, len(s.agents))
	for _, a := range s.agents {
		out = append(out, a.status(s.coord.Waiting(a.id)))
	}
	return out
}

// Agent returns the snapshot of one agent.
func (s *Simulator) Agent(id fleet.AgentID) (Status, bool) {
	a, ok := s.byID[id]
	if !ok {
		return Status{}, false
	}
	return a.status(s.coord.Waiting(a.id)), true
}

// Fleet returns the coordinator's table of moving agents.
func (s *Simulator) Fleet() []fleet.Entry {
	return s.coord.Entries()
}
