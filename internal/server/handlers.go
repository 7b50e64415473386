package server

import (
	"encoding/json"
	"net/http"
	"time"

	"fleet-planner/internal/astar"
	"fleet-planner/internal/environment"
	"fleet-planner/internal/graph"
	"fleet-planner/internal/logging"
	"fleet-planner/internal/sim"
	"fleet-planner/internal/spatial"
)

// Endpoint is either a waypoint ID or a free position snapped to the nearest
// waypoint. A positive Radius limits how far the snap may reach.
type Endpoint struct {
	Node     graph.NodeID `json:"node,omitempty"`
	Position *graph.Vec3  `json:"position,omitempty"`
	Radius   float64      `json:"radius,omitempty"`
}

type RouteRequest struct {
	Start Endpoint `json:"start"`
	End   Endpoint `json:"end"`
}

type RouteResponse struct {
	Path    []graph.Edge   `json:"path"`
	Nodes   []graph.NodeID `json:"nodes"`
	Success bool           `json:"success"`
	Message string         `json:"message,omitempty"`
	Cost    float64        `json:"cost,omitempty"`
}

type TourRequest struct {
	Start Endpoint        `json:"start"`
	Goals []graph.NodeID  `json:"goals"`
	ACO   json.RawMessage `json:"aco,omitempty"` // partial aco.Config over the configured parameters
}

type TourEdge struct {
	graph.Edge
	Pheromone float64 `json:"pheromone"`
}

type TourResponse struct {
	Tour    []TourEdge   `json:"tour"`
	Path    []graph.Edge `json:"path"`
	Success bool         `json:"success"`
	Message string       `json:"message,omitempty"`
	Summary string       `json:"summary,omitempty"`
	Cost    float64      `json:"cost,omitempty"`
}

type SimulateRequest struct {
	Agents   []sim.AgentSpec `json:"agents"`
	MaxSteps int             `json:"maxSteps"`
}

type SimulateResponse struct {
	Events []sim.Event  `json:"events"`
	Agents []sim.Status `json:"agents"`
	Ticks  int          `json:"ticks"`
	Idle   bool         `json:"idle"`
}

type GraphRequest struct {
	Waypoints  []graph.Waypoint `json:"waypoints"`
	SaveToFile bool             `json:"saveToFile"`
	Force      bool             `json:"force,omitempty"` // Set to true to replace an existing graph
}

const defaultMaxSteps = 10000

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func resolve(e Endpoint, g *graph.Graph, idx *spatial.Index) (graph.NodeID, bool) {
	if e.Node != "" {
		return e.Node, g.Has(e.Node)
	}
	if e.Position == nil {
		return "", false
	}
	if e.Radius > 0 {
		near := idx.Within(*e.Position, e.Radius)
		if len(near) == 0 {
			return "", false
		}
		return near[0], true
	}
	id, _, ok := idx.Nearest(*e.Position)
	return id, ok
}

func nodesOf(path []graph.Edge) []graph.NodeID {
	if len(path) == 0 {
		return []graph.NodeID{}
	}
	ids := make([]graph.NodeID, 0, len(path)+1)
	ids = append(ids, path[0].From)
	for _, e := range path {
		ids = append(ids, e.To)
	}
	return ids
}

// POST /graph - Build the waypoint graph from host tuples
func (s *Server) buildGraphHandler(w http.ResponseWriter, r *http.Request) {
	log := logging.Component(s.log, "http")

	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req GraphRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Warn("invalid graph request body", "error", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if existing, _ := s.current(); existing != nil && !req.Force {
		writeJSON(w, http.StatusConflict, map[string]interface{}{
			"success": false,
			"error":   "graph already exists",
			"message": "Graph is already built. Set 'force: true' to rebuild, or restart the server.",
		})
		return
	}

	g, err := graph.Build(req.Waypoints, logging.Component(s.log, "graph"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"success": false,
			"error":   err.Error(),
		})
		return
	}
	s.SetGraph(g)

	if req.SaveToFile && s.cfg.Graph.File != "" {
		if err := graph.Save(g, s.cfg.Graph.File); err != nil {
			log.Warn("failed to save graph", "file", s.cfg.Graph.File, "error", err)
		}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"numNodes": g.NumNodes(),
		"numEdges": g.NumEdges(),
	})
}

// GET /graphLines - Graph connections as segments, or GeoJSON with format=geojson
func (s *Server) graphLinesHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	g, _ := s.current()
	if g == nil {
		http.Error(w, "Graph not built. Call /graph first", http.StatusBadRequest)
		return
	}

	if r.URL.Query().Get("format") == "geojson" {
		writeJSON(w, http.StatusOK, environment.ExportGraphGeoJSON(g))
		return
	}

	lines := g.LineStrings()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"lines":    lines,
		"numNodes": g.NumNodes(),
		"numEdges": len(lines),
	})
}

// POST /route - Shortest path between two waypoints
func (s *Server) routeHandler(w http.ResponseWriter, r *http.Request) {
	log := logging.Component(s.log, "http")

	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req RouteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Warn("invalid route request body", "error", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	g, idx := s.current()
	if g == nil {
		http.Error(w, "Graph not built. Call /graph first", http.StatusBadRequest)
		return
	}

	start, okStart := resolve(req.Start, g, idx)
	end, okEnd := resolve(req.End, g, idx)
	if !okStart || !okEnd {
		writeJSON(w, http.StatusOK, RouteResponse{
			Path:    []graph.Edge{},
			Nodes:   []graph.NodeID{},
			Success: false,
			Message: "Start or end is not a waypoint of the graph",
		})
		return
	}

	res := s.searcher().Search(g, start, end)

	if r.URL.Query().Get("format") == "geojson" {
		fc, err := environment.ExportRouteGeoJSON(g, res.Path)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, fc)
		return
	}

	resp := RouteResponse{
		Path:    res.Path,
		Nodes:   nodesOf(res.Path),
		Success: res.Found() || start == end,
		Cost:    res.Cost,
	}
	if !resp.Success {
		resp.Message = "No path found"
	}
	log.Info("route computed", "start", start, "end", end, "edges", len(res.Path),
		"cost", res.Cost, "expanded", res.Expanded)
	writeJSON(w, http.StatusOK, resp)
}

// POST /tour - Order goals with the ant colony and return the full loop
func (s *Server) tourHandler(w http.ResponseWriter, r *http.Request) {
	log := logging.Component(s.log, "http")

	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req TourRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Warn("invalid tour request body", "error", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	g, idx := s.current()
	if g == nil {
		http.Error(w, "Graph not built. Call /graph first", http.StatusBadRequest)
		return
	}

	engine, err := s.colony(req.ACO)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	start, ok := resolve(req.Start, g, idx)
	if !ok || len(req.Goals) == 0 {
		writeJSON(w, http.StatusOK, TourResponse{
			Tour:    []TourEdge{},
			Path:    []graph.Edge{},
			Message: "A known start and at least one goal are required",
		})
		return
	}

	began := time.Now()
	tour, err := engine.PlanTour(s.searcher(), g, start, req.Goals, log)
	if err != nil {
		writeJSON(w, http.StatusOK, TourResponse{
			Tour:    []TourEdge{},
			Path:    []graph.Edge{},
			Message: err.Error(),
		})
		return
	}

	resp := TourResponse{
		Tour:    make([]TourEdge, len(tour.Goals)),
		Path:    tour.Path,
		Success: true,
		Summary: engine.Summary(tour.Goals),
		Cost:    astar.Cost(tour.Path),
	}
	for i, e := range tour.Goals {
		resp.Tour[i] = TourEdge{Edge: e.Edge, Pheromone: e.Pheromone}
	}

	log.Info("tour computed", "start", start, "first_goal", tour.First, "tour_edges", len(tour.Goals),
		"path_edges", len(tour.Path), "duration", time.Since(began))
	writeJSON(w, http.StatusOK, resp)
}

// POST /simulate - Run missions to completion on a fresh simulator
func (s *Server) simulateHandler(w http.ResponseWriter, r *http.Request) {
	log := logging.Component(s.log, "http")

	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req SimulateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Warn("invalid simulate request body", "error", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	g, _ := s.current()
	if g == nil {
		http.Error(w, "Graph not built. Call /graph first", http.StatusBadRequest)
		return
	}

	engine, err := s.colony(nil)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	simulator, err := sim.New(g, s.simConfig(),
		sim.WithLogger(logging.Component(s.log, "sim")),
		sim.WithSearcher(s.searcher()),
		sim.WithEngine(engine))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	simulator.Spawn(req.Agents)

	maxSteps := req.MaxSteps
	if maxSteps <= 0 {
		maxSteps = defaultMaxSteps
	}
	dt := s.cfg.Sim.TickInterval.Seconds()
	if dt <= 0 {
		dt = 1.0 / 60
	}
	events, idle := simulator.RunUntilIdle(dt, maxSteps)
	if events == nil {
		events = []sim.Event{}
	}

	writeJSON(w, http.StatusOK, SimulateResponse{
		Events: events,
		Agents: simulator.Agents(),
		Ticks:  simulator.Tick(),
		Idle:   idle,
	})
}

// GET /health - Health check endpoint
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	g, _ := s.current()

	status := "ready"
	numNodes, numEdges := 0, 0
	if g == nil {
		status = "waiting for graph"
	} else {
		numNodes, numEdges = g.NumNodes(), g.NumEdges()
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":   status,
		"hasGraph": g != nil,
		"numNodes": numNodes,
		"numEdges": numEdges,
	})
}
