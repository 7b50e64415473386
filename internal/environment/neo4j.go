package environment

import (
	"context"
	"errors"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"fleet-planner/internal/graph"
)

// ErrMissingURI indicates the graph URI is not provided.
var ErrMissingURI = errors.New("environment: graph URI is required")

// waypointQuery returns one row per waypoint with its outgoing connections.
const waypointQuery = `
MATCH (w:Waypoint)
OPTIONAL MATCH (w)-[:CONNECTS]->(n:Waypoint)
WITH w, n ORDER BY n.id
RETURN w.id AS id, w.x AS x, w.y AS y, w.z AS z, collect(n.id) AS connections
ORDER BY id`

// Record groups key-value pairs returned from the graph database.
type Record map[string]any

// Reader runs read queries. The Neo4j driver implements it in production and
// tests substitute canned records.
type Reader interface {
	ExecuteRead(ctx context.Context, cypher string, params map[string]any) ([]Record, error)
	Close(ctx context.Context) error
}

// Neo4jOptions configures the Bolt connection.
type Neo4jOptions struct {
	URI      string
	Database string
	Username string
	Password string
}

// Neo4jSource reads (:Waypoint {id,x,y,z})-[:CONNECTS]->(:Waypoint) graphs.
type Neo4jSource struct {
	reader Reader
}

// NewNeo4jSource establishes a Bolt connection and verifies it.
func NewNeo4jSource(ctx context.Context, opts Neo4jOptions) (*Neo4jSource, error) {
	if opts.URI == "" {
		return nil, ErrMissingURI
	}

	auth := neo4j.NoAuth()
	if opts.Username != "" {
		auth = neo4j.BasicAuth(opts.Username, opts.Password, "")
	}

	driver, err := neo4j.NewDriverWithContext(opts.URI, auth)
	if err != nil {
		return nil, fmt.Errorf("create neo4j driver: %w", err)
	}

	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("verify graph connectivity: %w", err)
	}

	return NewNeo4jSourceWithReader(&boltReader{driver: driver, database: opts.Database}), nil
}

// NewNeo4jSourceWithReader wraps an existing reader.
func NewNeo4jSourceWithReader(r Reader) *Neo4jSource {
	return &Neo4jSource{reader: r}
}

// Waypoints implements Source.
func (s *Neo4jSource) Waypoints(ctx context.Context) ([]graph.Waypoint, error) {
	records, err := s.reader.ExecuteRead(ctx, waypointQuery, nil)
	if err != nil {
		return nil, fmt.Errorf("query waypoints: %w", err)
	}

	waypoints := make([]graph.Waypoint, 0, len(records))
	for i, rec := range records {
		wp, err := recordWaypoint(rec)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		waypoints = append(waypoints, wp)
	}
	return waypoints, nil
}

// Close releases the connection pool.
func (s *Neo4jSource) Close(ctx context.Context) error {
	return s.reader.Close(ctx)
}

func recordWaypoint(rec Record) (graph.Waypoint, error) {
	id, ok := rec["id"].(string)
	if !ok || id == "" {
		return graph.Waypoint{}, fmt.Errorf("%w: missing id", ErrBadFeature)
	}

	var pos [3]float64
	for i, key := range []string{"x", "y", "z"} {
		v, ok := toFloat(rec[key])
		if !ok {
			return graph.Waypoint{}, fmt.Errorf("%w: %s has no numeric %s", ErrBadFeature, id, key)
		}
		pos[i] = v
	}

	wp := graph.Waypoint{
		ID:       graph.NodeID(id),
		Position: graph.Vec3{X: pos[0], Y: pos[1], Z: pos[2]},
	}
	if conns, ok := rec["connections"].([]any); ok {
		for _, c := range conns {
			if s, ok := c.(string); ok && s != "" {
				wp.Connections = append(wp.Connections, graph.NodeID(s))
			}
		}
	}
	return wp, nil
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int64:
		return float64(n), true
	case int:
		return float64(n), true
	default:
		return 0, false
	}
}

type boltReader struct {
	driver   neo4j.DriverWithContext
	database string
}

func (b *boltReader) ExecuteRead(ctx context.Context, cypher string, params map[string]any) ([]Record, error) {
	session := b.driver.NewSession(ctx, neo4j.SessionConfig{
		DatabaseName: b.database,
		AccessMode:   neo4j.AccessModeRead,
	})
	defer session.Close(ctx)

	res, err := session.Run(ctx, cypher, params)
	if err != nil {
		return nil, err
	}

	var records []Record
	for res.Next(ctx) {
		rec := res.Record()
		record := make(Record, len(rec.Keys))
		for _, key := range rec.Keys {
			value, _ := rec.Get(key)
			record[key] = value
		}
		records = append(records, record)
	}
	if err := res.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

func (b *boltReader) Close(ctx context.Context) error {
	return b.driver.Close(ctx)
}
