package environment

import (
	"context"
	"fmt"
	"os"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"fleet-planner/internal/graph"
	"fleet-planner/internal/logging"
)

// GeoJSON waypoint properties. Point coordinates carry X and Z; the height
// and the outgoing connections live in properties.
const (
	propID          = "id"
	propHeight      = "y"
	propConnections = "connections"
)

// GeoJSONSource reads waypoints from a GeoJSON FeatureCollection of Points.
type GeoJSONSource struct {
	Path string
	Log  logging.Logger
}

// Waypoints implements Source.
func (s GeoJSONSource) Waypoints(context.Context) ([]graph.Waypoint, error) {
	return LoadGeoJSON(s.Path, s.Log)
}

// LoadGeoJSON reads a waypoint FeatureCollection from a file.
func LoadGeoJSON(path string, log logging.Logger) ([]graph.Waypoint, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return ParseGeoJSON(data, log)
}

// ParseGeoJSON converts Point features into waypoints. Features with another
// geometry or without an identifier are logged and skipped.
func ParseGeoJSON(data []byte, log logging.Logger) ([]graph.Waypoint, error) {
	if log == nil {
		log = logging.NoOp{}
	}

	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse feature collection: %w", err)
	}

	waypoints := make([]graph.Waypoint, 0, len(fc.Features))
	for i, f := range fc.Features {
		wp, err := featureWaypoint(f)
		if err != nil {
			log.Warn("skipping feature", "index", i, "error", err)
			continue
		}
		waypoints = append(waypoints, wp)
	}

	log.Info("waypoints loaded from geojson", "features", len(fc.Features), "waypoints", len(waypoints))
	return waypoints, nil
}

func featureWaypoint(f *geojson.Feature) (graph.Waypoint, error) {
	pt, ok := f.Geometry.(orb.Point)
	if !ok {
		return graph.Waypoint{}, fmt.Errorf("%w: geometry %T is not a point", ErrBadFeature, f.Geometry)
	}

	id := f.Properties.MustString(propID, "")
	if id == "" && f.ID != nil {
		id = fmt.Sprint(f.ID)
	}
	if id == "" {
		return graph.Waypoint{}, fmt.Errorf("%w: missing id", ErrBadFeature)
	}

	wp := graph.Waypoint{
		ID: graph.NodeID(id),
		Position: graph.Vec3{
			X: pt.X(),
			Y: f.Properties.MustFloat64(propHeight, 0),
			Z: pt.Y(),
		},
	}

	if raw, ok := f.Properties[propConnections].([]interface{}); ok {
		for _, c := range raw {
			if s, ok := c.(string); ok && s != "" {
				wp.Connections = append(wp.Connections, graph.NodeID(s))
			}
		}
	}
	return wp, nil
}

// WaypointsGeoJSON renders waypoints in the format ParseGeoJSON reads.
func WaypointsGeoJSON(waypoints []graph.Waypoint) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, wp := range waypoints {
		f := geojson.NewFeature(groundPoint(wp.Position))
		f.Properties[propID] = string(wp.ID)
		f.Properties[propHeight] = wp.Position.Y
		conns := make([]string, len(wp.Connections))
		for i, c := range wp.Connections {
			conns[i] = string(c)
		}
		f.Properties[propConnections] = conns
		fc.Append(f)
	}
	return fc
}

// ExportRouteGeoJSON renders a contiguous route as a LineString on the X/Z
// ground plane, followed by one Point per visited waypoint.
func ExportRouteGeoJSON(g *graph.Graph, route []graph.Edge) (*geojson.FeatureCollection, error) {
	fc := geojson.NewFeatureCollection()
	if len(route) == 0 {
		return fc, nil
	}

	ids := make([]graph.NodeID, 0, len(route)+1)
	ids = append(ids, route[0].From)
	total := 0.0
	for _, e := range route {
		ids = append(ids, e.To)
		total += e.Cost
	}

	line := make(orb.LineString, 0, len(ids))
	points := make([]*geojson.Feature, 0, len(ids))
	for i, id := range ids {
		n, ok := g.Node(id)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownWaypoint, id)
		}
		line = append(line, groundPoint(n.Position))

		p := geojson.NewFeature(groundPoint(n.Position))
		p.Properties[propID] = string(id)
		p.Properties[propHeight] = n.Position.Y
		p.Properties["sequence"] = i
		points = append(points, p)
	}

	lf := geojson.NewFeature(line)
	lf.Properties["edges"] = len(route)
	lf.Properties["cost"] = total
	fc.Append(lf)
	for _, p := range points {
		fc.Append(p)
	}
	return fc, nil
}

// ExportGraphGeoJSON renders every connection of g as one MultiLineString.
func ExportGraphGeoJSON(g *graph.Graph) *geojson.FeatureCollection {
	segments := g.LineStrings()
	mls := make(orb.MultiLineString, 0, len(segments))
	for _, s := range segments {
		mls = append(mls, orb.LineString{groundPoint(s[0]), groundPoint(s[1])})
	}

	f := geojson.NewFeature(mls)
	f.Properties["nodes"] = g.NumNodes()
	f.Properties["edges"] = g.NumEdges()

	fc := geojson.NewFeatureCollection()
	fc.Append(f)
	return fc
}

func groundPoint(p graph.Vec3) orb.Point {
	return orb.Point{p.X, p.Z}
}
