package planner

import (
	"bytes"
	"encoding/json"
	"math"
	"sort"
	"strconv"
	"strings"

	"vorp/internal/model"
)

// Shape names the solver response layout that was recognized.
type Shape string

const (
	ShapeNodeRoutes       Shape = "routes"
	ShapeKeyedCoordinates Shape = "calculated_routes_object"
	ShapeListCoordinates  Shape = "calculated_routes_array"
	ShapeStatusOnly       Shape = "status_only"
	ShapeUnknown          Shape = "unknown"
)

const advisoryNoGeometry = "solver reported success but returned no route geometry"

// Normalized is the result of Normalize.
type Normalized struct {
	Routes   model.RouteSet
	Shape    Shape
	Advisory *PartialDataError
}

type nodeRoute struct {
	Route json.RawMessage `json:"route"`
}

type nodeStep struct {
	Node json.RawMessage `json:"node"`
}

// Normalize converts any accepted solver response into a RouteSet. Node
// indices in the "routes" shape resolve against locs, which must be the list
// the request was built from.
func Normalize(body []byte, locs []model.Location) (Normalized, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(body, &top); err != nil || top == nil {
		return Normalized{Shape: ShapeUnknown}, &FormatError{Detail: describeBody(body)}
	}

	if raw, ok := top["routes"]; ok && !isNull(raw) {
		rs, err := fromNodeRoutes(raw, locs, top)
		if err != nil {
			return Normalized{Shape: ShapeNodeRoutes}, err
		}
		return Normalized{Routes: rs, Shape: ShapeNodeRoutes}, nil
	}

	if raw, ok := top["calculated_routes"]; ok && !isNull(raw) {
		switch firstByte(raw) {
		case '{':
			var m map[string]json.RawMessage
			if err := json.Unmarshal(raw, &m); err != nil {
				return Normalized{Shape: ShapeKeyedCoordinates}, formatError(top)
			}
			rs := make(model.RouteSet, len(m))
			for k, v := range m {
				if path, ok := decodePath(v); ok {
					rs[k] = path
				}
			}
			return Normalized{Routes: rs, Shape: ShapeKeyedCoordinates}, nil
		case '[':
			var list []json.RawMessage
			if err := json.Unmarshal(raw, &list); err != nil {
				return Normalized{Shape: ShapeListCoordinates}, formatError(top)
			}
			rs := make(model.RouteSet, len(list))
			for i, v := range list {
				if path, ok := decodePath(v); ok {
					rs[strconv.Itoa(i)] = path
				}
			}
			return Normalized{Routes: rs, Shape: ShapeListCoordinates}, nil
		default:
			return Normalized{Shape: ShapeUnknown}, formatError(top)
		}
	}

	if raw, ok := top["status"]; ok {
		var status string
		if json.Unmarshal(raw, &status) == nil && status == "success" {
			return Normalized{
				Routes:   model.RouteSet{},
				Shape:    ShapeStatusOnly,
				Advisory: &PartialDataError{Message: advisoryNoGeometry},
			}, nil
		}
	}

	return Normalized{Shape: ShapeUnknown}, formatError(top)
}

func fromNodeRoutes(raw json.RawMessage, locs []model.Location, top map[string]json.RawMessage) (model.RouteSet, error) {
	var entries []json.RawMessage
	if firstByte(raw) != '[' || json.Unmarshal(raw, &entries) != nil {
		return nil, formatError(top)
	}
	rs := make(model.RouteSet, len(entries))
	for i, e := range entries {
		var nr nodeRoute
		if firstByte(e) != '{' || json.Unmarshal(e, &nr) != nil || firstByte(nr.Route) != '[' {
			continue
		}
		var steps []json.RawMessage
		if json.Unmarshal(nr.Route, &steps) != nil {
			continue
		}
		path := make([]model.Waypoint, 0, len(steps))
		for _, s := range steps {
			wp := resolveNode(s, locs)
			// (0,0) is the unresolved sentinel; a real location there is lost too.
			if wp == (model.Waypoint{}) {
				continue
			}
			path = append(path, wp)
		}
		rs[strconv.Itoa(i)] = path
	}
	return rs, nil
}

func resolveNode(raw json.RawMessage, locs []model.Location) model.Waypoint {
	var st nodeStep
	if firstByte(raw) != '{' || json.Unmarshal(raw, &st) != nil || len(st.Node) == 0 {
		return model.Waypoint{}
	}
	f, ok := nodeIndex(st.Node)
	if !ok || f < 0 || f >= float64(len(locs)) {
		return model.Waypoint{}
	}
	return locs[int(f)].Waypoint()
}

// nodeIndex reads a node as a JSON number or numeric string. 1 and 1.0 are the
// same index; 1.5 is not an index.
func nodeIndex(raw json.RawMessage) (float64, bool) {
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		var s string
		if json.Unmarshal(raw, &s) != nil {
			return 0, false
		}
		if f, err = strconv.ParseFloat(strings.TrimSpace(s), 64); err != nil {
			return 0, false
		}
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	return f, true
}

// decodePath reads an array of [lng, lat] pairs. Anything else is rejected.
func decodePath(raw json.RawMessage) ([]model.Waypoint, bool) {
	if firstByte(raw) != '[' {
		return nil, false
	}
	var pairs [][]float64
	if err := json.Unmarshal(raw, &pairs); err != nil {
		return nil, false
	}
	path := make([]model.Waypoint, 0, len(pairs))
	for _, p := range pairs {
		if len(p) != 2 {
			return nil, false
		}
		path = append(path, model.Waypoint{p[0], p[1]})
	}
	return path, true
}

func formatError(top map[string]json.RawMessage) *FormatError {
	keys := make([]string, 0, len(top))
	for k := range top {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	fe := &FormatError{Keys: keys}
	if raw, ok := top["message"]; ok {
		var msg string
		if json.Unmarshal(raw, &msg) == nil {
			fe.Message = msg
		}
	}
	return fe
}

func describeBody(body []byte) string {
	switch b := firstByte(body); {
	case b == 0:
		return "empty body"
	case b == '[':
		return "JSON array"
	case json.Valid(body):
		return "JSON scalar"
	default:
		return "invalid JSON"
	}
}

func firstByte(raw []byte) byte {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return 0
	}
	return raw[0]
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
