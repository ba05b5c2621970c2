package planner

import (
	"sort"
	"strconv"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"

	"vorp/internal/model"
)

// RouteStats summarizes one route for display.
type RouteStats struct {
	RouteID        string  `json:"routeId"`
	VehicleLabel   string  `json:"vehicle"`
	Capacity       int     `json:"capacity"`
	Load           int     `json:"load"`
	Utilization    float64 `json:"utilization"`
	Stops          int     `json:"stops"`
	Visited        []int   `json:"visited"`
	Positions      []int   `json:"positions"`
	DistanceMeters float64 `json:"distanceMeters"`
}

// ComputeStats derives load and utilization for the route keyed id. Waypoints
// are matched back to locations by exact coordinate equality; the first
// matching location wins and unmatched waypoints are ignored.
func ComputeStats(id string, path []model.Waypoint, locs []model.Location, depot int, hasDepot bool, fleet []model.Vehicle) RouteStats {
	st := RouteStats{RouteID: id, Visited: []int{}, Positions: []int{}}

	for _, wp := range path {
		for i, l := range locs {
			if l.Waypoint() == wp {
				st.Visited = append(st.Visited, i)
				break
			}
		}
	}
	if n := len(st.Visited); n >= 2 && st.Visited[0] == st.Visited[n-1] {
		st.Visited = st.Visited[:n-1]
	}

	for _, i := range st.Visited {
		st.Positions = append(st.Positions, i+1)
		if hasDepot && i == depot {
			continue
		}
		st.Load += locs[i].Demand
		st.Stops++
	}

	if ord, err := strconv.Atoi(id); err == nil && ord >= 0 && ord < len(fleet) {
		st.Capacity = fleet[ord].Capacity
		st.VehicleLabel = fleet[ord].Label()
	} else {
		st.VehicleLabel = "Vehicle " + id
	}
	denom := st.Capacity
	if denom <= 0 {
		denom = 1
	}
	st.Utilization = float64(st.Load) / float64(denom)
	st.DistanceMeters = geo.LengthHaversine(LineString(path))
	return st
}

// ComputeAllStats returns statistics for every route, ordered by route id.
func ComputeAllStats(routes model.RouteSet, locs []model.Location, depot int, hasDepot bool, fleet []model.Vehicle) []RouteStats {
	out := make([]RouteStats, 0, len(routes))
	for _, id := range SortedRouteIDs(routes) {
		out = append(out, ComputeStats(id, routes[id], locs, depot, hasDepot, fleet))
	}
	return out
}

// SortedRouteIDs orders numeric ids numerically, then any others lexically.
func SortedRouteIDs(routes model.RouteSet) []string {
	ids := make([]string, 0, len(routes))
	for id := range routes {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(a, b int) bool {
		na, errA := strconv.Atoi(ids[a])
		nb, errB := strconv.Atoi(ids[b])
		switch {
		case errA == nil && errB == nil:
			return na < nb
		case errA == nil:
			return true
		case errB == nil:
			return false
		}
		return ids[a] < ids[b]
	})
	return ids
}

// LineString converts a waypoint path to an orb geometry. Waypoints are
// already (lng, lat), which is orb's point order.
func LineString(path []model.Waypoint) orb.LineString {
	ls := make(orb.LineString, len(path))
	for i, wp := range path {
		ls[i] = orb.Point(wp)
	}
	return ls
}
