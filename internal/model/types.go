package model

import (
	"encoding/json"
	"fmt"
)

// Core domain types shared by the planner, map sync and API layers.

// Location is a demand point placed on the map. Its identity is its position
// in the session's ordered location list.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Demand    int     `json:"demand"`
}

// Waypoint returns the location as a (longitude, latitude) pair, the axis
// order used on the solver wire and in every RouteSet.
func (l Location) Waypoint() Waypoint { return Waypoint{l.Longitude, l.Latitude} }

// UnmarshalJSON accepts the legacy "capacity" field as the demand, which is
// how older saved routes were serialized.
func (l *Location) UnmarshalJSON(b []byte) error {
	var raw struct {
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
		Demand    *int    `json:"demand"`
		Capacity  *int    `json:"capacity"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	l.Latitude = raw.Latitude
	l.Longitude = raw.Longitude
	l.Demand = 0
	switch {
	case raw.Demand != nil:
		l.Demand = *raw.Demand
	case raw.Capacity != nil:
		l.Demand = *raw.Capacity
	}
	return nil
}

// Waypoint is a (longitude, latitude) pair.
type Waypoint [2]float64

func (w Waypoint) Lng() float64 { return w[0] }
func (w Waypoint) Lat() float64 { return w[1] }

func (w Waypoint) String() string { return fmt.Sprintf("(%g,%g)", w[0], w[1]) }

// Vehicle is a fleet member. ID and Seq are never reused within a fleet.
type Vehicle struct {
	ID       string `json:"id"`
	Seq      int    `json:"seq"`
	Capacity int    `json:"capacity"`
}

// Label is the display name of the vehicle.
func (v Vehicle) Label() string { return fmt.Sprintf("Vehicle %d", v.Seq) }

// RouteRequest is the solver request body.
type RouteRequest struct {
	Locations   [][2]float64 `json:"locations"` // [lng, lat]
	NumVehicles int          `json:"num_vehicles"`
	Depot       int          `json:"depot"`
	Capacities  []int        `json:"capacities"`
	Demands     []int        `json:"demands"`
}

// RouteSet maps a route id (the solver's vehicle ordinal, stringified) to its
// ordered waypoints.
type RouteSet map[string][]Waypoint

// Clone returns a deep copy of the set.
func (rs RouteSet) Clone() RouteSet {
	if rs == nil {
		return nil
	}
	out := make(RouteSet, len(rs))
	for k, v := range rs {
		out[k] = append([]Waypoint(nil), v...)
	}
	return out
}

// Has reports whether the route id is present.
func (rs RouteSet) Has(id string) bool {
	_, ok := rs[id]
	return ok
}

// SavedRouteIn is the persistence insert payload: {user_id, name, data: {locations}}.
type SavedRouteIn struct {
	UserID string         `json:"user_id"`
	Name   string         `json:"name"`
	Data   SavedRouteData `json:"data"`
}

type SavedRouteData struct {
	Locations []Location `json:"locations"`
}

// SavedRoute is a persisted location list.
type SavedRoute struct {
	ID        string         `json:"id"`
	UserID    string         `json:"user_id"`
	Name      string         `json:"name"`
	Data      SavedRouteData `json:"data"`
	CreatedAt string         `json:"created_at,omitempty"`
}

// Read models for API responses

type LocationOut struct {
	Index    int     `json:"index"`
	Position int     `json:"position"`
	Lat      float64 `json:"latitude"`
	Lng      float64 `json:"longitude"`
	Demand   int     `json:"demand"`
	IsDepot  bool    `json:"isDepot"`
}

type RoutesOut struct {
	Routes     RouteSet `json:"routes"`
	SelectedID string   `json:"selectedRouteId,omitempty"`
}

type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}
