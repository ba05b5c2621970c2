// Package planner holds the route planning core: the location and vehicle
// collections, solver request building, response normalization, route
// statistics and route selection.
package planner

import (
	"vorp/internal/model"
)

// LocationStore is the ordered location list plus the optional depot pointer.
// It is not safe for concurrent use; the owning session serializes access.
type LocationStore struct {
	locs     []model.Location
	depot    int
	hasDepot bool
}

func NewLocationStore() *LocationStore { return &LocationStore{} }

// ValidateLocation checks coordinate ranges and demand sign.
func ValidateLocation(l model.Location) error {
	if l.Latitude < -90 || l.Latitude > 90 {
		return invalid(CodeInvalidLocation, "latitude %g out of range [-90, 90]", l.Latitude)
	}
	if l.Longitude < -180 || l.Longitude > 180 {
		return invalid(CodeInvalidLocation, "longitude %g out of range [-180, 180]", l.Longitude)
	}
	if l.Demand < 0 {
		return invalid(CodeInvalidLocation, "demand must be >= 0, got %d", l.Demand)
	}
	return nil
}

// Add appends a location and returns its index.
func (s *LocationStore) Add(l model.Location) (int, error) {
	if err := ValidateLocation(l); err != nil {
		return 0, err
	}
	s.locs = append(s.locs, l)
	return len(s.locs) - 1, nil
}

// Remove deletes the location at index i. Removing the depot clears it; a
// depot after i shifts down so it keeps pointing at the same location.
func (s *LocationStore) Remove(i int) error {
	if i < 0 || i >= len(s.locs) {
		return invalid(CodeIndexOutOfRange, "location index %d out of range (have %d)", i, len(s.locs))
	}
	s.locs = append(s.locs[:i:i], s.locs[i+1:]...)
	if s.hasDepot {
		switch {
		case s.depot == i:
			s.hasDepot = false
			s.depot = 0
		case s.depot > i:
			s.depot--
		}
	}
	return nil
}

// Replace swaps in a whole new list (loading a saved route). The depot is cleared.
func (s *LocationStore) Replace(locs []model.Location) error {
	for _, l := range locs {
		if err := ValidateLocation(l); err != nil {
			return err
		}
	}
	s.locs = append([]model.Location(nil), locs...)
	s.hasDepot = false
	s.depot = 0
	return nil
}

// SetDepot marks the location at index i as the depot.
func (s *LocationStore) SetDepot(i int) error {
	if i < 0 || i >= len(s.locs) {
		return invalid(CodeIndexOutOfRange, "depot index %d out of range (have %d)", i, len(s.locs))
	}
	s.depot = i
	s.hasDepot = true
	return nil
}

func (s *LocationStore) ClearDepot() {
	s.hasDepot = false
	s.depot = 0
}

// Depot returns the depot index, if one is selected.
func (s *LocationStore) Depot() (int, bool) { return s.depot, s.hasDepot }

func (s *LocationStore) Len() int { return len(s.locs) }

// List returns a copy of the locations.
func (s *LocationStore) List() []model.Location {
	return append([]model.Location(nil), s.locs...)
}

// Out returns the API read model.
func (s *LocationStore) Out() []model.LocationOut {
	out := make([]model.LocationOut, 0, len(s.locs))
	for i, l := range s.locs {
		out = append(out, model.LocationOut{
			Index:    i,
			Position: i + 1,
			Lat:      l.Latitude,
			Lng:      l.Longitude,
			Demand:   l.Demand,
			IsDepot:  s.hasDepot && s.depot == i,
		})
	}
	return out
}
