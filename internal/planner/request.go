package planner

import (
	"vorp/internal/model"
)

// BuildRequest validates the calculation preconditions and builds the solver
// request. The checks run in a fixed order and the first failure wins, except
// the demand check which reports every offending location.
func BuildRequest(locs []model.Location, depot int, hasDepot bool, fleet []model.Vehicle) (model.RouteRequest, error) {
	if len(locs) < 2 {
		return model.RouteRequest{}, invalid(CodeInsufficientLocations, "please add at least 2 points")
	}
	if len(fleet) < 1 {
		return model.RouteRequest{}, invalid(CodeNoVehicles, "please add at least 1 vehicle")
	}
	if !hasDepot || depot < 0 || depot >= len(locs) {
		return model.RouteRequest{}, invalid(CodeNoDepot, "please select a depot from your points")
	}

	// Feasibility pre-check only: a single stop must fit the largest vehicle.
	maxCap := MaxCapacity(fleet)
	var offending []int
	for i, l := range locs {
		if i == depot {
			continue
		}
		if l.Demand > maxCap {
			offending = append(offending, i+1)
		}
	}
	if len(offending) > 0 {
		return model.RouteRequest{}, &ValidationError{
			Code:      CodeDemandExceedsCapacity,
			Message:   "demand exceeds the largest vehicle capacity",
			Positions: offending,
		}
	}

	req := model.RouteRequest{
		Locations:   make([][2]float64, len(locs)),
		NumVehicles: len(fleet),
		Depot:       depot,
		Capacities:  make([]int, len(fleet)),
		Demands:     make([]int, len(locs)),
	}
	for i, l := range locs {
		req.Locations[i] = l.Waypoint()
		if i != depot {
			req.Demands[i] = l.Demand
		}
	}
	for i, v := range fleet {
		req.Capacities[i] = v.Capacity
	}
	return req, nil
}
