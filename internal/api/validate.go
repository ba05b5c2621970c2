package api

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"vorp/internal/model"
)

// locationsRequest accepts a single location or {"locations": [...]}.
type locationsRequest struct {
	Locations []model.Location
}

func (lr *locationsRequest) UnmarshalJSON(b []byte) error {
	var probe struct {
		Locations []model.Location `json:"locations"`
		Latitude  *float64         `json:"latitude"`
		Longitude *float64         `json:"longitude"`
		// the map click shape {lat, lng} is accepted too
		Lat *float64 `json:"lat"`
		Lng *float64 `json:"lng"`
	}
	if err := json.Unmarshal(b, &probe); err != nil {
		return err
	}
	switch {
	case probe.Locations != nil:
		lr.Locations = probe.Locations
	case probe.Latitude != nil && probe.Longitude != nil:
		var l model.Location
		if err := json.Unmarshal(b, &l); err != nil {
			return err
		}
		lr.Locations = []model.Location{l}
	case probe.Lat != nil && probe.Lng != nil:
		var d struct {
			Demand int `json:"demand"`
		}
		_ = json.Unmarshal(b, &d)
		lr.Locations = []model.Location{{Latitude: *probe.Lat, Longitude: *probe.Lng, Demand: d.Demand}}
	default:
		return fmt.Errorf("expected a location or {\"locations\": [...]}")
	}
	return nil
}

func validateLocationsRequest(req *locationsRequest) error {
	if len(req.Locations) == 0 {
		return fmt.Errorf("at least one location is required")
	}
	return nil
}

type vehiclesRequest struct {
	Capacity int `json:"capacity"`
	Quantity int `json:"quantity"`
}

func validateVehiclesRequest(req *vehiclesRequest) error {
	if req.Quantity == 0 {
		req.Quantity = 1
	}
	if req.Quantity < 0 || req.Quantity > 100 {
		return fmt.Errorf("quantity must be in [1,100]")
	}
	return nil
}

type saveRequest struct {
	Name string `json:"name"`
}

func validateSaveRequest(req *saveRequest) error {
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return fmt.Errorf("name is required")
	}
	if len(req.Name) > 200 {
		return fmt.Errorf("name must be at most 200 characters")
	}
	return nil
}

type clickRequest struct {
	Lat *float64 `json:"lat"`
	Lng *float64 `json:"lng"`
}

func validateClickRequest(req *clickRequest) error {
	if req.Lat == nil || req.Lng == nil {
		return fmt.Errorf("lat and lng are required")
	}
	return nil
}

func parseIndex(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid index %q", s)
	}
	return n, nil
}
