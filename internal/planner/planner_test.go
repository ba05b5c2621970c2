package planner

import (
	"errors"
	"reflect"
	"testing"

	"vorp/internal/model"
)

func loc(lat, lng float64, demand int) model.Location {
	return model.Location{Latitude: lat, Longitude: lng, Demand: demand}
}

func TestBuildRequestZeroesDepotDemand(t *testing.T) {
	locs := []model.Location{loc(10, 20, 5), loc(11, 21, 3)}
	fleet := []model.Vehicle{{ID: "a", Seq: 1, Capacity: 10}}
	req, err := BuildRequest(locs, 0, true, fleet)
	if err != nil {
		t.Fatalf("BuildRequest: %v", err)
	}
	if want := [][2]float64{{20, 10}, {21, 11}}; !reflect.DeepEqual(req.Locations, want) {
		t.Fatalf("locations: got %v want %v", req.Locations, want)
	}
	if want := []int{0, 3}; !reflect.DeepEqual(req.Demands, want) {
		t.Fatalf("demands: got %v want %v", req.Demands, want)
	}
	if req.NumVehicles != 1 || req.Depot != 0 || !reflect.DeepEqual(req.Capacities, []int{10}) {
		t.Fatalf("unexpected request: %+v", req)
	}
}

func TestBuildRequestValidationOrder(t *testing.T) {
	two := []model.Location{loc(1, 1, 0), loc(2, 2, 0)}
	fleet := []model.Vehicle{{ID: "a", Seq: 1, Capacity: 5}}
	cases := []struct {
		name     string
		locs     []model.Location
		depot    int
		hasDepot bool
		fleet    []model.Vehicle
		code     string
	}{
		{"one location, no vehicles, no depot", two[:1], 0, false, nil, CodeInsufficientLocations},
		{"no vehicles beats no depot", two, 0, false, nil, CodeNoVehicles},
		{"no depot", two, 0, false, fleet, CodeNoDepot},
		{"depot out of range", two, 2, true, fleet, CodeNoDepot},
	}
	for _, tc := range cases {
		_, err := BuildRequest(tc.locs, tc.depot, tc.hasDepot, tc.fleet)
		var ve *ValidationError
		if !errors.As(err, &ve) {
			t.Fatalf("%s: expected ValidationError, got %v", tc.name, err)
		}
		if ve.Code != tc.code {
			t.Fatalf("%s: code %q want %q", tc.name, ve.Code, tc.code)
		}
	}
}

func TestBuildRequestRejectsOversizedDemand(t *testing.T) {
	locs := []model.Location{loc(0, 1, 0), loc(1, 1, 12), loc(2, 2, 3), loc(3, 3, 15)}
	fleet := []model.Vehicle{{ID: "a", Seq: 1, Capacity: 10}, {ID: "b", Seq: 2, Capacity: 8}}
	_, err := BuildRequest(locs, 0, true, fleet)
	var ve *ValidationError
	if !errors.As(err, &ve) || ve.Code != CodeDemandExceedsCapacity {
		t.Fatalf("expected demand_exceeds_capacity, got %v", err)
	}
	if !reflect.DeepEqual(ve.Positions, []int{2, 4}) {
		t.Fatalf("positions: got %v", ve.Positions)
	}
}

func TestBuildRequestIgnoresDepotDemandInFeasibility(t *testing.T) {
	locs := []model.Location{loc(0, 1, 100), loc(1, 1, 2)}
	fleet := []model.Vehicle{{ID: "a", Seq: 1, Capacity: 5}}
	if _, err := BuildRequest(locs, 0, true, fleet); err != nil {
		t.Fatalf("depot demand must not count: %v", err)
	}
}

func TestRemoveShiftsDepot(t *testing.T) {
	s := NewLocationStore()
	for i := 0; i < 4; i++ {
		if _, err := s.Add(loc(float64(i), float64(i), 1)); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}
	if err := s.SetDepot(3); err != nil {
		t.Fatalf("SetDepot: %v", err)
	}
	if err := s.Remove(1); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if d, ok := s.Depot(); !ok || d != 2 {
		t.Fatalf("depot after earlier delete: %d %v", d, ok)
	}
	if err := s.Remove(2); err != nil {
		t.Fatalf("Remove depot: %v", err)
	}
	if _, ok := s.Depot(); ok {
		t.Fatalf("depot should be cleared after removing it")
	}
	if s.Len() != 2 {
		t.Fatalf("len: %d", s.Len())
	}
}

func TestRemoveAfterDepotKeepsIndex(t *testing.T) {
	s := NewLocationStore()
	s.Add(loc(1, 1, 0))
	s.Add(loc(2, 2, 0))
	s.Add(loc(3, 3, 0))
	s.SetDepot(0)
	s.Remove(2)
	if d, ok := s.Depot(); !ok || d != 0 {
		t.Fatalf("depot: %d %v", d, ok)
	}
}

func TestReplaceClearsDepot(t *testing.T) {
	s := NewLocationStore()
	s.Add(loc(1, 1, 0))
	s.SetDepot(0)
	if err := s.Replace([]model.Location{loc(5, 5, 1), loc(6, 6, 2)}); err != nil {
		t.Fatalf("Replace: %v", err)
	}
	if _, ok := s.Depot(); ok {
		t.Fatalf("depot should be cleared")
	}
	if s.Len() != 2 {
		t.Fatalf("len: %d", s.Len())
	}
}

func TestAddRejectsBadLocation(t *testing.T) {
	s := NewLocationStore()
	for _, l := range []model.Location{loc(91, 0, 0), loc(0, -181, 0), loc(0, 0, -1)} {
		if _, err := s.Add(l); err == nil {
			t.Fatalf("expected rejection of %+v", l)
		}
	}
	if s.Len() != 0 {
		t.Fatalf("rejected locations must not be stored")
	}
}

func TestFleetIDsNeverRepeat(t *testing.T) {
	f := NewFleet()
	vs, err := f.AddBatch(10, 3)
	if err != nil {
		t.Fatalf("AddBatch: %v", err)
	}
	if err := f.Remove(vs[2].ID); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	v, err := f.Add(5)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if v.Seq != 4 || v.ID == vs[2].ID {
		t.Fatalf("reused identity: %+v", v)
	}
	if v.Label() != "Vehicle 4" {
		t.Fatalf("label: %s", v.Label())
	}
	if _, err := f.Add(0); err == nil {
		t.Fatalf("capacity 0 should be rejected")
	}
	if err := f.Remove("missing"); err == nil {
		t.Fatalf("expected unknown vehicle error")
	}
}

func TestSelectionStaleID(t *testing.T) {
	var sel Selection
	routes := model.RouteSet{"0": nil}
	sel.Select("1")
	if _, ok := sel.Current(routes); ok {
		t.Fatalf("stale id should resolve to none")
	}
	sel.Select("0")
	if id, ok := sel.Current(routes); !ok || id != "0" {
		t.Fatalf("current: %q %v", id, ok)
	}
	sel.Clear()
	if _, ok := sel.Current(routes); ok {
		t.Fatalf("cleared selection")
	}
}
