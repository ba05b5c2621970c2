package planner

import (
	"github.com/google/uuid"

	"vorp/internal/model"
)

// Fleet is the ordered vehicle list. Vehicle IDs are generated and Seq comes
// from a counter that only grows, so neither repeats after deletions.
type Fleet struct {
	vehicles []model.Vehicle
	nextSeq  int
}

func NewFleet() *Fleet { return &Fleet{nextSeq: 1} }

// Add appends one vehicle.
func (f *Fleet) Add(capacity int) (model.Vehicle, error) {
	vs, err := f.AddBatch(capacity, 1)
	if err != nil {
		return model.Vehicle{}, err
	}
	return vs[0], nil
}

// AddBatch appends quantity vehicles of the same capacity.
func (f *Fleet) AddBatch(capacity, quantity int) ([]model.Vehicle, error) {
	if capacity <= 0 {
		return nil, invalid(CodeInvalidVehicle, "capacity must be > 0, got %d", capacity)
	}
	if quantity < 1 {
		return nil, invalid(CodeInvalidVehicle, "quantity must be >= 1, got %d", quantity)
	}
	added := make([]model.Vehicle, 0, quantity)
	for i := 0; i < quantity; i++ {
		v := model.Vehicle{ID: uuid.New().String(), Seq: f.nextSeq, Capacity: capacity}
		f.nextSeq++
		added = append(added, v)
	}
	f.vehicles = append(f.vehicles, added...)
	return added, nil
}

// Remove deletes the vehicle with the given id.
func (f *Fleet) Remove(id string) error {
	for i, v := range f.vehicles {
		if v.ID == id {
			f.vehicles = append(f.vehicles[:i:i], f.vehicles[i+1:]...)
			return nil
		}
	}
	return invalid(CodeUnknownVehicle, "vehicle %q not found", id)
}

func (f *Fleet) Len() int { return len(f.vehicles) }

// List returns a copy of the vehicles in fleet order.
func (f *Fleet) List() []model.Vehicle {
	return append([]model.Vehicle(nil), f.vehicles...)
}

// MaxCapacity returns the largest capacity in the fleet, 0 when empty.
func MaxCapacity(vs []model.Vehicle) int {
	max := 0
	for _, v := range vs {
		if v.Capacity > max {
			max = v.Capacity
		}
	}
	return max
}
