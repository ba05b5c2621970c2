package planner

import (
	"fmt"
	"strconv"
	"strings"
)

// Validation codes.
const (
	CodeInsufficientLocations = "insufficient_locations"
	CodeNoVehicles            = "no_vehicles"
	CodeNoDepot               = "no_depot"
	CodeDemandExceedsCapacity = "demand_exceeds_capacity"
	CodeInvalidLocation       = "invalid_location"
	CodeInvalidVehicle        = "invalid_vehicle"
	CodeIndexOutOfRange       = "index_out_of_range"
	CodeUnknownVehicle        = "unknown_vehicle"
)

// ValidationError is a precondition failure detected before any network call.
// It never mutates state.
type ValidationError struct {
	Code    string
	Message string
	// Positions holds 1-based location positions for CodeDemandExceedsCapacity.
	Positions []int
}

func (e *ValidationError) Error() string {
	if len(e.Positions) == 0 {
		return e.Message
	}
	ps := make([]string, len(e.Positions))
	for i, p := range e.Positions {
		ps[i] = strconv.Itoa(p)
	}
	return fmt.Sprintf("%s (points %s)", e.Message, strings.Join(ps, ", "))
}

func invalid(code, format string, args ...any) *ValidationError {
	return &ValidationError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// FormatError reports a solver response whose shape is not recognized.
type FormatError struct {
	// Keys are the top-level keys present in the body, sorted.
	Keys []string
	// Message is the body's "message" field, if it had one.
	Message string
	// Detail describes bodies that are not JSON objects.
	Detail string
}

func (e *FormatError) Error() string {
	msg := "expected 'routes' or 'calculated_routes', got: " + strings.Join(e.Keys, ", ")
	if e.Detail != "" {
		msg = "unrecognized response: " + e.Detail
	}
	if e.Message != "" {
		msg += " (message: " + e.Message + ")"
	}
	return msg
}

// PartialDataError is the advisory for a successful solve that returned no
// geometry. It is surfaced alongside the result, not as a failure.
type PartialDataError struct {
	Message string
}

func (e *PartialDataError) Error() string { return e.Message }
