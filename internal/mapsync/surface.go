// Package mapsync keeps a map surface consistent with the planning state:
// viewport, one overlay per route, and selection emphasis.
package mapsync

import (
	"context"
	"errors"

	"github.com/paulmach/orb"

	"vorp/internal/model"
)

// Surface is the map renderer the controller drives.
type Surface interface {
	FitBounds(ctx context.Context, v Viewport) error
	AddOverlay(ctx context.Context, o Overlay) error
	RemoveOverlay(ctx context.Context, id string) error
	StyleOverlay(ctx context.Context, id string, st Style) error
}

// Bounds is a lat/lng box.
type Bounds struct {
	South float64 `json:"south"`
	West  float64 `json:"west"`
	North float64 `json:"north"`
	East  float64 `json:"east"`
}

func boundsOf(b orb.Bound) Bounds {
	return Bounds{South: b.Min.Lat(), West: b.Min.Lon(), North: b.Max.Lat(), East: b.Max.Lon()}
}

// Viewport is what the map shows. Bounds is set once a fit has happened;
// before that the map sits at Center and Zoom.
type Viewport struct {
	Center  model.Point `json:"center"`
	Zoom    int         `json:"zoom"`
	Bounds  *Bounds     `json:"bounds,omitempty"`
	Padding int         `json:"padding"`
}

// DefaultViewport is the initial map position.
func DefaultViewport() Viewport {
	return Viewport{Center: model.Point{Lat: 12.921885, Lng: 80.084661}, Zoom: 12}
}

// Style is the visual emphasis of an overlay.
type Style struct {
	Weight  int     `json:"weight"`
	Opacity float64 `json:"opacity"`
}

var (
	BaseStyle     = Style{Weight: 4, Opacity: 1}
	SelectedStyle = Style{Weight: 8, Opacity: 1}
	DimmedStyle   = Style{Weight: 4, Opacity: 0.35}
)

// Overlay is the rendered geometry of one route. The renderer must only draw
// the line: no waypoint markers, no turn-by-turn panel, no editing handles.
type Overlay struct {
	ID           string           `json:"id"`
	Waypoints    []model.Waypoint `json:"waypoints"`
	Color        string           `json:"color"`
	Style        Style            `json:"style"`
	Markers      bool             `json:"markers"`
	Itinerary    bool             `json:"itinerary"`
	Draggable    bool             `json:"draggable"`
	AddWaypoints bool             `json:"addWaypoints"`
}

// Fanout applies each operation to every surface in order and joins errors.
type Fanout []Surface

func (f Fanout) FitBounds(ctx context.Context, v Viewport) error {
	var errs []error
	for _, s := range f {
		errs = append(errs, s.FitBounds(ctx, v))
	}
	return errors.Join(errs...)
}

func (f Fanout) AddOverlay(ctx context.Context, o Overlay) error {
	var errs []error
	for _, s := range f {
		errs = append(errs, s.AddOverlay(ctx, o))
	}
	return errors.Join(errs...)
}

func (f Fanout) RemoveOverlay(ctx context.Context, id string) error {
	var errs []error
	for _, s := range f {
		errs = append(errs, s.RemoveOverlay(ctx, id))
	}
	return errors.Join(errs...)
}

func (f Fanout) StyleOverlay(ctx context.Context, id string, st Style) error {
	var errs []error
	for _, s := range f {
		errs = append(errs, s.StyleOverlay(ctx, id, st))
	}
	return errors.Join(errs...)
}
