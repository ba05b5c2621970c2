package mapsync

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/paulmach/orb"

	"vorp/internal/metrics"
	"vorp/internal/model"
	"vorp/internal/planner"
)

// Phase is the controller's position within a single update.
type Phase string

const (
	PhaseIdle              Phase = "idle"
	PhaseFittingBounds     Phase = "fitting_bounds"
	PhaseRenderingOverlays Phase = "rendering_overlays"
)

// DefaultPalette colours routes by ordinal, wrapping around.
var DefaultPalette = []string{
	"#FF5733", "#33FF57", "#3357FF", "#F033FF", "#FF33A1",
	"#33FFF6", "#FFBD33", "#8833FF", "#FF3333", "#33FFBD",
}

const DefaultPadding = 50

// Options configures a Controller.
type Options struct {
	// Name labels metrics, usually the session id.
	Name    string
	Palette []string
	Padding int
	// OnClick receives map clicks as (lat, lng).
	OnClick func(ctx context.Context, lat, lng float64)
}

// Controller owns the overlays and viewport of one map. It is driven by a
// single state owner and is not safe for concurrent use.
type Controller struct {
	surface Surface
	opts    Options

	phase    Phase
	viewport Viewport
	overlays []string // live overlay ids, creation order
	routes   model.RouteSet
	selected string
}

func NewController(surface Surface, opts Options) *Controller {
	if len(opts.Palette) == 0 {
		opts.Palette = DefaultPalette
	}
	if opts.Padding <= 0 {
		opts.Padding = DefaultPadding
	}
	return &Controller{surface: surface, opts: opts, phase: PhaseIdle, viewport: DefaultViewport()}
}

func (c *Controller) Phase() Phase { return c.phase }

func (c *Controller) Viewport() Viewport { return c.viewport }

// OverlayIDs returns the ids of the overlays the controller created.
func (c *Controller) OverlayIDs() []string { return append([]string(nil), c.overlays...) }

// Color returns the palette colour for the route at ordinal i.
func (c *Controller) Color(i int) string { return c.opts.Palette[i%len(c.opts.Palette)] }

// LocationsChanged refits the viewport to all locations and redraws routes.
// An empty list leaves the viewport where it is.
func (c *Controller) LocationsChanged(ctx context.Context, locs []model.Location, routes model.RouteSet) error {
	defer func() { c.phase = PhaseIdle }()
	c.phase = PhaseFittingBounds

	var fitErr error
	if len(locs) > 0 {
		mp := make(orb.MultiPoint, len(locs))
		for i, l := range locs {
			mp[i] = orb.Point(l.Waypoint())
		}
		b := mp.Bound()
		center := b.Center()
		bounds := boundsOf(b)
		v := Viewport{
			Center:  model.Point{Lat: center.Lat(), Lng: center.Lon()},
			Zoom:    c.viewport.Zoom,
			Bounds:  &bounds,
			Padding: c.opts.Padding,
		}
		c.countOp("fit")
		if err := c.surface.FitBounds(ctx, v); err != nil {
			log.Printf("map=%s fit bounds err=%v", c.opts.Name, err)
			fitErr = fmt.Errorf("fit bounds: %w", err)
		}
		c.viewport = v
	}
	return errors.Join(fitErr, c.render(ctx, routes))
}

// RoutesChanged destroys every overlay and creates one per route.
func (c *Controller) RoutesChanged(ctx context.Context, routes model.RouteSet) error {
	defer func() { c.phase = PhaseIdle }()
	return c.render(ctx, routes)
}

func (c *Controller) render(ctx context.Context, routes model.RouteSet) error {
	c.phase = PhaseRenderingOverlays

	// Removal is best effort: a failed remove is logged and the overlay
	// forgotten so it is never removed twice.
	for _, id := range c.overlays {
		c.countOp("remove")
		if err := c.surface.RemoveOverlay(ctx, id); err != nil {
			log.Printf("map=%s remove overlay=%s err=%v", c.opts.Name, id, err)
		}
	}
	c.overlays = c.overlays[:0]
	c.routes = routes.Clone()

	var errs []error
	for i, id := range planner.SortedRouteIDs(routes) {
		o := Overlay{
			ID:        id,
			Waypoints: append([]model.Waypoint(nil), routes[id]...),
			Color:     c.Color(i),
			Style:     BaseStyle,
		}
		c.countOp("add")
		if err := c.surface.AddOverlay(ctx, o); err != nil {
			log.Printf("map=%s add overlay=%s err=%v", c.opts.Name, id, err)
			errs = append(errs, fmt.Errorf("add overlay %s: %w", id, err))
			continue
		}
		c.overlays = append(c.overlays, id)
	}
	metrics.OverlaysActive.WithLabelValues(c.opts.Name).Set(float64(len(c.overlays)))

	if c.selected != "" {
		errs = append(errs, c.applySelection(ctx))
	}
	return errors.Join(errs...)
}

// SelectionChanged restyles the existing overlays. An empty or unknown id
// restores every overlay to its base style.
func (c *Controller) SelectionChanged(ctx context.Context, id string) error {
	c.selected = id
	return c.applySelection(ctx)
}

func (c *Controller) applySelection(ctx context.Context) error {
	selected := c.selected
	if !c.routes.Has(selected) {
		selected = ""
		c.selected = ""
	}
	var errs []error
	for _, oid := range c.overlays {
		st := BaseStyle
		switch {
		case selected == "":
		case oid == selected:
			st = SelectedStyle
		default:
			st = DimmedStyle
		}
		c.countOp("style")
		if err := c.surface.StyleOverlay(ctx, oid, st); err != nil {
			log.Printf("map=%s style overlay=%s err=%v", c.opts.Name, oid, err)
			errs = append(errs, fmt.Errorf("style overlay %s: %w", oid, err))
		}
	}
	return errors.Join(errs...)
}

// Click forwards a map click to the host. The controller never edits
// locations itself.
func (c *Controller) Click(ctx context.Context, lat, lng float64) {
	if c.opts.OnClick != nil {
		c.opts.OnClick(ctx, lat, lng)
	}
}

func (c *Controller) countOp(op string) { metrics.OverlayOps.WithLabelValues(op).Inc() }
