// Package session owns one planning session's state: locations, fleet,
// routes, selection and the map view. Every write goes through the session
// lock so map updates are applied in the order the edits happened.
package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"

	"vorp/internal/mapsync"
	"vorp/internal/metrics"
	"vorp/internal/model"
	"vorp/internal/obs"
	"vorp/internal/planner"
	"vorp/internal/store"
)

var (
	// ErrBusy is returned while a calculation or save is already running.
	// The request is dropped, not queued.
	ErrBusy = errors.New("operation already in progress")
	// ErrUnknownRoute is returned when selecting an id absent from the route set.
	ErrUnknownRoute = errors.New("unknown route")
)

// Solver posts a built request and returns the raw response body.
type Solver interface {
	Calculate(ctx context.Context, req model.RouteRequest) ([]byte, error)
}

// Deps are shared by every session.
type Deps struct {
	Solver Solver
	Store  store.Store
	// Publisher receives map events; nil keeps them in process only.
	Publisher mapsync.Publisher
	Palette   []string
	Padding   int
}

type Session struct {
	id   string
	deps Deps

	mu     sync.Mutex
	locs   *planner.LocationStore
	fleet  *planner.Fleet
	routes model.RouteSet
	sel    planner.Selection
	draft  *model.Point

	calculating atomic.Bool
	saving      atomic.Bool

	recorder *mapsync.Recorder
	remote   *mapsync.BrokerSurface
	mapc     *mapsync.Controller
}

func New(id string, deps Deps) *Session {
	s := &Session{
		id:       id,
		deps:     deps,
		locs:     planner.NewLocationStore(),
		fleet:    planner.NewFleet(),
		routes:   model.RouteSet{},
		recorder: mapsync.NewRecorder(),
	}
	var surface mapsync.Surface = s.recorder
	if deps.Publisher != nil {
		s.remote = mapsync.NewBrokerSurface(deps.Publisher, id)
		surface = mapsync.Fanout{s.recorder, s.remote}
	}
	s.mapc = mapsync.NewController(surface, mapsync.Options{
		Name:    id,
		Palette: deps.Palette,
		Padding: deps.Padding,
		OnClick: s.onClick,
	})
	return s
}

func (s *Session) ID() string { return s.id }

func (s *Session) ctx(ctx context.Context) context.Context { return obs.WithSession(ctx, s.id) }

// Locations

func (s *Session) Locations() []model.LocationOut {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.locs.Out()
}

// AddLocations appends in order and returns the index of the first one. The
// batch is all or nothing.
func (s *Session) AddLocations(ctx context.Context, ls ...model.Location) (int, error) {
	for _, l := range ls {
		if err := planner.ValidateLocation(l); err != nil {
			return 0, err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	first := s.locs.Len()
	for _, l := range ls {
		if _, err := s.locs.Add(l); err != nil {
			return 0, err
		}
	}
	s.draft = nil
	s.locationsChanged(ctx)
	return first, nil
}

func (s *Session) RemoveLocation(ctx context.Context, i int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.locs.Remove(i); err != nil {
		return err
	}
	s.locationsChanged(ctx)
	return nil
}

func (s *Session) SetDepot(i int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.locs.SetDepot(i)
}

func (s *Session) ClearDepot() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.locs.ClearDepot()
}

// locationsChanged runs with s.mu held.
func (s *Session) locationsChanged(ctx context.Context) {
	if err := s.mapc.LocationsChanged(s.ctx(ctx), s.locs.List(), s.routes); err != nil {
		log.Printf("session=%s map sync after location change: %v", s.id, err)
	}
}

// Vehicles

func (s *Session) Vehicles() []model.Vehicle {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fleet.List()
}

func (s *Session) AddVehicles(capacity, quantity int) ([]model.Vehicle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fleet.AddBatch(capacity, quantity)
}

func (s *Session) RemoveVehicle(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fleet.Remove(id)
}

// Routes

// Result is the outcome of a calculation. Advisory is set when the solver
// succeeded without geometry; Routes is then the unchanged prior set.
type Result struct {
	Routes   model.RouteSet `json:"routes"`
	Shape    planner.Shape  `json:"shape"`
	Advisory string         `json:"advisory,omitempty"`
}

// Calculate validates the current state, calls the solver and applies the
// normalized routes. Only one calculation runs at a time per session; a
// second call while one is pending gets ErrBusy. On any failure the previous
// routes stay in place.
func (s *Session) Calculate(ctx context.Context) (res Result, err error) {
	if !s.calculating.CompareAndSwap(false, true) {
		return Result{}, ErrBusy
	}
	defer s.calculating.Store(false)
	ctx = s.ctx(ctx)
	defer obs.Time(ctx, "calculate")(&err)

	s.mu.Lock()
	locs := s.locs.List()
	depot, hasDepot := s.locs.Depot()
	fleet := s.fleet.List()
	s.mu.Unlock()

	req, err := planner.BuildRequest(locs, depot, hasDepot, fleet)
	if err != nil {
		return Result{}, err
	}

	// No lock held while the solver works; edits and map interaction go on.
	body, err := s.deps.Solver.Calculate(ctx, req)
	if err != nil {
		return Result{}, err
	}

	n, err := planner.Normalize(body, locs)
	if err != nil {
		metrics.SolverRequests.WithLabelValues("format").Inc()
		metrics.Normalizations.WithLabelValues(string(n.Shape), "error").Inc()
		return Result{}, err
	}
	if n.Advisory != nil {
		metrics.SolverRequests.WithLabelValues("advisory").Inc()
		metrics.Normalizations.WithLabelValues(string(n.Shape), "advisory").Inc()
		s.mu.Lock()
		prior := s.routes.Clone()
		s.mu.Unlock()
		return Result{Routes: prior, Shape: n.Shape, Advisory: n.Advisory.Message}, nil
	}
	metrics.SolverRequests.WithLabelValues("ok").Inc()
	metrics.Normalizations.WithLabelValues(string(n.Shape), "ok").Inc()

	checkDepotEnds(s.id, n.Routes, locs, depot)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.routes = n.Routes
	if _, ok := s.sel.Current(s.routes); !ok {
		s.sel.Clear()
	}
	if err := s.mapc.RoutesChanged(ctx, s.routes); err != nil {
		log.Printf("session=%s map sync after calculate: %v", s.id, err)
	}
	return Result{Routes: s.routes.Clone(), Shape: n.Shape}, nil
}

// checkDepotEnds logs routes that do not start and end at the depot.
func checkDepotEnds(sid string, routes model.RouteSet, locs []model.Location, depot int) {
	want := locs[depot].Waypoint()
	for id, path := range routes {
		if len(path) == 0 {
			continue
		}
		if path[0] != want || path[len(path)-1] != want {
			log.Printf("session=%s route=%s does not start and end at depot %s", sid, id, want)
		}
	}
}

// Calculating reports whether a calculation is pending.
func (s *Session) Calculating() bool { return s.calculating.Load() }

func (s *Session) Routes() model.RoutesOut {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, _ := s.sel.Current(s.routes)
	return model.RoutesOut{Routes: s.routes.Clone(), SelectedID: id}
}

// Select highlights a route; an empty id clears the selection.
func (s *Session) Select(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id == "" {
		s.sel.Clear()
	} else {
		if !s.routes.Has(id) {
			return fmt.Errorf("%w: %q", ErrUnknownRoute, id)
		}
		s.sel.Select(id)
	}
	if err := s.mapc.SelectionChanged(s.ctx(ctx), id); err != nil {
		log.Printf("session=%s map sync after selection: %v", s.id, err)
	}
	return nil
}

// Stats returns per-route statistics against the current locations and fleet.
func (s *Session) Stats() []planner.RouteStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	depot, hasDepot := s.locs.Depot()
	return planner.ComputeAllStats(s.routes, s.locs.List(), depot, hasDepot, s.fleet.List())
}

// Map

type MapState struct {
	Phase    mapsync.Phase     `json:"phase"`
	Viewport mapsync.Viewport  `json:"viewport"`
	Overlays []mapsync.Overlay `json:"overlays"`
	Draft    *model.Point      `json:"draft,omitempty"`
}

func (s *Session) MapState() MapState {
	s.mu.Lock()
	defer s.mu.Unlock()
	var draft *model.Point
	if s.draft != nil {
		d := *s.draft
		draft = &d
	}
	return MapState{
		Phase:    s.mapc.Phase(),
		Viewport: s.recorder.Viewport(),
		Overlays: s.recorder.Overlays(),
		Draft:    draft,
	}
}

// Click forwards a map click through the controller to the session.
func (s *Session) Click(ctx context.Context, lat, lng float64) error {
	if err := planner.ValidateLocation(model.Location{Latitude: lat, Longitude: lng}); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mapc.Click(s.ctx(ctx), lat, lng)
	return nil
}

// onClick runs with s.mu held. The click becomes the draft point the user
// can confirm with a demand.
func (s *Session) onClick(ctx context.Context, lat, lng float64) {
	p := model.Point{Lat: lat, Lng: lng}
	s.draft = &p
	if s.remote != nil {
		if err := s.remote.Clicked(p); err != nil {
			log.Printf("session=%s publish click: %v", s.id, err)
		}
	}
}

// Persistence

// SaveLocations stores the current locations under name. Only one save runs
// at a time; it is independent of calculation.
func (s *Session) SaveLocations(ctx context.Context, userID, name string) (sr model.SavedRoute, err error) {
	if !s.saving.CompareAndSwap(false, true) {
		return model.SavedRoute{}, ErrBusy
	}
	defer s.saving.Store(false)
	ctx = s.ctx(ctx)
	defer obs.Time(ctx, "save_locations")(&err)

	s.mu.Lock()
	locs := s.locs.List()
	s.mu.Unlock()
	return s.deps.Store.SaveRoute(ctx, model.SavedRouteIn{
		UserID: userID,
		Name:   name,
		Data:   model.SavedRouteData{Locations: locs},
	})
}

// LoadSaved replaces the locations with a saved list and clears the depot.
func (s *Session) LoadSaved(ctx context.Context, userID, id string) (err error) {
	ctx = s.ctx(ctx)
	defer obs.Time(ctx, "load_saved")(&err)
	sr, err := s.deps.Store.GetSavedRoute(ctx, userID, id)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.locs.Replace(sr.Data.Locations); err != nil {
		return err
	}
	s.draft = nil
	s.locationsChanged(ctx)
	return nil
}
