package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"vorp/internal/events"
	"vorp/internal/mapsync"
	"vorp/internal/model"
	"vorp/internal/planner"
	"vorp/internal/solver"
	"vorp/internal/store"
)

type fakeSolver struct {
	body    []byte
	err     error
	calls   int
	started chan struct{}
	release chan struct{}
}

func (f *fakeSolver) Calculate(ctx context.Context, req model.RouteRequest) ([]byte, error) {
	f.calls++
	if f.started != nil {
		f.started <- struct{}{}
		<-f.release
	}
	return f.body, f.err
}

func newSession(t *testing.T, sv Solver) *Session {
	t.Helper()
	return New("t", Deps{Solver: sv, Store: store.NewMemory()})
}

// seed adds a depot and two stops at distinct coordinates plus one vehicle.
func seed(t *testing.T, s *Session) {
	t.Helper()
	ctx := context.Background()
	if _, err := s.AddLocations(ctx,
		model.Location{Latitude: 12.9, Longitude: 80.1},
		model.Location{Latitude: 13.0, Longitude: 80.2, Demand: 3},
		model.Location{Latitude: 13.1, Longitude: 80.3, Demand: 4},
	); err != nil {
		t.Fatalf("AddLocations: %v", err)
	}
	if err := s.SetDepot(0); err != nil {
		t.Fatalf("SetDepot: %v", err)
	}
	if _, err := s.AddVehicles(10, 2); err != nil {
		t.Fatalf("AddVehicles: %v", err)
	}
}

const twoRoutes = `{"routes":[{"route":[{"node":0},{"node":1},{"node":0}]},{"route":[{"node":0},{"node":2},{"node":0}]}]}`

func TestCalculateAppliesRoutesAndSyncsMap(t *testing.T) {
	s := newSession(t, &fakeSolver{body: []byte(twoRoutes)})
	seed(t, s)
	res, err := s.Calculate(context.Background())
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}
	if len(res.Routes) != 2 || res.Shape != planner.ShapeNodeRoutes {
		t.Fatalf("result: %+v", res)
	}
	st := s.MapState()
	if len(st.Overlays) != 2 || st.Phase != mapsync.PhaseIdle {
		t.Fatalf("map state: %+v", st)
	}
	stats := s.Stats()
	if len(stats) != 2 || stats[0].Load != 3 || stats[1].Load != 4 || stats[0].Capacity != 10 {
		t.Fatalf("stats: %+v", stats)
	}
}

func TestCalculateValidationDoesNotCallSolver(t *testing.T) {
	sv := &fakeSolver{body: []byte(twoRoutes)}
	s := newSession(t, sv)
	_, err := s.Calculate(context.Background())
	var ve *planner.ValidationError
	if !errors.As(err, &ve) || ve.Code != planner.CodeInsufficientLocations {
		t.Fatalf("expected insufficient_locations, got %v", err)
	}
	if sv.calls != 0 {
		t.Fatalf("solver called %d times", sv.calls)
	}
}

func TestFailuresKeepPriorRoutes(t *testing.T) {
	sv := &fakeSolver{body: []byte(twoRoutes)}
	s := newSession(t, sv)
	seed(t, s)
	ctx := context.Background()
	if _, err := s.Calculate(ctx); err != nil {
		t.Fatalf("Calculate: %v", err)
	}

	sv.body = []byte(`{"foo":1}`)
	var fe *planner.FormatError
	if _, err := s.Calculate(ctx); !errors.As(err, &fe) {
		t.Fatalf("expected FormatError, got %v", err)
	}
	if len(s.Routes().Routes) != 2 {
		t.Fatalf("format error replaced routes")
	}

	sv.body, sv.err = nil, &solver.TransportError{StatusCode: 503, Status: "503 Service Unavailable"}
	var te *solver.TransportError
	if _, err := s.Calculate(ctx); !errors.As(err, &te) {
		t.Fatalf("expected TransportError, got %v", err)
	}
	if len(s.Routes().Routes) != 2 {
		t.Fatalf("transport error replaced routes")
	}

	sv.body, sv.err = []byte(`{"status":"success"}`), nil
	res, err := s.Calculate(ctx)
	if err != nil || res.Advisory == "" {
		t.Fatalf("expected advisory, got %+v %v", res, err)
	}
	if len(res.Routes) != 2 || len(s.MapState().Overlays) != 2 {
		t.Fatalf("advisory outcome replaced routes")
	}
}

func TestConcurrentCalculateIsIgnored(t *testing.T) {
	sv := &fakeSolver{body: []byte(twoRoutes), started: make(chan struct{}), release: make(chan struct{})}
	s := newSession(t, sv)
	seed(t, s)

	done := make(chan error, 1)
	go func() {
		_, err := s.Calculate(context.Background())
		done <- err
	}()
	<-sv.started

	if _, err := s.Calculate(context.Background()); !errors.Is(err, ErrBusy) {
		t.Fatalf("expected ErrBusy, got %v", err)
	}
	// edits and clicks are not blocked by the pending call
	if err := s.Click(context.Background(), 13.2, 80.4); err != nil {
		t.Fatalf("Click while calculating: %v", err)
	}
	if _, err := s.AddLocations(context.Background(), model.Location{Latitude: 13.3, Longitude: 80.5, Demand: 1}); err != nil {
		t.Fatalf("AddLocations while calculating: %v", err)
	}

	close(sv.release)
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("first Calculate: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("calculation did not finish")
	}
	if sv.calls != 1 {
		t.Fatalf("solver calls: %d", sv.calls)
	}
	if s.Calculating() {
		t.Fatal("busy flag not cleared")
	}
}

func TestSelectAndClear(t *testing.T) {
	s := newSession(t, &fakeSolver{body: []byte(twoRoutes)})
	seed(t, s)
	ctx := context.Background()
	s.Calculate(ctx)
	if err := s.Select(ctx, "9"); !errors.Is(err, ErrUnknownRoute) {
		t.Fatalf("expected ErrUnknownRoute, got %v", err)
	}
	if err := s.Select(ctx, "1"); err != nil {
		t.Fatalf("Select: %v", err)
	}
	if s.Routes().SelectedID != "1" {
		t.Fatalf("selected: %q", s.Routes().SelectedID)
	}
	for _, o := range s.MapState().Overlays {
		if o.ID == "1" && o.Style != mapsync.SelectedStyle {
			t.Fatalf("selected overlay style: %+v", o.Style)
		}
	}
	if err := s.Select(ctx, ""); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if s.Routes().SelectedID != "" {
		t.Fatal("selection not cleared")
	}
}

func TestSaveAndLoadClearsDepot(t *testing.T) {
	s := newSession(t, &fakeSolver{})
	seed(t, s)
	ctx := context.Background()
	sr, err := s.SaveLocations(ctx, "u1", "morning")
	if err != nil {
		t.Fatalf("SaveLocations: %v", err)
	}
	if err := s.RemoveLocation(ctx, 2); err != nil {
		t.Fatalf("RemoveLocation: %v", err)
	}
	if err := s.LoadSaved(ctx, "u1", sr.ID); err != nil {
		t.Fatalf("LoadSaved: %v", err)
	}
	locs := s.Locations()
	if len(locs) != 3 {
		t.Fatalf("locations: %d", len(locs))
	}
	for _, l := range locs {
		if l.IsDepot {
			t.Fatal("depot should be cleared after load")
		}
	}
	if err := s.LoadSaved(ctx, "u1", "missing"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestClickSetsDraftAndPublishes(t *testing.T) {
	b := events.NewBroker()
	ch := b.Subscribe(mapsync.Topic("t"))
	s := New("t", Deps{Solver: &fakeSolver{}, Store: store.NewMemory(), Publisher: b})
	if err := s.Click(context.Background(), 12.95, 80.15); err != nil {
		t.Fatalf("Click: %v", err)
	}
	if d := s.MapState().Draft; d == nil || d.Lat != 12.95 || d.Lng != 80.15 {
		t.Fatalf("draft: %+v", d)
	}
	select {
	case evt := <-ch:
		if evt.Type != mapsync.EventClick {
			t.Fatalf("event: %s", evt.Type)
		}
	case <-time.After(time.Second):
		t.Fatal("no click event")
	}
	if err := s.Click(context.Background(), 95, 0); err == nil {
		t.Fatal("expected invalid click to be rejected")
	}
}

func TestRegistryReusesSessions(t *testing.T) {
	r := NewRegistry(Deps{Solver: &fakeSolver{}, Store: store.NewMemory()})
	if r.Get("") != r.Get(DefaultID) {
		t.Fatal("empty id should map to default session")
	}
	if r.Get("a") == r.Get("b") {
		t.Fatal("distinct ids share a session")
	}
	if len(r.IDs()) != 3 {
		t.Fatalf("ids: %v", r.IDs())
	}
}
