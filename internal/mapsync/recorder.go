package mapsync

import (
	"context"
	"fmt"
	"sync"
)

// Recorder is an in-memory Surface. It holds what a renderer would currently
// display and counts the operations it received.
type Recorder struct {
	mu       sync.Mutex
	viewport Viewport
	overlays map[string]Overlay
	order    []string
	ops      map[string]int
}

func NewRecorder() *Recorder {
	return &Recorder{viewport: DefaultViewport(), overlays: map[string]Overlay{}, ops: map[string]int{}}
}

func (r *Recorder) FitBounds(_ context.Context, v Viewport) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.viewport = v
	r.ops["fit"]++
	return nil
}

func (r *Recorder) AddOverlay(_ context.Context, o Overlay) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ops["add"]++
	if _, ok := r.overlays[o.ID]; ok {
		return fmt.Errorf("overlay %q already on map", o.ID)
	}
	r.overlays[o.ID] = o
	r.order = append(r.order, o.ID)
	return nil
}

func (r *Recorder) RemoveOverlay(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ops["remove"]++
	if _, ok := r.overlays[id]; !ok {
		return fmt.Errorf("overlay %q not on map", id)
	}
	delete(r.overlays, id)
	for i, oid := range r.order {
		if oid == id {
			r.order = append(r.order[:i:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

func (r *Recorder) StyleOverlay(_ context.Context, id string, st Style) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ops["style"]++
	o, ok := r.overlays[id]
	if !ok {
		return fmt.Errorf("overlay %q not on map", id)
	}
	o.Style = st
	r.overlays[id] = o
	return nil
}

// Viewport returns the last fitted viewport.
func (r *Recorder) Viewport() Viewport {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.viewport
}

// Overlays returns the live overlays in creation order.
func (r *Recorder) Overlays() []Overlay {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Overlay, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.overlays[id])
	}
	return out
}

// Ops returns operation counts keyed by op name.
func (r *Recorder) Ops() map[string]int {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]int, len(r.ops))
	for k, v := range r.ops {
		out[k] = v
	}
	return out
}
