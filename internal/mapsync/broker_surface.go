package mapsync

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/paulmach/orb/geojson"

	"vorp/internal/events"
	"vorp/internal/model"
	"vorp/internal/planner"
)

// Map event types published on a session's topic.
const (
	EventFit           = "map.fit"
	EventOverlayAdd    = "overlay.add"
	EventOverlayRemove = "overlay.remove"
	EventOverlayStyle  = "overlay.style"
	EventClick         = "map.click"
)

// Topic is the broker topic carrying map events for a session.
func Topic(session string) string { return "map:" + session }

// MapEvent is the payload of every map event. Overlay geometry travels as a
// GeoJSON LineString feature whose properties carry colour and render flags.
type MapEvent struct {
	OverlayID string           `json:"overlayId,omitempty"`
	Viewport  *Viewport        `json:"viewport,omitempty"`
	Style     *Style           `json:"style,omitempty"`
	Feature   *geojson.Feature `json:"feature,omitempty"`
	Click     *model.Point     `json:"click,omitempty"`
}

// Publisher is the part of an event broker a BrokerSurface needs.
type Publisher interface {
	Publish(topic string, evt events.Event)
}

// BrokerSurface turns surface operations into events for remote renderers.
type BrokerSurface struct {
	pub   Publisher
	topic string
}

func NewBrokerSurface(pub Publisher, session string) *BrokerSurface {
	return &BrokerSurface{pub: pub, topic: Topic(session)}
}

func (s *BrokerSurface) FitBounds(_ context.Context, v Viewport) error {
	return s.publish(EventFit, MapEvent{Viewport: &v})
}

func (s *BrokerSurface) AddOverlay(_ context.Context, o Overlay) error {
	f := geojson.NewFeature(planner.LineString(o.Waypoints))
	f.ID = o.ID
	f.Properties["color"] = o.Color
	f.Properties["weight"] = o.Style.Weight
	f.Properties["opacity"] = o.Style.Opacity
	f.Properties["markers"] = o.Markers
	f.Properties["itinerary"] = o.Itinerary
	f.Properties["draggable"] = o.Draggable
	f.Properties["addWaypoints"] = o.AddWaypoints
	st := o.Style
	return s.publish(EventOverlayAdd, MapEvent{OverlayID: o.ID, Style: &st, Feature: f})
}

func (s *BrokerSurface) RemoveOverlay(_ context.Context, id string) error {
	return s.publish(EventOverlayRemove, MapEvent{OverlayID: id})
}

func (s *BrokerSurface) StyleOverlay(_ context.Context, id string, st Style) error {
	return s.publish(EventOverlayStyle, MapEvent{OverlayID: id, Style: &st})
}

// Clicked announces a map click to subscribers.
func (s *BrokerSurface) Clicked(p model.Point) error {
	return s.publish(EventClick, MapEvent{Click: &p})
}

func (s *BrokerSurface) publish(typ string, e MapEvent) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode %s: %w", typ, err)
	}
	s.pub.Publish(s.topic, events.Event{Type: typ, Data: data})
	return nil
}
