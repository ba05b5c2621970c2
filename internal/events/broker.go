// Package events fans map events out to WebSocket subscribers, in process or
// over Redis Pub/Sub.
package events

import (
    "encoding/json"
    "sync"
)

// Event is one message on a topic. Data is the JSON payload.
type Event struct {
    Type string          `json:"type"`
    Data json.RawMessage `json:"data,omitempty"`
}

type Broker struct {
    mu   sync.Mutex
    subs map[string]map[chan Event]struct{} // topic -> set of channels
}

func NewBroker() *Broker {
    return &Broker{subs: map[string]map[chan Event]struct{}{}}
}

func (b *Broker) Subscribe(topic string) chan Event {
    ch := make(chan Event, 32)
    b.mu.Lock()
    if b.subs[topic] == nil { b.subs[topic] = map[chan Event]struct{}{} }
    b.subs[topic][ch] = struct{}{}
    b.mu.Unlock()
    return ch
}

func (b *Broker) Unsubscribe(topic string, ch chan Event) {
    b.mu.Lock()
    m := b.subs[topic]
    if _, ok := m[ch]; !ok {
        b.mu.Unlock()
        return
    }
    delete(m, ch)
    if len(m) == 0 { delete(b.subs, topic) }
    b.mu.Unlock()
    close(ch)
}

// Publish never blocks; a subscriber with a full buffer misses the event.
func (b *Broker) Publish(topic string, evt Event) {
    b.mu.Lock()
    for ch := range b.subs[topic] {
        select { case ch <- evt: default: }
    }
    b.mu.Unlock()
}

func (b *Broker) Close() error { return nil }
