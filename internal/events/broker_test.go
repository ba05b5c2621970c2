package events

import (
    "encoding/json"
    "testing"
    "time"

    "github.com/alicebob/miniredis/v2"
)

func TestBrokerPublishSubscribe(t *testing.T) {
    b := NewBroker()
    topic := "map:s1"
    ch := b.Subscribe(topic)

    evt := Event{Type: "overlay.add", Data: json.RawMessage(`{"x":1}`)}
    b.Publish(topic, evt)
    b.Publish("map:other", Event{Type: "ignored"})

    select {
    case got := <-ch:
        if got.Type != evt.Type { t.Fatalf("got type %s, want %s", got.Type, evt.Type) }
        if string(got.Data) != `{"x":1}` { t.Fatalf("bad payload: %s", got.Data) }
    case <-time.After(200 * time.Millisecond):
        t.Fatal("timeout waiting for event")
    }

    b.Unsubscribe(topic, ch)
    if _, ok := <-ch; ok { t.Fatal("channel should be closed after unsubscribe") }
    // second unsubscribe is a no-op
    b.Unsubscribe(topic, ch)
}

func TestBrokerPublishDoesNotBlock(t *testing.T) {
    b := NewBroker()
    ch := b.Subscribe("t")
    done := make(chan struct{})
    go func() {
        for i := 0; i < 100; i++ { b.Publish("t", Event{Type: "e"}) }
        close(done)
    }()
    select {
    case <-done:
    case <-time.After(time.Second):
        t.Fatal("publish blocked on a slow subscriber")
    }
    if len(ch) != cap(ch) { t.Fatalf("expected full buffer, got %d", len(ch)) }
}

func TestRedisBrokerRoundTrip(t *testing.T) {
    mr := miniredis.RunT(t)
    b, err := NewRedisBroker("redis://" + mr.Addr())
    if err != nil { t.Fatalf("NewRedisBroker: %v", err) }
    defer b.Close()

    ch := b.Subscribe("map:s1")
    b.Publish("map:s1", Event{Type: "map.fit", Data: json.RawMessage(`{"zoom":12}`)})

    select {
    case got := <-ch:
        if got.Type != "map.fit" || string(got.Data) != `{"zoom":12}` { t.Fatalf("got %+v", got) }
    case <-time.After(2 * time.Second):
        t.Fatal("timeout waiting for redis event")
    }

    b.Unsubscribe("map:s1", ch)
    select {
    case _, ok := <-ch:
        if ok { t.Fatal("expected closed channel") }
    case <-time.After(2 * time.Second):
        t.Fatal("channel not closed after unsubscribe")
    }
}

func TestRedisBrokerPublishDoesNotWaitOnRedis(t *testing.T) {
    mr := miniredis.RunT(t)
    b, err := NewRedisBroker("redis://" + mr.Addr())
    if err != nil { t.Fatalf("NewRedisBroker: %v", err) }
    defer b.Close()
    mr.Close()

    done := make(chan struct{})
    go func() {
        for i := 0; i < 2*publishQueue; i++ { b.Publish("map:s1", Event{Type: "overlay.add"}) }
        close(done)
    }()
    select {
    case <-done:
    case <-time.After(time.Second):
        t.Fatal("publish blocked while redis was unavailable")
    }
}

func TestRedisBrokerPublishAfterClose(t *testing.T) {
    mr := miniredis.RunT(t)
    b, err := NewRedisBroker("redis://" + mr.Addr())
    if err != nil { t.Fatalf("NewRedisBroker: %v", err) }
    if err := b.Close(); err != nil { t.Fatalf("Close: %v", err) }
    b.Publish("map:s1", Event{Type: "map.fit"})
}
