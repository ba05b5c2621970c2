package api

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"vorp/internal/mapsync"
)

var upgrader = websocket.Upgrader{CheckOrigin: func(_ *http.Request) bool { return true }}

// wsMessage is the frame format in both directions. Map events go out as
// {type, payload}; clicks come in as {type: "click", lat, lng}.
type wsMessage struct {
	Type    string          `json:"type"`
	ID      string          `json:"id,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
	Lat     *float64        `json:"lat,omitempty"`
	Lng     *float64        `json:"lng,omitempty"`
}

// MapWSHandler handles /v1/map/ws. The client first receives a map.state
// snapshot, then every map event of its session.
func (s *Server) MapWSHandler(w http.ResponseWriter, r *http.Request) {
	ctx, sess := s.withSession(r)
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer func() { _ = conn.Close() }()

	topic := mapsync.Topic(sess.ID())
	ch := s.Broker.Subscribe(topic)
	defer s.Broker.Unsubscribe(topic, ch)

	// gorilla connections allow one concurrent writer
	var wmu sync.Mutex
	write := func(v any) error {
		wmu.Lock()
		defer wmu.Unlock()
		_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
		return conn.WriteJSON(v)
	}

	if st, err := json.Marshal(sess.MapState()); err == nil {
		_ = write(wsMessage{Type: "map.state", Payload: st})
	}

	done := make(chan struct{})
	defer close(done)
	go func() {
		ticker := time.NewTicker(20 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case evt, ok := <-ch:
				if !ok {
					return
				}
				if err := write(wsMessage{Type: evt.Type, Payload: evt.Data}); err != nil {
					return
				}
			case <-ticker.C:
				wmu.Lock()
				err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second))
				wmu.Unlock()
				if err != nil {
					return
				}
			}
		}
	}()

	conn.SetReadLimit(1 << 16)
	_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error { _ = conn.SetReadDeadline(time.Now().Add(60 * time.Second)); return nil })

	for {
		var msg wsMessage
		if err := conn.ReadJSON(&msg); err != nil {
			break
		}
		_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		switch msg.Type {
		case "ping":
			_ = write(wsMessage{Type: "pong", ID: msg.ID})
		case "click":
			if msg.Lat == nil || msg.Lng == nil {
				_ = write(wsMessage{Type: "error", ID: msg.ID, Payload: json.RawMessage(`{"message":"lat and lng are required"}`)})
				continue
			}
			if err := sess.Click(ctx, *msg.Lat, *msg.Lng); err != nil {
				b, _ := json.Marshal(map[string]string{"message": err.Error()})
				_ = write(wsMessage{Type: "error", ID: msg.ID, Payload: b})
			}
		case "state":
			if st, err := json.Marshal(sess.MapState()); err == nil {
				_ = write(wsMessage{Type: "map.state", ID: msg.ID, Payload: st})
			}
		default:
			log.Printf("session=%s ws unknown message type=%q", sess.ID(), msg.Type)
		}
	}
}
