// Package main runs a demo WebSocket client that watches a session's map
// events while it seeds a plan and asks for routes.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/gorilla/websocket"
)

type wsMessage struct {
	Type    string          `json:"type"`
	ID      string          `json:"id,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

const sessionID = "demo"

func post(base, path, body string) {
	req, _ := http.NewRequest(http.MethodPost, base+path, bytes.NewReader([]byte(body)))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-Session-Id", sessionID)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = resp.Body.Close() }()
	log.Printf("POST %s -> %s", path, resp.Status)
}

func put(base, path string) {
	req, _ := http.NewRequest(http.MethodPut, base+path, nil)
	req.Header.Set("X-Session-Id", sessionID)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		log.Fatal(err)
	}
	_ = resp.Body.Close()
	log.Printf("PUT %s -> %s", path, resp.Status)
}

func main() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	base := fmt.Sprintf("http://localhost:%s", port)

	// Connect WS first so every map event is seen
	u := url.URL{Scheme: "ws", Host: "localhost:" + port, Path: "/v1/map/ws"}
	hdr := http.Header{}
	hdr.Set("X-Session-Id", sessionID)
	c, _, err := websocket.DefaultDialer.Dial(u.String(), hdr)
	if err != nil {
		log.Fatal("dial:", err)
	}
	defer func() { _ = c.Close() }()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			var m wsMessage
			if err := c.ReadJSON(&m); err != nil {
				log.Printf("read: %v", err)
				return
			}
			log.Printf("WS <- %s: %s", m.Type, string(m.Payload))
		}
	}()

	// Seed a small plan around the default map centre
	post(base, "/v1/locations", `{"locations":[
		{"latitude":12.921885,"longitude":80.084661},
		{"latitude":12.935,"longitude":80.10,"demand":3},
		{"latitude":12.91,"longitude":80.12,"demand":5},
		{"latitude":12.95,"longitude":80.07,"demand":2}]}`)
	put(base, "/v1/locations/0/depot")
	post(base, "/v1/vehicles", `{"capacity":6,"quantity":2}`)

	// Click on the map, then calculate
	if err := c.WriteJSON(map[string]any{"type": "click", "lat": 12.93, "lng": 80.09}); err != nil {
		log.Fatal(err)
	}
	time.Sleep(200 * time.Millisecond)
	post(base, "/v1/routes/calculate", "")

	// Wait briefly to receive the overlay events
	select {
	case <-time.After(2 * time.Second):
	case <-done:
	}
}
