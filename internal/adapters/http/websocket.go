package http

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/nats-io/nats.go"

	natsadapter "github.com/Runscount/RunScout/internal/adapters/nats"
	"github.com/Runscount/RunScout/internal/core/domain"
	"github.com/Runscount/RunScout/internal/pkg/metrics"
)

// wsIntent is a route edit sent by the client over the socket.
type wsIntent struct {
	Action string  `json:"action"` // "add" | "move" | "remove" | "undo" | "clear"
	Index  int     `json:"index"`  // waypoint index for move/remove
	Lat    float64 `json:"lat"`
	Lon    float64 `json:"lon"`
}

// WebSocketHandler upgrades to WebSocket for live route editing. The client
// connects with ?session=<id>, sends edit intents as JSON, and receives the
// full route snapshot after every change. Snapshots are relayed from NATS so
// two tabs on the same session stay in sync; without NATS the snapshot is
// written back directly and only the editing socket sees it.
func WebSocketHandler(deps *Dependencies) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		defer c.Close()

		sessionID := c.Query("session")
		remoteAddr := c.RemoteAddr().String()

		var mu sync.Mutex
		writeJSON := func(v interface{}) error {
			data, err := json.Marshal(v)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			return c.WriteMessage(websocket.TextMessage, data)
		}

		snap, err := deps.Sessions.Snapshot(context.Background(), sessionID)
		if err != nil {
			_ = writeJSON(map[string]string{"error": "unknown session: " + sessionID})
			return
		}

		log.Printf("ws client connected: %s session=%s", remoteAddr, sessionID)
		metrics.ActiveWebSockets.Inc()
		defer metrics.ActiveWebSockets.Dec()

		// Relay snapshots published for this session
		var sub *nats.Subscription
		if deps.NATS != nil {
			sub, err = deps.NATS.Subscribe(natsadapter.SessionSubject(sessionID), func(msg *nats.Msg) {
				_ = writeJSON(json.RawMessage(msg.Data))
			})
			if err != nil {
				log.Printf("ws subscribe error: %v", err)
				return
			}
			defer func() { _ = sub.Unsubscribe() }()
		}

		// Initial state so the client can render immediately
		_ = writeJSON(snap)

		// Keep-alive ping
		done := make(chan struct{})
		defer close(done)
		go func() {
			ticker := time.NewTicker(30 * time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					mu.Lock()
					err := c.WriteMessage(websocket.PingMessage, nil)
					mu.Unlock()
					if err != nil {
						return
					}
				case <-done:
					return
				}
			}
		}()

		for {
			_, msg, err := c.ReadMessage()
			if err != nil {
				break
			}

			var intent wsIntent
			if err := json.Unmarshal(msg, &intent); err != nil {
				_ = writeJSON(map[string]string{"error": "invalid JSON"})
				continue
			}

			ctx := context.Background()
			var result *domain.RouteSnapshot
			switch intent.Action {
			case "add":
				result, err = deps.Sessions.AddWaypoint(ctx, sessionID, domain.Coordinate{Lat: intent.Lat, Lon: intent.Lon})
			case "move":
				result, err = deps.Sessions.MoveWaypoint(ctx, sessionID, intent.Index, domain.Coordinate{Lat: intent.Lat, Lon: intent.Lon})
			case "remove":
				result, err = deps.Sessions.RemoveWaypoint(ctx, sessionID, intent.Index)
			case "undo":
				result, err = deps.Sessions.Undo(ctx, sessionID)
			case "clear":
				result, err = deps.Sessions.Clear(ctx, sessionID)
			default:
				_ = writeJSON(map[string]string{"error": "unknown action: " + intent.Action})
				continue
			}
			if err != nil {
				_ = writeJSON(map[string]string{"error": err.Error()})
				continue
			}

			metrics.RouteMutations.WithLabelValues(intent.Action).Inc()

			// With NATS the snapshot arrives via the relay subscription;
			// without it, echo directly.
			if sub == nil {
				_ = writeJSON(result)
			}
		}

		log.Printf("ws client disconnected: %s session=%s", remoteAddr, sessionID)
	}
}
