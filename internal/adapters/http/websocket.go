package http

import (
	"log/slog"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/gofiber/websocket/v2"
	"github.com/nats-io/nats.go"

	natsadapter "github.com/astro-otter/otterweb/internal/adapters/nats"
	"github.com/astro-otter/otterweb/internal/pkg/metrics"
)

// wsMessage is sent by clients to change their feed.
type wsMessage struct {
	Action  string `json:"action"`  // "subscribe" | "unsubscribe"
	Channel string `json:"channel"` // "updates" | "all"
}

// wsChannels maps client channel names onto NATS subjects.
var wsChannels = map[string]string{
	"updates": natsadapter.SubjectUpdated,
	"all":     natsadapter.SubjectAll,
}

// WebSocketHandler relays catalog events from NATS to connected clients.
// Every client starts on the "updates" channel. Clients send
// {"action":"subscribe","channel":"all"} to widen the feed.
func WebSocketHandler(nc *nats.Conn) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		defer c.Close()

		log := slog.Default().With("remote", c.RemoteAddr().String())
		metrics.ActiveWebSockets.Inc()
		defer metrics.ActiveWebSockets.Dec()
		log.Debug("ws client connected")

		if nc == nil {
			_ = c.WriteJSON(map[string]string{"error": "event feed unavailable"})
			return
		}

		var mu sync.Mutex // guards writes to c
		var subsMu sync.Mutex
		subs := make(map[string]*nats.Subscription) // channel -> subscription
		subscribed := func(channel string) bool {
			subsMu.Lock()
			defer subsMu.Unlock()
			_, ok := subs[channel]
			return ok
		}

		writeJSON := func(v any) error {
			data, err := json.Marshal(v)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			return c.WriteMessage(websocket.TextMessage, data)
		}
		subscribe := func(channel string) error {
			s, err := nc.Subscribe(wsChannels[channel], func(msg *nats.Msg) {
				// catalog.updated is delivered once, by the "updates" subscription.
				if channel == "all" && msg.Subject == natsadapter.SubjectUpdated && subscribed("updates") {
					return
				}
				_ = writeJSON(json.RawMessage(msg.Data))
			})
			if err != nil {
				return err
			}
			subsMu.Lock()
			subs[channel] = s
			subsMu.Unlock()
			return nil
		}

		if err := subscribe("updates"); err != nil {
			log.Warn("ws default subscribe failed", "error", err)
			return
		}

		// Keep-alive ping
		done := make(chan struct{})
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
			_, raw, err := c.ReadMessage()
			if err != nil {
				break
			}

			var m wsMessage
			if err := json.Unmarshal(raw, &m); err != nil {
				_ = writeJSON(map[string]string{"error": "invalid JSON"})
				continue
			}
			if m.Channel == "" {
				m.Channel = "updates"
			}
			if _, ok := wsChannels[m.Channel]; !ok {
				_ = writeJSON(map[string]string{"error": "unknown channel: " + m.Channel})
				continue
			}

			switch m.Action {
			case "subscribe":
				if subscribed(m.Channel) {
					_ = writeJSON(map[string]string{"status": "already subscribed", "channel": m.Channel})
					continue
				}
				if err := subscribe(m.Channel); err != nil {
					_ = writeJSON(map[string]string{"error": "subscribe failed: " + err.Error()})
					continue
				}
				_ = writeJSON(map[string]string{"status": "subscribed", "channel": m.Channel})

			case "unsubscribe":
				subsMu.Lock()
				s, exists := subs[m.Channel]
				delete(subs, m.Channel)
				subsMu.Unlock()
				if !exists {
					_ = writeJSON(map[string]string{"error": "not subscribed to " + m.Channel})
					continue
				}
				_ = s.Unsubscribe()
				_ = writeJSON(map[string]string{"status": "unsubscribed", "channel": m.Channel})

			default:
				_ = writeJSON(map[string]string{"error": "unknown action: " + m.Action})
			}
		}

		close(done)
		subsMu.Lock()
		for _, s := range subs {
			_ = s.Unsubscribe()
		}
		subsMu.Unlock()
		log.Debug("ws client disconnected")
	}
}
