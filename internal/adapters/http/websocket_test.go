package http_test

import (
	"net"
	"testing"
	"time"

	fws "github.com/fasthttp/websocket"
	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	handler "github.com/astro-otter/otterweb/internal/adapters/http"
	natsadapter "github.com/astro-otter/otterweb/internal/adapters/nats"
)

func startNATS(t *testing.T) *nats.Conn {
	t.Helper()
	ns, err := server.NewServer(&server.Options{Host: "127.0.0.1", Port: -1, NoLog: true})
	require.NoError(t, err)
	go ns.Start()
	if !ns.ReadyForConnections(10 * time.Second) {
		ns.Shutdown()
		t.Fatal("nats server not ready")
	}
	t.Cleanup(func() {
		ns.Shutdown()
		ns.WaitForShutdown()
	})

	nc, err := nats.Connect(ns.ClientURL())
	require.NoError(t, err)
	t.Cleanup(nc.Close)
	return nc
}

// dialFeed serves an app wired to nc and opens a WebSocket to /ws.
func dialFeed(t *testing.T, nc *nats.Conn) *fws.Conn {
	t.Helper()
	deps := newDeps(t)
	deps.NATS = nc
	app := handler.NewApp(deps, handler.AppConfig{})

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = app.Listener(ln) }()
	t.Cleanup(func() { _ = app.Shutdown() })

	conn, _, err := fws.DefaultDialer.Dial("ws://"+ln.Addr().String()+"/ws", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func send(t *testing.T, conn *fws.Conn, action, channel string) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(map[string]string{"action": action, "channel": channel}))
}

func receive(t *testing.T, conn *fws.Conn) map[string]any {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var m map[string]any
	require.NoError(t, conn.ReadJSON(&m))
	return m
}

func publish(t *testing.T, nc *nats.Conn, subject, id string) {
	t.Helper()
	require.NoError(t, nc.Publish(subject, []byte(`{"id":"`+id+`","kind":"upserted"}`)))
	require.NoError(t, nc.Flush())
}

func TestWebSocket_RelaysUpdates(t *testing.T) {
	nc := startNATS(t)
	conn := dialFeed(t, nc)

	// Every client starts on "updates"; the reply confirms the subscription exists.
	send(t, conn, "subscribe", "updates")
	assert.Equal(t, "already subscribed", receive(t, conn)["status"])

	publish(t, nc, natsadapter.SubjectUpdated, "b1")
	assert.Equal(t, "b1", receive(t, conn)["id"])

	send(t, conn, "subscribe", "bogus")
	assert.Equal(t, "unknown channel: bogus", receive(t, conn)["error"])

	send(t, conn, "fly", "updates")
	assert.Equal(t, "unknown action: fly", receive(t, conn)["error"])

	send(t, conn, "unsubscribe", "all")
	assert.Equal(t, "not subscribed to all", receive(t, conn)["error"])

	require.NoError(t, conn.WriteMessage(fws.TextMessage, []byte("{nope")))
	assert.Equal(t, "invalid JSON", receive(t, conn)["error"])
}

func TestWebSocket_AllChannelDeliversEachEventOnce(t *testing.T) {
	nc := startNATS(t)
	conn := dialFeed(t, nc)

	send(t, conn, "subscribe", "all")
	assert.Equal(t, "subscribed", receive(t, conn)["status"])

	publish(t, nc, natsadapter.SubjectUpdated, "b2")
	publish(t, nc, "catalog.deleted", "b3")

	ids := []any{receive(t, conn)["id"], receive(t, conn)["id"]}
	assert.ElementsMatch(t, []any{"b2", "b3"}, ids)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(300*time.Millisecond)))
	var extra map[string]any
	assert.Error(t, conn.ReadJSON(&extra), "unexpected duplicate: %v", extra)
}

func TestWebSocket_AllAfterUnsubscribingUpdates(t *testing.T) {
	nc := startNATS(t)
	conn := dialFeed(t, nc)

	send(t, conn, "subscribe", "all")
	assert.Equal(t, "subscribed", receive(t, conn)["status"])
	send(t, conn, "unsubscribe", "updates")
	assert.Equal(t, "unsubscribed", receive(t, conn)["status"])

	publish(t, nc, natsadapter.SubjectUpdated, "b4")
	assert.Equal(t, "b4", receive(t, conn)["id"])
}

func TestWebSocket_NoEventFeed(t *testing.T) {
	conn := dialFeed(t, nil)
	assert.Equal(t, "event feed unavailable", receive(t, conn)["error"])
}
