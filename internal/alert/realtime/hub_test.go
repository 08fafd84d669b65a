package realtime_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fuelshift/fuelshift-backend/internal/alert/realtime"
	"github.com/fuelshift/fuelshift-backend/pkg/actor"
	"github.com/fuelshift/fuelshift-backend/pkg/logger"
	"github.com/fuelshift/fuelshift-backend/pkg/messaging"
	"github.com/fuelshift/fuelshift-backend/pkg/testutil"
)

func startHub(t *testing.T) (*realtime.Hub, *httptest.Server) {
	hub := realtime.NewHub(nil, logger.Nop())
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		a := &actor.Actor{ID: r.URL.Query().Get("user"), Role: actor.RoleSupervisor}
		_ = hub.ServeWS(w, r, a)
	}))
	t.Cleanup(func() {
		hub.Close()
		srv.Close()
	})
	return hub, srv
}

func dial(t *testing.T, srv *httptest.Server, userID string) *websocket.Conn {
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/?user=" + userID
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestHub_DeliversOnlyToRecipient(t *testing.T) {
	hub, srv := startHub(t)

	alice := dial(t, srv, "user-alice")
	bob := dial(t, srv, "user-bob")
	testutil.RequireEventually(t, func() bool { return hub.Connections() == 2 }, time.Second, 10*time.Millisecond, "clients registered")

	delivered := hub.Broadcast(messaging.AlertCreatedEvent{
		AlertID:     "a1",
		RecipientID: "user-alice",
		Severity:    "critical",
		Kind:        "critical_variance",
		Message:     "Critical shortage",
	})
	assert.Equal(t, 1, delivered)

	var msg realtime.Message
	require.NoError(t, alice.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, alice.ReadJSON(&msg))
	assert.Equal(t, messaging.EventAlertCreated, msg.Type)
	assert.Equal(t, "a1", msg.Alert.AlertID)

	require.NoError(t, bob.SetReadDeadline(time.Now().Add(100*time.Millisecond)))
	_, _, err := bob.ReadMessage()
	assert.Error(t, err, "bob receives nothing")
}

func TestHub_UnregistersOnDisconnect(t *testing.T) {
	hub, srv := startHub(t)

	conn := dial(t, srv, "user-carol")
	testutil.RequireEventually(t, func() bool { return hub.Connections() == 1 }, time.Second, 10*time.Millisecond, "client registered")

	require.NoError(t, conn.Close())
	testutil.RequireEventually(t, func() bool { return hub.Connections() == 0 }, 2*time.Second, 10*time.Millisecond, "client unregistered")

	assert.Zero(t, hub.Broadcast(messaging.AlertCreatedEvent{AlertID: "a2", RecipientID: "user-carol"}))
}

func TestHub_RejectsForeignOrigin(t *testing.T) {
	hub := realtime.NewHub([]string{"https://station.example"}, logger.Nop())
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = hub.ServeWS(w, r, &actor.Actor{ID: "u1", Role: actor.RoleManager})
	}))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	header := http.Header{"Origin": []string{"https://evil.example"}}
	_, resp, err := websocket.DefaultDialer.Dial(url, header)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}
