package messaging

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sudo-init-do/distal/internal/alerts"
	"github.com/sudo-init-do/distal/internal/metrics"
	"github.com/sudo-init-do/distal/internal/models"
	"github.com/sudo-init-do/distal/internal/testutil"
)

func setup(t *testing.T) (*testutil.Server, *Hub) {
	t.Helper()
	srv := testutil.NewServer()
	repos := srv.Store.Repositories()
	m := metrics.New()
	hub := NewHub(repos.Messages, "*", m, zap.NewNop())
	NewHandler(repos, hub, srv.Notify, m, zap.NewNop()).Register(srv.API, srv.Auth)
	return srv, hub
}

func TestSendAndConversationIsSymmetric(t *testing.T) {
	srv, _ := setup(t)
	alice, aliceTok := srv.SeedUser(t, "alice", models.RoleClient)
	bob, bobTok := srv.SeedUser(t, "bob", models.RoleProvider)

	rec := srv.Do(t, http.MethodPost, "/api/messages", map[string]any{"content": "hi bob", "receiverId": bob.ID}, aliceTok)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var sent models.Message
	testutil.DecodeJSON(t, rec, &sent)
	assert.Equal(t, "alice", sent.SenderName)
	assert.Equal(t, "bob", sent.ReceiverName)
	assert.False(t, sent.Read)

	rec = srv.Do(t, http.MethodPost, "/api/messages", map[string]any{"content": "hi alice", "receiverId": alice.ID}, bobTok)
	require.Equal(t, http.StatusCreated, rec.Code)

	var fromAlice, fromBob []models.Message
	testutil.DecodeJSON(t, srv.Do(t, http.MethodGet, "/api/messages/"+bob.ID, nil, aliceTok), &fromAlice)
	testutil.DecodeJSON(t, srv.Do(t, http.MethodGet, "/api/messages/"+alice.ID, nil, bobTok), &fromBob)
	require.Len(t, fromAlice, 2)
	assert.Equal(t, fromAlice, fromBob)
	assert.Equal(t, "hi bob", fromAlice[0].Content)

	// job-less messages send no email
	assert.Empty(t, srv.Notify.Kinds())
}

func TestSendValidation(t *testing.T) {
	srv, _ := setup(t)
	alice, tok := srv.SeedUser(t, "alice", models.RoleClient)

	cases := map[string]map[string]any{
		"empty content":    {"content": "  ", "receiverId": alice.ID},
		"self":             {"content": "me", "receiverId": alice.ID},
		"unknown receiver": {"content": "x", "receiverId": "2c7d3c8e-4b7a-4e8c-9d53-1f0e7c2f9b11"},
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			rec := srv.Do(t, http.MethodPost, "/api/messages", body, tok)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}

	rec := srv.Do(t, http.MethodPost, "/api/messages", map[string]any{"content": "x", "receiverId": alice.ID}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSendAboutJobEmailsReceiver(t *testing.T) {
	srv, _ := setup(t)
	client, clientTok := srv.SeedUser(t, "client", models.RoleClient)
	provider, _ := srv.SeedUser(t, "provider", models.RoleProvider)

	job, err := srv.Store.Repositories().Jobs.Create(context.Background(), client.ID, models.JobInput{Title: "Label images", Description: "10k images"})
	require.NoError(t, err)

	rec := srv.Do(t, http.MethodPost, "/api/messages",
		map[string]any{"content": "quote?", "receiverId": provider.ID, "jobId": job.ID}, clientTok)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	require.Equal(t, []string{alerts.TaskMessageNew}, srv.Notify.Kinds())
	assert.Equal(t, "Label images", srv.Notify.Sent[0].JobTitle)
	assert.Equal(t, provider.Email, srv.Notify.Sent[0].To.Email)
}

func TestMarkReadOnlyCountsOnce(t *testing.T) {
	srv, _ := setup(t)
	alice, aliceTok := srv.SeedUser(t, "alice", models.RoleClient)
	bob, bobTok := srv.SeedUser(t, "bob", models.RoleProvider)

	for i := 0; i < 2; i++ {
		rec := srv.Do(t, http.MethodPost, "/api/messages", map[string]any{"content": "ping", "receiverId": bob.ID}, aliceTok)
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	var contacts []models.Contact
	testutil.DecodeJSON(t, srv.Do(t, http.MethodGet, "/api/messages/contacts", nil, bobTok), &contacts)
	require.Len(t, contacts, 1)
	assert.Equal(t, alice.ID, contacts[0].UserID)
	assert.Equal(t, 2, contacts[0].UnreadCount)

	var out struct {
		Updated int64 `json:"updated"`
	}
	testutil.DecodeJSON(t, srv.Do(t, http.MethodPut, "/api/messages/read/"+alice.ID, nil, bobTok), &out)
	assert.EqualValues(t, 2, out.Updated)
	testutil.DecodeJSON(t, srv.Do(t, http.MethodPut, "/api/messages/read/"+alice.ID, nil, bobTok), &out)
	assert.EqualValues(t, 0, out.Updated)
}

func TestRelayPushesStoredMessage(t *testing.T) {
	srv, hub := setup(t)
	alice, aliceTok := srv.SeedUser(t, "alice", models.RoleClient)
	bob, bobTok := srv.SeedUser(t, "bob", models.RoleProvider)

	ts := httptest.NewServer(srv.Echo)
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/ws?token=" + bobTok
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	room := RoomID(alice.ID, bob.ID)
	require.NoError(t, conn.WriteJSON(map[string]any{"event": EventJoinRoom, "data": room}))
	require.Eventually(t, func() bool { return hub.RoomSize(room) == 1 }, 2*time.Second, 10*time.Millisecond)

	rec := srv.Do(t, http.MethodPost, "/api/messages", map[string]any{"content": "live", "receiverId": bob.ID}, aliceTok)
	require.Equal(t, http.StatusCreated, rec.Code)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var frame struct {
		Event string         `json:"event"`
		Data  models.Message `json:"data"`
	}
	require.NoError(t, conn.ReadJSON(&frame))
	assert.Equal(t, EventReceiveMessage, frame.Event)
	assert.Equal(t, "live", frame.Data.Content)
}

func TestRelayRejectsForeignRoom(t *testing.T) {
	srv, hub := setup(t)
	_, tok := srv.SeedUser(t, "mallory", models.RoleClient)

	ts := httptest.NewServer(srv.Echo)
	defer ts.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/api/ws?token="+tok, nil)
	require.NoError(t, err)
	defer conn.Close()

	room := RoomID("aaaa", "bbbb")
	require.NoError(t, conn.WriteJSON(map[string]any{"event": EventJoinRoom, "data": room}))
	time.Sleep(100 * time.Millisecond)
	assert.Zero(t, hub.RoomSize(room))
}

func TestRelayRequiresToken(t *testing.T) {
	srv, _ := setup(t)
	ts := httptest.NewServer(srv.Echo)
	defer ts.Close()

	_, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/api/ws", nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
