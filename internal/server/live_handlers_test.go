package server

import (
	"encoding/json"
	"net"
	"net/http"
	"testing"
	"time"

	"techsparks/internal/notifications"

	"github.com/gofiber/fiber/v2"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// listen serves the app on a random local port for real websocket clients.
func (e *testEnv) listen(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = e.app.Listener(ln) }()
	t.Cleanup(func() { _ = e.app.Shutdown() })
	return ln.Addr().String()
}

func readFrame(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)
	var frame map[string]any
	require.NoError(t, json.Unmarshal(raw, &frame))
	return frame
}

func TestLiveComments_StreamsCommentEvents(t *testing.T) {
	e := newTestEnv(t)
	session, userID := e.register(t, "Ada", "ada@example.com")
	post := e.createPost(t, session, "Live", e.createCategory(t, session, "Go"))
	postID := post["id"].(string)
	addr := e.listen(t)

	conn, resp, err := websocket.DefaultDialer.Dial("ws://"+addr+"/api/comments/post/"+postID+"/live", nil)
	require.NoError(t, err)
	defer func() { _ = conn.Close() }()
	assert.Equal(t, http.StatusSwitchingProtocols, resp.StatusCode)

	hello := readFrame(t, conn)
	assert.Equal(t, "subscribed", hello["type"])
	assert.Equal(t, postID, hello["postId"])

	created := e.doJSON(t, http.MethodPost, "/api/comments/create", fiber.Map{"content": "hello live", "postId": postID}, session)
	require.Equal(t, http.StatusCreated, created.StatusCode)
	commentID := decode(t, created)["comment"].(map[string]any)["id"].(string)

	frame := readFrame(t, conn)
	assert.Equal(t, notifications.CommentCreated, frame["type"])
	assert.Equal(t, postID, frame["postId"])
	assert.Equal(t, userID, frame["actorId"])

	deleted := e.doJSON(t, http.MethodDelete, "/api/comments/"+commentID, nil, session)
	require.Equal(t, http.StatusOK, deleted.StatusCode)
	assert.Equal(t, notifications.CommentDeleted, readFrame(t, conn)["type"])
}

func TestLiveComments_RejectsPlainHTTPAndUnknownPosts(t *testing.T) {
	e := newTestEnv(t)

	resp := e.doJSON(t, http.MethodGet, "/api/comments/post/9b1d7c3e-2a4f-4e6d-8c5b-444444444444/live", nil, nil)
	assert.Equal(t, http.StatusUpgradeRequired, resp.StatusCode)

	addr := e.listen(t)
	_, resp, err := websocket.DefaultDialer.Dial("ws://"+addr+"/api/comments/post/9b1d7c3e-2a4f-4e6d-8c5b-444444444444/live", nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
