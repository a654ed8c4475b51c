package api

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/shadercreator/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dialTestSocket(t *testing.T, api *testAPI) *websocket.Conn {
	t.Helper()
	e := echo.New()
	RegisterRoutes(e.Group("/api"), NewHandlers(&Dependencies{
		Builds:    api.mgr,
		Snapshots: api.scene,
		HostMode:  "memory",
	}))
	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/ws"
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { ws.Close() })

	var hello WSMessage
	require.NoError(t, ws.ReadJSON(&hello))
	assert.Equal(t, MsgTypeConnected, hello.Type)
	return ws
}

func sendWS(t *testing.T, ws *websocket.Conn, msgType, id string, payload interface{}) {
	t.Helper()
	require.NoError(t, ws.WriteJSON(WSMessage{
		Type:      msgType,
		ID:        id,
		Payload:   mustJSON(payload),
		Timestamp: time.Now().UnixMilli(),
	}))
}

// readUntil collects messages up to and including the first of a final type.
func readUntil(t *testing.T, ws *websocket.Conn, final ...string) []WSMessage {
	t.Helper()
	require.NoError(t, ws.SetReadDeadline(time.Now().Add(5*time.Second)))
	var msgs []WSMessage
	for {
		var msg WSMessage
		require.NoError(t, ws.ReadJSON(&msg))
		msgs = append(msgs, msg)
		for _, f := range final {
			if msg.Type == f {
				return msgs
			}
		}
	}
}

func TestWebSocketPing(t *testing.T) {
	ws := dialTestSocket(t, newTestAPI(t, nil))
	sendWS(t, ws, MsgTypePing, "p1", nil)
	msgs := readUntil(t, ws, MsgTypePong)
	require.Len(t, msgs, 1)
	assert.Equal(t, "p1", msgs[0].ID)
}

func TestWebSocketShaderCreate(t *testing.T) {
	api := newTestAPI(t, nil)
	ws := dialTestSocket(t, api)

	sendWS(t, ws, MsgTypeShaderCreate, "b1", models.ShaderSpec{Name: "Hero", ShaderType: "lambert"})
	msgs := readUntil(t, ws, MsgTypeComplete, MsgTypeError)

	last := msgs[len(msgs)-1]
	require.Equal(t, MsgTypeComplete, last.Type)
	var b models.BuildSession
	require.NoError(t, json.Unmarshal(last.Payload, &b))
	assert.Equal(t, models.BuildStatusComplete, b.Status)
	assert.Equal(t, "Hero_SG", b.Network.ShadingGroup)

	var stages []models.BuildStatus
	for _, m := range msgs[:len(msgs)-1] {
		assert.Equal(t, MsgTypeProgress, m.Type)
		assert.Equal(t, "b1", m.ID)
		var p WSProgressResponse
		require.NoError(t, json.Unmarshal(m.Payload, &p))
		stages = append(stages, p.Status)
	}
	require.NotEmpty(t, stages)
	assert.Equal(t, models.BuildStatusValidating, stages[0])
	assert.Equal(t, models.BuildStatusComplete, stages[len(stages)-1])
}

func TestWebSocketErrors(t *testing.T) {
	tests := []struct {
		name    string
		msgType string
		payload interface{}
		code    string
	}{
		{"unknown type", "shader:delete", nil, "INVALID_TYPE"},
		{"bad naming", MsgTypeTexturesRelate, PathRequest{Path: "/tex/final.exr"}, "BAD_NAMING"},
		{"missing path", MsgTypeTexturesRelate, PathRequest{}, "INVALID_PAYLOAD"},
		{"invalid spec", MsgTypeShaderCreate, map[string]interface{}{"shaderType": "lambert", "slots": []map[string]string{{"role": "bump"}, {"role": "bump"}}}, "BAD_REQUEST"},
	}
	ws := dialTestSocket(t, newTestAPI(t, nil))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sendWS(t, ws, tt.msgType, tt.name, tt.payload)
			msgs := readUntil(t, ws, MsgTypeError, MsgTypeComplete)
			last := msgs[len(msgs)-1]
			require.Equal(t, MsgTypeError, last.Type)
			assert.Equal(t, tt.name, last.ID)
			var resp WSErrorResponse
			require.NoError(t, json.Unmarshal(last.Payload, &resp))
			assert.Equal(t, tt.code, resp.Code)
			if tt.code == "BAD_NAMING" {
				assert.Contains(t, resp.Diagnostic, "Bad Naming Error:")
			}
		})
	}
}

func TestWebSocketValidate(t *testing.T) {
	ws := dialTestSocket(t, newTestAPI(t, nil))
	sendWS(t, ws, MsgTypeValidate, "v1", models.ShaderSpec{Name: "Bad@Name", ShaderType: "lambert"})
	msgs := readUntil(t, ws, MsgTypeComplete, MsgTypeError)
	last := msgs[len(msgs)-1]
	require.Equal(t, MsgTypeComplete, last.Type)

	var resp ValidateResponse
	require.NoError(t, json.Unmarshal(last.Payload, &resp))
	assert.True(t, resp.Blocking)
	assert.Contains(t, resp.Diagnostic, "Name Error:")
}
