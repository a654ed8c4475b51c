package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/shadercreator/backend/internal/logging"
	"github.com/shadercreator/backend/internal/models"
	"github.com/shadercreator/backend/internal/naming"
)

// WebSocket message types for the build protocol
const (
	// Client -> Server messages
	MsgTypeShaderCreate   = "shader:create"
	MsgTypeTexturesRelate = "textures:relate"
	MsgTypeValidate       = "validate"
	MsgTypePing           = "ping"

	// Server -> Client messages
	MsgTypeConnected = "connected"
	MsgTypeProgress  = "progress"
	MsgTypeComplete  = "complete"
	MsgTypeError     = "error"
	MsgTypePong      = "pong"
)

// DefaultMaxMessageSize bounds a single client message.
const DefaultMaxMessageSize = 1024 * 1024

// WebSocket message structure
type WSMessage struct {
	Type      string          `json:"type"`
	ID        string          `json:"id,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp int64           `json:"timestamp"`
}

// WebSocket progress response
type WSProgressResponse struct {
	Status  models.BuildStatus `json:"status"`
	Message string             `json:"message"`
}

// WebSocket error response
type WSErrorResponse struct {
	Message    string `json:"message"`
	Code       string `json:"code,omitempty"`
	Diagnostic string `json:"diagnostic,omitempty"`
}

// WebSocketHandler serves the build channel used by the host panel
type WebSocketHandler struct {
	handler        *Handler
	upgrader       websocket.Upgrader
	maxMessageSize int64
}

// NewWebSocketHandler creates a new WebSocket build handler. A zero
// maxMessageSize uses DefaultMaxMessageSize.
func NewWebSocketHandler(h *Handler, maxMessageSize int64) *WebSocketHandler {
	if maxMessageSize <= 0 {
		maxMessageSize = DefaultMaxMessageSize
	}
	return &WebSocketHandler{
		handler: h,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// The panel is served from the host application, not a browser origin
				return true
			},
			ReadBufferSize:  16 * 1024,
			WriteBufferSize: 16 * 1024,
		},
		maxMessageSize: maxMessageSize,
	}
}

// wsConn serializes writes; progress callbacks and replies share the socket.
type wsConn struct {
	ws *websocket.Conn
	mu sync.Mutex
}

// HandleWebSocket upgrades HTTP connection to WebSocket and handles the build protocol
func (wsh *WebSocketHandler) HandleWebSocket(c echo.Context) error {
	ws, err := wsh.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}
	defer ws.Close()
	ws.SetReadLimit(wsh.maxMessageSize)

	log := wsh.handler.log
	log.Debug("[WebSocket] Client connected")
	conn := &wsConn{ws: ws}
	ctx := c.Request().Context()

	conn.send(log, WSMessage{Type: MsgTypeConnected, Timestamp: time.Now().UnixMilli()})

	// Main message loop
	for {
		var msg WSMessage
		if err := ws.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn("[WebSocket] Connection error: %v", err)
			}
			break
		}

		switch msg.Type {
		case MsgTypePing:
			conn.send(log, WSMessage{Type: MsgTypePong, ID: msg.ID, Timestamp: time.Now().UnixMilli()})
		case MsgTypeShaderCreate:
			wsh.handleShaderCreate(ctx, conn, msg)
		case MsgTypeTexturesRelate:
			wsh.handleRelate(conn, msg)
		case MsgTypeValidate:
			wsh.handleValidate(ctx, conn, msg)
		default:
			conn.sendError(log, msg.ID, WSErrorResponse{Message: "Unknown message type: " + msg.Type, Code: "INVALID_TYPE"})
		}
	}

	log.Debug("[WebSocket] Client disconnected")
	return nil
}

func (wsh *WebSocketHandler) handleShaderCreate(ctx context.Context, conn *wsConn, msg WSMessage) {
	log := wsh.handler.log
	var spec models.ShaderSpec
	if err := json.Unmarshal(msg.Payload, &spec); err != nil {
		conn.sendError(log, msg.ID, WSErrorResponse{Message: "Invalid shader payload: " + err.Error(), Code: "INVALID_PAYLOAD"})
		return
	}

	b, err := wsh.handler.builds.Create(ctx, spec, func(status models.BuildStatus, message string) {
		conn.send(log, WSMessage{
			Type:      MsgTypeProgress,
			ID:        msg.ID,
			Payload:   mustJSON(WSProgressResponse{Status: status, Message: message}),
			Timestamp: time.Now().UnixMilli(),
		})
	})
	if err != nil {
		conn.sendError(log, msg.ID, wsError(specError(err)))
		return
	}
	conn.send(log, WSMessage{Type: MsgTypeComplete, ID: msg.ID, Payload: mustJSON(b), Timestamp: time.Now().UnixMilli()})
}

func (wsh *WebSocketHandler) handleRelate(conn *wsConn, msg WSMessage) {
	log := wsh.handler.log
	var req PathRequest
	if err := json.Unmarshal(msg.Payload, &req); err != nil || req.Path == "" {
		conn.sendError(log, msg.ID, WSErrorResponse{Message: "path is required", Code: "INVALID_PAYLOAD"})
		return
	}
	related, err := wsh.handler.builds.Relate(req.Path)
	if err != nil {
		resp := WSErrorResponse{Message: err.Error(), Code: "INTERNAL_ERROR"}
		var nerr *naming.NamingError
		if errors.As(err, &nerr) {
			resp.Code = "BAD_NAMING"
			resp.Diagnostic = nerr.Diagnostic()
		}
		conn.sendError(log, msg.ID, resp)
		return
	}
	conn.send(log, WSMessage{
		Type:      MsgTypeComplete,
		ID:        msg.ID,
		Payload:   mustJSON(RelateResponse{Anchor: req.Path, Related: related}),
		Timestamp: time.Now().UnixMilli(),
	})
}

func (wsh *WebSocketHandler) handleValidate(ctx context.Context, conn *wsConn, msg WSMessage) {
	log := wsh.handler.log
	var spec models.ShaderSpec
	if err := json.Unmarshal(msg.Payload, &spec); err != nil {
		conn.sendError(log, msg.ID, WSErrorResponse{Message: "Invalid validate payload: " + err.Error(), Code: "INVALID_PAYLOAD"})
		return
	}
	report, blocking, err := wsh.handler.builds.Validate(ctx, spec)
	if err != nil {
		conn.sendError(log, msg.ID, wsError(specError(err)))
		return
	}
	conn.send(log, WSMessage{
		Type:      MsgTypeComplete,
		ID:        msg.ID,
		Payload:   mustJSON(newValidateResponse(report, blocking)),
		Timestamp: time.Now().UnixMilli(),
	})
}

// Helper methods

func (c *wsConn) send(log logging.Interface, msg WSMessage) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.ws.WriteJSON(msg); err != nil {
		log.Warn("[WebSocket] Failed to send message: %v", err)
	}
}

func (c *wsConn) sendError(log logging.Interface, id string, resp WSErrorResponse) {
	c.send(log, WSMessage{
		Type:      MsgTypeError,
		ID:        id,
		Payload:   mustJSON(resp),
		Timestamp: time.Now().UnixMilli(),
	})
}

func wsError(e *APIError) WSErrorResponse {
	msg := e.Message
	if e.Details != "" {
		msg += ": " + e.Details
	}
	return WSErrorResponse{Message: msg, Code: e.Code}
}

func mustJSON(v interface{}) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		return []byte("{}")
	}
	return data
}
