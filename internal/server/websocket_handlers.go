package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"

	"github.com/MeKo-Tech/codescan/internal/decode"
	"github.com/MeKo-Tech/codescan/internal/pipeline"
	"github.com/MeKo-Tech/codescan/internal/utils"
)

const (
	wsReadTimeout  = 60 * time.Second
	wsPingInterval = 30 * time.Second

	wsMessageAttempt = "attempt"
	wsMessageResult  = "result"
	wsMessageError   = "error"
)

// WebSocket upgrader with reasonable defaults.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WebSocketRequest asks for one image scan. Image is base64 in JSON.
type WebSocketRequest struct {
	Image  []byte `json:"image"`
	Fields bool   `json:"fields,omitempty"`
	Name   string `json:"name,omitempty"`
}

// WebSocketMessage is sent by the server: one "attempt" per candidate, then
// a single "result" or "error".
type WebSocketMessage struct {
	Type      string               `json:"type"`
	RequestID string               `json:"request_id,omitempty"`
	Attempt   *decode.Attempt      `json:"attempt,omitempty"`
	Result    *pipeline.ScanResult `json:"result,omitempty"`
	Error     string               `json:"error,omitempty"`
	ErrorType string               `json:"error_type,omitempty"`
}

// WebSocketConnWriter is an interface for writing WebSocket messages.
type WebSocketConnWriter interface {
	WriteMessage(messageType int, data []byte) error
}

// decodeWebSocketHandler streams decode attempts over a WebSocket.
func (s *Server) decodeWebSocketHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("Failed to upgrade connection to WebSocket", "error", err)
		return
	}
	defer func() { _ = conn.Close() }()

	websocketConnections.Inc()
	defer websocketConnections.Dec()

	slog.Info("WebSocket connection established", "remote_addr", r.RemoteAddr)
	s.handleWebSocketConnection(r.Context(), conn)
}

// handleWebSocketConnection processes messages until the client goes away.
func (s *Server) handleWebSocketConnection(ctx context.Context, conn *websocket.Conn) {
	// base64 inflates uploads by a third
	conn.SetReadLimit(s.maxUploadMB*1024*1024*4/3 + 4096)
	_ = conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
		return nil
	})

	done := make(chan struct{})
	defer close(done)
	go func() {
		ticker := time.NewTicker(wsPingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(10*time.Second)); err != nil {
					return
				}
			}
		}
	}()

	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Error("WebSocket error", "error", err)
			}
			return
		}
		websocketMessagesTotal.WithLabelValues("received").Inc()
		_ = conn.SetReadDeadline(time.Now().Add(wsReadTimeout))

		if messageType == websocket.TextMessage {
			s.handleWebSocketMessage(ctx, conn, data)
		}
	}
}

// handleWebSocketMessage runs one scan and reports every attempt as it ends.
func (s *Server) handleWebSocketMessage(ctx context.Context, conn WebSocketConnWriter, data []byte) {
	requestID := strconv.FormatInt(time.Now().UnixNano(), 10)

	var req WebSocketRequest
	if err := json.Unmarshal(data, &req); err != nil {
		s.sendWebSocketError(conn, requestID, "invalid_request", fmt.Sprintf("Failed to parse request: %v", err))
		return
	}
	if len(req.Image) == 0 {
		s.sendWebSocketError(conn, requestID, "invalid_request", "No image data provided")
		return
	}
	uploadSizeBytes.Observe(float64(len(req.Image)))

	img, _, err := utils.DecodeUpload(bytes.NewReader(req.Image))
	if err != nil {
		decodeRequestsTotal.WithLabelValues("websocket", "error").Inc()
		s.sendWebSocketError(conn, requestID, "invalid_image", fmt.Sprintf("Failed to decode image: %s", uploadErrorMessage(err)))
		return
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	observer := pipeline.ChainObservers(recordAttempt, func(a decode.Attempt) {
		s.sendWebSocketMessage(conn, WebSocketMessage{Type: wsMessageAttempt, RequestID: requestID, Attempt: &a})
	})

	start := time.Now()
	res, err := s.pipeline.WithObserver(observer).ProcessImage(ctx, img, "")
	decodeDuration.WithLabelValues("websocket").Observe(time.Since(start).Seconds())
	if err != nil {
		decodeRequestsTotal.WithLabelValues("websocket", "error").Inc()
		s.sendWebSocketError(conn, requestID, "processing_error", fmt.Sprintf("decode failed: %v", err))
		return
	}
	res.Source = req.Name
	if res.Source == "" {
		res.Source = defaultUploadName
	}
	applyFields(res, req.Fields)

	decodeRequestsTotal.WithLabelValues("websocket", decodeStatus(res.Found)).Inc()
	if res.Found {
		payloadLength.Observe(float64(len(res.Payload)))
	}
	s.sendWebSocketMessage(conn, WebSocketMessage{Type: wsMessageResult, RequestID: requestID, Result: res})
}

// sendWebSocketMessage sends a message over WebSocket.
func (s *Server) sendWebSocketMessage(conn WebSocketConnWriter, msg WebSocketMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		slog.Error("Failed to marshal WebSocket message", "error", err)
		return
	}

	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		slog.Error("Failed to send WebSocket message", "error", err)
		return
	}

	websocketMessagesTotal.WithLabelValues("sent").Inc()
}

// sendWebSocketError sends an error message over WebSocket.
func (s *Server) sendWebSocketError(conn WebSocketConnWriter, requestID, errorType, message string) {
	s.sendWebSocketMessage(conn, WebSocketMessage{
		Type:      wsMessageError,
		RequestID: requestID,
		Error:     message,
		ErrorType: errorType,
	})
}
