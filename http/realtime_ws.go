package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	wsWriteWait      = 10 * time.Second
	wsPongWait       = 60 * time.Second
	wsPingPeriod     = (wsPongWait * 9) / 10
	wsMaxMessageSize = 4096
	wsSendBuffer     = 16
)

// LiveMessage 客户端请求：id原样回传，用于丢弃过期响应
type LiveMessage struct {
	ID      string         `json:"id"`
	Request PredictRequest `json:"request"`
}

// LiveResponse 服务端响应
type LiveResponse struct {
	ID         string           `json:"id"`
	Prediction *PredictResponse `json:"prediction,omitempty"`
	Error      string           `json:"error,omitempty"`
}

// LiveScorer 通过WebSocket对表单实时重新评分（拖动阈值滑块时使用）
type LiveScorer struct {
	handlers *Handlers
	logger   *zap.Logger
	upgrader websocket.Upgrader

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	clients map[*liveClient]struct{}
}

type liveClient struct {
	conn     *websocket.Conn
	send     chan []byte
	clientID string
}

// NewLiveScorer 创建实时评分器
func NewLiveScorer(h *Handlers, allowedOrigins []string) *LiveScorer {
	ctx, cancel := context.WithCancel(context.Background())
	return &LiveScorer{
		handlers: h,
		logger:   h.logger,
		upgrader: websocket.Upgrader{
			CheckOrigin:     originChecker(allowedOrigins),
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		ctx:     ctx,
		cancel:  cancel,
		clients: make(map[*liveClient]struct{}),
	}
}

// HandleWebSocket 处理WebSocket连接，读循环在请求协程中运行直到连接关闭
func (s *LiveScorer) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", zap.String("request_id", GetRequestID(r.Context())), zap.Error(err))
		return
	}

	client := &liveClient{
		conn:     conn,
		send:     make(chan []byte, wsSendBuffer),
		clientID: uuid.New().String(),
	}
	if !s.register(client) {
		conn.Close()
		return
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.writePump(client)
	}()
	s.readPump(client)
	<-done
}

// Close 关闭所有连接
func (s *LiveScorer) Close() {
	s.cancel()
	s.mu.Lock()
	defer s.mu.Unlock()
	for client := range s.clients {
		client.conn.Close()
	}
}

// ClientCount 当前连接数
func (s *LiveScorer) ClientCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

func (s *LiveScorer) register(client *liveClient) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ctx.Err() != nil {
		return false
	}
	s.clients[client] = struct{}{}
	s.logger.Debug("live client connected", zap.String("client_id", client.clientID), zap.Int("total", len(s.clients)))
	return true
}

func (s *LiveScorer) unregister(client *liveClient) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.clients[client]; ok {
		delete(s.clients, client)
		close(client.send)
		s.logger.Debug("live client disconnected", zap.String("client_id", client.clientID), zap.Int("total", len(s.clients)))
	}
}

// readPump WebSocket读取泵
func (s *LiveScorer) readPump(client *liveClient) {
	defer func() {
		s.unregister(client)
		client.conn.Close()
	}()

	client.conn.SetReadLimit(wsMaxMessageSize)
	client.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	client.conn.SetPongHandler(func(string) error {
		return client.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	for {
		_, data, err := client.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Warn("websocket read error", zap.String("client_id", client.clientID), zap.Error(err))
			}
			return
		}

		payload, err := json.Marshal(s.score(data))
		if err != nil {
			s.logger.Error("encode live response failed", zap.Error(err))
			continue
		}
		select {
		case client.send <- payload:
		case <-s.ctx.Done():
			return
		}
	}
}

func (s *LiveScorer) score(data []byte) LiveResponse {
	msg := LiveMessage{Request: newPredictRequest()}
	if err := json.Unmarshal(data, &msg); err != nil {
		return LiveResponse{Error: "invalid message: " + err.Error()}
	}

	prediction, err := s.handlers.predictor.Predict(s.ctx, msg.Request.Transaction, s.handlers.threshold(msg.Request))
	if err != nil {
		if statusForError(err) >= http.StatusInternalServerError {
			s.logger.Error("live prediction failed", zap.Error(err))
			return LiveResponse{ID: msg.ID, Error: "prediction failed"}
		}
		return LiveResponse{ID: msg.ID, Error: err.Error()}
	}
	response := newPredictResponse(prediction)
	return LiveResponse{ID: msg.ID, Prediction: &response}
}

// writePump WebSocket写入泵
func (s *LiveScorer) writePump(client *liveClient) {
	ticker := time.NewTicker(wsPingPeriod)
	defer func() {
		ticker.Stop()
		client.conn.Close()
	}()

	for {
		select {
		case message, ok := <-client.send:
			client.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if !ok {
				client.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := client.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				s.logger.Warn("websocket write error", zap.String("client_id", client.clientID), zap.Error(err))
				return
			}

		case <-ticker.C:
			client.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := client.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// originChecker 允许"*"、配置中的来源以及同源请求
func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, o := range allowed {
			if o == "*" || o == origin {
				return true
			}
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		return u.Host == r.Host
	}
}
