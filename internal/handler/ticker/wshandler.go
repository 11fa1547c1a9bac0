package ticker

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	json "github.com/goccy/go-json"

	"gridflow/internal/model"
	"gridflow/pkg/logger"
)

// 把运行时收到的行情tick广播给websocket客户端，只读、旁路

// 一个已连接的客户端。socket的写入只发生在writePump协程里，
// 广播侧只往send通道投递
type clientConn struct {
	conn *websocket.Conn
	send chan []byte // 异步发送通道
}

type Handler struct {
	mu       sync.RWMutex
	clients  map[*clientConn]struct{}
	upgrader websocket.Upgrader
}

func NewHandler() *Handler {
	return &Handler{
		clients: make(map[*clientConn]struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true }, // 允许跨域
		},
	}
}

func (h *Handler) ServeWS(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Errorf("websocket upgrade error: %v", err)
		return
	}
	client := &clientConn{
		conn: conn,
		send: make(chan []byte, 100),
	}

	h.mu.Lock()
	h.clients[client] = struct{}{}
	h.mu.Unlock()

	// 不断从send channel取消息，然后写入WebSocket
	go client.writePump()

	// 读协程只负责探测断开
	go func() {
		defer h.drop(client)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// Broadcast 把tick投递给所有连接的发送队列。
// 不同实例的tick会并发到达，这里不直接写socket
func (h *Handler) Broadcast(tick model.Tick) {
	data, err := json.Marshal(tick)
	if err != nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients {
		select {
		case client.send <- data:
		default:
			// 队列满就丢掉，客户端只关心最新行情
		}
	}
}

func (h *Handler) drop(client *clientConn) {
	h.mu.Lock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
	}
	h.mu.Unlock()
	_ = client.conn.Close()
}

func (c *clientConn) writePump() {
	defer c.conn.Close()
	for msg := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
}
