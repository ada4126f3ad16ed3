package server

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"marketsurvival/game"
)

const (
	writeWait      = 5 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10
	maxMessageSize = 16 << 10
	sendQueueSize  = 64
)

// Client 一个 WebSocket 连接；连接 id 即玩家 id
type Client struct {
	id   game.PlayerID
	ws   *websocket.Conn
	send chan []byte
	// 仅由 Hub 协程读写
	closed bool

	// 仅由读协程使用
	limiter *rate.Limiter
}

func NewClient(ws *websocket.Conn, perSecond float64, burst int) *Client {
	return &Client{
		id:      game.PlayerID(uuid.NewString()),
		ws:      ws,
		send:    make(chan []byte, sendQueueSize),
		limiter: rate.NewLimiter(rate.Limit(perSecond), burst),
	}
}

func (c *Client) ID() game.PlayerID { return c.id }

// Enqueue 将要发送的消息压入队列（非阻塞，满则丢弃并返回 false）
// 只能在 Hub 协程中调用
func (c *Client) Enqueue(b []byte) bool {
	if c.closed {
		return false
	}
	select {
	case c.send <- b:
		return true
	default:
		return false
	}
}

// close 关闭发送队列以结束写协程；只能在 Hub 协程中调用一次
func (c *Client) close() {
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// writePump 独立协程，负责从 send 队列写出到 WS，并定时 ping
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.ws.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.ws.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.ws.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump 读取客户端消息，校验后投递给 Hub；退出时请求 Hub 移除该连接
func (c *Client) readPump(h *Hub) {
	defer func() {
		h.RequestLeave(c.id)
		_ = c.ws.Close()
	}()
	c.ws.SetReadLimit(maxMessageSize)
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error { return c.ws.SetReadDeadline(time.Now().Add(pongWait)) })

	for {
		_, payload, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				Log.Debugw("ws read error", "conn", c.id, "err", err)
			}
			return
		}
		if !c.limiter.Allow() {
			h.OnInput(Input{PlayerID: c.id, Err: errRateLimited})
			continue
		}
		msg, err := h.validator.Decode(payload)
		h.OnInput(Input{PlayerID: c.id, Msg: msg, Err: err})
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// 同源与跨源客户端都允许；鉴权在 join 时完成
		return true
	},
}

// HandleWS WebSocket 接入：连接建立即注册到 Hub，收到 join 后才成为玩家
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		Log.Warnw("upgrade error", "remote", r.RemoteAddr, "err", err)
		return
	}

	client := NewClient(ws, h.cfg.ActionsPerSecond, h.cfg.ActionBurst)
	if !h.Register(client) {
		_ = ws.Close()
		return
	}
	Log.Debugw("ws connected", "conn", client.id, "remote", r.RemoteAddr)

	go client.writePump()
	go client.readPump(h)
}
