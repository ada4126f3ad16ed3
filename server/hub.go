package server

import (
	"context"
	"errors"
	"sync"
	"time"

	"marketsurvival/archive"
	"marketsurvival/game"
	"marketsurvival/journal"
	"marketsurvival/protocol"
)

// Input 客户端入站消息（已校验）或校验失败的原因
type Input struct {
	PlayerID game.PlayerID
	Msg      protocol.Message
	Err      error
}

var (
	errRateLimited = errors.New("rate limited")
	// ErrHubClosed Hub 已停止
	ErrHubClosed = errors.New("hub closed")
)

// HubConfig 连接层参数
type HubConfig struct {
	ActionsPerSecond float64
	ActionBurst      int
}

// HubOptions 可选协作者；nil 表示不启用
type HubOptions struct {
	Clock     game.Clock
	Metrics   *Metrics
	Journal   *journal.Recorder
	Archive   *archive.Store
	Validator *protocol.Validator
}

// Hub 唯一的串行执行线：连接注册/注销、玩家动作、定时任务都在 Run 协程中执行，
// 游戏状态因此无需加锁。Hub 同时实现 game.Sink，把事件编码后投递给各连接。
type Hub struct {
	cfg       HubConfig
	game      *game.Game
	validator *protocol.Validator
	metrics   *Metrics
	journal   *journal.Recorder
	archive   *archive.Store

	clients map[game.PlayerID]*Client

	registerChan chan *Client
	inputChan    chan Input
	leaveChan    chan game.PlayerID
	taskChan     chan func()

	done     chan struct{}
	stopOnce sync.Once
}

// NewHub 创建 Hub 与其拥有的游戏状态；调用 Run 之后才开始处理
func NewHub(cfg HubConfig, gameCfg game.Config, opts HubOptions) (*Hub, error) {
	if opts.Validator == nil {
		v, err := protocol.NewValidator()
		if err != nil {
			return nil, err
		}
		opts.Validator = v
	}
	if opts.Metrics == nil {
		opts.Metrics = NewMetrics()
	}
	if cfg.ActionsPerSecond <= 0 {
		cfg.ActionsPerSecond = 10
	}
	if cfg.ActionBurst <= 0 {
		cfg.ActionBurst = 20
	}
	h := &Hub{
		cfg:          cfg,
		validator:    opts.Validator,
		metrics:      opts.Metrics,
		journal:      opts.Journal,
		archive:      opts.Archive,
		clients:      make(map[game.PlayerID]*Client),
		registerChan: make(chan *Client),
		inputChan:    make(chan Input, 256), // 足够缓冲，避免网络读阻塞
		leaveChan:    make(chan game.PlayerID, 64),
		taskChan:     make(chan func(), 64),
		done:         make(chan struct{}),
	}
	h.game = game.New(gameCfg, game.Options{
		Clock:     opts.Clock,
		Scheduler: hubScheduler{h: h},
		Sink:      h,
		Logger:    Log.Named("game"),
	})
	return h, nil
}

func (h *Hub) Metrics() *Metrics { return h.metrics }

// Run 主循环，直到 ctx 结束
func (h *Hub) Run(ctx context.Context) {
	defer h.shutdown()
	for {
		select {
		case <-ctx.Done():
			return
		case c := <-h.registerChan:
			h.clients[c.id] = c
			h.metrics.ConnOpened()
		case id := <-h.leaveChan:
			h.removeClient(id)
		case in := <-h.inputChan:
			h.handleInput(in)
		case fn := <-h.taskChan:
			fn()
		}
	}
}

func (h *Hub) shutdown() {
	h.stopOnce.Do(func() {
		close(h.done)
		for id, c := range h.clients {
			c.close()
			delete(h.clients, id)
			h.metrics.ConnClosed()
		}
		Log.Info("hub stopped")
	})
}

// Register 新连接注册；Hub 已停止时返回 false
func (h *Hub) Register(c *Client) bool {
	select {
	case h.registerChan <- c:
		return true
	case <-h.done:
		return false
	}
}

// RequestLeave 请求在 Hub 协程中移除连接，避免并发改动游戏状态
func (h *Hub) RequestLeave(id game.PlayerID) {
	select {
	case h.leaveChan <- id:
	case <-h.done:
	}
}

// OnInput 投递入站消息。交易动作不能静默丢弃，队列满时阻塞该连接的读协程
func (h *Hub) OnInput(in Input) {
	select {
	case h.inputChan <- in:
	case <-h.done:
	}
}

// post 把任务放到 Hub 协程执行；Hub 已停止则丢弃
func (h *Hub) post(fn func()) bool {
	select {
	case h.taskChan <- fn:
		return true
	case <-h.done:
		return false
	}
}

// Do 在 Hub 协程中执行 fn 并等待完成，供 HTTP 管理接口读写游戏状态
func (h *Hub) Do(ctx context.Context, fn func(g *game.Game)) error {
	finished := make(chan struct{})
	task := func() {
		defer close(finished)
		fn(h.game)
	}
	select {
	case h.taskChan <- task:
	case <-h.done:
		return ErrHubClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-finished:
		return nil
	case <-h.done:
		return ErrHubClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *Hub) removeClient(id game.PlayerID) {
	if c, ok := h.clients[id]; ok {
		c.close()
		delete(h.clients, id)
		h.metrics.ConnClosed()
	}
	start := time.Now()
	err := h.game.Leave(id)
	if errors.Is(err, game.ErrNotJoined) {
		// 连接从未 join
		return
	}
	h.metrics.ObserveAction(game.ActionLeave, err, time.Since(start))
}

func (h *Hub) handleInput(in Input) {
	if _, ok := h.clients[in.PlayerID]; !ok {
		// 连接已注销，迟到的消息直接丢弃
		return
	}
	if in.Err != nil {
		h.rejectInput(in)
		return
	}
	start := time.Now()
	action, err := h.dispatch(in.PlayerID, in.Msg)
	h.metrics.ObserveAction(action, err, time.Since(start))
}

// rejectInput 协议层错误：游戏状态不变，只回一条错误提示
func (h *Hub) rejectInput(in Input) {
	var msg string
	switch {
	case errors.Is(in.Err, errRateLimited):
		h.metrics.IncRateLimited()
		msg = "Too many actions, slow down"
	case errors.Is(in.Err, protocol.ErrUnknownType):
		h.metrics.IncBadMessage("unknown_type")
		msg = "Unknown action " + in.Msg.Type
	case errors.Is(in.Err, protocol.ErrInvalidPayload):
		h.metrics.IncBadMessage("invalid_payload")
		msg = "Invalid " + in.Msg.Type + " request"
	default:
		h.metrics.IncBadMessage("malformed")
		msg = "Malformed message"
	}
	Log.Debugw("input rejected", "conn", in.PlayerID, "type", in.Msg.Type, "err", in.Err)
	h.Send(in.PlayerID, game.Notification{Message: msg, Type: game.NoticeError})
}

// Send game.Sink：单播
func (h *Hub) Send(to game.PlayerID, ev game.Event) {
	h.observe(ev)
	c, ok := h.clients[to]
	if !ok {
		return
	}
	b, err := protocol.Encode(ev.EventType(), ev)
	if err != nil {
		Log.Errorw("encode event failed", "type", ev.EventType(), "err", err)
		return
	}
	h.deliver(c, b)
}

// Broadcast game.Sink：发给所有连接（包括尚未 join 的观战连接）
func (h *Hub) Broadcast(ev game.Event) {
	h.observe(ev)
	b, err := protocol.Encode(ev.EventType(), ev)
	if err != nil {
		Log.Errorw("encode event failed", "type", ev.EventType(), "err", err)
		return
	}
	for _, c := range h.clients {
		h.deliver(c, b)
	}
}

func (h *Hub) deliver(c *Client, b []byte) {
	if !c.Enqueue(b) {
		h.metrics.IncOutboundDropped()
	}
}

// observe 事件旁路：指标、审计日志、回合归档
func (h *Hub) observe(ev game.Event) {
	h.metrics.ObserveEvent(ev)
	if err := h.journal.Record(ev); err != nil {
		h.metrics.IncJournalError()
		Log.Warnw("journal write failed", "type", ev.EventType(), "err", err)
	}
	if re, ok := ev.(game.RoundEnded); ok {
		h.archive.RecordRound(re)
	}
}

// hubScheduler 计时器在各自的协程里到期，回调统一投递回 Hub 协程
type hubScheduler struct{ h *Hub }

func (s hubScheduler) AfterFunc(d time.Duration, fn func()) game.Timer {
	return time.AfterFunc(d, func() { s.h.post(s.timed(fn)) })
}

func (s hubScheduler) Every(d time.Duration, fn func()) game.Timer {
	t := &everyTimer{stop: make(chan struct{})}
	go func() {
		ticker := time.NewTicker(d)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if !s.h.post(s.timed(fn)) {
					return
				}
			case <-t.stop:
				return
			}
		}
	}()
	return t
}

func (s hubScheduler) timed(fn func()) func() {
	return func() {
		start := time.Now()
		fn()
		s.h.metrics.ObserveTimerTask(time.Since(start))
	}
}

type everyTimer struct {
	once sync.Once
	stop chan struct{}
}

func (t *everyTimer) Stop() bool {
	stopped := false
	t.once.Do(func() {
		close(t.stop)
		stopped = true
	})
	return stopped
}
