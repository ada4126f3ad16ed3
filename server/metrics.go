package server

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"marketsurvival/game"
)

// Metrics 运行期关键指标（Prometheus）
type Metrics struct {
	reg *prometheus.Registry

	actions       *prometheus.CounterVec // action, result
	actionLatency prometheus.Histogram   // 主循环处理一条动作的耗时
	events        *prometheus.CounterVec // 按事件类型统计的出站消息
	outboundDrop  prometheus.Counter     // 发送队列满被丢弃
	rateLimited   prometheus.Counter     // 被限流的入站消息
	badMessages   *prometheus.CounterVec // malformed/unknown/invalid
	connections   prometheus.Gauge       // 当前 WS 连接
	players       *prometheus.GaugeVec   // alive/dead/admin
	rounds        *prometheus.CounterVec // 按结束原因
	deaths        prometheus.Counter
	trades        prometheus.Counter
	tradeVolume   prometheus.Counter // 成交金额
	roundRunning  prometheus.Gauge
	tickDuration  prometheus.Histogram // 定时任务（衰减/回合计时）耗时
	journalErrors prometheus.Counter
}

// NewMetrics 使用独立 Registry，测试中可多次创建
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := &Metrics{
		reg: reg,
		actions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "market_actions_total", Help: "Player actions by type and result code.",
		}, []string{"action", "result"}),
		actionLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name: "market_action_seconds", Help: "Time spent applying one action on the hub goroutine.",
			Buckets: prometheus.ExponentialBuckets(0.00005, 2, 12),
		}),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "market_events_total", Help: "Outbound events by type.",
		}, []string{"type"}),
		outboundDrop: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "market_outbound_dropped_total", Help: "Messages dropped because a client send queue was full.",
		}),
		rateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "market_rate_limited_total", Help: "Inbound messages rejected by the per-connection limiter.",
		}),
		badMessages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "market_bad_messages_total", Help: "Inbound messages that failed decoding or validation.",
		}, []string{"reason"}),
		connections: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "market_connections", Help: "Open websocket connections.",
		}),
		players: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "market_players", Help: "Joined players by status.",
		}, []string{"status"}),
		rounds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "market_rounds_total", Help: "Finished rounds by end reason.",
		}, []string{"reason"}),
		deaths: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "market_deaths_total", Help: "Players who died of starvation or thirst.",
		}),
		trades: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "market_trades_total", Help: "Completed market purchases.",
		}),
		tradeVolume: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "market_trade_volume", Help: "Money moved between players by market purchases.",
		}),
		roundRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "market_round_running", Help: "1 while a round is running.",
		}),
		tickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name: "market_timer_task_seconds", Help: "Time spent in decay and round timer callbacks.",
			Buckets: prometheus.ExponentialBuckets(0.00005, 2, 12),
		}),
		journalErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "market_journal_errors_total", Help: "Failed journal writes.",
		}),
	}
	reg.MustRegister(m.actions, m.actionLatency, m.events, m.outboundDrop, m.rateLimited,
		m.badMessages, m.connections, m.players, m.rounds, m.deaths, m.trades, m.tradeVolume,
		m.roundRunning, m.tickDuration, m.journalErrors)
	return m
}

// Handler 输出 /metrics
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}

// ObserveAction 记录一次动作及其结果；成功记为 ok，否则记为错误码
func (m *Metrics) ObserveAction(action string, err error, elapsed time.Duration) {
	result := "ok"
	if err != nil {
		result = string(game.CodeOf(err))
		if result == "" {
			result = "error"
		}
	}
	m.actions.WithLabelValues(action, result).Inc()
	m.actionLatency.Observe(elapsed.Seconds())
}

// ObserveEvent 按事件类型累计；经济相关事件额外计数
func (m *Metrics) ObserveEvent(ev game.Event) {
	m.events.WithLabelValues(ev.EventType()).Inc()
	switch e := ev.(type) {
	case game.TradeRecord:
		m.trades.Inc()
		m.tradeVolume.Add(float64(e.Quantity * e.Price))
	case game.PlayerDied:
		m.deaths.Inc()
	case game.RoundStarted:
		m.roundRunning.Set(1)
	case game.RoundEnded:
		m.roundRunning.Set(0)
		m.rounds.WithLabelValues(string(e.Reason)).Inc()
	case game.StateUpdate:
		var alive, dead, admins int
		for _, p := range e.Players {
			switch {
			case p.IsAdmin():
				admins++
			case p.Alive:
				alive++
			default:
				dead++
			}
		}
		m.players.WithLabelValues("alive").Set(float64(alive))
		m.players.WithLabelValues("dead").Set(float64(dead))
		m.players.WithLabelValues("admin").Set(float64(admins))
	}
}

func (m *Metrics) IncOutboundDropped()         { m.outboundDrop.Inc() }
func (m *Metrics) IncRateLimited()             { m.rateLimited.Inc() }
func (m *Metrics) IncBadMessage(reason string) { m.badMessages.WithLabelValues(reason).Inc() }
func (m *Metrics) IncJournalError()            { m.journalErrors.Inc() }
func (m *Metrics) ConnOpened()                 { m.connections.Inc() }
func (m *Metrics) ConnClosed()                 { m.connections.Dec() }
func (m *Metrics) ObserveTimerTask(d time.Duration) {
	m.tickDuration.Observe(d.Seconds())
}
