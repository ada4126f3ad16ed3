package game

import "time"

// 出站事件类型名（与客户端约定）
const (
	EventJoined           = "joined"
	EventStateUpdate      = "stateUpdate"
	EventNotification     = "notification"
	EventRoundStarted     = "roundStarted"
	EventRoundEnded       = "roundEnded"
	EventPlayerDied       = "playerDied"
	EventTradeOccurred    = "tradeOccurred"
	EventChat             = "chat"
	EventBusinessSwitched = "businessSwitched"
)

// Event 发往客户端的离散事件
type Event interface {
	EventType() string
}

// Sink 广播网关：核心只通过它向外发送
type Sink interface {
	// Send 单播给一个连接
	Send(to PlayerID, ev Event)
	// Broadcast 发给所有连接
	Broadcast(ev Event)
}

// Notification 提示级别
const (
	NoticeInfo    = "info"
	NoticeSuccess = "success"
	NoticeError   = "error"
)

type Joined struct {
	Player       Player     `json:"player"`
	GameStarted  bool       `json:"gameStarted"`
	RoundEndTime *time.Time `json:"roundEndTime"`
}

type StateUpdate struct {
	Players map[PlayerID]Player `json:"players"`
	Market  []Listing           `json:"market"`
}

type Notification struct {
	Message string `json:"message"`
	Type    string `json:"type,omitempty"`
}

type RoundStarted struct {
	RoundEndTime time.Time `json:"roundEndTime"`
}

// EndReason 一局结束的原因
type EndReason string

const (
	EndTimeout   EndReason = "timeout"
	EndAdmin     EndReason = "admin"
	EndWinner    EndReason = "winner"
	EndAdminLeft EndReason = "admin_left"
)

// LeaderboardEntry 排行榜条目
type LeaderboardEntry struct {
	Rank      int        `json:"rank"`
	ID        PlayerID   `json:"id"`
	Name      string     `json:"name"`
	Business  Business   `json:"businessType"`
	Money     int        `json:"money"`
	Alive     bool       `json:"alive"`
	DeathTime *time.Time `json:"deathTime"`
}

type RoundEnded struct {
	Round       uint64             `json:"round"`
	Reason      EndReason          `json:"reason"`
	StartedAt   time.Time          `json:"startedAt"`
	EndedAt     time.Time          `json:"endedAt"`
	Trades      int                `json:"trades"`
	Leaderboard []LeaderboardEntry `json:"leaderboard"`
}

type PlayerDied struct {
	ID   PlayerID  `json:"id"`
	Name string    `json:"name"`
	At   time.Time `json:"at"`
}

// TradeRecord 一笔成交；同时作为 tradeOccurred 事件
type TradeRecord struct {
	ListingID string    `json:"listingId"`
	BuyerID   PlayerID  `json:"buyerId"`
	Buyer     string    `json:"buyer"`
	SellerID  PlayerID  `json:"sellerId"`
	Seller    string    `json:"seller"`
	Item      Good      `json:"item"`
	Quantity  int       `json:"quantity"`
	Price     int       `json:"price"`
	Time      time.Time `json:"time"`
}

type ChatMessage struct {
	Name    string `json:"name"`
	Message string `json:"message"`
}

type BusinessSwitched struct {
	BusinessType Business `json:"businessType"`
}

func (Joined) EventType() string           { return EventJoined }
func (StateUpdate) EventType() string      { return EventStateUpdate }
func (Notification) EventType() string     { return EventNotification }
func (RoundStarted) EventType() string     { return EventRoundStarted }
func (RoundEnded) EventType() string       { return EventRoundEnded }
func (PlayerDied) EventType() string       { return EventPlayerDied }
func (TradeRecord) EventType() string      { return EventTradeOccurred }
func (ChatMessage) EventType() string      { return EventChat }
func (BusinessSwitched) EventType() string { return EventBusinessSwitched }

type nopSink struct{}

func (nopSink) Send(PlayerID, Event) {}
func (nopSink) Broadcast(Event)      {}
