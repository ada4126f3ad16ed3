package journal

import (
	"path/filepath"
	"time"

	"marketsurvival/game"
)

// Entry 审计日志中的一行
type Entry struct {
	Time time.Time  `json:"time"`
	Type string     `json:"type"`
	Data game.Event `json:"data"`
}

// Recorder 只记录影响经济与回合结果的事件：成交、死亡、开局、结算
type Recorder struct {
	w   *Writer
	now func() time.Time
}

// NewRecorder 在 dir/audit 下写 audit-YYYY-MM-DD-HH.jsonl.zst
func NewRecorder(dir string) *Recorder {
	return &Recorder{w: NewWriter(filepath.Join(dir, "audit"), "audit"), now: time.Now}
}

// Wants 事件是否会被记录
func Wants(ev game.Event) bool {
	switch ev.(type) {
	case game.TradeRecord, game.PlayerDied, game.RoundStarted, game.RoundEnded:
		return true
	}
	return false
}

// Record 追加事件；不关心的事件直接忽略。nil Recorder 安全
func (r *Recorder) Record(ev game.Event) error {
	if r == nil || !Wants(ev) {
		return nil
	}
	return r.w.Write(Entry{Time: r.now().UTC(), Type: ev.EventType(), Data: ev})
}

func (r *Recorder) Close() error {
	if r == nil {
		return nil
	}
	return r.w.Close()
}
