package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"marketsurvival/game"
)

// Store 已结束回合的归档。写入走后台 goroutine，不阻塞游戏主循环
type Store struct {
	db  *sql.DB
	log *zap.SugaredLogger

	ch   chan game.RoundEnded
	wg   sync.WaitGroup
	once sync.Once

	closed  atomic.Bool
	dropped atomic.Uint64
}

// Round 一局的归档记录
type Round struct {
	ID          int64                   `json:"id"`
	Round       uint64                  `json:"round"`
	Reason      game.EndReason          `json:"reason"`
	StartedAt   time.Time               `json:"startedAt"`
	EndedAt     time.Time               `json:"endedAt"`
	Trades      int                     `json:"trades"`
	Leaderboard []game.LeaderboardEntry `json:"leaderboard"`
}

func Open(path string, log *zap.SugaredLogger) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("archive: empty db path")
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &Store{
		db:  db,
		log: log,
		ch:  make(chan game.RoundEnded, 64),
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS rounds (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			round INTEGER NOT NULL,
			reason TEXT NOT NULL,
			started_at TEXT NOT NULL,
			ended_at TEXT NOT NULL,
			trades INTEGER NOT NULL,
			leaderboard_json TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_rounds_ended_at ON rounds(ended_at);`,
		`CREATE TABLE IF NOT EXISTS standings (
			round_id INTEGER NOT NULL REFERENCES rounds(id) ON DELETE CASCADE,
			rank INTEGER NOT NULL,
			player_id TEXT NOT NULL,
			name TEXT NOT NULL,
			business TEXT NOT NULL,
			money INTEGER NOT NULL,
			alive INTEGER NOT NULL,
			PRIMARY KEY (round_id, rank)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_standings_name ON standings(name);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

// Close 等待排队中的回合写完再关库
func (s *Store) Close() error {
	if s == nil {
		return nil
	}
	var err error
	s.once.Do(func() {
		s.closed.Store(true)
		close(s.ch)
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}

// RecordRound 排队写入一局结果；队列满时丢弃并计数（审计日志仍有完整记录）
func (s *Store) RecordRound(ev game.RoundEnded) {
	if s == nil || s.closed.Load() {
		return
	}
	select {
	case s.ch <- ev:
	default:
		s.dropped.Add(1)
	}
}

// Dropped 因队列满被丢弃的回合数
func (s *Store) Dropped() uint64 {
	if s == nil {
		return 0
	}
	return s.dropped.Load()
}

func (s *Store) loop() {
	for ev := range s.ch {
		if err := s.insert(context.Background(), ev); err != nil {
			s.log.Errorw("archive round failed", "round", ev.Round, "err", err)
		}
	}
}

func (s *Store) insert(ctx context.Context, ev game.RoundEnded) error {
	board := ev.Leaderboard
	if board == nil {
		board = []game.LeaderboardEntry{}
	}
	raw, err := json.Marshal(board)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO rounds(round,reason,started_at,ended_at,trades,leaderboard_json) VALUES(?,?,?,?,?,?)`,
		int64(ev.Round), string(ev.Reason),
		ev.StartedAt.UTC().Format(time.RFC3339Nano), ev.EndedAt.UTC().Format(time.RFC3339Nano),
		ev.Trades, string(raw))
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO standings(round_id,rank,player_id,name,business,money,alive) VALUES(?,?,?,?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, e := range board {
		alive := 0
		if e.Alive {
			alive = 1
		}
		if _, err := stmt.ExecContext(ctx, id, e.Rank, string(e.ID), e.Name, e.Business.String(), e.Money, alive); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// ListRounds 最近结束的回合，新的在前
func (s *Store) ListRounds(ctx context.Context, limit int) ([]Round, error) {
	if s == nil {
		return nil, nil
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id,round,reason,started_at,ended_at,trades,leaderboard_json FROM rounds ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Round
	for rows.Next() {
		var (
			r              Round
			number         int64
			reason         string
			started, ended string
			leaderboard    string
		)
		if err := rows.Scan(&r.ID, &number, &reason, &started, &ended, &r.Trades, &leaderboard); err != nil {
			return nil, err
		}
		r.Round = uint64(number)
		r.Reason = game.EndReason(reason)
		if r.StartedAt, err = time.Parse(time.RFC3339Nano, started); err != nil {
			return nil, err
		}
		if r.EndedAt, err = time.Parse(time.RFC3339Nano, ended); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(leaderboard), &r.Leaderboard); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// WinsByName 各玩家名下的冠军次数
func (s *Store) WinsByName(ctx context.Context) (map[string]int, error) {
	if s == nil {
		return map[string]int{}, nil
	}
	rows, err := s.db.QueryContext(ctx, `SELECT name, COUNT(*) FROM standings WHERE rank = 1 GROUP BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[string]int{}
	for rows.Next() {
		var name string
		var n int
		if err := rows.Scan(&name, &n); err != nil {
			return nil, err
		}
		out[name] = n
	}
	return out, rows.Err()
}
