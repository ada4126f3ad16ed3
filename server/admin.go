package server

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"marketsurvival/archive"
	"marketsurvival/config"
	"marketsurvival/game"
)

// AdminAPI HTTP 管理接口，所有请求需携带 X-Admin-Key
type AdminAPI struct {
	hub     *Hub
	archive *archive.Store
	key     string
}

func NewAdminAPI(hub *Hub, store *archive.Store, key string) *AdminAPI {
	return &AdminAPI{hub: hub, archive: store, key: key}
}

// RequireKey 口令校验中间件；未配置口令时一律拒绝
func (a *AdminAPI) RequireKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got := r.Header.Get("X-Admin-Key")
		if a.key == "" || subtle.ConstantTimeCompare([]byte(got), []byte(a.key)) != 1 {
			writeJSON(w, http.StatusForbidden, map[string]string{"error": "admin key required"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

type stateResponse struct {
	Phase        string                        `json:"phase"`
	Round        uint64                        `json:"round"`
	RoundEndTime *time.Time                    `json:"roundEndTime"`
	Players      map[game.PlayerID]game.Player `json:"players"`
	Market       []game.Listing                `json:"market"`
	Trades       []game.TradeRecord            `json:"trades"`
}

// HandleState GET /admin/state 当前回合与全量快照
func (a *AdminAPI) HandleState(w http.ResponseWriter, r *http.Request) {
	var resp stateResponse
	err := a.hub.Do(r.Context(), func(g *game.Game) {
		snap := g.Snapshot()
		resp = stateResponse{
			Phase:   g.Phase().String(),
			Round:   g.Round(),
			Players: snap.Players,
			Market:  snap.Market,
			Trades:  g.Trades(),
		}
		if end, ok := g.RoundEndTime(); ok {
			resp.RoundEndTime = &end
		}
	})
	if err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleGetConfig GET /admin/config 当前可热更新的参数
func (a *AdminAPI) HandleGetConfig(w http.ResponseWriter, r *http.Request) {
	var cur config.GameConfig
	if err := a.hub.Do(r.Context(), func(g *game.Game) { cur = config.FromGame(g.Config()) }); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, cur)
}

// HandleSetConfig POST /admin/config 以 JSON 载荷更新部分字段；计时参数从下一局生效
func (a *AdminAPI) HandleSetConfig(w http.ResponseWriter, r *http.Request) {
	var (
		applied config.GameConfig
		status  = http.StatusOK
		failure error
	)
	var body json.RawMessage
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10)).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	// 以当前值为底叠加请求体，未出现的字段保持不变
	err := a.hub.Do(r.Context(), func(g *game.Game) {
		cur := g.Config()
		patch := config.FromGame(cur)
		if err := json.Unmarshal(body, &patch); err != nil {
			status, failure = http.StatusBadRequest, err
			return
		}
		next, err := patch.Resolve(cur.AdminKey)
		if err != nil {
			status, failure = http.StatusBadRequest, err
			return
		}
		g.SetConfig(next)
		applied = config.FromGame(next)
	})
	if err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": err.Error()})
		return
	}
	if failure != nil {
		writeJSON(w, status, map[string]string{"error": failure.Error()})
		return
	}
	Log.Infow("config updated", "config", applied)
	writeJSON(w, http.StatusOK, applied)
}

// HandleRounds GET /admin/rounds?limit=20 已归档的回合
func (a *AdminAPI) HandleRounds(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	rounds, err := a.archive.ListRounds(r.Context(), limit)
	if err != nil {
		Log.Errorw("list rounds failed", "err", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "archive unavailable"})
		return
	}
	if rounds == nil {
		rounds = []archive.Round{}
	}
	writeJSON(w, http.StatusOK, rounds)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// HandleWins GET /admin/wins 按玩家名统计的历史冠军次数
func (a *AdminAPI) HandleWins(w http.ResponseWriter, r *http.Request) {
	wins, err := a.archive.WinsByName(r.Context())
	if err != nil {
		Log.Errorw("count wins failed", "err", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "archive unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, wins)
}
