package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"marketsurvival/archive"
	"marketsurvival/config"
	"marketsurvival/journal"
	"marketsurvival/server"
)

// Market Survival 入口：加载配置，启动 Hub 与 HTTP + WebSocket 服务
func main() {
	var cfgPath, addr string
	flag.StringVar(&cfgPath, "config", "", "path to YAML config (optional)")
	flag.StringVar(&addr, "addr", "", "listen address override, e.g. :8080")
	flag.Parse()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		panic(err)
	}
	cfg.ApplyEnv()
	if addr != "" {
		cfg.Server.Addr = addr
	}

	if err := server.InitLogger(cfg.Log.File, cfg.Log.Level); err != nil {
		panic(err)
	}
	defer server.SyncLogger()

	gameCfg, err := cfg.GameConfig()
	if err != nil {
		server.Log.Fatalf("config: %v", err)
	}
	if gameCfg.AdminKey == "" {
		server.Log.Warn("admin.key is empty: nobody can join as admin and /admin is disabled")
	}

	var rec *journal.Recorder
	if cfg.Journal.Dir != "" {
		rec = journal.NewRecorder(cfg.Journal.Dir)
		defer rec.Close()
	}
	var store *archive.Store
	if cfg.Archive.Path != "" {
		store, err = archive.Open(cfg.Archive.Path, server.Log.Named("archive"))
		if err != nil {
			server.Log.Fatalf("archive: %v", err)
		}
		defer store.Close()
	}

	hub, err := server.NewHub(server.HubConfig{
		ActionsPerSecond: cfg.Server.ActionsPerSecond,
		ActionBurst:      cfg.Server.ActionBurst,
	}, gameCfg, server.HubOptions{Journal: rec, Archive: store})
	if err != nil {
		server.Log.Fatalf("hub: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	hubDone := make(chan struct{})
	go func() {
		defer close(hubDone)
		hub.Run(ctx)
	}()

	handler := server.NewRouter(hub, server.NewAdminAPI(hub, store, gameCfg.AdminKey), cfg.Server.StaticDir)
	srv := &http.Server{Addr: cfg.Server.Addr, Handler: handler, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		server.Log.Infof("Market Survival listening on %s", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			server.Log.Errorf("listen: %v", err)
			stop()
		}
	}()

	// 优雅退出（Ctrl+C）
	<-ctx.Done()
	server.Log.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		server.Log.Warnf("http shutdown: %v", err)
	}
	<-hubDone
}
