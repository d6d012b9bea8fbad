package main

import (
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"dungeoncrawl/server"
)

// 入口：启动 HTTP + WebSocket 服务，按环境选择仓储实现
func main() {
	var addr string
	flag.StringVar(&addr, "addr", ":8080", "server listen address, e.g. :8080")
	flag.Parse()

	// .env 可选：提供 MYSQL_DSN / LOG_LEVEL 等
	_ = godotenv.Load()

	// 使用第三方 zap 日志库写入 app.log（带滚动）
	if err := server.InitLogger("app.log"); err != nil {
		panic(err)
	}
	defer server.SyncLogger()

	store, err := server.NewStorageFromEnv()
	if err != nil {
		server.Log.Fatalf("storage init: %v", err)
	}
	app := server.NewApp(store)

	mux := http.NewServeMux()
	app.Routes(mux)
	// 前后端分离：将 / 映射到 web 目录的静态资源
	mux.Handle("/", http.FileServer(http.Dir("web")))

	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		server.Log.Infof("dungeoncrawl listening on %s; open http://localhost%v/", addr, addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			server.Log.Fatalf("listen: %v", err)
		}
	}()

	// 优雅退出（Ctrl+C）
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	server.Log.Info("Shutting down...")
}
