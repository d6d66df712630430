package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	avisosapp "github.com/xdie/clasificados/server/avisos/app"
	commonlog "github.com/xdie/clasificados/server/common/log"
)

func main() {
	cfg := avisosapp.LoadConfig()

	server, err := avisosapp.NewServer(cfg)
	if err != nil {
		log.Fatalf("initialize clasificados server: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		commonlog.Infof("start clasificados http server on :%s", cfg.Port)
		if err := server.HTTPServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("run clasificados http server: %v", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		commonlog.Errorf("shutdown clasificados server gracefully: %v", err)
	}
}
