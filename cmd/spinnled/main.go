package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"spinnled/internal/config"
	"spinnled/internal/led"
	"spinnled/internal/machine"
	"spinnled/internal/web"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "./dev.yaml", "Path to YAML config")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	m, err := machine.New(machine.Config{
		Board:        cfg.Machine.Board,
		Listen:       cfg.Machine.Listen,
		TickInterval: cfg.Machine.TickInterval,
		LED: led.Config{
			Backend: cfg.Machine.LED.Backend,
			Pin:     cfg.Machine.LED.Pin,
		},
		BankFile: cfg.Machine.BankFile,
		BankSize: cfg.Machine.BankSize,
	})
	if err != nil {
		log.Fatalf("machine init failed: %v", err)
	}

	if err := m.Start(ctx); err != nil {
		log.Fatalf("machine start failed: %v", err)
	}
	defer m.Close()

	log.Printf("spinnled starting")
	log.Printf("board=%s scp=%s tick=%s led=%s", cfg.Machine.Board, m.Addr(), cfg.Machine.TickInterval, cfg.Machine.LED.Backend)

	if cfg.Web.Enable {
		srv := &http.Server{
			Addr:    cfg.Web.Addr,
			Handler: web.Handler(m, cfg.Web.PasswordHash),
		}
		go func() {
			log.Printf("web status on %s", cfg.Web.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Printf("web server stopped: %v", err)
				cancel()
			}
		}()
		defer func() {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer shutdownCancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	<-ctx.Done()
	log.Printf("spinnled stopping")
}
