package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"echo-message/go-backend/internal/app"
	"echo-message/go-backend/internal/config"
	"echo-message/go-backend/internal/platform/promexport"
)

var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	configPath := flag.String("config", "", "Path to config.yaml (optional)")
	metricsAddr := flag.String("metrics-addr", "", "Prometheus listen address override")
	demoUser := flag.String("demo-user", "", "Demo user uid override")
	flag.Parse()
	if *showVersion {
		fmt.Printf("echo-daemon version=%s commit=%s build_date=%s\n", version, commit, buildDate)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if *metricsAddr != "" {
		_ = os.Setenv("ECHO_METRICS_ADDR", *metricsAddr)
	}
	if *demoUser != "" {
		_ = os.Setenv("ECHO_DEMO_USER", *demoUser)
	}

	cfg := config.LoadFromPath(*configPath)

	logger := app.DefaultLogger()
	svc := app.NewService(cfg.Core, clock.New(), logger)
	defer svc.Close()

	if err := svc.SeedDemoData(cfg.Core.DemoUser); err != nil {
		log.Fatalf("echo-daemon failed to seed demo data: %v", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(
		promexport.NewRegistry(svc.MetricsSnapshot),
		promhttp.HandlerOpts{},
	))
	srv := &http.Server{Addr: cfg.Metrics.Addr, Handler: mux}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	log.Printf("echo-daemon starting metrics=%s demo_user=%s", cfg.Metrics.Addr, cfg.Core.DemoUser)
	select {
	case <-ctx.Done():
	case err := <-errCh:
		log.Fatalf("echo-daemon metrics server failed: %v", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	log.Println("echo-daemon stopped")
}
