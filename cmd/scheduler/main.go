package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"jobradar/internal/app"
	"jobradar/internal/config"
	"jobradar/internal/database/migration"

	"github.com/robfig/cron/v3"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	spec := cfg.Ingest.CronSpec
	if spec == "" {
		spec = "0 */6 * * *"
	}

	c, err := app.NewContainer(cfg, log.Default())
	if err != nil {
		log.Fatalf("failed to init container: %v", err)
	}
	defer func() {
		_ = c.Close()
	}()

	migCtx, migCancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer migCancel()
	r := migration.Runner{Dir: "migrations"}
	if err := r.Run(migCtx, c.DB.SQLDB()); err != nil {
		log.Fatalf("migration failed: %v", err)
	}

	sched := cron.New()
	_, err = sched.AddFunc(spec, func() {
		if err := c.RunsUC.TriggerRun(context.Background()); err != nil {
			log.Printf("[Scheduler] run not started: %v", err)
		}
	})
	if err != nil {
		log.Fatalf("invalid cron spec %q: %v", spec, err)
	}

	log.Printf("[Scheduler] started spec=%q", spec)
	sched.Start()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	stopCtx := sched.Stop()
	<-stopCtx.Done()
	log.Printf("[Scheduler] stopped")
}
