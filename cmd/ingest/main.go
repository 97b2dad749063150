package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"time"

	"jobradar/internal/app"
	"jobradar/internal/config"
	"jobradar/internal/database/migration"

	"github.com/google/uuid"
)

func main() {
	timeout := flag.Duration("timeout", 30*time.Minute, "maximum run duration")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
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

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	owner := uuid.NewString()
	ok, err := c.Cache.AcquireRunLock(ctx, owner, *timeout)
	if err != nil {
		log.Fatalf("run lock error: %v", err)
	}
	if !ok {
		log.Fatalf("another run is in progress")
	}
	defer func() {
		_ = c.Cache.ReleaseRunLock(context.Background(), owner)
	}()

	sum, err := c.Runner.Run(ctx)
	if err != nil {
		log.Fatalf("run failed: %v", err)
	}

	_ = c.Cache.InvalidateAfterRun(ctx)

	b, _ := json.MarshalIndent(sum, "", "  ")
	log.Printf("run finished:\n%s", b)
}
