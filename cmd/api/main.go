package main

import (
	"log"

	"github.com/redis/go-redis/v9"

	"github.com/rhulha/WebTracker/config"
	"github.com/rhulha/WebTracker/internal/bootstrap"
	"github.com/rhulha/WebTracker/internal/janitor"
	"github.com/rhulha/WebTracker/internal/projects/service"
	"github.com/rhulha/WebTracker/internal/projects/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	bootstrap.SetGinMode(cfg.App.Environment)

	var cache store.UsageCache
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		cache = store.NewRedisUsageCache(client)
		log.Printf("usage cache: redis at %s", cfg.Redis.Addr)
	}

	st, err := store.NewStore(cfg.Storage.ProjectsDir, cache)
	if err != nil {
		log.Fatalf("store: %v", err)
	}

	sweeper := janitor.NewScheduler(st, cfg.Janitor.TempMaxAge)
	if err := sweeper.Start(cfg.Janitor.Spec); err != nil {
		log.Fatalf("janitor: %v", err)
	}
	defer sweeper.Stop()

	router := bootstrap.BuildRouter(bootstrap.RouterDeps{
		ServiceName:    "webtracker-backend",
		Version:        cfg.App.Version,
		ProjectsRoot:   st.Root(),
		CORSOrigins:    cfg.Server.CORSOrigins,
		RateLimitRPS:   cfg.Server.RateLimitRPS,
		RateLimitBurst: cfg.Server.RateLimitBurst,
		Service:        service.NewProjectService(st),
	})

	log.Printf("listening on :%s (projects root %s)", cfg.Server.Port, st.Root())
	if err := router.Run(":" + cfg.Server.Port); err != nil {
		log.Fatalf("server: %v", err)
	}
}
