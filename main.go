package main

import (
	"context"
	"log"
	"os"
	"time"

	"ollamahub/internal/api"
	"ollamahub/internal/auth"
	"ollamahub/internal/config"
	"ollamahub/internal/ollama"
	"ollamahub/internal/redis"
	"ollamahub/internal/service/chats"
	"ollamahub/internal/service/fileai"
	"ollamahub/internal/service/files"
	"ollamahub/internal/service/servers"
	"ollamahub/internal/storage"

	"github.com/gin-gonic/gin"
)

func main() {
	cfgPath := os.Getenv("OLLAMAHUB_CONFIG")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	dbType := os.Getenv("OLLAMAHUB_DB")
	if dbType == "" {
		dbType = "sqlite3"
	}
	log.Printf("dbType: %s\n", dbType)
	db, err := storage.Open(dbType, cfg)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()

	rdb, err := redis.NewClient(cfg)
	if err != nil {
		// generation falls back to uncached dispatch
		log.Printf("redis unavailable, response cache disabled: %v", err)
		rdb = nil
	}
	defer rdb.Close()

	if err := storage.Migrate(db, dbType); err != nil {
		log.Fatalf("migrate database: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	registry := servers.NewService(db)
	if err := registry.Bootstrap(ctx, cfg.BasicConfig.OllamaBaseURL); err != nil {
		log.Fatalf("bootstrap server registry: %v", err)
	}

	manager := ollama.NewManager(registry)
	monitorInterval := time.Duration(cfg.BasicConfig.MonitorIntervalSeconds) * time.Second
	monitor := ollama.NewMonitor(registry, manager, monitorInterval)
	monitor.Start(ctx)

	cacheTTL := time.Duration(cfg.BasicConfig.ResponseCacheTTLMinutes) * time.Minute
	if cacheTTL <= 0 {
		cacheTTL = time.Hour
	}
	chatService := chats.NewService(db, rdb, manager, cfg.BasicConfig.DefaultModel, cacheTTL)

	fileService, err := files.NewService(db, cfg.BasicConfig.FileBaseDir)
	if err != nil {
		log.Fatalf("init file service: %v", err)
	}
	fileAIService := fileai.NewService(fileService, manager, cfg.BasicConfig.DefaultModel)

	authService := auth.NewService(db, 24*time.Hour)

	handlers := api.NewHandler(authService, chatService, fileService, fileAIService, registry, manager, monitor)

	router := gin.Default()
	handlers.RegisterRoutes(router)

	addr := cfg.BasicConfig.ServerAddress
	if addr == "" {
		addr = ":8080"
	}

	if err := router.Run(addr); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}
