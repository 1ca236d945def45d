package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/Zara8170/song-ai/internal/cache"
	"github.com/Zara8170/song-ai/internal/config"
	"github.com/Zara8170/song-ai/internal/db"
	"github.com/Zara8170/song-ai/internal/llm"
	"github.com/Zara8170/song-ai/internal/repository"
	"github.com/Zara8170/song-ai/internal/service"
	"github.com/Zara8170/song-ai/internal/tasks"
)

func main() {
	cfg := config.Load()

	gdb := db.NewMySQL(cfg)
	mdb := db.NewMongo(cfg)
	redisCache := cache.New(cfg)

	songRepo := repository.NewSongRepository(gdb)
	memberRepo := repository.NewMemberRepository(gdb)
	historyRepo := repository.NewHistoryRepository(mdb)

	gen := llm.NewClient(cfg)
	recSvc := service.NewRecommendService(songRepo, gen, redisCache, historyRepo, cfg.CacheTTLDays)

	queue := tasks.NewQueue(redisCache.Client(), cfg.WorkerQueue)
	worker := tasks.NewWorker(queue, recSvc, songRepo, memberRepo, cfg.MaxRetries)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// refresh diario: barre recommend:* y encola el warming
	refreshHour := 3
	if v := os.Getenv("DAILY_REFRESH_HOUR"); v != "" {
		if h, err := strconv.Atoi(v); err == nil && h >= 0 && h <= 23 {
			refreshHour = h
		}
	}
	go worker.RunDailyRefresh(ctx, redisCache, refreshHour)

	log.Printf("[worker] escuchando cola %s", cfg.WorkerQueue)
	if err := worker.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatalf("❌ worker terminó con error: %v", err)
	}
	log.Println("[worker] apagado limpio")
}
