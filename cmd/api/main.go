package main

import (
	"log"
	"net/http"

	_ "github.com/Zara8170/song-ai/docs" // swagger docs

	"github.com/Zara8170/song-ai/internal/cache"
	"github.com/Zara8170/song-ai/internal/config"
	"github.com/Zara8170/song-ai/internal/db"
	"github.com/Zara8170/song-ai/internal/handler"
	"github.com/Zara8170/song-ai/internal/llm"
	"github.com/Zara8170/song-ai/internal/repository"
	"github.com/Zara8170/song-ai/internal/service"
	"github.com/Zara8170/song-ai/internal/tasks"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"
)

// @title Song AI Recommender API
// @version 1.0
// @description API de recomendación de canciones de karaoke (LLM + MySQL + Redis)
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg := config.Load()

	// MySQL, Mongo y Redis
	gdb := db.NewMySQL(cfg)
	mdb := db.NewMongo(cfg)
	redisCache := cache.New(cfg)

	// repos
	songRepo := repository.NewSongRepository(gdb)
	historyRepo := repository.NewHistoryRepository(mdb)

	// services
	gen := llm.NewClient(cfg)
	recSvc := service.NewRecommendService(songRepo, gen, redisCache, historyRepo, cfg.CacheTTLDays)

	// cola de tareas (el worker corre en su propio proceso)
	queue := tasks.NewQueue(redisCache.Client(), cfg.WorkerQueue)

	// handlers
	recH := handler.NewRecommendHandler(recSvc)
	taskH := handler.NewTaskHandler(queue, recSvc.Coordinator(), redisCache)
	histH := handler.NewHistoryHandler(historyRepo)

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// =============
	// Rutas públicas
	// =============
	r.Get("/health", handler.Health)

	// ===========================
	// Rutas protegidas con JWT
	// ===========================
	authMw := handler.JWTAuth(cfg.JWTSecret)

	r.Group(func(r chi.Router) {
		r.Use(authMw)

		// recomendación (USER normal)
		r.Post("/recommend", recH.GetRecommendations)
		r.Post("/recommend/cached", recH.GetCachedRecommendations)
		r.Get("/ws/recommendations", recH.GetRecommendationsWS)

		// el backend principal avisa cuando cambian los likes
		r.Post("/favorites/updated", taskH.FavoritesUpdated)

		r.Get("/me/history", histH.GetMyHistory)

		// ---- Endpoints solo ADMIN ----
		r.Group(func(r chi.Router) {
			r.Use(handler.AdminOnly())

			r.Post("/admin/warm", taskH.WarmActiveUsers)
			r.Get("/admin/cache/stats", taskH.CacheStats)
		})
	})

	// Swagger UI
	r.Get("/swagger/*", httpSwagger.WrapHandler)

	log.Printf("HTTP escuchando en :%s", cfg.HTTPPort)
	log.Fatal(http.ListenAndServe(":"+cfg.HTTPPort, r))
}
