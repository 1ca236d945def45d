package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/Zara8170/song-ai/internal/cache"
	"github.com/Zara8170/song-ai/internal/models"
	"github.com/Zara8170/song-ai/internal/service"
	"github.com/Zara8170/song-ai/internal/tasks"
)

type TaskHandler struct {
	queue       *tasks.Queue
	coordinator *service.CacheCoordinator
	cache       *cache.Cache
}

func NewTaskHandler(q *tasks.Queue, coord *service.CacheCoordinator, c *cache.Cache) *TaskHandler {
	return &TaskHandler{queue: q, coordinator: coord, cache: c}
}

// @Summary Notificar cambio de favoritos
// @Description Invalida los snapshots del miembro y encola el re-análisis y la regeneración
// @Tags tasks
// @Accept json
// @Produce json
// @Param request body models.FavoriteUpdateRequest true "nuevo conjunto de favoritos"
// @Success 202 {object} map[string]string
// @Router /favorites/updated [post]
func (h *TaskHandler) FavoritesUpdated(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	var req models.FavoriteUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "body inválido", http.StatusBadRequest)
		return
	}

	memberID := MemberIDFromContext(r.Context())
	if memberID == "" {
		memberID = req.MemberID
	}
	if memberID == "" {
		http.Error(w, "memberId requerido", http.StatusBadRequest)
		return
	}

	// tirar primero los snapshots viejos: aunque las tareas se pierdan,
	// el próximo read ve un miss en vez de datos de un set anterior
	if err := h.coordinator.Invalidate(r.Context(), memberID, "all"); err != nil {
		http.Error(w, err.Error(), 500)
		return
	}

	for _, kind := range []string{tasks.KindAnalyzePreference, tasks.KindGenerateRecommendations} {
		if err := h.queue.Enqueue(r.Context(), tasks.Task{
			Kind:            kind,
			MemberID:        memberID,
			FavoriteSongIDs: req.FavoriteSongIDs,
		}); err != nil {
			http.Error(w, err.Error(), 500)
			return
		}
	}

	w.WriteHeader(http.StatusAccepted)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"status": "accepted",
		"msg":    "favoritos actualizados, regeneración encolada",
	})
}

// @Summary Precalentar usuarios activos
// @Description Encola una tarea que regenera el cache de todos los usuarios activos (solo admin)
// @Tags tasks
// @Produce json
// @Param limit query int false "máximo de usuarios (default 1000)"
// @Success 202 {object} map[string]string
// @Router /admin/warm [post]
func (h *TaskHandler) WarmActiveUsers(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	if err := h.queue.Enqueue(r.Context(), tasks.Task{
		Kind:  tasks.KindWarmActiveUsers,
		Limit: limit,
	}); err != nil {
		http.Error(w, err.Error(), 500)
		return
	}

	w.WriteHeader(http.StatusAccepted)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "accepted"})
}

// @Summary Estadísticas del cache
// @Description Cuenta snapshots de preferencia y recomendación vivos en Redis (solo admin)
// @Tags tasks
// @Produce json
// @Success 200 {object} map[string]int
// @Router /admin/cache/stats [get]
func (h *TaskHandler) CacheStats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	prefs, err := h.cache.Keys(r.Context(), "preference:*")
	if err != nil {
		http.Error(w, err.Error(), 500)
		return
	}
	recs, err := h.cache.Keys(r.Context(), "recommend:*")
	if err != nil {
		http.Error(w, err.Error(), 500)
		return
	}

	_ = json.NewEncoder(w).Encode(map[string]int{
		"preference_snapshots":     len(prefs),
		"recommendation_snapshots": len(recs),
	})
}
