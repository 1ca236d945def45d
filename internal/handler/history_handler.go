package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/Zara8170/song-ai/internal/repository"
)

type HistoryHandler struct {
	repo *repository.HistoryRepository
}

func NewHistoryHandler(r *repository.HistoryRepository) *HistoryHandler {
	return &HistoryHandler{repo: r}
}

// @Summary Historial de recomendaciones
// @Description Últimas corridas del pipeline para el miembro autenticado
// @Tags history
// @Produce json
// @Param limit query int false "máximo de entradas (default 10)"
// @Success 200 {array} models.RecommendationHistory
// @Router /me/history [get]
func (h *HistoryHandler) GetMyHistory(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	memberID := MemberIDFromContext(r.Context())
	if memberID == "" {
		http.Error(w, "memberId requerido", http.StatusUnauthorized)
		return
	}

	limit, _ := strconv.ParseInt(r.URL.Query().Get("limit"), 10, 64)
	if limit <= 0 {
		limit = 10
	}

	entries, err := h.repo.FindByMember(r.Context(), memberID, limit)
	if err != nil {
		http.Error(w, err.Error(), 500)
		return
	}
	_ = json.NewEncoder(w).Encode(entries)
}
