package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/Zara8170/song-ai/internal/models"
	"github.com/Zara8170/song-ai/internal/service"

	"github.com/gorilla/websocket"
)

type RecommendHandler struct {
	svc *service.RecommendService
}

func NewRecommendHandler(s *service.RecommendService) *RecommendHandler {
	return &RecommendHandler{svc: s}
}

// @Summary Recomendaciones personalizadas
// @Description Genera (o devuelve del cache) los grupos de recomendación del miembro
// @Tags recommend
// @Accept json
// @Produce json
// @Param request body models.RecommendationRequest true "favoritos del miembro"
// @Success 200 {object} models.CachedRecommendationResponse
// @Router /recommend [post]
func (h *RecommendHandler) GetRecommendations(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	var req models.RecommendationRequest
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

	resp, _, err := h.svc.RecommendForMember(r.Context(), memberID, req.FavoriteSongIDs)
	if err != nil {
		var empty *service.EmptyPoolError
		if errors.As(err, &empty) {
			http.Error(w, empty.Message, http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), 500)
		return
	}
	_ = json.NewEncoder(w).Encode(resp)
}

// @Summary Recomendación cacheada
// @Description Devuelve el snapshot cacheado sin disparar el pipeline; 404 si no hay cache válido
// @Tags recommend
// @Accept json
// @Produce json
// @Param request body models.RecommendationRequest true "favoritos del miembro"
// @Success 200 {object} models.CachedRecommendationResponse
// @Failure 404 {string} string "sin cache válido"
// @Router /recommend/cached [post]
func (h *RecommendHandler) GetCachedRecommendations(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	var req models.RecommendationRequest
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

	snap, ok := h.svc.Coordinator().LoadRecommendation(r.Context(), memberID, req.FavoriteSongIDs)
	if !ok {
		http.Error(w, "sin recomendación cacheada para este miembro", http.StatusNotFound)
		return
	}
	_ = json.NewEncoder(w).Encode(models.CachedRecommendationResponse{
		FavoriteSongIDs: snap.FavoriteSongIDs,
		Groups:          snap.Groups,
		Candidates:      snap.Candidates,
		GeneratedDate:   snap.GeneratedDate,
		Cached:          true,
	})
}

// upgrader global (no afecta a swagger)
var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// @Summary Recomendaciones en tiempo real (WebSocket)
// @Description Abre un WS, manda progreso por etapa y al final los grupos
// @Tags recommend
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /ws/recommendations [get]
func (h *RecommendHandler) GetRecommendationsWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		http.Error(w, "No se pudo abrir WebSocket", 400)
		return
	}
	defer conn.Close()

	var req models.RecommendationRequest
	if err := conn.ReadJSON(&req); err != nil {
		conn.WriteJSON(map[string]any{"type": "error", "error": "primer mensaje debe ser el request JSON"})
		return
	}

	memberID := MemberIDFromContext(r.Context())
	if memberID == "" {
		memberID = req.MemberID
	}
	if memberID == "" {
		conn.WriteJSON(map[string]any{"type": "error", "error": "memberId requerido"})
		return
	}

	// Mensaje inicial
	conn.WriteJSON(map[string]any{
		"type": "start",
		"msg":  "Conexión WS abierta, generando recomendaciones…",
	})

	// ¿hay snapshot vigente? avisar antes de correr el pipeline
	if _, ok := h.svc.Coordinator().LoadRecommendation(r.Context(), memberID, req.FavoriteSongIDs); ok {
		conn.WriteJSON(map[string]any{"type": "progress", "stage": "cache vigente, devolviendo snapshot"})
	} else {
		conn.WriteJSON(map[string]any{"type": "progress", "stage": "analizando preferencias y seleccionando canciones"})
	}

	resp, cached, err := h.svc.RecommendForMember(r.Context(), memberID, req.FavoriteSongIDs)
	if err != nil {
		conn.WriteJSON(map[string]any{"type": "error", "error": err.Error()})
		return
	}

	conn.WriteJSON(map[string]any{
		"type":        "recommendations",
		"memberId":    memberID,
		"cached":      cached,
		"groups":      resp.Groups,
		"generatedAt": time.Now(),
	})
}
