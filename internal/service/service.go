// Package service implementa el pipeline de recomendación:
// análisis de gusto, scoring, selección con IA, reconciliación contra el
// catálogo, agrupado dinámico y coordinación del cache.
package service

import (
	"context"
	"time"

	"github.com/Zara8170/song-ai/internal/llm"
	"github.com/Zara8170/song-ai/internal/models"
)

// TextGenerator es la única operación que el pipeline le pide al LLM.
// Cada punto de llamada tiene su fallback determinista local.
type TextGenerator interface {
	Complete(ctx context.Context, req llm.CompleteRequest) (string, error)
}

// Catalog es el contrato hacia el catálogo relacional.
type Catalog interface {
	Favorites(ctx context.Context, ids []int64) ([]*models.Song, error)
	Candidates(ctx context.Context, favoriteIDs []int64, limit int,
		preferredGenres, preferredMoods []string) ([]*models.CandidateSong, error)
	SongsByArtists(ctx context.Context, names []string, limitPerArtist int,
		excludeIDs []int64) (map[string][]*models.Song, error)
}

// SnapshotStore es el KV compartido donde viven los snapshots por usuario.
// Solo se asume atomicidad por clave; ninguna garantía transaccional más.
type SnapshotStore interface {
	GetJSON(ctx context.Context, key string, dest any) (bool, error)
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// HistoryStore guarda el historial de corridas (best-effort).
type HistoryStore interface {
	Insert(ctx context.Context, h *models.RecommendationHistory) error
}
