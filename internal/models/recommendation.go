package models

import "time"

// RecommendationGroup es un grupo etiquetado del payload final.
type RecommendationGroup struct {
	Label   string           `json:"label"`
	Songs   []NormalizedSong `json:"songs"`
	Tagline string           `json:"tagline"`
}

// RecommendationResult es el contrato del pipeline hacia el resto del sistema
// (capa HTTP y workers). Error solo se llena cuando no hubo candidatos.
type RecommendationResult struct {
	Groups          []RecommendationGroup `json:"groups"`
	Candidates      []NormalizedCandidate `json:"candidates"`
	Preference      *UserPreference       `json:"preference,omitempty"`
	FavoriteSongIDs []int64               `json:"favorite_song_ids"`
	Error           string                `json:"error,omitempty"`
}

// ====== Snapshots cacheados en Redis ======

// PreferenceSnapshot: documento bajo preference:<member>.
type PreferenceSnapshot struct {
	FavoriteSongIDs []int64         `json:"favorite_song_ids"`
	Preference      *UserPreference `json:"preference"`
	GeneratedDate   string          `json:"generated_date"` // YYYY-MM-DD
}

// RecommendationSnapshot: documento bajo recommend:<member>.
type RecommendationSnapshot struct {
	FavoriteSongIDs []int64               `json:"favorite_song_ids"`
	Groups          []RecommendationGroup `json:"groups"`
	Candidates      []NormalizedCandidate `json:"candidates"`
	GeneratedDate   string                `json:"generated_date"`
}

// ====== Historial en Mongo ======

// RecommendationHistory guarda cada corrida del pipeline por usuario.
// Es best-effort: si el insert falla no se rompe la respuesta.
type RecommendationHistory struct {
	ID              string    `bson:"_id,omitempty" json:"id"`
	MemberID        string    `bson:"memberId" json:"memberId"`
	FavoriteSongIDs []int64   `bson:"favoriteSongIds" json:"favoriteSongIds"`
	GroupCount      int       `bson:"groupCount" json:"groupCount"`
	SongCount       int       `bson:"songCount" json:"songCount"`
	UsedPreference  bool      `bson:"usedPreference" json:"usedPreference"`
	CreatedAt       time.Time `bson:"createdAt" json:"createdAt"`
}

// ====== Payloads de la API ======

type RecommendationRequest struct {
	MemberID        string  `json:"memberId"`
	FavoriteSongIDs []int64 `json:"favorite_song_ids"`
}

type CachedRecommendationResponse struct {
	FavoriteSongIDs []int64               `json:"favorite_song_ids"`
	Groups          []RecommendationGroup `json:"groups"`
	Candidates      []NormalizedCandidate `json:"candidates"`
	GeneratedDate   string                `json:"generated_date"`
	Cached          bool                  `json:"cached"`
}

type FavoriteUpdateRequest struct {
	MemberID        string  `json:"memberId"`
	FavoriteSongIDs []int64 `json:"favorite_song_ids"`
}
