package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/Zara8170/song-ai/internal/models"
)

// CacheCoordinator maneja los dos snapshots por usuario (preferencia y
// recomendación) en el KV compartido. Reglas:
//   - un snapshot vale solo si su set de favoritos coincide con el del
//     request (sin importar el orden)
//   - el snapshot de recomendación además exige el mismo día calendario
//   - preferencia inválida invalida en cascada la recomendación; al revés no
//   - JSON corrupto o campos faltantes = miss, y la clave se borra al tiro
//
// Escrituras siempre de snapshot completo: requests concurrentes del mismo
// usuario pueden correr el pipeline dos veces y gana el último en escribir.
// Esa carrera es benigna y no se "arregla" con locks.
type CacheCoordinator struct {
	store SnapshotStore
	ttl   time.Duration
	now   func() time.Time
}

func NewCacheCoordinator(store SnapshotStore, ttlDays int) *CacheCoordinator {
	if ttlDays <= 0 {
		ttlDays = 7
	}
	return &CacheCoordinator{
		store: store,
		ttl:   time.Duration(ttlDays) * 24 * time.Hour,
		now:   time.Now,
	}
}

func preferenceKey(memberID string) string { return "preference:" + memberID }
func recommendKey(memberID string) string  { return "recommend:" + memberID }

func (c *CacheCoordinator) today() string {
	return c.now().Format("2006-01-02")
}

// SameIDSet compara dos listas de ids como conjuntos (orden irrelevante,
// duplicados colapsados).
func SameIDSet(a, b []int64) bool {
	as := make(map[int64]bool, len(a))
	for _, id := range a {
		as[id] = true
	}
	bs := make(map[int64]bool, len(b))
	for _, id := range b {
		bs[id] = true
	}
	if len(as) != len(bs) {
		return false
	}
	for id := range as {
		if !bs[id] {
			return false
		}
	}
	return true
}

// LoadPreference devuelve el perfil cacheado si sigue vigente para el set
// de favoritos actual. Un snapshot viejo se borra con cascada sobre la
// recomendación (cambió el gusto, cambia todo lo derivado).
func (c *CacheCoordinator) LoadPreference(ctx context.Context, memberID string, favoriteIDs []int64) (*models.UserPreference, bool) {
	var snap models.PreferenceSnapshot
	found, err := c.store.GetJSON(ctx, preferenceKey(memberID), &snap)
	if err != nil {
		// snapshot corrupto: tratarlo como miss y limpiar
		log.Printf("[cache] preferencia corrupta de %s: %v", memberID, err)
		_ = c.store.Delete(ctx, preferenceKey(memberID), recommendKey(memberID))
		return nil, false
	}
	if !found {
		return nil, false
	}
	if snap.GeneratedDate == "" || snap.Preference == nil {
		log.Printf("[cache] preferencia incompleta de %s, descartando", memberID)
		_ = c.store.Delete(ctx, preferenceKey(memberID), recommendKey(memberID))
		return nil, false
	}
	if !SameIDSet(snap.FavoriteSongIDs, favoriteIDs) {
		_ = c.store.Delete(ctx, preferenceKey(memberID), recommendKey(memberID))
		return nil, false
	}
	return snap.Preference, true
}

// SavePreference sobreescribe el snapshot completo (idempotente por diseño:
// el mismo task reintentado escribe lo mismo).
func (c *CacheCoordinator) SavePreference(ctx context.Context, memberID string, favoriteIDs []int64, pref *models.UserPreference) error {
	if pref == nil {
		return nil
	}
	snap := models.PreferenceSnapshot{
		FavoriteSongIDs: normalizeIDs(favoriteIDs),
		Preference:      pref,
		GeneratedDate:   c.today(),
	}
	if err := c.store.SetJSON(ctx, preferenceKey(memberID), snap, c.ttl); err != nil {
		return fmt.Errorf("save preference snapshot: %w", err)
	}
	return nil
}

// LoadRecommendation devuelve el snapshot de recomendación si el set de
// favoritos coincide y es del mismo día. Si no, se borra (solo él: una
// recomendación vieja no invalida la preferencia).
func (c *CacheCoordinator) LoadRecommendation(ctx context.Context, memberID string, favoriteIDs []int64) (*models.RecommendationSnapshot, bool) {
	var snap models.RecommendationSnapshot
	found, err := c.store.GetJSON(ctx, recommendKey(memberID), &snap)
	if err != nil {
		log.Printf("[cache] recomendación corrupta de %s: %v", memberID, err)
		_ = c.store.Delete(ctx, recommendKey(memberID))
		return nil, false
	}
	if !found {
		return nil, false
	}
	if snap.GeneratedDate == "" || len(snap.Groups) == 0 {
		log.Printf("[cache] recomendación incompleta de %s, descartando", memberID)
		_ = c.store.Delete(ctx, recommendKey(memberID))
		return nil, false
	}
	if !SameIDSet(snap.FavoriteSongIDs, favoriteIDs) || snap.GeneratedDate != c.today() {
		_ = c.store.Delete(ctx, recommendKey(memberID))
		return nil, false
	}
	return &snap, true
}

func (c *CacheCoordinator) SaveRecommendation(ctx context.Context, memberID string, snap models.RecommendationSnapshot) error {
	snap.FavoriteSongIDs = normalizeIDs(snap.FavoriteSongIDs)
	if snap.GeneratedDate == "" {
		snap.GeneratedDate = c.today()
	}
	if err := c.store.SetJSON(ctx, recommendKey(memberID), snap, c.ttl); err != nil {
		return fmt.Errorf("save recommendation snapshot: %w", err)
	}
	return nil
}

// Invalidate borra snapshots por tipo: "preference", "recommendation" o "all".
// Borrar la preferencia siempre arrastra la recomendación.
func (c *CacheCoordinator) Invalidate(ctx context.Context, memberID, kind string) error {
	switch kind {
	case "preference", "all":
		return c.store.Delete(ctx, preferenceKey(memberID), recommendKey(memberID))
	case "recommendation":
		return c.store.Delete(ctx, recommendKey(memberID))
	default:
		return fmt.Errorf("tipo de cache desconocido: %q", kind)
	}
}

// normalizeIDs colapsa duplicados preservando el primer orden visto,
// y nunca devuelve nil (en JSON queremos [] y no null).
func normalizeIDs(ids []int64) []int64 {
	out := make([]int64, 0, len(ids))
	seen := make(map[int64]bool, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
