package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"sort"
	"strings"

	"github.com/Zara8170/song-ai/internal/llm"
	"github.com/Zara8170/song-ai/internal/models"
	"github.com/Zara8170/song-ai/internal/prompts"
)

// Selector le pide al LLM que elija target canciones del pool puntuado.
// El prompt lleva la lista blanca de géneros/moods presentes en el pool
// para que el modelo no invente valores fuera del catálogo.
type Selector struct {
	llm TextGenerator
}

func NewSelector(gen TextGenerator) *Selector {
	return &Selector{llm: gen}
}

// Select devuelve las selecciones del LLM y ok=true, u ok=false cuando la
// respuesta no se pudo usar (transporte, parseo o esquema). El que llama
// decide el fallback; nunca se propaga el fallo del LLM.
func (s *Selector) Select(ctx context.Context, pool []*models.CandidateSong,
	pref *models.UserPreference, targetCount int) ([]models.AIRecommendedSong, bool) {

	if len(pool) == 0 {
		return nil, false
	}

	raw, err := s.llm.Complete(ctx, llm.CompleteRequest{
		Prompt: prompts.Recommend(prompts.RecommendParams{
			UserPreference: preferenceSummary(pref),
			AllowedGenres:  strings.Join(allowedValues(pool, func(c *models.CandidateSong) string { return c.Genre }), ", "),
			AllowedMoods:   strings.Join(allowedValues(pool, func(c *models.CandidateSong) string { return c.Mood }), ", "),
			SongList:       songListSummary(pool),
			TargetCount:    targetCount,
		}),
		Temperature: 0.7,
		MaxTokens:   2000,
	})
	if err != nil {
		log.Printf("[selector] llamada LLM falló: %v", err)
		return nil, false
	}

	body := extractJSON(raw)
	if body == "" {
		log.Printf("[selector] respuesta sin objeto JSON")
		return nil, false
	}

	var parsed models.AIRecommendationResponse
	if err := json.Unmarshal([]byte(body), &parsed); err != nil {
		log.Printf("[selector] JSON inválido: %v", err)
		return nil, false
	}
	if len(parsed.RecommendedSongs) == 0 {
		log.Printf("[selector] respuesta sin canciones")
		return nil, false
	}
	return parsed.RecommendedSongs, true
}

// RandomSample es el fallback del selector: muestra uniforme de
// min(n, len(pool)) candidatos. Nunca devuelve vacío con pool no vacío.
func RandomSample(pool []*models.CandidateSong, n int, rng *rand.Rand) []*models.CandidateSong {
	if n > len(pool) {
		n = len(pool)
	}
	idx := rng.Perm(len(pool))[:n]
	out := make([]*models.CandidateSong, 0, n)
	for _, i := range idx {
		out = append(out, pool[i])
	}
	return out
}

// TopByScore es el otro fallback: los n mejores por match_score.
func TopByScore(pool []*models.CandidateSong, n int) []*models.CandidateSong {
	sorted := make([]*models.CandidateSong, len(pool))
	copy(sorted, pool)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].MatchScore > sorted[j].MatchScore })
	if n > len(sorted) {
		n = len(sorted)
	}
	return sorted[:n]
}

func preferenceSummary(pref *models.UserPreference) string {
	if pref == nil {
		return "없음"
	}
	return fmt.Sprintf("- 선호 장르: %s\n- 선호 분위기: %s\n- 전체 취향: %s",
		strings.Join(pref.PreferredGenres, ", "),
		strings.Join(pref.PreferredMoods, ", "),
		pref.OverallTaste)
}

// allowedValues junta los valores distintos no vacíos presentes en el pool.
func allowedValues(pool []*models.CandidateSong, get func(*models.CandidateSong) string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, c := range pool {
		if v := strings.TrimSpace(get(c)); v != "" && !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	sort.Strings(out)
	return out
}

func songListSummary(pool []*models.CandidateSong) string {
	lines := make([]string, 0, len(pool))
	for i, c := range pool {
		lines = append(lines, fmt.Sprintf("%d.%s/%s/%s-%s/%s(%s,%s)",
			i+1, orUnknown(c.TitleKR), c.TitleEN, c.TitleYomi,
			orUnknown(c.ArtistKR), c.Artist, orUnknown(c.Genre), orUnknown(c.Mood)))
	}
	return strings.Join(lines, "\n")
}
