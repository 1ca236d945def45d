// Package scoring puntúa candidatos del catálogo contra las señales de gusto
// del usuario. Es puro: mismo input + misma fuente de aleatoriedad = mismo output.
package scoring

import (
	"math/rand"
	"sort"
	"strings"

	"github.com/Zara8170/song-ai/internal/models"
)

// Pesos de afinidad por criterio.
const (
	WeightPreferredGenre = 2
	WeightLikeGenre      = 2
	WeightPreferredMood  = 1
	WeightLikeArtist     = 2
)

// Géneros canónicos: si el campo genre trae una lista separada por comas,
// el primero de estos que aparezca se vuelve el género principal.
var PrimaryGenres = map[string]bool{
	"J-pop":  true,
	"팝":      true,
	"록":      true,
	"발라드":    true,
	"힙합":     true,
	"인디 팝":   true,
	"일렉트로 팝": true,
}

// Remapeo de moods crudos del catálogo a etiquetas de presentación.
var MoodMap = map[string]string{
	"에너지": "신나는",
	"강렬":  "강렬",
	"감성적": "서정적",
	"잔잔":  "잔잔",
}

// NormalizeGenre separa el campo genre en género principal + subgéneros.
func NormalizeGenre(g string) (primary string, subs []string) {
	if g == "" {
		return "", nil
	}
	for _, p := range strings.Split(g, ",") {
		if p = strings.TrimSpace(p); p != "" {
			subs = append(subs, p)
		}
	}
	if len(subs) == 0 {
		return "", nil
	}
	primary = subs[0]
	for _, p := range subs {
		if PrimaryGenres[p] {
			primary = p
			break
		}
	}
	return primary, subs
}

// NormalizeMood aplica el remapeo de moods, dejando pasar los desconocidos.
func NormalizeMood(m string) string {
	if mapped, ok := MoodMap[m]; ok {
		return mapped
	}
	return m
}

// Signals agrupa las señales contra las que se puntúa:
// las derivadas de favoritos y las derivadas del análisis de IA.
// Cualquier conjunto puede estar vacío.
type Signals struct {
	LikedGenres     map[string]bool
	LikedArtists    map[string]bool
	PreferredGenres map[string]bool
	PreferredMoods  map[string]bool
}

// NewSignals construye los sets a partir de listas (ignora vacíos).
func NewSignals(likedGenres, likedArtists, preferredGenres, preferredMoods []string) Signals {
	return Signals{
		LikedGenres:     toSet(likedGenres),
		LikedArtists:    toSet(likedArtists),
		PreferredGenres: toSet(preferredGenres),
		PreferredMoods:  toSet(preferredMoods),
	}
}

func toSet(vals []string) map[string]bool {
	set := make(map[string]bool, len(vals))
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			set[v] = true
		}
	}
	return set
}

// Score puntúa un candidato y registra los criterios satisfechos.
func Score(c *models.CandidateSong, sig Signals) {
	score := 0
	var criteria []string

	if c.Genre != "" && sig.PreferredGenres[c.Genre] {
		score += WeightPreferredGenre
		criteria = append(criteria, models.CriterionPreferredGenre)
	}
	if c.Genre != "" && sig.LikedGenres[c.Genre] {
		score += WeightLikeGenre
		criteria = append(criteria, models.CriterionLikeGenre)
	}
	if c.Mood != "" && sig.PreferredMoods[c.Mood] {
		score += WeightPreferredMood
		criteria = append(criteria, models.CriterionPreferredMood)
	}
	if sig.LikedArtists[strings.TrimSpace(c.ArtistKR)] || sig.LikedArtists[strings.TrimSpace(c.Artist)] {
		score += WeightLikeArtist
		criteria = append(criteria, models.CriterionLikeArtist)
	}

	c.MatchScore = score
	if criteria == nil {
		criteria = []string{}
	}
	c.MatchedCriteria = criteria
}

// Rank puntúa todo el pool y lo ordena por score descendente.
// Primero baraja con rng para que los empates varíen entre llamadas,
// después ordena estable: el orden post-barajado decide los empates.
func Rank(pool []*models.CandidateSong, sig Signals, rng *rand.Rand) []*models.CandidateSong {
	out := make([]*models.CandidateSong, len(pool))
	copy(out, pool)

	rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })

	for _, c := range out {
		Score(c, sig)
		if c.Reason == "" {
			c.Reason = AutoReason(c)
		}
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].MatchScore > out[j].MatchScore })
	return out
}

// AutoReason deriva una razón legible de los criterios cumplidos
// cuando el LLM no dio ninguna.
func AutoReason(c *models.CandidateSong) string {
	var reasons []string
	if c.HasCriterion(models.CriterionLikeArtist) {
		reasons = append(reasons, "좋아한 아티스트와 동일")
	}
	if c.HasCriterion(models.CriterionPreferredGenre) || c.HasCriterion(models.CriterionLikeGenre) {
		reasons = append(reasons, c.Genre+" 장르 선호와 일치")
	}
	if c.HasCriterion(models.CriterionPreferredMood) {
		reasons = append(reasons, c.Mood+" 무드와 잘 맞음")
	}
	if len(reasons) == 0 && c.MatchScore > 0 {
		reasons = append(reasons, "취향 요소와 부분 일치")
	}
	if len(reasons) == 0 {
		return "분위기와 조화로운 곡"
	}
	return strings.Join(reasons, " · ")
}
