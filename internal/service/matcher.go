package service

import (
	"regexp"
	"sort"
	"strings"

	"github.com/Zara8170/song-ai/internal/models"
)

// Reconciliación: las selecciones del LLM son texto libre y hay que
// mapearlas de vuelta a registros concretos del catálogo. Primera pasada
// por igualdad exacta sobre todas las variantes de título/artista,
// segunda pasada con matching suave sobre strings normalizados.

var (
	parenRe   = regexp.MustCompile(`\s*[\(\[（【][^\)\]）】]*[\)\]）】]\s*`)
	nonWordRe = regexp.MustCompile(`[^0-9a-z가-힣ぁ-ゔァ-ヴー一-龥\s]+`)
	multiWSRe = regexp.MustCompile(`\s+`)
)

// normalizeText prepara un string para comparación suave:
// minúsculas, sin anotaciones entre paréntesis/corchetes, solo
// alfanumérico + CJK, espacios colapsados.
func normalizeText(s string) string {
	if s == "" {
		return ""
	}
	s = strings.ToLower(strings.TrimSpace(s))
	s = parenRe.ReplaceAllString(s, " ")
	s = nonWordRe.ReplaceAllString(s, " ")
	s = multiWSRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// softMatch acepta igualdad, contención o prefijo en cualquier dirección
// sobre los strings ya normalizados.
func softMatch(a, b string) bool {
	a, b = normalizeText(a), normalizeText(b)
	if a == "" || b == "" {
		return false
	}
	return a == b || strings.Contains(a, b) || strings.Contains(b, a) ||
		strings.HasPrefix(a, b) || strings.HasPrefix(b, a)
}

// MatchTier indica cómo se resolvió una selección.
type MatchTier int

const (
	MatchNone MatchTier = iota
	MatchExact
	MatchSoft
)

// MatchResult es el resultado etiquetado de buscar una selección en el pool.
type MatchResult struct {
	Tier MatchTier
	Song *models.CandidateSong
}

// matchSelection busca la primera canción no usada que satisfaga título Y
// artista, primero exacto y después suave.
func matchSelection(sel models.AIRecommendedSong, pool []*models.CandidateSong, used map[int64]bool) MatchResult {
	title := strings.TrimSpace(sel.Title)
	if title == "" {
		title = strings.TrimSpace(sel.TitleKR)
	}
	artist := strings.TrimSpace(sel.ArtistKR)

	// pasada exacta
	for _, c := range pool {
		if used[c.SongID] {
			continue
		}
		if containsString(c.Titles(), title) && containsString(c.Artists(), artist) {
			return MatchResult{Tier: MatchExact, Song: c}
		}
	}

	// pasada suave
	for _, c := range pool {
		if used[c.SongID] {
			continue
		}
		titleOK := anySoftMatch(title, c.Titles())
		artistOK := anySoftMatch(artist, c.Artists())
		if titleOK && artistOK {
			return MatchResult{Tier: MatchSoft, Song: c}
		}
	}

	return MatchResult{Tier: MatchNone}
}

// Reconcile mapea todas las selecciones del LLM a candidatos concretos.
// Cada canción del catálogo se usa una sola vez; si quedaron selecciones
// sin resolver, se rellena con los mejores no usados por match_score.
// El mood/género/razón que declaró la IA pisan los del catálogo para esta
// corrida (el catálogo no se toca).
func Reconcile(selections []models.AIRecommendedSong, pool []*models.CandidateSong) []*models.CandidateSong {
	used := make(map[int64]bool, len(selections))
	matched := make([]*models.CandidateSong, 0, len(selections))

	for _, sel := range selections {
		res := matchSelection(sel, pool, used)
		if res.Tier == MatchNone {
			continue
		}
		used[res.Song.SongID] = true

		annotated := *res.Song
		if m := strings.TrimSpace(sel.Mood); m != "" {
			annotated.Mood = m
		}
		if g := strings.TrimSpace(sel.Genre); g != "" {
			annotated.Genre = g
		}
		annotated.Reason = strings.TrimSpace(sel.Reason)
		matched = append(matched, &annotated)
	}

	// relleno: los mejores no usados hasta cubrir el número de selecciones
	if need := len(selections) - len(matched); need > 0 {
		var leftovers []*models.CandidateSong
		for _, c := range pool {
			if !used[c.SongID] {
				leftovers = append(leftovers, c)
			}
		}
		sort.SliceStable(leftovers, func(i, j int) bool {
			return leftovers[i].MatchScore > leftovers[j].MatchScore
		})
		if need > len(leftovers) {
			need = len(leftovers)
		}
		matched = append(matched, leftovers[:need]...)
	}

	return matched
}

func containsString(vals []string, target string) bool {
	if target == "" {
		return false
	}
	for _, v := range vals {
		if v == target {
			return true
		}
	}
	return false
}

func anySoftMatch(target string, vals []string) bool {
	for _, v := range vals {
		if softMatch(target, v) {
			return true
		}
	}
	return false
}
