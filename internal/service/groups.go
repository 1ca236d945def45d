package service

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"sort"
	"strings"
	"time"

	"github.com/Zara8170/song-ai/internal/llm"
	"github.com/Zara8170/song-ai/internal/models"
	"github.com/Zara8170/song-ai/internal/prompts"
)

// Parámetros del agrupado dinámico. Constantes ajustables, no valores
// exactos cargados de significado: la proporción mood/género y el umbral
// de merge se pueden mover sin romper invariantes.
const (
	DefaultTotalGroups  = 4
	DefaultMaxPerGroup  = 6
	DefaultMinGroupSize = 3
)

// GroupBuilder particiona la lista reconciliada en grupos etiquetados
// según la distribución de moods/géneros, fusiona grupos chicos,
// deduplica entre grupos y pide un tagline por grupo.
type GroupBuilder struct {
	llm          TextGenerator
	totalGroups  int
	maxPerGroup  int
	minGroupSize int
}

func NewGroupBuilder(gen TextGenerator) *GroupBuilder {
	return &GroupBuilder{
		llm:          gen,
		totalGroups:  DefaultTotalGroups,
		maxPerGroup:  DefaultMaxPerGroup,
		minGroupSize: DefaultMinGroupSize,
	}
}

// grupo intermedio, antes de normalizar canciones para el payload
type rawGroup struct {
	label string
	songs []*models.CandidateSong
}

// Build arma el payload final de grupos. Las canciones que están en los
// favoritos del usuario se filtran; un grupo que queda vacío se descarta
// entero, no se emite con cero canciones.
func (b *GroupBuilder) Build(ctx context.Context, recs []*models.CandidateSong,
	favoriteIDs []int64, pref *models.UserPreference) []models.RecommendationGroup {

	grouped := b.groupDynamic(recs)
	grouped = b.mergeSmallGroups(grouped)
	grouped = dedupeGroups(grouped)

	favSet := make(map[int64]bool, len(favoriteIDs))
	for _, id := range favoriteIDs {
		favSet[id] = true
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	payload := make([]models.RecommendationGroup, 0, len(grouped))
	for _, g := range grouped {
		var songs []models.NormalizedSong
		var reps []*models.CandidateSong
		for _, s := range g.songs {
			if favSet[s.SongID] {
				continue
			}
			songs = append(songs, models.NormalizeSong(s))
			reps = append(reps, s)
		}
		if len(songs) == 0 {
			continue
		}
		payload = append(payload, models.RecommendationGroup{
			Label:   g.label,
			Songs:   songs,
			Tagline: b.makeTagline(ctx, g.label, g.label+"의 매력적인 선곡 🎵", reps, pref, rng),
		})
	}
	return payload
}

// groupDynamic reparte los slots de grupo entre moods y géneros en
// proporción a cuántos candidatos aporta cada eje.
func (b *GroupBuilder) groupDynamic(recs []*models.CandidateSong) []rawGroup {
	moodBuckets := bucketBy(recs, func(c *models.CandidateSong) string { return c.Mood })
	genreBuckets := bucketBy(recs, func(c *models.CandidateSong) string { return c.Genre })

	moodTotal, genreTotal := bucketTotal(moodBuckets), bucketTotal(genreBuckets)

	// sin metadata no hay ejes, pero las canciones igual salen en los
	// grupos genéricos del final
	moodShare := 0
	if moodTotal+genreTotal > 0 {
		moodShare = int(float64(b.totalGroups)*float64(moodTotal)/float64(moodTotal+genreTotal) + 0.5)
	}
	if moodShare < 1 {
		moodShare = 1
	}
	if moodShare > b.totalGroups-1 {
		moodShare = b.totalGroups - 1
	}
	genreShare := b.totalGroups - moodShare

	var groups []rawGroup
	used := make(map[int64]bool)

	fill := func(buckets []rawGroup, share int) {
		for _, bk := range buckets {
			if share == 0 {
				return
			}
			var avail []*models.CandidateSong
			for _, s := range bk.songs {
				if !used[s.SongID] {
					avail = append(avail, s)
				}
			}
			if len(avail) == 0 {
				continue
			}
			if len(avail) > b.maxPerGroup {
				avail = avail[:b.maxPerGroup]
			}
			for _, s := range avail {
				used[s.SongID] = true
			}
			groups = append(groups, rawGroup{label: bk.label, songs: avail})
			share--
		}
	}

	fill(moodBuckets, moodShare)
	fill(genreBuckets, genreShare)

	// si los buckets se agotaron antes de llenar los slots,
	// completar con los que quedaron sueltos bajo una etiqueta genérica
	for len(groups) < b.totalGroups {
		var remain []*models.CandidateSong
		for _, s := range recs {
			if !used[s.SongID] {
				remain = append(remain, s)
			}
		}
		if len(remain) == 0 {
			break
		}
		if len(remain) > b.maxPerGroup {
			remain = remain[:b.maxPerGroup]
		}
		for _, s := range remain {
			used[s.SongID] = true
		}
		groups = append(groups, rawGroup{
			label: fmt.Sprintf("추천 #%d", len(groups)+1),
			songs: remain,
		})
	}
	return groups
}

// mergeSmallGroups fusiona cada grupo menor a minGroupSize dentro del grupo
// grande cuya etiqueta se le parezca más (exacta=2, contenida=1, nada=0;
// empate lo gana el primero visto). Sin grupos grandes, el chico queda solo.
func (b *GroupBuilder) mergeSmallGroups(groups []rawGroup) []rawGroup {
	if len(groups) == 0 {
		return groups
	}

	var big, small []rawGroup
	for _, g := range groups {
		if len(g.songs) >= b.minGroupSize {
			big = append(big, g)
		} else {
			small = append(small, g)
		}
	}
	if len(small) == 0 {
		return groups
	}

	for _, sg := range small {
		best, bestScore := -1, -1
		for i, bg := range big {
			if sc := labelSimilarity(sg.label, bg.label); sc > bestScore {
				best, bestScore = i, sc
			}
		}
		if best < 0 {
			big = append(big, sg)
			continue
		}
		merged := append(big[best].songs, sg.songs...)
		if len(merged) > b.maxPerGroup {
			merged = merged[:b.maxPerGroup]
		}
		big[best].songs = merged
	}
	return big
}

func labelSimilarity(a, b string) int {
	a, b = strings.ToLower(a), strings.ToLower(b)
	switch {
	case a == b:
		return 2
	case strings.Contains(a, b) || strings.Contains(b, a):
		return 1
	default:
		return 0
	}
}

// dedupeGroups elimina entre grupos las canciones repetidas, conservando la
// primera aparición. La clave es el song_id, o título+artista si no hay id.
func dedupeGroups(groups []rawGroup) []rawGroup {
	seen := make(map[string]bool)
	out := make([]rawGroup, 0, len(groups))
	for _, g := range groups {
		var uniq []*models.CandidateSong
		for _, s := range g.songs {
			key := fmt.Sprintf("id:%d", s.SongID)
			if s.SongID == 0 {
				key = "ta:" + s.TitleKR + "|" + s.ArtistKR
			}
			if seen[key] {
				continue
			}
			seen[key] = true
			uniq = append(uniq, s)
		}
		g.songs = uniq
		out = append(out, g)
	}
	return out
}

// makeTagline pide una línea al LLM con hasta 3 canciones representativas.
// Nunca falla el agrupado: ante cualquier problema devuelve el fallback
// que le pasa quien llama.
func (b *GroupBuilder) makeTagline(ctx context.Context, label, fallback string,
	songs []*models.CandidateSong, pref *models.UserPreference, rng *rand.Rand) string {

	reps := songs
	if len(reps) > 3 {
		idx := rng.Perm(len(songs))[:3]
		reps = []*models.CandidateSong{songs[idx[0]], songs[idx[1]], songs[idx[2]]}
	}
	samples := make([]string, 0, len(reps))
	for _, s := range reps {
		samples = append(samples, s.DisplayTitle()+" - "+s.DisplayArtist())
	}

	promptLabel := label
	if pref != nil {
		promptLabel = fmt.Sprintf("%s (취향: %s | %s)", label,
			strings.Join(pref.PreferredMoods, ", "),
			strings.Join(pref.PreferredGenres, ", "))
	}

	raw, err := b.llm.Complete(ctx, llm.CompleteRequest{
		Prompt:      prompts.GroupTagline(promptLabel, strings.Join(samples, " / ")),
		Temperature: 1.0,
		MaxTokens:   50,
	})
	if err != nil {
		log.Printf("[groups] tagline falló para %q: %v", label, err)
		return fallback
	}

	tagline := cleanTagline(raw)
	if tagline == "" {
		return fallback
	}
	return tagline
}

// cleanTagline recorta la respuesta del LLM a una sola línea limpia.
func cleanTagline(raw string) string {
	t := strings.TrimSpace(raw)
	// primero quedarse con la primera línea, recién después las comillas:
	// si no, una respuesta multilínea entre comillas conserva la de cierre
	if i := strings.IndexByte(t, '\n'); i >= 0 {
		t = t[:i]
	}
	t = strings.TrimSpace(t)
	t = strings.Trim(t, `"'`)
	t = strings.TrimLeft(t, "-•* ")
	return strings.TrimSpace(t)
}

func bucketBy(recs []*models.CandidateSong, key func(*models.CandidateSong) string) []rawGroup {
	byKey := make(map[string][]*models.CandidateSong)
	var order []string
	for _, s := range recs {
		k := strings.TrimSpace(key(s))
		if k == "" {
			continue
		}
		if _, ok := byKey[k]; !ok {
			order = append(order, k)
		}
		byKey[k] = append(byKey[k], s)
	}

	buckets := make([]rawGroup, 0, len(order))
	for _, k := range order {
		buckets = append(buckets, rawGroup{label: k, songs: byKey[k]})
	}
	// población descendente, empates por orden de aparición
	sort.SliceStable(buckets, func(i, j int) bool {
		return len(buckets[i].songs) > len(buckets[j].songs)
	})
	return buckets
}

func bucketTotal(buckets []rawGroup) int {
	total := 0
	for _, b := range buckets {
		total += len(b.songs)
	}
	return total
}
