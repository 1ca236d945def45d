package repository

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/Zara8170/song-ai/internal/models"
	"github.com/Zara8170/song-ai/internal/scoring"

	"gorm.io/gorm"
)

// SongRepository es la puerta al catálogo relacional de canciones.
type SongRepository struct {
	gdb *gorm.DB
}

func NewSongRepository(gdb *gorm.DB) *SongRepository {
	return &SongRepository{gdb: gdb}
}

// Favorites trae las canciones favoritas por id (las que existan).
func (r *SongRepository) Favorites(ctx context.Context, ids []int64) ([]*models.Song, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var songs []*models.Song
	err := r.gdb.WithContext(ctx).Where("song_id IN ?", ids).Find(&songs).Error
	if err != nil {
		return nil, fmt.Errorf("favorites: %w", err)
	}
	return songs, nil
}

// Candidates arma el pool de candidatos ya puntuado:
//   - mitad "similar": canciones que comparten género/artista con los favoritos
//     o que caen en los géneros/moods preferidos del análisis de IA
//   - relleno aleatorio hasta `limit`
//
// Siempre excluye los favoritos. El pool sale ordenado por match_score
// descendente (empates barajados).
func (r *SongRepository) Candidates(ctx context.Context, favoriteIDs []int64, limit int,
	preferredGenres, preferredMoods []string) ([]*models.CandidateSong, error) {

	if limit <= 0 {
		limit = 100
	}
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	if len(favoriteIDs) == 0 {
		pool, err := r.randomSongs(ctx, nil, limit)
		if err != nil {
			return nil, err
		}
		candidates := annotate(pool, models.RecTypeRandom)
		return scoring.Rank(candidates, scoring.NewSignals(nil, nil, preferredGenres, preferredMoods), rng), nil
	}

	favorites, err := r.Favorites(ctx, favoriteIDs)
	if err != nil {
		return nil, err
	}

	likedGenres, likedArtists := favoriteSignals(favorites)

	// géneros de la cláusula similar: los de favoritos + los preferidos por IA
	queryGenres := dedupe(append(append([]string{}, likedGenres...), preferredGenres...))

	var similar []*models.Song
	if len(queryGenres) > 0 || len(likedArtists) > 0 || len(preferredMoods) > 0 {
		q := r.gdb.WithContext(ctx).Where("song_id NOT IN ?", favoriteIDs)

		cond := r.gdb.Where("1 = 0")
		if len(queryGenres) > 0 {
			cond = cond.Or("genre IN ?", queryGenres)
		}
		if len(likedArtists) > 0 {
			cond = cond.Or("artist_kr IN ?", likedArtists)
		}
		if len(preferredMoods) > 0 {
			cond = cond.Or("mood IN ?", preferredMoods)
		}

		err = q.Where(cond).Order("RAND()").Limit(limit / 2).Find(&similar).Error
		if err != nil {
			return nil, fmt.Errorf("similar candidates: %w", err)
		}
	}

	likedGenreSet := toSet(likedGenres)
	likedArtistSet := toSet(likedArtists)

	candidates := make([]*models.CandidateSong, 0, limit)
	excluded := append([]int64{}, favoriteIDs...)
	for _, s := range similar {
		recType := models.RecTypeScored
		if likedGenreSet[strings.TrimSpace(s.Genre)] || likedArtistSet[strings.TrimSpace(s.ArtistKR)] {
			recType = models.RecTypePreference
		}
		candidates = append(candidates, newCandidate(s, recType))
		excluded = append(excluded, s.SongID)
	}

	// relleno aleatorio si la parte similar quedó corta
	if remaining := limit - len(candidates); remaining > 0 {
		padding, err := r.randomSongs(ctx, excluded, remaining)
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, annotate(padding, models.RecTypeRandom)...)
	}

	sig := scoring.NewSignals(likedGenres, likedArtists, preferredGenres, preferredMoods)
	return scoring.Rank(candidates, sig, rng), nil
}

// SongsByArtists busca canciones por nombre de artista: primero igualdad
// exacta (artist_kr o artist), después LIKE como fallback.
func (r *SongRepository) SongsByArtists(ctx context.Context, names []string,
	limitPerArtist int, excludeIDs []int64) (map[string][]*models.Song, error) {

	if limitPerArtist <= 0 {
		limitPerArtist = 5
	}
	out := make(map[string][]*models.Song, len(names))

	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}

		q := r.gdb.WithContext(ctx)
		if len(excludeIDs) > 0 {
			q = q.Where("song_id NOT IN ?", excludeIDs)
		}

		var songs []*models.Song
		err := q.Where("artist_kr = ? OR artist = ?", name, name).
			Limit(limitPerArtist).Find(&songs).Error
		if err != nil {
			return nil, fmt.Errorf("songs by artist %q: %w", name, err)
		}

		if len(songs) == 0 {
			like := "%" + name + "%"
			q2 := r.gdb.WithContext(ctx)
			if len(excludeIDs) > 0 {
				q2 = q2.Where("song_id NOT IN ?", excludeIDs)
			}
			err = q2.Where("artist_kr LIKE ? OR artist LIKE ?", like, like).
				Limit(limitPerArtist).Find(&songs).Error
			if err != nil {
				return nil, fmt.Errorf("songs by artist (like) %q: %w", name, err)
			}
		}

		if len(songs) > 0 {
			out[name] = songs
		}
	}
	return out, nil
}

func (r *SongRepository) randomSongs(ctx context.Context, excludeIDs []int64, limit int) ([]*models.Song, error) {
	q := r.gdb.WithContext(ctx)
	if len(excludeIDs) > 0 {
		q = q.Where("song_id NOT IN ?", excludeIDs)
	}
	var songs []*models.Song
	if err := q.Order("RAND()").Limit(limit).Find(&songs).Error; err != nil {
		return nil, fmt.Errorf("random candidates: %w", err)
	}
	return songs, nil
}

// favoriteSignals deriva los sets de género/artista de los favoritos.
// Los géneros se normalizan al género principal antes de comparar.
func favoriteSignals(favorites []*models.Song) (genres, artists []string) {
	for _, s := range favorites {
		if primary, _ := scoring.NormalizeGenre(s.Genre); primary != "" {
			genres = append(genres, primary)
		}
		if a := strings.TrimSpace(s.ArtistKR); a != "" {
			artists = append(artists, a)
		}
	}
	return dedupe(genres), dedupe(artists)
}

func newCandidate(s *models.Song, recType string) *models.CandidateSong {
	c := &models.CandidateSong{Song: *s, RecommendationType: recType}
	primary, subs := scoring.NormalizeGenre(c.Genre)
	c.Genre = primary
	c.SubGenres = subs
	c.Mood = scoring.NormalizeMood(c.Mood)
	return c
}

func annotate(songs []*models.Song, recType string) []*models.CandidateSong {
	out := make([]*models.CandidateSong, 0, len(songs))
	for _, s := range songs {
		out = append(out, newCandidate(s, recType))
	}
	return out
}

func dedupe(vals []string) []string {
	seen := make(map[string]bool, len(vals))
	var out []string
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" && !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}

func toSet(vals []string) map[string]bool {
	set := make(map[string]bool, len(vals))
	for _, v := range vals {
		set[v] = true
	}
	return set
}
