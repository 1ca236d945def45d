package service

import (
	"context"
	"log"
	"math/rand"
	"time"

	"github.com/Zara8170/song-ai/internal/models"
)

const (
	// cuántas canciones se le piden al selector y cuántas trae el pool
	TargetCount        = 20
	CandidatePoolLimit = 100

	// grupos extra basados en artistas favoritos del perfil
	ArtistGroupMaxArtists = 2
	ArtistGroupSongsPer   = 5
)

// RecommendService orquesta el pipeline completo. Todas las etapas son
// dependencias secuenciales: scoring necesita preferencia, reconciliación
// necesita selección, agrupado necesita reconciliación. No hay estado
// mutable compartido entre requests; toda la memoización cruza por el
// SnapshotStore.
type RecommendService struct {
	catalog     Catalog
	preferences *PreferenceService
	selector    *Selector
	groups      *GroupBuilder
	coordinator *CacheCoordinator
	history     HistoryStore
}

func NewRecommendService(catalog Catalog, gen TextGenerator, store SnapshotStore,
	history HistoryStore, ttlDays int) *RecommendService {

	return &RecommendService{
		catalog:     catalog,
		preferences: NewPreferenceService(gen),
		selector:    NewSelector(gen),
		groups:      NewGroupBuilder(gen),
		coordinator: NewCacheCoordinator(store, ttlDays),
		history:     history,
	}
}

// Coordinator expone el coordinador de cache (lo usan handlers y workers).
func (s *RecommendService) Coordinator() *CacheCoordinator {
	return s.coordinator
}

// Preferences expone el analizador (lo usa el task de análisis).
func (s *RecommendService) Preferences() *PreferenceService {
	return s.preferences
}

// Recommend corre el pipeline sin tocar cache. Devuelve Error solo cuando
// el catálogo no dio candidatos; los fallos del LLM jamás llegan acá.
func (s *RecommendService) Recommend(ctx context.Context, favoriteIDs []int64,
	cachedPreference *models.UserPreference) (*models.RecommendationResult, error) {

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	// sin favoritos: pool aleatorio, muestra de 20, sin personalización
	if len(favoriteIDs) == 0 {
		candidates, err := s.catalog.Candidates(ctx, nil, CandidatePoolLimit, nil, nil)
		if err != nil {
			return nil, err
		}
		if len(candidates) == 0 {
			return &models.RecommendationResult{Error: "추천할 노래를 찾지 못했습니다.", FavoriteSongIDs: []int64{}}, nil
		}
		recommended := RandomSample(candidates, TargetCount, rng)
		return &models.RecommendationResult{
			Groups:          s.groups.Build(ctx, recommended, nil, nil),
			Candidates:      normalizeCandidates(candidates),
			FavoriteSongIDs: []int64{},
		}, nil
	}

	favorites, err := s.catalog.Favorites(ctx, favoriteIDs)
	if err != nil {
		return nil, err
	}

	pref := cachedPreference
	if pref == nil {
		pref = s.preferences.Analyze(ctx, favorites)
	}

	var prefGenres, prefMoods []string
	if pref != nil {
		prefGenres, prefMoods = pref.PreferredGenres, pref.PreferredMoods
	}

	candidates, err := s.catalog.Candidates(ctx, favoriteIDs, CandidatePoolLimit, prefGenres, prefMoods)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return &models.RecommendationResult{Error: "추천할 노래를 찾지 못했습니다.", FavoriteSongIDs: favoriteIDs}, nil
	}

	// selección con IA; cualquier fallo cae a muestra aleatoria del pool
	var recommended []*models.CandidateSong
	if selections, ok := s.selector.Select(ctx, candidates, pref, TargetCount); ok {
		recommended = Reconcile(selections, candidates)
		if len(recommended) == 0 {
			recommended = TopByScore(candidates, TargetCount)
		}
	} else {
		recommended = RandomSample(candidates, TargetCount, rng)
	}

	groups := s.groups.Build(ctx, recommended, favoriteIDs, pref)
	groups = append(groups, s.artistGroups(ctx, pref, favoriteIDs)...)

	return &models.RecommendationResult{
		Groups:          groups,
		Candidates:      normalizeCandidates(candidates),
		Preference:      pref,
		FavoriteSongIDs: favoriteIDs,
	}, nil
}

// RecommendForMember es la entrada con cache: valida los snapshots, corre
// el pipeline solo en miss, y reescribe ambos snapshots completos
// (preferencia primero: una caída a mitad de camino nunca deja una
// recomendación apuntando a una preferencia que no se comprometió).
func (s *RecommendService) RecommendForMember(ctx context.Context, memberID string,
	favoriteIDs []int64) (*models.CachedRecommendationResponse, bool, error) {

	if snap, ok := s.coordinator.LoadRecommendation(ctx, memberID, favoriteIDs); ok {
		return &models.CachedRecommendationResponse{
			FavoriteSongIDs: snap.FavoriteSongIDs,
			Groups:          snap.Groups,
			Candidates:      snap.Candidates,
			GeneratedDate:   snap.GeneratedDate,
			Cached:          true,
		}, true, nil
	}

	cachedPref, _ := s.coordinator.LoadPreference(ctx, memberID, favoriteIDs)

	result, err := s.Recommend(ctx, favoriteIDs, cachedPref)
	if err != nil {
		return nil, false, err
	}
	if result.Error != "" {
		return nil, false, &EmptyPoolError{Message: result.Error}
	}

	if err := s.StoreResult(ctx, memberID, result); err != nil {
		// el cache es memoización, no fuente de verdad: avisar y seguir
		log.Printf("[recommend] no se pudo cachear resultado de %s: %v", memberID, err)
	}

	s.recordHistory(ctx, memberID, result)

	return &models.CachedRecommendationResponse{
		FavoriteSongIDs: result.FavoriteSongIDs,
		Groups:          result.Groups,
		Candidates:      result.Candidates,
		GeneratedDate:   s.coordinator.today(),
		Cached:          false,
	}, false, nil
}

// StoreResult escribe ambos snapshots derivados de una corrida completa.
// Es la única forma de escribir: snapshot entero, nunca incremental, así
// los reintentos del worker son seguros por construcción.
func (s *RecommendService) StoreResult(ctx context.Context, memberID string, result *models.RecommendationResult) error {
	if result.Preference != nil {
		if err := s.coordinator.SavePreference(ctx, memberID, result.FavoriteSongIDs, result.Preference); err != nil {
			return err
		}
	}
	return s.coordinator.SaveRecommendation(ctx, memberID, models.RecommendationSnapshot{
		FavoriteSongIDs: result.FavoriteSongIDs,
		Groups:          result.Groups,
		Candidates:      result.Candidates,
	})
}

// artistGroups arma los grupos extra por artista favorito del perfil
// (hasta 2 artistas, 5 canciones cada uno). Best-effort: sin perfil o sin
// canciones simplemente no agrega nada.
func (s *RecommendService) artistGroups(ctx context.Context, pref *models.UserPreference, excludeIDs []int64) []models.RecommendationGroup {
	if pref == nil || len(pref.FavoriteArtists) == 0 {
		return nil
	}

	targets := make([]string, 0, ArtistGroupMaxArtists)
	for _, a := range pref.FavoriteArtists {
		if a != "" {
			targets = append(targets, a)
		}
		if len(targets) == ArtistGroupMaxArtists {
			break
		}
	}
	if len(targets) == 0 {
		return nil
	}

	byArtist, err := s.catalog.SongsByArtists(ctx, targets, ArtistGroupSongsPer, excludeIDs)
	if err != nil {
		log.Printf("[recommend] grupos por artista fallaron: %v", err)
		return nil
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	var out []models.RecommendationGroup
	for _, artist := range targets {
		songs := byArtist[artist]
		if len(songs) == 0 {
			continue
		}

		reps := make([]*models.CandidateSong, 0, len(songs))
		normalized := make([]models.NormalizedSong, 0, len(songs))
		for _, sg := range songs {
			c := &models.CandidateSong{Song: *sg}
			reps = append(reps, c)
			normalized = append(normalized, models.NormalizeSong(c))
		}

		// los grupos por artista tienen su propio texto de fallback
		tagline := s.groups.makeTagline(ctx, artist, artist+" 인기곡 추천 🎤", reps, pref, rng)

		out = append(out, models.RecommendationGroup{
			Label:   artist + " 추천",
			Songs:   normalized,
			Tagline: tagline,
		})
	}
	return out
}

func (s *RecommendService) recordHistory(ctx context.Context, memberID string, result *models.RecommendationResult) {
	if s.history == nil {
		return
	}
	songCount := 0
	for _, g := range result.Groups {
		songCount += len(g.Songs)
	}
	h := &models.RecommendationHistory{
		MemberID:        memberID,
		FavoriteSongIDs: result.FavoriteSongIDs,
		GroupCount:      len(result.Groups),
		SongCount:       songCount,
		UsedPreference:  result.Preference != nil,
		CreatedAt:       time.Now(),
	}
	if err := s.history.Insert(ctx, h); err != nil {
		log.Printf("[recommend] error guardando historial en Mongo: %v", err)
	}
}

func normalizeCandidates(candidates []*models.CandidateSong) []models.NormalizedCandidate {
	out := make([]models.NormalizedCandidate, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, models.NormalizeCandidate(c))
	}
	return out
}

// EmptyPoolError: el catálogo no dio candidatos. Terminal para el request.
type EmptyPoolError struct {
	Message string
}

func (e *EmptyPoolError) Error() string { return e.Message }
