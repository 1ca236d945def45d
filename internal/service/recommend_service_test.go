package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/Zara8170/song-ai/internal/llm"
	"github.com/Zara8170/song-ai/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pipelinePool(n int) []*models.CandidateSong {
	pool := make([]*models.CandidateSong, 0, n)
	for i := 1; i <= n; i++ {
		c := &models.CandidateSong{
			Song: models.Song{
				SongID:   int64(100 + i),
				TitleKR:  fmt.Sprintf("곡%d", i),
				ArtistKR: fmt.Sprintf("가수%d", i),
				Genre:    "발라드",
				Mood:     "잔잔",
			},
			MatchScore: i,
		}
		pool = append(pool, c)
	}
	return pool
}

// selectorScript responde la selección para el prompt de recomendación y
// falla los taglines, así los grupos usan el fallback determinista.
func selectorScript(selectionJSON string) *fakeGen {
	return &fakeGen{fn: func(req llm.CompleteRequest) (string, error) {
		if req.MaxTokens == 2000 {
			return selectionJSON, nil
		}
		return "", errLLMDown
	}}
}

func newTestService(catalog *fakeCatalog, gen *fakeGen, store *fakeStore, history *fakeHistory) *RecommendService {
	svc := NewRecommendService(catalog, gen, store, history, 7)
	svc.coordinator = fixedCoordinator(store, "2026-08-29")
	return svc
}

func TestRecommendEmptyFavorites(t *testing.T) {
	catalog := &fakeCatalog{candidates: pipelinePool(10)}
	gen := &fakeGen{err: errLLMDown}
	svc := newTestService(catalog, gen, newFakeStore(), &fakeHistory{})

	result, err := svc.Recommend(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Empty(t, result.Error)
	assert.NotEmpty(t, result.Groups)
	assert.Nil(t, result.Preference, "sin favoritos no hay personalización")
	assert.NotNil(t, result.FavoriteSongIDs)
	assert.Len(t, result.Candidates, 10)
}

func TestRecommendEmptyPool(t *testing.T) {
	catalog := &fakeCatalog{}
	svc := newTestService(catalog, &fakeGen{err: errLLMDown}, newFakeStore(), &fakeHistory{})

	result, err := svc.Recommend(context.Background(), []int64{1}, nil)
	require.NoError(t, err)
	assert.NotEmpty(t, result.Error)
	assert.Empty(t, result.Groups)
}

func TestRecommendLLMDownStillRecommends(t *testing.T) {
	// con el LLM caído todo el pipeline degrada a fallbacks deterministas
	catalog := &fakeCatalog{
		favorites:  []*models.Song{{SongID: 1, TitleKR: "밤편지", ArtistKR: "아이유"}},
		candidates: pipelinePool(30),
	}
	svc := newTestService(catalog, &fakeGen{err: errLLMDown}, newFakeStore(), &fakeHistory{})

	result, err := svc.Recommend(context.Background(), []int64{1}, nil)
	require.NoError(t, err)
	assert.Empty(t, result.Error)
	assert.NotEmpty(t, result.Groups)
	assert.Nil(t, result.Preference)
}

func TestRecommendUsesSelection(t *testing.T) {
	catalog := &fakeCatalog{
		favorites:  []*models.Song{{SongID: 1, TitleKR: "밤편지", ArtistKR: "아이유"}},
		candidates: pipelinePool(5),
	}
	gen := selectorScript(`{"recommended_songs":[{"title":"곡1","artist_kr":"가수1","reason":"어울려서"}]}`)
	svc := newTestService(catalog, gen, newFakeStore(), &fakeHistory{})

	pref := &models.UserPreference{PreferredGenres: []string{"발라드"}}
	result, err := svc.Recommend(context.Background(), []int64{1}, pref)
	require.NoError(t, err)
	require.NotEmpty(t, result.Groups)

	var found bool
	for _, g := range result.Groups {
		for _, s := range g.Songs {
			if s.SongID == 101 {
				found = true
			}
		}
	}
	assert.True(t, found, "la canción elegida por el LLM llega a los grupos")
}

func TestRecommendCachedPreferenceSkipsAnalysis(t *testing.T) {
	catalog := &fakeCatalog{
		favorites:  []*models.Song{{SongID: 1}},
		candidates: pipelinePool(5),
	}
	gen := &fakeGen{err: errLLMDown}
	svc := newTestService(catalog, gen, newFakeStore(), &fakeHistory{})

	pref := &models.UserPreference{OverallTaste: "발라드"}
	_, err := svc.Recommend(context.Background(), []int64{1}, pref)
	require.NoError(t, err)

	for _, call := range gen.calls {
		assert.NotEqual(t, 500, call.MaxTokens, "con perfil cacheado no se re-analiza")
	}
}

func TestRecommendForMember(t *testing.T) {
	ctx := context.Background()

	t.Run("miss genera y cachea, hit devuelve lo cacheado", func(t *testing.T) {
		catalog := &fakeCatalog{
			favorites:  []*models.Song{{SongID: 1}},
			candidates: pipelinePool(10),
		}
		store := newFakeStore()
		history := &fakeHistory{}
		svc := newTestService(catalog, &fakeGen{err: errLLMDown}, store, history)

		resp, cached, err := svc.RecommendForMember(ctx, "m1", []int64{1})
		require.NoError(t, err)
		assert.False(t, cached)
		assert.NotEmpty(t, resp.Groups)
		assert.Len(t, history.entries, 1)

		_, hasRec := store.data["recommend:m1"]
		require.True(t, hasRec)

		resp2, cached2, err := svc.RecommendForMember(ctx, "m1", []int64{1})
		require.NoError(t, err)
		assert.True(t, cached2)
		assert.Equal(t, resp.Groups, resp2.Groups)
		assert.Len(t, history.entries, 1, "el hit no genera historial nuevo")
	})

	t.Run("pool vacío devuelve EmptyPoolError", func(t *testing.T) {
		svc := newTestService(&fakeCatalog{}, &fakeGen{err: errLLMDown}, newFakeStore(), &fakeHistory{})

		_, _, err := svc.RecommendForMember(ctx, "m1", []int64{1})
		var empty *EmptyPoolError
		require.True(t, errors.As(err, &empty))
	})

	t.Run("fallo de cache no voltea el request", func(t *testing.T) {
		catalog := &fakeCatalog{
			favorites:  []*models.Song{{SongID: 1}},
			candidates: pipelinePool(10),
		}
		store := newFakeStore()
		store.setErr = errors.New("redis caído")
		svc := newTestService(catalog, &fakeGen{err: errLLMDown}, store, &fakeHistory{})

		resp, cached, err := svc.RecommendForMember(ctx, "m1", []int64{1})
		require.NoError(t, err)
		assert.False(t, cached)
		assert.NotEmpty(t, resp.Groups)
	})
}

func TestArtistGroups(t *testing.T) {
	ctx := context.Background()

	catalog := &fakeCatalog{
		favorites:  []*models.Song{{SongID: 1}},
		candidates: pipelinePool(5),
		byArtist: map[string][]*models.Song{
			"아이유": {
				{SongID: 501, TitleKR: "좋은 날", ArtistKR: "아이유"},
				{SongID: 502, TitleKR: "팔레트", ArtistKR: "아이유"},
			},
		},
	}
	svc := newTestService(catalog, &fakeGen{err: errLLMDown}, newFakeStore(), &fakeHistory{})

	pref := &models.UserPreference{FavoriteArtists: []string{"아이유", "없는가수", "셋째"}}
	groups := svc.artistGroups(ctx, pref, []int64{1})

	require.Len(t, groups, 1, "artistas sin canciones no generan grupo")
	assert.Equal(t, "아이유 추천", groups[0].Label)
	assert.Equal(t, "아이유 인기곡 추천 🎤", groups[0].Tagline)
	assert.Len(t, groups[0].Songs, 2)

	t.Run("sin perfil no hay grupos", func(t *testing.T) {
		assert.Nil(t, svc.artistGroups(ctx, nil, nil))
		assert.Nil(t, svc.artistGroups(ctx, &models.UserPreference{}, nil))
	})

	t.Run("el tagline del LLM se respeta tal cual", func(t *testing.T) {
		svc := newTestService(catalog, &fakeGen{resp: "아이유의 매력적인 선곡 🎵"}, newFakeStore(), &fakeHistory{})
		groups := svc.artistGroups(ctx, pref, []int64{1})
		require.Len(t, groups, 1)
		assert.Equal(t, "아이유의 매력적인 선곡 🎵", groups[0].Tagline)
	})
}

func TestStoreResultWritesPreferenceFirst(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	svc := newTestService(&fakeCatalog{}, &fakeGen{err: errLLMDown}, store, &fakeHistory{})

	result := &models.RecommendationResult{
		FavoriteSongIDs: []int64{1, 2},
		Preference:      samplePref(),
		Groups: []models.RecommendationGroup{
			{Label: "잔잔", Songs: []models.NormalizedSong{{SongID: 9}}},
		},
	}
	require.NoError(t, svc.StoreResult(ctx, "m1", result))

	_, ok := svc.Coordinator().LoadPreference(ctx, "m1", []int64{2, 1})
	assert.True(t, ok)
	_, ok = svc.Coordinator().LoadRecommendation(ctx, "m1", []int64{1, 2})
	assert.True(t, ok)
}
