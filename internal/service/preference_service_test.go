package service

import (
	"context"
	"testing"

	"github.com/Zara8170/song-ai/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func favSong(titleKR, artistKR, genre, mood string) *models.Song {
	return &models.Song{TitleKR: titleKR, ArtistKR: artistKR, Genre: genre, Mood: mood}
}

func TestAnalyze(t *testing.T) {
	ctx := context.Background()
	favorites := []*models.Song{favSong("밤편지", "아이유", "발라드", "잔잔")}

	t.Run("perfil válido", func(t *testing.T) {
		gen := &fakeGen{resp: `{"preferred_genres":["발라드"],"preferred_moods":["잔잔"],"overall_taste":"감성 발라드","favorite_artists":["아이유"]}`}
		svc := NewPreferenceService(gen)

		pref := svc.Analyze(ctx, favorites)
		require.NotNil(t, pref)
		assert.Equal(t, []string{"발라드"}, pref.PreferredGenres)
		assert.Equal(t, "감성 발라드", pref.OverallTaste)

		require.Len(t, gen.calls, 1)
		assert.Contains(t, gen.calls[0].Prompt, "밤편지")
		assert.InDelta(t, 0.3, gen.calls[0].Temperature, 0.001)
	})

	t.Run("sin favoritos no llama al LLM", func(t *testing.T) {
		gen := &fakeGen{resp: "x"}
		svc := NewPreferenceService(gen)
		assert.Nil(t, svc.Analyze(ctx, nil))
		assert.Empty(t, gen.calls)
	})

	t.Run("recorta la lista de artistas", func(t *testing.T) {
		gen := &fakeGen{resp: `{"overall_taste":"x","favorite_artists":["a","b","c","d","e","f","g"]}`}
		svc := NewPreferenceService(gen)
		pref := svc.Analyze(ctx, favorites)
		require.NotNil(t, pref)
		assert.Len(t, pref.FavoriteArtists, 5)
	})

	degraded := []struct {
		name string
		gen  *fakeGen
	}{
		{"error de transporte", &fakeGen{err: errLLMDown}},
		{"respuesta sin JSON", &fakeGen{resp: "분석할 수 없습니다"}},
		{"JSON roto", &fakeGen{resp: `{"preferred_genres":[}`}},
		{"perfil sin ninguna señal", &fakeGen{resp: `{"preferred_genres":[],"preferred_moods":[],"overall_taste":"","favorite_artists":[]}`}},
	}
	for _, tt := range degraded {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewPreferenceService(tt.gen)
			assert.Nil(t, svc.Analyze(ctx, favorites))
		})
	}
}
