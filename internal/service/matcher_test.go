package service

import (
	"testing"

	"github.com/Zara8170/song-ai/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func poolSong(id int64, titleKR, titleEN, artistKR string) *models.CandidateSong {
	return &models.CandidateSong{
		Song: models.Song{SongID: id, TitleKR: titleKR, TitleEN: titleEN, ArtistKR: artistKR},
	}
}

func TestNormalizeText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"minúsculas y trim", "  Lemon  ", "lemon"},
		{"anotación entre paréntesis", "밤편지 (Through the Night)", "밤편지"},
		{"corchetes japoneses", "打上花火【MV】", "打上花火"},
		{"puntuación fuera", "Pretender!!", "pretender"},
		{"espacios colapsados", "夜に   駆ける", "夜に 駆ける"},
		{"vacío", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, normalizeText(tt.in))
		})
	}
}

func TestSoftMatch(t *testing.T) {
	assert.True(t, softMatch("Lemon", "lemon"))
	assert.True(t, softMatch("밤편지 (Through the Night)", "밤편지"))
	assert.True(t, softMatch("夜に駆ける", "夜に駆ける -Yoru ni Kakeru-"))
	assert.False(t, softMatch("Lemon", "Orange"))
	assert.False(t, softMatch("", "Lemon"))
}

func TestMatchSelectionTiers(t *testing.T) {
	pool := []*models.CandidateSong{
		poolSong(1, "밤편지", "Through the Night", "아이유"),
		poolSong(2, "", "Lemon (Movie Ver.)", "요네즈 켄시"),
	}

	t.Run("exacto por title_kr", func(t *testing.T) {
		res := matchSelection(models.AIRecommendedSong{Title: "밤편지", ArtistKR: "아이유"}, pool, map[int64]bool{})
		require.Equal(t, MatchExact, res.Tier)
		assert.Equal(t, int64(1), res.Song.SongID)
	})

	t.Run("suave con anotación extra", func(t *testing.T) {
		res := matchSelection(models.AIRecommendedSong{Title: "Lemon", ArtistKR: "요네즈 켄시"}, pool, map[int64]bool{})
		require.Equal(t, MatchSoft, res.Tier)
		assert.Equal(t, int64(2), res.Song.SongID)
	})

	t.Run("título ok pero artista no", func(t *testing.T) {
		res := matchSelection(models.AIRecommendedSong{Title: "밤편지", ArtistKR: "다른가수"}, pool, map[int64]bool{})
		assert.Equal(t, MatchNone, res.Tier)
	})

	t.Run("usadas se saltean", func(t *testing.T) {
		res := matchSelection(models.AIRecommendedSong{Title: "밤편지", ArtistKR: "아이유"}, pool, map[int64]bool{1: true})
		assert.Equal(t, MatchNone, res.Tier)
	})

	t.Run("cae a title_kr si title viene vacío", func(t *testing.T) {
		res := matchSelection(models.AIRecommendedSong{TitleKR: "밤편지", ArtistKR: "아이유"}, pool, map[int64]bool{})
		assert.Equal(t, MatchExact, res.Tier)
	})
}

func TestReconcile(t *testing.T) {
	newPool := func() []*models.CandidateSong {
		a := poolSong(1, "밤편지", "", "아이유")
		b := poolSong(2, "좋은 날", "", "아이유")
		c := poolSong(3, "Lemon", "", "요네즈 켄시")
		b.MatchScore = 4
		c.MatchScore = 1
		return []*models.CandidateSong{a, b, c}
	}

	t.Run("anotaciones de la IA pisan las del catálogo", func(t *testing.T) {
		pool := newPool()
		out := Reconcile([]models.AIRecommendedSong{
			{Title: "밤편지", ArtistKR: "아이유", Mood: "서정적", Genre: "발라드", Reason: "차분한 분위기"},
		}, pool)

		require.Len(t, out, 1)
		assert.Equal(t, "서정적", out[0].Mood)
		assert.Equal(t, "발라드", out[0].Genre)
		assert.Equal(t, "차분한 분위기", out[0].Reason)
		// el pool original queda intacto
		assert.Empty(t, pool[0].Mood)
	})

	t.Run("cada canción se usa una sola vez", func(t *testing.T) {
		out := Reconcile([]models.AIRecommendedSong{
			{Title: "밤편지", ArtistKR: "아이유"},
			{Title: "밤편지", ArtistKR: "아이유"},
		}, newPool())

		// la segunda selección no matchea y el relleno trae al mejor no usado
		require.Len(t, out, 2)
		assert.Equal(t, int64(1), out[0].SongID)
		assert.Equal(t, int64(2), out[1].SongID, "relleno por match_score desc")
	})

	t.Run("selecciones inventadas se rellenan por score", func(t *testing.T) {
		out := Reconcile([]models.AIRecommendedSong{
			{Title: "존재하지 않는 곡", ArtistKR: "아무도"},
			{Title: "이것도 없음", ArtistKR: "아무도"},
		}, newPool())

		require.Len(t, out, 2)
		assert.Equal(t, int64(2), out[0].SongID)
	})

	t.Run("pool vacío devuelve vacío", func(t *testing.T) {
		out := Reconcile([]models.AIRecommendedSong{{Title: "밤편지", ArtistKR: "아이유"}}, nil)
		assert.Empty(t, out)
	})
}
