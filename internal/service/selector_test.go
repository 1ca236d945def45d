package service

import (
	"context"
	"math/rand"
	"strings"
	"testing"

	"github.com/Zara8170/song-ai/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func selectorPool() []*models.CandidateSong {
	a := groupSong(1, "잔잔", "발라드")
	b := groupSong(2, "신나는", "J-pop")
	c := groupSong(3, "잔잔", "발라드")
	a.MatchScore, b.MatchScore, c.MatchScore = 1, 5, 3
	return []*models.CandidateSong{a, b, c}
}

func TestSelect(t *testing.T) {
	ctx := context.Background()

	t.Run("respuesta válida", func(t *testing.T) {
		gen := &fakeGen{resp: "```json\n{\"recommended_songs\":[{\"title\":\"곡\",\"artist_kr\":\"가수\",\"reason\":\"좋아서\"}]}\n```"}
		sel := NewSelector(gen)

		songs, ok := sel.Select(ctx, selectorPool(), nil, 10)
		require.True(t, ok)
		require.Len(t, songs, 1)
		assert.Equal(t, "좋아서", songs[0].Reason)
	})

	tests := []struct {
		name string
		gen  *fakeGen
	}{
		{"error de transporte", &fakeGen{err: errLLMDown}},
		{"sin objeto JSON", &fakeGen{resp: "죄송합니다, 추천할 수 없습니다."}},
		{"JSON roto", &fakeGen{resp: `{"recommended_songs":[{]}`}},
		{"lista vacía", &fakeGen{resp: `{"recommended_songs":[]}`}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sel := NewSelector(tt.gen)
			songs, ok := sel.Select(ctx, selectorPool(), nil, 10)
			assert.False(t, ok)
			assert.Nil(t, songs)
		})
	}

	t.Run("pool vacío no llama al LLM", func(t *testing.T) {
		gen := &fakeGen{resp: "x"}
		sel := NewSelector(gen)
		_, ok := sel.Select(ctx, nil, nil, 10)
		assert.False(t, ok)
		assert.Empty(t, gen.calls)
	})

	t.Run("el prompt lleva la lista blanca del pool", func(t *testing.T) {
		gen := &fakeGen{err: errLLMDown}
		sel := NewSelector(gen)
		sel.Select(ctx, selectorPool(), &models.UserPreference{OverallTaste: "발라드 위주"}, 10)

		require.Len(t, gen.calls, 1)
		prompt := gen.calls[0].Prompt
		assert.True(t, strings.Contains(prompt, "J-pop, 발라드") || strings.Contains(prompt, "발라드"))
		assert.Contains(t, prompt, "잔잔")
		assert.Contains(t, prompt, "발라드 위주")
	})
}

func TestRandomSample(t *testing.T) {
	pool := selectorPool()
	rng := rand.New(rand.NewSource(3))

	out := RandomSample(pool, 2, rng)
	assert.Len(t, out, 2)

	out = RandomSample(pool, 99, rng)
	assert.Len(t, out, 3, "n mayor al pool devuelve todo")

	seen := map[int64]bool{}
	for _, c := range out {
		assert.False(t, seen[c.SongID])
		seen[c.SongID] = true
	}
}

func TestTopByScore(t *testing.T) {
	pool := selectorPool()
	out := TopByScore(pool, 2)
	require.Len(t, out, 2)
	assert.Equal(t, int64(2), out[0].SongID)
	assert.Equal(t, int64(3), out[1].SongID)

	// el pool original no se reordena
	assert.Equal(t, int64(1), pool[0].SongID)
}
