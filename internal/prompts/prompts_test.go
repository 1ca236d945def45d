package prompts

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAnalyzePreference(t *testing.T) {
	out := AnalyzePreference("- 밤편지 by 아이유")
	assert.Contains(t, out, "- 밤편지 by 아이유")
	assert.Contains(t, out, "preferred_genres", "el prompt exige el esquema de salida")
}

func TestRecommend(t *testing.T) {
	out := Recommend(RecommendParams{
		UserPreference: "- 선호 장르: 발라드",
		AllowedGenres:  "발라드, J-pop",
		AllowedMoods:   "잔잔, 신나는",
		SongList:       "1.밤편지//-아이유/(발라드,잔잔)",
		TargetCount:    20,
	})
	assert.Contains(t, out, "발라드, J-pop")
	assert.Contains(t, out, "20")
	assert.Contains(t, out, "recommended_songs")
}

func TestGroupTagline(t *testing.T) {
	out := GroupTagline("잔잔", "밤편지 - 아이유")
	assert.Contains(t, out, "잔잔")
	assert.Contains(t, out, "밤편지 - 아이유")
}
