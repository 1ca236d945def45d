package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/Zara8170/song-ai/internal/llm"
	"github.com/Zara8170/song-ai/internal/models"
	"github.com/Zara8170/song-ai/internal/prompts"
)

const maxFavoriteArtists = 5

// PreferenceService deriva el perfil de gusto de un usuario con una sola
// llamada al LLM. Falla cerrado: cualquier problema devuelve nil, que para
// el resto del pipeline significa "sin personalización", no un error.
type PreferenceService struct {
	llm TextGenerator
}

func NewPreferenceService(gen TextGenerator) *PreferenceService {
	return &PreferenceService{llm: gen}
}

// Analyze devuelve el perfil derivado o nil. No reintenta la llamada;
// si alguien quiere retry es problema del worker que lo encola.
func (s *PreferenceService) Analyze(ctx context.Context, favorites []*models.Song) *models.UserPreference {
	if len(favorites) == 0 {
		return nil
	}

	raw, err := s.llm.Complete(ctx, llm.CompleteRequest{
		Prompt:      prompts.AnalyzePreference(favoritesSummary(favorites)),
		Temperature: 0.3,
		MaxTokens:   500,
	})
	if err != nil {
		log.Printf("[preference] llamada LLM falló: %v", err)
		return nil
	}

	body := extractJSON(raw)
	if body == "" {
		log.Printf("[preference] respuesta sin objeto JSON")
		return nil
	}

	var pref models.UserPreference
	if err := json.Unmarshal([]byte(body), &pref); err != nil {
		log.Printf("[preference] JSON inválido: %v", err)
		return nil
	}
	if !pref.Valid() {
		log.Printf("[preference] perfil vacío tras validar")
		return nil
	}

	if len(pref.FavoriteArtists) > maxFavoriteArtists {
		pref.FavoriteArtists = pref.FavoriteArtists[:maxFavoriteArtists]
	}
	return &pref
}

// favoritesSummary arma el resumen compacto por favorito para el prompt.
func favoritesSummary(favorites []*models.Song) string {
	lines := make([]string, 0, len(favorites))
	for _, s := range favorites {
		lines = append(lines, fmt.Sprintf("- %s/%s/%s by %s/%s (장르: %s, 분위기: %s)",
			orUnknown(s.TitleKR), s.TitleEN, s.TitleYomi,
			orUnknown(s.ArtistKR), s.Artist,
			orUnknown(s.Genre), orUnknown(s.Mood)))
	}
	return strings.Join(lines, "\n")
}

func orUnknown(s string) string {
	if s = strings.TrimSpace(s); s == "" {
		return "Unknown"
	}
	return s
}
