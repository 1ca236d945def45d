package models

// UserPreference es el perfil de gusto que devuelve el análisis con IA.
// Un puntero nil significa "no se pudo derivar preferencia" y es un valor
// válido para el resto del pipeline, no un error.
type UserPreference struct {
	PreferredGenres []string `json:"preferred_genres"`
	PreferredMoods  []string `json:"preferred_moods"`
	OverallTaste    string   `json:"overall_taste"`
	FavoriteArtists []string `json:"favorite_artists"`
}

// Valid exige al menos una señal utilizable en el perfil.
func (p *UserPreference) Valid() bool {
	if p == nil {
		return false
	}
	return len(p.PreferredGenres) > 0 || len(p.PreferredMoods) > 0 ||
		p.OverallTaste != "" || len(p.FavoriteArtists) > 0
}

// ====== Respuesta del LLM de selección ======

// AIRecommendedSong es una selección del LLM en texto libre;
// después se reconcilia contra el catálogo.
type AIRecommendedSong struct {
	Title    string `json:"title"`
	TitleKR  string `json:"title_kr,omitempty"`
	ArtistKR string `json:"artist_kr"`
	TJNumber *int   `json:"tj_number,omitempty"`
	KYNumber *int   `json:"ky_number,omitempty"`
	Mood     string `json:"mood,omitempty"`
	Genre    string `json:"genre,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

type AIRecommendationResponse struct {
	RecommendedSongs []AIRecommendedSong `json:"recommended_songs"`
}
