package models

import "strings"

// Registro de la tabla `song` en MySQL (catálogo de noraebang).
// Los títulos vienen en varias escrituras (kr/en/jp/yomi) y pueden estar vacíos,
// nunca se propagan como null a las comparaciones.
type Song struct {
	SongID    int64  `json:"song_id" gorm:"column:song_id;primaryKey"`
	TitleKR   string `json:"title_kr" gorm:"column:title_kr"`
	TitleEN   string `json:"title_en" gorm:"column:title_en"`
	TitleJP   string `json:"title_jp" gorm:"column:title_jp"`
	TitleYomi string `json:"title_yomi" gorm:"column:title_yomi"`
	Artist    string `json:"artist" gorm:"column:artist"`
	ArtistKR  string `json:"artist_kr" gorm:"column:artist_kr"`
	Genre     string `json:"genre" gorm:"column:genre"`
	Mood      string `json:"mood" gorm:"column:mood"`
	TJNumber  *int   `json:"tj_number" gorm:"column:tj_number"`
	KYNumber  *int   `json:"ky_number" gorm:"column:ky_number"`
}

func (Song) TableName() string { return "song" }

// Titles devuelve todas las variantes de título no vacías ya recortadas.
func (s *Song) Titles() []string {
	return []string{
		strings.TrimSpace(s.TitleKR),
		strings.TrimSpace(s.TitleEN),
		strings.TrimSpace(s.TitleJP),
		strings.TrimSpace(s.TitleYomi),
	}
}

// Artists devuelve las dos variantes de artista recortadas (kr, original).
func (s *Song) Artists() []string {
	return []string{
		strings.TrimSpace(s.ArtistKR),
		strings.TrimSpace(s.Artist),
	}
}

// DisplayTitle elige el primer título disponible (kr > en > jp > yomi).
func (s *Song) DisplayTitle() string {
	for _, t := range s.Titles() {
		if t != "" {
			return t
		}
	}
	return "Unknown Title"
}

// DisplayArtist elige artist_kr y cae al nombre original.
func (s *Song) DisplayArtist() string {
	for _, a := range s.Artists() {
		if a != "" {
			return a
		}
	}
	return "Unknown Artist"
}

// Tipos de recomendación que anota el repositorio sobre cada candidato.
const (
	RecTypeScored     = "scored"
	RecTypeRandom     = "random"
	RecTypePreference = "preference"
)

// Criterios que puede satisfacer un candidato al puntuarse.
const (
	CriterionPreferredGenre = "preferred_genre"
	CriterionPreferredMood  = "preferred_mood"
	CriterionLikeGenre      = "like_genre"
	CriterionLikeArtist     = "like_artist"
)

// CandidateSong es un Song con las anotaciones transitorias del pipeline.
// Nunca se persisten en el catálogo.
type CandidateSong struct {
	Song
	SubGenres          []string `json:"sub_genres,omitempty"`
	RecommendationType string   `json:"recommendation_type"`
	MatchedCriteria    []string `json:"matched_criteria"`
	MatchScore         int      `json:"match_score"`
	Reason             string   `json:"reason"`
}

// HasCriterion indica si el candidato tiene marcado ese criterio.
func (c *CandidateSong) HasCriterion(name string) bool {
	for _, m := range c.MatchedCriteria {
		if m == name {
			return true
		}
	}
	return false
}

// NormalizedSong es la vista que entra a los grupos y al cache
// (solo campos de presentación, sin anotaciones de scoring).
type NormalizedSong struct {
	SongID    int64  `json:"song_id,omitempty"`
	TitleJP   string `json:"title_jp"`
	TitleKR   string `json:"title_kr"`
	TitleEN   string `json:"title_en"`
	TitleYomi string `json:"title_yomi"`
	Artist    string `json:"artist"`
	ArtistKR  string `json:"artist_kr"`
	TJNumber  *int   `json:"tj_number"`
	KYNumber  *int   `json:"ky_number"`
}

// NormalizedCandidate es el candidato ya normalizado para cachear.
type NormalizedCandidate struct {
	NormalizedSong
	Genre              string   `json:"genre"`
	Mood               string   `json:"mood"`
	RecommendationType string   `json:"recommendation_type"`
	MatchedCriteria    []string `json:"matched_criteria"`
	MatchScore         int      `json:"match_score"`
	Reason             string   `json:"reason"`
}

// NormalizeSong proyecta un CandidateSong a su vista de presentación.
func NormalizeSong(c *CandidateSong) NormalizedSong {
	return NormalizedSong{
		SongID:    c.SongID,
		TitleJP:   strings.TrimSpace(c.TitleJP),
		TitleKR:   strings.TrimSpace(c.TitleKR),
		TitleEN:   strings.TrimSpace(c.TitleEN),
		TitleYomi: strings.TrimSpace(c.TitleYomi),
		Artist:    strings.TrimSpace(c.Artist),
		ArtistKR:  strings.TrimSpace(c.ArtistKR),
		TJNumber:  c.TJNumber,
		KYNumber:  c.KYNumber,
	}
}

// NormalizeCandidate proyecta un CandidateSong con sus anotaciones de scoring.
func NormalizeCandidate(c *CandidateSong) NormalizedCandidate {
	mc := c.MatchedCriteria
	if mc == nil {
		mc = []string{}
	}
	return NormalizedCandidate{
		NormalizedSong:     NormalizeSong(c),
		Genre:              c.Genre,
		Mood:               c.Mood,
		RecommendationType: c.RecommendationType,
		MatchedCriteria:    mc,
		MatchScore:         c.MatchScore,
		Reason:             c.Reason,
	}
}
