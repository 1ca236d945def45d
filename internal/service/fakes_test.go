package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/Zara8170/song-ai/internal/llm"
	"github.com/Zara8170/song-ai/internal/models"
)

// fakeGen responde con un guion fijo o con una función por llamada.
type fakeGen struct {
	resp  string
	err   error
	fn    func(req llm.CompleteRequest) (string, error)
	calls []llm.CompleteRequest
}

func (f *fakeGen) Complete(_ context.Context, req llm.CompleteRequest) (string, error) {
	f.calls = append(f.calls, req)
	if f.fn != nil {
		return f.fn(req)
	}
	return f.resp, f.err
}

// fakeStore implementa SnapshotStore sobre un map, con JSON real en el
// medio para que los snapshots corruptos fallen igual que en Redis.
type fakeStore struct {
	data    map[string][]byte
	ttls    map[string]time.Duration
	setErr  error
	deletes [][]string
}

func newFakeStore() *fakeStore {
	return &fakeStore{data: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (f *fakeStore) GetJSON(_ context.Context, key string, dest any) (bool, error) {
	raw, ok := f.data[key]
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, err
	}
	return true, nil
}

func (f *fakeStore) SetJSON(_ context.Context, key string, value any, ttl time.Duration) error {
	if f.setErr != nil {
		return f.setErr
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	f.data[key] = raw
	f.ttls[key] = ttl
	return nil
}

func (f *fakeStore) Delete(_ context.Context, keys ...string) error {
	f.deletes = append(f.deletes, keys)
	for _, k := range keys {
		delete(f.data, k)
		delete(f.ttls, k)
	}
	return nil
}

// fakeCatalog sirve listas fijas sin tocar MySQL.
type fakeCatalog struct {
	favorites  []*models.Song
	candidates []*models.CandidateSong
	byArtist   map[string][]*models.Song
	candErr    error
}

func (f *fakeCatalog) Favorites(_ context.Context, ids []int64) ([]*models.Song, error) {
	return f.favorites, nil
}

func (f *fakeCatalog) Candidates(_ context.Context, favoriteIDs []int64, limit int,
	preferredGenres, preferredMoods []string) ([]*models.CandidateSong, error) {
	if f.candErr != nil {
		return nil, f.candErr
	}
	return f.candidates, nil
}

func (f *fakeCatalog) SongsByArtists(_ context.Context, names []string, limitPerArtist int,
	excludeIDs []int64) (map[string][]*models.Song, error) {
	if f.byArtist == nil {
		return map[string][]*models.Song{}, nil
	}
	return f.byArtist, nil
}

// fakeHistory acumula lo insertado.
type fakeHistory struct {
	entries []*models.RecommendationHistory
	err     error
}

func (f *fakeHistory) Insert(_ context.Context, h *models.RecommendationHistory) error {
	if f.err != nil {
		return f.err
	}
	f.entries = append(f.entries, h)
	return nil
}

var errLLMDown = errors.New("llm unavailable")
