// Package tasks es la cola de trabajo en background: análisis de
// preferencia y generación de recomendaciones como unidades independientes
// y reintentables. Ejecución al-menos-una-vez: los cuerpos de tarea solo
// escriben snapshots completos, así repetir o desordenar es seguro.
package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Tipos de tarea.
const (
	KindAnalyzePreference       = "analyze_preference"
	KindGenerateRecommendations = "generate_recommendations"
	KindWarmActiveUsers         = "warm_active_users"
)

// Task es el mensaje que viaja por la cola.
type Task struct {
	Kind            string    `json:"kind"`
	MemberID        string    `json:"memberId,omitempty"`
	FavoriteSongIDs []int64   `json:"favorite_song_ids,omitempty"`
	Limit           int       `json:"limit,omitempty"` // solo warm
	Attempt         int       `json:"attempt"`
	EnqueuedAt      time.Time `json:"enqueued_at"`
}

// Queue es una cola FIFO sobre una lista de Redis (LPUSH / BRPOP).
type Queue struct {
	client *redis.Client
	key    string
}

func NewQueue(client *redis.Client, key string) *Queue {
	return &Queue{client: client, key: key}
}

func (q *Queue) Enqueue(ctx context.Context, t Task) error {
	if t.EnqueuedAt.IsZero() {
		t.EnqueuedAt = time.Now()
	}
	b, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("encode task: %w", err)
	}
	return q.client.LPush(ctx, q.key, b).Err()
}

// Dequeue bloquea hasta `timeout` esperando una tarea.
// Devuelve nil sin error cuando venció el timeout.
func (q *Queue) Dequeue(ctx context.Context, timeout time.Duration) (*Task, error) {
	res, err := q.client.BRPop(ctx, timeout, q.key).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	// BRPOP devuelve [key, value]
	if len(res) != 2 {
		return nil, fmt.Errorf("respuesta BRPOP inesperada: %v", res)
	}

	var t Task
	if err := json.Unmarshal([]byte(res[1]), &t); err != nil {
		return nil, fmt.Errorf("decode task: %w", err)
	}
	return &t, nil
}

// ReportFailed manda la tarea agotada a la lista de muertas: fallada se
// reporta, no se pierde en silencio.
func (q *Queue) ReportFailed(ctx context.Context, t Task, cause error) error {
	b, err := json.Marshal(map[string]any{
		"task":      t,
		"error":     cause.Error(),
		"failed_at": time.Now(),
	})
	if err != nil {
		return err
	}
	return q.client.LPush(ctx, q.key+":failed", b).Err()
}
