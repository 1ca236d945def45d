package tasks

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/Zara8170/song-ai/internal/service"
)

// MemberSource lista los usuarios activos para el warming.
type MemberSource interface {
	ActiveUsersWithFavorites(ctx context.Context) (map[string][]int64, error)
}

// CacheSweeper es lo mínimo que el refresh diario necesita del cache.
type CacheSweeper interface {
	Keys(ctx context.Context, pattern string) ([]string, error)
	Delete(ctx context.Context, keys ...string) error
}

// Worker consume la cola y ejecuta los cuerpos de tarea. Reintenta con
// backoff exponencial acotado; agotados los intentos la tarea se reporta
// como fallida en la lista de muertas.
type Worker struct {
	queue      *Queue
	svc        *service.RecommendService
	catalog    service.Catalog
	members    MemberSource
	maxRetries int
	backoff    time.Duration
}

func NewWorker(queue *Queue, svc *service.RecommendService, catalog service.Catalog,
	members MemberSource, maxRetries int) *Worker {

	if maxRetries <= 0 {
		maxRetries = 3
	}
	return &Worker{
		queue:      queue,
		svc:        svc,
		catalog:    catalog,
		members:    members,
		maxRetries: maxRetries,
		backoff:    2 * time.Second,
	}
}

// Run procesa tareas hasta que el contexto se cancele.
func (w *Worker) Run(ctx context.Context) error {
	log.Println("[worker] esperando tareas…")
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		task, err := w.queue.Dequeue(ctx, 5*time.Second)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Printf("[worker] error leyendo cola: %v", err)
			time.Sleep(time.Second)
			continue
		}
		if task == nil {
			continue
		}

		w.process(ctx, *task)
	}
}

// process ejecuta una tarea y decide reintento o lista de muertas.
func (w *Worker) process(ctx context.Context, t Task) {
	err := w.Handle(ctx, t)
	if err == nil {
		return
	}

	log.Printf("[worker] tarea %s (intento %d) falló: %v", t.Kind, t.Attempt+1, err)

	if t.Attempt+1 >= w.maxRetries {
		if rerr := w.queue.ReportFailed(ctx, t, err); rerr != nil {
			log.Printf("[worker] no se pudo reportar tarea fallida: %v", rerr)
		}
		return
	}

	// backoff exponencial antes de reencolar
	wait := w.backoff * time.Duration(1<<t.Attempt)
	select {
	case <-ctx.Done():
		return
	case <-time.After(wait):
	}

	t.Attempt++
	if err := w.queue.Enqueue(ctx, t); err != nil {
		log.Printf("[worker] no se pudo reencolar %s: %v", t.Kind, err)
	}
}

// Handle ejecuta el cuerpo de una tarea. Exportado para poder probarlo
// sin levantar el loop.
func (w *Worker) Handle(ctx context.Context, t Task) error {
	switch t.Kind {
	case KindAnalyzePreference:
		return w.analyzePreference(ctx, t)
	case KindGenerateRecommendations:
		return w.generateRecommendations(ctx, t)
	case KindWarmActiveUsers:
		return w.warmActiveUsers(ctx, t)
	default:
		return fmt.Errorf("tarea desconocida: %q", t.Kind)
	}
}

// analyzePreference deriva y cachea el perfil del usuario. Si el análisis
// devuelve nil (LLM ilegible) no hay nada que cachear y la tarea termina
// bien: ese caso tiene fallback en el pipeline, no reintento acá.
func (w *Worker) analyzePreference(ctx context.Context, t Task) error {
	if len(t.FavoriteSongIDs) == 0 {
		return nil
	}
	favorites, err := w.catalog.Favorites(ctx, t.FavoriteSongIDs)
	if err != nil {
		return err
	}
	pref := w.svc.Preferences().Analyze(ctx, favorites)
	if pref == nil {
		return nil
	}
	return w.svc.Coordinator().SavePreference(ctx, t.MemberID, t.FavoriteSongIDs, pref)
}

// generateRecommendations corre el pipeline completo y sobreescribe los
// snapshots. Reintentable: siempre escribe el snapshot entero.
func (w *Worker) generateRecommendations(ctx context.Context, t Task) error {
	cachedPref, _ := w.svc.Coordinator().LoadPreference(ctx, t.MemberID, t.FavoriteSongIDs)

	result, err := w.svc.Recommend(ctx, t.FavoriteSongIDs, cachedPref)
	if err != nil {
		return err
	}
	if result.Error != "" {
		// pool vacío: no hay nada que cachear ni que reintentar
		log.Printf("[worker] sin candidatos para %s: %s", t.MemberID, result.Error)
		return nil
	}
	return w.svc.StoreResult(ctx, t.MemberID, result)
}

// warmActiveUsers encola el par de tareas por cada usuario activo.
func (w *Worker) warmActiveUsers(ctx context.Context, t Task) error {
	userMap, err := w.members.ActiveUsersWithFavorites(ctx)
	if err != nil {
		return err
	}

	limit := t.Limit
	if limit <= 0 {
		limit = 1000
	}

	count := 0
	for memberID, favIDs := range userMap {
		if count >= limit {
			break
		}
		if err := w.queue.Enqueue(ctx, Task{Kind: KindAnalyzePreference, MemberID: memberID, FavoriteSongIDs: favIDs}); err != nil {
			return err
		}
		if err := w.queue.Enqueue(ctx, Task{Kind: KindGenerateRecommendations, MemberID: memberID, FavoriteSongIDs: favIDs}); err != nil {
			return err
		}
		count++
	}
	log.Printf("[worker] warming encolado para %d usuarios", count)
	return nil
}

// RunDailyRefresh borra los snapshots de recomendación y re-encola el
// warming todos los días a la hora indicada. Corre hasta cancelar el ctx.
func (w *Worker) RunDailyRefresh(ctx context.Context, sweeper CacheSweeper, hour int) {
	for {
		next := nextAt(time.Now(), hour)
		log.Printf("[worker] próximo refresh diario: %s", next.Format(time.RFC3339))

		select {
		case <-ctx.Done():
			return
		case <-time.After(time.Until(next)):
		}

		keys, err := sweeper.Keys(ctx, "recommend:*")
		if err != nil {
			log.Printf("[worker] refresh: error listando cache: %v", err)
			continue
		}
		if len(keys) > 0 {
			if err := sweeper.Delete(ctx, keys...); err != nil {
				log.Printf("[worker] refresh: error borrando cache: %v", err)
			} else {
				log.Printf("🗑️ cache de recomendación barrido: %d claves", len(keys))
			}
		}

		if err := w.queue.Enqueue(ctx, Task{Kind: KindWarmActiveUsers}); err != nil {
			log.Printf("[worker] refresh: no se pudo encolar warming: %v", err)
		}
	}
}

// nextAt devuelve la próxima ocurrencia de `hour`:00 local.
func nextAt(now time.Time, hour int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}
