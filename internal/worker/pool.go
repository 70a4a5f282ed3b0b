package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// ReconciliacaoWorker forwards reconciliation jobs to the marketplace-specific
// serverless functions. Delivery is best-effort: a failed POST goes to the
// DLQ, it never blocks or retries on the request path.
type ReconciliacaoWorker struct {
	httpClient *http.Client
	urls       map[string]string // marketplace → function URL
}

func NewReconciliacaoWorker(mlURL, shopeeURL string) *ReconciliacaoWorker {
	return &ReconciliacaoWorker{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		urls: map[string]string{
			"mercado_livre": mlURL,
			"shopee":        shopeeURL,
		},
	}
}

func (w *ReconciliacaoWorker) Process(ctx context.Context, rdb *redis.Client, raw json.RawMessage) {
	var payload ReconciliacaoPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error().Err(err).Msg("reconciliacao_worker: invalid payload")
		return
	}

	url := w.urls[payload.Marketplace]
	if url == "" {
		log.Debug().Str("marketplace", payload.Marketplace).Msg("reconciliacao_worker: no function URL configured, skipping")
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(raw))
	if err != nil {
		log.Error().Err(err).Msg("reconciliacao_worker: create request")
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.httpClient.Do(req)
	if err != nil {
		log.Warn().Err(err).Str("pedido_id", payload.PedidoID).Msg("reconciliacao_worker: function unreachable")
		SendToDLQ(ctx, rdb, QueueReconciliacao, "reconciliacao", raw, err.Error(), 1)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		log.Warn().Int("status", resp.StatusCode).Str("pedido_id", payload.PedidoID).Msg("reconciliacao_worker: function rejected")
		SendToDLQ(ctx, rdb, QueueReconciliacao, "reconciliacao", raw, resp.Status, 1)
		return
	}
	log.Info().Str("pedido_id", payload.PedidoID).Str("marketplace", payload.Marketplace).Msg("reconciliacao_worker: delivered")
}

// WorkerHandlers wires job types to their processors.
type WorkerHandlers struct {
	Reconciliacao *ReconciliacaoWorker
}

// StartWorkerPool launches numWorkers goroutines consuming the async queues.
// Each goroutine blocks on BRPOP — zero CPU when idle.
func StartWorkerPool(ctx context.Context, rdb *redis.Client, handlers *WorkerHandlers, numWorkers int) {
	for i := 0; i < numWorkers; i++ {
		go runWorker(ctx, rdb, handlers, i)
	}
	log.Info().Msgf("worker pool started with %d workers", numWorkers)
}

func runWorker(ctx context.Context, rdb *redis.Client, handlers *WorkerHandlers, id int) {
	queues := []string{QueueReconciliacao}
	for {
		select {
		case <-ctx.Done():
			log.Info().Msgf("worker %d shutting down", id)
			return
		default:
			// Blocking pop — waits up to 5s then loops to check ctx
			result, err := rdb.BRPop(ctx, 5*time.Second, queues...).Result()
			if err != nil {
				continue // timeout or context cancelled
			}
			if len(result) < 2 {
				continue
			}
			processJob(ctx, rdb, handlers, result[0], result[1])
		}
	}
}

func processJob(ctx context.Context, rdb *redis.Client, handlers *WorkerHandlers, queue, raw string) {
	var job Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		log.Error().Str("queue", queue).Err(err).Msg("failed to unmarshal job")
		return
	}
	switch job.Type {
	case "reconciliacao":
		if handlers.Reconciliacao != nil {
			handlers.Reconciliacao.Process(ctx, rdb, job.Payload)
		}
	default:
		log.Warn().Str("type", job.Type).Str("queue", queue).Msg("no handler for job type")
	}
}
