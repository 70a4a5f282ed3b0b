package worker

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
)

const (
	// QueueReconciliacao carries fire-and-forget marketplace reconciliation
	// requests emitted after a successful item link or NFe authorization.
	QueueReconciliacao = "jobs:reconciliacao"
)

// Job is the generic envelope for all async tasks.
type Job struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// ReconciliacaoPayload identifies the marketplace-side order to reconcile.
type ReconciliacaoPayload struct {
	PedidoID           string `json:"pedido_id"`
	Marketplace        string `json:"marketplace"`
	MarketplaceOrderID string `json:"marketplace_order_id"`
}

// Dispatcher enqueues async jobs into Redis lists.
// The worker pool dequeues them via BRPOP.
type Dispatcher struct {
	rdb *redis.Client
}

func NewDispatcher(rdb *redis.Client) *Dispatcher {
	return &Dispatcher{rdb: rdb}
}

// EnqueueReconciliacao pushes a marketplace reconciliation job. Callers treat
// this as fire-and-forget; delivery failures land in the DLQ, never back on
// the request path.
func (d *Dispatcher) EnqueueReconciliacao(ctx context.Context, payload ReconciliacaoPayload) error {
	return d.enqueue(ctx, QueueReconciliacao, "reconciliacao", payload)
}

func (d *Dispatcher) enqueue(ctx context.Context, queue, jobType string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	job := Job{Type: jobType, Payload: data}
	encoded, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return d.rdb.LPush(ctx, queue, encoded).Err()
}
