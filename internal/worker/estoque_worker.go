package worker

// estoque_worker.go
// Processes inventory jobs (reserve/consume/refund) from the inventory_jobs
// table. The worker is a pure claim-process-return function over a bounded
// batch: it owns no timer loop, so any external scheduler (cron, queue
// trigger, the optional in-process ticker) can drive it.

import (
	"context"
	"time"

	"lojahub/internal/dto"
	"lojahub/internal/model"
	"lojahub/internal/repository"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	defaultBatchSize = 10
	maxBatchSize     = 50

	// QueueEstoque names the DLQ bucket for exhausted inventory jobs.
	QueueEstoque = "jobs:estoque"

	backoffBase = 30 * time.Second
	backoffCap  = time.Hour
)

// EstoqueExecutor performs the actual inventory mutation for one order
// against the organization's default stock location. Implemented by
// service.EstoqueService.
type EstoqueExecutor interface {
	Reservar(ctx context.Context, pedidoID uuid.UUID) error
	Consumir(ctx context.Context, pedidoID uuid.UUID) error
	Estornar(ctx context.Context, pedidoID uuid.UUID) error
}

// EstoqueWorker claims ready inventory jobs and executes them with capped
// exponential backoff on failure.
type EstoqueWorker struct {
	jobRepo     repository.InventoryJobRepository
	executor    EstoqueExecutor
	rdb         *redis.Client
	maxAttempts int
}

func NewEstoqueWorker(jobRepo repository.InventoryJobRepository, executor EstoqueExecutor, rdb *redis.Client, maxAttempts int) *EstoqueWorker {
	if maxAttempts <= 0 {
		maxAttempts = 8
	}
	return &EstoqueWorker{jobRepo: jobRepo, executor: executor, rdb: rdb, maxAttempts: maxAttempts}
}

// ProcessarLote claims up to limit ready jobs and processes them.
// A job lost to a concurrent claimer is skipped silently — the conditional
// update decides the winner. Failures are recorded and rescheduled, never
// dropped.
func (w *EstoqueWorker) ProcessarLote(ctx context.Context, pedidoID *uuid.UUID, limit int) (*dto.JobsRunResponse, error) {
	if limit <= 0 {
		limit = defaultBatchSize
	}
	if limit > maxBatchSize {
		limit = maxBatchSize
	}

	jobs, err := w.jobRepo.ListReady(ctx, pedidoID, limit)
	if err != nil {
		return nil, err
	}

	resp := &dto.JobsRunResponse{OK: true, Results: []dto.JobResult{}}
	for i := range jobs {
		job := &jobs[i]

		claimed, err := w.jobRepo.Claim(ctx, job)
		if err != nil {
			return nil, err
		}
		if !claimed {
			// Another worker won the race.
			continue
		}

		execErr := w.executar(ctx, job)
		if execErr != nil {
			w.registrarFalha(ctx, job, execErr)
		} else {
			job.Status = model.JobDone
			job.NextAttemptAt = nil
			job.LastError = nil
			if err := w.jobRepo.Update(ctx, job); err != nil {
				log.Error().Err(err).Str("job_id", job.ID.String()).Msg("estoque_worker: failed to persist done status")
			}
		}

		result := dto.JobResult{
			JobID:         job.ID.String(),
			PedidoID:      job.PedidoID.String(),
			Tipo:          job.Tipo,
			Status:        job.Status,
			Attempts:      job.Attempts,
			CorrelationID: job.CorrelationID.String(),
		}
		if execErr != nil {
			result.Erro = execErr.Error()
		}
		resp.Results = append(resp.Results, result)
		resp.Processed++
	}
	return resp, nil
}

func (w *EstoqueWorker) executar(ctx context.Context, job *model.InventoryJob) error {
	switch job.Tipo {
	case model.JobReserve:
		return w.executor.Reservar(ctx, job.PedidoID)
	case model.JobConsume:
		return w.executor.Consumir(ctx, job.PedidoID)
	case model.JobRefund:
		return w.executor.Estornar(ctx, job.PedidoID)
	default:
		return &FalhaJob{Mensagem: "tipo de job desconhecido: " + job.Tipo}
	}
}

// registrarFalha moves the job back to failed with the error recorded and a
// backoff schedule; exhausted jobs land in the DLQ with next_attempt_at
// cleared so they stop being claimed.
func (w *EstoqueWorker) registrarFalha(ctx context.Context, job *model.InventoryJob, execErr error) {
	job.Status = model.JobFailed
	msg := execErr.Error()
	job.LastError = &msg

	if job.Attempts >= w.maxAttempts {
		job.NextAttemptAt = nil
		log.Error().
			Str("job_id", job.ID.String()).
			Str("pedido_id", job.PedidoID.String()).
			Int("attempts", job.Attempts).
			Msg("estoque_worker: max attempts exceeded, moving to DLQ")
		if w.rdb != nil {
			payload := []byte(`{"job_id":"` + job.ID.String() + `","pedido_id":"` + job.PedidoID.String() + `","tipo":"` + job.Tipo + `"}`)
			SendToDLQ(ctx, w.rdb, QueueEstoque, job.Tipo, payload, msg, job.Attempts)
		}
	} else {
		next := time.Now().Add(BackoffDelay(job.Attempts))
		job.NextAttemptAt = &next
		log.Warn().
			Str("job_id", job.ID.String()).
			Str("pedido_id", job.PedidoID.String()).
			Int("attempts", job.Attempts).
			Time("next_attempt_at", next).
			Err(execErr).
			Msg("estoque_worker: job failed, scheduled retry")
	}

	if err := w.jobRepo.Update(ctx, job); err != nil {
		log.Error().Err(err).Str("job_id", job.ID.String()).Msg("estoque_worker: failed to persist failure")
	}
}

// BackoffDelay grows 30s, 1m, 2m, ... doubling per attempt, capped at 1h.
func BackoffDelay(attempts int) time.Duration {
	if attempts < 1 {
		attempts = 1
	}
	d := backoffBase << uint(attempts-1)
	if d > backoffCap || d <= 0 {
		return backoffCap
	}
	return d
}

// FalhaJob is a non-retryable job execution error.
type FalhaJob struct{ Mensagem string }

func (f *FalhaJob) Error() string { return f.Mensagem }
