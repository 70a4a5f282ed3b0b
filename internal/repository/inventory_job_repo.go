package repository

import (
	"context"
	"time"

	"lojahub/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type InventoryJobRepository interface {
	// Upsert inserts the job or, when a (pedido, tipo) row already exists,
	// resets it to the given status so the worker picks it up again.
	Upsert(ctx context.Context, job *model.InventoryJob) error
	// ListReady returns claimable jobs: pending, or failed with the backoff
	// window elapsed. When pedidoID is non-nil only that order's jobs are
	// returned.
	ListReady(ctx context.Context, pedidoID *uuid.UUID, limit int) ([]model.InventoryJob, error)
	// Claim flips the job to processing and increments the attempt counter,
	// guarded by the status previously read (optimistic concurrency).
	// Returns false when the conditional update hits zero rows — another
	// worker won the race and the caller must skip the job.
	Claim(ctx context.Context, job *model.InventoryJob) (bool, error)
	Update(ctx context.Context, job *model.InventoryJob) error
}

type inventoryJobRepo struct{ db *gorm.DB }

func NewInventoryJobRepository(db *gorm.DB) InventoryJobRepository {
	return &inventoryJobRepo{db: db}
}

func (r *inventoryJobRepo) Upsert(ctx context.Context, job *model.InventoryJob) error {
	if job.CorrelationID == uuid.Nil {
		job.CorrelationID = uuid.New()
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "pedido_id"}, {Name: "tipo"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"status":          job.Status,
			"next_attempt_at": job.NextAttemptAt,
			"last_error":      job.LastError,
			"updated_at":      time.Now(),
		}),
	}).Create(job).Error
}

func (r *inventoryJobRepo) ListReady(ctx context.Context, pedidoID *uuid.UUID, limit int) ([]model.InventoryJob, error) {
	q := r.db.WithContext(ctx).
		Where("status = ? OR (status = ? AND next_attempt_at IS NOT NULL AND next_attempt_at <= ?)",
			model.JobPending, model.JobFailed, time.Now())
	if pedidoID != nil {
		q = q.Where("pedido_id = ?", *pedidoID)
	}

	var jobs []model.InventoryJob
	err := q.Order("created_at ASC").Limit(limit).Find(&jobs).Error
	return jobs, err
}

func (r *inventoryJobRepo) Claim(ctx context.Context, job *model.InventoryJob) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.InventoryJob{}).
		Where("id = ? AND status = ?", job.ID, job.Status).
		Updates(map[string]interface{}{
			"status":   model.JobProcessing,
			"attempts": gorm.Expr("attempts + 1"),
		})
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		return false, nil
	}
	job.Status = model.JobProcessing
	job.Attempts++
	return true, nil
}

func (r *inventoryJobRepo) Update(ctx context.Context, job *model.InventoryJob) error {
	return r.db.WithContext(ctx).Save(job).Error
}
