package model

import (
	"time"

	"github.com/google/uuid"
)

// Inventory job types and statuses.
const (
	JobReserve = "reserve"
	JobConsume = "consume"
	JobRefund  = "refund"

	JobPending    = "pending"
	JobProcessing = "processing"
	JobDone       = "done"
	JobFailed     = "failed"
)

// InventoryJob is a queued inventory mutation keyed by order, decoupled from
// the request path. A job is claimable when status = pending, or status =
// failed with NextAttemptAt elapsed; the claim itself is a conditional update
// guarded by the previously-read status so concurrent workers cannot both
// win it.
type InventoryJob struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	OrganizationID uuid.UUID `gorm:"type:uuid;index;not null"`
	PedidoID       uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_job_pedido_tipo;not null"`
	Tipo           string    `gorm:"type:varchar(10);uniqueIndex:idx_job_pedido_tipo;not null"`
	Status         string    `gorm:"type:varchar(12);index;not null;default:'pending'"`

	Attempts      int        `gorm:"not null;default:0"`
	NextAttemptAt *time.Time `gorm:"index"`
	LastError     *string    `gorm:"type:text"`
	CorrelationID uuid.UUID  `gorm:"type:uuid;not null"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (InventoryJob) TableName() string { return "inventory_jobs" }
