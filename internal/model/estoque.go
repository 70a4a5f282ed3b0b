package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Deposito is a stock location. Each organization has exactly one default
// location (Padrao = true) which inventory jobs resolve against.
type Deposito struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	OrganizationID uuid.UUID `gorm:"type:uuid;index;not null"`
	Nome           string    `gorm:"type:varchar(60);not null"`
	Padrao         bool      `gorm:"not null;default:false"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Deposito) TableName() string { return "depositos" }

// EstoqueSaldo tracks per-location availability for a product.
// Disponivel excludes Reservado: reserving moves quantity from Disponivel to
// Reservado, consuming drops it from Reservado, refunding moves it back.
type EstoqueSaldo struct {
	ID         uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	DepositoID uuid.UUID       `gorm:"type:uuid;uniqueIndex:idx_saldo_dep_prod;not null"`
	ProdutoID  uuid.UUID       `gorm:"type:uuid;uniqueIndex:idx_saldo_dep_prod;not null"`
	Disponivel decimal.Decimal `gorm:"type:decimal(12,3);not null;default:0"`
	Reservado  decimal.Decimal `gorm:"type:decimal(12,3);not null;default:0"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (EstoqueSaldo) TableName() string { return "estoque_saldos" }

// MovimentoEstoque records every inventory mutation performed by the job
// worker, keyed by order for reconciliation. The unique index doubles as the
// idempotency record: a mutation applies at most once per
// (pedido, produto, tipo), so a job retry replays already-applied items as
// no-ops instead of moving the balance twice.
// Tipo: "reserva" | "consumo" | "estorno"
type MovimentoEstoque struct {
	ID         uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	DepositoID uuid.UUID       `gorm:"type:uuid;index;not null"`
	ProdutoID  uuid.UUID       `gorm:"type:uuid;uniqueIndex:idx_movimento_unico;not null"`
	PedidoID   uuid.UUID       `gorm:"type:uuid;uniqueIndex:idx_movimento_unico;not null"`
	Tipo       string          `gorm:"type:varchar(10);uniqueIndex:idx_movimento_unico;not null"`
	Quantidade decimal.Decimal `gorm:"type:decimal(12,3);not null"`

	CreatedAt time.Time
}

func (MovimentoEstoque) TableName() string { return "movimentos_estoque" }
