package repository

import (
	"context"
	"errors"
	"fmt"

	"lojahub/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrEstoqueInsuficiente is returned when a reserve/consume would drive the
// balance negative; the guarded UPDATE affects zero rows in that case.
var ErrEstoqueInsuficiente = errors.New("estoque insuficiente")

type EstoqueRepository interface {
	DepositoPadrao(ctx context.Context, organizationID uuid.UUID) (*model.Deposito, error)
	// DisponibilidadeTotal sums the available balance of a product across all
	// of the organization's locations (the dead-stock check of the linker).
	DisponibilidadeTotal(ctx context.Context, organizationID, produtoID uuid.UUID) (decimal.Decimal, error)
	Reservar(ctx context.Context, depositoID, produtoID, pedidoID uuid.UUID, qtd decimal.Decimal) error
	Consumir(ctx context.Context, depositoID, produtoID, pedidoID uuid.UUID, qtd decimal.Decimal) error
	Estornar(ctx context.Context, depositoID, produtoID, pedidoID uuid.UUID, qtd decimal.Decimal) error
}

type estoqueRepo struct{ db *gorm.DB }

func NewEstoqueRepository(db *gorm.DB) EstoqueRepository { return &estoqueRepo{db: db} }

func (r *estoqueRepo) DepositoPadrao(ctx context.Context, organizationID uuid.UUID) (*model.Deposito, error) {
	var d model.Deposito
	err := r.db.WithContext(ctx).
		Where("organization_id = ? AND padrao", organizationID).
		First(&d).Error
	if err != nil {
		return nil, fmt.Errorf("depósito padrão não configurado: %w", err)
	}
	return &d, nil
}

func (r *estoqueRepo) DisponibilidadeTotal(ctx context.Context, organizationID, produtoID uuid.UUID) (decimal.Decimal, error) {
	var total decimal.NullDecimal
	err := r.db.WithContext(ctx).Model(&model.EstoqueSaldo{}).
		Joins("JOIN depositos ON depositos.id = estoque_saldos.deposito_id").
		Where("depositos.organization_id = ? AND estoque_saldos.produto_id = ?", organizationID, produtoID).
		Select("SUM(estoque_saldos.disponivel)").
		Scan(&total).Error
	if err != nil {
		return decimal.Zero, err
	}
	if !total.Valid {
		return decimal.Zero, nil
	}
	return total.Decimal, nil
}

// Reservar moves quantity from disponivel to reservado. The guarded UPDATE
// is the concurrency control: no read-modify-write from the caller.
func (r *estoqueRepo) Reservar(ctx context.Context, depositoID, produtoID, pedidoID uuid.UUID, qtd decimal.Decimal) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		aplicado, err := registrarMovimento(tx, depositoID, produtoID, pedidoID, "reserva", qtd)
		if err != nil || !aplicado {
			return err
		}
		res := tx.Model(&model.EstoqueSaldo{}).
			Where("deposito_id = ? AND produto_id = ? AND disponivel >= ?", depositoID, produtoID, qtd).
			Updates(map[string]interface{}{
				"disponivel": gorm.Expr("disponivel - ?", qtd),
				"reservado":  gorm.Expr("reservado + ?", qtd),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrEstoqueInsuficiente
		}
		return nil
	})
}

// Consumir drops a previously reserved quantity (shipment confirmed).
func (r *estoqueRepo) Consumir(ctx context.Context, depositoID, produtoID, pedidoID uuid.UUID, qtd decimal.Decimal) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		aplicado, err := registrarMovimento(tx, depositoID, produtoID, pedidoID, "consumo", qtd)
		if err != nil || !aplicado {
			return err
		}
		res := tx.Model(&model.EstoqueSaldo{}).
			Where("deposito_id = ? AND produto_id = ? AND reservado >= ?", depositoID, produtoID, qtd).
			Update("reservado", gorm.Expr("reservado - ?", qtd))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrEstoqueInsuficiente
		}
		return nil
	})
}

// Estornar returns a reserved quantity to the available balance (order
// cancelled or emission permanently failed).
func (r *estoqueRepo) Estornar(ctx context.Context, depositoID, produtoID, pedidoID uuid.UUID, qtd decimal.Decimal) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		aplicado, err := registrarMovimento(tx, depositoID, produtoID, pedidoID, "estorno", qtd)
		if err != nil || !aplicado {
			return err
		}
		res := tx.Model(&model.EstoqueSaldo{}).
			Where("deposito_id = ? AND produto_id = ? AND reservado >= ?", depositoID, produtoID, qtd).
			Updates(map[string]interface{}{
				"disponivel": gorm.Expr("disponivel + ?", qtd),
				"reservado":  gorm.Expr("reservado - ?", qtd),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrEstoqueInsuficiente
		}
		return nil
	})
}

// registrarMovimento inserts the movement row first, inside the same
// transaction as the balance UPDATE. The unique index on
// (pedido, produto, tipo) makes the insert the idempotency gate: a conflict
// means this mutation already applied (a retried job, or a worker racing the
// inline reservation) and the balance must not move again. When the balance
// UPDATE fails afterwards the rollback also discards the movement row, so a
// genuine failure stays retryable.
func registrarMovimento(tx *gorm.DB, depositoID, produtoID, pedidoID uuid.UUID, tipo string, qtd decimal.Decimal) (bool, error) {
	res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&model.MovimentoEstoque{
		DepositoID: depositoID,
		ProdutoID:  produtoID,
		PedidoID:   pedidoID,
		Tipo:       tipo,
		Quantidade: qtd,
	})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
