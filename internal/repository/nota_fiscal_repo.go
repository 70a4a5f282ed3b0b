package repository

import (
	"context"
	"errors"
	"fmt"

	"lojahub/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Reservation failures the emission service maps onto its per-order taxonomy.
var (
	// ErrPedidoJaEmitido: an authorized document already exists for this
	// (empresa, pedido, ambiente) — no silent re-emission.
	ErrPedidoJaEmitido = errors.New("pedido já possui NFe autorizada")
	// ErrNotaDenegada: denied documents must never be resubmitted.
	ErrNotaDenegada = errors.New("pedido possui NFe denegada — reemissão não permitida")
)

// ReservaNumeroParams describes one atomic number reservation.
type ReservaNumeroParams struct {
	OrganizationID uuid.UUID
	EmpresaID      uuid.UUID
	PedidoID       uuid.UUID
	Marketplace    string
	Ambiente       string
	Serie          string
	Referencia     string
	// ForcarNovoNumero bumps a pending draft to a fresh number instead of
	// reusing its reservation (hard retry after a rejection-style failure).
	ForcarNovoNumero bool
}

type NotaFiscalRepository interface {
	// ReservarNumero atomically reserves the next invoice number for the
	// given company+series+environment and persists the draft row with
	// status "pendente" — all inside one transaction, before any gateway
	// contact. See the method doc on notaFiscalRepo for the exact rules.
	ReservarNumero(ctx context.Context, p ReservaNumeroParams) (*model.NotaFiscal, error)
	FindUltimaByPedido(ctx context.Context, empresaID, pedidoID uuid.UUID, ambiente string) (*model.NotaFiscal, error)
	FindByReferencia(ctx context.Context, referencia string) (*model.NotaFiscal, error)
	ListByPedido(ctx context.Context, pedidoID uuid.UUID) ([]model.NotaFiscal, error)
	Update(ctx context.Context, n *model.NotaFiscal) error
}

type notaFiscalRepo struct{ db *gorm.DB }

func NewNotaFiscalRepository(db *gorm.DB) NotaFiscalRepository {
	return &notaFiscalRepo{db: db}
}

// ReservarNumero implements the numbering invariant:
//
//  1. The company row is locked FOR UPDATE, serializing all reservations for
//     the same company across concurrent requests.
//  2. An existing non-terminal draft for (empresa, pedido, ambiente) is
//     reused as-is unless ForcarNovoNumero is set (idempotent retry).
//  3. An authorized document rejects the call with ErrPedidoJaEmitido; a
//     denied one with ErrNotaDenegada.
//  4. The candidate number is MAX(numero)+1 over live documents (pendente or
//     autorizado) for the company+series+environment; with no history the
//     company's proxima_nfe hint is used (minimum 1). Numbers held by
//     rejected/cancelled/denied attempts are naturally reusable because they
//     drop out of the MAX. Including pendente rows in the MAX keeps two
//     concurrent orders from being handed the same number while the first is
//     still in flight.
//  5. The draft is persisted with the chosen number before the gateway call,
//     so a crash between reservation and submission leaves a recoverable
//     trace rather than a lost number.
func (r *notaFiscalRepo) ReservarNumero(ctx context.Context, p ReservaNumeroParams) (*model.NotaFiscal, error) {
	var nota *model.NotaFiscal

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var emp model.Empresa
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&emp, "id = ?", p.EmpresaID).Error; err != nil {
			return fmt.Errorf("empresa não encontrada: %w", err)
		}

		var existente model.NotaFiscal
		err := tx.Where("empresa_id = ? AND pedido_id = ? AND ambiente = ?",
			p.EmpresaID, p.PedidoID, p.Ambiente).
			Order("created_at DESC").
			First(&existente).Error
		temExistente := err == nil
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		if temExistente {
			switch existente.Status {
			case model.NotaAutorizada:
				return ErrPedidoJaEmitido
			case model.NotaDenegada:
				return ErrNotaDenegada
			case model.NotaPendente:
				if !p.ForcarNovoNumero {
					// Idempotent retry: reuse the reserved number. The
					// reference may have been re-salted by the caller.
					existente.Referencia = p.Referencia
					if err := tx.Save(&existente).Error; err != nil {
						return err
					}
					nota = &existente
					return nil
				}
			}
		}

		proximo, err := proximoNumero(tx, p.EmpresaID, p.Serie, p.Ambiente, emp.ProximaNFe)
		if err != nil {
			return err
		}

		if temExistente && existente.Status == model.NotaPendente && p.ForcarNovoNumero {
			// Hard retry on the same attempt row: bump to a fresh number.
			existente.Numero = proximo
			existente.Serie = p.Serie
			existente.Referencia = p.Referencia
			if err := tx.Save(&existente).Error; err != nil {
				return err
			}
			nota = &existente
			return nil
		}

		// New attempt row (first emission, or prior attempt was
		// rejected/cancelled — those rows stay behind as audit trail).
		nova := model.NotaFiscal{
			OrganizationID: p.OrganizationID,
			EmpresaID:      p.EmpresaID,
			PedidoID:       p.PedidoID,
			Marketplace:    p.Marketplace,
			Ambiente:       p.Ambiente,
			Numero:         proximo,
			Serie:          p.Serie,
			Referencia:     p.Referencia,
			Status:         model.NotaPendente,
		}
		if err := tx.Create(&nova).Error; err != nil {
			return err
		}
		nota = &nova
		return nil
	})
	if err != nil {
		return nil, err
	}
	return nota, nil
}

// proximoNumero derives the authoritative next number inside the reservation
// transaction. The stored proxima_nfe counter is advisory only: concurrent
// writers or manual edits can desynchronize it, so truth comes from history.
func proximoNumero(tx *gorm.DB, empresaID uuid.UUID, serie, ambiente string, hint int64) (int64, error) {
	var max *int64
	err := tx.Model(&model.NotaFiscal{}).
		Where("empresa_id = ? AND serie = ? AND ambiente = ? AND status IN ?",
			empresaID, serie, ambiente, []string{model.NotaPendente, model.NotaAutorizada}).
		Select("MAX(numero)").
		Scan(&max).Error
	if err != nil {
		return 0, err
	}
	if max != nil {
		return *max + 1, nil
	}
	if hint > 0 {
		return hint, nil
	}
	return 1, nil
}

func (r *notaFiscalRepo) FindUltimaByPedido(ctx context.Context, empresaID, pedidoID uuid.UUID, ambiente string) (*model.NotaFiscal, error) {
	var n model.NotaFiscal
	err := r.db.WithContext(ctx).
		Where("empresa_id = ? AND pedido_id = ? AND ambiente = ?", empresaID, pedidoID, ambiente).
		Order("created_at DESC").
		First(&n).Error
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func (r *notaFiscalRepo) FindByReferencia(ctx context.Context, referencia string) (*model.NotaFiscal, error) {
	var n model.NotaFiscal
	err := r.db.WithContext(ctx).Where("referencia = ?", referencia).First(&n).Error
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func (r *notaFiscalRepo) ListByPedido(ctx context.Context, pedidoID uuid.UUID) ([]model.NotaFiscal, error) {
	var notas []model.NotaFiscal
	err := r.db.WithContext(ctx).
		Where("pedido_id = ?", pedidoID).
		Order("created_at DESC").
		Find(&notas).Error
	return notas, err
}

func (r *notaFiscalRepo) Update(ctx context.Context, n *model.NotaFiscal) error {
	return r.db.WithContext(ctx).Save(n).Error
}
