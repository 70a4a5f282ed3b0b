package service

import (
	"context"
	"fmt"

	"lojahub/internal/repository"
	"lojahub/internal/worker"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// EstoqueService applies order-level stock mutations against the
// organization's default location. It is the executor behind the inventory
// job worker and the availability source for the item linker.
type EstoqueService interface {
	worker.EstoqueExecutor
	DisponibilidadeTotal(ctx context.Context, organizationID, produtoID uuid.UUID) (decimal.Decimal, error)
}

type estoqueService struct {
	pedidoRepo  repository.PedidoRepository
	estoqueRepo repository.EstoqueRepository
}

func NewEstoqueService(pedidoRepo repository.PedidoRepository, estoqueRepo repository.EstoqueRepository) EstoqueService {
	return &estoqueService{pedidoRepo: pedidoRepo, estoqueRepo: estoqueRepo}
}

func (s *estoqueService) Reservar(ctx context.Context, pedidoID uuid.UUID) error {
	return s.aplicar(ctx, pedidoID, "reserva", s.estoqueRepo.Reservar)
}

func (s *estoqueService) Consumir(ctx context.Context, pedidoID uuid.UUID) error {
	return s.aplicar(ctx, pedidoID, "consumo", s.estoqueRepo.Consumir)
}

func (s *estoqueService) Estornar(ctx context.Context, pedidoID uuid.UUID) error {
	return s.aplicar(ctx, pedidoID, "estorno", s.estoqueRepo.Estornar)
}

func (s *estoqueService) DisponibilidadeTotal(ctx context.Context, organizationID, produtoID uuid.UUID) (decimal.Decimal, error) {
	return s.estoqueRepo.DisponibilidadeTotal(ctx, organizationID, produtoID)
}

type mutacaoEstoque func(ctx context.Context, depositoID, produtoID, pedidoID uuid.UUID, qtd decimal.Decimal) error

// aplicar runs one mutation per linked line item. An unlinked item fails the
// whole job: the worker reschedules it and it succeeds once the operator
// finishes linking. Item mutations are individually transactional, so a
// mid-order failure leaves the earlier items applied; the retry replays them
// as no-ops because each mutation is idempotent per (pedido, produto, tipo)
// via the movement record, and only the items that never applied move the
// balance.
func (s *estoqueService) aplicar(ctx context.Context, pedidoID uuid.UUID, tipo string, fn mutacaoEstoque) error {
	pedido, err := s.pedidoRepo.FindByID(ctx, pedidoID)
	if err != nil {
		return fmt.Errorf("pedido %s não encontrado: %w", pedidoID, err)
	}

	deposito, err := s.estoqueRepo.DepositoPadrao(ctx, pedido.OrganizationID)
	if err != nil {
		return err
	}

	for i := range pedido.Items {
		item := &pedido.Items[i]
		if item.ProdutoID == nil {
			return fmt.Errorf("%s bloqueado: item %s sem produto vinculado", tipo, item.Titulo)
		}
		qtd := decimal.NewFromInt(int64(item.Quantidade))
		if err := fn(ctx, deposito.ID, *item.ProdutoID, pedido.ID, qtd); err != nil {
			return fmt.Errorf("%s do item %s falhou: %w", tipo, item.Titulo, err)
		}
		log.Debug().
			Str("pedido_id", pedido.ID.String()).
			Str("produto_id", item.ProdutoID.String()).
			Str("tipo", tipo).
			Str("quantidade", qtd.String()).
			Msg("estoque: movimento aplicado")
	}
	return nil
}
