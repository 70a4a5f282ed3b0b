package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"lojahub/internal/dto"
	"lojahub/internal/model"
	"lojahub/internal/repository"
	"lojahub/internal/worker"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// VinculoService binds marketplace line items to catalog products and drives
// the order toward "pronto_para_emitir". Linking is the trigger for the stock
// reservation: an immediate attempt on the request path, with a durable
// inventory job as the fallback so a failed reservation is retried by the
// worker instead of being lost.
type VinculoService interface {
	VincularItem(ctx context.Context, req dto.VincularItemRequest) (*dto.VincularItemResponse, error)
}

type vinculoService struct {
	pedidoRepo  repository.PedidoRepository
	produtoRepo repository.ProdutoRepository
	jobRepo     repository.InventoryJobRepository
	estoque     EstoqueService
	dispatcher  *worker.Dispatcher
}

func NewVinculoService(
	pedidoRepo repository.PedidoRepository,
	produtoRepo repository.ProdutoRepository,
	jobRepo repository.InventoryJobRepository,
	estoque EstoqueService,
	dispatcher *worker.Dispatcher,
) VinculoService {
	return &vinculoService{
		pedidoRepo:  pedidoRepo,
		produtoRepo: produtoRepo,
		jobRepo:     jobRepo,
		estoque:     estoque,
		dispatcher:  dispatcher,
	}
}

func (s *vinculoService) VincularItem(ctx context.Context, req dto.VincularItemRequest) (*dto.VincularItemResponse, error) {
	pedidoID, err := uuid.Parse(req.PedidoID)
	if err != nil {
		return nil, fmt.Errorf("order_id inválido: %w", err)
	}
	produtoID, err := uuid.Parse(req.ProdutoID)
	if err != nil {
		return nil, fmt.Errorf("product_id inválido: %w", err)
	}

	pedido, err := s.pedidoRepo.FindByID(ctx, pedidoID)
	if err != nil {
		return nil, fmt.Errorf("pedido não encontrado: %w", err)
	}

	item, err := s.localizarItem(ctx, pedido, req)
	if err != nil {
		return nil, err
	}

	produto, err := s.produtoRepo.FindByID(ctx, produtoID)
	if err != nil {
		return nil, s.recuperar(ctx, pedido, fmt.Errorf("produto não encontrado: %w", err))
	}
	if produto.OrganizationID != pedido.OrganizationID {
		return nil, errors.New("produto não pertence à organização do pedido")
	}

	// From the dead-stock card the operator is linking a product that sales
	// believe has no movement — verify there is actually balance to reserve
	// before committing the link.
	if req.SourceCard == "nao_vinculados" {
		disponivel, err := s.estoque.DisponibilidadeTotal(ctx, pedido.OrganizationID, produto.ID)
		if err != nil {
			return nil, s.recuperar(ctx, pedido, err)
		}
		necessario := decimal.NewFromInt(int64(item.Quantidade))
		if disponivel.LessThan(necessario) {
			return nil, s.recuperar(ctx, pedido, fmt.Errorf(
				"estoque insuficiente para %s: disponível %s, necessário %s",
				produto.SKU, disponivel.String(), necessario.String()))
		}
	}

	if err := s.pedidoRepo.VincularItem(ctx, item.ID, produto.ID); err != nil {
		return nil, s.recuperar(ctx, pedido, err)
	}

	// Persist the SKU→produto mapping so future orders resolve automatically.
	if item.SKU != nil && *item.SKU != "" {
		v := &model.VinculoProduto{
			OrganizationID: pedido.OrganizationID,
			Marketplace:    pedido.Marketplace,
			SKU:            *item.SKU,
			ProdutoID:      produto.ID,
		}
		if err := s.produtoRepo.UpsertVinculo(ctx, v); err != nil {
			return nil, s.recuperar(ctx, pedido, err)
		}
	}

	hasUnlinked, err := s.pedidoRepo.RecomputarVinculo(ctx, pedido.ID)
	if err != nil {
		return nil, s.recuperar(ctx, pedido, err)
	}
	if !hasUnlinked {
		if err := s.pedidoRepo.UpdateStatus(ctx, pedido.ID, "pronto_para_emitir"); err != nil {
			log.Error().Err(err).Str("pedido_id", pedido.ID.String()).Msg("vinculo: falha ao atualizar status do pedido")
		}
	}

	s.agendarReserva(ctx, pedido, hasUnlinked)

	// Marketplace-side reconciliation is fire-and-forget.
	if s.dispatcher != nil {
		if err := s.dispatcher.EnqueueReconciliacao(ctx, worker.ReconciliacaoPayload{
			PedidoID:           pedido.ID.String(),
			Marketplace:        pedido.Marketplace,
			MarketplaceOrderID: pedido.MarketplaceOrderID,
		}); err != nil {
			log.Warn().Err(err).Str("pedido_id", pedido.ID.String()).Msg("vinculo: falha ao enfileirar reconciliação")
		}
	}

	resp := &dto.VincularItemResponse{
		OK:       true,
		PedidoID: pedido.ID.String(),
		Item: dto.ItemVinculadoResponse{
			ItemID:    item.ID.String(),
			SKU:       item.SKU,
			Titulo:    item.Titulo,
			ProdutoID: produto.ID.String(),
		},
		HasUnlinkedItems: hasUnlinked,
	}
	return resp, nil
}

func (s *vinculoService) localizarItem(ctx context.Context, pedido *model.Pedido, req dto.VincularItemRequest) (*model.PedidoItem, error) {
	if req.ItemRowID != nil && *req.ItemRowID != "" {
		itemID, err := uuid.Parse(*req.ItemRowID)
		if err != nil {
			return nil, fmt.Errorf("item_row_id inválido: %w", err)
		}
		item, err := s.pedidoRepo.FindItemByID(ctx, pedido.ID, itemID)
		if err != nil {
			return nil, fmt.Errorf("item não encontrado no pedido: %w", err)
		}
		return item, nil
	}
	if req.ExternalItemID != nil && *req.ExternalItemID != "" {
		item, err := s.pedidoRepo.FindItemByExternalID(ctx, pedido.ID, *req.ExternalItemID)
		if err != nil {
			return nil, fmt.Errorf("item externo %s não encontrado no pedido: %w", *req.ExternalItemID, err)
		}
		return item, nil
	}
	return nil, errors.New("informe item_row_id ou external_item_id")
}

// agendarReserva persists the reserve job and, when the order is fully
// linked, attempts the reservation inline so the common case never waits for
// the worker. The job row is the durable record either way: marked done on
// inline success, left pending for the worker otherwise.
func (s *vinculoService) agendarReserva(ctx context.Context, pedido *model.Pedido, hasUnlinked bool) {
	job := &model.InventoryJob{
		OrganizationID: pedido.OrganizationID,
		PedidoID:       pedido.ID,
		Tipo:           model.JobReserve,
		Status:         model.JobPending,
	}
	if err := s.jobRepo.Upsert(ctx, job); err != nil {
		log.Error().Err(err).Str("pedido_id", pedido.ID.String()).Msg("vinculo: falha ao registrar job de reserva")
		return
	}
	if hasUnlinked {
		// Still-unlinked siblings: the worker retries once linking completes.
		return
	}

	if err := s.estoque.Reservar(ctx, pedido.ID); err != nil {
		log.Warn().Err(err).Str("pedido_id", pedido.ID.String()).Msg("vinculo: reserva imediata falhou, worker fará retry")
		return
	}
	job.Status = model.JobDone
	if err := s.jobRepo.Upsert(ctx, job); err != nil {
		log.Error().Err(err).Str("pedido_id", pedido.ID.String()).Msg("vinculo: falha ao marcar job de reserva como concluído")
	}
}

// recuperar records a failed link attempt so the order stays recoverable:
// the unlinked flag is re-raised and a failed reserve job with a near-term
// retry window keeps the worker watching the order.
func (s *vinculoService) recuperar(ctx context.Context, pedido *model.Pedido, cause error) error {
	if err := s.pedidoRepo.SetHasUnlinkedItems(ctx, pedido.ID, true); err != nil {
		log.Error().Err(err).Str("pedido_id", pedido.ID.String()).Msg("vinculo: falha ao restaurar flag de vínculo")
	}

	msg := cause.Error()
	next := time.Now().Add(worker.BackoffDelay(1))
	job := &model.InventoryJob{
		OrganizationID: pedido.OrganizationID,
		PedidoID:       pedido.ID,
		Tipo:           model.JobReserve,
		Status:         model.JobFailed,
		LastError:      &msg,
		NextAttemptAt:  &next,
	}
	if err := s.jobRepo.Upsert(ctx, job); err != nil {
		log.Error().Err(err).Str("pedido_id", pedido.ID.String()).Msg("vinculo: falha ao registrar job de recuperação")
	}
	return cause
}
