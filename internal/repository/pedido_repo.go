package repository

import (
	"context"
	"errors"

	"lojahub/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PedidoRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.Pedido, error)
	FindItemByID(ctx context.Context, pedidoID, itemID uuid.UUID) (*model.PedidoItem, error)
	FindItemByExternalID(ctx context.Context, pedidoID uuid.UUID, externalID string) (*model.PedidoItem, error)
	VincularItem(ctx context.Context, itemID, produtoID uuid.UUID) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
	SetHasUnlinkedItems(ctx context.Context, id uuid.UUID, v bool) error
	// RecomputarVinculo re-derives has_unlinked_items from the order's items
	// and persists it. Returns the new aggregate value.
	RecomputarVinculo(ctx context.Context, id uuid.UUID) (bool, error)
}

type pedidoRepo struct{ db *gorm.DB }

func NewPedidoRepository(db *gorm.DB) PedidoRepository { return &pedidoRepo{db: db} }

func (r *pedidoRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Pedido, error) {
	var p model.Pedido
	err := r.db.WithContext(ctx).Preload("Items.Produto").First(&p, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *pedidoRepo) FindItemByID(ctx context.Context, pedidoID, itemID uuid.UUID) (*model.PedidoItem, error) {
	var item model.PedidoItem
	err := r.db.WithContext(ctx).
		Where("id = ? AND pedido_id = ?", itemID, pedidoID).
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *pedidoRepo) FindItemByExternalID(ctx context.Context, pedidoID uuid.UUID, externalID string) (*model.PedidoItem, error) {
	var item model.PedidoItem
	err := r.db.WithContext(ctx).
		Where("pedido_id = ? AND external_item_id = ?", pedidoID, externalID).
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *pedidoRepo) VincularItem(ctx context.Context, itemID, produtoID uuid.UUID) error {
	res := r.db.WithContext(ctx).Model(&model.PedidoItem{}).
		Where("id = ?", itemID).
		Update("produto_id", produtoID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errors.New("item não encontrado")
	}
	return nil
}

func (r *pedidoRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	return r.db.WithContext(ctx).Model(&model.Pedido{}).
		Where("id = ?", id).
		Update("status", status).Error
}

func (r *pedidoRepo) SetHasUnlinkedItems(ctx context.Context, id uuid.UUID, v bool) error {
	return r.db.WithContext(ctx).Model(&model.Pedido{}).
		Where("id = ?", id).
		Update("has_unlinked_items", v).Error
}

func (r *pedidoRepo) RecomputarVinculo(ctx context.Context, id uuid.UUID) (bool, error) {
	var pendentes int64
	err := r.db.WithContext(ctx).Model(&model.PedidoItem{}).
		Where("pedido_id = ? AND produto_id IS NULL", id).
		Count(&pendentes).Error
	if err != nil {
		return true, err
	}
	has := pendentes > 0
	if err := r.SetHasUnlinkedItems(ctx, id, has); err != nil {
		return true, err
	}
	return has, nil
}
