package repository

import (
	"context"

	"lojahub/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProdutoRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.Produto, error)
	FindBySKU(ctx context.Context, organizationID uuid.UUID, sku string) (*model.Produto, error)
	FindVinculo(ctx context.Context, organizationID uuid.UUID, marketplace, sku string) (*model.VinculoProduto, error)
	UpsertVinculo(ctx context.Context, v *model.VinculoProduto) error
}

type produtoRepo struct{ db *gorm.DB }

func NewProdutoRepository(db *gorm.DB) ProdutoRepository { return &produtoRepo{db: db} }

func (r *produtoRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Produto, error) {
	var p model.Produto
	err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *produtoRepo) FindBySKU(ctx context.Context, organizationID uuid.UUID, sku string) (*model.Produto, error) {
	var p model.Produto
	err := r.db.WithContext(ctx).
		Where("organization_id = ? AND sku = ? AND ativo", organizationID, sku).
		First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *produtoRepo) FindVinculo(ctx context.Context, organizationID uuid.UUID, marketplace, sku string) (*model.VinculoProduto, error) {
	var v model.VinculoProduto
	err := r.db.WithContext(ctx).
		Where("organization_id = ? AND marketplace = ? AND sku = ?", organizationID, marketplace, sku).
		First(&v).Error
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *produtoRepo) UpsertVinculo(ctx context.Context, v *model.VinculoProduto) error {
	// Conflict target matches idx_vinculo_sku: the mapping is per tenant, so
	// another organization's identical marketplace SKU is never overwritten.
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "organization_id"}, {Name: "marketplace"}, {Name: "sku"}},
		DoUpdates: clause.AssignmentColumns([]string{"produto_id", "updated_at"}),
	}).Create(v).Error
}
