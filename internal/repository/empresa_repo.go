package repository

import (
	"context"

	"lojahub/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type EmpresaRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.Empresa, error)
	// AvancarProximaNFe advances the advisory next-number hint after an
	// authorization. Guarded so a late writer never moves the hint backwards.
	AvancarProximaNFe(ctx context.Context, id uuid.UUID, proxima int64) error
}

type empresaRepo struct{ db *gorm.DB }

func NewEmpresaRepository(db *gorm.DB) EmpresaRepository { return &empresaRepo{db: db} }

func (r *empresaRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Empresa, error) {
	var e model.Empresa
	err := r.db.WithContext(ctx).First(&e, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *empresaRepo) AvancarProximaNFe(ctx context.Context, id uuid.UUID, proxima int64) error {
	return r.db.WithContext(ctx).Model(&model.Empresa{}).
		Where("id = ? AND proxima_nfe < ?", id, proxima).
		Update("proxima_nfe", proxima).Error
}
