package repository

import (
	"context"

	"lojahub/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CenarioFiscalRepository interface {
	FindCenario(ctx context.Context, empresaID uuid.UUID, tipoPessoa string, dentroEstado bool) (*model.CenarioFiscal, error)
}

type cenarioFiscalRepo struct{ db *gorm.DB }

func NewCenarioFiscalRepository(db *gorm.DB) CenarioFiscalRepository {
	return &cenarioFiscalRepo{db: db}
}

func (r *cenarioFiscalRepo) FindCenario(ctx context.Context, empresaID uuid.UUID, tipoPessoa string, dentroEstado bool) (*model.CenarioFiscal, error) {
	var c model.CenarioFiscal
	err := r.db.WithContext(ctx).
		Where("empresa_id = ? AND tipo_pessoa = ? AND dentro_estado = ?", empresaID, tipoPessoa, dentroEstado).
		First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}
