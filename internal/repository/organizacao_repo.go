package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OrganizacaoRepository is the membership-check boundary. The members table
// itself is owned by the auth layer; the emission core only asks whether a
// user belongs to the organization it is emitting for.
type OrganizacaoRepository interface {
	IsMember(ctx context.Context, organizationID, userID uuid.UUID) (bool, error)
}

type organizacaoRepo struct{ db *gorm.DB }

func NewOrganizacaoRepository(db *gorm.DB) OrganizacaoRepository {
	return &organizacaoRepo{db: db}
}

func (r *organizacaoRepo) IsMember(ctx context.Context, organizationID, userID uuid.UUID) (bool, error) {
	var ok bool
	err := r.db.WithContext(ctx).
		Raw("SELECT EXISTS (SELECT 1 FROM organization_members WHERE organization_id = ? AND user_id = ?)",
			organizationID, userID).
		Scan(&ok).Error
	return ok, err
}
