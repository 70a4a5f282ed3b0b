package model

import (
	"time"

	"github.com/google/uuid"
)

// Produto is an internal catalog product carrying the fiscal attributes the
// emission core validates. NCM and Origem are nullable on purpose: their
// absence must surface as a per-item validation failure, never as a default.
type Produto struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	OrganizationID uuid.UUID `gorm:"type:uuid;index;not null"`
	Nome           string    `gorm:"type:varchar(200);not null"`
	SKU            string    `gorm:"type:varchar(60);index;not null;column:sku"`
	// NCM: Mercosul tariff code (8 digits).
	NCM *string `gorm:"type:varchar(8);column:ncm"`
	// Origem: ICMS origin code (0-8).
	Origem       *string `gorm:"type:varchar(1)"`
	CEST         *string `gorm:"type:varchar(7);column:cest"`
	CodigoBarras *string `gorm:"type:varchar(14)"`
	Ativo        bool    `gorm:"not null;default:true"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Produto) TableName() string { return "produtos" }

// VinculoProduto binds a marketplace SKU to an internal product. It is the
// first lookup of the item resolution chain and is upserted by the item
// linker so future orders carrying the same SKU resolve automatically.
// The unique index is tenant-scoped: two organizations selling the same
// marketplace SKU hold independent mappings.
type VinculoProduto struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	OrganizationID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_vinculo_sku"`
	Marketplace    string    `gorm:"type:varchar(20);not null;uniqueIndex:idx_vinculo_sku"`
	SKU            string    `gorm:"type:varchar(60);not null;uniqueIndex:idx_vinculo_sku;column:sku"`
	ProdutoID      uuid.UUID `gorm:"type:uuid;index;not null"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (VinculoProduto) TableName() string { return "vinculos_produto" }
