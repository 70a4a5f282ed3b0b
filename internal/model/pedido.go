package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Pedido is an order synced from a marketplace.
// Marketplace: "mercado_livre" | "shopee"
// Status workflow: "aguardando_vinculo" → "pronto_para_emitir" →
// "nfe_emitida" | "erro_emissao" (plus marketplace-side states the sync
// functions manage; the emission core only drives the three above).
type Pedido struct {
	ID                 uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	OrganizationID     uuid.UUID `gorm:"type:uuid;index;not null"`
	EmpresaID          uuid.UUID `gorm:"type:uuid;index;not null"`
	Marketplace        string    `gorm:"type:varchar(20);not null"`
	MarketplaceOrderID string    `gorm:"type:varchar(60);index;not null"`
	// PackID groups multi-item shipments on the marketplace side; when present
	// it keys the idempotency reference instead of the order id.
	PackID *string `gorm:"type:varchar(60);index"`

	Status           string `gorm:"type:varchar(30);not null;default:'aguardando_vinculo'"`
	HasUnlinkedItems bool   `gorm:"not null;default:true"`

	// Destinatário — customer fields copied from the marketplace order.
	ClienteNome      string  `gorm:"type:varchar(120)"`
	ClienteDocumento *string `gorm:"type:varchar(14)"` // CPF (11) or CNPJ (14), digits only
	Logradouro       string  `gorm:"type:varchar(120)"`
	NumeroEndereco   string  `gorm:"type:varchar(20)"`
	Bairro           string  `gorm:"type:varchar(60)"`
	Municipio        string  `gorm:"type:varchar(60)"`
	CodigoMunicipio  *string `gorm:"type:varchar(7)"`
	UF               string  `gorm:"type:varchar(2);column:uf"`
	CEP              string  `gorm:"type:varchar(8);column:cep"`

	Total decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`

	Items []PedidoItem `gorm:"foreignKey:PedidoID"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Pedido) TableName() string { return "pedidos" }

// PedidoItem is a raw marketplace line item, optionally bound to an internal
// Produto. Items without a ProdutoID cannot be emitted.
type PedidoItem struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	PedidoID uuid.UUID `gorm:"type:uuid;index;not null"`
	// ExternalItemID is the marketplace-side line item id (used by the item
	// linker when the caller does not know the row id).
	ExternalItemID *string         `gorm:"type:varchar(60);index"`
	SKU            *string         `gorm:"type:varchar(60);index;column:sku"`
	Titulo         string          `gorm:"type:varchar(200);not null"`
	Quantidade     int             `gorm:"not null"`
	ValorUnitario  decimal.Decimal `gorm:"type:decimal(12,2);not null"`

	ProdutoID *uuid.UUID `gorm:"type:uuid;index"`
	Produto   *Produto   `gorm:"foreignKey:ProdutoID"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (PedidoItem) TableName() string { return "pedido_items" }
