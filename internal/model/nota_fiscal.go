package model

import (
	"time"

	"github.com/google/uuid"
)

// NotaFiscal lifecycle statuses. One row per emission attempt; rows are never
// physically deleted (audit trail).
const (
	NotaPendente   = "pendente"
	NotaAutorizada = "autorizado"
	NotaRejeitada  = "rejeitado"
	NotaDenegada   = "denegado"
	NotaCancelada  = "cancelado"
)

// NotaFiscal is a fiscal document attempt against the Focus NFe gateway.
//
// Invariants enforced by the reservation path:
//   - at most one row reaches "autorizado" per (empresa, pedido, ambiente);
//   - Numero is unique per (empresa, serie, ambiente) among live documents
//     (pendente/autorizado) and strictly increasing among authorized ones —
//     a number is reused only when the prior attempt holding it was
//     rejected, cancelled or denied without ever authorizing.
type NotaFiscal struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	OrganizationID uuid.UUID `gorm:"type:uuid;index;not null"`
	EmpresaID      uuid.UUID `gorm:"type:uuid;index:idx_nota_empresa_pedido;not null"`
	PedidoID       uuid.UUID `gorm:"type:uuid;index:idx_nota_empresa_pedido;not null"`
	Marketplace    string    `gorm:"type:varchar(20)"`
	// Ambiente: "homologacao" | "producao"
	Ambiente string `gorm:"type:varchar(12);index:idx_nota_empresa_pedido;not null"`

	Numero int64  `gorm:"not null"`
	Serie  string `gorm:"type:varchar(5);not null"`
	// Referencia is the deterministic dedupe key sent to Focus NFe.
	Referencia string `gorm:"type:varchar(80);index;not null"`

	Status string `gorm:"type:varchar(20);not null;default:'pendente'"`
	// StatusSefaz is the raw gateway/SEFAZ status text as returned by Focus.
	StatusSefaz *string `gorm:"type:varchar(60)"`
	Mensagem    *string `gorm:"type:text"`

	ChaveNFe     *string    `gorm:"type:varchar(50);column:chave_nfe"`
	AutorizadoEm *time.Time
	// Base64-encoded artifacts returned by the gateway after authorization.
	XML   *string `gorm:"type:text;column:xml"`
	DANFE *string `gorm:"type:text;column:danfe"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (NotaFiscal) TableName() string { return "notas_fiscais" }

// Terminal reports whether the document can never change status again on its
// current number. Rejected is terminal for the number (a retry must bump),
// but the order itself may be resubmitted.
func (n *NotaFiscal) Terminal() bool {
	switch n.Status {
	case NotaAutorizada, NotaDenegada, NotaCancelada, NotaRejeitada:
		return true
	}
	return false
}
