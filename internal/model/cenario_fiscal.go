package model

import (
	"time"

	"github.com/google/uuid"
)

// CenarioFiscal is the company's default tax scenario for a
// {person-type × in-state} combination. CFOP and ICMSSituacao are mandatory
// at the order level; OrigemPadrao is only a fallback for products that lack
// their own origin code.
// TipoPessoa: "fisica" | "juridica"
type CenarioFiscal struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	EmpresaID    uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_cenario_chave;not null"`
	TipoPessoa   string    `gorm:"type:varchar(10);uniqueIndex:idx_cenario_chave;not null"`
	DentroEstado bool      `gorm:"uniqueIndex:idx_cenario_chave;not null"`

	CFOP string `gorm:"type:varchar(4);column:cfop"`
	// ICMSSituacao is the CST (regime normal) or CSOSN (simples nacional).
	ICMSSituacao string  `gorm:"type:varchar(3);column:icms_situacao"`
	OrigemPadrao *string `gorm:"type:varchar(1)"`

	PISSituacao    string  `gorm:"type:varchar(2);column:pis_situacao"`
	COFINSSituacao string  `gorm:"type:varchar(2);column:cofins_situacao"`
	IPISituacao    *string `gorm:"type:varchar(2);column:ipi_situacao"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (CenarioFiscal) TableName() string { return "cenarios_fiscais" }
