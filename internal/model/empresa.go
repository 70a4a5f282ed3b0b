package model

import (
	"time"

	"github.com/google/uuid"
)

// Empresa is the emitting company: fiscal registration, invoice series and
// the per-environment Focus NFe tokens.
// RegimeTributario: "simples_nacional" | "regime_normal" | "mei"
type Empresa struct {
	ID                uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	OrganizationID    uuid.UUID `gorm:"type:uuid;index;not null"`
	RazaoSocial       string    `gorm:"type:varchar(120);not null"`
	NomeFantasia      *string   `gorm:"type:varchar(120)"`
	CNPJ              string    `gorm:"type:varchar(14);uniqueIndex;not null;column:cnpj"`
	InscricaoEstadual *string   `gorm:"type:varchar(20)"`
	RegimeTributario  string    `gorm:"type:varchar(30);not null;default:'simples_nacional'"`

	// NumeroSerie is the NFe series this company emits under.
	NumeroSerie string `gorm:"type:varchar(5);not null;default:'1'"`
	// ProximaNFe is an advisory next-number hint. The reservation path derives
	// the authoritative next number from emitted history and only falls back
	// to this field when no history exists; it is advanced after each
	// authorization.
	ProximaNFe int64 `gorm:"not null;default:1;column:proxima_nfe"`

	// Focus NFe credentials. TokenHomologacao is preferred for sandbox
	// emission when set; the global token from config is the fallback.
	TokenProducao    *string `gorm:"type:varchar(100)"`
	TokenHomologacao *string `gorm:"type:varchar(100)"`

	// Emitter address — goes verbatim into the NFe payload.
	Logradouro      string  `gorm:"type:varchar(120)"`
	NumeroEndereco  string  `gorm:"type:varchar(20)"`
	Bairro          string  `gorm:"type:varchar(60)"`
	Municipio       string  `gorm:"type:varchar(60)"`
	CodigoMunicipio *string `gorm:"type:varchar(7)"`
	UF              string  `gorm:"type:varchar(2);column:uf"`
	CEP             string  `gorm:"type:varchar(8);column:cep"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Empresa) TableName() string { return "empresas" }
