package dto

// ─── Request DTOs ────────────────────────────────────────────────────────────

// EmitirLoteRequest is the body of POST /v1/nfe/emitir. Each order id is
// processed independently; partial success is the expected normal case.
type EmitirLoteRequest struct {
	OrganizationID string   `json:"organizationId" validate:"required,uuid"`
	EmpresaID      string   `json:"companyId"      validate:"required,uuid"`
	PedidoIDs      []string `json:"orderIds"       validate:"required,min=1,dive,uuid"`
	Ambiente       string   `json:"environment"    validate:"omitempty,oneof=homologacao producao"`
	// SomenteSincronizar skips submission and only reconciles local state
	// with the gateway (recovery path after a polling timeout).
	SomenteSincronizar bool `json:"syncOnly"`
	// ForcarNovoNumero bumps a pending draft to a fresh number instead of
	// reusing its reservation.
	ForcarNovoNumero bool `json:"forceNewNumber"`
	// ForcarNovaRef salts the idempotency reference with a timestamp for a
	// hard retry against the gateway.
	ForcarNovaRef bool   `json:"forceNewRef"`
	RefOverride   string `json:"refOverride" validate:"omitempty,max=60"`
}

type CancelarNFeRequest struct {
	OrganizationID string `json:"organizationId" validate:"required,uuid"`
	EmpresaID      string `json:"companyId"      validate:"required,uuid"`
	PedidoID       string `json:"orderId"        validate:"required,uuid"`
	Ambiente       string `json:"environment"    validate:"omitempty,oneof=homologacao producao"`
	Justificativa  string `json:"justificativa"  validate:"required,min=15,max=255"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type NotaFiscalResponse struct {
	ID           string  `json:"id"`
	PedidoID     string  `json:"pedido_id"`
	Ambiente     string  `json:"ambiente"`
	Numero       int64   `json:"numero"`
	Serie        string  `json:"serie"`
	Referencia   string  `json:"referencia"`
	Status       string  `json:"status"`
	StatusSefaz  *string `json:"status_sefaz,omitempty"`
	Mensagem     *string `json:"mensagem,omitempty"`
	ChaveNFe     *string `json:"chave_nfe,omitempty"`
	AutorizadoEm *string `json:"autorizado_em,omitempty"`
	CreatedAt    string  `json:"created_at"`
}

// ResultadoEmissao is one entry of the batch response — every order gets an
// explicit verdict keyed to the failure taxonomy.
type ResultadoEmissao struct {
	PedidoID string              `json:"orderId"`
	PackID   *string             `json:"packId,omitempty"`
	OK       bool                `json:"ok"`
	Status   string              `json:"status,omitempty"`
	Resposta *NotaFiscalResponse `json:"response,omitempty"`
	Erro     string              `json:"error,omitempty"`
}

// EmitirLoteResponse: OK is false only when every entry failed.
type EmitirLoteResponse struct {
	OK         bool               `json:"ok"`
	Resultados []ResultadoEmissao `json:"results"`
}
