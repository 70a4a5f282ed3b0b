package service

import "fmt"

// Failure taxonomy codes surfaced in per-order emission results. Operators
// act on these directly (link a product, fill the catalog, configure a
// scenario), so every message must name the offending SKU or config.
const (
	FalhaSerieAusente         = "serie_ausente"
	FalhaCenarioAusente       = "cenario_ausente"
	FalhaCenarioIncompleto    = "cenario_incompleto"
	FalhaProdutoNaoEncontrado = "produto_nao_encontrado"
	FalhaNCMAusente           = "ncm_ausente"
	FalhaOrigemAusente        = "origem_ausente"
	FalhaPISCOFINSAusente     = "pis_cofins_ausente"
	FalhaGateway              = "erro_gateway"
	FalhaRejeitada            = "nfe_rejeitada"
	FalhaDenegada             = "nfe_denegada"
	FalhaJaEmitida            = "nfe_ja_emitida"
	FalhaNotaInexistente      = "nota_inexistente"
	FalhaLockNaoObtido        = "lock_nao_obtido"
	FalhaInfra                = "erro_interno"
)

// FalhaEmissao is a classified per-order failure. Config and validation
// failures are fatal for the order until an operator fixes the underlying
// data; gateway failures are retryable.
type FalhaEmissao struct {
	Codigo   string
	Mensagem string
}

func (f *FalhaEmissao) Error() string {
	return fmt.Sprintf("%s: %s", f.Codigo, f.Mensagem)
}

func novaFalha(codigo, format string, args ...interface{}) *FalhaEmissao {
	return &FalhaEmissao{Codigo: codigo, Mensagem: fmt.Sprintf(format, args...)}
}
