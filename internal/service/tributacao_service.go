package service

import (
	"context"
	"strings"

	"lojahub/internal/infra"
	"lojahub/internal/model"
	"lojahub/internal/repository"

	"github.com/shopspring/decimal"
)

// CenarioResolvido is the company's default tax scenario applied to one
// order: resolved once per order (person-type and in-state keying), never
// per item.
type CenarioResolvido struct {
	TipoPessoa   string
	DentroEstado bool

	CFOP         string
	ICMSSituacao string
	// OrigemPadrao is the scenario-level fallback for products without their
	// own ICMS origin code.
	OrigemPadrao *string

	PISSituacao    string
	COFINSSituacao string
	IPISituacao    *string
}

// TributacaoService resolves orders and their raw line items into
// gateway-ready item records, failing closed on any missing fiscal data.
type TributacaoService interface {
	ResolverCenario(ctx context.Context, empresa *model.Empresa, pedido *model.Pedido) (*CenarioResolvido, error)
	ResolverItens(ctx context.Context, empresa *model.Empresa, pedido *model.Pedido, cenario *CenarioResolvido) ([]infra.NFeItem, error)
}

type tributacaoService struct {
	cenarioRepo repository.CenarioFiscalRepository
	produtoRepo repository.ProdutoRepository
}

func NewTributacaoService(cenarioRepo repository.CenarioFiscalRepository, produtoRepo repository.ProdutoRepository) TributacaoService {
	return &tributacaoService{cenarioRepo: cenarioRepo, produtoRepo: produtoRepo}
}

// ResolverCenario keys the company's default scenario by person-type and the
// in-state flag and validates the order-level mandatory fields (CFOP, ICMS
// situation, PIS/COFINS) before any per-item work.
func (s *tributacaoService) ResolverCenario(ctx context.Context, empresa *model.Empresa, pedido *model.Pedido) (*CenarioResolvido, error) {
	tipoPessoa := tipoPessoaDoDocumento(pedido.ClienteDocumento)
	dentro := dentroDoEstado(empresa, pedido)

	cenario, err := s.cenarioRepo.FindCenario(ctx, empresa.ID, tipoPessoa, dentro)
	if err != nil {
		return nil, novaFalha(FalhaCenarioAusente,
			"cenário fiscal não configurado para pessoa %s %s do estado", tipoPessoa, dentroFora(dentro))
	}

	if cenario.CFOP == "" || cenario.ICMSSituacao == "" {
		return nil, novaFalha(FalhaCenarioIncompleto,
			"cenário fiscal sem CFOP ou situação de ICMS (pessoa %s, %s do estado)", tipoPessoa, dentroFora(dentro))
	}
	if cenario.PISSituacao == "" || cenario.COFINSSituacao == "" {
		return nil, novaFalha(FalhaPISCOFINSAusente,
			"cenário fiscal sem códigos de PIS/COFINS (pessoa %s, %s do estado)", tipoPessoa, dentroFora(dentro))
	}

	return &CenarioResolvido{
		TipoPessoa:     tipoPessoa,
		DentroEstado:   dentro,
		CFOP:           cenario.CFOP,
		ICMSSituacao:   cenario.ICMSSituacao,
		OrigemPadrao:   cenario.OrigemPadrao,
		PISSituacao:    cenario.PISSituacao,
		COFINSSituacao: cenario.COFINSSituacao,
		IPISituacao:    cenario.IPISituacao,
	}, nil
}

// ResolverItens produces the ordered gateway line items. Resolution chain per
// item: already-linked product → explicit SKU link table → product lookup by
// SKU → single-product-order fallback for items without SKU → fail with the
// offending SKU in the message. NCM and origin are hard requirements; origin
// may fall back to the scenario default, NCM never defaults.
func (s *tributacaoService) ResolverItens(ctx context.Context, empresa *model.Empresa, pedido *model.Pedido, cenario *CenarioResolvido) ([]infra.NFeItem, error) {
	itens := make([]infra.NFeItem, 0, len(pedido.Items))

	for i := range pedido.Items {
		item := &pedido.Items[i]

		produto, err := s.resolverProduto(ctx, pedido, item)
		if err != nil {
			return nil, err
		}

		if produto.NCM == nil || *produto.NCM == "" {
			return nil, novaFalha(FalhaNCMAusente,
				"Produto %s (%s) sem código NCM", produto.Nome, produto.SKU)
		}

		origem := produto.Origem
		if origem == nil || *origem == "" {
			origem = cenario.OrigemPadrao
		}
		if origem == nil || *origem == "" {
			return nil, novaFalha(FalhaOrigemAusente,
				"Produto %s (%s) sem origem de ICMS e cenário sem origem padrão", produto.Nome, produto.SKU)
		}

		qtd := decimal.NewFromInt(int64(item.Quantidade))
		valorBruto := qtd.Mul(item.ValorUnitario)

		nfeItem := infra.NFeItem{
			NumeroItem:               i + 1,
			CodigoProduto:            produto.SKU,
			Descricao:                item.Titulo,
			CFOP:                     cenario.CFOP,
			NCM:                      *produto.NCM,
			UnidadeComercial:         "UN",
			UnidadeTributavel:        "UN",
			QuantidadeComercial:      qtd.StringFixed(4),
			QuantidadeTributavel:     qtd.StringFixed(4),
			ValorUnitarioComercial:   item.ValorUnitario.StringFixed(2),
			ValorUnitarioTributavel:  item.ValorUnitario.StringFixed(2),
			ValorBruto:               valorBruto.StringFixed(2),
			ICMSOrigem:               *origem,
			ICMSSituacaoTributaria:   cenario.ICMSSituacao,
			PISSituacaoTributaria:    cenario.PISSituacao,
			COFINSSituacaoTributaria: cenario.COFINSSituacao,
			InclusoNoTotal:           1,
		}
		if produto.CEST != nil {
			nfeItem.CEST = *produto.CEST
		}
		if cenario.IPISituacao != nil {
			nfeItem.IPISituacaoTributaria = *cenario.IPISituacao
		}
		itens = append(itens, nfeItem)
	}

	return itens, nil
}

func (s *tributacaoService) resolverProduto(ctx context.Context, pedido *model.Pedido, item *model.PedidoItem) (*model.Produto, error) {
	// Direct link set by the item linker.
	if item.ProdutoID != nil {
		if item.Produto != nil {
			return item.Produto, nil
		}
		if p, err := s.produtoRepo.FindByID(ctx, *item.ProdutoID); err == nil {
			return p, nil
		}
	}

	if item.SKU != nil && *item.SKU != "" {
		if v, err := s.produtoRepo.FindVinculo(ctx, pedido.OrganizationID, pedido.Marketplace, *item.SKU); err == nil {
			if p, err := s.produtoRepo.FindByID(ctx, v.ProdutoID); err == nil {
				return p, nil
			}
		}
		if p, err := s.produtoRepo.FindBySKU(ctx, pedido.OrganizationID, *item.SKU); err == nil {
			return p, nil
		}
		return nil, novaFalha(FalhaProdutoNaoEncontrado,
			"Item %s (SKU %s) não vinculado a nenhum produto", item.Titulo, *item.SKU)
	}

	// Item without SKU: usable only when the whole order resolves to a
	// single linked product.
	if p := produtoUnicoDoPedido(pedido); p != nil {
		return p, nil
	}
	return nil, novaFalha(FalhaProdutoNaoEncontrado,
		"Item %s sem SKU e pedido sem produto único vinculado", item.Titulo)
}

func produtoUnicoDoPedido(pedido *model.Pedido) *model.Produto {
	var unico *model.Produto
	for i := range pedido.Items {
		it := &pedido.Items[i]
		if it.ProdutoID == nil || it.Produto == nil {
			continue
		}
		if unico != nil && unico.ID != it.Produto.ID {
			return nil
		}
		unico = it.Produto
	}
	return unico
}

// tipoPessoaDoDocumento classifies by document length: 14 digits is a CNPJ
// (juridica), anything else — including a missing document — defaults to
// pessoa física.
func tipoPessoaDoDocumento(doc *string) string {
	if doc == nil {
		return "fisica"
	}
	if len(somenteDigitos(*doc)) == 14 {
		return "juridica"
	}
	return "fisica"
}

// dentroDoEstado compares UFs, with a city-name equality override for orders
// whose address carries a stale or missing UF.
func dentroDoEstado(empresa *model.Empresa, pedido *model.Pedido) bool {
	if strings.EqualFold(strings.TrimSpace(empresa.UF), strings.TrimSpace(pedido.UF)) {
		return true
	}
	if empresa.Municipio != "" && pedido.Municipio != "" &&
		strings.EqualFold(strings.TrimSpace(empresa.Municipio), strings.TrimSpace(pedido.Municipio)) {
		return true
	}
	return false
}

func dentroFora(dentro bool) string {
	if dentro {
		return "dentro"
	}
	return "fora"
}

func somenteDigitos(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
