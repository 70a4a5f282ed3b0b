package infra

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Focus NFe environments and hosts.
const (
	AmbienteHomologacao = "homologacao"
	AmbienteProducao    = "producao"

	focusHostProducao    = "https://api.focusnfe.com.br"
	focusHostHomologacao = "https://homologacao.focusnfe.com.br"
)

// ErrFocusUnauthorized is returned on HTTP 401 so the caller can retry once
// with the global fallback token.
var ErrFocusUnauthorized = fmt.Errorf("focus: token não autorizado (401)")

// NFeItem is one line item of the NFe payload. Every field the gateway
// requires is populated by the tax resolution engine; construction is typed
// on purpose so a missing fiscal attribute is a validation failure upstream,
// never a silently absent JSON key.
type NFeItem struct {
	NumeroItem               int    `json:"numero_item"`
	CodigoProduto            string `json:"codigo_produto"`
	Descricao                string `json:"descricao"`
	CFOP                     string `json:"cfop"`
	NCM                      string `json:"codigo_ncm"`
	CEST                     string `json:"cest,omitempty"`
	UnidadeComercial         string `json:"unidade_comercial"`
	UnidadeTributavel        string `json:"unidade_tributavel"`
	QuantidadeComercial      string `json:"quantidade_comercial"`
	QuantidadeTributavel     string `json:"quantidade_tributavel"`
	ValorUnitarioComercial   string `json:"valor_unitario_comercial"`
	ValorUnitarioTributavel  string `json:"valor_unitario_tributavel"`
	ValorBruto               string `json:"valor_bruto"`
	ICMSOrigem               string `json:"icms_origem"`
	ICMSSituacaoTributaria   string `json:"icms_situacao_tributaria"`
	PISSituacaoTributaria    string `json:"pis_situacao_tributaria"`
	COFINSSituacaoTributaria string `json:"cofins_situacao_tributaria"`
	IPISituacaoTributaria    string `json:"ipi_situacao_tributaria,omitempty"`
	InclusoNoTotal           int    `json:"incluso_no_total"`
}

// NFePayload is the document body POSTed to /v2/nfe.
type NFePayload struct {
	NaturezaOperacao  string `json:"natureza_operacao"`
	DataEmissao       string `json:"data_emissao"`
	TipoDocumento     int    `json:"tipo_documento"`
	FinalidadeEmissao int    `json:"finalidade_emissao"`
	ConsumidorFinal   int    `json:"consumidor_final"`
	PresencaComprador int    `json:"presenca_comprador"`
	Numero            int64  `json:"numero"`
	Serie             string `json:"serie"`

	// Emitente
	CNPJEmitente             string `json:"cnpj_emitente"`
	RegimeTributarioEmitente int    `json:"regime_tributario_emitente"`

	// Destinatário
	NomeDestinatario           string `json:"nome_destinatario"`
	CPFDestinatario            string `json:"cpf_destinatario,omitempty"`
	CNPJDestinatario           string `json:"cnpj_destinatario,omitempty"`
	LogradouroDestinatario     string `json:"logradouro_destinatario"`
	NumeroDestinatario         string `json:"numero_destinatario"`
	BairroDestinatario         string `json:"bairro_destinatario"`
	MunicipioDestinatario      string `json:"municipio_destinatario"`
	UFDestinatario             string `json:"uf_destinatario"`
	CEPDestinatario            string `json:"cep_destinatario"`
	IndicadorInscricaoEstadual int    `json:"indicador_inscricao_estadual_destinatario"`

	Itens []NFeItem `json:"items"`
}

// FocusResponse is the gateway's document state, returned both by the submit
// call and by the consult-by-reference call.
type FocusResponse struct {
	Status        string `json:"status"`
	StatusSefaz   string `json:"status_sefaz"`
	Mensagem      string `json:"mensagem,omitempty"`
	MensagemSefaz string `json:"mensagem_sefaz,omitempty"`
	Codigo        string `json:"codigo,omitempty"`
	ChaveNFe      string `json:"chave_nfe,omitempty"`
	Numero        string `json:"numero,omitempty"`
	Serie         string `json:"serie,omitempty"`
	Ref           string `json:"ref,omitempty"`
	// Base64 artifacts when the consult is made with completa=1.
	XMLBase64    string `json:"requisicao_nota_fiscal,omitempty"`
	CaminhoXML   string `json:"caminho_xml_nota_fiscal,omitempty"`
	CaminhoDANFE string `json:"caminho_danfe,omitempty"`

	Erros []FocusErro `json:"erros,omitempty"`
}

type FocusErro struct {
	Codigo   string `json:"codigo"`
	Mensagem string `json:"mensagem"`
	Campo    string `json:"campo,omitempty"`
}

// FocusClient talks to the Focus NFe REST API. Credentials travel per call:
// the emission service selects the company token by environment and falls
// back to the global token on 401.
type FocusClient struct {
	httpClient *http.Client
	// hostOverride replaces both environment hosts (httptest in unit tests).
	hostOverride string
}

func NewFocusClient() *FocusClient {
	return &FocusClient{httpClient: &http.Client{Timeout: 30 * time.Second}}
}

// NewFocusClientWithHost pins every request to a single host regardless of
// environment. Test constructor.
func NewFocusClientWithHost(host string) *FocusClient {
	return &FocusClient{httpClient: &http.Client{Timeout: 30 * time.Second}, hostOverride: host}
}

func (c *FocusClient) host(ambiente string) string {
	if c.hostOverride != "" {
		return c.hostOverride
	}
	if ambiente == AmbienteProducao {
		return focusHostProducao
	}
	return focusHostHomologacao
}

// Enviar submits an NFe under the given reference (POST /v2/nfe?ref=REF).
func (c *FocusClient) Enviar(ctx context.Context, ambiente, token, ref string, payload *NFePayload) (*FocusResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("focus: marshal payload: %w", err)
	}
	endpoint := fmt.Sprintf("%s/v2/nfe?ref=%s", c.host(ambiente), url.QueryEscape(ref))
	return c.do(ctx, http.MethodPost, endpoint, token, bytes.NewReader(body))
}

// Consultar fetches the document state by reference, including the base64
// XML/DANFE artifacts (GET /v2/nfe/REF?completa=1).
func (c *FocusClient) Consultar(ctx context.Context, ambiente, token, ref string) (*FocusResponse, error) {
	endpoint := fmt.Sprintf("%s/v2/nfe/%s?completa=1", c.host(ambiente), url.PathEscape(ref))
	return c.do(ctx, http.MethodGet, endpoint, token, nil)
}

// Cancelar requests cancellation of an authorized document
// (DELETE /v2/nfe/REF with a justification body).
func (c *FocusClient) Cancelar(ctx context.Context, ambiente, token, ref, justificativa string) (*FocusResponse, error) {
	body, err := json.Marshal(map[string]string{"justificativa": justificativa})
	if err != nil {
		return nil, err
	}
	endpoint := fmt.Sprintf("%s/v2/nfe/%s", c.host(ambiente), url.PathEscape(ref))
	return c.do(ctx, http.MethodDelete, endpoint, token, bytes.NewReader(body))
}

// BaixarArtefato downloads an authorized document artifact (XML or DANFE)
// from the path the gateway returned (caminho_* fields are host-relative).
func (c *FocusClient) BaixarArtefato(ctx context.Context, ambiente, token, caminho string) ([]byte, error) {
	endpoint := c.host(ambiente) + caminho
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("focus: create request: %w", err)
	}
	req.SetBasicAuth(token, "")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("focus: gateway unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, ErrFocusUnauthorized
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("focus: artifact download returned %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

func (c *FocusClient) do(ctx context.Context, method, endpoint, token string, body io.Reader) (*FocusResponse, error) {
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("focus: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	// Focus NFe uses Basic Auth with the token as username and empty password.
	req.SetBasicAuth(token, "")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("focus: gateway unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, ErrFocusUnauthorized
	}

	var result FocusResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("focus: decode response (HTTP %d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode >= 500 {
		return nil, fmt.Errorf("focus: gateway returned %d: %s", resp.StatusCode, result.Mensagem)
	}
	return &result, nil
}

// ── Status helpers ───────────────────────────────────────────────────────────

// NormalizeStatus maps the gateway's status vocabulary onto the local
// document lifecycle. Unknown statuses normalize to "pendente" so a later
// sync can still reconcile them.
func NormalizeStatus(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "autorizado":
		return "autorizado"
	case "cancelado":
		return "cancelado"
	case "erro_autorizacao", "rejeitado":
		return "rejeitado"
	case "denegado":
		return "denegado"
	default:
		// "processando_autorizacao" and anything unrecognized
		return "pendente"
	}
}

// AlreadyProcessed reports whether the gateway refused the submission because
// the reference was already used — the caller should consult by reference and
// reconcile instead of treating this as a failure. This is the path that
// prevents duplicate-number drift when a request is retried after a network
// timeout that actually succeeded upstream.
func AlreadyProcessed(r *FocusResponse) bool {
	if r == nil {
		return false
	}
	switch r.Codigo {
	case "referencia_ja_utilizada", "em_processamento", "nfe_autorizada":
		return true
	}
	msg := strings.ToLower(r.Mensagem)
	return strings.Contains(msg, "já foi enviada") || strings.Contains(msg, "em processamento")
}

// RegimeTributarioCodigo maps the company tax regime onto the numeric code
// Focus expects in regime_tributario_emitente.
func RegimeTributarioCodigo(regime string) int {
	switch regime {
	case "regime_normal":
		return 3
	case "simples_nacional_excesso":
		return 2
	default:
		// simples_nacional and mei
		return 1
	}
}
