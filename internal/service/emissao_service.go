package service

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"lojahub/internal/dto"
	"lojahub/internal/infra"
	"lojahub/internal/model"
	"lojahub/internal/repository"

	"github.com/bsm/redislock"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// EmissaoLocker serializes the numbering section for one
// (empresa, serie, ambiente) across instances. The DB row lock inside
// ReservarNumero is the correctness guard; this lock keeps concurrent
// instances from queueing on it.
type EmissaoLocker interface {
	Obtain(ctx context.Context, key string, ttl time.Duration) (release func(context.Context) error, err error)
}

// RedisLocker implements EmissaoLocker over bsm/redislock.
type RedisLocker struct{ Client *redislock.Client }

func (l *RedisLocker) Obtain(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, error) {
	lock, err := l.Client.Obtain(ctx, key, ttl, nil)
	if err != nil {
		return nil, err
	}
	return lock.Release, nil
}

// EmissaoConfig carries the gateway knobs of the emission flow.
type EmissaoConfig struct {
	// TokenGlobal is the fallback Focus token used when the company has no
	// environment-specific token, or when its token is rejected with a 401.
	TokenGlobal    string
	AmbientePadrao string
	PollMax        int
	PollInterval   time.Duration
}

type EmissaoService interface {
	// EmitirLote processes each order id independently and returns one
	// result entry per id; OK is false only when every entry failed.
	EmitirLote(ctx context.Context, userID uuid.UUID, req dto.EmitirLoteRequest) (*dto.EmitirLoteResponse, error)
	Cancelar(ctx context.Context, userID uuid.UUID, req dto.CancelarNFeRequest) (*dto.NotaFiscalResponse, error)
	ListarPorPedido(ctx context.Context, pedidoID uuid.UUID) ([]dto.NotaFiscalResponse, error)
}

type emissaoService struct {
	notaRepo    repository.NotaFiscalRepository
	empresaRepo repository.EmpresaRepository
	pedidoRepo  repository.PedidoRepository
	orgRepo     repository.OrganizacaoRepository
	jobRepo     repository.InventoryJobRepository
	tributacao  TributacaoService
	focus       *infra.FocusClient
	cb          *infra.CircuitBreaker
	locker      EmissaoLocker
	cfg         EmissaoConfig
}

func NewEmissaoService(
	notaRepo repository.NotaFiscalRepository,
	empresaRepo repository.EmpresaRepository,
	pedidoRepo repository.PedidoRepository,
	orgRepo repository.OrganizacaoRepository,
	jobRepo repository.InventoryJobRepository,
	tributacao TributacaoService,
	focus *infra.FocusClient,
	cb *infra.CircuitBreaker,
	locker EmissaoLocker,
	cfg EmissaoConfig,
) EmissaoService {
	if cfg.PollMax <= 0 {
		cfg.PollMax = 10
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 2 * time.Second
	}
	if cfg.AmbientePadrao == "" {
		cfg.AmbientePadrao = infra.AmbienteHomologacao
	}
	return &emissaoService{
		notaRepo:    notaRepo,
		empresaRepo: empresaRepo,
		pedidoRepo:  pedidoRepo,
		orgRepo:     orgRepo,
		jobRepo:     jobRepo,
		tributacao:  tributacao,
		focus:       focus,
		cb:          cb,
		locker:      locker,
		cfg:         cfg,
	}
}

func (s *emissaoService) EmitirLote(ctx context.Context, userID uuid.UUID, req dto.EmitirLoteRequest) (*dto.EmitirLoteResponse, error) {
	orgID, err := uuid.Parse(req.OrganizationID)
	if err != nil {
		return nil, fmt.Errorf("organizationId inválido: %w", err)
	}
	empresaID, err := uuid.Parse(req.EmpresaID)
	if err != nil {
		return nil, fmt.Errorf("companyId inválido: %w", err)
	}

	ok, err := s.orgRepo.IsMember(ctx, orgID, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.New("usuário não pertence à organização")
	}

	empresa, err := s.empresaRepo.FindByID(ctx, empresaID)
	if err != nil {
		return nil, fmt.Errorf("empresa não encontrada: %w", err)
	}
	if empresa.OrganizationID != orgID {
		return nil, errors.New("empresa não pertence à organização")
	}

	ambiente := req.Ambiente
	if ambiente == "" {
		ambiente = s.cfg.AmbientePadrao
	}

	resp := &dto.EmitirLoteResponse{Resultados: make([]dto.ResultadoEmissao, 0, len(req.PedidoIDs))}
	for _, idStr := range req.PedidoIDs {
		pedidoID, err := uuid.Parse(idStr)
		if err != nil {
			resp.Resultados = append(resp.Resultados, dto.ResultadoEmissao{
				PedidoID: idStr, Status: FalhaInfra, Erro: "order id inválido",
			})
			continue
		}
		r := s.processarPedido(ctx, empresa, ambiente, req, pedidoID)
		if r.OK {
			resp.OK = true
		}
		resp.Resultados = append(resp.Resultados, r)
	}
	return resp, nil
}

// processarPedido runs the full emission flow for one order. Every failure is
// caught here and recorded in the order's own result entry — it never aborts
// sibling orders in the batch.
func (s *emissaoService) processarPedido(ctx context.Context, empresa *model.Empresa, ambiente string, req dto.EmitirLoteRequest, pedidoID uuid.UUID) dto.ResultadoEmissao {
	resultado := dto.ResultadoEmissao{PedidoID: pedidoID.String()}

	pedido, err := s.pedidoRepo.FindByID(ctx, pedidoID)
	if err != nil {
		return falhar(resultado, novaFalha(FalhaInfra, "pedido %s não encontrado", pedidoID))
	}
	resultado.PackID = pedido.PackID

	if req.SomenteSincronizar {
		return s.sincronizarPedido(ctx, empresa, pedido, ambiente, resultado)
	}

	if empresa.NumeroSerie == "" {
		return falhar(resultado, novaFalha(FalhaSerieAusente, "empresa %s sem série de NFe configurada", empresa.RazaoSocial))
	}

	cenario, err := s.tributacao.ResolverCenario(ctx, empresa, pedido)
	if err != nil {
		return falhar(resultado, err)
	}
	itens, err := s.tributacao.ResolverItens(ctx, empresa, pedido, cenario)
	if err != nil {
		return falhar(resultado, err)
	}

	referencia := montarReferencia(req, empresa, pedido)

	lockKey := fmt.Sprintf("emissao:%s:%s:%s", empresa.ID, empresa.NumeroSerie, ambiente)
	release, err := s.locker.Obtain(ctx, lockKey, 30*time.Second)
	if err != nil {
		return falhar(resultado, novaFalha(FalhaLockNaoObtido, "emissão concorrente em andamento para a empresa"))
	}
	defer func() { _ = release(ctx) }()

	nota, err := s.notaRepo.ReservarNumero(ctx, repository.ReservaNumeroParams{
		OrganizationID:   pedido.OrganizationID,
		EmpresaID:        empresa.ID,
		PedidoID:         pedido.ID,
		Marketplace:      pedido.Marketplace,
		Ambiente:         ambiente,
		Serie:            empresa.NumeroSerie,
		Referencia:       referencia,
		ForcarNovoNumero: req.ForcarNovoNumero,
	})
	switch {
	case errors.Is(err, repository.ErrPedidoJaEmitido):
		return falhar(resultado, novaFalha(FalhaJaEmitida, "pedido já possui NFe autorizada"))
	case errors.Is(err, repository.ErrNotaDenegada):
		return falhar(resultado, novaFalha(FalhaDenegada, "pedido possui NFe denegada — reemissão não permitida"))
	case err != nil:
		return falhar(resultado, novaFalha(FalhaInfra, "reserva de numeração falhou: %v", err))
	}

	payload := s.montarPayload(empresa, pedido, cenario, itens, nota)

	resp, err := s.enviar(ctx, empresa, ambiente, nota.Referencia, payload)
	if err != nil {
		// Gateway HTTP failure is retryable: the draft keeps its reserved
		// number and a later call reuses it.
		msg := err.Error()
		nota.Mensagem = &msg
		if uerr := s.notaRepo.Update(ctx, nota); uerr != nil {
			log.Error().Err(uerr).Str("nota_id", nota.ID.String()).Msg("emissao: failed to persist gateway error")
		}
		return falhar(resultado, novaFalha(FalhaGateway, "falha ao enviar NFe: %v", err))
	}

	if infra.AlreadyProcessed(resp) {
		// The reference was already submitted (a retry after a timeout that
		// actually succeeded upstream). Fetch the existing document and
		// reconcile local state to match — never treated as an error.
		log.Info().Str("referencia", nota.Referencia).Msg("emissao: referência já processada, reconciliando")
		resp, err = s.consultar(ctx, empresa, ambiente, nota.Referencia)
		if err != nil {
			return falhar(resultado, novaFalha(FalhaGateway, "falha ao consultar NFe existente: %v", err))
		}
	}

	resp = s.aguardarResolucao(ctx, empresa, ambiente, nota.Referencia, resp)
	return s.reconciliar(ctx, empresa, pedido, nota, ambiente, resp, resultado)
}

// sincronizarPedido re-fetches gateway state by reference and reconciles the
// local row — the recovery path after a polling timeout.
func (s *emissaoService) sincronizarPedido(ctx context.Context, empresa *model.Empresa, pedido *model.Pedido, ambiente string, resultado dto.ResultadoEmissao) dto.ResultadoEmissao {
	nota, err := s.notaRepo.FindUltimaByPedido(ctx, empresa.ID, pedido.ID, ambiente)
	if err != nil {
		return falhar(resultado, novaFalha(FalhaNotaInexistente, "pedido sem NFe para sincronizar"))
	}
	resp, err := s.consultar(ctx, empresa, ambiente, nota.Referencia)
	if err != nil {
		return falhar(resultado, novaFalha(FalhaGateway, "falha ao consultar NFe: %v", err))
	}
	return s.reconciliar(ctx, empresa, pedido, nota, ambiente, resp, resultado)
}

func (s *emissaoService) Cancelar(ctx context.Context, userID uuid.UUID, req dto.CancelarNFeRequest) (*dto.NotaFiscalResponse, error) {
	orgID, err := uuid.Parse(req.OrganizationID)
	if err != nil {
		return nil, fmt.Errorf("organizationId inválido: %w", err)
	}
	empresaID, err := uuid.Parse(req.EmpresaID)
	if err != nil {
		return nil, fmt.Errorf("companyId inválido: %w", err)
	}
	pedidoID, err := uuid.Parse(req.PedidoID)
	if err != nil {
		return nil, fmt.Errorf("orderId inválido: %w", err)
	}

	ok, err := s.orgRepo.IsMember(ctx, orgID, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.New("usuário não pertence à organização")
	}

	empresa, err := s.empresaRepo.FindByID(ctx, empresaID)
	if err != nil {
		return nil, fmt.Errorf("empresa não encontrada: %w", err)
	}

	ambiente := req.Ambiente
	if ambiente == "" {
		ambiente = s.cfg.AmbientePadrao
	}

	nota, err := s.notaRepo.FindUltimaByPedido(ctx, empresaID, pedidoID, ambiente)
	if err != nil {
		return nil, errors.New("pedido sem NFe emitida")
	}
	if nota.Status != model.NotaAutorizada {
		return nil, fmt.Errorf("apenas NFe autorizada pode ser cancelada (status atual: %s)", nota.Status)
	}

	var resp *infra.FocusResponse
	token := s.tokenEmpresa(empresa, ambiente)
	err = s.cb.Execute(func() error {
		r, cerr := s.focus.Cancelar(ctx, ambiente, token, nota.Referencia, req.Justificativa)
		if errors.Is(cerr, infra.ErrFocusUnauthorized) && s.temFallback(token) {
			r, cerr = s.focus.Cancelar(ctx, ambiente, s.cfg.TokenGlobal, nota.Referencia, req.Justificativa)
		}
		if cerr != nil {
			return cerr
		}
		resp = r
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("falha ao cancelar NFe: %w", err)
	}

	if infra.NormalizeStatus(resp.Status) != model.NotaCancelada {
		return nil, fmt.Errorf("gateway recusou o cancelamento: %s", mensagemDoGateway(resp))
	}

	nota.Status = model.NotaCancelada
	nota.Mensagem = &req.Justificativa
	if err := s.notaRepo.Update(ctx, nota); err != nil {
		return nil, err
	}

	// Cancelled invoice frees the reservation: queue the stock refund.
	s.enfileirarJob(ctx, nota.OrganizationID, pedidoID, model.JobRefund)

	out := notaToResponse(nota)
	return &out, nil
}

func (s *emissaoService) ListarPorPedido(ctx context.Context, pedidoID uuid.UUID) ([]dto.NotaFiscalResponse, error) {
	notas, err := s.notaRepo.ListByPedido(ctx, pedidoID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.NotaFiscalResponse, 0, len(notas))
	for i := range notas {
		out = append(out, notaToResponse(&notas[i]))
	}
	return out, nil
}

// ── Gateway interaction ──────────────────────────────────────────────────────

// tokenEmpresa picks the company token for the environment, falling back to
// the global token when the company carries none.
func (s *emissaoService) tokenEmpresa(empresa *model.Empresa, ambiente string) string {
	if ambiente == infra.AmbienteProducao {
		if empresa.TokenProducao != nil && *empresa.TokenProducao != "" {
			return *empresa.TokenProducao
		}
	} else if empresa.TokenHomologacao != nil && *empresa.TokenHomologacao != "" {
		return *empresa.TokenHomologacao
	}
	return s.cfg.TokenGlobal
}

func (s *emissaoService) temFallback(token string) bool {
	return s.cfg.TokenGlobal != "" && token != s.cfg.TokenGlobal
}

func (s *emissaoService) enviar(ctx context.Context, empresa *model.Empresa, ambiente, ref string, payload *infra.NFePayload) (*infra.FocusResponse, error) {
	token := s.tokenEmpresa(empresa, ambiente)
	var resp *infra.FocusResponse
	err := s.cb.Execute(func() error {
		r, err := s.focus.Enviar(ctx, ambiente, token, ref, payload)
		if errors.Is(err, infra.ErrFocusUnauthorized) && s.temFallback(token) {
			r, err = s.focus.Enviar(ctx, ambiente, s.cfg.TokenGlobal, ref, payload)
		}
		if err != nil {
			return err
		}
		resp = r
		return nil
	})
	return resp, err
}

func (s *emissaoService) consultar(ctx context.Context, empresa *model.Empresa, ambiente, ref string) (*infra.FocusResponse, error) {
	token := s.tokenEmpresa(empresa, ambiente)
	var resp *infra.FocusResponse
	err := s.cb.Execute(func() error {
		r, err := s.focus.Consultar(ctx, ambiente, token, ref)
		if errors.Is(err, infra.ErrFocusUnauthorized) && s.temFallback(token) {
			r, err = s.focus.Consultar(ctx, ambiente, s.cfg.TokenGlobal, ref)
		}
		if err != nil {
			return err
		}
		resp = r
		return nil
	})
	return resp, err
}

// aguardarResolucao polls the gateway until the document leaves
// "processando" or the polling budget runs out. A timeout is not an error:
// the document stays pendente and a later sync call reconciles it.
func (s *emissaoService) aguardarResolucao(ctx context.Context, empresa *model.Empresa, ambiente, ref string, resp *infra.FocusResponse) *infra.FocusResponse {
	for i := 0; i < s.cfg.PollMax; i++ {
		if infra.NormalizeStatus(resp.Status) != model.NotaPendente {
			return resp
		}
		select {
		case <-ctx.Done():
			return resp
		case <-time.After(s.cfg.PollInterval):
		}
		r, err := s.consultar(ctx, empresa, ambiente, ref)
		if err != nil {
			log.Warn().Err(err).Str("referencia", ref).Msg("emissao: consulta de polling falhou")
			return resp
		}
		resp = r
	}
	return resp
}

// reconciliar persists the authoritative gateway state onto the local row and
// drives the order workflow transition.
func (s *emissaoService) reconciliar(ctx context.Context, empresa *model.Empresa, pedido *model.Pedido, nota *model.NotaFiscal, ambiente string, resp *infra.FocusResponse, resultado dto.ResultadoEmissao) dto.ResultadoEmissao {
	raw := resp.StatusSefaz
	if raw == "" {
		raw = resp.Status
	}
	nota.StatusSefaz = &raw
	if msg := mensagemDoGateway(resp); msg != "" {
		nota.Mensagem = &msg
	}

	status := infra.NormalizeStatus(resp.Status)
	switch status {
	case model.NotaAutorizada:
		nota.Status = model.NotaAutorizada
		now := time.Now()
		nota.AutorizadoEm = &now
		if resp.ChaveNFe != "" {
			nota.ChaveNFe = &resp.ChaveNFe
		}
		s.baixarArtefatos(ctx, empresa, ambiente, nota, resp)

		if err := s.empresaRepo.AvancarProximaNFe(ctx, empresa.ID, nota.Numero+1); err != nil {
			log.Error().Err(err).Str("empresa_id", empresa.ID.String()).Msg("emissao: falha ao avançar proxima_nfe")
		}
		if err := s.pedidoRepo.UpdateStatus(ctx, pedido.ID, "nfe_emitida"); err != nil {
			log.Error().Err(err).Str("pedido_id", pedido.ID.String()).Msg("emissao: falha ao atualizar status do pedido")
		}
		// Invoiced goods leave the reserved balance.
		s.enfileirarJob(ctx, pedido.OrganizationID, pedido.ID, model.JobConsume)

		resultado.OK = true
		resultado.Status = model.NotaAutorizada

	case model.NotaRejeitada:
		nota.Status = model.NotaRejeitada
		if err := s.pedidoRepo.UpdateStatus(ctx, pedido.ID, "erro_emissao"); err != nil {
			log.Error().Err(err).Str("pedido_id", pedido.ID.String()).Msg("emissao: falha ao atualizar status do pedido")
		}
		resultado.Status = FalhaRejeitada
		resultado.Erro = fmt.Sprintf("NFe rejeitada: %s", mensagemDoGateway(resp))

	case model.NotaDenegada:
		nota.Status = model.NotaDenegada
		if err := s.pedidoRepo.UpdateStatus(ctx, pedido.ID, "erro_emissao"); err != nil {
			log.Error().Err(err).Str("pedido_id", pedido.ID.String()).Msg("emissao: falha ao atualizar status do pedido")
		}
		resultado.Status = FalhaDenegada
		resultado.Erro = fmt.Sprintf("NFe denegada: %s", mensagemDoGateway(resp))

	case model.NotaCancelada:
		nota.Status = model.NotaCancelada
		resultado.OK = true
		resultado.Status = model.NotaCancelada

	default:
		// Polling budget exhausted — the document may still authorize
		// asynchronously; a later sync call picks it up.
		resultado.OK = true
		resultado.Status = "processando_autorizacao"
	}

	if err := s.notaRepo.Update(ctx, nota); err != nil {
		log.Error().Err(err).Str("nota_id", nota.ID.String()).Msg("emissao: falha ao persistir nota")
		return falhar(resultado, novaFalha(FalhaInfra, "falha ao persistir nota fiscal: %v", err))
	}

	r := notaToResponse(nota)
	resultado.Resposta = &r
	return resultado
}

// baixarArtefatos fetches the authorized XML/DANFE from the gateway and
// stores them base64-encoded. Best-effort: a download failure never fails
// the emission.
func (s *emissaoService) baixarArtefatos(ctx context.Context, empresa *model.Empresa, ambiente string, nota *model.NotaFiscal, resp *infra.FocusResponse) {
	token := s.tokenEmpresa(empresa, ambiente)
	if resp.CaminhoXML != "" {
		if data, err := s.focus.BaixarArtefato(ctx, ambiente, token, resp.CaminhoXML); err == nil {
			enc := base64.StdEncoding.EncodeToString(data)
			nota.XML = &enc
		} else {
			log.Warn().Err(err).Str("caminho", resp.CaminhoXML).Msg("emissao: download do XML falhou")
		}
	}
	if resp.CaminhoDANFE != "" {
		if data, err := s.focus.BaixarArtefato(ctx, ambiente, token, resp.CaminhoDANFE); err == nil {
			enc := base64.StdEncoding.EncodeToString(data)
			nota.DANFE = &enc
		} else {
			log.Warn().Err(err).Str("caminho", resp.CaminhoDANFE).Msg("emissao: download do DANFE falhou")
		}
	}
}

func (s *emissaoService) enfileirarJob(ctx context.Context, orgID, pedidoID uuid.UUID, tipo string) {
	job := &model.InventoryJob{
		OrganizationID: orgID,
		PedidoID:       pedidoID,
		Tipo:           tipo,
		Status:         model.JobPending,
	}
	if err := s.jobRepo.Upsert(ctx, job); err != nil {
		log.Error().Err(err).Str("pedido_id", pedidoID.String()).Str("tipo", tipo).Msg("emissao: falha ao enfileirar job de estoque")
	}
}

// ── Payload construction ─────────────────────────────────────────────────────

func (s *emissaoService) montarPayload(empresa *model.Empresa, pedido *model.Pedido, cenario *CenarioResolvido, itens []infra.NFeItem, nota *model.NotaFiscal) *infra.NFePayload {
	p := &infra.NFePayload{
		NaturezaOperacao:  "Venda de mercadoria",
		DataEmissao:       time.Now().Format(time.RFC3339),
		TipoDocumento:     1, // saída
		FinalidadeEmissao: 1, // normal
		ConsumidorFinal:   1,
		PresencaComprador: 2, // operação pela internet
		Numero:            nota.Numero,
		Serie:             nota.Serie,

		CNPJEmitente:             empresa.CNPJ,
		RegimeTributarioEmitente: infra.RegimeTributarioCodigo(empresa.RegimeTributario),

		NomeDestinatario:           pedido.ClienteNome,
		LogradouroDestinatario:     pedido.Logradouro,
		NumeroDestinatario:         pedido.NumeroEndereco,
		BairroDestinatario:         pedido.Bairro,
		MunicipioDestinatario:      pedido.Municipio,
		UFDestinatario:             pedido.UF,
		CEPDestinatario:            pedido.CEP,
		IndicadorInscricaoEstadual: 9, // não contribuinte

		Itens: itens,
	}

	if pedido.ClienteDocumento != nil {
		doc := somenteDigitos(*pedido.ClienteDocumento)
		if cenario.TipoPessoa == "juridica" {
			p.CNPJDestinatario = doc
		} else {
			p.CPFDestinatario = doc
		}
	}
	return p
}

// ── Helpers ──────────────────────────────────────────────────────────────────

// montarReferencia builds the deterministic dedupe key sent to the gateway:
// {pack or order id}-{company id}, optionally salted for a hard retry.
func montarReferencia(req dto.EmitirLoteRequest, empresa *model.Empresa, pedido *model.Pedido) string {
	if req.RefOverride != "" {
		return req.RefOverride
	}
	base := pedido.ID.String()
	if pedido.PackID != nil && *pedido.PackID != "" {
		base = *pedido.PackID
	}
	ref := fmt.Sprintf("%s-%s", base, empresa.ID)
	if req.ForcarNovaRef {
		ref = fmt.Sprintf("%s-%d", ref, time.Now().Unix())
	}
	return ref
}

func mensagemDoGateway(resp *infra.FocusResponse) string {
	if resp.MensagemSefaz != "" {
		return resp.MensagemSefaz
	}
	if resp.Mensagem != "" {
		return resp.Mensagem
	}
	if len(resp.Erros) > 0 {
		return resp.Erros[0].Mensagem
	}
	return ""
}

// falhar records a classified failure on the result entry. Unclassified
// errors surface as internal.
func falhar(resultado dto.ResultadoEmissao, err error) dto.ResultadoEmissao {
	var falha *FalhaEmissao
	if errors.As(err, &falha) {
		resultado.Status = falha.Codigo
		resultado.Erro = falha.Mensagem
	} else {
		resultado.Status = FalhaInfra
		resultado.Erro = err.Error()
	}
	resultado.OK = false
	return resultado
}

func notaToResponse(n *model.NotaFiscal) dto.NotaFiscalResponse {
	resp := dto.NotaFiscalResponse{
		ID:          n.ID.String(),
		PedidoID:    n.PedidoID.String(),
		Ambiente:    n.Ambiente,
		Numero:      n.Numero,
		Serie:       n.Serie,
		Referencia:  n.Referencia,
		Status:      n.Status,
		StatusSefaz: n.StatusSefaz,
		Mensagem:    n.Mensagem,
		ChaveNFe:    n.ChaveNFe,
		CreatedAt:   n.CreatedAt.Format(time.RFC3339),
	}
	if n.AutorizadoEm != nil {
		s := n.AutorizadoEm.Format(time.RFC3339)
		resp.AutorizadoEm = &s
	}
	return resp
}
