//go:build integration

package router

// e2e_test.go
// End-to-end tests against real Postgres + Redis via testcontainers, with the
// Focus NFe gateway faked by httptest (cfg.FocusHost points at it).
// Run with: go test -tags integration ./internal/router/... -v
//
// Flows covered:
//   - health probe
//   - link item → order ready → inline stock reserve
//   - emit batch → authorized document with artifacts → consume job drained
//   - idempotent re-emission of an already-authorized order
//   - auth: missing token and insufficient role

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"lojahub/internal/config"
	"lojahub/internal/dto"
	"lojahub/internal/infra"
	"lojahub/internal/middleware"
	"lojahub/internal/model"
	"lojahub/internal/repository"
	"lojahub/internal/service"
	"lojahub/internal/worker"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	tcRedis "github.com/testcontainers/testcontainers-go/modules/redis"
	"gorm.io/gorm"
)

// ── HTTP helpers ─────────────────────────────────────────────────────────────

func jsonBody(t *testing.T, v any) *bytes.Buffer {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewBuffer(b)
}

func do(t *testing.T, srv *httptest.Server, method, path string, body *bytes.Buffer, token string) *http.Response {
	t.Helper()
	var reader *bytes.Buffer
	if body == nil {
		reader = bytes.NewBuffer(nil)
	} else {
		reader = body
	}
	req, err := http.NewRequest(method, srv.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	return resp
}

func decodeJSON(t *testing.T, resp *http.Response, dest any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(dest))
}

// ── Fake Focus NFe gateway ───────────────────────────────────────────────────

// fakeFocus authorizes everything: submissions come back processando and the
// first consult resolves autorizado with artifact paths.
func fakeFocus(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost:
			ref := r.URL.Query().Get("ref")
			_ = json.NewEncoder(w).Encode(infra.FocusResponse{
				Status: "processando_autorizacao", Ref: ref,
			})
		case r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/arquivos/"):
			if strings.HasSuffix(r.URL.Path, ".xml") {
				_, _ = w.Write([]byte(`<nfeProc><infNFe/></nfeProc>`))
				return
			}
			_, _ = w.Write([]byte("%PDF-1.4 danfe"))
		case r.Method == http.MethodGet:
			ref := strings.TrimPrefix(r.URL.Path, "/v2/nfe/")
			_ = json.NewEncoder(w).Encode(infra.FocusResponse{
				Status:       "autorizado",
				StatusSefaz:  "100",
				Mensagem:     "Autorizado o uso da NF-e",
				ChaveNFe:     "35230800000000000000550010000001001000000010",
				Ref:          ref,
				CaminhoXML:   "/arquivos/" + ref + ".xml",
				CaminhoDANFE: "/arquivos/" + ref + ".pdf",
			})
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

// ── Suite setup ──────────────────────────────────────────────────────────────

type testEnv struct {
	server *httptest.Server
	db     *gorm.DB
	token  string // administrador JWT

	orgID     uuid.UUID
	userID    uuid.UUID
	empresa   *model.Empresa
	produto   *model.Produto
	deposito  *model.Deposito
	pedido    *model.Pedido
	itemRowID uuid.UUID
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	pgC, err := tcPostgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:15-alpine"),
		tcPostgres.WithDatabase("lojahub_test"),
		tcPostgres.WithUsername("lojahub"),
		tcPostgres.WithPassword("lojahub"),
		testcontainers.WithWaitStrategy(
			tcPostgres.BasicWaitStrategies()...,
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgC.Terminate(ctx) })

	pgURL, err := pgC.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	rdC, err := tcRedis.RunContainer(ctx,
		testcontainers.WithImage("redis:7-alpine"),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdC.Terminate(ctx) })

	rdURL, err := rdC.ConnectionString(ctx)
	require.NoError(t, err)

	focus := fakeFocus(t)

	cfg := &config.Config{
		Port:                 8000,
		Env:                  "test",
		DatabaseURL:          pgURL,
		RedisURL:             rdURL,
		JWTSecret:            "test-secret-key",
		FocusToken:           "token-global-e2e",
		FocusHost:            focus.URL,
		FocusAmbientePadrao:  "homologacao",
		FocusPollMax:         3,
		FocusPollIntervalSec: 1,
		JobMaxAttempts:       3,
		WorkerPoolSize:       1,
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	require.NoError(t, err)

	rdb, err := infra.NewRedis(cfg.RedisURL)
	require.NoError(t, err)

	env := &testEnv{db: db, orgID: uuid.New(), userID: uuid.New()}
	seed(t, env)

	focusCB := infra.NewCircuitBreaker(infra.DefaultCBConfig())
	r := New(cfg, db, rdb, focusCB)
	env.server = httptest.NewServer(r)
	t.Cleanup(env.server.Close)

	env.token = signToken(t, cfg.JWTSecret, env.userID, "administrador")
	return env
}

// seed creates the membership table (owned by the auth layer in production,
// absent from AutoMigrate) and a minimal emitting setup: empresa + cenário
// fiscal, catalog product with stock, and one marketplace order whose single
// item is still unlinked.
func seed(t *testing.T, env *testEnv) {
	t.Helper()

	require.NoError(t, env.db.Exec(`CREATE TABLE IF NOT EXISTS organization_members (
		organization_id uuid NOT NULL,
		user_id         uuid NOT NULL,
		PRIMARY KEY (organization_id, user_id)
	)`).Error)
	require.NoError(t, env.db.Exec(
		`INSERT INTO organization_members (organization_id, user_id) VALUES (?, ?)`,
		env.orgID, env.userID).Error)

	tokenHomolog := "token-empresa-e2e"
	codMun := "3550308"
	env.empresa = &model.Empresa{
		OrganizationID:   env.orgID,
		RazaoSocial:      "Loja E2E Comercio LTDA",
		CNPJ:             "11222333000181",
		RegimeTributario: "simples_nacional",
		NumeroSerie:      "1",
		ProximaNFe:       100,
		TokenHomologacao: &tokenHomolog,
		Logradouro:       "Rua dos Testes",
		NumeroEndereco:   "42",
		Bairro:           "Centro",
		Municipio:        "São Paulo",
		CodigoMunicipio:  &codMun,
		UF:               "SP",
		CEP:              "01001000",
	}
	require.NoError(t, env.db.Create(env.empresa).Error)

	origem := "0"
	require.NoError(t, env.db.Create(&model.CenarioFiscal{
		EmpresaID:      env.empresa.ID,
		TipoPessoa:     "fisica",
		DentroEstado:   true,
		CFOP:           "5102",
		ICMSSituacao:   "102",
		OrigemPadrao:   &origem,
		PISSituacao:    "49",
		COFINSSituacao: "49",
	}).Error)

	ncm := "85183000"
	env.produto = &model.Produto{
		OrganizationID: env.orgID,
		Nome:           "Fone Bluetooth",
		SKU:            "FONE-01",
		NCM:            &ncm,
		Origem:         &origem,
		Ativo:          true,
	}
	require.NoError(t, env.db.Create(env.produto).Error)

	env.deposito = &model.Deposito{
		OrganizationID: env.orgID,
		Nome:           "Depósito padrão",
		Padrao:         true,
	}
	require.NoError(t, env.db.Create(env.deposito).Error)
	require.NoError(t, env.db.Create(&model.EstoqueSaldo{
		DepositoID: env.deposito.ID,
		ProdutoID:  env.produto.ID,
		Disponivel: decimal.NewFromInt(100),
	}).Error)

	doc := "12345678909"
	sku := "MLB-123"
	env.pedido = &model.Pedido{
		OrganizationID:     env.orgID,
		EmpresaID:          env.empresa.ID,
		Marketplace:        "mercado_livre",
		MarketplaceOrderID: "2000001",
		Status:             "aguardando_vinculo",
		HasUnlinkedItems:   true,
		ClienteNome:        "Comprador Teste",
		ClienteDocumento:   &doc,
		Logradouro:         "Av. Paulista",
		NumeroEndereco:     "1000",
		Bairro:             "Bela Vista",
		Municipio:          "São Paulo",
		CodigoMunicipio:    &codMun,
		UF:                 "SP",
		CEP:                "01310100",
		Total:              decimal.RequireFromString("199.80"),
		Items: []model.PedidoItem{{
			SKU:           &sku,
			Titulo:        "Fone Bluetooth TWS",
			Quantidade:    2,
			ValorUnitario: decimal.RequireFromString("99.90"),
		}},
	}
	require.NoError(t, env.db.Create(env.pedido).Error)
	env.itemRowID = env.pedido.Items[0].ID
}

func signToken(t *testing.T, secret string, userID uuid.UUID, rol string) string {
	t.Helper()
	claims := &middleware.JWTClaims{
		UserID: userID.String(),
		Email:  "e2e@lojahub.test",
		Rol:    rol,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func (env *testEnv) saldo(t *testing.T) *model.EstoqueSaldo {
	t.Helper()
	var s model.EstoqueSaldo
	require.NoError(t, env.db.
		Where("deposito_id = ? AND produto_id = ?", env.deposito.ID, env.produto.ID).
		First(&s).Error)
	return &s
}

// ── Tests ────────────────────────────────────────────────────────────────────

func TestE2E_Health(t *testing.T) {
	env := setupTestEnv(t)

	resp := do(t, env.server, "GET", "/health", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]any
	decodeJSON(t, resp, &body)
	assert.Equal(t, true, body["ok"])
	assert.Equal(t, "connected", body["db"])
	assert.Equal(t, "connected", body["redis"])
}

// Full path: link the only item → order becomes ready and the reserve runs
// inline → emit → authorized with artifacts → run the worker to drain the
// consume job.
func TestE2E_VinculoEmissaoConsumo(t *testing.T) {
	env := setupTestEnv(t)

	// 1. Link the item.
	itemID := env.itemRowID.String()
	vincResp := do(t, env.server, "POST", "/v1/vinculos", jsonBody(t, dto.VincularItemRequest{
		PedidoID:  env.pedido.ID.String(),
		ItemRowID: &itemID,
		ProdutoID: env.produto.ID.String(),
	}), env.token)
	require.Equal(t, http.StatusOK, vincResp.StatusCode)

	var vinc dto.VincularItemResponse
	decodeJSON(t, vincResp, &vinc)
	assert.True(t, vinc.OK)
	assert.False(t, vinc.HasUnlinkedItems)
	assert.Equal(t, env.produto.ID.String(), vinc.Item.ProdutoID)

	// Reserve applied inline: 100 - 2 available, 2 reserved.
	saldo := env.saldo(t)
	assert.Equal(t, "98", saldo.Disponivel.String())
	assert.Equal(t, "2", saldo.Reservado.String())

	var pedido model.Pedido
	require.NoError(t, env.db.First(&pedido, "id = ?", env.pedido.ID).Error)
	assert.Equal(t, "pronto_para_emitir", pedido.Status)

	// SKU mapping persisted for future orders.
	var vinculos int64
	env.db.Model(&model.VinculoProduto{}).
		Where("sku = ? AND marketplace = ?", "MLB-123", "mercado_livre").
		Count(&vinculos)
	assert.Equal(t, int64(1), vinculos)

	// 2. Emit.
	emitResp := do(t, env.server, "POST", "/v1/nfe/emitir", jsonBody(t, dto.EmitirLoteRequest{
		OrganizationID: env.orgID.String(),
		EmpresaID:      env.empresa.ID.String(),
		PedidoIDs:      []string{env.pedido.ID.String()},
	}), env.token)
	require.Equal(t, http.StatusOK, emitResp.StatusCode)

	var emit dto.EmitirLoteResponse
	decodeJSON(t, emitResp, &emit)
	require.True(t, emit.OK)
	require.Len(t, emit.Resultados, 1)
	require.True(t, emit.Resultados[0].OK, "erro: %s", emit.Resultados[0].Erro)

	nota := emit.Resultados[0].Resposta
	require.NotNil(t, nota)
	assert.Equal(t, int64(100), nota.Numero) // proxima_nfe hint honored
	assert.Equal(t, "autorizado", nota.Status)
	require.NotNil(t, nota.ChaveNFe)

	// Artifacts downloaded and stored base64.
	var stored model.NotaFiscal
	require.NoError(t, env.db.First(&stored, "pedido_id = ?", env.pedido.ID).Error)
	require.NotNil(t, stored.XML)
	require.NotNil(t, stored.DANFE)

	// Hint advanced, order transitioned, consume job enqueued.
	var empresa model.Empresa
	require.NoError(t, env.db.First(&empresa, "id = ?", env.empresa.ID).Error)
	assert.Equal(t, int64(101), empresa.ProximaNFe)

	require.NoError(t, env.db.First(&pedido, "id = ?", env.pedido.ID).Error)
	assert.Equal(t, "nfe_emitida", pedido.Status)

	// 3. Drain the consume job.
	jobsResp := do(t, env.server, "POST", "/v1/jobs/run", jsonBody(t, dto.JobsRunRequest{Limit: 10}), env.token)
	require.Equal(t, http.StatusOK, jobsResp.StatusCode)

	var jobs dto.JobsRunResponse
	decodeJSON(t, jobsResp, &jobs)
	require.Equal(t, 1, jobs.Processed)
	assert.Equal(t, model.JobConsume, jobs.Results[0].Tipo)
	assert.Equal(t, model.JobDone, jobs.Results[0].Status)

	// Reservation consumed: nothing reserved, available untouched.
	saldo = env.saldo(t)
	assert.Equal(t, "98", saldo.Disponivel.String())
	assert.Equal(t, "0", saldo.Reservado.String())

	// 4. List documents for the order.
	listResp := do(t, env.server, "GET", fmt.Sprintf("/v1/nfe/pedido/%s", env.pedido.ID), nil, env.token)
	require.Equal(t, http.StatusOK, listResp.StatusCode)
	var list struct {
		OK    bool                     `json:"ok"`
		Notas []dto.NotaFiscalResponse `json:"notas"`
	}
	decodeJSON(t, listResp, &list)
	require.Len(t, list.Notas, 1)
	assert.Equal(t, int64(100), list.Notas[0].Numero)
}

// Re-emitting an already-authorized order must fail that entry without
// touching the numbering sequence.
func TestE2E_ReemissaoIdempotente(t *testing.T) {
	env := setupTestEnv(t)

	itemID := env.itemRowID.String()
	resp := do(t, env.server, "POST", "/v1/vinculos", jsonBody(t, dto.VincularItemRequest{
		PedidoID:  env.pedido.ID.String(),
		ItemRowID: &itemID,
		ProdutoID: env.produto.ID.String(),
	}), env.token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	emitReq := dto.EmitirLoteRequest{
		OrganizationID: env.orgID.String(),
		EmpresaID:      env.empresa.ID.String(),
		PedidoIDs:      []string{env.pedido.ID.String()},
	}
	first := do(t, env.server, "POST", "/v1/nfe/emitir", jsonBody(t, emitReq), env.token)
	require.Equal(t, http.StatusOK, first.StatusCode)
	first.Body.Close()

	second := do(t, env.server, "POST", "/v1/nfe/emitir", jsonBody(t, emitReq), env.token)
	require.Equal(t, http.StatusBadRequest, second.StatusCode) // every entry failed

	var emit dto.EmitirLoteResponse
	decodeJSON(t, second, &emit)
	assert.False(t, emit.OK)
	require.Len(t, emit.Resultados, 1)
	assert.False(t, emit.Resultados[0].OK)
	assert.Equal(t, "nfe_ja_emitida", emit.Resultados[0].Status)

	// Single document, hint advanced exactly once.
	var notas int64
	env.db.Model(&model.NotaFiscal{}).Where("pedido_id = ?", env.pedido.ID).Count(&notas)
	assert.Equal(t, int64(1), notas)

	var empresa model.Empresa
	require.NoError(t, env.db.First(&empresa, "id = ?", env.empresa.ID).Error)
	assert.Equal(t, int64(101), empresa.ProximaNFe)
}

// Concurrent reservations for the same empresa+serie+ambiente must never
// share a number: the FOR UPDATE row lock serializes allocation and
// idx_notas_numero_vivo turns any double allocation into a constraint error.
func TestE2E_ReservaConcorrenteSemNumeroDuplicado(t *testing.T) {
	env := setupTestEnv(t)
	notaRepo := repository.NewNotaFiscalRepository(env.db)

	const n = 8
	numeros := make(chan int64, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			pedidoID := uuid.New()
			nota, err := notaRepo.ReservarNumero(context.Background(), repository.ReservaNumeroParams{
				OrganizationID: env.orgID,
				EmpresaID:      env.empresa.ID,
				PedidoID:       pedidoID,
				Marketplace:    "mercado_livre",
				Ambiente:       "homologacao",
				Serie:          "1",
				Referencia:     fmt.Sprintf("conc-%d-%s", i, pedidoID),
			})
			if assert.NoError(t, err) {
				numeros <- nota.Numero
			}
		}(i)
	}
	wg.Wait()
	close(numeros)

	vistos := make(map[int64]bool)
	for numero := range numeros {
		assert.False(t, vistos[numero], "número %d reservado duas vezes", numero)
		vistos[numero] = true
	}
	assert.Len(t, vistos, n)
}

// A reserve job that fails halfway (item B without balance) must not
// re-apply item A's reservation when the worker retries: the movement record
// makes each (pedido, produto, tipo) mutation single-shot.
func TestE2E_RetryDeReservaNaoDuplicaItemAplicado(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	ncm := "39269090"
	produtoB := &model.Produto{
		OrganizationID: env.orgID, Nome: "Capa protetora", SKU: "CAPA-01",
		NCM: &ncm, Ativo: true,
	}
	require.NoError(t, env.db.Create(produtoB).Error)

	skuA, skuB := "MLB-123", "MLB-456"
	pedido := &model.Pedido{
		OrganizationID:     env.orgID,
		EmpresaID:          env.empresa.ID,
		Marketplace:        "mercado_livre",
		MarketplaceOrderID: "2000002",
		Status:             "pronto_para_emitir",
		HasUnlinkedItems:   false,
		Total:              decimal.RequireFromString("219.80"),
		Items: []model.PedidoItem{
			{SKU: &skuA, Titulo: "Fone Bluetooth TWS", Quantidade: 2,
				ValorUnitario: decimal.RequireFromString("99.90"), ProdutoID: &env.produto.ID},
			{SKU: &skuB, Titulo: "Capa protetora", Quantidade: 1,
				ValorUnitario: decimal.RequireFromString("20.00"), ProdutoID: &produtoB.ID},
		},
	}
	require.NoError(t, env.db.Create(pedido).Error)

	jobRepo := repository.NewInventoryJobRepository(env.db)
	require.NoError(t, jobRepo.Upsert(ctx, &model.InventoryJob{
		OrganizationID: env.orgID,
		PedidoID:       pedido.ID,
		Tipo:           model.JobReserve,
		Status:         model.JobPending,
	}))

	estoqueRepo := repository.NewEstoqueRepository(env.db)
	estoqueSvc := service.NewEstoqueService(
		repository.NewPedidoRepository(env.db),
		estoqueRepo,
	)
	w := worker.NewEstoqueWorker(jobRepo, estoqueSvc, nil, 8)

	// Item A already applied, as if a prior pass died between items.
	require.NoError(t, estoqueRepo.Reservar(ctx, env.deposito.ID, env.produto.ID, pedido.ID, decimal.NewFromInt(2)))
	saldoA := env.saldo(t)
	require.Equal(t, "98", saldoA.Disponivel.String())
	require.Equal(t, "2", saldoA.Reservado.String())

	// First worker pass: item A replays as a no-op, item B has no balance row
	// and fails the job.
	resp, err := w.ProcessarLote(ctx, &pedido.ID, 10)
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	require.Equal(t, model.JobFailed, resp.Results[0].Status)

	saldoA = env.saldo(t)
	assert.Equal(t, "98", saldoA.Disponivel.String(), "item A reservado mais de uma vez")
	assert.Equal(t, "2", saldoA.Reservado.String())

	// Give item B balance and bring the retry window forward.
	require.NoError(t, env.db.Create(&model.EstoqueSaldo{
		DepositoID: env.deposito.ID,
		ProdutoID:  produtoB.ID,
		Disponivel: decimal.NewFromInt(50),
	}).Error)
	require.NoError(t, env.db.Model(&model.InventoryJob{}).
		Where("pedido_id = ? AND tipo = ?", pedido.ID, model.JobReserve).
		Update("next_attempt_at", time.Now().Add(-time.Minute)).Error)

	// Retry: only item B moves balance.
	resp, err = w.ProcessarLote(ctx, &pedido.ID, 10)
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	require.Equal(t, model.JobDone, resp.Results[0].Status)

	saldoA = env.saldo(t)
	assert.Equal(t, "98", saldoA.Disponivel.String(), "item A reservado mais de uma vez")
	assert.Equal(t, "2", saldoA.Reservado.String())

	var saldoB model.EstoqueSaldo
	require.NoError(t, env.db.
		Where("deposito_id = ? AND produto_id = ?", env.deposito.ID, produtoB.ID).
		First(&saldoB).Error)
	assert.Equal(t, "49", saldoB.Disponivel.String())
	assert.Equal(t, "1", saldoB.Reservado.String())

	// Exactly one movement per item.
	var movimentos int64
	env.db.Model(&model.MovimentoEstoque{}).
		Where("pedido_id = ? AND tipo = ?", pedido.ID, "reserva").
		Count(&movimentos)
	assert.Equal(t, int64(2), movimentos)
}

// SKU→produto mappings are tenant-scoped: two organizations selling the same
// marketplace SKU keep independent links.
func TestE2E_VinculoSKUIsoladoPorOrganizacao(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	produtoRepo := repository.NewProdutoRepository(env.db)

	outraOrg := uuid.New()
	produtoOutra := &model.Produto{
		OrganizationID: outraOrg, Nome: "Fone concorrente", SKU: "FONE-01", Ativo: true,
	}
	require.NoError(t, env.db.Create(produtoOutra).Error)

	require.NoError(t, produtoRepo.UpsertVinculo(ctx, &model.VinculoProduto{
		OrganizationID: env.orgID, Marketplace: "mercado_livre", SKU: "MLB-123",
		ProdutoID: env.produto.ID,
	}))
	require.NoError(t, produtoRepo.UpsertVinculo(ctx, &model.VinculoProduto{
		OrganizationID: outraOrg, Marketplace: "mercado_livre", SKU: "MLB-123",
		ProdutoID: produtoOutra.ID,
	}))

	// Each tenant resolves to its own product.
	v1, err := produtoRepo.FindVinculo(ctx, env.orgID, "mercado_livre", "MLB-123")
	require.NoError(t, err)
	assert.Equal(t, env.produto.ID, v1.ProdutoID)

	v2, err := produtoRepo.FindVinculo(ctx, outraOrg, "mercado_livre", "MLB-123")
	require.NoError(t, err)
	assert.Equal(t, produtoOutra.ID, v2.ProdutoID)

	// Re-upsert within a tenant updates in place instead of adding a row.
	require.NoError(t, produtoRepo.UpsertVinculo(ctx, &model.VinculoProduto{
		OrganizationID: outraOrg, Marketplace: "mercado_livre", SKU: "MLB-123",
		ProdutoID: produtoOutra.ID,
	}))
	var total int64
	env.db.Model(&model.VinculoProduto{}).
		Where("marketplace = ? AND sku = ?", "mercado_livre", "MLB-123").
		Count(&total)
	assert.Equal(t, int64(2), total)
}

func TestE2E_AutenticacaoEPapeis(t *testing.T) {
	env := setupTestEnv(t)

	// No token.
	resp := do(t, env.server, "POST", "/v1/nfe/emitir", jsonBody(t, map[string]any{}), "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	// operador cannot emit.
	operador := signToken(t, "test-secret-key", env.userID, "operador")
	resp = do(t, env.server, "POST", "/v1/nfe/emitir", jsonBody(t, map[string]any{}), operador)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	// but can link items.
	itemID := env.itemRowID.String()
	resp = do(t, env.server, "POST", "/v1/vinculos", jsonBody(t, dto.VincularItemRequest{
		PedidoID:  env.pedido.ID.String(),
		ItemRowID: &itemID,
		ProdutoID: env.produto.ID.String(),
	}), operador)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
}
