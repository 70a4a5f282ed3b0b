package handler

import (
	"net/http"

	"lojahub/internal/apierror"
	"lojahub/internal/dto"
	"lojahub/internal/middleware"
	"lojahub/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type EmissaoHandler struct{ svc service.EmissaoService }

func NewEmissaoHandler(svc service.EmissaoService) *EmissaoHandler {
	return &EmissaoHandler{svc: svc}
}

// EmitirLote processes an emission batch. Every order id gets its own result
// entry; the response is 200 as long as at least one order succeeded and 400
// only when the whole batch failed (or the request itself was unusable).
func (h *EmissaoHandler) EmitirLote(c *gin.Context) {
	var req dto.EmitirLoteRequest
	if !bindAndValidate(c, &req) {
		return
	}
	claims := middleware.GetClaims(c)
	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		c.JSON(http.StatusUnauthorized, apierror.New("Token sem identificação de usuário"))
		return
	}

	resp, err := h.svc.EmitirLote(c.Request.Context(), userID, req)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	status := http.StatusOK
	if !resp.OK {
		status = http.StatusBadRequest
	}
	c.JSON(status, resp)
}

// Sincronizar reconciles local invoice state with the gateway without
// submitting anything — the recovery endpoint after a polling timeout.
func (h *EmissaoHandler) Sincronizar(c *gin.Context) {
	var req dto.EmitirLoteRequest
	if !bindAndValidate(c, &req) {
		return
	}
	req.SomenteSincronizar = true

	claims := middleware.GetClaims(c)
	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		c.JSON(http.StatusUnauthorized, apierror.New("Token sem identificação de usuário"))
		return
	}

	resp, err := h.svc.EmitirLote(c.Request.Context(), userID, req)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	status := http.StatusOK
	if !resp.OK {
		status = http.StatusBadRequest
	}
	c.JSON(status, resp)
}

// Cancelar requests cancellation of an authorized invoice at the gateway and,
// on success, queues the stock refund.
func (h *EmissaoHandler) Cancelar(c *gin.Context) {
	var req dto.CancelarNFeRequest
	if !bindAndValidate(c, &req) {
		return
	}
	claims := middleware.GetClaims(c)
	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		c.JSON(http.StatusUnauthorized, apierror.New("Token sem identificação de usuário"))
		return
	}

	resp, err := h.svc.Cancelar(c.Request.Context(), userID, req)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ListarPorPedido returns every emission attempt recorded for an order,
// newest first.
func (h *EmissaoHandler) ListarPorPedido(c *gin.Context) {
	pedidoID, err := uuid.Parse(c.Param("order_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("order_id inválido"))
		return
	}
	notas, err := h.svc.ListarPorPedido(c.Request.Context(), pedidoID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("Erro ao listar notas fiscais"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "notas": notas})
}
