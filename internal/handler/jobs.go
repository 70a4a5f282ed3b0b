package handler

import (
	"net/http"

	"lojahub/internal/apierror"
	"lojahub/internal/dto"
	"lojahub/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// JobsHandler exposes the inventory job worker to external schedulers.
// The endpoint is safe to call concurrently: claiming is a conditional
// update, so overlapping invocations never double-process a job.
type JobsHandler struct{ w *worker.EstoqueWorker }

func NewJobsHandler(w *worker.EstoqueWorker) *JobsHandler { return &JobsHandler{w: w} }

func (h *JobsHandler) Run(c *gin.Context) {
	var req dto.JobsRunRequest
	if !bindAndValidate(c, &req) {
		return
	}

	var pedidoID *uuid.UUID
	if req.PedidoID != nil {
		id, err := uuid.Parse(*req.PedidoID)
		if err != nil {
			c.JSON(http.StatusBadRequest, apierror.New("order_id inválido"))
			return
		}
		pedidoID = &id
	}

	resp, err := h.w.ProcessarLote(c.Request.Context(), pedidoID, req.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("Erro ao processar jobs de estoque"))
		return
	}
	c.JSON(http.StatusOK, resp)
}
