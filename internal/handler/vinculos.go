package handler

import (
	"net/http"

	"lojahub/internal/apierror"
	"lojahub/internal/dto"
	"lojahub/internal/service"

	"github.com/gin-gonic/gin"
)

type VinculosHandler struct{ svc service.VinculoService }

func NewVinculosHandler(svc service.VinculoService) *VinculosHandler {
	return &VinculosHandler{svc: svc}
}

// Vincular binds a marketplace line item to a catalog product. A failure
// anywhere in the chain leaves the order flagged as unlinked with a retryable
// reserve job behind it, so the client can simply show the error and let the
// operator try again.
func (h *VinculosHandler) Vincular(c *gin.Context) {
	var req dto.VincularItemRequest
	if !bindAndValidate(c, &req) {
		return
	}

	resp, err := h.svc.VincularItem(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	c.JSON(http.StatusOK, resp)
}
